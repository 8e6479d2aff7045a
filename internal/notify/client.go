package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client posts registration notifications to a webhook.
type Client struct {
	URL  string
	HTTP *http.Client
	Skip bool
}

// New creates a client with a bounded timeout. With skip set, Send is a no-op.
func New(url string, skip bool) *Client {
	return &Client{
		URL:  url,
		Skip: skip,
		HTTP: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts a JSON payload. Any non-2xx response is an error.
func (c *Client) Send(ctx context.Context, payload []byte) error {
	if c.Skip {
		return nil
	}
	if c.URL == "" {
		return fmt.Errorf("webhook url required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "regportal-notifier")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook error %s: %s", resp.Status, string(body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
