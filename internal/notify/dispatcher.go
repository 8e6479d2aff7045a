// Package notify delivers registration events from the queue to a webhook.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"regportal/internal/queue"
	"regportal/internal/registration"
)

// Sender delivers one notification payload.
type Sender interface {
	Send(ctx context.Context, payload []byte) error
}

// Publish enqueues a registration notification.
func Publish(ctx context.Context, q queue.Queue, rec registration.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return q.Publish(ctx, queue.Message{Type: queue.TypeRegistration, Body: body})
}

// Dispatcher consumes registration messages and forwards them to a Sender.
type Dispatcher struct {
	Queue   queue.Queue
	Sender  Sender
	Logger  *slog.Logger
	Results *prometheus.CounterVec // optional, labelled by result
}

// Run blocks until ctx is done or the queue closes. Delivery failures are
// logged and counted, never retried.
func (d *Dispatcher) Run(ctx context.Context) error {
	messages, err := d.Queue.Consume(ctx)
	if err != nil {
		return err
	}

	d.Logger.Info("notify.dispatcher_started")
	for msg := range messages {
		if msg.Type != queue.TypeRegistration {
			d.count("skipped")
			continue
		}

		var rec registration.Record
		if err := json.Unmarshal(msg.Body, &rec); err != nil {
			d.Logger.Warn("notify.decode_failed", slog.String("error", err.Error()))
			d.count("failed")
			continue
		}

		if err := d.Sender.Send(ctx, msg.Body); err != nil {
			d.Logger.Error("notify.send_failed",
				slog.String("registration_id", rec.ID),
				slog.String("error", err.Error()),
			)
			d.count("failed")
			continue
		}
		d.Logger.Info("notify.sent",
			slog.String("registration_id", rec.ID),
			slog.String("course", rec.Course),
		)
		d.count("sent")
	}
	d.Logger.Info("notify.dispatcher_stopped")
	return nil
}

func (d *Dispatcher) count(result string) {
	if d.Results != nil {
		d.Results.WithLabelValues(result).Inc()
	}
}
