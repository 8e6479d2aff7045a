package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regportal/internal/logging"
)

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestInMemory_PublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(2)
	require.NoError(t, q.Publish(ctx, Message{Type: TypeRegistration, Body: json.RawMessage(`{"name":"Asha"}`)}))

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	msg := receive(t, ch)
	assert.Equal(t, TypeRegistration, msg.Type)
	assert.JSONEq(t, `{"name":"Asha"}`, string(msg.Body))

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestInMemory_FullBufferDrops(t *testing.T) {
	q := NewInMemory(1)
	ctx := context.Background()
	require.NoError(t, q.Publish(ctx, Message{Type: "a"}))
	assert.ErrorIs(t, q.Publish(ctx, Message{Type: "b"}), ErrFull)
}

func TestRedisQueue_PublishConsume(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewRedisQueue(client, "test:regs", logging.Discard())
	q.wait = 100 * time.Millisecond

	require.NoError(t, q.Publish(ctx, Message{Type: TypeRegistration, Body: json.RawMessage(`{"id":"1"}`)}))
	require.NoError(t, q.Publish(ctx, Message{Type: TypeRegistration, Body: json.RawMessage(`{"id":"2"}`)}))
	// A foreign entry on the list is skipped.
	mr.Lpush("test:regs", "not-json")

	ch, err := q.Consume(ctx)
	require.NoError(t, err)

	first := receive(t, ch)
	second := receive(t, ch)
	assert.JSONEq(t, `{"id":"1"}`, string(first.Body))
	assert.JSONEq(t, `{"id":"2"}`, string(second.Body))
}
