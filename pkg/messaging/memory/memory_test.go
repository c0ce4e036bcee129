package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := b.Subscribe(ctx, "ambulance-updates/h1")
	require.NoError(t, err)
	second, err := b.Subscribe(ctx, "ambulance-updates/h1")
	require.NoError(t, err)
	other, err := b.Subscribe(ctx, "ambulance-updates/h2")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "ambulance-updates/h1", map[string]string{"status": "DISPATCHED"}))

	for _, ch := range []<-chan []byte{first, second} {
		select {
		case msg := <-ch:
			var got map[string]string
			require.NoError(t, json.Unmarshal(msg, &got))
			assert.Equal(t, "DISPATCHED", got["status"])
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	}

	select {
	case <-other:
		t.Fatal("message leaked to another topic")
	default:
	}
}

func TestCancelledSubscriptionIsClosed(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx, "ambulance-updates/h1")
	require.NoError(t, err)

	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, time.Millisecond)

	assert.NoError(t, b.Publish(context.Background(), "ambulance-updates/h1", "ping"))
}

func TestClosedBroker(t *testing.T) {
	b := NewBroker()
	require.NoError(t, b.Close())

	assert.ErrorIs(t, b.Publish(context.Background(), "t", "x"), ErrClosed)
	_, err := b.Subscribe(context.Background(), "t")
	assert.ErrorIs(t, err, ErrClosed)
}
