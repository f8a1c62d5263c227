package realtime

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cuongbtq/notification-service/internal/notification/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroadcaster(bufferSize int) *Broadcaster {
	return NewBroadcaster(bufferSize, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func notificationWith(id, status string) *domain.Notification {
	return &domain.Notification{ID: id, Status: status}
}

// receive reads one event or fails the test after a short wait
func receive(t *testing.T, observer *Observer) Event {
	t.Helper()

	select {
	case ev, ok := <-observer.Events():
		require.True(t, ok, "event channel closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBroadcaster_SubscribeDeliversGreeting(t *testing.T) {
	b := newTestBroadcaster(4)
	defer b.Close()

	observer := b.Subscribe()
	require.NotEmpty(t, observer.ID())

	ev := receive(t, observer)
	assert.Equal(t, EventConnected, ev.Name)

	payload, ok := ev.Payload.(ConnectedPayload)
	require.True(t, ok)
	assert.Equal(t, observer.ID(), payload.ObserverID)
	assert.NotEmpty(t, payload.Message)
}

func TestBroadcaster_PushFansOutInOrder(t *testing.T) {
	b := newTestBroadcaster(8)
	defer b.Close()

	first := b.Subscribe()
	second := b.Subscribe()

	// Drain greetings
	receive(t, first)
	receive(t, second)

	statuses := []string{"PENDING", "PROCESSING", "SUCCEEDED"}
	for _, status := range statuses {
		b.Push(notificationWith("n-1", status))
	}

	for _, observer := range []*Observer{first, second} {
		for _, want := range statuses {
			ev := receive(t, observer)
			assert.Equal(t, EventNotificationUpdate, ev.Name)

			n, ok := ev.Payload.(*domain.Notification)
			require.True(t, ok)
			assert.Equal(t, "n-1", n.ID)
			assert.Equal(t, want, n.Status)
		}
	}
}

func TestBroadcaster_SlowObserverDoesNotBlock(t *testing.T) {
	b := newTestBroadcaster(1)
	defer b.Close()

	slow := b.Subscribe()
	fast := b.Subscribe()
	receive(t, fast)

	// The slow observer never drains its greeting, so its buffer stays full
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			b.Push(notificationWith("n-1", "PROCESSING"))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("push blocked on a slow observer")
	}

	// Delivery is best-effort under backpressure, but the first push after
	// the fast observer drained its greeting always fits its buffer
	ev := receive(t, fast)
	assert.Equal(t, EventNotificationUpdate, ev.Name)

	// The slow observer still only holds its undrained greeting
	ev = receive(t, slow)
	assert.Equal(t, EventConnected, ev.Name)
}

func TestBroadcaster_PushTo(t *testing.T) {
	b := newTestBroadcaster(4)
	defer b.Close()

	target := b.Subscribe()
	other := b.Subscribe()
	receive(t, target)
	receive(t, other)

	ok := b.PushTo(target.ID(), notificationWith("n-1", "SUCCEEDED"))
	assert.True(t, ok)

	ev := receive(t, target)
	assert.Equal(t, EventNotificationUpdate, ev.Name)

	select {
	case ev := <-other.Events():
		t.Fatalf("unexpected event for other observer: %v", ev)
	default:
	}

	assert.False(t, b.PushTo("unknown-observer", notificationWith("n-1", "SUCCEEDED")))
}

func TestBroadcaster_Stats(t *testing.T) {
	b := newTestBroadcaster(4)
	defer b.Close()

	assert.Equal(t, 0, b.Stats().ConnectedClients)

	first := b.Subscribe()
	second := b.Subscribe()

	stats := b.Stats()
	assert.Equal(t, 2, stats.ConnectedClients)
	assert.ElementsMatch(t, []string{first.ID(), second.ID()}, stats.ClientIDs)

	b.Unsubscribe(first.ID())

	stats = b.Stats()
	assert.Equal(t, 1, stats.ConnectedClients)
	assert.Equal(t, []string{second.ID()}, stats.ClientIDs)
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := newTestBroadcaster(4)
	defer b.Close()

	observer := b.Subscribe()
	receive(t, observer)

	b.Unsubscribe(observer.ID())

	_, open := <-observer.Events()
	assert.False(t, open)

	// Unsubscribing twice is harmless
	b.Unsubscribe(observer.ID())

	b.Push(notificationWith("n-1", "PENDING"))
}

func TestBroadcaster_Close(t *testing.T) {
	b := newTestBroadcaster(4)

	first := b.Subscribe()
	second := b.Subscribe()
	receive(t, first)
	receive(t, second)

	b.Close()
	b.Close()

	for _, observer := range []*Observer{first, second} {
		_, open := <-observer.Events()
		assert.False(t, open)
	}

	assert.Equal(t, 0, b.Stats().ConnectedClients)

	// Push after close is a no-op
	b.Push(notificationWith("n-1", "PENDING"))

	// Subscribe after close hands back an already-closed observer
	late := b.Subscribe()
	_, open := <-late.Events()
	assert.False(t, open)
}
