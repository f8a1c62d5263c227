package realtime

import (
	"log/slog"
	"sync"

	"github.com/cuongbtq/notification-service/internal/notification/domain"
	"github.com/google/uuid"
)

// Event names delivered to observers
const (
	EventConnected          = "connected"
	EventNotificationUpdate = "notification_update"
)

// Event is a named payload delivered to an observer
type Event struct {
	Name    string
	Payload any
}

// ConnectedPayload is the greeting payload sent to a new observer
type ConnectedPayload struct {
	Message    string `json:"message"`
	ObserverID string `json:"observer_id"`
}

// Stats describes the currently-connected observers
type Stats struct {
	ConnectedClients int      `json:"connected_clients"`
	ClientIDs        []string `json:"client_ids"`
}

// Observer is a single realtime subscriber. Events are delivered in push
// order through a buffered channel; when the buffer is full, new events are
// dropped for this observer rather than blocking the broadcaster.
type Observer struct {
	id     string
	ch     chan Event
	mu     sync.Mutex
	closed bool
}

// ID returns the observer's assigned connection id
func (o *Observer) ID() string {
	return o.id
}

// Events returns the channel events are delivered on. The channel is closed
// when the observer is unsubscribed or the broadcaster shuts down.
func (o *Observer) Events() <-chan Event {
	return o.ch
}

// send delivers the event without blocking, reporting whether it was accepted
func (o *Observer) send(ev Event) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return false
	}

	select {
	case o.ch <- ev:
		return true
	default:
		return false
	}
}

func (o *Observer) close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		close(o.ch)
		o.closed = true
	}
}

// Broadcaster fans out notification snapshots to all connected observers.
// Delivery is best-effort: a slow or disconnected observer never blocks a
// push for the others. All methods are safe for concurrent use.
type Broadcaster struct {
	logger     *slog.Logger
	bufferSize int
	mu         sync.RWMutex
	observers  map[string]*Observer
	closed     bool
}

// NewBroadcaster creates a broadcaster whose observers buffer up to
// bufferSize events. A minimum buffer of 1 is enforced, otherwise every
// send would be dropped.
func NewBroadcaster(bufferSize int, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		logger:     logger,
		bufferSize: max(bufferSize, 1),
		observers:  make(map[string]*Observer),
	}
}

// Subscribe registers a new observer and delivers its connected greeting.
// If the broadcaster is already closed, the returned observer's channel is
// closed immediately.
func (b *Broadcaster) Subscribe() *Observer {
	observer := &Observer{
		id: uuid.New().String(),
		ch: make(chan Event, b.bufferSize),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		observer.close()
		return observer
	}
	b.observers[observer.id] = observer
	total := len(b.observers)
	b.mu.Unlock()

	observer.send(Event{
		Name: EventConnected,
		Payload: ConnectedPayload{
			Message:    "Connected to notification service",
			ObserverID: observer.id,
		},
	})

	b.logger.Info("Observer connected",
		slog.String("observer_id", observer.id),
		slog.Int("total_observers", total),
	)

	return observer
}

// Unsubscribe removes the observer and closes its event channel
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	observer, ok := b.observers[id]
	if ok {
		delete(b.observers, id)
	}
	total := len(b.observers)
	b.mu.Unlock()

	if !ok {
		return
	}

	observer.close()
	b.logger.Info("Observer disconnected",
		slog.String("observer_id", id),
		slog.Int("total_observers", total),
	)
}

// Push sends the notification snapshot to all connected observers
func (b *Broadcaster) Push(n *domain.Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, observer := range b.observers {
		if !observer.send(Event{Name: EventNotificationUpdate, Payload: n}) {
			b.logger.Warn("Dropped notification update for slow observer",
				slog.String("observer_id", observer.id),
				slog.String("notification_id", n.ID),
			)
		}
	}

	b.logger.Debug("Pushed notification update",
		slog.String("notification_id", n.ID),
		slog.String("status", n.Status),
		slog.Int("observers", len(b.observers)),
	)
}

// PushTo sends the notification snapshot to a single observer, reporting
// whether the observer exists and accepted the event
func (b *Broadcaster) PushTo(observerID string, n *domain.Notification) bool {
	b.mu.RLock()
	observer, ok := b.observers[observerID]
	b.mu.RUnlock()

	if !ok {
		return false
	}

	return observer.send(Event{Name: EventNotificationUpdate, Payload: n})
}

// Stats returns the current observer count and ids
func (b *Broadcaster) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ids := make([]string, 0, len(b.observers))
	for id := range b.observers {
		ids = append(ids, id)
	}

	return Stats{
		ConnectedClients: len(b.observers),
		ClientIDs:        ids,
	}
}

// Close shuts down the broadcaster and closes all observers. It is safe to
// call multiple times.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, observer := range b.observers {
		observer.close()
	}
	clear(b.observers)

	b.logger.Info("Broadcaster closed")
}
