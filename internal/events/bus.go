// internal/events/bus.go
package events

import (
	"sync"

	"go.uber.org/zap"
)

// Listener receives every event fired on the Bus it is registered with.
type Listener interface {
	EventOccurred(e Event)
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(e Event)

// EventOccurred calls f(e).
func (f ListenerFunc) EventOccurred(e Event) { f(e) }

type registration struct {
	id       uint64
	listener Listener
}

// Bus dispatches events to registered listeners and channel subscribers.
//
// Fire never blocks on a consumer: listeners run synchronously on the firing
// goroutine (a panicking listener is logged and skipped), and channel
// subscribers only receive an event when their buffer has room.
type Bus struct {
	logger *zap.Logger

	mu          sync.RWMutex
	nextID      uint64
	listeners   []registration
	subscribers map[uint64]chan Event
	isShutdown  bool

	shutdownOnce sync.Once
}

// NewBus creates an empty Bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		logger:      logger.Named("event_bus"),
		subscribers: make(map[uint64]chan Event),
	}
}

// Register adds a listener and returns a function that removes it again.
func (b *Bus) Register(l Listener) (deregister func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isShutdown {
		return func() {}
	}

	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, registration{id: id, listener: l})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, reg := range b.listeners {
			if reg.id == id {
				b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// Subscribe returns a buffered channel that receives every fired event and a
// function to cancel the subscription. The channel is closed on unsubscribe
// or when the bus shuts down.
func (b *Bus) Subscribe(bufferSize int) (<-chan Event, func()) {
	if bufferSize < 0 {
		bufferSize = 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isShutdown {
		closedCh := make(chan Event)
		close(closedCh)
		return closedCh, func() {}
	}

	b.nextID++
	id := b.nextID
	ch := make(chan Event, bufferSize)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			close(sub)
			delete(b.subscribers, id)
		}
	}
	return ch, unsubscribe
}

// Fire dispatches e to all listeners and subscribers. Firing on a shut down
// bus is a no-op.
func (b *Bus) Fire(e Event) {
	if e == nil {
		return
	}

	b.mu.RLock()
	if b.isShutdown {
		b.mu.RUnlock()
		return
	}
	listeners := make([]Listener, len(b.listeners))
	for i, reg := range b.listeners {
		listeners[i] = reg.listener
	}
	// Subscriber sends happen under the read lock so unsubscribe cannot close a
	// channel mid-send; they are non-blocking so the lock is held briefly.
	for id, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			b.logger.Warn("Dropping event for slow subscriber.",
				zap.Uint64("subscriber", id),
				zap.String("type", string(e.Type())),
				zap.String("id", e.ID()))
		}
	}
	b.mu.RUnlock()

	for _, l := range listeners {
		b.notify(l, e)
	}
}

func (b *Bus) notify(l Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event listener panicked.",
				zap.Any("panic", r),
				zap.String("type", string(e.Type())),
				zap.String("id", e.ID()))
		}
	}()
	l.EventOccurred(e)
}

// Shutdown closes all subscriber channels and drops all listeners.
func (b *Bus) Shutdown() {
	b.shutdownOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		b.isShutdown = true
		for id, ch := range b.subscribers {
			close(ch)
			delete(b.subscribers, id)
		}
		b.listeners = nil
		b.logger.Debug("Event bus shut down.")
	})
}
