package events

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ausmo/scan-engine/internal/model"
)

// Handler receives published switch events. Handlers run synchronously on
// the publishing goroutine, in registration order.
type Handler func(model.SwitchEvent)

type subscription struct {
	id      int
	handler Handler
}

// Bus fans switch events out to subscribers. A panicking handler is logged
// and skipped; it never blocks delivery to the handlers after it.
type Bus struct {
	mu     sync.Mutex
	subs   []subscription
	nextID int
}

func NewBus() *Bus {
	return &Bus{nextID: 1}
}

// Subscribe registers a handler and returns its subscription id.
func (b *Bus) Subscribe(h Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscription{id: id, handler: h})
	return id
}

// Unsubscribe removes a handler. Removing an unknown id is a no-op.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the event to every subscriber in registration order.
func (b *Bus) Publish(event model.SwitchEvent) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, sub := range subs {
		b.deliver(sub, event)
	}
}

func (b *Bus) deliver(sub subscription, event model.SwitchEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Int("subscription", sub.id).
				Str("event", string(event.Type)).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()
	sub.handler(event)
}
