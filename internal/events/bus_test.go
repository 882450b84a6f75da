package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ausmo/scan-engine/internal/model"
)

func testEvent(t model.EventType) model.SwitchEvent {
	return model.SwitchEvent{Type: t, Source: model.SourceInternal, Timestamp: time.Now()}
}

func TestPublishOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.Subscribe(func(model.SwitchEvent) { order = append(order, "a") })
	bus.Subscribe(func(model.SwitchEvent) { order = append(order, "b") })
	bus.Subscribe(func(model.SwitchEvent) { order = append(order, "c") })

	bus.Publish(testEvent(model.EventStart))

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestPanickingHandlerIsIsolated(t *testing.T) {
	bus := NewBus()

	var got []string
	bus.Subscribe(func(model.SwitchEvent) { panic("boom") })
	bus.Subscribe(func(model.SwitchEvent) { got = append(got, "b") })

	bus.Publish(testEvent(model.EventStart))

	assert.Equal(t, []string{"b"}, got, "handler after the panicking one should still run")
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()

	var aCount, bCount int
	idA := bus.Subscribe(func(model.SwitchEvent) { aCount++ })
	bus.Subscribe(func(model.SwitchEvent) { bCount++ })

	bus.Publish(testEvent(model.EventNext))
	bus.Unsubscribe(idA)
	bus.Publish(testEvent(model.EventNext))

	assert.Equal(t, 1, aCount)
	assert.Equal(t, 2, bCount)
}

func TestUnsubscribeUnknownIDIsNoop(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(func(model.SwitchEvent) {})

	bus.Unsubscribe(42)
	bus.Unsubscribe(42)

	var count int
	bus.Subscribe(func(model.SwitchEvent) { count++ })
	bus.Publish(testEvent(model.EventStop))
	assert.Equal(t, 1, count)
}

func TestEachSubscriberSeesEventOnce(t *testing.T) {
	bus := NewBus()

	counts := make(map[string]int)
	bus.Subscribe(func(model.SwitchEvent) { counts["a"]++ })
	bus.Subscribe(func(model.SwitchEvent) { counts["b"]++ })

	bus.Publish(testEvent(model.EventSelect))

	assert.Equal(t, 1, counts["a"])
	assert.Equal(t, 1, counts["b"])
}
