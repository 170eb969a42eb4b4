package events

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe(EventBookingCreated, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	at := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	err := bus.PublishJSON(EventBookingCreated, BookingEventPayload{BookingID: 7, Service: "shave", BookingTime: at})
	require.NoError(t, err)

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, EventBookingCreated, received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded BookingEventPayload
	require.NoError(t, received.Decode(&decoded))
	assert.Equal(t, int64(7), decoded.BookingID)
	assert.Equal(t, "shave", decoded.Service)
	assert.True(t, decoded.BookingTime.Equal(at))
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	require.NoError(t, bus.Publish(&Event{Type: "event"}))

	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
}

func TestEventBusHandlerErrors(t *testing.T) {
	bus := NewEventBus()
	boom := errors.New("boom")
	var secondCalled bool

	bus.Subscribe("event", func(_ *Event) error { return boom })
	bus.Subscribe("event", func(_ *Event) error { secondCalled = true; return nil })

	err := bus.PublishJSON("event", map[string]int{"a": 1})
	assert.ErrorIs(t, err, boom)
	assert.True(t, secondCalled)
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NoError(t, bus.Publish(&Event{Type: "unknown"}))
	assert.NoError(t, bus.PublishJSON("unknown", nil))

	var nilBus *EventBus
	assert.NoError(t, nilBus.PublishJSON("unknown", nil))
}

func TestEventDecodeError(t *testing.T) {
	ev := &Event{Type: "bad", Payload: []byte("{")}
	var v SessionEventPayload
	assert.Error(t, ev.Decode(&v))
}
