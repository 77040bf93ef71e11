package events

import (
	"errors"
	"testing"
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

	payload := BookingEventPayload{AppointmentID: "a1", ServiceName: "Troca de Óleo", Date: "2026-01-20"}
	if err := bus.PublishJSON(EventBookingCreated, payload); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
	if received.Type != EventBookingCreated {
		t.Errorf("expected type %s, got %s", EventBookingCreated, received.Type)
	}
	if received.CreatedAt.IsZero() {
		t.Errorf("expected CreatedAt to be set")
	}

	var decoded BookingEventPayload
	if err := received.Decode(&decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if decoded.AppointmentID != "a1" || decoded.ServiceName != "Troca de Óleo" {
		t.Errorf("unexpected payload %+v", decoded)
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	if err := bus.Publish(&Event{Type: "event"}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both handlers to be called once, got %d and %d", count1, count2)
	}
}

func TestEventBusHandlerErrors(t *testing.T) {
	bus := NewEventBus()
	errFirst := errors.New("first")
	var secondCalled bool

	bus.Subscribe("event", func(_ *Event) error { return errFirst })
	bus.Subscribe("event", func(_ *Event) error { secondCalled = true; return nil })

	err := bus.Publish(&Event{Type: "event"})
	if !errors.Is(err, errFirst) {
		t.Errorf("expected joined error to contain first, got %v", err)
	}
	if !secondCalled {
		t.Errorf("expected second handler to run after the first failed")
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	if err := bus.Publish(&Event{Type: "unknown"}); err != nil {
		t.Errorf("Publish failed: %v", err)
	}
	if err := bus.PublishJSON("unknown", nil); err != nil {
		t.Errorf("PublishJSON failed: %v", err)
	}
}

func TestNilBus(t *testing.T) {
	var bus *EventBus
	if err := bus.PublishJSON(EventSignedIn, SessionEventPayload{ClientID: "c1"}); err != nil {
		t.Errorf("nil bus should drop events, got %v", err)
	}
}
