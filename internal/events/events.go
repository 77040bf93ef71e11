package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

const (
	EventBookingCreated           = "booking_created"
	EventAppointmentStatusChanged = "appointment_status_changed"
	EventSignedIn                 = "session_signed_in"
	EventSignedOut                = "session_signed_out"
)

// BookingEventPayload is the appointment snapshot handed to subscribers.
type BookingEventPayload struct {
	AppointmentID string    `json:"appointment_id"`
	UserID        string    `json:"user_id"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone,omitempty"`
	Vehicle       string    `json:"vehicle"`
	Plate         string    `json:"plate"`
	ServiceName   string    `json:"service_name"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Status        string    `json:"status"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// StatusEventPayload is published when staff move an appointment to a new status.
type StatusEventPayload struct {
	AppointmentID string `json:"appointment_id"`
	UserID        string `json:"user_id"`
	OldStatus     string `json:"old_status"`
	NewStatus     string `json:"new_status"`
	ChangedBy     string `json:"changed_by,omitempty"`
}

// SessionEventPayload describes a sign-in or sign-out of one client.
type SessionEventPayload struct {
	ClientID string `json:"client_id"`
	UserID   string `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Mode     string `json:"mode"`
	Method   string `json:"method,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish runs every subscriber synchronously, in subscription order. All
// handlers run even if some fail; their errors are joined.
func (b *EventBus) Publish(event *Event) error {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishJSON serializes the payload and publishes an event. A nil bus
// drops the event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
}
