package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingConfirmed   = "booking_confirmed"
	EventBookingCancelled   = "booking_cancelled"
	EventBookingRescheduled = "booking_rescheduled"
	EventSessionExpired     = "session_expired"
)

// BookingEventPayload is the booking snapshot handed to event consumers
// (audit trail, metrics).
type BookingEventPayload struct {
	BookingID    int64  `json:"booking_id"`
	Customer     string `json:"customer,omitempty"`
	ServiceName  string `json:"service_name,omitempty"`
	OldStatus    string `json:"old_status,omitempty"`
	NewStatus    string `json:"new_status,omitempty"`
	OldDate      string `json:"old_date,omitempty"`
	NewDate      string `json:"new_date,omitempty"`
	OldTime      string `json:"old_time,omitempty"`
	NewTime      string `json:"new_time,omitempty"`
	WorkshopName string `json:"workshop_name,omitempty"`
}

// Event is a lightweight in-process domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Handler reacts to an event. Handlers run synchronously on the publisher's
// goroutine.
type Handler func(event *Event) error

// Bus is an in-process pub/sub fan-out.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event. A nil bus is a
// no-op so callers can leave events unwired.
func (b *Bus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
