// Package events is an in-process bus for session and reservation changes.
package events

import (
	"encoding/json"
	"errors"
	"sync"
	"time"
)

const (
	EventSessionLoggedIn  = "session_logged_in"
	EventSessionRefreshed = "session_refreshed"
	EventSessionLoggedOut = "session_logged_out"

	EventReservationCreated       = "reservation_created"
	EventReservationStatusChanged = "reservation_status_changed"
	EventReservationDeleted       = "reservation_deleted"
)

// SessionEventPayload describes an admin session transition.
type SessionEventPayload struct {
	AdminID   int64     `json:"admin_id,omitempty"`
	AdminName string    `json:"admin_name,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

// ReservationEventPayload is the reservation snapshot sent to subscribers.
type ReservationEventPayload struct {
	ReservationID int64     `json:"reservation_id"`
	Name          string    `json:"name"`
	StartDate     string    `json:"start_date"`
	Duration      int       `json:"duration"`
	Status        string    `json:"status"`
	ChangedBy     string    `json:"changed_by,omitempty"`
	At            time.Time `json:"at"`
}

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

// EventBus fans events out to subscribers synchronously.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish runs every handler of the event type and joins their errors.
// A failing handler does not stop the others.
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

// PublishJSON serializes the payload and publishes it. A nil bus drops it.
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
