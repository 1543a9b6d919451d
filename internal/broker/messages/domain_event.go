package messages

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

type EventType string

const (
	LoadStatusChanged   EventType = "load.status_changed"
	LoadAssigned        EventType = "load.assigned"
	PaymentCompleted    EventType = "payment.completed"
	DriverRatingUpdated EventType = "driver.rating_updated"
)

// DomainEvent is published after a unit of work commits. Consumers must not
// assume exactly-once delivery.
type DomainEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	CompanyID  string    `json:"company_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	EntityID   string    `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`

	// NotifyUserID names the user the notifier should inform, if any.
	NotifyUserID string `json:"notify_user_id,omitempty"`

	Payload json.RawMessage `json:"payload,omitempty"`
}

type LoadStatusChangedPayload struct {
	LoadID          string `json:"load_id"`
	ReferenceNumber string `json:"reference_number"`
	From            string `json:"from"`
	To              string `json:"to"`
	// Cause is "update", "tracking" or "assignment".
	Cause string `json:"cause"`
}

type LoadAssignedPayload struct {
	LoadID          string `json:"load_id"`
	ReferenceNumber string `json:"reference_number"`
	AssignmentID    string `json:"assignment_id"`
	DriverID        string `json:"driver_id"`
}

type PaymentCompletedPayload struct {
	PaymentID     string `json:"payment_id"`
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	Amount        string `json:"amount"`
	Remaining     string `json:"remaining"`
	Currency      string `json:"currency"`
}

type DriverRatingUpdatedPayload struct {
	DriverID string  `json:"driver_id"`
	Rating   float64 `json:"rating"`
	Count    int     `json:"count"`
}

// WithPayload marshals p into the event.
func (e DomainEvent) WithPayload(p any) (DomainEvent, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return e, errors.Wrap(err, "marshal event payload")
	}
	e.Payload = b
	return e, nil
}

// Decode unmarshals the payload into dst.
func (e DomainEvent) Decode(dst any) error {
	return errors.Wrap(json.Unmarshal(e.Payload, dst), "decode event payload")
}
