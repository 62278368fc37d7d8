package core

import (
	"time"

	"github.com/google/uuid"
)

// TransitionEvent records one applied state change.
type TransitionEvent struct {
	ID         uuid.UUID    `json:"id"`
	PaymentID  string       `json:"payment_id"`
	Operation  Operation    `json:"operation"`
	FromState  PaymentState `json:"from_state,omitempty"`
	ToState    PaymentState `json:"to_state"`
	Comment    string       `json:"comment,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// NewTransitionEvent creates an event for a change from -> to. from is empty
// when the payment did not exist before.
func NewTransitionEvent(paymentID string, op Operation, from, to PaymentState, comment string, at time.Time) TransitionEvent {
	return TransitionEvent{
		ID:         uuid.New(),
		PaymentID:  paymentID,
		Operation:  op,
		FromState:  from,
		ToState:    to,
		Comment:    comment,
		OccurredAt: at,
	}
}
