package core

import (
	"time"
)

// ReviewThresholdCents routes authorizations at or above 100.00 into
// PRE_SETTLEMENT_REVIEW for fraud checks.
const ReviewThresholdCents int64 = 10000

// Operation is a state-changing command.
type Operation string

const (
	OpCreate    Operation = "CREATE"
	OpAuthorize Operation = "AUTHORIZE"
	OpCapture   Operation = "CAPTURE"
	OpSettle    Operation = "SETTLE"
	OpVoid      Operation = "VOID"
	OpRefund    Operation = "REFUND"
)

// allowedFrom lists, for every operation on an existing payment, the states
// it may start from. Any state not listed is an invalid transition.
var allowedFrom = map[Operation][]PaymentState{
	OpAuthorize: {StateInitiated},
	OpCapture:   {StateAuthorized, StatePreSettlementReview},
	OpSettle:    {StateCaptured, StateSettled},
	OpVoid:      {StateInitiated, StateAuthorized, StatePreSettlementReview},
	OpRefund:    {StateCaptured, StateSettled},
}

// PermittedFrom checks if the operation may be applied to a payment in state s
func (op Operation) PermittedFrom(s PaymentState) bool {
	for _, allowed := range allowedFrom[op] {
		if allowed == s {
			return true
		}
	}
	return false
}

func (op Operation) pastTense() string {
	switch op {
	case OpCreate:
		return "created"
	case OpAuthorize:
		return "authorized"
	case OpCapture:
		return "captured"
	case OpSettle:
		return "settled"
	case OpVoid:
		return "voided"
	case OpRefund:
		return "refunded"
	default:
		return string(op)
	}
}

// NewPayment builds a freshly created payment in INITIATED.
func NewPayment(id string, amount Money, currency Currency, merchantID string, now time.Time) Payment {
	return Payment{
		ID:          id,
		Amount:      amount.Text,
		AmountCents: amount.Cents,
		Currency:    currency,
		MerchantID:  merchantID,
		State:       StateInitiated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MarkFailed poisons a payment after a conflicting CREATE. Only the state
// changes.
func (p Payment) MarkFailed(now time.Time) Payment {
	next := p
	next.State = StateFailed
	next.UpdatedAt = now
	return next
}

// Authorize moves an INITIATED payment to AUTHORIZED, or to
// PRE_SETTLEMENT_REVIEW when the amount reaches the review threshold.
func (p Payment) Authorize(now time.Time) (Payment, error) {
	if !OpAuthorize.PermittedFrom(p.State) {
		return p, InvalidTransition(p.ID, OpAuthorize, p.State)
	}

	next := p
	next.State = StateAuthorized
	if p.AmountCents >= ReviewThresholdCents {
		next.State = StatePreSettlementReview
	}
	next.UpdatedAt = now
	return next, nil
}

// Capture moves an authorized or reviewed payment to CAPTURED.
func (p Payment) Capture(now time.Time) (Payment, error) {
	if !OpCapture.PermittedFrom(p.State) {
		return p, InvalidTransition(p.ID, OpCapture, p.State)
	}

	next := p
	next.State = StateCaptured
	next.UpdatedAt = now
	return next, nil
}

// Settle moves a CAPTURED payment to SETTLED. Settling an already SETTLED
// payment returns it unchanged with changed == false.
func (p Payment) Settle(now time.Time) (next Payment, changed bool, err error) {
	if !OpSettle.PermittedFrom(p.State) {
		return p, false, InvalidTransition(p.ID, OpSettle, p.State)
	}
	if p.State == StateSettled {
		return p, false, nil
	}

	next = p
	next.State = StateSettled
	next.UpdatedAt = now
	return next, true, nil
}

// Void cancels a payment that has not been captured and records why.
func (p Payment) Void(reasonCode string, now time.Time) (Payment, error) {
	if !OpVoid.PermittedFrom(p.State) {
		return p, InvalidTransition(p.ID, OpVoid, p.State)
	}

	next := p
	next.State = StateVoided
	next.ReasonCode = reasonCode
	next.UpdatedAt = now
	return next, nil
}

// Refund refunds a captured or settled payment. The original amount fields
// are left as they are; the refund is recorded alongside them.
func (p Payment) Refund(amount Money, now time.Time) (Payment, error) {
	if p.State == StateRefunded {
		return p, AlreadyRefunded(p.ID)
	}
	if !OpRefund.PermittedFrom(p.State) {
		return p, InvalidTransition(p.ID, OpRefund, p.State)
	}
	if amount.Cents > p.AmountCents {
		return p, OverLimit(p.ID)
	}

	next := p
	next.State = StateRefunded
	next.RefundedAmount = amount.Text
	next.RefundedAmountCents = amount.Cents
	next.UpdatedAt = now
	return next, nil
}
