package core

import (
	"time"
)

// PaymentState represents the lifecycle stage of a payment
type PaymentState string

const (
	StateInitiated           PaymentState = "INITIATED"
	StateAuthorized          PaymentState = "AUTHORIZED"
	StatePreSettlementReview PaymentState = "PRE_SETTLEMENT_REVIEW"
	StateCaptured            PaymentState = "CAPTURED"
	StateSettled             PaymentState = "SETTLED"
	StateVoided              PaymentState = "VOIDED"
	StateRefunded            PaymentState = "REFUNDED"
	StateFailed              PaymentState = "FAILED"
)

// States lists every payment state in lifecycle order.
var States = []PaymentState{
	StateInitiated,
	StateAuthorized,
	StatePreSettlementReview,
	StateCaptured,
	StateSettled,
	StateVoided,
	StateRefunded,
	StateFailed,
}

// IsValid checks if the state is a member of the closed state set
func (s PaymentState) IsValid() bool {
	switch s {
	case StateInitiated, StateAuthorized, StatePreSettlementReview, StateCaptured,
		StateSettled, StateVoided, StateRefunded, StateFailed:
		return true
	default:
		return false
	}
}

// IsTerminal checks if no further mutating command can succeed from this state
func (s PaymentState) IsTerminal() bool {
	return s == StateVoided || s == StateRefunded || s == StateFailed
}

// Currency represents supported currencies
type Currency string

const (
	CurrencyMYR Currency = "MYR"
	CurrencySGD Currency = "SGD"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyIDR Currency = "IDR"
	CurrencyTHB Currency = "THB"
	CurrencyPHP Currency = "PHP"
)

// AllowedCurrencies is the fixed currency allow-list.
var AllowedCurrencies = []Currency{
	CurrencyMYR,
	CurrencySGD,
	CurrencyUSD,
	CurrencyEUR,
	CurrencyGBP,
	CurrencyIDR,
	CurrencyTHB,
	CurrencyPHP,
}

// IsAllowed checks if the currency is on the allow-list
func (c Currency) IsAllowed() bool {
	for _, allowed := range AllowedCurrencies {
		if c == allowed {
			return true
		}
	}
	return false
}

// Payment represents a payment domain entity.
//
// Payment is a value: transitions return a new Payment and never modify the
// receiver, so a copy read from a store stays stable while it is inspected.
type Payment struct {
	ID                  string
	Amount              string
	AmountCents         int64
	Currency            Currency
	MerchantID          string
	State               PaymentState
	ReasonCode          string
	RefundedAmount      string
	RefundedAmountCents int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsRefunded checks if refund details have been recorded
func (p Payment) IsRefunded() bool {
	return p.State == StateRefunded
}

// SameTerms reports whether a repeated CREATE carries the same effective
// payload as the stored payment.
func (p Payment) SameTerms(merchantID string, amount Money, currency Currency) bool {
	return p.MerchantID == merchantID &&
		p.AmountCents == amount.Cents &&
		p.Currency == currency
}
