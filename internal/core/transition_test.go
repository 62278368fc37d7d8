package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Minute)
)

func mustMoney(t *testing.T, raw string) Money {
	t.Helper()
	m, err := ParseMoney(raw)
	require.NoError(t, err)
	return m
}

func paymentIn(t *testing.T, state PaymentState, amount string) Payment {
	t.Helper()
	p := NewPayment("P1", mustMoney(t, amount), CurrencyMYR, "M01", t0)
	p.State = state
	return p
}

// apply runs op against p and returns the resulting payment and error.
func apply(t *testing.T, p Payment, op Operation) (Payment, error) {
	t.Helper()
	switch op {
	case OpAuthorize:
		return p.Authorize(t1)
	case OpCapture:
		return p.Capture(t1)
	case OpSettle:
		next, _, err := p.Settle(t1)
		return next, err
	case OpVoid:
		return p.Void("FRAUD", t1)
	case OpRefund:
		return p.Refund(mustMoney(t, "1.00"), t1)
	}
	t.Fatalf("unexpected operation %s", op)
	return p, nil
}

func TestNewPayment(t *testing.T) {
	p := NewPayment("P1", mustMoney(t, "10.5"), CurrencyUSD, "M01", t0)

	assert.Equal(t, "P1", p.ID)
	assert.Equal(t, "10.50", p.Amount)
	assert.Equal(t, int64(1050), p.AmountCents)
	assert.Equal(t, CurrencyUSD, p.Currency)
	assert.Equal(t, "M01", p.MerchantID)
	assert.Equal(t, StateInitiated, p.State)
	assert.Empty(t, p.ReasonCode)
	assert.Empty(t, p.RefundedAmount)
	assert.Equal(t, t0, p.CreatedAt)
	assert.Equal(t, t0, p.UpdatedAt)
}

func TestTransitionTable(t *testing.T) {
	want := map[Operation]map[PaymentState]PaymentState{
		OpAuthorize: {StateInitiated: StateAuthorized},
		OpCapture: {
			StateAuthorized:          StateCaptured,
			StatePreSettlementReview: StateCaptured,
		},
		OpSettle: {
			StateCaptured: StateSettled,
			StateSettled:  StateSettled,
		},
		OpVoid: {
			StateInitiated:           StateVoided,
			StateAuthorized:          StateVoided,
			StatePreSettlementReview: StateVoided,
		},
		OpRefund: {
			StateCaptured: StateRefunded,
			StateSettled:  StateRefunded,
		},
	}

	for op, allowed := range want {
		for _, from := range States {
			p := paymentIn(t, from, "10.00")
			next, err := apply(t, p, op)

			to, ok := allowed[from]
			if !ok {
				require.Error(t, err, "%s from %s", op, from)
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s from %s", op, from)
				assert.Equal(t, p, next, "%s from %s must not change the payment", op, from)
				continue
			}
			require.NoError(t, err, "%s from %s", op, from)
			assert.Equal(t, to, next.State, "%s from %s", op, from)
			assert.True(t, next.State.IsValid())
		}
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	ops := []Operation{OpAuthorize, OpCapture, OpSettle, OpVoid, OpRefund}
	for _, s := range States {
		if !s.IsTerminal() {
			continue
		}
		for _, op := range ops {
			_, err := apply(t, paymentIn(t, s, "10.00"), op)
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s from %s", op, s)
		}
	}
}

func TestAuthorizeReviewThreshold(t *testing.T) {
	tests := []struct {
		amount string
		want   PaymentState
	}{
		{"99.99", StateAuthorized},
		{"99.994", StateAuthorized},
		{"99.995", StatePreSettlementReview},
		{"100.00", StatePreSettlementReview},
		{"100", StatePreSettlementReview},
		{"5000.00", StatePreSettlementReview},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			next, err := paymentIn(t, StateInitiated, tt.amount).Authorize(t1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, next.State)
			assert.Equal(t, t1, next.UpdatedAt)
		})
	}
}

func TestSettleIsIdempotent(t *testing.T) {
	p := paymentIn(t, StateCaptured, "10.00")

	first, changed, err := p.Settle(t1)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StateSettled, first.State)

	second, changed, err := first.Settle(t1.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, first, second)
}

func TestVoidRecordsReason(t *testing.T) {
	next, err := paymentIn(t, StateAuthorized, "10.00").Void("FRAUD", t1)
	require.NoError(t, err)
	assert.Equal(t, StateVoided, next.State)
	assert.Equal(t, "FRAUD", next.ReasonCode)
}

func TestRefundBoundary(t *testing.T) {
	p := paymentIn(t, StateCaptured, "50.00")

	t.Run("full amount", func(t *testing.T) {
		next, err := p.Refund(mustMoney(t, "50.00"), t1)
		require.NoError(t, err)
		assert.Equal(t, StateRefunded, next.State)
		assert.Equal(t, "50.00", next.RefundedAmount)
		assert.Equal(t, int64(5000), next.RefundedAmountCents)
		assert.Equal(t, "50.00", next.Amount, "original amount is preserved")
		assert.True(t, next.IsRefunded())
	})

	t.Run("partial amount", func(t *testing.T) {
		next, err := p.Refund(mustMoney(t, "20.004"), t1)
		require.NoError(t, err)
		assert.Equal(t, "20.00", next.RefundedAmount)
	})

	t.Run("one cent over", func(t *testing.T) {
		next, err := p.Refund(mustMoney(t, "50.01"), t1)
		assert.ErrorIs(t, err, ErrOverLimit)
		assert.Equal(t, p, next)
	})

	t.Run("rounding lands on the limit", func(t *testing.T) {
		_, err := p.Refund(mustMoney(t, "50.004"), t1)
		assert.NoError(t, err)
	})
}

func TestRefundTwice(t *testing.T) {
	first, err := paymentIn(t, StateSettled, "50.00").Refund(mustMoney(t, "10.00"), t1)
	require.NoError(t, err)

	_, err = first.Refund(mustMoney(t, "10.00"), t1)
	assert.ErrorIs(t, err, ErrAlreadyRefunded)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, "ALREADY_REFUNDED", ErrorCode(err))
}

func TestMarkFailed(t *testing.T) {
	p := paymentIn(t, StateAuthorized, "10.00")
	failed := p.MarkFailed(t1)

	assert.Equal(t, StateFailed, failed.State)
	assert.Equal(t, p.Amount, failed.Amount)
	assert.Equal(t, p.MerchantID, failed.MerchantID)
	assert.Equal(t, StateAuthorized, p.State, "receiver is untouched")
}

func TestSameTerms(t *testing.T) {
	p := paymentIn(t, StateInitiated, "10.00")

	assert.True(t, p.SameTerms("M01", mustMoney(t, "10"), CurrencyMYR))
	assert.True(t, p.SameTerms("M01", mustMoney(t, "10.001"), CurrencyMYR))
	assert.False(t, p.SameTerms("M02", mustMoney(t, "10.00"), CurrencyMYR))
	assert.False(t, p.SameTerms("M01", mustMoney(t, "10.01"), CurrencyMYR))
	assert.False(t, p.SameTerms("M01", mustMoney(t, "10.00"), CurrencyUSD))
}

func TestCurrencyAllowList(t *testing.T) {
	for _, c := range AllowedCurrencies {
		assert.True(t, c.IsAllowed(), c)
	}
	assert.False(t, Currency("myr").IsAllowed())
	assert.False(t, Currency("JPY").IsAllowed())
	assert.False(t, Currency("").IsAllowed())
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `Payment with ID "P9" does not exist.`, NotFound("P9").Error())
	assert.Equal(t,
		`Payment with ID "P1" is not in a state that can be captured. Current state: INITIATED`,
		InvalidTransition("P1", OpCapture, StateInitiated).Error())
	assert.Equal(t, "INTERNAL_ERROR", ErrorCode(assert.AnError))
	assert.Equal(t, "CONFLICT", ErrorCode(Conflict("P1")))
	assert.ErrorIs(t, UnknownCommand("FOO"), ErrUnknownCommand)
	assert.Contains(t, UnsupportedCurrency("JPY").Error(), "MYR, SGD, USD")
}
