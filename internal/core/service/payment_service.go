package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cashflow/payflow/internal/core"
	"github.com/cashflow/payflow/internal/port/input"
	"github.com/cashflow/payflow/internal/port/output"
	"go.uber.org/zap"
)

// PaymentServiceImpl implements the PaymentService input port
type PaymentServiceImpl struct {
	paymentRepo output.PaymentRepository
	publisher   output.EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures a PaymentServiceImpl.
type Option func(*PaymentServiceImpl)

// WithClock overrides the time source used for timestamps and events.
func WithClock(now func() time.Time) Option {
	return func(s *PaymentServiceImpl) {
		s.now = now
	}
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	paymentRepo output.PaymentRepository,
	publisher output.EventPublisher,
	logger *zap.Logger,
	opts ...Option,
) *PaymentServiceImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PaymentServiceImpl{
		paymentRepo: paymentRepo,
		publisher:   publisher,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ input.PaymentService = (*PaymentServiceImpl)(nil)

// CreatePayment creates a new payment. Replaying the same ID with the same
// merchant, amount and currency is a no-op. Replaying it with different
// details marks the stored payment FAILED and returns a conflict.
func (s *PaymentServiceImpl) CreatePayment(ctx context.Context, req input.CreatePaymentRequest) (*input.PaymentResponse, error) {
	var (
		event   *core.TransitionEvent
		changed bool
	)

	payment, err := s.paymentRepo.Mutate(ctx, req.PaymentID, func(current *core.Payment) (*core.Payment, error) {
		now := s.now()
		if current == nil {
			created := core.NewPayment(req.PaymentID, req.Amount, req.Currency, req.MerchantID, now)
			evt := core.NewTransitionEvent(req.PaymentID, core.OpCreate, "", created.State, req.Comment, now)
			event, changed = &evt, true
			return &created, nil
		}

		if current.SameTerms(req.MerchantID, req.Amount, req.Currency) {
			return nil, nil
		}

		failed := current.MarkFailed(now)
		evt := core.NewTransitionEvent(req.PaymentID, core.OpCreate, current.State, failed.State, req.Comment, now)
		event = &evt
		return &failed, core.Conflict(req.PaymentID)
	})
	s.publish(ctx, event)
	if err != nil {
		s.logger.Warn("create payment rejected",
			zap.String("payment_id", req.PaymentID),
			zap.String("code", core.ErrorCode(err)),
			zap.Error(err),
		)
		return nil, err
	}

	msg := fmt.Sprintf("Payment with ID: %s has been created.", req.PaymentID)
	if !changed {
		msg = fmt.Sprintf("Payment with ID: %s already exists with identical details. No changes made.", req.PaymentID)
	}
	return &input.PaymentResponse{Payment: *payment, Changed: changed, Message: msg}, nil
}

// AuthorizePayment authorizes an INITIATED payment
func (s *PaymentServiceImpl) AuthorizePayment(ctx context.Context, req input.TransitionRequest) (*input.PaymentResponse, error) {
	return s.transition(ctx, core.OpAuthorize, req.PaymentID, req.Comment,
		func(p core.Payment, now time.Time) (core.Payment, bool, error) {
			next, err := p.Authorize(now)
			return next, err == nil, err
		},
		func(p core.Payment, _ bool) string {
			if p.State == core.StatePreSettlementReview {
				return fmt.Sprintf("Payment with ID: %s has been authorized and is pending pre-settlement review.", p.ID)
			}
			return fmt.Sprintf("Payment with ID: %s has been authorized.", p.ID)
		},
	)
}

// CapturePayment captures an authorized payment
func (s *PaymentServiceImpl) CapturePayment(ctx context.Context, req input.TransitionRequest) (*input.PaymentResponse, error) {
	return s.transition(ctx, core.OpCapture, req.PaymentID, req.Comment,
		func(p core.Payment, now time.Time) (core.Payment, bool, error) {
			next, err := p.Capture(now)
			return next, err == nil, err
		},
		func(p core.Payment, _ bool) string {
			return fmt.Sprintf("Payment with ID: %s has been captured.", p.ID)
		},
	)
}

// SettlePayment settles a captured payment; settling twice is a no-op
func (s *PaymentServiceImpl) SettlePayment(ctx context.Context, req input.TransitionRequest) (*input.PaymentResponse, error) {
	return s.transition(ctx, core.OpSettle, req.PaymentID, req.Comment,
		func(p core.Payment, now time.Time) (core.Payment, bool, error) {
			return p.Settle(now)
		},
		func(p core.Payment, changed bool) string {
			if !changed {
				return fmt.Sprintf("Payment with ID: %s is already settled.", p.ID)
			}
			return fmt.Sprintf("Payment with ID: %s has been settled.", p.ID)
		},
	)
}

// VoidPayment voids a payment that has not been captured
func (s *PaymentServiceImpl) VoidPayment(ctx context.Context, req input.VoidPaymentRequest) (*input.PaymentResponse, error) {
	return s.transition(ctx, core.OpVoid, req.PaymentID, req.Comment,
		func(p core.Payment, now time.Time) (core.Payment, bool, error) {
			next, err := p.Void(req.ReasonCode, now)
			return next, err == nil, err
		},
		func(p core.Payment, _ bool) string {
			return fmt.Sprintf("Payment with ID: %s has been voided due to %s.", p.ID, p.ReasonCode)
		},
	)
}

// RefundPayment refunds a captured or settled payment
func (s *PaymentServiceImpl) RefundPayment(ctx context.Context, req input.RefundPaymentRequest) (*input.PaymentResponse, error) {
	return s.transition(ctx, core.OpRefund, req.PaymentID, req.Comment,
		func(p core.Payment, now time.Time) (core.Payment, bool, error) {
			next, err := p.Refund(req.Amount, now)
			return next, err == nil, err
		},
		func(p core.Payment, _ bool) string {
			return fmt.Sprintf("Payment with ID: %s has been refunded %s %s.", p.ID, p.RefundedAmount, p.Currency)
		},
	)
}

// GetPayment retrieves a payment by ID
func (s *PaymentServiceImpl) GetPayment(ctx context.Context, id string) (*core.Payment, error) {
	payment, err := s.paymentRepo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// ListPayments retrieves every payment sorted by ID
func (s *PaymentServiceImpl) ListPayments(ctx context.Context) ([]core.Payment, error) {
	payments, err := s.paymentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	slices.SortFunc(payments, func(a, b core.Payment) int {
		return strings.Compare(a.ID, b.ID)
	})
	return payments, nil
}

type applyFunc func(p core.Payment, now time.Time) (next core.Payment, changed bool, err error)

type messageFunc func(p core.Payment, changed bool) string

// transition runs apply against the current version of the payment inside a
// single repository Mutate and publishes an event when the state changed.
func (s *PaymentServiceImpl) transition(
	ctx context.Context,
	op core.Operation,
	paymentID, comment string,
	apply applyFunc,
	message messageFunc,
) (*input.PaymentResponse, error) {
	var (
		event   *core.TransitionEvent
		changed bool
	)

	payment, err := s.paymentRepo.Mutate(ctx, paymentID, func(current *core.Payment) (*core.Payment, error) {
		if current == nil {
			return nil, core.NotFound(paymentID)
		}

		now := s.now()
		next, ok, err := apply(*current, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}

		evt := core.NewTransitionEvent(paymentID, op, current.State, next.State, comment, now)
		event, changed = &evt, true
		return &next, nil
	})
	if err != nil {
		s.logger.Debug("transition rejected",
			zap.String("payment_id", paymentID),
			zap.String("operation", string(op)),
			zap.String("code", core.ErrorCode(err)),
		)
		return nil, err
	}
	s.publish(ctx, event)

	return &input.PaymentResponse{
		Payment: *payment,
		Changed: changed,
		Message: message(*payment, changed),
	}, nil
}

// publish emits the event if there is one. A publish failure is logged and
// does not undo the stored transition.
func (s *PaymentServiceImpl) publish(ctx context.Context, event *core.TransitionEvent) {
	if event == nil {
		return
	}

	s.logger.Info("payment transitioned",
		zap.String("payment_id", event.PaymentID),
		zap.String("operation", string(event.Operation)),
		zap.String("from", string(event.FromState)),
		zap.String("to", string(event.ToState)),
	)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, *event); err != nil {
		s.logger.Error("failed to publish transition event",
			zap.String("payment_id", event.PaymentID),
			zap.String("event_id", event.ID.String()),
			zap.Error(err),
		)
	}
}
