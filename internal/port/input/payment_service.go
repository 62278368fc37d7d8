package input

import (
	"context"

	"github.com/cashflow/payflow/internal/core"
)

// PaymentService is an input port (primary port) for payment lifecycle operations
// Primary adapters (HTTP handlers, the command dispatcher) will use this
type PaymentService interface {
	// CreatePayment creates a payment or replays an identical creation
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*PaymentResponse, error)

	// AuthorizePayment authorizes an INITIATED payment
	AuthorizePayment(ctx context.Context, req TransitionRequest) (*PaymentResponse, error)

	// CapturePayment captures an authorized payment
	CapturePayment(ctx context.Context, req TransitionRequest) (*PaymentResponse, error)

	// SettlePayment settles a captured payment
	SettlePayment(ctx context.Context, req TransitionRequest) (*PaymentResponse, error)

	// VoidPayment voids a payment that has not been captured
	VoidPayment(ctx context.Context, req VoidPaymentRequest) (*PaymentResponse, error)

	// RefundPayment refunds a captured or settled payment
	RefundPayment(ctx context.Context, req RefundPaymentRequest) (*PaymentResponse, error)

	// GetPayment retrieves a payment by ID
	GetPayment(ctx context.Context, id string) (*core.Payment, error)

	// ListPayments retrieves every payment sorted by ID
	ListPayments(ctx context.Context) ([]core.Payment, error)
}

// CreatePaymentRequest represents the request to create a payment
type CreatePaymentRequest struct {
	PaymentID  string
	Amount     core.Money
	Currency   core.Currency
	MerchantID string
	Comment    string
}

// TransitionRequest represents a request that only names the payment
type TransitionRequest struct {
	PaymentID string
	Comment   string
}

// VoidPaymentRequest represents the request to void a payment
type VoidPaymentRequest struct {
	PaymentID  string
	ReasonCode string
	Comment    string
}

// RefundPaymentRequest represents the request to refund a payment
type RefundPaymentRequest struct {
	PaymentID string
	Amount    core.Money
	Comment   string
}

// PaymentResponse represents the outcome of a lifecycle operation
type PaymentResponse struct {
	Payment core.Payment
	// Changed is false for idempotent replays that left the payment untouched
	Changed bool
	Message string
}
