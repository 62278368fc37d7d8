package output

import (
	"context"

	"github.com/cashflow/payflow/internal/core"
)

// MutateFunc computes the next version of a payment from the current one.
// current is nil when no payment exists under the ID. A non-nil next is
// stored even when err is also non-nil.
type MutateFunc func(current *core.Payment) (next *core.Payment, err error)

// PaymentRepository is an output port (secondary port) for payment data access
// Secondary adapters (in-memory and database implementations) will implement this
type PaymentRepository interface {
	// Get retrieves a payment by its ID, returning core.ErrNotFound when absent
	Get(ctx context.Context, id string) (*core.Payment, error)

	// Upsert stores the payment under its ID, replacing any previous version
	Upsert(ctx context.Context, payment core.Payment) error

	// List returns every stored payment in no particular order
	List(ctx context.Context) ([]core.Payment, error)

	// Mutate atomically reads, transforms and writes back one payment.
	// No other Mutate or Upsert on the same ID interleaves with it.
	Mutate(ctx context.Context, id string, fn MutateFunc) (*core.Payment, error)
}
