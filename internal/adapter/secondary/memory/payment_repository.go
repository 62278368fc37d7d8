// Package memory holds process-local adapters for the output ports.
package memory

import (
	"context"
	"sync"

	"github.com/cashflow/payflow/internal/core"
	"github.com/cashflow/payflow/internal/port/output"
)

// PaymentRepository is an in-memory PaymentRepository. Records are stored
// by value so callers never share state with the store.
type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]core.Payment

	locksMu sync.Mutex
	locks   map[string]*keyLock
}

// keyLock is a per-ID mutex shared by its current holder and waiters.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewPaymentRepository creates an empty in-memory repository.
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{
		payments: make(map[string]core.Payment),
		locks:    make(map[string]*keyLock),
	}
}

var _ output.PaymentRepository = (*PaymentRepository)(nil)

// Get returns a copy of the payment with the given ID
func (r *PaymentRepository) Get(_ context.Context, id string) (*core.Payment, error) {
	p, ok := r.load(id)
	if !ok {
		return nil, core.NotFound(id)
	}
	return &p, nil
}

// Upsert stores the payment, replacing any record with the same ID
func (r *PaymentRepository) Upsert(_ context.Context, p core.Payment) error {
	unlock := r.lockKey(p.ID)
	defer unlock()

	r.store(p)
	return nil
}

// List returns a copy of every stored payment in no particular order
func (r *PaymentRepository) List(_ context.Context) ([]core.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Payment, 0, len(r.payments))
	for _, p := range r.payments {
		out = append(out, p)
	}
	return out, nil
}

// Mutate holds the per-ID lock for the whole read-modify-write, so two
// commands on the same payment are applied one after the other. Commands on
// different payments do not block each other.
func (r *PaymentRepository) Mutate(ctx context.Context, id string, fn output.MutateFunc) (*core.Payment, error) {
	unlock := r.lockKey(id)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var current *core.Payment
	if p, ok := r.load(id); ok {
		current = &p
	}

	next, err := fn(current)
	if next != nil {
		stored := *next
		stored.ID = id
		r.store(stored)
		current = &stored
	}
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, core.NotFound(id)
	}

	result := *current
	return &result, nil
}

func (r *PaymentRepository) load(id string) (core.Payment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.payments[id]
	return p, ok
}

func (r *PaymentRepository) store(p core.Payment) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.payments[p.ID] = p
}

// lockKey acquires the mutex for id and returns its release function. The
// entry is dropped once no caller holds or waits on it.
func (r *PaymentRepository) lockKey(id string) func() {
	r.locksMu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &keyLock{}
		r.locks[id] = l
	}
	l.refs++
	r.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		r.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, id)
		}
		r.locksMu.Unlock()
	}
}
