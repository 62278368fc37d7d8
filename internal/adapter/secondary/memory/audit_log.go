package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/cashflow/payflow/internal/core"
	"github.com/cashflow/payflow/internal/port/output"
)

// AuditLog keeps every published transition event in memory for AUDIT.
type AuditLog struct {
	mu     sync.RWMutex
	events []core.TransitionEvent
}

// NewAuditLog creates an empty audit log
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

var (
	_ output.EventPublisher = (*AuditLog)(nil)
	_ output.AuditTrail     = (*AuditLog)(nil)
)

// Publish appends the event
func (l *AuditLog) Publish(_ context.Context, event core.TransitionEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
	return nil
}

// Entries returns a copy of the recorded events in publication order
func (l *AuditLog) Entries(_ context.Context) ([]core.TransitionEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return slices.Clone(l.events), nil
}

// Close is a no-op; recorded events stay readable
func (l *AuditLog) Close() error {
	return nil
}
