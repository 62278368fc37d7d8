package output

import (
	"context"

	"github.com/cashflow/payflow/internal/core"
)

// EventPublisher is an output port (secondary port) for transition events
// Secondary adapters (audit log, RabbitMQ) will implement this
type EventPublisher interface {
	// Publish emits one applied state change
	Publish(ctx context.Context, event core.TransitionEvent) error
	// Close releases the publisher's resources
	Close() error
}

// AuditTrail is an output port for reading back published transition events
type AuditTrail interface {
	// Entries returns recorded events in publication order
	Entries(ctx context.Context) ([]core.TransitionEvent, error)
}
