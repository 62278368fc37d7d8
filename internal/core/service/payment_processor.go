package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cashflow/payflow/internal/core"
	"github.com/cashflow/payflow/internal/port/output"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSeenLimit is how many recent event IDs the processor remembers.
const DefaultSeenLimit = 10000

// EventProcessor handles transition events consumed from the broker.
// Each event is checked against the transition table and recorded once;
// a redelivered event with an ID still remembered is acknowledged and
// skipped. Only the most recent limit IDs are remembered, so an older
// redelivery reaches the sink again and the sink must tolerate it.
type EventProcessor struct {
	sink   output.EventPublisher
	logger *zap.Logger
	limit  int

	mu    sync.Mutex
	seen  map[uuid.UUID]struct{}
	order []uuid.UUID // ring of remembered IDs, oldest at next
	next  int
}

// NewEventProcessor creates a new event processor recording into sink
func NewEventProcessor(sink output.EventPublisher, logger *zap.Logger) *EventProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventProcessor{
		sink:   sink,
		logger: logger,
		limit:  DefaultSeenLimit,
		seen:   make(map[uuid.UUID]struct{}),
	}
}

// ProcessEvent validates and records one consumed event. A returned error
// means the event should be redelivered; events that can never be valid
// are logged and dropped.
func (p *EventProcessor) ProcessEvent(ctx context.Context, event core.TransitionEvent) error {
	if err := checkEvent(event); err != nil {
		p.logger.Warn("dropping inconsistent transition event",
			zap.String("event_id", event.ID.String()),
			zap.String("payment_id", event.PaymentID),
			zap.Error(err),
		)
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, dup := p.seen[event.ID]; dup {
		p.logger.Debug("skipping duplicate transition event", zap.String("event_id", event.ID.String()))
		return nil
	}

	if p.sink != nil {
		if err := p.sink.Publish(ctx, event); err != nil {
			return fmt.Errorf("failed to record transition event: %w", err)
		}
	}
	p.remember(event.ID)

	p.logger.Info("payment transition",
		zap.String("event_id", event.ID.String()),
		zap.String("payment_id", event.PaymentID),
		zap.String("operation", string(event.Operation)),
		zap.String("from", string(event.FromState)),
		zap.String("to", string(event.ToState)),
		zap.String("comment", event.Comment),
		zap.Time("occurred_at", event.OccurredAt),
	)
	return nil
}

func (p *EventProcessor) remember(id uuid.UUID) {
	if len(p.order) < p.limit {
		p.order = append(p.order, id)
	} else {
		delete(p.seen, p.order[p.next])
		p.order[p.next] = id
		p.next = (p.next + 1) % p.limit
	}
	p.seen[id] = struct{}{}
}

// checkEvent reports whether the event describes a transition the state
// machine can actually produce.
func checkEvent(event core.TransitionEvent) error {
	if event.ID == uuid.Nil {
		return errors.New("event has no id")
	}
	if !event.ToState.IsValid() {
		return fmt.Errorf("unknown target state %q", event.ToState)
	}

	if event.Operation == core.OpCreate {
		switch {
		case event.FromState == "" && event.ToState == core.StateInitiated:
			return nil
		case event.FromState.IsValid() && event.ToState == core.StateFailed:
			return nil
		}
		return fmt.Errorf("CREATE cannot move %q to %s", event.FromState, event.ToState)
	}

	if !event.Operation.PermittedFrom(event.FromState) {
		return fmt.Errorf("%s is not permitted from %q", event.Operation, event.FromState)
	}
	return nil
}
