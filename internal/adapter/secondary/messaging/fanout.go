// Package messaging delivers transition events to external sinks.
package messaging

import (
	"context"
	"errors"

	"github.com/cashflow/payflow/internal/core"
	"github.com/cashflow/payflow/internal/port/output"
)

// Fanout publishes each event to every publisher in order. A failing
// publisher does not stop delivery to the rest.
type Fanout []output.EventPublisher

var _ output.EventPublisher = Fanout(nil)

func (f Fanout) Publish(ctx context.Context, event core.TransitionEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
