package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cashflow/payflow/internal/adapter/secondary/memory"
	"github.com/cashflow/payflow/internal/core"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEventProcessorRecordsOnce(t *testing.T) {
	ctx := context.Background()
	sink := memory.NewAuditLog()
	p := NewEventProcessor(sink, nil)

	event := core.NewTransitionEvent("P1", core.OpAuthorize, core.StateInitiated, core.StateAuthorized, "", fixedNow)
	require.NoError(t, p.ProcessEvent(ctx, event))
	require.NoError(t, p.ProcessEvent(ctx, event), "redelivery is acknowledged")

	entries, err := sink.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.TransitionEvent{event}, entries)
}

func TestEventProcessorForgetsOldestIDs(t *testing.T) {
	ctx := context.Background()
	sink := memory.NewAuditLog()
	p := NewEventProcessor(sink, nil)
	p.limit = 2

	e1 := core.NewTransitionEvent("P1", core.OpCreate, "", core.StateInitiated, "", fixedNow)
	e2 := core.NewTransitionEvent("P2", core.OpCreate, "", core.StateInitiated, "", fixedNow)
	e3 := core.NewTransitionEvent("P3", core.OpCreate, "", core.StateInitiated, "", fixedNow)
	for _, e := range []core.TransitionEvent{e1, e2, e3, e3, e2, e1} {
		require.NoError(t, p.ProcessEvent(ctx, e))
	}

	assert.Len(t, p.seen, 2)
	assert.Len(t, p.order, 2)

	entries, err := sink.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.TransitionEvent{e1, e2, e3, e1}, entries, "only the evicted ID is recorded again")
}

func TestEventProcessorDropsInconsistentEvents(t *testing.T) {
	tests := []struct {
		name  string
		event core.TransitionEvent
	}{
		{"capture from initiated", core.NewTransitionEvent("P1", core.OpCapture, core.StateInitiated, core.StateCaptured, "", fixedNow)},
		{"unknown operation", core.NewTransitionEvent("P1", core.Operation("PAY"), core.StateInitiated, core.StateCaptured, "", fixedNow)},
		{"unknown target state", core.NewTransitionEvent("P1", core.OpAuthorize, core.StateInitiated, core.PaymentState("DONE"), "", fixedNow)},
		{"create into authorized", core.NewTransitionEvent("P1", core.OpCreate, "", core.StateAuthorized, "", fixedNow)},
		{"missing id", core.TransitionEvent{PaymentID: "P1", Operation: core.OpCreate, ToState: core.StateInitiated}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			sink := memory.NewAuditLog()

			require.NoError(t, NewEventProcessor(sink, nil).ProcessEvent(ctx, tt.event))

			entries, err := sink.Entries(ctx)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestEventProcessorAcceptsServiceEvents(t *testing.T) {
	ctx := context.Background()
	svc, _, audit := newTestService(t)
	d := NewDispatcher(svc, audit, nil, nil)

	for _, line := range []string{
		"CREATE P1 150.00 MYR M01",
		"AUTHORIZE P1",
		"CAPTURE P1",
		"SETTLE P1",
		"REFUND P1 1.00",
		"CREATE P2 1.00 MYR M01",
		"VOID P2 FRAUD",
		"CREATE P3 1.00 MYR M01",
	} {
		_, err := d.Execute(ctx, line)
		require.NoError(t, err, line)
	}
	_, err := d.Execute(ctx, "CREATE P3 2.00 MYR M01")
	require.ErrorIs(t, err, core.ErrConflict)

	emitted := events(t, audit)
	require.Len(t, emitted, 9)

	sink := memory.NewAuditLog()
	p := NewEventProcessor(sink, nil)
	for _, e := range emitted {
		require.NoError(t, p.ProcessEvent(ctx, e))
	}

	recorded, err := sink.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, emitted, recorded, "every event the service emits is consistent")
}

func TestEventProcessorSinkFailure(t *testing.T) {
	ctx := context.Background()
	event := core.NewTransitionEvent("P1", core.OpCreate, "", core.StateInitiated, "", fixedNow)

	sink := new(mockPublisher)
	sink.On("Publish", mock.Anything, event).Return(errors.New("disk full")).Once()
	sink.On("Publish", mock.Anything, event).Return(nil).Once()

	p := NewEventProcessor(sink, nil)
	assert.ErrorContains(t, p.ProcessEvent(ctx, event), "disk full")
	assert.NoError(t, p.ProcessEvent(ctx, event), "a failed event is not marked as seen")
	assert.NoError(t, p.ProcessEvent(ctx, event))

	sink.AssertNumberOfCalls(t, "Publish", 2)
}

func TestCheckEventRejectsNilID(t *testing.T) {
	event := core.NewTransitionEvent("P1", core.OpCreate, "", core.StateInitiated, "", fixedNow)
	event.ID = uuid.Nil
	assert.Error(t, checkEvent(event))
}
