package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cashflow/payflow/internal/adapter/secondary/memory"
	"github.com/cashflow/payflow/internal/core"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event core.TransitionEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

func sampleEvent() core.TransitionEvent {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	return core.NewTransitionEvent("P1", core.OpAuthorize, core.StateInitiated, core.StateAuthorized, "note", at)
}

func TestFanoutPublish(t *testing.T) {
	ctx := context.Background()
	event := sampleEvent()
	boom := errors.New("broker down")

	failing := new(mockPublisher)
	failing.On("Publish", ctx, event).Return(boom)
	audit := memory.NewAuditLog()

	err := Fanout{failing, audit}.Publish(ctx, event)
	assert.ErrorIs(t, err, boom)
	failing.AssertExpectations(t)

	entries, err := audit.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.TransitionEvent{event}, entries, "later publishers still receive the event")
}

func TestFanoutClose(t *testing.T) {
	a := new(mockPublisher)
	a.On("Close").Return(nil)
	b := new(mockPublisher)
	b.On("Close").Return(errors.New("close failed"))

	err := Fanout{a, b}.Close()
	assert.EqualError(t, err, "close failed")
	a.AssertExpectations(t)
	b.AssertExpectations(t)

	assert.NoError(t, Fanout(nil).Close())
	assert.NoError(t, Fanout(nil).Publish(context.Background(), sampleEvent()))
}

func TestEncodeDecodeEvent(t *testing.T) {
	event := sampleEvent()

	pub, err := encodeEvent(event)
	require.NoError(t, err)
	assert.Equal(t, "application/json", pub.ContentType)
	assert.Equal(t, amqp.Persistent, pub.DeliveryMode)
	assert.Equal(t, event.ID.String(), pub.MessageId)
	assert.Equal(t, "AUTHORIZE", pub.Type)
	assert.JSONEq(t, `{
		"id": "`+event.ID.String()+`",
		"payment_id": "P1",
		"operation": "AUTHORIZE",
		"from_state": "INITIATED",
		"to_state": "AUTHORIZED",
		"comment": "note",
		"occurred_at": "2024-05-01T09:30:00Z"
	}`, string(pub.Body))

	decoded, err := decodeEvent(pub.Body)
	require.NoError(t, err)
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, event.PaymentID, decoded.PaymentID)
	assert.Equal(t, event.ToState, decoded.ToState)
	assert.True(t, event.OccurredAt.Equal(decoded.OccurredAt))
}

func TestDecodeEventRejects(t *testing.T) {
	_, err := decodeEvent([]byte("not json"))
	assert.Error(t, err)

	_, err = decodeEvent([]byte(`{"operation":"CREATE"}`))
	assert.EqualError(t, err, "message has no payment_id")
}
