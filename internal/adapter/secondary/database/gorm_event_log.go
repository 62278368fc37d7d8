package database

import (
	"context"
	"fmt"

	"github.com/cashflow/payflow/internal/constant/model/db"
	"github.com/cashflow/payflow/internal/core"
	"github.com/cashflow/payflow/internal/port/output"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEventLog is a secondary adapter that persists transition events to
// the payment_events table. It implements both EventPublisher and AuditTrail.
type GormEventLog struct {
	gormDB *gorm.DB
}

// NewGormEventLog creates a new GORM event log
func NewGormEventLog(gormDB *gorm.DB) *GormEventLog {
	return &GormEventLog{gormDB: gormDB}
}

var (
	_ output.EventPublisher = (*GormEventLog)(nil)
	_ output.AuditTrail     = (*GormEventLog)(nil)
)

// Publish inserts the event. An event ID already stored is ignored, so
// redelivered events are recorded once.
func (l *GormEventLog) Publish(ctx context.Context, event core.TransitionEvent) error {
	err := l.gormDB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(eventRow(event)).Error
	if err != nil {
		return fmt.Errorf("failed to insert transition event: %w", err)
	}
	return nil
}

// Entries returns stored events oldest first
func (l *GormEventLog) Entries(ctx context.Context) ([]core.TransitionEvent, error) {
	var rows []db.PaymentEvent
	if err := l.gormDB.WithContext(ctx).Order("occurred_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list transition events: %w", err)
	}
	out := make([]core.TransitionEvent, len(rows))
	for i := range rows {
		out[i] = eventFromRow(&rows[i])
	}
	return out, nil
}

// Close is a no-op; the connection belongs to whoever opened it
func (l *GormEventLog) Close() error {
	return nil
}

func eventRow(e core.TransitionEvent) *db.PaymentEvent {
	row := &db.PaymentEvent{
		ID:         e.ID,
		PaymentID:  e.PaymentID,
		Operation:  string(e.Operation),
		ToState:    string(e.ToState),
		OccurredAt: e.OccurredAt,
	}
	if e.FromState != "" {
		from := string(e.FromState)
		row.FromState = &from
	}
	if e.Comment != "" {
		row.Comment = &e.Comment
	}
	return row
}

func eventFromRow(row *db.PaymentEvent) core.TransitionEvent {
	e := core.TransitionEvent{
		ID:         row.ID,
		PaymentID:  row.PaymentID,
		Operation:  core.Operation(row.Operation),
		ToState:    core.PaymentState(row.ToState),
		OccurredAt: row.OccurredAt,
	}
	if row.FromState != nil {
		e.FromState = core.PaymentState(*row.FromState)
	}
	if row.Comment != nil {
		e.Comment = *row.Comment
	}
	return e
}
