package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/cashflow/payflow/internal/constant/model/db"
	"github.com/cashflow/payflow/internal/core"
	"github.com/cashflow/payflow/internal/port/output"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository is a secondary adapter that implements PaymentRepository output port
type GormPaymentRepository struct {
	gormDB *gorm.DB
}

// NewGormPaymentRepository creates a new GORM payment repository
func NewGormPaymentRepository(gormDB *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{gormDB: gormDB}
}

var _ output.PaymentRepository = (*GormPaymentRepository)(nil)

// toCore converts db.Payment to core.Payment
func toCore(p *db.Payment) core.Payment {
	out := core.Payment{
		ID:          p.ID,
		Amount:      p.Amount,
		AmountCents: p.AmountCents,
		Currency:    core.Currency(p.Currency),
		MerchantID:  p.MerchantID,
		State:       core.PaymentState(p.State),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.ReasonCode != nil {
		out.ReasonCode = *p.ReasonCode
	}
	if p.RefundedAmount != nil {
		out.RefundedAmount = *p.RefundedAmount
	}
	if p.RefundedAmountCents != nil {
		out.RefundedAmountCents = *p.RefundedAmountCents
	}
	return out
}

// fromCore converts core.Payment to db.Payment
func fromCore(p core.Payment) *db.Payment {
	out := &db.Payment{
		ID:          p.ID,
		Amount:      p.Amount,
		AmountCents: p.AmountCents,
		Currency:    string(p.Currency),
		MerchantID:  p.MerchantID,
		State:       string(p.State),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.ReasonCode != "" {
		out.ReasonCode = &p.ReasonCode
	}
	if p.RefundedAmount != "" {
		out.RefundedAmount = &p.RefundedAmount
		out.RefundedAmountCents = &p.RefundedAmountCents
	}
	return out
}

// Get retrieves a payment by its ID
func (r *GormPaymentRepository) Get(ctx context.Context, id string) (*core.Payment, error) {
	var dbPayment db.Payment
	if err := r.gormDB.WithContext(ctx).Where("id = ?", id).First(&dbPayment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.NotFound(id)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	p := toCore(&dbPayment)
	return &p, nil
}

// Upsert inserts the payment or overwrites every column of the existing row
func (r *GormPaymentRepository) Upsert(ctx context.Context, payment core.Payment) error {
	return upsert(r.gormDB.WithContext(ctx), payment)
}

// List retrieves every payment
func (r *GormPaymentRepository) List(ctx context.Context) ([]core.Payment, error) {
	var rows []db.Payment
	if err := r.gormDB.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	out := make([]core.Payment, len(rows))
	for i := range rows {
		out[i] = toCore(&rows[i])
	}
	return out, nil
}

// Mutate atomically applies fn to the payment inside one transaction.
// Uses SELECT FOR UPDATE to prevent concurrent transitions on the same row.
// There is no row to lock for an ID that does not exist yet, so two CREATEs
// racing on a fresh ID are not serialized; the later upsert wins.
func (r *GormPaymentRepository) Mutate(ctx context.Context, id string, fn output.MutateFunc) (*core.Payment, error) {
	var (
		result *core.Payment
		fnErr  error
	)

	err := r.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current *core.Payment

		var dbPayment db.Payment
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&dbPayment).Error
		switch {
		case err == nil:
			p := toCore(&dbPayment)
			current = &p
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("failed to lock payment: %w", err)
		}

		next, err := fn(current)
		fnErr = err
		if next != nil {
			stored := *next
			stored.ID = id
			if err := upsert(tx, stored); err != nil {
				return err
			}
			current = &stored
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	if fnErr != nil {
		return nil, fnErr
	}
	if result == nil {
		return nil, core.NotFound(id)
	}
	return result, nil
}

func upsert(tx *gorm.DB, payment core.Payment) error {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(fromCore(payment)).Error
	if err != nil {
		return fmt.Errorf("failed to upsert payment: %w", err)
	}
	return nil
}
