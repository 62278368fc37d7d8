package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment represents a payment row in the database
type Payment struct {
	ID                  string    `gorm:"type:varchar(128);primary_key" json:"id"`
	Amount              string    `gorm:"type:varchar(32);not null" json:"amount"`
	AmountCents         int64     `gorm:"not null" json:"amount_cents"`
	Currency            string    `gorm:"type:varchar(3);not null" json:"currency"`
	MerchantID          string    `gorm:"type:varchar(128);not null;index" json:"merchant_id"`
	State               string    `gorm:"type:varchar(32);not null;index" json:"state"`
	ReasonCode          *string   `gorm:"type:varchar(128)" json:"reason_code,omitempty"`
	RefundedAmount      *string   `gorm:"type:varchar(32)" json:"refunded_amount,omitempty"`
	RefundedAmountCents *int64    `json:"refunded_amount_cents,omitempty"`
	CreatedAt           time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// BeforeCreate is a GORM hook that runs before creating a record
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	return nil
}

// PaymentEvent is one recorded transition event
type PaymentEvent struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	PaymentID  string    `gorm:"type:varchar(128);not null;index" json:"payment_id"`
	Operation  string    `gorm:"type:varchar(16);not null" json:"operation"`
	FromState  *string   `gorm:"type:varchar(32)" json:"from_state,omitempty"`
	ToState    string    `gorm:"type:varchar(32);not null" json:"to_state"`
	Comment    *string   `gorm:"type:text" json:"comment,omitempty"`
	OccurredAt time.Time `gorm:"not null;index" json:"occurred_at"`
}

// TableName specifies the table name for GORM
func (PaymentEvent) TableName() string {
	return "payment_events"
}
