package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusSucceeded = "succeeded"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// Payment is the gateway-side bookkeeping row for one capture attempt. It
// exists so webhook replays stay idempotent and compensating refunds are
// auditable.
type Payment struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ReservationID *uuid.UUID `gorm:"type:uuid;unique" json:"reservation_id,omitempty"`
	Amount        float64    `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency      string     `gorm:"size:3;not null" json:"currency"`
	Provider      string     `gorm:"size:50;not null" json:"provider"`
	ProviderTxnID *string    `gorm:"size:255;unique" json:"provider_txn_id,omitempty"`
	Status        string     `gorm:"size:20;not null" json:"status"`

	RefundID     *string `gorm:"size:255" json:"refund_id,omitempty"`
	RefundReason *string `gorm:"type:text" json:"refund_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
