package models

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment is the durable record of confirmed access to a course/session.
// Exactly one row is written per confirmed reservation, at finalize time, and
// the ledger is otherwise append-only history.
type Enrollment struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"not null;index" json:"user_id"`
	CourseID      uuid.UUID  `gorm:"not null" json:"course_id"`
	SlotID        *uuid.UUID `json:"slot_id,omitempty"`
	ReservationID uuid.UUID  `gorm:"type:uuid;not null;unique" json:"reservation_id"`
	Type          string     `gorm:"size:10;not null" json:"enrollment_type"`
	IsActive      bool       `gorm:"default:true" json:"is_active"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`

	PriceAmount   float64 `gorm:"type:numeric(10,2);not null" json:"price_amount"`
	PriceCurrency string  `gorm:"size:3;not null" json:"price_currency"`

	CreatedAt time.Time `json:"created_at"`
}
