package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReservationStatusPendingHold     = "pending_hold"
	ReservationStatusAwaitingPayment = "awaiting_payment"
	ReservationStatusConfirmed       = "confirmed"
	ReservationStatusReleased        = "released"
	ReservationStatusExpired         = "expired"
)

const (
	EnrollmentTypeDemo  = "demo"
	EnrollmentTypeTrial = "trial"
	EnrollmentTypePaid  = "paid"
)

// Reservation tracks one booking attempt through its lifecycle. The price
// snapshot is written once at creation and never updated afterwards; later
// pricing changes do not touch existing reservations.
type Reservation struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// The partial unique index is the idempotency key: at most one
	// in-flight reservation may exist per (slot, user) pair.
	SlotID uuid.UUID `gorm:"not null;index;index:idx_reservations_inflight,unique,where:status = 'pending_hold' OR status = 'awaiting_payment'" json:"slot_id"`
	UserID uuid.UUID `gorm:"not null;index;index:idx_reservations_inflight" json:"user_id"`
	CourseID uuid.UUID `gorm:"not null" json:"course_id"`
	Type     string    `gorm:"size:10;not null" json:"enrollment_type"`
	Status   string    `gorm:"size:20;not null;default:'pending_hold'" json:"status"`

	PriceAmount     float64   `gorm:"type:numeric(10,2);not null" json:"price_amount"`
	PriceCurrency   string    `gorm:"size:3;not null" json:"price_currency"`
	PriceComputedAt time.Time `gorm:"not null" json:"price_computed_at"`

	// HoldExpiresAt is observable by the expiry sweep independently of the
	// process that created the hold, so a crashed orchestrator never
	// strands a slot.
	HoldToken     uuid.UUID `gorm:"type:uuid;not null;unique" json:"-"`
	HoldExpiresAt time.Time `gorm:"not null;index" json:"hold_expires_at"`

	TransactionRef *string    `gorm:"size:255;index" json:"transaction_ref,omitempty"`
	SalesPersonID  *uuid.UUID `json:"sales_person_id,omitempty"`

	Slot AvailabilitySlot `gorm:"foreignkey:SlotID" json:"slot,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether no further transitions are permitted.
func (r *Reservation) Terminal() bool {
	switch r.Status {
	case ReservationStatusConfirmed, ReservationStatusReleased, ReservationStatusExpired:
		return true
	}
	return false
}
