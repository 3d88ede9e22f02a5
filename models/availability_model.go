package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SlotStatusOpen          = "open"
	SlotStatusTrialReserved = "trial_reserved"
	SlotStatusPaidReserved  = "paid_reserved"
)

// AvailabilitySlot is a bookable teacher time window. Slots are created by
// schedule-management tooling; the booking engine only transitions status and
// occupancy, and does so exclusively through the slot registry.
type AvailabilitySlot struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TeacherID uuid.UUID  `gorm:"not null;index" json:"teacher_id"`
	CourseID  *uuid.UUID `json:"course_id"`
	StartTime time.Time  `gorm:"not null" json:"start_time"`
	EndTime   time.Time  `gorm:"not null" json:"end_time"`
	Status    string     `gorm:"size:20;not null;default:'open'" json:"status"`

	// Capacity is 1 for one-to-one sessions; group sessions may be larger.
	Capacity int `gorm:"not null;default:1" json:"capacity"`
	Booked   int `gorm:"not null;default:0" json:"booked"`

	// ReservedBy is authoritative only for capacity-1 slots; for group
	// slots it records the most recent holder.
	ReservedBy *uuid.UUID `json:"reserved_by,omitempty"`

	Teacher User    `gorm:"foreignkey:TeacherID" json:"teacher,omitempty"`
	Course  *Course `gorm:"foreignkey:CourseID" json:"course,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
