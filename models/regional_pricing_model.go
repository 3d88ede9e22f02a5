package models

import (
	"time"

	"github.com/google/uuid"
)

// RegionalPricing is one published price row for a (course, country) pair.
// Pricing administration inserts new rows instead of mutating old ones; the
// resolver picks the newest row covering the requested instant.
type RegionalPricing struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"not null;index:idx_pricing_course_country" json:"course_id"`
	CountryID uuid.UUID `gorm:"not null;index:idx_pricing_course_country" json:"country_id"`

	Currency        string   `gorm:"size:3;not null" json:"currency"`
	BasePrice       float64  `gorm:"type:numeric(10,2);not null" json:"base_price"`
	DiscountedPrice *float64 `gorm:"type:numeric(10,2)" json:"discounted_price,omitempty"`
	DiscountActive  bool     `gorm:"default:false" json:"discount_active"`

	EffectiveFrom  time.Time  `gorm:"not null" json:"effective_from"`
	EffectiveUntil *time.Time `json:"effective_until,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
