package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a thin read model. Accounts are created and authenticated by the
// identity service; the booking engine only needs the country reference to
// resolve regional pricing.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FullName  string     `gorm:"size:255;not null" json:"full_name"`
	Email     string     `gorm:"size:255;not null;unique" json:"email"`
	Role      string     `gorm:"size:20;not null;default:'student'" json:"role"`
	CountryID *uuid.UUID `json:"country_id"`
	TimeZone  *string    `gorm:"size:100" json:"time_zone"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`

	Country *Country `gorm:"foreignkey:CountryID" json:"country,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
