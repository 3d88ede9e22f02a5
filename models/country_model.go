package models

import "github.com/google/uuid"

// Country holds the regional configuration pricing resolution depends on.
// Rows are administered out-of-band; the engine only reads them.
type Country struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null;unique" json:"name"`
	CurrencyCode string    `gorm:"size:3;not null" json:"currency_code"`

	// Minutes east of UTC, e.g. 180 for Nairobi.
	UTCOffsetMinutes int `gorm:"not null;default:0" json:"utc_offset_minutes"`

	// Business hours as minutes from local midnight.
	BusinessOpen  int `gorm:"not null;default:480" json:"business_open"`
	BusinessClose int `gorm:"not null;default:1260" json:"business_close"`

	// TaxExclusive means listed prices do not include tax yet.
	TaxExclusive bool    `gorm:"default:false" json:"tax_exclusive"`
	TaxRate      float64 `gorm:"type:numeric(5,4);default:0" json:"tax_rate"`
}
