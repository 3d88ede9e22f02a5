package services

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/anjiri1684/tutor_booking/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PriceQuote is the result of resolving regional pricing at one instant.
// EffectivePrice is what the student is charged: discounted price when an
// active discount exists, otherwise base, converted into the country
// currency when needed, plus tax when the country prices tax-exclusive.
type PriceQuote struct {
	Base           float64   `json:"base"`
	Discounted     *float64  `json:"discounted,omitempty"`
	Currency       string    `json:"currency"`
	TaxRate        float64   `json:"tax_rate"`
	EffectivePrice float64   `json:"effective_price"`
	ComputedAt     time.Time `json:"computed_at"`
}

type PricingService struct {
	db       *gorm.DB
	currency *CurrencyService
}

// NewPricingService builds the resolver. currency may be nil; without it any
// currency mismatch is unresolvable and surfaces as ErrCurrencyMismatch.
func NewPricingService(db *gorm.DB, currency *CurrencyService) *PricingService {
	return &PricingService{db: db, currency: currency}
}

// ResolvePrice picks the newest pricing row covering `at` for the course and
// country. Repeated calls at the same instant return the same quote; the
// created_at ordering is the deterministic tie-break between overlapping
// rows.
func (s *PricingService) ResolvePrice(ctx context.Context, courseID, countryID uuid.UUID, at time.Time) (*PriceQuote, error) {
	var country models.Country
	if err := s.db.WithContext(ctx).First(&country, "id = ?", countryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPricingNotFound
		}
		return nil, err
	}

	var row models.RegionalPricing
	err := s.db.WithContext(ctx).
		Where("course_id = ? AND country_id = ?", courseID, countryID).
		Where("effective_from <= ?", at).
		Where("(effective_until IS NULL OR effective_until > ?)", at).
		Order("created_at DESC, id").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPricingNotFound
		}
		return nil, err
	}

	price := row.BasePrice
	if row.DiscountActive && row.DiscountedPrice != nil {
		price = *row.DiscountedPrice
	}

	currency := row.Currency
	if currency != country.CurrencyCode {
		if s.currency == nil {
			return nil, ErrCurrencyMismatch
		}
		converted, err := s.currency.Convert(ctx, price, currency, country.CurrencyCode)
		if err != nil {
			return nil, ErrCurrencyMismatch
		}
		price = roundMoney(converted)
		currency = country.CurrencyCode
	}

	effective := price
	if country.TaxExclusive {
		effective = roundMoney(price * (1 + country.TaxRate))
	}

	return &PriceQuote{
		Base:           row.BasePrice,
		Discounted:     row.DiscountedPrice,
		Currency:       currency,
		TaxRate:        country.TaxRate,
		EffectivePrice: effective,
		ComputedAt:     at,
	}, nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
