package services

import "errors"

var (
	ErrSlotNotFound      = errors.New("slot not found")
	ErrSlotUnavailable   = errors.New("slot is full or no longer available")
	ErrPricingNotFound   = errors.New("no active pricing for this course and country")
	ErrCurrencyMismatch  = errors.New("country currency differs from priced currency")
	ErrPaymentFailed     = errors.New("payment could not be captured")
	ErrPaymentTimeout    = errors.New("payment confirmation timed out")
	ErrInvalidTransition = errors.New("invalid reservation transition")

	// ErrDuplicateRequest is an idempotency hit, not a true failure; it is
	// always returned alongside the existing reservation.
	ErrDuplicateRequest = errors.New("a reservation for this slot is already in progress")
)
