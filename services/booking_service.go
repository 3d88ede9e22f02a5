package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/anjiri1684/tutor_booking/metrics"
	"github.com/anjiri1684/tutor_booking/models"
	"github.com/anjiri1684/tutor_booking/payments"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingRequest struct {
	UserID        uuid.UUID
	CourseID      uuid.UUID
	SlotID        uuid.UUID
	Type          string
	SalesPersonID *uuid.UUID
}

// BookingService is the entry point composing pricing, slot registry,
// reservation lifecycle and payment capture into one booking attempt.
type BookingService struct {
	db           *gorm.DB
	pricing      *PricingService
	registry     *SlotRegistry
	reservations *ReservationService
	gateway      payments.Gateway
}

func NewBookingService(db *gorm.DB, pricing *PricingService, registry *SlotRegistry, reservations *ReservationService, gateway payments.Gateway) *BookingService {
	return &BookingService{
		db:           db,
		pricing:      pricing,
		registry:     registry,
		reservations: reservations,
		gateway:      gateway,
	}
}

// Book drives one booking attempt: resolve price, hold the slot, then either
// confirm directly (demo) or hand off to the payment gateway and suspend in
// awaiting_payment until the webhook answers.
//
// A retry for a (user, slot) pair that already has an in-flight reservation
// returns that reservation together with ErrDuplicateRequest instead of
// creating a second one.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*models.Reservation, error) {
	var existing models.Reservation
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND slot_id = ? AND status IN ?", req.UserID, req.SlotID, []string{
			models.ReservationStatusPendingHold,
			models.ReservationStatusAwaitingPayment,
		}).
		First(&existing).Error
	if err == nil {
		return &existing, ErrDuplicateRequest
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", req.UserID).Error; err != nil {
		return nil, err
	}
	if user.CountryID == nil {
		return nil, ErrPricingNotFound
	}

	quote, err := s.pricing.ResolvePrice(ctx, req.CourseID, *user.CountryID, time.Now())
	if err != nil {
		return nil, err
	}

	token, err := s.registry.TryHold(ctx, req.SlotID, req.UserID)
	if err != nil {
		return nil, err
	}

	resv, err := s.reservations.Create(ctx, token, req, quote)
	if err != nil {
		// The hold must not outlive a failed create.
		if relErr := s.registry.Release(ctx, req.SlotID); relErr != nil {
			log.Printf("🔥 Failed to release slot %s after create failure: %v", req.SlotID, relErr)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race against a concurrent retry of the same
			// request; the reservation that landed is the answer.
			var winner models.Reservation
			if lookupErr := s.db.WithContext(ctx).
				Where("user_id = ? AND slot_id = ?", req.UserID, req.SlotID).
				Order("created_at desc").
				First(&winner).Error; lookupErr == nil {
				return &winner, ErrDuplicateRequest
			}
		}
		return nil, err
	}

	if req.Type == models.EnrollmentTypeDemo {
		if err := s.reservations.ConfirmDemo(ctx, resv); err != nil {
			return nil, err
		}
		return resv, nil
	}

	transactionID, err := s.gateway.Capture(ctx, resv.PriceAmount, resv.PriceCurrency, map[string]string{
		"reservation_id": resv.ID.String(),
		"slot_id":        resv.SlotID.String(),
		"user_id":        resv.UserID.String(),
	})
	if err != nil {
		log.Printf("🔥 Capture initiation failed for reservation %s: %v", resv.ID, err)
		metrics.PaymentFailures.Inc()
		if abortErr := s.reservations.Abort(ctx, resv); abortErr != nil {
			log.Printf("🔥 Failed to abort reservation %s: %v", resv.ID, abortErr)
		}
		return nil, ErrPaymentFailed
	}

	payment := models.Payment{
		ID:            uuid.New(),
		ReservationID: &resv.ID,
		Amount:        resv.PriceAmount,
		Currency:      resv.PriceCurrency,
		Provider:      s.gateway.Provider(),
		ProviderTxnID: &transactionID,
		Status:        models.PaymentStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		log.Printf("Failed to record payment row for reservation %s: %v", resv.ID, err)
	}

	if err := s.reservations.RequestPayment(ctx, resv.ID, transactionID); err != nil {
		// Expired or cancelled between hold and capture hand-off.
		return nil, err
	}

	resv.Status = models.ReservationStatusAwaitingPayment
	resv.TransactionRef = &transactionID
	return resv, nil
}
