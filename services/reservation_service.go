package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/anjiri1684/tutor_booking/events"
	"github.com/anjiri1684/tutor_booking/metrics"
	"github.com/anjiri1684/tutor_booking/models"
	"github.com/anjiri1684/tutor_booking/payments"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationService is the only writer of reservation status. Every
// transition is a guarded UPDATE on the previous status, so a transition
// racing against a concurrent cancel, webhook or sweep loses cleanly with
// ErrInvalidTransition instead of overwriting a terminal state.
type ReservationService struct {
	db        *gorm.DB
	registry  *SlotRegistry
	ledger    *EnrollmentService
	gateway   payments.Gateway
	publisher events.Publisher
}

func NewReservationService(db *gorm.DB, registry *SlotRegistry, ledger *EnrollmentService, gateway payments.Gateway, publisher events.Publisher) *ReservationService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &ReservationService{
		db:        db,
		registry:  registry,
		ledger:    ledger,
		gateway:   gateway,
		publisher: publisher,
	}
}

// Create records a new pending_hold reservation for a granted hold. The
// price snapshot comes from the quote and is never written again.
func (s *ReservationService) Create(ctx context.Context, token *HoldToken, req BookingRequest, quote *PriceQuote) (*models.Reservation, error) {
	resv := models.Reservation{
		ID:              uuid.New(),
		SlotID:          token.SlotID,
		UserID:          token.UserID,
		CourseID:        req.CourseID,
		Type:            req.Type,
		Status:          models.ReservationStatusPendingHold,
		PriceAmount:     quote.EffectivePrice,
		PriceCurrency:   quote.Currency,
		PriceComputedAt: quote.ComputedAt,
		HoldToken:       token.Token,
		HoldExpiresAt:   token.ExpiresAt,
		SalesPersonID:   req.SalesPersonID,
	}
	if err := s.db.WithContext(ctx).Create(&resv).Error; err != nil {
		return nil, err
	}
	return &resv, nil
}

// ConfirmDemo finalizes a demo reservation directly from pending_hold; demo
// sessions require no payment.
func (s *ReservationService) ConfirmDemo(ctx context.Context, resv *models.Reservation) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Reservation{}).
			Where("id = ? AND status = ?", resv.ID, models.ReservationStatusPendingHold).
			Update("status", models.ReservationStatusConfirmed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		if err := s.registry.WithTx(tx).Confirm(ctx, resv.SlotID, resv.UserID, resv.Type); err != nil {
			return err
		}
		_, err := s.ledger.WithTx(tx).Create(ctx, resv)
		return err
	})
	if err != nil {
		return err
	}

	resv.Status = models.ReservationStatusConfirmed
	metrics.ReservationsConfirmed.Inc()
	s.publish(events.KeyBookingConfirmed, resv)
	return nil
}

// RequestPayment moves a held reservation into awaiting_payment carrying the
// gateway transaction reference the webhook will answer with.
func (s *ReservationService) RequestPayment(ctx context.Context, reservationID uuid.UUID, transactionRef string) error {
	res := s.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status = ?", reservationID, models.ReservationStatusPendingHold).
		Updates(map[string]interface{}{
			"status":          models.ReservationStatusAwaitingPayment,
			"transaction_ref": transactionRef,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// OnPaymentConfirmed finalizes the reservation for a successful capture. A
// confirmation arriving after the reservation already expired or was
// released is rejected with ErrInvalidTransition and compensated with a
// refund instruction, never silently dropped.
func (s *ReservationService) OnPaymentConfirmed(ctx context.Context, transactionRef string) (*models.Reservation, error) {
	var resv models.Reservation
	if err := s.db.WithContext(ctx).First(&resv, "transaction_ref = ?", transactionRef).Error; err != nil {
		return nil, err
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Reservation{}).
			Where("id = ? AND status = ?", resv.ID, models.ReservationStatusAwaitingPayment).
			Update("status", models.ReservationStatusConfirmed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}

		if err := s.registry.WithTx(tx).Confirm(ctx, resv.SlotID, resv.UserID, resv.Type); err != nil {
			return err
		}
		if _, err := s.ledger.WithTx(tx).Create(ctx, &resv); err != nil {
			return err
		}

		return tx.Model(&models.Payment{}).
			Where("provider_txn_id = ?", transactionRef).
			Update("status", models.PaymentStatusSucceeded).Error
	})
	if txErr != nil {
		if errors.Is(txErr, ErrInvalidTransition) {
			s.compensateLateConfirmation(ctx, &resv, transactionRef)
		}
		return nil, txErr
	}

	resv.Status = models.ReservationStatusConfirmed
	metrics.ReservationsConfirmed.Inc()
	s.publish(events.KeyBookingConfirmed, &resv)
	return &resv, nil
}

// compensateLateConfirmation refunds a capture whose reservation is already
// inert. Funds must flow back; the reservation stays in its terminal state.
func (s *ReservationService) compensateLateConfirmation(ctx context.Context, resv *models.Reservation, transactionRef string) {
	var current models.Reservation
	if err := s.db.WithContext(ctx).First(&current, "id = ?", resv.ID).Error; err != nil {
		log.Printf("🔥 Could not reload reservation %s for compensation: %v", resv.ID, err)
		return
	}
	if current.Status != models.ReservationStatusExpired && current.Status != models.ReservationStatusReleased {
		return
	}

	// Claim the payment row before talking to the gateway so a webhook
	// replay of the same capture cannot refund twice.
	claim := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("provider_txn_id = ? AND status = ?", transactionRef, models.PaymentStatusPending).
		Update("status", models.PaymentStatusRefunded)
	if claim.Error != nil {
		log.Printf("🔥 Could not claim payment %s for compensation: %v", transactionRef, claim.Error)
		return
	}
	if claim.RowsAffected == 0 {
		// An earlier delivery already compensated this capture.
		return
	}

	refundID, err := s.gateway.Refund(ctx, transactionRef)
	if err != nil {
		log.Printf("🔥 CRITICAL: Refund for late confirmation %s failed: %v", transactionRef, err)
		// Put the claim back so the gateway's next replay retries the refund.
		s.db.WithContext(ctx).Model(&models.Payment{}).
			Where("provider_txn_id = ?", transactionRef).
			Update("status", models.PaymentStatusPending)
		return
	}

	reason := "capture confirmed after reservation " + current.Status
	if err := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("provider_txn_id = ?", transactionRef).
		Updates(map[string]interface{}{
			"refund_id":     refundID,
			"refund_reason": reason,
		}).Error; err != nil {
		log.Printf("Failed to record refund %s: %v", refundID, err)
	}
	metrics.RefundsIssued.Inc()
	log.Printf("Issued refund %s for late confirmation of reservation %s", refundID, resv.ID)
}

// OnPaymentFailed releases the hold for a failed capture. The student may
// re-initiate; nothing is retried automatically.
func (s *ReservationService) OnPaymentFailed(ctx context.Context, transactionRef string) (*models.Reservation, error) {
	var resv models.Reservation
	if err := s.db.WithContext(ctx).First(&resv, "transaction_ref = ?", transactionRef).Error; err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Reservation{}).
			Where("id = ? AND status = ?", resv.ID, models.ReservationStatusAwaitingPayment).
			Update("status", models.ReservationStatusReleased)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}

		if err := s.registry.WithTx(tx).Release(ctx, resv.SlotID); err != nil {
			return err
		}

		return tx.Model(&models.Payment{}).
			Where("provider_txn_id = ?", transactionRef).
			Update("status", models.PaymentStatusFailed).Error
	})
	if err != nil {
		return nil, err
	}

	resv.Status = models.ReservationStatusReleased
	metrics.PaymentFailures.Inc()
	metrics.ReservationsReleased.Inc()
	s.publish(events.KeyBookingReleased, &resv)
	return &resv, nil
}

// Abort releases a reservation whose capture could not even be initiated.
func (s *ReservationService) Abort(ctx context.Context, resv *models.Reservation) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Reservation{}).
			Where("id = ? AND status = ?", resv.ID, models.ReservationStatusPendingHold).
			Update("status", models.ReservationStatusReleased)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		return s.registry.WithTx(tx).Release(ctx, resv.SlotID)
	})
	if err != nil {
		return err
	}

	resv.Status = models.ReservationStatusReleased
	metrics.ReservationsReleased.Inc()
	s.publish(events.KeyBookingReleased, resv)
	return nil
}

// Cancel is the caller-initiated exit before confirmation. The guarded
// update makes it race-safe against a concurrently arriving confirmation:
// whichever transition lands first wins, the other sees ErrInvalidTransition.
func (s *ReservationService) Cancel(ctx context.Context, reservationID, userID uuid.UUID) (*models.Reservation, error) {
	var resv models.Reservation
	if err := s.db.WithContext(ctx).First(&resv, "id = ? AND user_id = ?", reservationID, userID).Error; err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Reservation{}).
			Where("id = ? AND status IN ?", resv.ID, []string{
				models.ReservationStatusPendingHold,
				models.ReservationStatusAwaitingPayment,
			}).
			Update("status", models.ReservationStatusReleased)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		return s.registry.WithTx(tx).Release(ctx, resv.SlotID)
	})
	if err != nil {
		return nil, err
	}

	resv.Status = models.ReservationStatusReleased
	metrics.ReservationsReleased.Inc()
	s.publish(events.KeyBookingReleased, &resv)
	return &resv, nil
}

// ExpireStale transitions every hold past its expiry to expired and reopens
// the slots. Called by the cron sweep; safe to run concurrently with live
// traffic because each expiry is its own guarded transition.
func (s *ReservationService) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	var stale []models.Reservation
	err := s.db.WithContext(ctx).
		Where("status IN ? AND hold_expires_at < ?", []string{
			models.ReservationStatusPendingHold,
			models.ReservationStatusAwaitingPayment,
		}, now).
		Find(&stale).Error
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		resv := stale[i]
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&models.Reservation{}).
				Where("id = ? AND status IN ?", resv.ID, []string{
					models.ReservationStatusPendingHold,
					models.ReservationStatusAwaitingPayment,
				}).
				Update("status", models.ReservationStatusExpired)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInvalidTransition
			}
			return s.registry.WithTx(tx).Release(ctx, resv.SlotID)
		})
		if err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				// Lost the race against a confirmation or cancel.
				continue
			}
			return expired, err
		}

		resv.Status = models.ReservationStatusExpired
		expired++
		metrics.ReservationsExpired.Inc()
		s.publish(events.KeyBookingExpired, &resv)
	}
	return expired, nil
}

func (s *ReservationService) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var resv models.Reservation
	if err := s.db.WithContext(ctx).First(&resv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &resv, nil
}

func (s *ReservationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.db.WithContext(ctx).
		Preload("Slot").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&reservations).Error
	return reservations, err
}

func (s *ReservationService) publish(key string, resv *models.Reservation) {
	event := events.BookingEvent{
		ReservationID: resv.ID,
		SlotID:        resv.SlotID,
		UserID:        resv.UserID,
		CourseID:      resv.CourseID,
		Type:          resv.Type,
		Status:        resv.Status,
		Amount:        resv.PriceAmount,
		Currency:      resv.PriceCurrency,
		OccurredAt:    time.Now(),
	}
	if err := s.publisher.Publish(context.Background(), key, event); err != nil {
		log.Printf("Failed to publish %s for reservation %s: %v", key, resv.ID, err)
	}
}
