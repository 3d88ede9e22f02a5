package services

import (
	"context"
	"time"

	"github.com/anjiri1684/tutor_booking/metrics"
	"github.com/anjiri1684/tutor_booking/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HoldToken is a tentative, time-bounded claim on a slot. The expiry is also
// persisted on the reservation row so the sweep can observe it without this
// process staying alive.
type HoldToken struct {
	Token     uuid.UUID
	SlotID    uuid.UUID
	UserID    uuid.UUID
	ExpiresAt time.Time
}

// SlotRegistry owns every slot status and occupancy transition. Exclusivity
// comes from single guarded UPDATEs on the status/occupancy columns, so two
// concurrent holds on the same slot can never both observe remaining
// capacity, on postgres and sqlite alike, without a table-wide lock.
type SlotRegistry struct {
	db      *gorm.DB
	holdTTL time.Duration
}

func NewSlotRegistry(db *gorm.DB, holdTTL time.Duration) *SlotRegistry {
	return &SlotRegistry{db: db, holdTTL: holdTTL}
}

// WithTx returns a registry bound to an open transaction.
func (r *SlotRegistry) WithTx(tx *gorm.DB) *SlotRegistry {
	return &SlotRegistry{db: tx, holdTTL: r.holdTTL}
}

// TryHold grants a hold iff the slot is open with remaining capacity.
// Exactly one of N concurrent callers succeeds for a capacity-1 slot; losers
// get ErrSlotUnavailable and must pick another slot.
func (r *SlotRegistry) TryHold(ctx context.Context, slotID, userID uuid.UUID) (*HoldToken, error) {
	res := r.db.WithContext(ctx).
		Model(&models.AvailabilitySlot{}).
		Where("id = ? AND status = ? AND booked < capacity", slotID, models.SlotStatusOpen).
		Updates(map[string]interface{}{
			"booked":      gorm.Expr("booked + 1"),
			"reserved_by": userID,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.AvailabilitySlot{}).
			Where("id = ?", slotID).
			Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrSlotNotFound
		}
		metrics.HoldsRejected.Inc()
		return nil, ErrSlotUnavailable
	}

	metrics.HoldsGranted.Inc()
	return &HoldToken{
		Token:     uuid.New(),
		SlotID:    slotID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(r.holdTTL),
	}, nil
}

// Release returns one unit of occupancy and reopens the slot unless a
// confirmed reservation still holds it.
func (r *SlotRegistry) Release(ctx context.Context, slotID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var confirmed int64
		if err := tx.Model(&models.Reservation{}).
			Where("slot_id = ? AND status = ?", slotID, models.ReservationStatusConfirmed).
			Count(&confirmed).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"booked": gorm.Expr("CASE WHEN booked > 0 THEN booked - 1 ELSE 0 END"),
		}
		if confirmed == 0 {
			updates["status"] = models.SlotStatusOpen
			updates["reserved_by"] = nil
		}

		return tx.Model(&models.AvailabilitySlot{}).
			Where("id = ?", slotID).
			Updates(updates).Error
	})
}

// Confirm pins the slot status once occupancy has reached capacity. Demo and
// trial enrollments mark the slot trial_reserved; paid marks paid_reserved.
// A group slot below capacity keeps accepting holds and stays open.
func (r *SlotRegistry) Confirm(ctx context.Context, slotID, userID uuid.UUID, enrollmentType string) error {
	status := models.SlotStatusTrialReserved
	if enrollmentType == models.EnrollmentTypePaid {
		status = models.SlotStatusPaidReserved
	}

	res := r.db.WithContext(ctx).
		Model(&models.AvailabilitySlot{}).
		Where("id = ? AND booked >= capacity", slotID).
		Updates(map[string]interface{}{
			"status":      status,
			"reserved_by": userID,
		})
	return res.Error
}
