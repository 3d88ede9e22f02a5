package services

import (
	"context"

	"github.com/anjiri1684/tutor_booking/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnrollmentService is the enrollment ledger. One row per confirmed
// reservation, written at finalize time inside the confirming transaction;
// everything after that is read-only history.
type EnrollmentService struct {
	db *gorm.DB
}

func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{db: db}
}

func (s *EnrollmentService) WithTx(tx *gorm.DB) *EnrollmentService {
	return &EnrollmentService{db: tx}
}

func (s *EnrollmentService) Create(ctx context.Context, resv *models.Reservation) (*models.Enrollment, error) {
	enrollment := models.Enrollment{
		ID:            uuid.New(),
		UserID:        resv.UserID,
		CourseID:      resv.CourseID,
		SlotID:        &resv.SlotID,
		ReservationID: resv.ID,
		Type:          resv.Type,
		IsActive:      true,
		PriceAmount:   resv.PriceAmount,
		PriceCurrency: resv.PriceCurrency,
	}
	if err := s.db.WithContext(ctx).Create(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (s *EnrollmentService) CountForReservation(ctx context.Context, reservationID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Enrollment{}).
		Where("reservation_id = ?", reservationID).
		Count(&count).Error
	return count, err
}

func (s *EnrollmentService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&enrollments).Error
	return enrollments, err
}
