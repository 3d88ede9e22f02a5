package handlers

import (
	"errors"
	"log"

	"github.com/anjiri1684/tutor_booking/middleware"
	"github.com/anjiri1684/tutor_booking/models"
	"github.com/anjiri1684/tutor_booking/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var validate = validator.New()

type CreateBookingRequest struct {
	CourseID       string  `json:"course_id" validate:"required,uuid"`
	SlotID         string  `json:"slot_id" validate:"required,uuid"`
	EnrollmentType string  `json:"enrollment_type" validate:"required,oneof=demo trial paid"`
	SalesPersonID  *string `json:"sales_person_id,omitempty" validate:"omitempty,uuid"`
}

type BookingHandler struct {
	bookings     *services.BookingService
	reservations *services.ReservationService
}

func NewBookingHandler(bookings *services.BookingService, reservations *services.ReservationService) *BookingHandler {
	return &BookingHandler{bookings: bookings, reservations: reservations}
}

func reservationResponse(resv *models.Reservation) fiber.Map {
	return fiber.Map{
		"reservation_id": resv.ID,
		"status":         resv.Status,
		"price": fiber.Map{
			"amount":   resv.PriceAmount,
			"currency": resv.PriceCurrency,
		},
	}
}

func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user token"})
	}

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	courseID, _ := uuid.Parse(req.CourseID)
	slotID, _ := uuid.Parse(req.SlotID)

	booking := services.BookingRequest{
		UserID:   userID,
		CourseID: courseID,
		SlotID:   slotID,
		Type:     req.EnrollmentType,
	}
	if req.SalesPersonID != nil {
		spID, _ := uuid.Parse(*req.SalesPersonID)
		booking.SalesPersonID = &spID
	}

	resv, err := h.bookings.Book(c.Context(), booking)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateRequest):
			// Idempotency hit: the in-flight reservation is the answer.
			return c.Status(fiber.StatusOK).JSON(reservationResponse(resv))
		case errors.Is(err, services.ErrSlotNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Availability slot not found"})
		case errors.Is(err, services.ErrPricingNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No active pricing for this course in your country"})
		case errors.Is(err, services.ErrSlotUnavailable):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "This slot is full or no longer available"})
		case errors.Is(err, services.ErrCurrencyMismatch):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Pricing currency cannot be converted for your country"})
		case errors.Is(err, services.ErrPaymentFailed):
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "Payment could not be initiated, please try again."})
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		log.Printf("🔥 CRITICAL: Book failed for user %s slot %s: %v", userID, slotID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Booking failed, please try again."})
	}

	return c.Status(fiber.StatusCreated).JSON(reservationResponse(resv))
}

func (h *BookingHandler) CancelReservation(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user token"})
	}

	reservationID, err := uuid.Parse(c.Params("reservationId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid reservation ID format"})
	}

	resv, err := h.reservations.Cancel(c.Context(), reservationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Reservation not found"})
		}
		if errors.Is(err, services.ErrInvalidTransition) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Reservation can no longer be cancelled"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to cancel reservation"})
	}

	return c.JSON(reservationResponse(resv))
}

func (h *BookingHandler) GetMyReservations(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user token"})
	}

	reservations, err := h.reservations.ListForUser(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load reservations"})
	}

	return c.JSON(reservations)
}
