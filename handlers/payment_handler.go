package handlers

import (
	"errors"
	"log"

	"github.com/anjiri1684/tutor_booking/models"
	"github.com/anjiri1684/tutor_booking/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type GatewayWebhookPayload struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	Status        string `json:"status" validate:"required,oneof=succeeded failed"`
}

type PaymentHandler struct {
	db           *gorm.DB
	reservations *services.ReservationService
}

func NewPaymentHandler(db *gorm.DB, reservations *services.ReservationService) *PaymentHandler {
	return &PaymentHandler{db: db, reservations: reservations}
}

// HandlePaymentWebhook receives the asynchronous capture result from the
// gateway. Replays are acknowledged without reprocessing; a success arriving
// after expiry triggers the compensating refund inside the service and is
// still acknowledged so the gateway stops retrying.
func (h *PaymentHandler) HandlePaymentWebhook(c *fiber.Ctx) error {
	var payload GatewayWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse webhook payload"})
	}
	if err := validate.Struct(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("Received webhook for transaction %s, status %s", payload.TransactionID, payload.Status)

	var payment models.Payment
	if err := h.db.First(&payment, "provider_txn_id = ?", payload.TransactionID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment record not found"})
	}
	if payment.Status != models.PaymentStatusPending {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Webhook already processed"})
	}

	if payload.Status == "failed" {
		if _, err := h.reservations.OnPaymentFailed(c.Context(), payload.TransactionID); err != nil {
			if errors.Is(err, services.ErrInvalidTransition) {
				return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Acknowledged, reservation already settled"})
			}
			log.Printf("🔥 CRITICAL: Error processing failed capture %s: %v", payload.TransactionID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Acknowledged failed payment"})
	}

	if _, err := h.reservations.OnPaymentConfirmed(c.Context(), payload.TransactionID); err != nil {
		if errors.Is(err, services.ErrInvalidTransition) {
			// Late confirmation; the refund instruction already went out.
			return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Acknowledged, reservation no longer active"})
		}
		log.Printf("🔥 CRITICAL: Error processing successful capture %s: %v", payload.TransactionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process webhook"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Webhook processed successfully"})
}
