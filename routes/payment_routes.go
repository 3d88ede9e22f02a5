package routes

import (
	"github.com/anjiri1684/tutor_booking/handlers"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App, h *handlers.PaymentHandler) {
	api := app.Group("/api/v1")

	api.Post("/payments/webhook", h.HandlePaymentWebhook)
}
