package handlers

import (
	"github.com/anjiri1684/tutor_booking/services"
	"github.com/gofiber/fiber/v2"
)

type CurrencyHandler struct {
	currency *services.CurrencyService
}

func NewCurrencyHandler(currency *services.CurrencyService) *CurrencyHandler {
	return &CurrencyHandler{currency: currency}
}

func (h *CurrencyHandler) GetConversionRates(c *fiber.Ctx) error {
	rates, err := h.currency.Rates(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch exchange rates"})
	}

	return c.JSON(fiber.Map{"base": "USD", "rates": rates})
}
