package routes

import (
	"github.com/anjiri1684/tutor_booking/handlers"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(app *fiber.App, slots *handlers.SlotHandler, currency *handlers.CurrencyHandler) {
	api := app.Group("/api/v1")

	api.Get("/slots/open", slots.ListOpenSlots)
	api.Get("/rates", currency.GetConversionRates)
}
