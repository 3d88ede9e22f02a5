package handlers

import (
	"time"

	"github.com/anjiri1684/tutor_booking/models"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SlotHandler struct {
	db *gorm.DB
}

func NewSlotHandler(db *gorm.DB) *SlotHandler {
	return &SlotHandler{db: db}
}

// ListOpenSlots returns bookable slots, optionally filtered by teacher and
// time window. Only slots with remaining capacity are shown.
func (h *SlotHandler) ListOpenSlots(c *fiber.Ctx) error {
	q := h.db.
		Model(&models.AvailabilitySlot{}).
		Where("status = ? AND booked < capacity", models.SlotStatusOpen).
		Where("start_time > ?", time.Now())

	if teacherID := c.Query("teacher_id"); teacherID != "" {
		q = q.Where("teacher_id = ?", teacherID)
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid 'from' timestamp"})
		}
		q = q.Where("start_time >= ?", t)
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid 'to' timestamp"})
		}
		q = q.Where("end_time <= ?", t)
	}

	var slots []models.AvailabilitySlot
	if err := q.Order("start_time asc").Find(&slots).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load slots"})
	}

	return c.JSON(slots)
}
