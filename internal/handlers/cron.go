package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jidokhae/jidokhae-backend/internal/services"
)

// CronHandler exposes the periodic sweeps to the external scheduler
type CronHandler struct {
	waitlists *services.WaitlistService
	reminders *services.ReminderService
}

// NewCronHandler creates a new cron handler
func NewCronHandler(waitlists *services.WaitlistService, reminders *services.ReminderService) *CronHandler {
	return &CronHandler{waitlists: waitlists, reminders: reminders}
}

// Waitlist runs the response-deadline expiry sweep
func (h *CronHandler) Waitlist(c *fiber.Ctx) error {
	stats, err := h.waitlists.ExpireOverdue()
	if err != nil {
		log.Printf("Waitlist sweep failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Waitlist cron completed",
		"stats":     stats,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// Reminder sends the daily D-3 / D-1 / day-of meeting reminders
func (h *CronHandler) Reminder(c *fiber.Ctx) error {
	stats, err := h.reminders.ProcessReminders()
	if err != nil {
		log.Printf("Reminder sweep failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Reminder cron completed",
		"stats":     stats,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// AutoComplete marks finished meetings as completed
func (h *CronHandler) AutoComplete(c *fiber.Ctx) error {
	completed, err := h.reminders.AutoComplete()
	if err != nil {
		log.Printf("Auto-complete sweep failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Internal server error",
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Auto-complete cron completed",
		"completed": completed,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
