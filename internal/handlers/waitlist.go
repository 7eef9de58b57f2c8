package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/jidokhae/jidokhae-backend/internal/middleware"
	"github.com/jidokhae/jidokhae-backend/internal/services"
	"github.com/jidokhae/jidokhae-backend/internal/storage"
)

// WaitlistHandler handles waitlist join and cancel requests
type WaitlistHandler struct {
	waitlists *services.WaitlistService
}

// NewWaitlistHandler creates a new waitlist handler
func NewWaitlistHandler(waitlists *services.WaitlistService) *WaitlistHandler {
	return &WaitlistHandler{waitlists: waitlists}
}

type registerWaitlistRequest struct {
	MeetingID string `json:"meetingId" validate:"required"`
}

type cancelWaitlistRequest struct {
	WaitlistID string `json:"waitlistId" validate:"required"`
}

// Register queues the caller for a full meeting
func (h *WaitlistHandler) Register(c *fiber.Ctx) error {
	var req registerWaitlistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "잘못된 요청입니다.",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "meetingId가 필요합니다.",
		})
	}

	result, err := h.waitlists.Join(req.MeetingID, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "모임을 찾을 수 없습니다.",
			})
		}
		log.Printf("Failed to join waitlist (meeting=%s): %v", req.MeetingID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "대기 등록에 실패했습니다.",
		})
	}

	return c.JSON(result)
}

// Cancel removes the caller's waiting entry. Ownership violations and
// missing entries are reported separately, never merged.
func (h *WaitlistHandler) Cancel(c *fiber.Ctx) error {
	var req cancelWaitlistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "잘못된 요청입니다.",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "waitlistId가 필요합니다.",
		})
	}

	result, err := h.waitlists.Cancel(req.WaitlistID, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "대기 정보를 찾을 수 없습니다.",
			})
		}
		if errors.Is(err, services.ErrNotOwner) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "본인의 대기만 취소할 수 있습니다.",
			})
		}
		log.Printf("Failed to cancel waitlist entry %s: %v", req.WaitlistID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "대기 취소에 실패했습니다.",
		})
	}

	return c.JSON(result)
}
