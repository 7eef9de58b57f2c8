package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/jidokhae/jidokhae-backend/internal/middleware"
	"github.com/jidokhae/jidokhae-backend/internal/services"
	"github.com/jidokhae/jidokhae-backend/internal/storage"
)

// RegistrationHandler handles meeting sign-up requests
type RegistrationHandler struct {
	registrations *services.RegistrationService
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registrations *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations}
}

type createRegistrationRequest struct {
	MeetingID     string `json:"meetingId" validate:"required"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=card transfer"`
	DepositorName string `json:"depositorName"`
}

type cancelRegistrationRequest struct {
	RegistrationID string `json:"registrationId" validate:"required"`
}

// Create signs the caller up for a meeting
func (h *RegistrationHandler) Create(c *fiber.Ctx) error {
	var req createRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "잘못된 요청입니다.",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "meetingId와 결제 수단(card/transfer)이 필요합니다.",
		})
	}

	result, err := h.registrations.Create(middleware.UserID(c), req.MeetingID, req.PaymentMethod, req.DepositorName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "모임을 찾을 수 없습니다.",
			})
		}
		log.Printf("Failed to create registration (meeting=%s): %v", req.MeetingID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "신청에 실패했습니다.",
		})
	}

	status := fiber.StatusOK
	if result.Success {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(result)
}

// Cancel cancels the caller's own registration
func (h *RegistrationHandler) Cancel(c *fiber.Ctx) error {
	var req cancelRegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "잘못된 요청입니다.",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "registrationId가 필요합니다.",
		})
	}

	result, err := h.registrations.Cancel(req.RegistrationID, middleware.UserID(c))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "신청 정보를 찾을 수 없습니다.",
			})
		}
		if errors.Is(err, services.ErrNotOwner) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "본인의 신청만 취소할 수 있습니다.",
			})
		}
		log.Printf("Failed to cancel registration %s: %v", req.RegistrationID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "신청 취소에 실패했습니다.",
		})
	}

	return c.JSON(result)
}
