package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jidokhae/jidokhae-backend/internal/models"
	"github.com/jidokhae/jidokhae-backend/internal/services"
	"github.com/jidokhae/jidokhae-backend/internal/storage"
)

// AdminHandler handles meeting management and manual transfer confirmation
type AdminHandler struct {
	store         storage.Store
	registrations *services.RegistrationService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store storage.Store, registrations *services.RegistrationService) *AdminHandler {
	return &AdminHandler{store: store, registrations: registrations}
}

// ListPendingTransfers lists registrations awaiting a bank transfer
func (h *AdminHandler) ListPendingTransfers(c *fiber.Ctx) error {
	transfers, err := h.store.GetPendingTransfers()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "입금 대기 목록을 불러오지 못했습니다.",
		})
	}

	return c.JSON(fiber.Map{
		"transfers": transfers,
		"count":     len(transfers),
	})
}

// ConfirmTransfer confirms a bank-transfer registration after checking the
// deposit
func (h *AdminHandler) ConfirmTransfer(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "registrationId가 필요합니다.",
		})
	}

	reg, err := h.registrations.ConfirmTransfer(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "신청 정보를 찾을 수 없습니다.",
			})
		}
		if errors.Is(err, services.ErrNotPendingTransfer) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "입금 대기 상태가 아닙니다.",
			})
		}
		log.Printf("Failed to confirm transfer %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "입금 확인 처리에 실패했습니다.",
		})
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "입금이 확인되어 신청이 확정되었습니다.",
		"registration": reg,
	})
}

type createMeetingRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	BookTitle   string    `json:"bookTitle"`
	Location    string    `json:"location" validate:"required"`
	Datetime    time.Time `json:"datetime" validate:"required"`
	Capacity    int       `json:"capacity" validate:"required,gt=0"`
	Fee         int       `json:"fee" validate:"gte=0"`
}

// CreateMeeting creates a new meeting
func (h *AdminHandler) CreateMeeting(c *fiber.Ctx) error {
	var req createMeetingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "잘못된 요청입니다.",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "제목, 장소, 일시, 정원을 확인해주세요.",
		})
	}

	meeting, err := h.store.CreateMeeting(&models.Meeting{
		Title:       req.Title,
		Description: req.Description,
		BookTitle:   req.BookTitle,
		Location:    req.Location,
		Datetime:    req.Datetime,
		Capacity:    req.Capacity,
		Fee:         req.Fee,
		Status:      models.MeetingStatusOpen,
	})
	if err != nil {
		log.Printf("Failed to create meeting: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "모임 생성에 실패했습니다.",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(meeting)
}

type updateMeetingRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	BookTitle   string     `json:"bookTitle"`
	Location    string     `json:"location"`
	Datetime    *time.Time `json:"datetime"`
	Capacity    *int       `json:"capacity"`
	Fee         *int       `json:"fee"`
	Status      string     `json:"status"`
}

// UpdateMeeting updates meeting fields; only provided fields change
func (h *AdminHandler) UpdateMeeting(c *fiber.Ctx) error {
	id := c.Params("id")

	meeting, err := h.store.GetMeeting(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "모임을 찾을 수 없습니다.",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "모임 정보를 불러오지 못했습니다.",
		})
	}

	var req updateMeetingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "잘못된 요청입니다.",
		})
	}

	if req.Title != "" {
		meeting.Title = req.Title
	}
	if req.Description != "" {
		meeting.Description = req.Description
	}
	if req.BookTitle != "" {
		meeting.BookTitle = req.BookTitle
	}
	if req.Location != "" {
		meeting.Location = req.Location
	}
	if req.Datetime != nil {
		meeting.Datetime = *req.Datetime
	}
	if req.Capacity != nil && *req.Capacity > 0 {
		meeting.Capacity = *req.Capacity
	}
	if req.Fee != nil && *req.Fee >= 0 {
		meeting.Fee = *req.Fee
	}
	if req.Status != "" {
		switch req.Status {
		case models.MeetingStatusOpen, models.MeetingStatusClosed,
			models.MeetingStatusCompleted, models.MeetingStatusCancelled:
			meeting.Status = req.Status
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "잘못된 모임 상태입니다.",
			})
		}
	}

	if err := h.store.UpdateMeeting(meeting); err != nil {
		log.Printf("Failed to update meeting %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "모임 수정에 실패했습니다.",
		})
	}

	return c.JSON(meeting)
}

// ListNotificationLogs returns recent outbound notifications
func (h *AdminHandler) ListNotificationLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	logs, err := h.store.GetNotificationLogs(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "알림 로그를 불러오지 못했습니다.",
		})
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"count": len(logs),
	})
}
