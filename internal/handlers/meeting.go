package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jidokhae/jidokhae-backend/internal/storage"
)

// MeetingHandler handles public meeting browsing
type MeetingHandler struct {
	store storage.Store
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(store storage.Store) *MeetingHandler {
	return &MeetingHandler{store: store}
}

// List returns open meetings ordered by date
func (h *MeetingHandler) List(c *fiber.Ctx) error {
	meetings, err := h.store.GetOpenMeetings()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "모임 목록을 불러오지 못했습니다.",
		})
	}

	return c.JSON(fiber.Map{
		"meetings": meetings,
		"count":    len(meetings),
	})
}

// Get returns one meeting by id
func (h *MeetingHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "모임 ID가 필요합니다.",
		})
	}

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

	return c.JSON(meeting)
}
