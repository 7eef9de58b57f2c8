package handlers

import "github.com/gofiber/fiber/v2"

// HealthHandler serves the service info root route
type HealthHandler struct {
	Version string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		Version: version,
	}
}

// Info returns basic service identity
func (h *HealthHandler) Info(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "OK",
		"service": "Jidokhae Backend",
		"version": h.Version,
	})
}
