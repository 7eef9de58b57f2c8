package middleware

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
)

// RequireCronSecret guards the cron endpoints. The external scheduler must
// send "Authorization: Bearer $CRON_SECRET"; in development the check is
// skipped so sweeps can be triggered by hand.
func RequireCronSecret() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if os.Getenv("ENVIRONMENT") == "development" {
			return c.Next()
		}

		secret := os.Getenv("CRON_SECRET")
		if secret == "" {
			log.Println("ERROR: CRON_SECRET not set")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server configuration error",
			})
		}

		if c.Get("Authorization") != "Bearer "+secret {
			log.Printf("Unauthorized cron request: %s from %s", c.Path(), c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}

		return c.Next()
	}
}
