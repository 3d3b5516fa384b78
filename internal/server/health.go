package server

import (
	"food-dashboard/internal/database"

	"github.com/gofiber/fiber/v2"
)

// GET /healthz loads both tables, so a malformed file reports unhealthy.
func HealthHandler(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		counts := fiber.Map{}
		for _, t := range database.Tables() {
			snap, err := store.Load(t)
			if err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "error",
					"error":  err.Error(),
				})
			}
			counts[string(t)] = snap.Len()
		}
		return c.JSON(fiber.Map{"status": "ok", "rows": counts})
	}
}
