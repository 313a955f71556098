package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"kermittech/cv-screener/internal/services"
)

// HandleHealth handles GET /health
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// HandleJobCategories handles GET /job-categories
func HandleJobCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"job_categories": services.JobCategories,
	})
}
