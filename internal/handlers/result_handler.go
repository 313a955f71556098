package handlers

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"kermittech/cv-screener/internal/models"
	"kermittech/cv-screener/internal/repositories"
)

type ResultHandler struct {
	screeningRepo repositories.ScreeningRepository
}

func NewResultHandler(screeningRepo repositories.ScreeningRepository) *ResultHandler {
	return &ResultHandler{
		screeningRepo: screeningRepo,
	}
}

// HandleGetResult handles GET /result/:id
func (h *ResultHandler) HandleGetResult(c *fiber.Ctx) error {
	screening, err := h.lookup(c)
	if err != nil {
		return err
	}
	if screening == nil {
		return nil
	}

	response := models.ResultResponse{
		ID:          screening.ID.String(),
		Status:      string(screening.Status),
		JobCategory: screening.JobCategory,
	}

	if screening.Status == models.StatusCompleted {
		response.Candidate = screening.Candidate
		response.Audio = screening.Audio
		if screening.ReportPath != nil {
			response.ReportURL = "/api/v1/report/" + screening.ID.String()
		}
	}

	if screening.Status == models.StatusFailed {
		response.Error = &models.ErrorDetail{
			Kind:    deref(screening.ErrorKind),
			Stage:   deref(screening.ErrorStage),
			Message: deref(screening.ErrorMessage),
		}
	}

	return c.JSON(response)
}

// HandleGetReport handles GET /report/:id
func (h *ResultHandler) HandleGetReport(c *fiber.Ctx) error {
	screening, err := h.lookup(c)
	if err != nil {
		return err
	}
	if screening == nil {
		return nil
	}

	if screening.Status != models.StatusCompleted || screening.ReportPath == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Report not available",
		})
	}

	if _, err := os.Stat(*screening.ReportPath); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Report file missing",
		})
	}

	return c.Download(*screening.ReportPath, filepath.Base(*screening.ReportPath))
}

// lookup writes the error response itself and returns a nil screening when
// the request cannot proceed.
func (h *ResultHandler) lookup(c *fiber.Ctx) (*models.Screening, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid screening ID format",
		})
	}

	screening, err := h.screeningRepo.FindByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Screening not found",
			})
		}
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load screening",
		})
	}
	return screening, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
