package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"kermittech/cv-screener/internal/models"
	"kermittech/cv-screener/internal/repositories"
	"kermittech/cv-screener/internal/services"
)

type ScreenHandler struct {
	screeningRepo repositories.ScreeningRepository
	docRepo       repositories.DocumentRepository
	worker        services.Worker
	log           *zap.Logger
}

func NewScreenHandler(
	screeningRepo repositories.ScreeningRepository,
	docRepo repositories.DocumentRepository,
	worker services.Worker,
	log *zap.Logger,
) *ScreenHandler {
	return &ScreenHandler{
		screeningRepo: screeningRepo,
		docRepo:       docRepo,
		worker:        worker,
		log:           log,
	}
}

// HandleScreen handles POST /screen
func (h *ScreenHandler) HandleScreen(c *fiber.Ctx) error {
	var req models.ScreenRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request payload",
		})
	}

	if !services.IsValidJobCategory(req.JobCategory) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":          "job_category must be one of the supported categories",
			"job_categories": services.JobCategories,
		})
	}

	if req.CVDocumentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "cv_document_id is required",
		})
	}

	cvDocID, err := uuid.Parse(req.CVDocumentID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid cv_document_id format",
		})
	}

	if _, err := h.docRepo.FindByIDAndKind(c.UserContext(), cvDocID, models.DocumentKindCV); err != nil {
		return documentLookupError(c, "CV document not found", err)
	}

	var audioDocID *uuid.UUID
	if req.AudioDocumentID != "" {
		id, err := uuid.Parse(req.AudioDocumentID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid audio_document_id format",
			})
		}
		if _, err := h.docRepo.FindByIDAndKind(c.UserContext(), id, models.DocumentKindAudio); err != nil {
			return documentLookupError(c, "Audio document not found", err)
		}
		audioDocID = &id
	}

	screening := &models.Screening{
		ID:              uuid.New(),
		JobCategory:     req.JobCategory,
		CVDocumentID:    cvDocID,
		AudioDocumentID: audioDocID,
		Status:          models.StatusQueued,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	if err := h.screeningRepo.Create(c.UserContext(), screening); err != nil {
		h.log.Error("❌ Failed to create screening", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create screening job",
		})
	}

	h.worker.EnqueueJob(screening.ID)

	return c.Status(fiber.StatusAccepted).JSON(models.ScreenResponse{
		ID:     screening.ID.String(),
		Status: string(models.StatusQueued),
	})
}

func documentLookupError(c *fiber.Ctx, notFound string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": notFound,
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to look up document",
	})
}
