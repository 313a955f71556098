package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"kermittech/cv-screener/internal/models"
	"kermittech/cv-screener/internal/repositories"
	"kermittech/cv-screener/internal/services"
)

type UploadHandler struct {
	docRepo        repositories.DocumentRepository
	storageService services.StorageService
	maxFileSize    int64
	log            *zap.Logger
}

func NewUploadHandler(
	docRepo repositories.DocumentRepository,
	storageService services.StorageService,
	maxFileSize int64,
	log *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		docRepo:        docRepo,
		storageService: storageService,
		maxFileSize:    maxFileSize,
		log:            log,
	}
}

// HandleUpload handles POST /upload. Field "cv" may repeat; "audio" is
// optional and takes one file.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse multipart form",
		})
	}

	var uploads []*multipart.FileHeader
	var kinds []models.DocumentKind
	for _, f := range form.File["cv"] {
		uploads = append(uploads, f)
		kinds = append(kinds, models.DocumentKindCV)
	}
	if audioFiles := form.File["audio"]; len(audioFiles) > 0 {
		uploads = append(uploads, audioFiles[0])
		kinds = append(kinds, models.DocumentKindAudio)
	}

	if len(uploads) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No valid files uploaded. Please upload 'cv' (PDF or DOCX) and optionally 'audio'.",
		})
	}

	for i, file := range uploads {
		if file.Size > h.maxFileSize {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("%s file %q too large. Max size: %d bytes", kinds[i], file.Filename, h.maxFileSize),
			})
		}
		if !services.IsAllowedExtension(file.Filename, kinds[i]) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": fmt.Sprintf("unsupported %s file format: %s", kinds[i], file.Filename),
			})
		}
	}

	responses := make([]models.UploadResponse, 0, len(uploads))
	for i, file := range uploads {
		resp, err := h.saveDocument(c, file, kinds[i])
		if err != nil {
			var extractErr *services.ExtractionError
			if errors.As(err, &extractErr) {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": err.Error(),
				})
			}
			h.log.Error("❌ Failed to store upload", zap.String("filename", file.Filename), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": fmt.Sprintf("failed to save %s file", kinds[i]),
			})
		}
		responses = append(responses, *resp)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":   "Files uploaded successfully",
		"documents": responses,
	})
}

func (h *UploadHandler) saveDocument(c *fiber.Ctx, file *multipart.FileHeader, kind models.DocumentKind) (*models.UploadResponse, error) {
	stored, err := h.storageService.SaveFile(file, kind)
	if err != nil {
		return nil, err
	}

	doc := models.Document{
		ID:               uuid.New(),
		Filename:         stored.Filename,
		OriginalFileName: file.Filename,
		FileType:         kind,
		MimeType:         stored.MimeType,
		FilePath:         stored.Path,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := h.docRepo.Create(c.UserContext(), &doc); err != nil {
		// Cleanup uploaded file if database insert fails
		if derr := h.storageService.DeleteFile(stored.Filename); derr != nil {
			h.log.Warn("⚠️ Failed to remove orphaned upload", zap.String("filename", stored.Filename), zap.Error(derr))
		}
		return nil, err
	}

	return &models.UploadResponse{
		ID:           doc.ID.String(),
		Filename:     doc.Filename,
		OriginalName: doc.OriginalFileName,
		FileType:     string(doc.FileType),
	}, nil
}
