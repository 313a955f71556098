package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kermittech/cv-screener/internal/models"
)

type ScreeningRepository interface {
	Create(ctx context.Context, screening *models.Screening) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Screening, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ScreeningStatus) error
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateResult(ctx context.Context, id uuid.UUID, result *ScreeningResultData) error
	UpdateError(ctx context.Context, id uuid.UUID, failure *ScreeningFailure) error
	FindPendingJobs(ctx context.Context, limit int) ([]models.Screening, error)
}

// ScreeningResultData is written once, when a screening completes.
type ScreeningResultData struct {
	Candidate  *models.CandidateRecord
	Audio      *models.AudioRecord
	ReportPath *string
}

type ScreeningFailure struct {
	Kind    string
	Stage   string
	Message string
}

type screeningRepository struct {
	db *gorm.DB
}

func NewScreeningRepository(db *gorm.DB) ScreeningRepository {
	return &screeningRepository{db: db}
}

func (r *screeningRepository) Create(ctx context.Context, screening *models.Screening) error {
	if err := r.db.WithContext(ctx).Create(screening).Error; err != nil {
		return fmt.Errorf("failed to create screening: %w", err)
	}
	return nil
}

func (r *screeningRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Screening, error) {
	var screening models.Screening
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&screening).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("screening %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find screening: %w", err)
	}
	return &screening, nil
}

func (r *screeningRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ScreeningStatus) error {
	return r.update(ctx, id, map[string]interface{}{
		"status": status,
	})
}

// Claim moves a queued screening to processing. It reports false when the
// row was already claimed by another worker.
func (r *screeningRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Screening{}).
		Where("id = ? AND status = ?", id, models.StatusQueued).
		Updates(map[string]interface{}{
			"status":     models.StatusProcessing,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim screening: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *screeningRepository) UpdateResult(ctx context.Context, id uuid.UUID, data *ScreeningResultData) error {
	// Map updates bypass the field serializer, so the records go through
	// a struct-based Updates with an explicit Select.
	row := models.Screening{
		Status:     models.StatusCompleted,
		Candidate:  data.Candidate,
		Audio:      data.Audio,
		ReportPath: data.ReportPath,
		UpdatedAt:  time.Now(),
	}

	result := r.db.WithContext(ctx).Model(&models.Screening{}).
		Where("id = ?", id).
		Select("status", "candidate", "audio", "report_path", "updated_at").
		Updates(&row)
	if result.Error != nil {
		return fmt.Errorf("failed to update result: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("screening %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *screeningRepository) UpdateError(ctx context.Context, id uuid.UUID, failure *ScreeningFailure) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":        models.StatusFailed,
		"error_kind":    failure.Kind,
		"error_stage":   failure.Stage,
		"error_message": failure.Message,
	})
}

func (r *screeningRepository) FindPendingJobs(ctx context.Context, limit int) ([]models.Screening, error) {
	var screenings []models.Screening
	err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&screenings).Error

	if err != nil {
		return nil, fmt.Errorf("failed to find pending jobs: %w", err)
	}

	return screenings, nil
}

func (r *screeningRepository) update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(&models.Screening{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update screening: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("screening %s: %w", id, ErrNotFound)
	}

	return nil
}
