package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kermittech/cv-screener/internal/models"
	"kermittech/cv-screener/internal/repositories"
)

const maxStoredErrorLen = 500

// ScreeningService runs a persisted screening job end to end.
type ScreeningService interface {
	ProcessScreening(ctx context.Context, id uuid.UUID) error
}

type screeningService struct {
	screeningRepo repositories.ScreeningRepository
	docRepo       repositories.DocumentRepository
	screener      Screener
	reports       ReportRenderer
	log           *zap.Logger
}

// NewScreeningService wires the job processor. reports may be nil, in which
// case no PDF is produced.
func NewScreeningService(
	screeningRepo repositories.ScreeningRepository,
	docRepo repositories.DocumentRepository,
	screener Screener,
	reports ReportRenderer,
	log *zap.Logger,
) ScreeningService {
	return &screeningService{
		screeningRepo: screeningRepo,
		docRepo:       docRepo,
		screener:      screener,
		reports:       reports,
		log:           log,
	}
}

func (s *screeningService) ProcessScreening(ctx context.Context, id uuid.UUID) error {
	claimed, err := s.screeningRepo.Claim(ctx, id)
	if err != nil {
		return err
	}
	if !claimed {
		s.log.Debug("⏭️ Screening already claimed", zap.String("screening_id", id.String()))
		return nil
	}

	s.log.Info("🔄 Starting screening", zap.String("screening_id", id.String()))

	screening, err := s.screeningRepo.FindByID(ctx, id)
	if err != nil {
		return s.markFailed(ctx, id, err)
	}

	cvDoc, err := s.docRepo.FindByIDAndKind(ctx, screening.CVDocumentID, models.DocumentKindCV)
	if err != nil {
		return s.markFailed(ctx, id, err)
	}

	candidate, err := s.screener.ScreenCV(ctx, CVInput{
		DocumentID:  cvDoc.ID.String(),
		Path:        cvDoc.FilePath,
		JobCategory: screening.JobCategory,
	})
	if err != nil {
		return s.markFailed(ctx, id, err)
	}

	var audio *models.AudioRecord
	if screening.AudioDocumentID != nil {
		audioDoc, err := s.docRepo.FindByIDAndKind(ctx, *screening.AudioDocumentID, models.DocumentKindAudio)
		if err != nil {
			return s.markFailed(ctx, id, err)
		}
		audio, err = s.screener.ScreenAudio(ctx, AudioInput{
			DocumentID:  audioDoc.ID.String(),
			Path:        audioDoc.FilePath,
			MimeType:    audioDoc.MimeType,
			JobCategory: screening.JobCategory,
		})
		if err != nil {
			return s.markFailed(ctx, id, err)
		}
	}

	var reportPath *string
	if s.reports != nil {
		path, err := s.reports.WriteCandidateReport(ctx, CandidateReport{Candidate: candidate, Audio: audio})
		if err != nil {
			// The records are valid without a PDF; the result endpoint simply
			// reports no download.
			s.log.Warn("⚠️ Report generation failed",
				zap.String("document_id", candidate.DocumentID),
				zap.String("stage", StageReport),
				zap.Error(err),
			)
		} else {
			reportPath = &path
		}
	}

	if err := s.screeningRepo.UpdateResult(ctx, id, &repositories.ScreeningResultData{
		Candidate:  candidate,
		Audio:      audio,
		ReportPath: reportPath,
	}); err != nil {
		// A row left in processing is never polled again, so it must be
		// marked failed here.
		return s.markFailed(ctx, id, &StageError{
			DocumentID: candidate.DocumentID,
			Stage:      StagePersist,
			Err:        fmt.Errorf("failed to save screening result: %w", err),
		})
	}

	s.log.Info("✅ Screening completed",
		zap.String("screening_id", id.String()),
		zap.Float64("average_score", candidate.AverageScore),
	)
	return nil
}

func (s *screeningService) markFailed(ctx context.Context, id uuid.UUID, cause error) error {
	failure := &repositories.ScreeningFailure{
		Kind:    string(KindOf(cause)),
		Stage:   StageOf(cause),
		Message: truncateRunes(cause.Error(), maxStoredErrorLen),
	}
	if err := s.screeningRepo.UpdateError(ctx, id, failure); err != nil {
		s.log.Error("❌ Failed to record screening failure",
			zap.String("screening_id", id.String()),
			zap.Error(err),
		)
	}
	return cause
}
