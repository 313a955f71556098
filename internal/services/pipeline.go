package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"kermittech/cv-screener/internal/models"
)

const cvExcerptLen = 100

// CVInput identifies one CV to screen.
type CVInput struct {
	DocumentID  string
	Path        string
	JobCategory string
}

// AudioInput identifies one interview recording to screen.
type AudioInput struct {
	DocumentID  string
	Path        string
	MimeType    string
	JobCategory string
}

// Transcriber turns interview audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// GuidelineRetriever returns role guidelines to include in the prompt.
type GuidelineRetriever interface {
	Retrieve(ctx context.Context, category string) (string, error)
}

// Screener runs the full pipeline for one document: extract, prompt,
// generate, normalize, validate and aggregate.
type Screener interface {
	ScreenCV(ctx context.Context, in CVInput) (*models.CandidateRecord, error)
	ScreenAudio(ctx context.Context, in AudioInput) (*models.AudioRecord, error)
}

type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
}

// Delay returns the wait before retry number attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.InitialDelay * time.Duration(1<<(attempt-1))
}

type ScreenerDeps struct {
	Generator   Generator
	Extractor   TextExtractor
	Transcriber Transcriber
	Guidelines  GuidelineRetriever
	Normalizer  ResponseNormalizer
	Validator   SchemaValidator
	Prompts     *PromptBuilder
	Cache       ResultCache
	Metrics     *Metrics
	Retry       RetryPolicy
	Log         *zap.Logger
}

type screener struct {
	ScreenerDeps
	sleep func(ctx context.Context, d time.Duration) error
}

func NewScreener(deps ScreenerDeps) (Screener, error) {
	if deps.Generator == nil {
		return nil, errors.New("screener requires a generator")
	}
	if deps.Extractor == nil {
		deps.Extractor = NewTextExtractor()
	}
	if deps.Normalizer == nil {
		deps.Normalizer = NewResponseNormalizer()
	}
	if deps.Validator == nil {
		v, err := NewSchemaValidator()
		if err != nil {
			return nil, err
		}
		deps.Validator = v
	}
	if deps.Prompts == nil {
		deps.Prompts = NewPromptBuilder(DefaultExcerptBudget)
	}
	if deps.Cache == nil {
		deps.Cache = NewNoopResultCache()
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &screener{ScreenerDeps: deps, sleep: sleepContext}, nil
}

// ScreenCV implements Screener.
func (s *screener) ScreenCV(ctx context.Context, in CVInput) (*models.CandidateRecord, error) {
	text, err := s.Extractor.ExtractText(in.Path)
	if err != nil {
		return nil, s.fail(SchemaCV, in.DocumentID, StageExtract, err)
	}

	prompt := s.buildPrompt(ctx, CVTemplate, in.JobCategory, text)
	key := CacheKey(SchemaCV, s.Generator.Model(), prompt)

	var cached models.CandidateRecord
	if s.cached(ctx, key, &cached) {
		cached.DocumentID = in.DocumentID
		s.Metrics.Screenings.WithLabelValues(string(SchemaCV), "cached").Inc()
		return &cached, nil
	}

	validated, err := s.run(ctx, SchemaCV, in.DocumentID, prompt)
	if err != nil {
		return nil, err
	}

	record := Aggregate(validated)
	record.DocumentID = in.DocumentID
	record.JobCategory = in.JobCategory
	record.CVExcerpt = cvExcerpt(text)

	s.store(ctx, key, record)
	s.Metrics.Screenings.WithLabelValues(string(SchemaCV), "completed").Inc()
	s.Log.Info("✅ CV screened",
		zap.String("document_id", in.DocumentID),
		zap.Float64("average_score", record.AverageScore),
		zap.Int("warnings", len(record.Warnings)),
	)
	return &record, nil
}

// ScreenAudio implements Screener.
func (s *screener) ScreenAudio(ctx context.Context, in AudioInput) (*models.AudioRecord, error) {
	if s.Transcriber == nil {
		return nil, s.fail(SchemaAudio, in.DocumentID, StageTranscribe, errors.New("audio transcription is not configured"))
	}

	audio, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, s.fail(SchemaAudio, in.DocumentID, StageExtract, &ExtractionError{
			Kind: KindExtractionError,
			Path: in.Path,
			Err:  err,
		})
	}

	transcript, err := s.Transcriber.Transcribe(ctx, audio, in.MimeType)
	if err == nil && strings.TrimSpace(transcript) == "" {
		err = ErrEmptyTranscript
	}
	if err != nil {
		return nil, s.fail(SchemaAudio, in.DocumentID, StageTranscribe, err)
	}

	prompt := s.Prompts.BuildPrompt(AudioTemplate, in.JobCategory, transcript)
	key := CacheKey(SchemaAudio, s.Generator.Model(), prompt)

	var cached models.AudioRecord
	if s.cached(ctx, key, &cached) {
		cached.DocumentID = in.DocumentID
		s.Metrics.Screenings.WithLabelValues(string(SchemaAudio), "cached").Inc()
		return &cached, nil
	}

	validated, err := s.run(ctx, SchemaAudio, in.DocumentID, prompt)
	if err != nil {
		return nil, err
	}

	record := *validated.Audio
	record.DocumentID = in.DocumentID

	s.store(ctx, key, record)
	s.Metrics.Screenings.WithLabelValues(string(SchemaAudio), "completed").Inc()
	s.Log.Info("✅ Interview audio screened", zap.String("document_id", in.DocumentID))
	return &record, nil
}

// run performs generate, normalize and validate for one prompt.
func (s *screener) run(ctx context.Context, kind SchemaKind, docID, prompt string) (*ValidatedRecord, error) {
	raw, err := s.generateWithRetry(ctx, docID, prompt)
	if err != nil {
		return nil, s.fail(kind, docID, StageGenerate, err)
	}

	mapping, err := s.Normalizer.Normalize(raw)
	if err != nil {
		return nil, s.fail(kind, docID, StageNormalize, err)
	}

	validated, err := s.Validator.Validate(mapping, kind)
	if err != nil {
		return nil, s.fail(kind, docID, StageValidate, err)
	}

	for _, w := range validated.Warnings {
		s.Log.Warn("⚠️ Score out of range", zap.String("document_id", docID), zap.String("warning", w))
	}
	return validated, nil
}

// generateWithRetry retries endpoint failures only, with exponential backoff.
// Malformed output and schema violations are returned on first occurrence.
func (s *screener) generateWithRetry(ctx context.Context, docID, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= s.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.Retry.Delay(attempt)
			s.Metrics.ModelRetries.Inc()
			s.Log.Warn("🔁 Retrying generation",
				zap.String("document_id", docID),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if err := s.sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		start := time.Now()
		raw, err := s.Generator.Generate(ctx, prompt)
		s.Metrics.ModelCall.Observe(time.Since(start).Seconds())
		if err == nil {
			return raw, nil
		}

		lastErr = err
		if !IsRetryable(err) {
			return "", err
		}
	}

	return "", lastErr
}

func (s *screener) buildPrompt(ctx context.Context, template, category, text string) string {
	if s.Guidelines == nil {
		return s.Prompts.BuildPrompt(template, category, text)
	}

	guidelines, err := s.Guidelines.Retrieve(ctx, category)
	if err != nil {
		s.Log.Warn("⚠️ Failed to retrieve role guidelines", zap.String("job_category", category), zap.Error(err))
		return s.Prompts.BuildPrompt(template, category, text)
	}
	return s.Prompts.BuildPromptWithGuidelines(template, category, guidelines, text)
}

func (s *screener) cached(ctx context.Context, key string, out any) bool {
	hit, err := s.Cache.Get(ctx, key, out)
	if err != nil {
		s.Log.Warn("⚠️ Result cache read failed", zap.Error(err))
		return false
	}
	if hit {
		s.Metrics.CacheHits.Inc()
	}
	return hit
}

func (s *screener) store(ctx context.Context, key string, record any) {
	if err := s.Cache.Set(ctx, key, record); err != nil {
		s.Log.Warn("⚠️ Result cache write failed", zap.Error(err))
	}
}

// fail tags err with its stage, records it, and emits the single failure
// event for this document.
func (s *screener) fail(kind SchemaKind, docID, stage string, err error) error {
	errKind := KindOf(err)
	s.Metrics.StageFailures.WithLabelValues(stage, string(errKind)).Inc()
	s.Metrics.Screenings.WithLabelValues(string(kind), "failed").Inc()
	s.Log.Error("❌ Screening failed",
		zap.String("document_id", docID),
		zap.String("stage", stage),
		zap.String("error_kind", string(errKind)),
		zap.Error(err),
	)
	return &StageError{DocumentID: docID, Stage: stage, Err: err}
}

func cvExcerpt(text string) string {
	return truncateRunes(text, cvExcerptLen) + "..."
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait interrupted: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
