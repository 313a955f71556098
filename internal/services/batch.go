package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kermittech/cv-screener/internal/models"
)

const failureNameLen = 30

// BatchItem is one CV, optionally paired with an interview recording.
type BatchItem struct {
	DocumentID string
	Filename   string
	Path       string
	Audio      *AudioInput
}

// BatchEntry holds the records produced for one document.
type BatchEntry struct {
	Filename  string
	Candidate *models.CandidateRecord
	Audio     *models.AudioRecord
}

// BatchFailure is a per-document failure. Message is the short form shown to
// operators: the first characters of the file name, then the error.
type BatchFailure struct {
	DocumentID string
	Filename   string
	Kind       ErrorKind
	Stage      string
	Message    string
	Err        error
}

type BatchResult struct {
	Entries  map[string]*BatchEntry
	Failures []BatchFailure
}

// Candidates returns the screened CV records ordered by average score,
// highest first.
func (r *BatchResult) Candidates() []*models.CandidateRecord {
	var out []*models.CandidateRecord
	for _, e := range r.Entries {
		if e.Candidate != nil {
			out = append(out, e.Candidate)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AverageScore == out[j].AverageScore {
			return out[i].DocumentID < out[j].DocumentID
		}
		return out[i].AverageScore > out[j].AverageScore
	})
	return out
}

type BatchRunner struct {
	screener    Screener
	concurrency int
	log         *zap.Logger
}

func NewBatchRunner(screener Screener, concurrency int, log *zap.Logger) *BatchRunner {
	if concurrency <= 0 {
		concurrency = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BatchRunner{screener: screener, concurrency: concurrency, log: log}
}

// Run screens every item on a bounded pool. A failed item never cancels its
// siblings. ErrBatchAborted is returned only when every CV failed because the
// generation endpoint stayed unavailable after retries.
func (b *BatchRunner) Run(ctx context.Context, category string, items []BatchItem) (*BatchResult, error) {
	result := &BatchResult{Entries: make(map[string]*BatchEntry, len(items))}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(b.concurrency)

	endpointFailures := 0

	for _, item := range items {
		item := item
		g.Go(func() error {
			entry := &BatchEntry{Filename: item.Filename}
			var failures []BatchFailure

			record, err := b.screener.ScreenCV(ctx, CVInput{
				DocumentID:  item.DocumentID,
				Path:        item.Path,
				JobCategory: category,
			})
			if err != nil {
				failures = append(failures, newBatchFailure(item, err))
			} else {
				entry.Candidate = record
			}

			if item.Audio != nil && err == nil {
				audioIn := *item.Audio
				audioIn.JobCategory = category
				audio, aerr := b.screener.ScreenAudio(ctx, audioIn)
				if aerr != nil {
					failures = append(failures, newBatchFailure(item, aerr))
				} else {
					entry.Audio = audio
				}
			}

			mu.Lock()
			defer mu.Unlock()
			if entry.Candidate != nil {
				result.Entries[item.DocumentID] = entry
			} else if IsRetryable(err) {
				endpointFailures++
			}
			result.Failures = append(result.Failures, failures...)
			return nil
		})
	}

	_ = g.Wait()

	sort.SliceStable(result.Failures, func(i, j int) bool {
		return result.Failures[i].DocumentID < result.Failures[j].DocumentID
	})

	b.log.Info("📦 Batch finished",
		zap.Int("documents", len(items)),
		zap.Int("screened", len(result.Entries)),
		zap.Int("failures", len(result.Failures)),
	)

	if len(items) > 0 && endpointFailures == len(items) {
		return result, ErrBatchAborted
	}
	return result, nil
}

func newBatchFailure(item BatchItem, err error) BatchFailure {
	return BatchFailure{
		DocumentID: item.DocumentID,
		Filename:   item.Filename,
		Kind:       KindOf(err),
		Stage:      StageOf(err),
		Message:    fmt.Sprintf("%s: %v", truncateRunes(item.Filename, failureNameLen), rootCause(err)),
		Err:        err,
	}
}

// rootCause drops the StageError prefix so the short message shows the
// underlying failure once.
func rootCause(err error) error {
	if se, ok := err.(*StageError); ok {
		return se.Err
	}
	return err
}
