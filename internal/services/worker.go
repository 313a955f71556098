package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kermittech/cv-screener/internal/repositories"
)

const (
	defaultQueueSize    = 100
	pendingPollInterval = 10 * time.Second
	pendingPollLimit    = 10
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(screeningID uuid.UUID)
}

type worker struct {
	screeningRepo    repositories.ScreeningRepository
	screeningService ScreeningService
	jobQueue         chan uuid.UUID
	concurrency      int
	pollInterval     time.Duration
	wg               sync.WaitGroup
	stopChan         chan struct{}
	stopOnce         sync.Once
	log              *zap.Logger
}

func NewWorker(
	screeningRepo repositories.ScreeningRepository,
	screeningService ScreeningService,
	concurrency int,
	log *zap.Logger,
) Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &worker{
		screeningRepo:    screeningRepo,
		screeningService: screeningService,
		jobQueue:         make(chan uuid.UUID, defaultQueueSize),
		concurrency:      concurrency,
		pollInterval:     pendingPollInterval,
		stopChan:         make(chan struct{}),
		log:              log,
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.log.Info("🚀 Starting worker", zap.Int("concurrency", w.concurrency))

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.wg.Add(1)
	go w.pollPendingJobs(ctx)

	w.log.Info("✅ Worker started successfully")
}

// Stop implements Worker. In-flight jobs finish before Stop returns.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.log.Info("🛑 Stopping worker...")
		close(w.stopChan)
		w.wg.Wait()
		w.log.Info("✅ Worker stopped")
	})
}

// EnqueueJob implements Worker. It never blocks: when the queue is full the
// job stays queued in the database and the poller picks it up.
func (w *worker) EnqueueJob(screeningID uuid.UUID) {
	select {
	case <-w.stopChan:
		w.log.Warn("⚠️ Worker stopped, cannot enqueue job", zap.String("screening_id", screeningID.String()))
		return
	default:
	}

	select {
	case w.jobQueue <- screeningID:
		w.log.Debug("📥 Job enqueued", zap.String("screening_id", screeningID.String()))
	default:
		w.log.Warn("⚠️ Job queue full, leaving job to the poller", zap.String("screening_id", screeningID.String()))
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			w.log.Debug("👷 Worker stopped", zap.Int("worker", workerID))
			return
		case <-ctx.Done():
			return
		case screeningID := <-w.jobQueue:
			w.log.Info("👷 Processing job",
				zap.Int("worker", workerID),
				zap.String("screening_id", screeningID.String()),
			)
			// Failures are already persisted and logged per stage; one job
			// never stops the loop.
			if err := w.screeningService.ProcessScreening(ctx, screeningID); err != nil {
				w.log.Warn("❌ Job failed",
					zap.Int("worker", workerID),
					zap.String("screening_id", screeningID.String()),
					zap.String("error_kind", string(KindOf(err))),
				)
			}
		}
	}
}

func (w *worker) pollPendingJobs(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			w.log.Debug("🔄 Pending jobs poller stopped")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pendingJobs, err := w.screeningRepo.FindPendingJobs(ctx, pendingPollLimit)
			if err != nil {
				w.log.Warn("⚠️ Failed to fetch pending jobs", zap.Error(err))
				continue
			}

			if len(pendingJobs) > 0 {
				w.log.Info("📋 Found pending jobs", zap.Int("count", len(pendingJobs)))
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
