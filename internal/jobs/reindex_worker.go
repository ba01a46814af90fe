package jobs

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/logging"
	"github.com/cloo-solutions/docrag/internal/metrics"
	"go.uber.org/zap"
)

const (
	// MaxRetries is the maximum number of attempts for a reindex job
	MaxRetries = 3

	defaultBatchSize = 20
)

// ReindexJobRepository defines the interface for reindex job persistence
type ReindexJobRepository interface {
	// ClaimPending marks up to limit pending jobs as processing and returns them
	ClaimPending(ctx context.Context, limit int) ([]*domain.ReindexJob, error)

	UpdateStatus(ctx context.Context, id string, status domain.ReindexJobStatus, errMsg string) error

	IncrementRetries(ctx context.Context, id string) error
}

// DocumentReindexer re-embeds one stored document
type DocumentReindexer interface {
	ReindexDocument(ctx context.Context, documentID string) error
}

// PageReindexer re-embeds one stored wiki page
type PageReindexer interface {
	ReindexPage(ctx context.Context, pageID int64) error
}

// ReindexWorker restores vectors cleared by an embedding width change
type ReindexWorker struct {
	repo      ReindexJobRepository
	documents DocumentReindexer
	pages     PageReindexer
	batchSize int
	logger    *zap.Logger
}

// NewReindexWorker creates a new ReindexWorker instance
func NewReindexWorker(repo ReindexJobRepository, documents DocumentReindexer, pages PageReindexer, logger *zap.Logger) *ReindexWorker {
	return &ReindexWorker{
		repo:      repo,
		documents: documents,
		pages:     pages,
		batchSize: defaultBatchSize,
		logger:    logging.OrNop(logger),
	}
}

// ProcessJobs claims one batch of pending jobs and re-embeds their
// documents or pages. A full batch means more jobs may be waiting.
func (w *ReindexWorker) ProcessJobs(ctx context.Context) (int, bool, error) {
	jobs, err := w.repo.ClaimPending(ctx, w.batchSize)
	if err != nil {
		return 0, false, fmt.Errorf("failed to fetch pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return 0, false, nil
	}

	w.logger.Info("processing reindex jobs", zap.Int("count", len(jobs)))

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		if err := w.processJob(ctx, job); err != nil {
			w.logger.Error("error processing reindex job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}

	return len(jobs), len(jobs) == w.batchSize, nil
}

func (w *ReindexWorker) processJob(ctx context.Context, job *domain.ReindexJob) error {
	if err := w.reindex(ctx, job); err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.ReindexJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	metrics.ReindexJobs.WithLabelValues("completed").Inc()
	w.logger.Debug("reindex job completed",
		zap.String("job_id", job.ID),
		zap.String("document_id", job.DocumentID),
		zap.Int64("page_id", job.PageID),
	)
	return nil
}

func (w *ReindexWorker) reindex(ctx context.Context, job *domain.ReindexJob) error {
	if !job.IsPage() {
		return w.documents.ReindexDocument(ctx, job.DocumentID)
	}
	if w.pages == nil {
		return fmt.Errorf("no page reindexer configured for page %d", job.PageID)
	}
	return w.pages.ReindexPage(ctx, job.PageID)
}

// handleJobFailure returns the job to the queue until MaxRetries is reached
func (w *ReindexWorker) handleJobFailure(ctx context.Context, job *domain.ReindexJob, jobErr error) error {
	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	attempt := job.Retries + 1
	if attempt >= MaxRetries {
		w.logger.Warn("reindex job exceeded max retries",
			zap.String("job_id", job.ID),
			zap.Int("max_retries", MaxRetries),
			zap.Error(jobErr),
		)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.ReindexJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		metrics.ReindexJobs.WithLabelValues("failed").Inc()
		return nil
	}

	w.logger.Info("reindex job will be retried",
		zap.String("job_id", job.ID),
		zap.Int32("attempt", attempt),
		zap.Error(jobErr),
	)
	errMsg := fmt.Sprintf("retry %d: %v", attempt, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.ReindexJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}
	metrics.ReindexJobs.WithLabelValues("retried").Inc()
	return nil
}
