package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrReindexJobNotFound = errors.New("reindex job not found")

const reindexJobColumns = `id, document_id, page_id, target_width, status, retries, error, created_at, processed_at`

type ReindexJobRepository struct {
	db dbtx
}

func NewReindexJobRepository(pool *pgxpool.Pool) *ReindexJobRepository {
	return &ReindexJobRepository{db: pool}
}

// Create stores a single job after validating it.
func (r *ReindexJobRepository) Create(ctx context.Context, job *domain.ReindexJob) error {
	if err := domain.ValidateReindexJob(job); err != nil {
		return domain.NewValidationError(err.Error())
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO reindex_jobs (`+reindexJobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, nullableString(job.DocumentID), nullableInt64(job.PageID), job.TargetWidth, job.Status, job.Retries, nullableString(job.Error), job.CreatedAt, job.ProcessedAt,
	)
	return err
}

// EnqueueAll queues one pending job per stored document and per stored
// page, and returns how many were queued.
func (r *ReindexJobRepository) EnqueueAll(ctx context.Context, targetWidth int) (int64, error) {
	cmdTag, err := r.db.Exec(ctx,
		`INSERT INTO reindex_jobs (id, document_id, page_id, target_width, status, retries, created_at)
		 SELECT gen_random_uuid(), d.id, NULL::bigint, $1, $2, 0, now()
		 FROM documents d
		 UNION ALL
		 SELECT gen_random_uuid(), NULL::uuid, p.page_id, $1, $2, 0, now()
		 FROM pages p`,
		targetWidth, domain.ReindexJobStatusPending,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

func (r *ReindexJobRepository) GetByID(ctx context.Context, id string) (*domain.ReindexJob, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+reindexJobColumns+` FROM reindex_jobs WHERE id = $1`,
		id,
	)
	job, err := scanReindexJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReindexJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// ClaimPending marks up to limit pending jobs as processing and returns
// them, oldest first. Concurrent workers never claim the same job.
func (r *ReindexJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.ReindexJob, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM reindex_jobs
			 WHERE status = $1
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE reindex_jobs
		 SET status = $3,
		     error = NULL,
		     processed_at = NULL
		 FROM cte
		 WHERE reindex_jobs.id = cte.id
		 RETURNING reindex_jobs.id, reindex_jobs.document_id, reindex_jobs.page_id, reindex_jobs.target_width, reindex_jobs.status,
		           reindex_jobs.retries, reindex_jobs.error, reindex_jobs.created_at, reindex_jobs.processed_at`,
		domain.ReindexJobStatusPending, limit, domain.ReindexJobStatusProcessing,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.ReindexJob
	for rows.Next() {
		job, err := scanReindexJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *ReindexJobRepository) UpdateStatus(ctx context.Context, id string, status domain.ReindexJobStatus, errMsg string) error {
	var processedAt *time.Time
	if status == domain.ReindexJobStatusCompleted || status == domain.ReindexJobStatusFailed {
		now := time.Now().UTC()
		processedAt = &now
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE reindex_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, nullableString(errMsg), processedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrReindexJobNotFound
	}
	return nil
}

func (r *ReindexJobRepository) IncrementRetries(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE reindex_jobs SET retries = retries + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrReindexJobNotFound
	}
	return nil
}

func scanReindexJob(row pgx.Row) (*domain.ReindexJob, error) {
	var job domain.ReindexJob
	var documentID *string
	var pageID *int64
	var errMsg pgtype.Text
	if err := row.Scan(&job.ID, &documentID, &pageID, &job.TargetWidth, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt); err != nil {
		return nil, err
	}
	if documentID != nil {
		job.DocumentID = *documentID
	}
	if pageID != nil {
		job.PageID = *pageID
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}
