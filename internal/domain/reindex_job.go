package domain

import (
	"fmt"
	"time"
)

// ReindexJobStatus represents the status of a reindex job
type ReindexJobStatus string

const (
	ReindexJobStatusPending    ReindexJobStatus = "pending"
	ReindexJobStatusProcessing ReindexJobStatus = "processing"
	ReindexJobStatusCompleted  ReindexJobStatus = "completed"
	ReindexJobStatusFailed     ReindexJobStatus = "failed"
)

// ReindexJob restores the vectors of one document or one page after the
// stored vector width changed underneath it. Exactly one of DocumentID and
// PageID is set.
type ReindexJob struct {
	ID          string
	DocumentID  string
	PageID      int64
	TargetWidth int
	Status      ReindexJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewReindexJob creates a new ReindexJob instance
func NewReindexJob(
	id, documentID string,
	targetWidth int,
	status ReindexJobStatus,
	retries int32,
	errMsg string,
	createdAt time.Time,
	processedAt *time.Time,
) *ReindexJob {
	return &ReindexJob{
		ID:          id,
		DocumentID:  documentID,
		TargetWidth: targetWidth,
		Status:      status,
		Retries:     retries,
		Error:       errMsg,
		CreatedAt:   createdAt,
		ProcessedAt: processedAt,
	}
}

// NewPageReindexJob creates a pending job that re-embeds one page.
func NewPageReindexJob(id string, pageID int64, targetWidth int, createdAt time.Time) *ReindexJob {
	return &ReindexJob{
		ID:          id,
		PageID:      pageID,
		TargetWidth: targetWidth,
		Status:      ReindexJobStatusPending,
		CreatedAt:   createdAt,
	}
}

// IsPage reports whether the job targets a page rather than a document.
func (j *ReindexJob) IsPage() bool {
	return j.PageID != 0
}

// ValidateReindexJob validates a ReindexJob instance
func ValidateReindexJob(j *ReindexJob) error {
	if j == nil {
		return fmt.Errorf("reindex job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("reindex job ID is required")
	}

	if j.DocumentID == "" && j.PageID == 0 {
		return fmt.Errorf("reindex job DocumentID or PageID is required")
	}

	if j.DocumentID != "" && j.PageID != 0 {
		return fmt.Errorf("reindex job cannot target both DocumentID and PageID")
	}

	if j.PageID < 0 {
		return fmt.Errorf("reindex job PageID must be positive")
	}

	if j.TargetWidth <= 0 {
		return fmt.Errorf("reindex job TargetWidth must be positive")
	}

	if !isValidReindexJobStatus(j.Status) {
		return fmt.Errorf("reindex job Status is invalid: %s", j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("reindex job Retries cannot be negative")
	}

	return nil
}

// isValidReindexJobStatus checks if a ReindexJobStatus is valid
func isValidReindexJobStatus(s ReindexJobStatus) bool {
	switch s {
	case ReindexJobStatusPending, ReindexJobStatusProcessing,
		ReindexJobStatusCompleted, ReindexJobStatusFailed:
		return true
	}
	return false
}
