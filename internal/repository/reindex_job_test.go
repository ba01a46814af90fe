//go:build integration

package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReindexJobRepository_EnqueueAndClaim(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	docs := NewDocumentRepository(pool, domain.NewEmbeddingWidth(testWidth))
	repo := NewReindexJobRepository(pool)

	createDocument(ctx, t, docs, "one", nil)
	createDocument(ctx, t, docs, "two", nil)

	queued, err := repo.EnqueueAll(ctx, 1024)
	require.NoError(t, err)
	assert.Equal(t, int64(2), queued)

	claimed, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	for _, job := range claimed {
		assert.Equal(t, domain.ReindexJobStatusProcessing, job.Status)
		assert.Equal(t, 1024, job.TargetWidth)
	}

	again, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestReindexJobRepository_ConcurrentClaimsDoNotOverlap(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	docs := NewDocumentRepository(pool, domain.NewEmbeddingWidth(testWidth))
	repo := NewReindexJobRepository(pool)

	for i := 0; i < 6; i++ {
		createDocument(ctx, t, docs, "doc", nil)
	}
	_, err := repo.EnqueueAll(ctx, testWidth)
	require.NoError(t, err)

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			jobs, err := repo.ClaimPending(ctx, 2)
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			for _, job := range jobs {
				seen[job.ID]++
			}
		}()
	}
	wg.Wait()

	for id, n := range seen {
		assert.Equal(t, 1, n, "job %s claimed more than once", id)
	}
}

func TestReindexJobRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	docs := NewDocumentRepository(pool, domain.NewEmbeddingWidth(testWidth))
	repo := NewReindexJobRepository(pool)

	doc := createDocument(ctx, t, docs, "one", nil)
	_, err := repo.EnqueueAll(ctx, testWidth)
	require.NoError(t, err)
	claimed, err := repo.ClaimPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, doc.ID, claimed[0].DocumentID)

	require.NoError(t, repo.IncrementRetries(ctx, claimed[0].ID))
	require.NoError(t, repo.UpdateStatus(ctx, claimed[0].ID, domain.ReindexJobStatusFailed, "embedding service down"))

	job, err := repo.GetByID(ctx, claimed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReindexJobStatusFailed, job.Status)
	assert.Equal(t, "embedding service down", job.Error)
	assert.Equal(t, int32(1), job.Retries)
	assert.NotNil(t, job.ProcessedAt)
}

func TestReindexJobRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	docs := NewDocumentRepository(pool, domain.NewEmbeddingWidth(testWidth))
	repo := NewReindexJobRepository(pool)

	doc := createDocument(ctx, t, docs, "one", nil)
	job := domain.NewReindexJob(uuid.NewString(), doc.ID, 1536, domain.ReindexJobStatusPending, 0, "",
		time.Now().UTC().Truncate(time.Microsecond), nil)
	require.NoError(t, repo.Create(ctx, job))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.DocumentID)
	assert.Equal(t, 1536, got.TargetWidth)
	assert.Nil(t, got.ProcessedAt)

	pages := NewPageRepository(pool, domain.NewEmbeddingWidth(testWidth))
	require.NoError(t, pages.Upsert(ctx, testPage(8, "Orb", nil, nil)))
	pageJob := domain.NewPageReindexJob(uuid.NewString(), 8, 1536, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, pageJob))
	gotPage, err := repo.GetByID(ctx, pageJob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), gotPage.PageID)
	assert.Empty(t, gotPage.DocumentID)

	invalid := domain.NewReindexJob(uuid.NewString(), doc.ID, 0, domain.ReindexJobStatusPending, 0, "", time.Now(), nil)
	var domainErr *domain.DomainError
	require.ErrorAs(t, repo.Create(ctx, invalid), &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
}

func TestReindexJobRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(ctx, t)
	repo := NewReindexJobRepository(pool)

	_, err := repo.GetByID(ctx, uuid.NewString())
	assert.True(t, errors.Is(err, ErrReindexJobNotFound))

	err = repo.UpdateStatus(ctx, uuid.NewString(), domain.ReindexJobStatusCompleted, "")
	assert.True(t, errors.Is(err, ErrReindexJobNotFound))
}
