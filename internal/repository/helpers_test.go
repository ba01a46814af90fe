//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/testutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

const testWidth = domain.DefaultEmbeddingWidth

func setupPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { _ = pc.Terminate(context.Background()) })

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)
	return pool
}

// axis returns a unit vector of the given width pointing along dimension i.
func axis(width, i int) []float32 {
	v := make([]float32, width)
	v[i] = 1
	return v
}

// blend returns a vector of the given width with weight a on dimension 0
// and weight b on dimension 1.
func blend(width int, a, b float32) []float32 {
	v := make([]float32, width)
	v[0] = a
	v[1] = b
	return v
}

func createDocument(ctx context.Context, t *testing.T, repo *DocumentRepository, title string, embedding []float32) *domain.Document {
	doc := &domain.Document{
		ID:        uuid.NewString(),
		Title:     title,
		Filename:  title + ".pdf",
		MimeType:  "application/pdf",
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		Embedding: embedding,
	}
	require.NoError(t, repo.Create(ctx, doc))
	return doc
}
