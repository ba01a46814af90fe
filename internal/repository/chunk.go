package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository handles persistence and nearest neighbour search of
// document chunks.
type ChunkRepository struct {
	db    dbtx
	width *domain.EmbeddingWidth
}

func NewChunkRepository(pool *pgxpool.Pool, width *domain.EmbeddingWidth) *ChunkRepository {
	return &ChunkRepository{db: pool, width: width}
}

func NewChunkRepositoryWithTx(tx pgx.Tx, width *domain.EmbeddingWidth) *ChunkRepository {
	return &ChunkRepository{db: tx, width: width}
}

// InsertChunks stores the chunks of one document. Indices must run 0..n-1
// and every vector must match the configured width; nothing is written
// otherwise.
func (r *ChunkRepository) InsertChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	if err := domain.ValidateChunks(chunks); err != nil {
		return domain.NewValidationError(err.Error())
	}
	for _, c := range chunks {
		if c.DocumentID != documentID {
			return domain.NewValidationError(fmt.Sprintf("chunk %d belongs to document %s, expected %s", c.ChunkIndex, c.DocumentID, documentID))
		}
		if err := r.width.Check(c.Embedding); err != nil {
			return err
		}
	}
	if len(chunks) == 0 {
		return nil
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, c := range chunks {
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		batch.Queue(
			`INSERT INTO chunks (id, document_id, chunk_index, content, embedding, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id, documentID, c.ChunkIndex, c.Content, pgvector.NewVector(c.Embedding), createdAt,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	for range chunks {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	return results.Close()
}

// ListByDocument returns a document's chunks in index order.
func (r *ChunkRepository) ListByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, chunk_index, content, embedding, created_at
		 FROM chunks
		 WHERE document_id = $1
		 ORDER BY chunk_index ASC`,
		documentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var embedding *pgvector.Vector
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.Content, &embedding, &c.CreatedAt); err != nil {
			return nil, err
		}
		if embedding != nil {
			c.Embedding = embedding.Slice()
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// UpdateEmbedding replaces the vector of one chunk.
func (r *ChunkRepository) UpdateEmbedding(ctx context.Context, chunkID string, embedding []float32) error {
	if err := r.width.Check(embedding); err != nil {
		return err
	}
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE chunks SET embedding = $1 WHERE id = $2`,
		pgvector.NewVector(embedding), chunkID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.NewDomainError(domain.ErrCodeNotFound, "chunk not found")
	}
	return nil
}

// NearestChunks returns up to k chunks ordered by ascending cosine distance
// to query. A non-empty documentID restricts the search to that document.
// Ties are returned in whatever order the index yields them.
func (r *ChunkRepository) NearestChunks(ctx context.Context, query []float32, k int, documentID string) ([]domain.RetrievalHit, error) {
	if err := r.width.Check(query); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, domain.NewValidationError("k must be positive")
	}
	start := time.Now()
	defer func() {
		metrics.RetrievalDuration.WithLabelValues("chunks").Observe(time.Since(start).Seconds())
	}()

	rows, err := r.db.Query(ctx,
		`SELECT id, document_id, chunk_index, content, embedding <=> $1 AS distance
		 FROM chunks
		 WHERE embedding IS NOT NULL
		   AND ($3::uuid IS NULL OR document_id = $3::uuid)
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(query), k, nullableString(documentID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := make([]domain.RetrievalHit, 0, k)
	for rows.Next() {
		var h domain.RetrievalHit
		if err := rows.Scan(&h.ChunkID, &h.DocumentID, &h.ChunkIndex, &h.Content, &h.Distance); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
