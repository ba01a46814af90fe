package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/metrics"
	"github.com/cloo-solutions/docrag/internal/pagination"
	"github.com/cloo-solutions/docrag/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type DocumentRepository struct {
	db    dbtx
	width *domain.EmbeddingWidth
}

func NewDocumentRepository(pool *pgxpool.Pool, width *domain.EmbeddingWidth) *DocumentRepository {
	return &DocumentRepository{db: pool, width: width}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx, width *domain.EmbeddingWidth) *DocumentRepository {
	return &DocumentRepository{db: tx, width: width}
}

func (r *DocumentRepository) Create(ctx context.Context, d *domain.Document) error {
	if err := domain.ValidateDocument(d); err != nil {
		return domain.NewValidationError(err.Error())
	}
	var embedding *pgvector.Vector
	if d.Embedding != nil {
		if err := r.width.Check(d.Embedding); err != nil {
			return err
		}
		v := pgvector.NewVector(d.Embedding)
		embedding = &v
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (id, title, filename, mime_type, created_at, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		d.ID, d.Title, d.Filename, d.MimeType, d.CreatedAt, embedding,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var d domain.Document
	var embedding *pgvector.Vector
	err := r.db.QueryRow(ctx,
		`SELECT id, title, filename, mime_type, created_at, embedding
		 FROM documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Title, &d.Filename, &d.MimeType, &d.CreatedAt, &embedding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	if embedding != nil {
		d.Embedding = embedding.Slice()
	}
	return &d, nil
}

func (r *DocumentRepository) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*service.DocumentPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, title, filename, mime_type, created_at
			 FROM documents
			 WHERE (created_at, id) < ($1, $2)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, title, filename, mime_type, created_at
			 FROM documents
			 ORDER BY created_at DESC, id DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Filename, &d.MimeType, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(lastItem.ID, lastItem.CreatedAt)
	}

	return &service.DocumentPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// ListIDs returns the id of every stored document, oldest first.
func (r *DocumentRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM documents ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// SetEmbedding stores the document-level vector.
func (r *DocumentRepository) SetEmbedding(ctx context.Context, id string, embedding []float32) error {
	if err := r.width.Check(embedding); err != nil {
		return err
	}
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents SET embedding = $1 WHERE id = $2`,
		pgvector.NewVector(embedding), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// Delete removes a document; its chunks cascade.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// NearestDocuments ranks other documents by cosine distance to the stored
// vector of id. Documents without a vector are skipped, and a source
// document without a vector yields no results.
func (r *DocumentRepository) NearestDocuments(ctx context.Context, id string, k int) ([]domain.SimilarDocument, error) {
	if k <= 0 {
		return nil, domain.NewValidationError("k must be positive")
	}
	start := time.Now()
	defer func() {
		metrics.RetrievalDuration.WithLabelValues("documents").Observe(time.Since(start).Seconds())
	}()

	var hasEmbedding bool
	err := r.db.QueryRow(ctx,
		`SELECT embedding IS NOT NULL FROM documents WHERE id = $1`,
		id,
	).Scan(&hasEmbedding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	if !hasEmbedding {
		return []domain.SimilarDocument{}, nil
	}

	rows, err := r.db.Query(ctx,
		`WITH q AS (
			 SELECT embedding AS qvec FROM documents WHERE id = $1
		 )
		 SELECT d.id, d.title, d.filename, d.embedding <=> (SELECT qvec FROM q) AS distance
		 FROM documents d
		 WHERE d.id <> $1 AND d.embedding IS NOT NULL
		 ORDER BY d.embedding <=> (SELECT qvec FROM q)
		 LIMIT $2`,
		id, k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.SimilarDocument, 0, k)
	for rows.Next() {
		var s domain.SimilarDocument
		if err := rows.Scan(&s.ID, &s.Title, &s.Filename, &s.Distance); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
