package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PageRepository stores scraped wiki pages and searches them by vector.
type PageRepository struct {
	db    dbtx
	width *domain.EmbeddingWidth
}

func NewPageRepository(pool *pgxpool.Pool, width *domain.EmbeddingWidth) *PageRepository {
	return &PageRepository{db: pool, width: width}
}

// Upsert inserts or replaces a page keyed by PageID. A nil embedding is
// stored as NULL.
func (r *PageRepository) Upsert(ctx context.Context, p *domain.Page) error {
	var embedding *pgvector.Vector
	if p.Embedding != nil {
		if err := r.width.Check(p.Embedding); err != nil {
			return err
		}
		v := pgvector.NewVector(p.Embedding)
		embedding = &v
	}

	fetchedAt := p.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO pages
			(page_id, title, url, summary, revision_id, last_revision_at, image_url, categories, aliases,
			 first_appearance, infobox, sections, outlinks, fetched_at, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (page_id) DO UPDATE SET
			title = EXCLUDED.title,
			url = EXCLUDED.url,
			summary = EXCLUDED.summary,
			revision_id = EXCLUDED.revision_id,
			last_revision_at = EXCLUDED.last_revision_at,
			image_url = EXCLUDED.image_url,
			categories = EXCLUDED.categories,
			aliases = EXCLUDED.aliases,
			first_appearance = EXCLUDED.first_appearance,
			infobox = EXCLUDED.infobox,
			sections = EXCLUDED.sections,
			outlinks = EXCLUDED.outlinks,
			fetched_at = EXCLUDED.fetched_at,
			embedding = EXCLUDED.embedding`,
		p.PageID, p.Title, p.URL, p.Summary, p.RevisionID, p.LastRevisionAt, nullableString(p.ImageURL),
		nonNilStrings(p.Categories), nonNilStrings(p.Aliases), nullableString(p.FirstAppearance),
		p.Infobox, p.Sections, p.Outlinks, fetchedAt, embedding,
	)
	return err
}

func (r *PageRepository) GetByID(ctx context.Context, pageID int64) (*domain.Page, error) {
	var p domain.Page
	var imageURL, firstAppearance *string
	var embedding *pgvector.Vector
	err := r.db.QueryRow(ctx,
		`SELECT page_id, title, url, summary, revision_id, last_revision_at, image_url, categories, aliases,
		        first_appearance, infobox, sections, outlinks, fetched_at, embedding
		 FROM pages WHERE page_id = $1`,
		pageID,
	).Scan(&p.PageID, &p.Title, &p.URL, &p.Summary, &p.RevisionID, &p.LastRevisionAt, &imageURL,
		&p.Categories, &p.Aliases, &firstAppearance, &p.Infobox, &p.Sections, &p.Outlinks, &p.FetchedAt, &embedding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPageNotFound
		}
		return nil, err
	}
	if imageURL != nil {
		p.ImageURL = *imageURL
	}
	if firstAppearance != nil {
		p.FirstAppearance = *firstAppearance
	}
	if embedding != nil {
		p.Embedding = embedding.Slice()
	}
	return &p, nil
}

// SetEmbedding replaces the embedding of a stored page.
func (r *PageRepository) SetEmbedding(ctx context.Context, pageID int64, embedding []float32) error {
	if err := r.width.Check(embedding); err != nil {
		return err
	}
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE pages SET embedding = $1 WHERE page_id = $2`,
		pgvector.NewVector(embedding), pageID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrPageNotFound
	}
	return nil
}

// NearestPages returns up to k embedded pages ordered by ascending cosine
// distance to query. Non-empty categories keep only pages sharing at least
// one of them.
func (r *PageRepository) NearestPages(ctx context.Context, query []float32, k int, categories []string) ([]domain.PageHit, error) {
	if err := r.width.Check(query); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, domain.NewValidationError("k must be positive")
	}
	start := time.Now()
	defer func() {
		metrics.RetrievalDuration.WithLabelValues("pages").Observe(time.Since(start).Seconds())
	}()

	var filter []string
	if len(categories) > 0 {
		filter = categories
	}

	rows, err := r.db.Query(ctx,
		`SELECT page_id, title, summary, url, categories, embedding <=> $1 AS distance
		 FROM pages
		 WHERE embedding IS NOT NULL
		   AND ($3::text[] IS NULL OR categories && $3::text[])
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(query), k, filter,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := make([]domain.PageHit, 0, k)
	for rows.Next() {
		var h domain.PageHit
		if err := rows.Scan(&h.PageID, &h.Title, &h.Summary, &h.URL, &h.Categories, &h.Distance); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
