package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// embeddingTables lists every table carrying an embedding column of the
// configured width.
var embeddingTables = []string{"documents", "chunks", "pages"}

// schemaLockKey serializes width changes across processes sharing a database.
const schemaLockKey = 7_345_001

// SchemaRepository inspects and alters the width of the embedding columns.
type SchemaRepository struct {
	pool *pgxpool.Pool
}

func NewSchemaRepository(pool *pgxpool.Pool) *SchemaRepository {
	return &SchemaRepository{pool: pool}
}

// EmbeddingWidth returns the declared width of chunks.embedding.
func (r *SchemaRepository) EmbeddingWidth(ctx context.Context) (int, error) {
	return columnWidth(ctx, r.pool, "chunks")
}

// AlterEmbeddingWidth changes every embedding column to vector(width).
// Existing vectors cannot be cast to the new width and are cleared; they
// come back through re-indexing. Columns already at width are left alone.
// It reports whether any column was altered.
func (r *SchemaRepository) AlterEmbeddingWidth(ctx context.Context, width int) (bool, error) {
	if width <= 0 {
		return false, fmt.Errorf("invalid embedding width %d", width)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockKey); err != nil {
		return false, fmt.Errorf("failed to lock schema: %w", err)
	}

	altered := false
	for _, table := range embeddingTables {
		current, err := columnWidth(ctx, tx, table)
		if err != nil {
			return false, err
		}
		if current == width {
			continue
		}
		stmt := fmt.Sprintf(
			`ALTER TABLE %s ALTER COLUMN embedding TYPE vector(%d) USING NULL::vector(%d)`,
			pgx.Identifier{table}.Sanitize(), width, width,
		)
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return false, fmt.Errorf("failed to alter %s.embedding: %w", table, err)
		}
		altered = true
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return altered, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// columnWidth reads the vector dimension from the column's type modifier.
func columnWidth(ctx context.Context, q rowQuerier, table string) (int, error) {
	var typmod int
	err := q.QueryRow(ctx,
		`SELECT a.atttypmod
		 FROM pg_attribute a
		 WHERE a.attrelid = to_regclass($1) AND a.attname = 'embedding' AND NOT a.attisdropped`,
		table,
	).Scan(&typmod)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s.embedding width: %w", table, err)
	}
	return typmod, nil
}
