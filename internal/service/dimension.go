package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/logging"
	"github.com/cloo-solutions/docrag/internal/metrics"
	"go.uber.org/zap"
)

// SchemaAlterer changes the declared width of every embedding column.
type SchemaAlterer interface {
	AlterEmbeddingWidth(ctx context.Context, width int) (bool, error)
}

// ReindexEnqueuer schedules re-embedding of every stored document and page.
type ReindexEnqueuer interface {
	EnqueueAll(ctx context.Context, targetWidth int) (int64, error)
}

// DimensionAdapter reconciles the configured embedding width with the width
// the provider actually returns. The schema is migrated at most once per
// process.
type DimensionAdapter struct {
	mu       sync.Mutex
	width    *domain.EmbeddingWidth
	schema   SchemaAlterer
	reindex  ReindexEnqueuer
	migrated bool
	logger   *zap.Logger
}

// NewDimensionAdapter creates a DimensionAdapter. reindex may be nil, in
// which case cleared vectors are not scheduled for re-embedding.
func NewDimensionAdapter(width *domain.EmbeddingWidth, schema SchemaAlterer, reindex ReindexEnqueuer, logger *zap.Logger) *DimensionAdapter {
	return &DimensionAdapter{
		width:   width,
		schema:  schema,
		reindex: reindex,
		logger:  logging.OrNop(logger),
	}
}

// Observe accepts the width of a freshly produced vector. A width equal to
// the configured one is a no-op. The first differing width alters the
// schema, swaps the configured width and enqueues re-indexing; any later
// differing width fails with a dimension mismatch, as does a width above
// domain.MaxIndexedEmbeddingWidth.
func (a *DimensionAdapter) Observe(ctx context.Context, observed int) error {
	if observed <= 0 {
		return domain.NewValidationError(fmt.Sprintf("invalid embedding width %d", observed))
	}
	if observed == a.width.Get() {
		return nil
	}
	if observed > domain.MaxIndexedEmbeddingWidth {
		return domain.NewWidthTooLargeError(observed)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	current := a.width.Get()
	if observed == current {
		return nil
	}
	if a.migrated {
		return domain.NewDimensionMismatchError(current, observed)
	}

	a.logger.Warn("embedding width changed, migrating schema",
		zap.Int("from", current),
		zap.Int("to", observed),
	)

	altered, err := a.schema.AlterEmbeddingWidth(ctx, observed)
	if err != nil {
		return fmt.Errorf("failed to alter embedding width: %w", err)
	}
	if !a.width.CompareAndSwap(current, observed) {
		return domain.NewDimensionMismatchError(a.width.Get(), observed)
	}
	a.migrated = true
	metrics.DimensionMigrations.Inc()

	if altered && a.reindex != nil {
		n, err := a.reindex.EnqueueAll(ctx, observed)
		if err != nil {
			a.logger.Error("failed to enqueue reindex jobs", zap.Int("width", observed), zap.Error(err))
			return nil
		}
		a.logger.Info("enqueued reindex jobs", zap.Int64("count", n), zap.Int("width", observed))
	}
	return nil
}

// Migrated reports whether this process has already changed the width.
func (a *DimensionAdapter) Migrated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.migrated
}
