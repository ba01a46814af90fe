package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/logging"
	"github.com/cloo-solutions/docrag/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// IndexedVector is a batch survivor paired with the position of its input.
type IndexedVector struct {
	Index  int
	Vector []float32
}

// BatchEmbedder embeds lists of texts, skipping items that fail.
type BatchEmbedder struct {
	client      EmbeddingClient
	concurrency int
	logger      *zap.Logger
}

// NewBatchEmbedder creates a BatchEmbedder. Concurrency below one embeds
// sequentially.
func NewBatchEmbedder(client EmbeddingClient, concurrency int, logger *zap.Logger) *BatchEmbedder {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchEmbedder{
		client:      client,
		concurrency: concurrency,
		logger:      logging.OrNop(logger),
	}
}

// EmbedBatch returns the vectors of the inputs that embedded successfully,
// in input order.
func (b *BatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	indexed, err := b.EmbedBatchIndexed(ctx, texts)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(indexed))
	for i, iv := range indexed {
		out[i] = iv.Vector
	}
	return out, nil
}

// EmbedBatchIndexed embeds every text and returns the survivors tagged with
// their input index, in input order. Per-item failures are logged and
// skipped, except dimension mismatches and empty inputs which abort the
// batch. It fails with domain.ErrNoEmbeddings when nothing survives and
// returns the context error as-is when ctx ends.
func (b *BatchEmbedder) EmbedBatchIndexed(ctx context.Context, texts []string) ([]IndexedVector, error) {
	if len(texts) == 0 {
		return nil, domain.ErrNoEmbeddings
	}

	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for i, text := range texts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vec, err := b.client.GenerateEmbedding(gctx, text)
			if err != nil {
				if isContextError(err) || abortsBatch(err) {
					return err
				}
				metrics.BatchItemFailures.Inc()
				b.logger.Warn("skipping text due to embedding error",
					zap.Int("index", i),
					zap.Error(err),
				)
				return nil
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]IndexedVector, 0, len(texts))
	for i, vec := range vectors {
		if vec != nil {
			out = append(out, IndexedVector{Index: i, Vector: vec})
		}
	}
	if len(out) == 0 {
		return nil, domain.ErrNoEmbeddings
	}
	return out, nil
}

// Average returns the per-component mean of vectors, or an empty vector
// when there are none. All vectors must share one width.
func Average(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return []float32{}
	}
	sums := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		for i, x := range v {
			sums[i] += float64(x)
		}
	}
	out := make([]float32, len(sums))
	n := float64(len(vectors))
	for i, s := range sums {
		out[i] = float32(s / n)
	}
	return out
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func abortsBatch(err error) bool {
	return errors.Is(err, domain.ErrDimensionMismatch) || errors.Is(err, domain.ErrEmptyInput)
}

// EmbeddingChunkRepository defines the chunk operations needed to re-embed a document
type EmbeddingChunkRepository interface {
	ListByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error)
	UpdateEmbedding(ctx context.Context, chunkID string, embedding []float32) error
}

// EmbeddingDocumentRepository defines the document operations needed to re-embed a document
type EmbeddingDocumentRepository interface {
	SetEmbedding(ctx context.Context, id string, embedding []float32) error
}

// EmbeddingService re-embeds stored documents after the vector width changed
type EmbeddingService struct {
	batch     *BatchEmbedder
	chunkRepo EmbeddingChunkRepository
	docRepo   EmbeddingDocumentRepository
}

// NewEmbeddingService creates a new EmbeddingService instance
func NewEmbeddingService(batch *BatchEmbedder, chunkRepo EmbeddingChunkRepository, docRepo EmbeddingDocumentRepository) *EmbeddingService {
	return &EmbeddingService{
		batch:     batch,
		chunkRepo: chunkRepo,
		docRepo:   docRepo,
	}
}

// ReindexDocument regenerates every chunk embedding of a document and its
// averaged document embedding. This method is called by the background worker
func (s *EmbeddingService) ReindexDocument(ctx context.Context, documentID string) error {
	chunks, err := s.chunkRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	survivors, err := s.batch.EmbedBatchIndexed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to re-embed document chunks: %w", err)
	}

	vectors := make([][]float32, 0, len(survivors))
	for _, iv := range survivors {
		if err := s.chunkRepo.UpdateEmbedding(ctx, chunks[iv.Index].ID, iv.Vector); err != nil {
			return fmt.Errorf("failed to update chunk embedding: %w", err)
		}
		vectors = append(vectors, iv.Vector)
	}

	if err := s.docRepo.SetEmbedding(ctx, documentID, Average(vectors)); err != nil {
		return fmt.Errorf("failed to update document embedding: %w", err)
	}
	return nil
}
