package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/extract"
	"github.com/cloo-solutions/docrag/internal/logging"
	"github.com/cloo-solutions/docrag/internal/metrics"
	"github.com/cloo-solutions/docrag/internal/storage"
	"github.com/cloo-solutions/docrag/internal/telemetry"
	"go.uber.org/zap"
)

// TextExtractor turns an uploaded file into plain text.
type TextExtractor interface {
	Text(filename string, data []byte) (string, error)
}

// ObservingEmbedder embeds text without enforcing the configured width.
type ObservingEmbedder interface {
	EmbedObserved(ctx context.Context, text string) ([]float32, error)
}

// WidthObserver reconciles an observed vector width with the schema.
type WidthObserver interface {
	Observe(ctx context.Context, observedWidth int) error
}

type observedClient struct {
	embedder ObservingEmbedder
}

func (c observedClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return c.embedder.EmbedObserved(ctx, text)
}

type IngestInput struct {
	Filename string
	Title    string
	Data     []byte
}

type IngestOutput struct {
	Document *domain.Document
	Chunks   int
	Skipped  int
}

// IngestService turns an uploaded file into a stored, embedded document.
type IngestService struct {
	txRunner  TxRunner
	extractor TextExtractor
	batch     *BatchEmbedder
	dimension WidthObserver
	sources   SourceStore
	chunkCfg  ChunkConfig
	uuidGen   UUIDGenerator
	logger    *zap.Logger
}

// NewIngestService creates a new IngestService. sources may be nil, in
// which case the original file is not kept.
func NewIngestService(
	txRunner TxRunner,
	extractor TextExtractor,
	embedder ObservingEmbedder,
	dimension WidthObserver,
	sources SourceStore,
	chunkCfg ChunkConfig,
	concurrency int,
	logger *zap.Logger,
) *IngestService {
	logger = logging.OrNop(logger)
	return &IngestService{
		txRunner:  txRunner,
		extractor: extractor,
		batch:     NewBatchEmbedder(observedClient{embedder: embedder}, concurrency, logger),
		dimension: dimension,
		sources:   sources,
		chunkCfg:  chunkCfg,
		uuidGen:   &DefaultUUIDGenerator{},
		logger:    logger,
	}
}

// SetUUIDGenerator replaces the id source. Used by tests.
func (s *IngestService) SetUUIDGenerator(gen UUIDGenerator) {
	s.uuidGen = gen
}

// Ingest extracts, segments and embeds a file, then stores the document
// with its surviving chunks and averaged vector in one transaction. Chunks
// whose embedding failed are dropped and the rest are renumbered 0..n-1 in
// segmentation order.
func (s *IngestService) Ingest(ctx context.Context, in IngestInput) (*IngestOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Ingest", telemetry.SpanAttributes{
		Operation: "ingest",
	})
	defer span.End()

	if strings.TrimSpace(in.Filename) == "" {
		return nil, domain.NewValidationError("missing filename")
	}
	ext, err := extract.Extension(in.Filename)
	if err != nil {
		return nil, err
	}

	text, err := s.extractor.Text(in.Filename, in.Data)
	if err != nil {
		return nil, err
	}

	pieces := nonEmptyPieces(SplitIntoChunks(text, s.chunkCfg.MaxChars, s.chunkCfg.Overlap))
	if len(pieces) == 0 {
		return nil, domain.ErrNoExtractableText
	}

	survivors, err := s.batch.EmbedBatchIndexed(ctx, pieces)
	if err != nil {
		return nil, err
	}

	width := len(survivors[0].Vector)
	for _, iv := range survivors[1:] {
		if len(iv.Vector) != width {
			return nil, domain.NewDimensionMismatchError(width, len(iv.Vector))
		}
	}
	if err := s.dimension.Observe(ctx, width); err != nil {
		return nil, err
	}

	doc := domain.NewDocument(s.uuidGen.NewString(), strings.TrimSpace(in.Title), in.Filename, extract.MimeTypes[ext], time.Now().UTC())

	chunks := make([]domain.Chunk, len(survivors))
	vectors := make([][]float32, len(survivors))
	for i, iv := range survivors {
		chunks[i] = domain.Chunk{
			DocumentID: doc.ID,
			ChunkIndex: i,
			Content:    pieces[iv.Index],
			Embedding:  iv.Vector,
		}
		vectors[i] = iv.Vector
	}
	docVector := Average(vectors)

	key := storage.DocumentKey(doc.ID, doc.Filename)
	if s.sources != nil {
		if err := s.sources.PutObject(ctx, key, in.Data, doc.MimeType); err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to store source file", err)
		}
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.Documents().Create(ctx, doc); err != nil {
			return fmt.Errorf("failed to create document: %w", err)
		}
		if err := repos.Chunks().InsertChunks(ctx, doc.ID, chunks); err != nil {
			return fmt.Errorf("failed to insert chunks: %w", err)
		}
		if err := repos.Documents().SetEmbedding(ctx, doc.ID, docVector); err != nil {
			return fmt.Errorf("failed to set document embedding: %w", err)
		}
		return nil
	})
	if err != nil {
		span.SetError(err)
		if s.sources != nil {
			if delErr := s.sources.DeleteObject(ctx, key); delErr != nil {
				s.logger.Warn("failed to clean up source file", zap.String("key", key), zap.Error(delErr))
			}
		}
		return nil, err
	}

	doc.Embedding = docVector
	metrics.IngestedChunks.Add(float64(len(chunks)))
	s.logger.Info("document ingested",
		zap.String("document_id", doc.ID),
		zap.Int("chunks", len(chunks)),
		zap.Int("skipped", len(pieces)-len(chunks)),
	)

	return &IngestOutput{
		Document: doc,
		Chunks:   len(chunks),
		Skipped:  len(pieces) - len(chunks),
	}, nil
}

func nonEmptyPieces(pieces []string) []string {
	out := pieces[:0]
	for _, p := range pieces {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
