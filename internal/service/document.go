package service

import (
	"context"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/logging"
	"github.com/cloo-solutions/docrag/internal/pagination"
	"github.com/cloo-solutions/docrag/internal/storage"
	"github.com/cloo-solutions/docrag/internal/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentRepositoryInterface defines the repository interface for document persistence
type DocumentRepositoryInterface interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*DocumentPageResult, error)
	SetEmbedding(ctx context.Context, id string, embedding []float32) error
	Delete(ctx context.Context, id string) error
	NearestDocuments(ctx context.Context, id string, k int) ([]domain.SimilarDocument, error)
}

// ChunkRepositoryInterface defines the repository interface for chunk persistence and retrieval
type ChunkRepositoryInterface interface {
	InsertChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
	ListByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error)
	UpdateEmbedding(ctx context.Context, chunkID string, embedding []float32) error
	NearestChunks(ctx context.Context, query []float32, k int, documentID string) ([]domain.RetrievalHit, error)
}

// SourceStore keeps the original uploaded files.
type SourceStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
}

type DocumentPageResult struct {
	Items      []*domain.Document
	NextCursor string
	HasMore    bool
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

type ListDocumentsInput struct {
	Cursor string
	Limit  int
}

type ListDocumentsOutput struct {
	Items   []*domain.Document
	Cursor  string
	HasMore bool
}

// DocumentService handles reads and deletion of ingested documents
type DocumentService struct {
	docRepo DocumentRepositoryInterface
	sources SourceStore
	logger  *zap.Logger
}

// NewDocumentService creates a new DocumentService. sources may be nil when
// no object storage is configured.
func NewDocumentService(docRepo DocumentRepositoryInterface, sources SourceStore, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		docRepo: docRepo,
		sources: sources,
		logger:  logging.OrNop(logger),
	}
}

// GetByID retrieves a document by ID
func (s *DocumentService) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	if err := ValidateDocumentID(id); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.GetByID", telemetry.SpanAttributes{
		DocumentID: id,
		Operation:  "get",
	})
	defer span.End()

	return s.docRepo.GetByID(ctx, id)
}

// List returns documents newest first, one page at a time
func (s *DocumentService) List(ctx context.Context, input ListDocumentsInput) (*ListDocumentsOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.List", telemetry.SpanAttributes{
		Operation: "list",
	})
	defer span.End()

	cursor, err := pagination.DecodeCursor(input.Cursor)
	if err != nil {
		return nil, domain.NewValidationError("invalid cursor")
	}

	result, err := s.docRepo.ListWithCursor(ctx, cursor, pagination.ClampLimit(input.Limit))
	if err != nil {
		return nil, err
	}

	return &ListDocumentsOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}

// Delete removes a document, its chunks and its stored source file
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if err := ValidateDocumentID(id); err != nil {
		return err
	}
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Delete", telemetry.SpanAttributes{
		DocumentID: id,
		Operation:  "delete",
	})
	defer span.End()

	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.docRepo.Delete(ctx, id); err != nil {
		return err
	}

	if s.sources != nil {
		if err := s.sources.DeleteObject(ctx, storage.DocumentKey(doc.ID, doc.Filename)); err != nil {
			s.logger.Warn("failed to delete document source", zap.String("document_id", id), zap.Error(err))
		}
	}
	return nil
}

// SourceURL returns a short-lived download link for the document's original file
func (s *DocumentService) SourceURL(ctx context.Context, id string) (string, error) {
	if s.sources == nil {
		return "", domain.NewDomainError(domain.ErrCodeInternalError, "object storage is not configured")
	}
	doc, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return s.sources.GenerateDownloadURL(ctx, storage.DocumentKey(doc.ID, doc.Filename))
}

// ValidateDocumentID rejects ids that cannot name a stored document.
func ValidateDocumentID(id string) error {
	if id == "" {
		return domain.NewValidationError("missing document_id")
	}
	if _, err := uuid.Parse(id); err != nil {
		return domain.NewValidationError("invalid document_id")
	}
	return nil
}
