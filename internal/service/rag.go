package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/logging"
	"github.com/cloo-solutions/docrag/internal/storage"
	"github.com/cloo-solutions/docrag/internal/telemetry"
	"go.uber.org/zap"
)

const (
	DefaultRetrieveK  = 6
	MaxRetrieveK      = 50
	DefaultTakeaways  = 5
	DefaultSimilarK   = 5
	summaryRetrieveK  = 12
	takeawayRetrieveK = 10
	explainRetrieveK  = 8
)

// SystemPrompt opens every generation prompt.
const SystemPrompt = `You are a research assistant answering questions about the user's documents.
Be brief and clear.

SOURCES
- Treat the CONTEXT as authoritative and read it first.
- You may go beyond the CONTEXT only with care, and say when you do.
- When the CONTEXT is not enough, give your best answer and name what is missing.

RULES
- Never invent citations or sources.
- Refuse unsafe requests politely.`

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChunkRetriever finds the chunks nearest to a query vector.
type ChunkRetriever interface {
	NearestChunks(ctx context.Context, query []float32, k int, documentID string) ([]domain.RetrievalHit, error)
}

// DocumentReader loads documents and their neighbours.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	NearestDocuments(ctx context.Context, id string, k int) ([]domain.SimilarDocument, error)
}

type AnswerInput struct {
	Query      string
	DocumentID string
	Context    string
	TopK       int
}

type AnswerOutput struct {
	Answer    string
	Citations string
	Hits      []domain.RetrievalHit
}

// RAGService answers questions from retrieved document chunks.
type RAGService struct {
	embedder  EmbeddingClient
	chunks    ChunkRetriever
	docs      DocumentReader
	generator Generator
	sources   SourceStore
	extractor TextExtractor
	logger    *zap.Logger
}

// NewRAGService creates a new RAGService. sources may be nil, which
// disables DocumentText.
func NewRAGService(
	embedder EmbeddingClient,
	chunks ChunkRetriever,
	docs DocumentReader,
	generator Generator,
	sources SourceStore,
	extractor TextExtractor,
	logger *zap.Logger,
) *RAGService {
	return &RAGService{
		embedder:  embedder,
		chunks:    chunks,
		docs:      docs,
		generator: generator,
		sources:   sources,
		extractor: extractor,
		logger:    logging.OrNop(logger),
	}
}

// Retrieve embeds query and returns the k nearest chunks, optionally within
// one document. k outside 1..MaxRetrieveK falls back to the default or cap.
func (s *RAGService) Retrieve(ctx context.Context, query string, k int, documentID string) ([]domain.RetrievalHit, error) {
	if documentID != "" {
		if err := ValidateDocumentID(documentID); err != nil {
			return nil, err
		}
	}
	ctx, span := telemetry.StartSpan(ctx, "RAGService.Retrieve", telemetry.SpanAttributes{
		DocumentID: documentID,
		TopK:       k,
		Operation:  "retrieve",
	})
	defer span.End()

	vec, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.chunks.NearestChunks(ctx, vec, clampTopK(k), documentID)
}

// Answer generates an answer to a question. Caller-supplied context wins;
// otherwise chunks are retrieved, scoped to DocumentID when one is given.
func (s *RAGService) Answer(ctx context.Context, in AnswerInput) (*AnswerOutput, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, domain.NewValidationError("missing query")
	}

	out := &AnswerOutput{}
	contextText := strings.TrimSpace(in.Context)
	if contextText == "" {
		hits, err := s.Retrieve(ctx, query, in.TopK, in.DocumentID)
		if err != nil {
			return nil, err
		}
		out.Hits = hits
		contextText, out.Citations = AssembleContext(hits)
	}

	answer, err := s.generator.Generate(ctx, buildAnswerPrompt(contextText, query))
	if err != nil {
		return nil, err
	}
	out.Answer = answer
	return out, nil
}

// Summarize returns a bullet summary of one document.
func (s *RAGService) Summarize(ctx context.Context, documentID string) (string, error) {
	return s.documentPrompt(ctx, documentID, "overall summary of the document", summaryRetrieveK,
		"Summarize the document in 6-10 bullet points focusing on key themes, findings, definitions, and conclusions.",
		"BULLET SUMMARY:")
}

// KeyTakeaways lists the n main points of one document.
func (s *RAGService) KeyTakeaways(ctx context.Context, documentID string, n int) (string, error) {
	if n <= 0 {
		n = DefaultTakeaways
	}
	return s.documentPrompt(ctx, documentID, "top key takeaways; main points; executive summary; highlights", takeawayRetrieveK,
		fmt.Sprintf("List the top %d key takeaways from this document. Each takeaway should be one sentence.", n),
		fmt.Sprintf("TOP %d TAKEAWAYS:", n))
}

// ExplainTerm explains a concept in plain language using one document.
func (s *RAGService) ExplainTerm(ctx context.Context, documentID, term string) (string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", domain.NewValidationError("missing term")
	}
	return s.documentPrompt(ctx, documentID, term, explainRetrieveK,
		fmt.Sprintf("Explain the concept %q from the document in simple, non-technical language.", term),
		"EXPLANATION:")
}

// SimilarDocuments returns the k documents closest to documentID.
func (s *RAGService) SimilarDocuments(ctx context.Context, documentID string, k int) ([]domain.SimilarDocument, error) {
	if err := ValidateDocumentID(documentID); err != nil {
		return nil, err
	}
	if k <= 0 {
		k = DefaultSimilarK
	}
	ctx, span := telemetry.StartSpan(ctx, "RAGService.SimilarDocuments", telemetry.SpanAttributes{
		DocumentID: documentID,
		TopK:       k,
		Operation:  "similar",
	})
	defer span.End()

	return s.docs.NearestDocuments(ctx, documentID, k)
}

// DocumentText re-extracts the full text of a stored source file.
func (s *RAGService) DocumentText(ctx context.Context, documentID string) (string, error) {
	if err := ValidateDocumentID(documentID); err != nil {
		return "", err
	}
	if s.sources == nil {
		return "", domain.NewDomainError(domain.ErrCodeInternalError, "source storage not configured")
	}

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return "", err
	}
	data, err := s.sources.GetObject(ctx, storage.DocumentKey(doc.ID, doc.Filename))
	if err != nil {
		return "", err
	}
	text, err := s.extractor.Text(doc.Filename, data)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrNoExtractableText
	}
	return text, nil
}

func (s *RAGService) documentPrompt(ctx context.Context, documentID, query string, k int, instruction, tail string) (string, error) {
	if err := ValidateDocumentID(documentID); err != nil {
		return "", err
	}
	if _, err := s.docs.GetByID(ctx, documentID); err != nil {
		return "", err
	}

	hits, err := s.Retrieve(ctx, query, k, documentID)
	if err != nil {
		return "", err
	}
	contextText, _ := AssembleContext(hits)

	prompt := SystemPrompt + "\n\n" + instruction + "\n\nCONTEXT:\n" + contextText + "\n\n" + tail + "\n"
	return s.generator.Generate(ctx, prompt)
}

func buildAnswerPrompt(contextText, query string) string {
	return SystemPrompt + "\n\nCONTEXT:\n" + contextText + "\n\nUSER QUESTION:\n" + query
}

func clampTopK(k int) int {
	if k <= 0 {
		return DefaultRetrieveK
	}
	if k > MaxRetrieveK {
		return MaxRetrieveK
	}
	return k
}
