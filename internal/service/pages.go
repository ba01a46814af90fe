package service

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/logging"
	"github.com/cloo-solutions/docrag/internal/telemetry"
	"go.uber.org/zap"
)

const (
	DefaultPageSearchLimit = 5
	maxPageEmbedSections   = 6
	maxPageEmbedRunes      = 7000
	noPageAnswer           = "I couldn't compose an answer from the current context."
)

const pageSearchPrompt = "You are a precise wiki assistant. Answer using ONLY the provided context. " +
	"Prefer concise bullets. Include page titles as markdown links to their URL when helpful. " +
	"If uncertain, say so briefly."

// PageRepositoryInterface defines the repository interface for wiki pages
type PageRepositoryInterface interface {
	Upsert(ctx context.Context, p *domain.Page) error
	GetByID(ctx context.Context, pageID int64) (*domain.Page, error)
	SetEmbedding(ctx context.Context, pageID int64, embedding []float32) error
	NearestPages(ctx context.Context, query []float32, k int, categories []string) ([]domain.PageHit, error)
}

// PageRecord is one scraped page as delivered in JSON lines.
type PageRecord struct {
	PageID          int64                `json:"page_id"`
	Title           string               `json:"title"`
	URL             string               `json:"url"`
	Summary         string               `json:"summary"`
	RevisionID      int64                `json:"revision_id"`
	LastRevisionAt  *time.Time           `json:"last_revision_at,omitempty"`
	ImageURL        string               `json:"image_url,omitempty"`
	Categories      []string             `json:"categories"`
	Aliases         []string             `json:"aliases"`
	FirstAppearance string               `json:"first_appearance,omitempty"`
	Infobox         map[string]string    `json:"infobox,omitempty"`
	Sections        []domain.PageSection `json:"sections"`
	Outlinks        []domain.PageLink    `json:"outlinks"`
}

// ToPage converts the record into a domain page without an embedding.
func (r PageRecord) ToPage() *domain.Page {
	return &domain.Page{
		PageID:          r.PageID,
		Title:           r.Title,
		URL:             r.URL,
		Summary:         r.Summary,
		RevisionID:      r.RevisionID,
		LastRevisionAt:  r.LastRevisionAt,
		ImageURL:        r.ImageURL,
		Categories:      r.Categories,
		Aliases:         r.Aliases,
		FirstAppearance: r.FirstAppearance,
		Infobox:         r.Infobox,
		Sections:        r.Sections,
		Outlinks:        r.Outlinks,
	}
}

type ImportResult struct {
	Imported   int `json:"imported"`
	Failed     int `json:"failed"`
	Unembedded int `json:"unembedded"`
}

type PageSearchInput struct {
	Query      string
	Limit      int
	Categories []string
}

type PageSearchOutput struct {
	Answer  string
	Results []domain.PageHit
}

// PageService stores scraped wiki pages and answers questions over them.
type PageService struct {
	repo      PageRepositoryInterface
	embedder  ObservingEmbedder
	queries   EmbeddingClient
	dimension WidthObserver
	generator Generator
	logger    *zap.Logger
}

// NewPageService creates a new PageService.
func NewPageService(
	repo PageRepositoryInterface,
	embedder ObservingEmbedder,
	queries EmbeddingClient,
	dimension WidthObserver,
	generator Generator,
	logger *zap.Logger,
) *PageService {
	return &PageService{
		repo:      repo,
		embedder:  embedder,
		queries:   queries,
		dimension: dimension,
		generator: generator,
		logger:    logging.OrNop(logger),
	}
}

// BuildPageEmbedText renders the text a page is embedded from: the summary
// followed by up to six titled sections, capped at 7000 runes.
func BuildPageEmbedText(summary string, sections []domain.PageSection) string {
	var parts []string
	if summary != "" {
		parts = append(parts, "Summary: "+summary)
	}
	if len(sections) > maxPageEmbedSections {
		sections = sections[:maxPageEmbedSections]
	}
	for _, s := range sections {
		if s.Title != "" && s.Text != "" {
			parts = append(parts, s.Title+": "+s.Text)
		}
	}

	out := strings.Join(parts, "\n\n")
	if r := []rune(out); len(r) > maxPageEmbedRunes {
		out = string(r[:maxPageEmbedRunes])
	}
	return out
}

// UpsertPage embeds and stores a page. It reports whether the page was
// stored with an embedding; embedding failures store the page without one.
func (s *PageService) UpsertPage(ctx context.Context, p *domain.Page) (bool, error) {
	if err := domain.ValidatePage(p); err != nil {
		return false, domain.NewValidationError(err.Error())
	}
	ctx, span := telemetry.StartSpan(ctx, "PageService.UpsertPage", telemetry.SpanAttributes{
		PageID:    p.PageID,
		Operation: "upsert",
	})
	defer span.End()

	p.Embedding = nil
	vec, err := s.embedPage(ctx, p)
	if err != nil {
		return false, err
	}
	p.Embedding = vec

	if err := s.repo.Upsert(ctx, p); err != nil {
		return false, fmt.Errorf("failed to upsert page %d: %w", p.PageID, err)
	}
	return vec != nil, nil
}

func (s *PageService) embedPage(ctx context.Context, p *domain.Page) ([]float32, error) {
	text := BuildPageEmbedText(p.Summary, p.Sections)
	if text == "" {
		return nil, nil
	}

	vec, err := s.embedder.EmbedObserved(ctx, text)
	if err != nil {
		if isContextError(err) {
			return nil, err
		}
		s.logger.Warn("storing page without embedding", zap.Int64("page_id", p.PageID), zap.Error(err))
		return nil, nil
	}

	if err := s.dimension.Observe(ctx, len(vec)); err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			s.logger.Warn("storing page without embedding", zap.Int64("page_id", p.PageID), zap.Error(err))
			return nil, nil
		}
		return nil, err
	}
	return vec, nil
}

// ReindexPage re-embeds a stored page at the current width. This method is
// called by the background worker after the vector width changed. Pages with
// nothing to embed are left without a vector.
func (s *PageService) ReindexPage(ctx context.Context, pageID int64) error {
	p, err := s.repo.GetByID(ctx, pageID)
	if err != nil {
		return err
	}
	text := BuildPageEmbedText(p.Summary, p.Sections)
	if text == "" {
		return nil
	}

	vec, err := s.queries.GenerateEmbedding(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to re-embed page %d: %w", pageID, err)
	}
	if err := s.repo.SetEmbedding(ctx, pageID, vec); err != nil {
		return fmt.Errorf("failed to update page embedding: %w", err)
	}
	return nil
}

// ImportPages upserts every JSON line read from r. Invalid records are
// counted and skipped; storage failures abort the import.
func (s *PageService) ImportPages(ctx context.Context, r io.Reader) (*ImportResult, error) {
	result := &ImportResult{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var rec PageRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			result.Failed++
			s.logger.Warn("skipping malformed page record", zap.Int("line", line), zap.Error(err))
			continue
		}

		embedded, err := s.UpsertPage(ctx, rec.ToPage())
		if err != nil {
			var domainErr *domain.DomainError
			if errors.As(err, &domainErr) && domainErr.Code == domain.ErrCodeValidation {
				result.Failed++
				s.logger.Warn("skipping invalid page record", zap.Int("line", line), zap.Error(err))
				continue
			}
			return result, err
		}
		result.Imported++
		if !embedded {
			result.Unembedded++
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("failed to read page records: %w", err)
	}
	return result, nil
}

// GetPage returns one stored page.
func (s *PageService) GetPage(ctx context.Context, pageID int64) (*domain.Page, error) {
	return s.repo.GetByID(ctx, pageID)
}

// Search finds the pages nearest to a query and answers it from them.
func (s *PageService) Search(ctx context.Context, in PageSearchInput) (*PageSearchOutput, error) {
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, domain.NewValidationError("missing query")
	}
	limit := in.Limit
	if limit <= 0 {
		limit = DefaultPageSearchLimit
	}
	if limit > MaxRetrieveK {
		limit = MaxRetrieveK
	}

	ctx, span := telemetry.StartSpan(ctx, "PageService.Search", telemetry.SpanAttributes{
		TopK:      limit,
		Operation: "search",
	})
	defer span.End()

	vec, err := s.queries.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	hits, err := s.repo.NearestPages(ctx, vec, limit, in.Categories)
	if err != nil {
		return nil, err
	}

	out := &PageSearchOutput{Answer: noPageAnswer, Results: hits}
	if len(hits) == 0 {
		return out, nil
	}

	prompt, err := buildPageSearchPrompt(query, hits)
	if err != nil {
		return nil, err
	}
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	out.Answer = answer
	return out, nil
}

type pageBrief struct {
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Summary    string   `json:"summary"`
	Categories []string `json:"categories"`
}

func buildPageSearchPrompt(query string, hits []domain.PageHit) (string, error) {
	briefs := make([]pageBrief, len(hits))
	for i, h := range hits {
		briefs[i] = pageBrief{Title: h.Title, URL: h.URL, Summary: h.Summary, Categories: h.Categories}
	}
	ctxJSON, err := json.Marshal(briefs)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s\n\nUser question: %s\n\nContext JSON (top matches):\n%s", pageSearchPrompt, query, ctxJSON), nil
}
