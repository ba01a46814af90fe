package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cloo-solutions/docrag/internal/api"
	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/service"
	"github.com/go-chi/chi/v5"
)

type PageService interface {
	UpsertPage(ctx context.Context, p *domain.Page) (bool, error)
	ImportPages(ctx context.Context, r io.Reader) (*service.ImportResult, error)
	GetPage(ctx context.Context, pageID int64) (*domain.Page, error)
	Search(ctx context.Context, in service.PageSearchInput) (*service.PageSearchOutput, error)
}

type PageHandler struct {
	svc PageService
}

func NewPageHandler(svc PageService) *PageHandler {
	return &PageHandler{svc: svc}
}

type PageSearchRequest struct {
	Query      string   `json:"query"`
	Limit      int      `json:"limit"`
	Categories []string `json:"categories"`
}

type PageResponse struct {
	PageID          int64                `json:"page_id"`
	Title           string               `json:"title"`
	URL             string               `json:"url"`
	Summary         string               `json:"summary"`
	RevisionID      int64                `json:"revision_id,omitempty"`
	LastRevisionAt  *time.Time           `json:"last_revision_at,omitempty"`
	ImageURL        string               `json:"image_url,omitempty"`
	Categories      []string             `json:"categories"`
	Aliases         []string             `json:"aliases"`
	FirstAppearance string               `json:"first_appearance,omitempty"`
	Infobox         map[string]string    `json:"infobox,omitempty"`
	Sections        []domain.PageSection `json:"sections"`
	Outlinks        []domain.PageLink    `json:"outlinks"`
	Embedded        bool                 `json:"embedded"`
}

type PageHitResponse struct {
	PageID     int64    `json:"page_id"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Summary    string   `json:"summary"`
	Categories []string `json:"categories"`
	Distance   float64  `json:"distance"`
}

type PageSearchResponse struct {
	Answer  string            `json:"answer"`
	Results []PageHitResponse `json:"results"`
}

type UpsertPageResponse struct {
	PageID   int64 `json:"page_id"`
	Embedded bool  `json:"embedded"`
}

func pageToResponse(p *domain.Page) PageResponse {
	return PageResponse{
		PageID:          p.PageID,
		Title:           p.Title,
		URL:             p.URL,
		Summary:         p.Summary,
		RevisionID:      p.RevisionID,
		LastRevisionAt:  p.LastRevisionAt,
		ImageURL:        p.ImageURL,
		Categories:      p.Categories,
		Aliases:         p.Aliases,
		FirstAppearance: p.FirstAppearance,
		Infobox:         p.Infobox,
		Sections:        p.Sections,
		Outlinks:        p.Outlinks,
		Embedded:        p.Embedding != nil,
	}
}

func (h *PageHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var rec service.PageRecord
	if !api.DecodeJSON(w, r, &rec) {
		return
	}

	embedded, err := h.svc.UpsertPage(r.Context(), rec.ToPage())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, UpsertPageResponse{PageID: rec.PageID, Embedded: embedded})
}

// Import reads newline-delimited page records from the request body.
func (h *PageHandler) Import(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ImportPages(r.Context(), r.Body)
	if err != nil {
		if api.IsBodyTooLarge(err) {
			api.BodyTooLarge(w)
			return
		}
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}

func (h *PageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		api.Error(w, http.StatusBadRequest, "invalid page id")
		return
	}

	page, err := h.svc.GetPage(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, pageToResponse(page))
}

func (h *PageHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req PageSearchRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	out, err := h.svc.Search(r.Context(), service.PageSearchInput{
		Query:      req.Query,
		Limit:      req.Limit,
		Categories: req.Categories,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	results := make([]PageHitResponse, 0, len(out.Results))
	for _, hit := range out.Results {
		results = append(results, PageHitResponse{
			PageID:     hit.PageID,
			Title:      hit.Title,
			URL:        hit.URL,
			Summary:    hit.Summary,
			Categories: hit.Categories,
			Distance:   hit.Distance,
		})
	}
	api.Success(w, http.StatusOK, PageSearchResponse{Answer: out.Answer, Results: results})
}
