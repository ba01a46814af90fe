package handlers

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/docrag/internal/api"
	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/service"
	"github.com/go-chi/chi/v5"
)

type RAGService interface {
	Retrieve(ctx context.Context, query string, k int, documentID string) ([]domain.RetrievalHit, error)
	Answer(ctx context.Context, in service.AnswerInput) (*service.AnswerOutput, error)
	Summarize(ctx context.Context, documentID string) (string, error)
	KeyTakeaways(ctx context.Context, documentID string, n int) (string, error)
	ExplainTerm(ctx context.Context, documentID, term string) (string, error)
}

type RAGHandler struct {
	svc RAGService
}

func NewRAGHandler(svc RAGService) *RAGHandler {
	return &RAGHandler{svc: svc}
}

type RetrieveRequest struct {
	Query      string `json:"query"`
	TopK       int    `json:"top_k"`
	DocumentID string `json:"document_id"`
}

type ChatRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id"`
	Context    string `json:"context"`
	TopK       int    `json:"top_k"`
}

type TakeawaysRequest struct {
	N int `json:"n"`
}

type ExplainRequest struct {
	Term string `json:"term"`
}

type HitResponse struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Distance   float64 `json:"distance"`
	Citation   string  `json:"citation"`
}

type ChatResponse struct {
	Answer    string        `json:"answer"`
	Citations string        `json:"citations"`
	Hits      []HitResponse `json:"hits"`
}

type TextResponse struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
}

func hitsToResponse(hits []domain.RetrievalHit) []HitResponse {
	resp := make([]HitResponse, 0, len(hits))
	for _, h := range hits {
		resp = append(resp, HitResponse{
			ChunkID:    h.ChunkID,
			DocumentID: h.DocumentID,
			ChunkIndex: h.ChunkIndex,
			Content:    h.Content,
			Distance:   h.Distance,
			Citation:   h.Citation(),
		})
	}
	return resp
}

func (h *RAGHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	hits, err := h.svc.Retrieve(r.Context(), req.Query, req.TopK, req.DocumentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, hitsToResponse(hits))
}

func (h *RAGHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	out, err := h.svc.Answer(r.Context(), service.AnswerInput{
		Query:      req.Query,
		DocumentID: req.DocumentID,
		Context:    req.Context,
		TopK:       req.TopK,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ChatResponse{
		Answer:    out.Answer,
		Citations: out.Citations,
		Hits:      hitsToResponse(out.Hits),
	})
}

func (h *RAGHandler) Summary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	text, err := h.svc.Summarize(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, TextResponse{DocumentID: id, Text: text})
}

func (h *RAGHandler) Takeaways(w http.ResponseWriter, r *http.Request) {
	var req TakeawaysRequest
	if !api.DecodeOptionalJSON(w, r, &req) {
		return
	}
	if req.N < 0 {
		api.Error(w, http.StatusBadRequest, "n must not be negative")
		return
	}

	id := chi.URLParam(r, "id")
	text, err := h.svc.KeyTakeaways(r.Context(), id, req.N)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, TextResponse{DocumentID: id, Text: text})
}

func (h *RAGHandler) Explain(w http.ResponseWriter, r *http.Request) {
	var req ExplainRequest
	if !api.DecodeJSON(w, r, &req) {
		return
	}
	if req.Term == "" {
		api.Error(w, http.StatusBadRequest, "term is required")
		return
	}

	id := chi.URLParam(r, "id")
	text, err := h.svc.ExplainTerm(r.Context(), id, req.Term)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, TextResponse{DocumentID: id, Text: text})
}
