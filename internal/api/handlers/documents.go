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

// maxUploadMemory is the multipart memory budget; larger parts spill to disk.
const maxUploadMemory = 8 << 20

type IngestService interface {
	Ingest(ctx context.Context, in service.IngestInput) (*service.IngestOutput, error)
}

type DocumentService interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, input service.ListDocumentsInput) (*service.ListDocumentsOutput, error)
	Delete(ctx context.Context, id string) error
	SourceURL(ctx context.Context, id string) (string, error)
}

type DocumentReader interface {
	DocumentText(ctx context.Context, documentID string) (string, error)
	SimilarDocuments(ctx context.Context, documentID string, k int) ([]domain.SimilarDocument, error)
}

type DocumentHandler struct {
	ingest IngestService
	docs   DocumentService
	reader DocumentReader
}

func NewDocumentHandler(ingest IngestService, docs DocumentService, reader DocumentReader) *DocumentHandler {
	return &DocumentHandler{ingest: ingest, docs: docs, reader: reader}
}

type DocumentResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mime_type"`
	CreatedAt string `json:"created_at"`
}

type IngestResponse struct {
	Document DocumentResponse `json:"document"`
	Chunks   int              `json:"chunks"`
	Skipped  int              `json:"skipped"`
}

type ListDocumentsResponse struct {
	Items   []DocumentResponse `json:"items"`
	Cursor  string             `json:"cursor,omitempty"`
	HasMore bool               `json:"has_more"`
}

type SimilarDocumentResponse struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Filename string  `json:"filename"`
	Distance float64 `json:"distance"`
}

type DocumentTextResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func documentToResponse(d *domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:        d.ID,
		Title:     d.Title,
		Filename:  d.Filename,
		MimeType:  d.MimeType,
		CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Upload ingests a multipart "file" part with an optional "title" field.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		if api.IsBodyTooLarge(err) {
			api.BodyTooLarge(w)
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	out, err := h.ingest.Ingest(r.Context(), service.IngestInput{
		Filename: header.Filename,
		Title:    r.FormValue("title"),
		Data:     data,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, IngestResponse{
		Document: documentToResponse(out.Document),
		Chunks:   out.Chunks,
		Skipped:  out.Skipped,
	})
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	out, err := h.docs.List(r.Context(), service.ListDocumentsInput{
		Cursor: r.URL.Query().Get("cursor"),
		Limit:  limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]DocumentResponse, 0, len(out.Items))
	for _, d := range out.Items {
		items = append(items, documentToResponse(d))
	}
	api.Success(w, http.StatusOK, ListDocumentsResponse{Items: items, Cursor: out.Cursor, HasMore: out.HasMore})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.docs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		api.HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Source redirects to a presigned download link for the original file.
func (h *DocumentHandler) Source(w http.ResponseWriter, r *http.Request) {
	url, err := h.docs.SourceURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func (h *DocumentHandler) Text(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	text, err := h.reader.DocumentText(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DocumentTextResponse{ID: id, Text: text})
}

func (h *DocumentHandler) Similar(w http.ResponseWriter, r *http.Request) {
	k, ok := queryInt(w, r, "k")
	if !ok {
		return
	}

	similar, err := h.reader.SimilarDocuments(r.Context(), chi.URLParam(r, "id"), k)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]SimilarDocumentResponse, 0, len(similar))
	for _, s := range similar {
		resp = append(resp, SimilarDocumentResponse{ID: s.ID, Title: s.Title, Filename: s.Filename, Distance: s.Distance})
	}
	api.Success(w, http.StatusOK, resp)
}

// queryInt reads an optional non-negative integer query parameter. It writes
// a 400 and returns false when the value is malformed.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		api.Error(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}
