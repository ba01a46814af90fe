package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloo-solutions/docrag/internal/api"
	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testDocID = "8f14e45f-ceea-467f-a0e6-1b2c3d4e5f60"

func multipartUpload(t *testing.T, filename, title string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	if title != "" {
		require.NoError(t, mw.WriteField("title", title))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestDocumentHandler_Upload_Success(t *testing.T) {
	ingest := new(MockIngestService)
	handler := NewDocumentHandler(ingest, new(MockDocumentService), new(MockDocumentReader))
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ingest.On("Ingest", mock.Anything, service.IngestInput{Filename: "report.pdf", Title: "Q1", Data: []byte("%PDF-1.7")}).
		Return(&service.IngestOutput{
			Document: &domain.Document{ID: testDocID, Title: "Q1", Filename: "report.pdf", MimeType: "application/pdf", CreatedAt: created},
			Chunks:   3,
			Skipped:  1,
		}, nil)

	w := httptest.NewRecorder()
	handler.Upload(w, multipartUpload(t, "report.pdf", "Q1", []byte("%PDF-1.7")))

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		Data IngestResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, testDocID, resp.Data.Document.ID)
	assert.Equal(t, "2026-03-01T12:00:00Z", resp.Data.Document.CreatedAt)
	assert.Equal(t, 3, resp.Data.Chunks)
	assert.Equal(t, 1, resp.Data.Skipped)
}

func TestDocumentHandler_Upload_MissingFile(t *testing.T) {
	ingest := new(MockIngestService)
	handler := NewDocumentHandler(ingest, new(MockDocumentService), new(MockDocumentReader))

	w := httptest.NewRecorder()
	handler.Upload(w, multipartUpload(t, "", "only a title", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	ingest.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}

func TestDocumentHandler_Upload_UnsupportedType(t *testing.T) {
	ingest := new(MockIngestService)
	handler := NewDocumentHandler(ingest, new(MockDocumentService), new(MockDocumentReader))

	ingest.On("Ingest", mock.Anything, mock.Anything).Return(nil, domain.ErrUnsupportedFileType)

	w := httptest.NewRecorder()
	handler.Upload(w, multipartUpload(t, "notes.txt", "", []byte("hi")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "only PDF or DOCX supported", resp.Error)
}

func TestDocumentHandler_Upload_DimensionMismatch(t *testing.T) {
	ingest := new(MockIngestService)
	handler := NewDocumentHandler(ingest, new(MockDocumentService), new(MockDocumentReader))

	ingest.On("Ingest", mock.Anything, mock.Anything).Return(nil, domain.NewDimensionMismatchError(768, 1024))

	w := httptest.NewRecorder()
	handler.Upload(w, multipartUpload(t, "a.pdf", "", []byte("%PDF")))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDocumentHandler_List(t *testing.T) {
	docs := new(MockDocumentService)
	handler := NewDocumentHandler(new(MockIngestService), docs, new(MockDocumentReader))

	docs.On("List", mock.Anything, service.ListDocumentsInput{Cursor: "abc", Limit: 2}).Return(&service.ListDocumentsOutput{
		Items:   []*domain.Document{{ID: "a"}, {ID: "b"}},
		Cursor:  "next",
		HasMore: true,
	}, nil)

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/documents?limit=2&cursor=abc", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data ListDocumentsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Items, 2)
	assert.Equal(t, "next", resp.Data.Cursor)
	assert.True(t, resp.Data.HasMore)
}

func TestDocumentHandler_List_InvalidLimit(t *testing.T) {
	docs := new(MockDocumentService)
	handler := NewDocumentHandler(new(MockIngestService), docs, new(MockDocumentReader))

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/documents?limit=ten", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	docs.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestDocumentHandler_Get_NotFound(t *testing.T) {
	docs := new(MockDocumentService)
	handler := NewDocumentHandler(new(MockIngestService), docs, new(MockDocumentReader))

	docs.On("GetByID", mock.Anything, testDocID).Return(nil, domain.ErrDocumentNotFound)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/documents/"+testDocID, nil), "id", testDocID)
	w := httptest.NewRecorder()
	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentHandler_Delete(t *testing.T) {
	docs := new(MockDocumentService)
	handler := NewDocumentHandler(new(MockIngestService), docs, new(MockDocumentReader))

	docs.On("Delete", mock.Anything, testDocID).Return(nil)

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/documents/"+testDocID, nil), "id", testDocID)
	w := httptest.NewRecorder()
	handler.Delete(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	docs.AssertExpectations(t)
}

func TestDocumentHandler_Text(t *testing.T) {
	reader := new(MockDocumentReader)
	handler := NewDocumentHandler(new(MockIngestService), new(MockDocumentService), reader)

	reader.On("DocumentText", mock.Anything, testDocID).Return("full text", nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/documents/"+testDocID+"/text", nil), "id", testDocID)
	w := httptest.NewRecorder()
	handler.Text(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data DocumentTextResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "full text", resp.Data.Text)
}

func TestDocumentHandler_Similar(t *testing.T) {
	reader := new(MockDocumentReader)
	handler := NewDocumentHandler(new(MockIngestService), new(MockDocumentService), reader)

	reader.On("SimilarDocuments", mock.Anything, testDocID, 3).
		Return([]domain.SimilarDocument{{ID: "other", Title: "Other", Distance: 0.25}}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/documents/"+testDocID+"/similar?k=3", nil), "id", testDocID)
	w := httptest.NewRecorder()
	handler.Similar(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []SimilarDocumentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 0.25, resp.Data[0].Distance)
}

func TestDocumentHandler_Similar_NoEmbedding(t *testing.T) {
	reader := new(MockDocumentReader)
	handler := NewDocumentHandler(new(MockIngestService), new(MockDocumentService), reader)

	reader.On("SimilarDocuments", mock.Anything, testDocID, 0).Return(nil, domain.ErrNoEmbeddings)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/documents/"+testDocID+"/similar", nil), "id", testDocID)
	w := httptest.NewRecorder()
	handler.Similar(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDocumentHandler_Source_Redirects(t *testing.T) {
	docs := new(MockDocumentService)
	handler := NewDocumentHandler(new(MockIngestService), docs, new(MockDocumentReader))

	docs.On("SourceURL", mock.Anything, testDocID).Return("https://s3.example/documents/x.pdf?sig=1", nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/documents/"+testDocID+"/source", nil), "id", testDocID)
	w := httptest.NewRecorder()
	handler.Source(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://s3.example/documents/x.pdf?sig=1", w.Header().Get("Location"))
}
