package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRAGHandler_Chat(t *testing.T) {
	svc := new(MockRAGService)
	handler := NewRAGHandler(svc)
	hits := []domain.RetrievalHit{{ChunkID: "c1", DocumentID: testDocID, ChunkIndex: 2, Content: "text", Distance: 0.1}}

	svc.On("Answer", mock.Anything, service.AnswerInput{Query: "why?", DocumentID: testDocID, TopK: 4}).
		Return(&service.AnswerOutput{Answer: "because", Citations: hits[0].Citation(), Hits: hits}, nil)

	body, _ := json.Marshal(ChatRequest{Query: "why?", DocumentID: testDocID, TopK: 4})
	w := httptest.NewRecorder()
	handler.Chat(w, httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body)))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data ChatResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "because", resp.Data.Answer)
	require.Len(t, resp.Data.Hits, 1)
	assert.Equal(t, "[doc:"+testDocID+" chunk:2]", resp.Data.Hits[0].Citation)
}

func TestRAGHandler_Chat_MissingQuery(t *testing.T) {
	svc := new(MockRAGService)
	handler := NewRAGHandler(svc)

	w := httptest.NewRecorder()
	handler.Chat(w, httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(`{"context":"x"}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Answer", mock.Anything, mock.Anything)
}

func TestRAGHandler_Chat_UpstreamFailure(t *testing.T) {
	svc := new(MockRAGService)
	handler := NewRAGHandler(svc)

	svc.On("Answer", mock.Anything, mock.Anything).Return(nil, domain.NewUpstreamError("failed to generate answer", nil))

	w := httptest.NewRecorder()
	handler.Chat(w, httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(`{"query":"q"}`)))

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRAGHandler_Retrieve(t *testing.T) {
	svc := new(MockRAGService)
	handler := NewRAGHandler(svc)

	svc.On("Retrieve", mock.Anything, "q", 0, "").Return([]domain.RetrievalHit{}, nil)

	w := httptest.NewRecorder()
	handler.Retrieve(w, httptest.NewRequest(http.MethodPost, "/retrieve", bytes.NewBufferString(`{"query":"q"}`)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestRAGHandler_Summary(t *testing.T) {
	svc := new(MockRAGService)
	handler := NewRAGHandler(svc)

	svc.On("Summarize", mock.Anything, testDocID).Return("- a\n- b", nil)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/documents/"+testDocID+"/summary", nil), "id", testDocID)
	w := httptest.NewRecorder()
	handler.Summary(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data TextResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "- a\n- b", resp.Data.Text)
}

func TestRAGHandler_Takeaways_EmptyBody(t *testing.T) {
	svc := new(MockRAGService)
	handler := NewRAGHandler(svc)

	svc.On("KeyTakeaways", mock.Anything, testDocID, 0).Return("1. one", nil)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/documents/"+testDocID+"/takeaways", nil), "id", testDocID)
	w := httptest.NewRecorder()
	handler.Takeaways(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestRAGHandler_Takeaways_WithCount(t *testing.T) {
	svc := new(MockRAGService)
	handler := NewRAGHandler(svc)

	svc.On("KeyTakeaways", mock.Anything, testDocID, 3).Return("1. one", nil)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/documents/"+testDocID+"/takeaways", bytes.NewBufferString(`{"n":3}`)), "id", testDocID)
	w := httptest.NewRecorder()
	handler.Takeaways(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestRAGHandler_Explain_MissingTerm(t *testing.T) {
	svc := new(MockRAGService)
	handler := NewRAGHandler(svc)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/documents/"+testDocID+"/explain", bytes.NewBufferString(`{}`)), "id", testDocID)
	w := httptest.NewRecorder()
	handler.Explain(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRAGHandler_Explain_DocumentNotFound(t *testing.T) {
	svc := new(MockRAGService)
	handler := NewRAGHandler(svc)

	svc.On("ExplainTerm", mock.Anything, testDocID, "entropy").Return("", domain.ErrDocumentNotFound)

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/documents/"+testDocID+"/explain", bytes.NewBufferString(`{"term":"entropy"}`)), "id", testDocID)
	w := httptest.NewRecorder()
	handler.Explain(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
