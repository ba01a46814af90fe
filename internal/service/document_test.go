package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/cloo-solutions/docrag/internal/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDocumentService_GetByID(t *testing.T) {
	repo := new(MockDocumentRepository)
	svc := NewDocumentService(repo, nil, nil)
	doc := &domain.Document{ID: ragDocID, Title: "Report"}

	repo.On("GetByID", mock.Anything, ragDocID).Return(doc, nil)

	got, err := svc.GetByID(context.Background(), ragDocID)

	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestDocumentService_GetByID_InvalidID(t *testing.T) {
	repo := new(MockDocumentRepository)
	svc := NewDocumentService(repo, nil, nil)

	_, err := svc.GetByID(context.Background(), "12")

	require.Error(t, err)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestDocumentService_List(t *testing.T) {
	repo := new(MockDocumentRepository)
	svc := NewDocumentService(repo, nil, nil)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cursor := pagination.EncodeCursor(ragDocID, ts)

	repo.On("ListWithCursor", mock.Anything, mock.MatchedBy(func(c *pagination.Cursor) bool {
		return c != nil && c.LastID == ragDocID && c.Timestamp.Equal(ts)
	}), pagination.MaxLimit).Return(&DocumentPageResult{
		Items:      []*domain.Document{{ID: "a"}},
		NextCursor: "next",
		HasMore:    true,
	}, nil)

	out, err := svc.List(context.Background(), ListDocumentsInput{Cursor: cursor, Limit: 1000})

	require.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, "next", out.Cursor)
	assert.True(t, out.HasMore)
}

func TestDocumentService_List_InvalidCursor(t *testing.T) {
	repo := new(MockDocumentRepository)
	svc := NewDocumentService(repo, nil, nil)

	_, err := svc.List(context.Background(), ListDocumentsInput{Cursor: "%%%"})

	var domainErr *domain.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
}

func TestDocumentService_Delete_RemovesSource(t *testing.T) {
	repo := new(MockDocumentRepository)
	sources := new(MockSourceStore)
	svc := NewDocumentService(repo, sources, nil)

	repo.On("GetByID", mock.Anything, ragDocID).Return(&domain.Document{ID: ragDocID, Filename: "a.pdf"}, nil)
	repo.On("Delete", mock.Anything, ragDocID).Return(nil)
	sources.On("DeleteObject", mock.Anything, "documents/"+ragDocID+".pdf").Return(errors.New("gone"))

	err := svc.Delete(context.Background(), ragDocID)

	require.NoError(t, err)
	sources.AssertExpectations(t)
}

func TestDocumentService_Delete_NotFound(t *testing.T) {
	repo := new(MockDocumentRepository)
	sources := new(MockSourceStore)
	svc := NewDocumentService(repo, sources, nil)

	repo.On("GetByID", mock.Anything, ragDocID).Return(nil, domain.ErrDocumentNotFound)

	err := svc.Delete(context.Background(), ragDocID)

	assert.True(t, errors.Is(err, domain.ErrDocumentNotFound))
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	sources.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
}

func TestDocumentService_SourceURL(t *testing.T) {
	repo := new(MockDocumentRepository)
	sources := new(MockSourceStore)
	svc := NewDocumentService(repo, sources, nil)

	repo.On("GetByID", mock.Anything, ragDocID).Return(&domain.Document{ID: ragDocID, Filename: "Scan.PDF"}, nil)
	sources.On("GenerateDownloadURL", mock.Anything, "documents/"+ragDocID+".pdf").Return("https://s3/signed", nil)

	url, err := svc.SourceURL(context.Background(), ragDocID)

	require.NoError(t, err)
	assert.Equal(t, "https://s3/signed", url)
}

func TestDocumentService_SourceURL_NoStorage(t *testing.T) {
	repo := new(MockDocumentRepository)
	svc := NewDocumentService(repo, nil, nil)

	_, err := svc.SourceURL(context.Background(), ragDocID)

	require.Error(t, err)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}
