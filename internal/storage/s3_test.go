package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloo-solutions/docrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentKey(t *testing.T) {
	assert.Equal(t, "documents/abc.pdf", DocumentKey("abc", "Report.PDF"))
	assert.Equal(t, "documents/abc.docx", DocumentKey("abc", "notes.final.docx"))
	assert.Equal(t, "documents/abc", DocumentKey("abc", "README"))
}

func TestNewS3Client_Defaults(t *testing.T) {
	client, err := NewS3Client(context.Background(), S3ClientConfig{
		Endpoint: "http://localhost:9000",
		Region:   "us-east-1",
		Bucket:   "docrag-sources",
	})

	require.NoError(t, err)
	assert.Equal(t, defaultDownloadURLExpiry, client.downloadURLExpiry)
	assert.Equal(t, "docrag-sources", client.bucket)
}

func TestNewS3Client_RequiresBucket(t *testing.T) {
	_, err := NewS3Client(context.Background(), S3ClientConfig{Region: "us-east-1"})

	require.Error(t, err)
}

func TestGenerateDownloadURL_Offline(t *testing.T) {
	client, err := NewS3Client(context.Background(), S3ClientConfig{
		Endpoint:          "http://localhost:9000",
		Region:            "us-east-1",
		AccessKeyID:       "key",
		SecretAccessKey:   "secret",
		Bucket:            "docrag-sources",
		UsePathStyle:      true,
		DownloadURLExpiry: 5 * time.Minute,
	})
	require.NoError(t, err)

	url, err := client.GenerateDownloadURL(context.Background(), DocumentKey("doc-1", "a.pdf"))

	require.NoError(t, err)
	assert.Contains(t, url, "/docrag-sources/documents/doc-1.pdf")
	assert.Contains(t, url, "X-Amz-Expires=300")
}

func TestStorageError(t *testing.T) {
	err := storageError("put documents/x.pdf", errors.New("connection refused"))

	assert.ErrorIs(t, err, domain.ErrStorageOperationFail)
	assert.Contains(t, err.Error(), "connection refused")
}
