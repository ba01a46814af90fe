package domain

import (
	"fmt"
	"time"
)

// Document is an ingested source file. Embedding is the mean of its chunk
// embeddings once ingestion completes and nil before that.
type Document struct {
	ID        string
	Title     string
	Filename  string
	MimeType  string
	CreatedAt time.Time
	Embedding []float32
}

// SimilarDocument is a document ranked by distance to another document's vector.
type SimilarDocument struct {
	ID       string
	Title    string
	Filename string
	Distance float64
}

// NewDocument creates a new Document. The title falls back to the filename.
func NewDocument(id, title, filename, mimeType string, createdAt time.Time) *Document {
	if title == "" {
		title = filename
	}
	return &Document{
		ID:        id,
		Title:     title,
		Filename:  filename,
		MimeType:  mimeType,
		CreatedAt: createdAt,
	}
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.Filename == "" {
		return fmt.Errorf("document Filename is required")
	}

	return nil
}
