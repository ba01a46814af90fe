package domain

import (
	"fmt"
	"strings"
	"time"
)

// Chunk is a contiguous, size-bounded slice of a document's normalized text.
type Chunk struct {
	ID         string
	DocumentID string
	ChunkIndex int
	Content    string
	Embedding  []float32
	CreatedAt  time.Time
}

// RetrievalHit is a chunk ranked by cosine distance to a query vector.
// Smaller distances are more similar.
type RetrievalHit struct {
	ChunkID    string
	DocumentID string
	ChunkIndex int
	Content    string
	Distance   float64
}

// Citation returns the tag identifying the hit's (document, chunk) pair.
func (h RetrievalHit) Citation() string {
	return CitationTag(h.DocumentID, h.ChunkIndex)
}

// CitationTag formats the citation key for a chunk.
func CitationTag(documentID string, chunkIndex int) string {
	return fmt.Sprintf("[doc:%s chunk:%d]", documentID, chunkIndex)
}

// ValidateChunks checks that chunks of one document carry non-empty content
// and indices forming the contiguous range 0..n-1 in slice order.
func ValidateChunks(chunks []Chunk) error {
	for i, c := range chunks {
		if c.ChunkIndex != i {
			return fmt.Errorf("chunk index %d out of sequence, expected %d", c.ChunkIndex, i)
		}
		if strings.TrimSpace(c.Content) == "" {
			return fmt.Errorf("chunk %d has empty content", i)
		}
		if i > 0 && c.DocumentID != chunks[0].DocumentID {
			return fmt.Errorf("chunk %d belongs to document %s, expected %s", i, c.DocumentID, chunks[0].DocumentID)
		}
	}
	return nil
}
