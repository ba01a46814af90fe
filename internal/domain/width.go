package domain

import "sync/atomic"

const (
	// DefaultEmbeddingWidth is the vector width used when none is configured.
	DefaultEmbeddingWidth = 768

	// MaxIndexedEmbeddingWidth is the widest vector an hnsw index accepts.
	MaxIndexedEmbeddingWidth = 2000
)

// EmbeddingWidth is the process-wide configured vector width D. It is set
// once at startup and only changed through CompareAndSwap by the dimension
// adapter.
type EmbeddingWidth struct {
	v atomic.Int64
}

// NewEmbeddingWidth creates the width cell. Non-positive widths fall back to
// DefaultEmbeddingWidth.
func NewEmbeddingWidth(d int) *EmbeddingWidth {
	if d <= 0 {
		d = DefaultEmbeddingWidth
	}
	w := &EmbeddingWidth{}
	w.v.Store(int64(d))
	return w
}

// Get returns the current width.
func (w *EmbeddingWidth) Get() int {
	return int(w.v.Load())
}

// CompareAndSwap replaces the width only if it still equals old.
func (w *EmbeddingWidth) CompareAndSwap(old, new int) bool {
	return w.v.CompareAndSwap(int64(old), int64(new))
}

// Check rejects vectors whose length differs from the current width.
func (w *EmbeddingWidth) Check(vec []float32) error {
	if expected := w.Get(); len(vec) != expected {
		return NewDimensionMismatchError(expected, len(vec))
	}
	return nil
}
