package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError carrying the same code, so
// errors.Is(err, ErrDimensionMismatch) holds for any dimension failure.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeEmptyInput        = "EMPTY_INPUT"
	ErrCodeUpstream          = "UPSTREAM_ERROR"
	ErrCodeDimensionMismatch = "DIMENSION_MISMATCH"
	ErrCodeNoEmbeddings      = "NO_EMBEDDINGS"
)

// Pipeline errors
var (
	ErrEmptyInput        = NewDomainError(ErrCodeEmptyInput, "empty text provided for embedding")
	ErrUpstream          = NewDomainError(ErrCodeUpstream, "upstream model call failed")
	ErrDimensionMismatch = NewDomainError(ErrCodeDimensionMismatch, "embedding dimension mismatch")
	ErrNoEmbeddings      = NewDomainError(ErrCodeNoEmbeddings, "no embeddings produced for any input")
)

// Validation errors
var (
	ErrUnsupportedFileType  = NewDomainError(ErrCodeValidation, "only PDF or DOCX supported")
	ErrNoExtractableText    = NewDomainError(ErrCodeValidation, "no extractable text found")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrDocumentNotFound   = NewDomainError(ErrCodeNotFound, "document not found")
	ErrSourceFileNotFound = NewDomainError(ErrCodeNotFound, "document source file not found")
	ErrPageNotFound       = NewDomainError(ErrCodeNotFound, "page not found")
)

// Storage errors
var (
	ErrStorageOperationFail = NewDomainError(ErrCodeInternalError, "storage operation failed")
)

// NewDimensionMismatchError reports a vector whose width disagrees with the
// configured embedding width.
func NewDimensionMismatchError(expected, got int) *DomainError {
	return NewDomainError(ErrCodeDimensionMismatch,
		fmt.Sprintf("embedding dim %d does not match expected %d", got, expected))
}

// NewWidthTooLargeError reports a vector wider than an hnsw index can hold.
func NewWidthTooLargeError(got int) *DomainError {
	return NewDomainError(ErrCodeDimensionMismatch,
		fmt.Sprintf("embedding dim %d exceeds the maximum indexable width %d", got, MaxIndexedEmbeddingWidth))
}

// NewUpstreamError wraps a failed or unusable remote call.
func NewUpstreamError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeUpstream, message, err)
}

// NewValidationError reports bad caller input.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidation, message)
}
