// Package api holds the JSON envelope and error mapping shared by the HTTP
// handlers and middleware.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cloo-solutions/docrag/internal/domain"
)

// ErrCodeBodyTooLarge is reported when a request exceeds its body limit.
const ErrCodeBodyTooLarge = "BODY_TOO_LARGE"

// SuccessResponse wraps successful API responses.
type SuccessResponse struct {
	Data any `json:"data"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSON writes data as the response body with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Success writes data inside the success envelope.
func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, SuccessResponse{Data: data})
}

// Error writes a bare error message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// BodyTooLarge writes the 413 response used for every size limit.
func BodyTooLarge(w http.ResponseWriter) {
	JSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
		Error: "request body too large",
		Code:  ErrCodeBodyTooLarge,
	})
}

// IsBodyTooLarge reports whether err came from an exhausted
// http.MaxBytesReader.
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// DecodeJSON reads a required JSON body into dst. On failure it writes the
// error response and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decode(w, r, dst, false)
}

// DecodeOptionalJSON is DecodeJSON for endpoints whose body may be omitted;
// an empty body leaves dst unchanged.
func DecodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decode(w, r, dst, true)
}

func decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	if r.Body == nil {
		if optional {
			return true
		}
		Error(w, http.StatusBadRequest, "request body is required")
		return false
	}

	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil:
		return true
	case errors.Is(err, io.EOF) && optional:
		return true
	case errors.Is(err, io.EOF):
		Error(w, http.StatusBadRequest, "request body is required")
	case IsBodyTooLarge(err):
		BodyTooLarge(w)
	default:
		Error(w, http.StatusBadRequest, "invalid request body")
	}
	return false
}

// DomainErrorToHTTP maps an error to its HTTP status. Errors that are not
// domain errors are internal.
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *domain.DomainError
	if !errors.As(err, &domainErr) {
		return http.StatusInternalServerError
	}

	switch domainErr.Code {
	case domain.ErrCodeValidation, domain.ErrCodeEmptyInput:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeDimensionMismatch, domain.ErrCodeNoEmbeddings:
		return http.StatusUnprocessableEntity
	case domain.ErrCodeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes the response for err. Domain errors expose their code
// and message; internal failures are reported without their cause.
func HandleError(w http.ResponseWriter, err error) {
	status := DomainErrorToHTTP(err)
	if status == http.StatusInternalServerError {
		JSON(w, status, ErrorResponse{Error: "internal server error", Code: domain.ErrCodeInternalError})
		return
	}

	var domainErr *domain.DomainError
	errors.As(err, &domainErr)
	JSON(w, status, ErrorResponse{Error: domainErr.Message, Code: domainErr.Code})
}
