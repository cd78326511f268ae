// Package response provides shared JSON response helpers for HTTP handlers.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sharethis/service/internal/metadata"
	"github.com/sharethis/service/internal/storage"
)

// Error codes carried in ErrorBody.Code.
const (
	CodeValidation = "validation_error"
	CodeNotFound   = "not_found"
	CodeBucket     = "bucket_error"
	CodeDB         = "db_error"
	CodeIntegrity  = "integrity_error"
	CodeCore       = "core_error"
	CodeUnassigned = "unassigned_error"
)

// ErrorBody is the uniform error envelope.
type ErrorBody struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// JSON writes a JSON-encoded payload with the given HTTP status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a 200 response with data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, ErrorBody{Status: status, Code: code, Message: message, Details: details})
}

// ValidationError writes a 400 response with per-field details.
func ValidationError(w http.ResponseWriter, details any) {
	Error(w, http.StatusBadRequest, CodeValidation, "Some of data sent in payload is invalid.", details)
}

// NotFound writes a 404 response.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, CodeNotFound, "Given resource does not exist.", nil)
}

// InternalError writes a 500 response with a generic message.
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, CodeCore, "Core generic error.", nil)
}

// FromError writes the envelope matching err and returns the status used.
func FromError(w http.ResponseWriter, err error) int {
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		NotFound(w)
		return http.StatusNotFound
	case errors.Is(err, storage.ErrStorage):
		Error(w, http.StatusInternalServerError, CodeBucket, "Object storage error.", nil)
	case errors.Is(err, metadata.ErrAmbiguousKey):
		Error(w, http.StatusInternalServerError, CodeIntegrity, "Content record is not unique.", nil)
	case errors.Is(err, metadata.ErrPersistence), errors.Is(err, metadata.ErrDuplicateKey):
		Error(w, http.StatusInternalServerError, CodeDB, "DB error.", nil)
	default:
		InternalError(w)
	}
	return http.StatusInternalServerError
}
