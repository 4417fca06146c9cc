package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"shortlink/internal/domain"
)

// Machine-readable error codes carried next to the human message
const (
	codeInvalidJSON        = "invalid_json"
	codeInvalidURL         = "invalid_url"
	codeInvalidValidity    = "invalid_validity"
	codeInvalidCode        = "invalid_code"
	codeBatchSize          = "batch_size"
	codeCollision          = "code_collision"
	codeCodeSpaceExhausted = "code_space_exhausted"
	codeNotFound           = "not_found"
	codeExpired            = "expired"
	codeInternal           = "internal"

	internalMessage = "Internal server error"
)

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// BatchErrorResponse reports a batch that stopped early, with the links made before the failure
type BatchErrorResponse struct {
	ErrorResponse
	Created []LinkResponse `json:"created"`
}

// SuccessResponse wraps every successful API payload
type SuccessResponse struct {
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case domain.IsInvalidInput(err):
		return http.StatusBadRequest
	case domain.IsCollision(err):
		return http.StatusConflict
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCodeSpaceExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorCode names the domain error behind err
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidURL):
		return codeInvalidURL
	case errors.Is(err, domain.ErrInvalidValidity):
		return codeInvalidValidity
	case errors.Is(err, domain.ErrInvalidCode):
		return codeInvalidCode
	case errors.Is(err, domain.ErrBatchSize):
		return codeBatchSize
	case domain.IsCollision(err):
		return codeCollision
	case errors.Is(err, domain.ErrCodeSpaceExhausted):
		return codeCodeSpaceExhausted
	case domain.IsNotFound(err):
		return codeNotFound
	case domain.IsExpired(err):
		return codeExpired
	default:
		return codeInternal
	}
}

// newErrorResponse builds the body for a service error
// Storage failures are reported generically; their detail only goes to the log.
func newErrorResponse(status int, err error) ErrorResponse {
	if status == http.StatusInternalServerError {
		return ErrorResponse{Error: internalMessage, Code: codeInternal}
	}
	return ErrorResponse{Error: err.Error(), Code: errorCode(err)}
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Headers are already out; a failed encode can only truncate the body
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, statusCode int, code, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

func respondSuccess(w http.ResponseWriter, statusCode int, data interface{}, message string) {
	respondJSON(w, statusCode, SuccessResponse{
		Data:    data,
		Message: message,
	})
}
