package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/poiesic/jobsift/core"
	"github.com/poiesic/jobsift/search"
)

// ErrorCode is a stable, machine-readable error identifier.
type ErrorCode string

const (
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeDataUnavailable  ErrorCode = "DATA_UNAVAILABLE"
	CodeEmbeddingFailed  ErrorCode = "EMBEDDING_FAILED"
	CodeEmbeddingTimeout ErrorCode = "EMBEDDING_TIMEOUT"
	CodeRequestCanceled  ErrorCode = "REQUEST_CANCELED"
	CodeInternalServer   ErrorCode = "INTERNAL_SERVER_ERROR"
)

// ErrorBody is the payload inside the error envelope.
type ErrorBody struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
}

// ErrorResponse is the envelope every failed request returns.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// APIError carries an HTTP status and code for an error.
type APIError struct {
	Code     ErrorCode
	Message  string
	HTTPCode int
	Err      error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *APIError) Unwrap() error {
	return e.Err
}

func newAPIError(code ErrorCode, message string, httpCode int, err error) *APIError {
	return &APIError{Code: code, Message: message, HTTPCode: httpCode, Err: err}
}

func badRequest(message string, err error) *APIError {
	return newAPIError(CodeBadRequest, message, http.StatusBadRequest, err)
}

// toAPIError maps engine errors onto HTTP statuses. A deadline inside the
// embedding provider is a gateway timeout; other provider failures are a
// bad gateway.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, core.ErrEmptyQuery), errors.Is(err, search.ErrInvalidFilters):
		return badRequest(err.Error(), err)
	case errors.Is(err, core.ErrDataUnavailable):
		return newAPIError(CodeDataUnavailable, "job data is unavailable", http.StatusServiceUnavailable, err)
	case errors.Is(err, core.ErrEmbeddingProvider) && errors.Is(err, context.DeadlineExceeded):
		return newAPIError(CodeEmbeddingTimeout, "embedding provider timed out", http.StatusGatewayTimeout, err)
	case errors.Is(err, core.ErrEmbeddingProvider):
		return newAPIError(CodeEmbeddingFailed, "embedding provider failed", http.StatusBadGateway, err)
	case errors.Is(err, context.DeadlineExceeded):
		return newAPIError(CodeEmbeddingTimeout, "request timed out", http.StatusGatewayTimeout, err)
	case errors.Is(err, context.Canceled):
		// nginx's "client closed request"
		return newAPIError(CodeRequestCanceled, "request canceled", 499, err)
	default:
		return newAPIError(CodeInternalServer, "an internal server error occurred", http.StatusInternalServerError, err)
	}
}
