package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lvillar/pdfmerge"
)

// APIError is the JSON body of every error response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// fromError maps domain errors onto API errors.
func fromError(err error) *APIError {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, pdfmerge.ErrUnknownFile):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "file not found", Details: err.Error()}
	case errors.Is(err, pdfmerge.ErrNoArtifact):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "no merged document available"}
	case errors.Is(err, pdfmerge.ErrAmbiguousName), errors.Is(err, pdfmerge.ErrTooFewFiles):
		return &APIError{Status: http.StatusConflict, Code: "CONFLICT", Message: err.Error()}
	default:
		return NewInternalError("An unexpected error occurred", err)
	}
}
