// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/certstudio/backend/internal/export"
	"github.com/certstudio/backend/internal/interact"
	"github.com/certstudio/backend/internal/jobs"
	"github.com/certstudio/backend/internal/layout"
	"github.com/certstudio/backend/internal/parser"
	"github.com/certstudio/backend/internal/schedule"
	"github.com/certstudio/backend/internal/storage"
	"github.com/certstudio/backend/internal/workspace"
)

// APIError represents a structured API error response
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

// Error constructors for consistent error handling

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

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
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

// NewUnprocessableError creates a 422 error for input that parsed but cannot
// be used, such as an undecodable background image.
func NewUnprocessableError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "UNPROCESSABLE",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
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

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// FromDomainError maps a domain sentinel to an APIError. Unknown errors
// become internal errors.
func FromDomainError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, workspace.ErrBatchNotFound),
		errors.Is(err, workspace.ErrSlideNotFound),
		errors.Is(err, workspace.ErrElementNotFound),
		errors.Is(err, interact.ErrNoInstance),
		errors.Is(err, layout.ErrPresetNotFound),
		errors.Is(err, jobs.ErrJobNotFound),
		errors.Is(err, storage.ErrNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: err.Error()}

	case errors.Is(err, workspace.ErrUnknownAxis),
		errors.Is(err, workspace.ErrUnknownColumn),
		errors.Is(err, interact.ErrUnknownField),
		errors.Is(err, layout.ErrInvalidPreset):
		return &APIError{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: err.Error()}

	case errors.Is(err, workspace.ErrNoData),
		errors.Is(err, workspace.ErrNotGenerated),
		errors.Is(err, interact.ErrNoSelection),
		errors.Is(err, interact.ErrNoDrag),
		errors.Is(err, interact.ErrContainerNotReady),
		errors.Is(err, jobs.ErrJobNotReady):
		return NewConflictError(err.Error())

	case errors.Is(err, export.ErrUnsupportedImage),
		errors.Is(err, export.ErrNoBackground),
		errors.Is(err, parser.ErrUnsupportedFormat),
		errors.Is(err, parser.ErrEmptyInput):
		return NewUnprocessableError(err.Error(), nil)

	case errors.Is(err, workspace.ErrTooManyBatches),
		errors.Is(err, schedule.ErrLoopClosed):
		return NewServiceUnavailableError(err.Error())
	}
	return NewInternalError("unexpected error", err)
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError

	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &httpErr):
		apiErr = &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	default:
		apiErr = FromDomainError(err)
	}

	if apiErr.Status >= http.StatusInternalServerError {
		fmt.Printf("[API] %s %s: %v\n", c.Request().Method, c.Path(), err)
	}
	c.JSON(apiErr.Status, apiErr)
}

// RespondWithError is a helper to respond with an APIError
func RespondWithError(c echo.Context, err *APIError) error {
	return c.JSON(err.Status, err)
}
