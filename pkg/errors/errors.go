// Package errors defines custom error types and error handling utilities for the auth service.
// Every error raised by the core carries a kind that maps to exactly one HTTP status at the boundary.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/turtacn/authsvc/pkg/constants"
)

// ================================================================================
// Error Kinds
// ================================================================================

// Kind classifies an application error
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindPreconditionFailed Kind = "precondition_failed"
	KindBadRequest         Kind = "bad_request"
	KindTooManyRequests    Kind = "too_many_requests"
	KindInternal           Kind = "internal_error"
)

// StatusCoder is implemented by errors that know their HTTP status
type StatusCoder interface {
	HTTPStatus() int
}

// ================================================================================
// Application Error
// ================================================================================

// AppError represents a structured application error
type AppError struct {
	kind       Kind
	httpStatus int
	message    string
	cause      error
	metadata   map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	return e.message
}

// Kind returns the error classification
func (e *AppError) Kind() Kind {
	return e.kind
}

// HTTPStatus returns the HTTP status code
func (e *AppError) HTTPStatus() int {
	return e.httpStatus
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause error to the error chain
func (e *AppError) WithCause(cause error) *AppError {
	e.cause = cause
	return e
}

// WithMetadata adds additional context metadata
func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

// Metadata returns all metadata
func (e *AppError) Metadata() map[string]interface{} {
	return e.metadata
}

// NewError creates a new AppError with the specified parameters
func NewError(kind Kind, httpStatus int, message string) *AppError {
	return &AppError{
		kind:       kind,
		httpStatus: httpStatus,
		message:    message,
	}
}

// ================================================================================
// Predefined Error Constructors
// ================================================================================

// ErrNotFound creates a not_found error
func ErrNotFound(message string) *AppError {
	return NewError(KindNotFound, http.StatusNotFound, message)
}

// ErrUnauthorized creates an unauthorized error
func ErrUnauthorized(message string) *AppError {
	return NewError(KindUnauthorized, http.StatusUnauthorized, message)
}

// ErrForbidden creates a forbidden error
func ErrForbidden(message string) *AppError {
	return NewError(KindForbidden, http.StatusForbidden, message)
}

// ErrPreconditionFailed creates a precondition_failed error
func ErrPreconditionFailed(message string) *AppError {
	return NewError(KindPreconditionFailed, http.StatusPreconditionFailed, message)
}

// ErrBadRequest creates a bad_request error
func ErrBadRequest(message string) *AppError {
	return NewError(KindBadRequest, http.StatusBadRequest, message)
}

// ErrTooManyRequests creates a too_many_requests error
func ErrTooManyRequests(message string) *AppError {
	return NewError(KindTooManyRequests, http.StatusTooManyRequests, message)
}

// ErrInternal creates an internal_error error
func ErrInternal(message string) *AppError {
	return NewError(KindInternal, http.StatusInternalServerError, message)
}

// Wrap wraps a store or infrastructure failure into an internal error, keeping the cause
func Wrap(err error, message string) *AppError {
	return ErrInternal(message).WithCause(err)
}

// ================================================================================
// Domain-Specific Error Constructors
// ================================================================================

// ErrEmailNotFound creates the not-found error raised for an unknown email
func ErrEmailNotFound(email string) *AppError {
	return ErrNotFound(fmt.Sprintf(constants.MsgEmailNotFound, email)).
		WithMetadata("email", email)
}

// ErrEmailAlreadyInUse creates the precondition error raised when an email is taken
func ErrEmailAlreadyInUse(email string) *AppError {
	return ErrPreconditionFailed(fmt.Sprintf(constants.MsgEmailAlreadyInUse, email)).
		WithMetadata("email", email)
}

// ErrMissingAuthorizationHeader creates the error raised for an absent or non-bearer header
func ErrMissingAuthorizationHeader() *AppError {
	return ErrUnauthorized(constants.MsgMissingAuthHeader)
}

// ================================================================================
// Error Validation Utilities
// ================================================================================

// AsAppError attempts to extract an AppError from the error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether any AppError in the chain has the given kind
func IsKind(err error, kind Kind) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.kind == kind
}

// IsNotFoundError checks if an error is a not found error.
func IsNotFoundError(err error) bool {
	return IsKind(err, KindNotFound)
}

// HTTPStatus returns the status an error maps to at the HTTP boundary
func HTTPStatus(err error) int {
	var sc StatusCoder
	if stderrors.As(err, &sc) {
		return sc.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// ShouldLogError determines if an error should be logged based on severity
func ShouldLogError(err error) bool {
	return HTTPStatus(err) >= http.StatusInternalServerError
}

// ================================================================================
// Error Response Builder
// ================================================================================

// ErrorResponse represents the JSON structure for error responses
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// ToErrorResponse converts any error to an ErrorResponse. Server errors never leak their message.
func ToErrorResponse(err error) *ErrorResponse {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		return &ErrorResponse{StatusCode: status, Message: constants.MsgInternalError}
	}
	return &ErrorResponse{StatusCode: status, Message: err.Error()}
}

// Is, As and New are re-exported so callers need a single errors import.
var (
	Is  = stderrors.Is
	As  = stderrors.As
	New = stderrors.New
)
