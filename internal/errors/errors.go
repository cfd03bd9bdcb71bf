package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a kb error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrConflict       ErrorCode = "CONFLICT"        // 409
	ErrRemote         ErrorCode = "REMOTE"          // status reported by the topic store
	ErrUnavailable    ErrorCode = "UNAVAILABLE"     // 503 (store unreachable)
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// KBError represents a structured error with code, status, and details.
type KBError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *KBError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *KBError {
	return &KBError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a topic cannot be found.
func NewNotFound(id string) *KBError {
	return &KBError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("topic not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewConflict creates a 409 error for conflicts reported by the store.
func NewConflict(msg string) *KBError {
	return &KBError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewRemote creates an error for an unexpected status returned by the topic store.
// The store's status code is kept so front ends can pass it through.
func NewRemote(status int, method, path string) *KBError {
	return &KBError{
		Code:    ErrRemote,
		Status:  status,
		Message: fmt.Sprintf("%s %s: store returned %d", method, path, status),
		Details: map[string]any{"method": method, "path": path},
	}
}

// NewUnavailable creates a 503 error when the topic store cannot be reached.
func NewUnavailable(err error) *KBError {
	msg := "topic store unavailable"
	if err != nil {
		msg = fmt.Sprintf("topic store unavailable: %v", err)
	}
	return &KBError{
		Code:    ErrUnavailable,
		Status:  503,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the original error is kept in Details for logging.
func NewInternal(err error) *KBError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &KBError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if err (or anything it wraps) is a KBError with the given code.
func Is(err error, code ErrorCode) bool {
	var kbErr *KBError
	if stderrors.As(err, &kbErr) {
		return kbErr.Code == code
	}
	return false
}

// As returns err as a *KBError, wrapping unknown errors as INTERNAL.
func As(err error) *KBError {
	var kbErr *KBError
	if stderrors.As(err, &kbErr) {
		return kbErr
	}
	return NewInternal(err)
}
