package errors

import "fmt"

// ErrorCode represents a Pochi error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrInvalidImport     ErrorCode = "INVALID_IMPORT"     // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrNoMergePending    ErrorCode = "NO_MERGE_PENDING"   // 409
	ErrRemoteUnavailable ErrorCode = "REMOTE_UNAVAILABLE" // 503
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// PochiError represents a structured error with code, status, and details.
type PochiError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *PochiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *PochiError {
	return &PochiError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidImport creates a 400 error for import payloads that are not
// an ordered sequence of snippet records.
func NewInvalidImport(err error) *PochiError {
	msg := "import data must be a JSON array of snippets"
	if err != nil {
		msg = err.Error()
	}
	return &PochiError{
		Code:    ErrInvalidImport,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a snippet cannot be found.
func NewNotFound(id string) *PochiError {
	return &PochiError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("snippet not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewNoMergePending creates a 409 error for merge resolution attempts
// when no reconciliation session is open.
func NewNoMergePending() *PochiError {
	return &PochiError{
		Code:    ErrNoMergePending,
		Status:  409,
		Message: "no merge decision is pending",
	}
}

// NewRemoteUnavailable creates a 503 error for remote service failures.
func NewRemoteUnavailable(err error) *PochiError {
	msg := "remote service unavailable"
	if err != nil {
		msg = err.Error()
	}
	return &PochiError{
		Code:    ErrRemoteUnavailable,
		Status:  503,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *PochiError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &PochiError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a PochiError with the given code.
func Is(err error, code ErrorCode) bool {
	if pErr, ok := err.(*PochiError); ok {
		return pErr.Code == code
	}
	return false
}
