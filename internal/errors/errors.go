package errors

import "fmt"

// ErrorCode represents a Hivemind error code.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"   // 400: malformed input the caller can fix
	ErrValidationFailed ErrorCode = "VALIDATION_FAILED" // 400: submission violated field contracts
	ErrNotFound         ErrorCode = "NOT_FOUND"         // 404
	ErrRateLimited      ErrorCode = "RATE_LIMITED"      // 429
	ErrStoreUnavailable ErrorCode = "STORE_UNAVAILABLE" // 503: persistence layer unreachable
	ErrInternal         ErrorCode = "INTERNAL"          // 500
)

// HiveError represents a structured error with code, status, and details.
type HiveError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *HiveError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *HiveError {
	return &HiveError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewValidationFailed creates a 400 error carrying one issue per violated
// contract. Issues and warnings are plain maps so callers can serialize
// them without importing the validator package.
func NewValidationFailed(issues, warnings []map[string]string) *HiveError {
	return &HiveError{
		Code:    ErrValidationFailed,
		Status:  400,
		Message: "submission rejected",
		Details: map[string]any{
			"issues":   issues,
			"warnings": warnings,
		},
	}
}

// NewNotFound creates a 404 error for when an entry cannot be found.
func NewNotFound(id int64) *HiveError {
	return &HiveError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("entry %d not found", id),
		Details: map[string]any{"id": id},
	}
}

// NewRateLimited creates a 429 error when a client exceeds its submit budget.
func NewRateLimited() *HiveError {
	return &HiveError{
		Code:    ErrRateLimited,
		Status:  429,
		Message: "rate limit exceeded",
	}
}

// NewStoreUnavailable creates a 503 error when the persistence layer itself
// cannot be opened or reached. Distinct from INVALID_REQUEST: the caller
// cannot fix this by changing its input.
func NewStoreUnavailable(err error) *HiveError {
	msg := "store unavailable"
	if err != nil {
		msg = fmt.Sprintf("store unavailable: %v", err)
	}
	return &HiveError{
		Code:    ErrStoreUnavailable,
		Status:  503,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *HiveError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &HiveError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a HiveError with the given code.
func Is(err error, code ErrorCode) bool {
	if hErr, ok := err.(*HiveError); ok {
		return hErr.Code == code
	}
	return false
}
