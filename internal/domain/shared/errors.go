package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by every bounded context
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidState      = "INVALID_STATE"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInternal          = "INTERNAL_ERROR"
)

// ErrorDetail describes one offending field or item of a failed operation
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// DomainError represents a domain-level error
type DomainError struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"errors,omitempty"`
	Err     error         `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError carrying the same code, so callers can write
// errors.Is(err, shared.ErrNotFound).
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy of the error with the given details attached
func (e *DomainError) WithDetails(details ...ErrorDetail) *DomainError {
	cp := *e
	cp.Details = append(append([]ErrorDetail(nil), e.Details...), details...)
	return &cp
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports malformed or missing input
func NewValidationError(message string, details ...ErrorDetail) *DomainError {
	return &DomainError{Code: CodeValidation, Message: message, Details: details}
}

// NewNotFoundError reports a tenant-scoped entity that does not exist
func NewNotFoundError(entity string, id any) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", entity),
		Details: []ErrorDetail{{Field: "id", Message: "not found", Value: id}},
	}
}

// NewConflictError reports a uniqueness violation
func NewConflictError(message string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: message}
}

// NewInsufficientStockError lists every under-stocked item
func NewInsufficientStockError(details []ErrorDetail) *DomainError {
	return &DomainError{
		Code:    CodeInsufficientStock,
		Message: fmt.Sprintf("Insufficient stock for %d item(s)", len(details)),
		Details: details,
	}
}

// NewInvalidStateError reports an unmet precondition state
func NewInvalidStateError(message string) *DomainError {
	return &DomainError{Code: CodeInvalidState, Message: message}
}

// NewInvalidTransitionError reports an illegal status change
func NewInvalidTransitionError(from, to string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot change status from %s to %s", from, to),
	}
}

// NewInternalError wraps an unexpected persistence or infrastructure failure
func NewInternalError(message string, err error) *DomainError {
	return &DomainError{Code: CodeInternal, Message: message, Err: err}
}

// AsDomainError extracts a DomainError from an error chain
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Sentinel errors for errors.Is comparisons
var (
	ErrValidation        = NewDomainError(CodeValidation, "Invalid input provided")
	ErrNotFound          = NewDomainError(CodeNotFound, "Resource not found")
	ErrConflict          = NewDomainError(CodeConflict, "Resource already exists")
	ErrInsufficientStock = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrInvalidState      = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInvalidTransition = NewDomainError(CodeInvalidTransition, "Status transition not allowed")
	ErrInternal          = NewDomainError(CodeInternal, "Internal error")
)
