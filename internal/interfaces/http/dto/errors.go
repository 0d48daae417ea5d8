package dto

import (
	"net/http"

	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
)

// Error codes produced by the HTTP layer itself. Domain codes live in
// package shared.
const (
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	ErrCodeTimeout         = "REQUEST_TIMEOUT"
	ErrCodeUnavailable     = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeValidation:        http.StatusBadRequest,
	shared.CodeNotFound:          http.StatusNotFound,
	shared.CodeConflict:          http.StatusConflict,
	shared.CodeInsufficientStock: http.StatusBadRequest,
	shared.CodeInvalidState:      http.StatusBadRequest,
	shared.CodeInvalidTransition: http.StatusBadRequest,
	shared.CodeInternal:          http.StatusInternalServerError,

	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTimeout:         http.StatusGatewayTimeout,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
