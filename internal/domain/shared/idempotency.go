package shared

import (
	"context"
	"errors"
	"time"
)

// ErrRequestInProgress is returned by Reserve while another request holding
// the same key has not completed yet
var ErrRequestInProgress = errors.New("request with this idempotency key is still in progress")

// StoredResponse is the response recorded for a completed request
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// IdempotencyStore records the outcome of create requests so retries with the
// same key replay the first response instead of creating twice.
//
// A key moves from free to pending (Reserve) to completed (Complete). Release
// returns a pending key to free so a failed request can be retried.
type IdempotencyStore interface {
	// Reserve claims the key. It returns reserved=true when the caller owns
	// the key, the stored response when the key already completed, or
	// ErrRequestInProgress when another request holds it.
	Reserve(ctx context.Context, key string, ttl time.Duration) (stored *StoredResponse, reserved bool, err error)

	// Complete stores the response for a reserved key
	Complete(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error

	// Release frees a reserved key without storing a response
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
