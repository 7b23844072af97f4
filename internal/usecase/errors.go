package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrDuplicate          = errors.New("duplicate idempotency key")
	ErrInvalidRequest     = errors.New("missing required fields")
	ErrConfiguration      = errors.New("server configuration error")
	ErrNotFound           = errors.New("not found")
	ErrPaymentNotAllowed  = errors.New("order is already settled")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrConcurrentUpdate   = errors.New("order changed concurrently")
)

// ProviderError is a non-success answer from the payment aggregator. The status
// code and body are passed through to the caller.
type ProviderError struct {
	StatusCode int
	Message    string
	Body       json.RawMessage
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider rejected deposit (%d): %s", e.StatusCode, e.Message)
}
