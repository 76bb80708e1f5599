package payment

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound  = errors.New("payment session not found")
	ErrFactureNotFound  = errors.New("facture not found")
	ErrForbidden        = errors.New("forbidden")
	ErrAlreadyPaid      = errors.New("facture already paid")
	ErrInvalidAmount    = errors.New("facture amount must be positive")
	ErrProviderDisabled = errors.New("payment provider not configured")
	ErrOrderMismatch    = errors.New("order does not belong to this facture")
)

// ProviderError is a failure reported by Stripe or PayPal. Message is the
// provider's own text and is returned to the caller as is.
type ProviderError struct {
	Provider Provider
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }
