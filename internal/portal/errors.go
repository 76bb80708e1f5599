package portal

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrValidation      = errors.New("validation failed")
	ErrNotPDF          = errors.New("response is not a PDF")
	ErrConfirmPending  = errors.New("payment confirmation pending")
	ErrSuperseded      = errors.New("message superseded by a newer one")
)

// APIError is a non-2xx answer carrying the server's error text.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// Unwrap lets errors.Is(err, ErrValidation) match a 400.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusBadRequest {
		return ErrValidation
	}
	return nil
}

// FieldError is a check that failed before any request was sent.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Reason }

func (e *FieldError) Unwrap() error { return ErrValidation }

// ConfirmPendingError means the provider accepted the payment but the server
// has not confirmed it. Retry with ConfirmStripe(PaymentID).
type ConfirmPendingError struct {
	PaymentID string
	Err       error
}

func (e *ConfirmPendingError) Error() string {
	return fmt.Sprintf("payment %s: confirmation pending: %v", e.PaymentID, e.Err)
}

func (e *ConfirmPendingError) Is(target error) bool { return target == ErrConfirmPending }

func (e *ConfirmPendingError) Unwrap() error { return e.Err }

// RedirectFor maps an error to the view the UI should move to, if any.
func RedirectFor(err error) (string, bool) {
	if errors.Is(err, ErrUnauthenticated) {
		return LoginPath, true
	}
	return "", false
}
