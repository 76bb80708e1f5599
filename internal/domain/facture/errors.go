package facture

import "errors"

var (
	ErrNotFound        = errors.New("facture not found")
	ErrForbidden       = errors.New("access denied")
	ErrInvalidStatus   = errors.New("invalid facture status")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrDuplicateNumber = errors.New("invoice number already used")
	ErrNotPaid         = errors.New("facture is not paid")
	ErrNoText          = errors.New("no text detected in the file")
	ErrNoClient        = errors.New("no client to attach the facture to")
	ErrClientNotFound  = errors.New("client not found")
	ErrInvalidLine     = errors.New("invalid facture line")
	ErrNumberExhausted = errors.New("could not allocate an invoice number")
)
