package client

import "errors"

var (
	ErrNotFound    = errors.New("client not found")
	ErrEmailExists = errors.New("email already exists")
	ErrClientInUse = errors.New("client has devis or factures")
	ErrForbidden   = errors.New("forbidden")
	ErrEmptyAction = errors.New("action is required")
)
