package chat

import "errors"

var (
	ErrEmptyMessage = errors.New("message is required")
	ErrTooLong      = errors.New("message is too long")
)

// MaxMessageLen bounds a single chat message in bytes.
const MaxMessageLen = 2000
