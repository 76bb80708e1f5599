package devis

import "errors"

var (
	ErrNotFound                 = errors.New("devis not found")
	ErrForbidden                = errors.New("access denied")
	ErrNoClient                 = errors.New("no client linked to this account")
	ErrInvalidTransition        = errors.New("transition not allowed from current state")
	ErrCounterOfferPending      = errors.New("a counter-offer is awaiting the client's answer")
	ErrNoPendingCounterOffer    = errors.New("no counter-offer awaiting an answer")
	ErrEmptyCounterOffer        = errors.New("counter-offer text is required")
	ErrUnknownAction            = errors.New("unknown action")
	ErrInvalidStatus            = errors.New("invalid status")
	ErrInconsistentCounterOffer = errors.New("status and counter-offer fields are inconsistent")
	ErrInvalidAmount            = errors.New("amount must be greater than zero")
	ErrEmptyDescription         = errors.New("description is required")
	ErrNoSpecification          = errors.New("no specification attached")
)
