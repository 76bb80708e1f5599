package devis

import (
	"strings"

	"github.com/shopspring/decimal"

	"devisportal/internal/pkg/money"
)

// Action is a guarded lifecycle step. Admin CRUD edits bypass it.
type Action string

const (
	ActionApprove            Action = "approve"
	ActionReject             Action = "reject"
	ActionCounterOffer       Action = "counter_offer"
	ActionAcceptCounterOffer Action = "accept_counter_offer"
	ActionRejectCounterOffer Action = "reject_counter_offer"
)

// State is the part of a Devis the lifecycle reasons about.
type State struct {
	Status       Status
	CounterOffer CounterOfferStatus
}

func (d *Devis) State() State {
	return State{Status: d.Status, CounterOffer: d.CounterOfferStatus}
}

// ByClient reports whether the action belongs to the quote's owner rather than an admin.
func (a Action) ByClient() bool {
	switch a {
	case ActionAcceptCounterOffer, ActionRejectCounterOffer:
		return true
	case ActionApprove, ActionReject, ActionCounterOffer:
		return false
	}
	return false
}

// IssuesInvoice reports whether a successful transition must create or refresh the facture.
func (a Action) IssuesInvoice() bool {
	switch a {
	case ActionApprove, ActionAcceptCounterOffer:
		return true
	case ActionReject, ActionCounterOffer, ActionRejectCounterOffer:
		return false
	}
	return false
}

// CanApply checks a against s without mutating anything.
func CanApply(a Action, s State) error {
	switch a {
	case ActionApprove, ActionReject, ActionCounterOffer:
		if s.Status != StatusPending {
			return ErrInvalidTransition
		}
		if s.CounterOffer == CounterOfferPending {
			return ErrCounterOfferPending
		}
		return nil
	case ActionAcceptCounterOffer, ActionRejectCounterOffer:
		if s.Status != StatusPending || s.CounterOffer != CounterOfferPending {
			return ErrNoPendingCounterOffer
		}
		return nil
	}
	return ErrUnknownAction
}

// Apply performs a on d. counterOffer is only read for ActionCounterOffer.
func (d *Devis) Apply(a Action, counterOffer string) error {
	if a == ActionCounterOffer {
		counterOffer = strings.TrimSpace(counterOffer)
		if counterOffer == "" {
			return ErrEmptyCounterOffer
		}
	}
	if err := CanApply(a, d.State()); err != nil {
		return err
	}

	switch a {
	case ActionApprove:
		d.Status = StatusApproved
	case ActionReject:
		d.Status = StatusRejected
	case ActionCounterOffer:
		d.CounterOffer = &counterOffer
		d.CounterOfferStatus = CounterOfferPending
		d.CounterOfferAmount = counterOfferAmount(counterOffer)
	case ActionAcceptCounterOffer:
		d.Status = StatusCounterOfferAccepted
		d.CounterOfferStatus = CounterOfferAccepted
		if d.CounterOfferAmount.Valid {
			d.Amount = d.CounterOfferAmount.Decimal
		}
	case ActionRejectCounterOffer:
		// the quote stays open; the admin may approve, reject or counter again
		d.CounterOfferStatus = CounterOfferRejected
	}
	return nil
}

// ResponseAction maps the client's accept/reject answer to a lifecycle action.
func ResponseAction(answer string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "accept":
		return ActionAcceptCounterOffer, nil
	case "reject":
		return ActionRejectCounterOffer, nil
	}
	return "", ErrUnknownAction
}

// DecisionAction maps the admin decision body to a lifecycle action. Both the
// verb (approve, reject) and the target status (approved, rejected) are accepted.
func DecisionAction(value string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "approve", "approved":
		return ActionApprove, nil
	case "reject", "rejected":
		return ActionReject, nil
	}
	return "", ErrUnknownAction
}

// counterOfferAmount is the price read from the counter-offer text, when it names one.
func counterOfferAmount(text string) decimal.NullDecimal {
	if amount, ok := money.ParseLoose(text); ok && amount.IsPositive() {
		return decimal.NewNullDecimal(amount)
	}
	return decimal.NullDecimal{}
}
