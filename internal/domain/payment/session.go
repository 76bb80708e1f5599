package payment

import "time"

type Provider string

const (
	ProviderStripe Provider = "stripe"
	ProviderPayPal Provider = "paypal"
)

type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// Terminal reports whether the outcome can no longer change.
// A failed Stripe intent may still be confirmed with another card.
func (o Outcome) Terminal() bool {
	switch o {
	case OutcomeSucceeded, OutcomeCancelled:
		return true
	case OutcomePending, OutcomeFailed:
		return false
	}
	return false
}

// Session is the ephemeral record linking a provider payment to a facture.
type Session struct {
	ID           string    `json:"id"`
	FactureID    int64     `json:"facture_id"`
	ClientID     int64     `json:"client_id"`
	Provider     Provider  `json:"provider"`
	ProviderRef  string    `json:"provider_ref"`
	ClientSecret string    `json:"client_secret,omitempty"`
	ApproveURL   string    `json:"approve_url,omitempty"`
	RiskLevel    string    `json:"risk_level"`
	Outcome      Outcome   `json:"outcome"`
	CreatedAt    time.Time `json:"created_at"`
}
