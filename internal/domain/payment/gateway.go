package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Charge describes what a gateway should collect. Amount is in TND.
type Charge struct {
	SessionID     string
	FactureID     int64
	InvoiceNumber string
	Amount        decimal.Decimal
}

type Checkout struct {
	Ref          string
	ClientSecret string
	ApproveURL   string
	RiskLevel    string
}

type Resolution struct {
	Outcome   Outcome
	RiskLevel string
}

// Gateway is one payment provider. Create starts a payment and Resolve asks
// the provider where it stands, capturing it when the provider requires that.
type Gateway interface {
	Name() Provider
	Create(ctx context.Context, charge Charge) (*Checkout, error)
	Resolve(ctx context.Context, ref string) (*Resolution, error)
}
