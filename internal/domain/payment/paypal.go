package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
)

// PayPal does not settle in TND, so orders are priced in USD at a configured rate.
const paypalCurrency = "USD"

type PayPalConfig struct {
	ClientID  string
	Secret    string
	Mode      string // sandbox | live
	TNDPerUSD decimal.Decimal
	ReturnURL string
	CancelURL string
}

// PayPalProvider creates capture-intent orders and captures them on completion.
type PayPalProvider struct {
	cfg PayPalConfig

	mu     sync.Mutex
	client *paypal.Client
	authed bool
}

func NewPayPalProvider(cfg PayPalConfig) (*PayPalProvider, error) {
	base := paypal.APIBaseSandBox
	if cfg.Mode == "live" {
		base = paypal.APIBaseLive
	}
	return NewPayPalProviderWithBase(cfg, base)
}

// NewPayPalProviderWithBase targets an explicit API base, used by tests.
func NewPayPalProviderWithBase(cfg PayPalConfig, apiBase string) (*PayPalProvider, error) {
	if !cfg.TNDPerUSD.IsPositive() {
		return nil, fmt.Errorf("paypal: TND rate must be positive")
	}
	c, err := paypal.NewClient(cfg.ClientID, cfg.Secret, apiBase)
	if err != nil {
		return nil, err
	}
	return &PayPalProvider{cfg: cfg, client: c}, nil
}

func (p *PayPalProvider) Name() Provider { return ProviderPayPal }

// USDAmount converts a TND amount to the order value sent to PayPal.
func (p *PayPalProvider) USDAmount(tnd decimal.Decimal) string {
	return tnd.Div(p.cfg.TNDPerUSD).RoundBank(2).StringFixed(2)
}

func (p *PayPalProvider) Create(ctx context.Context, charge Charge) (*Checkout, error) {
	if err := p.ensureToken(ctx); err != nil {
		return nil, err
	}
	units := []paypal.PurchaseUnitRequest{{
		ReferenceID: strconv.FormatInt(charge.FactureID, 10),
		CustomID:    charge.SessionID,
		InvoiceID:   charge.InvoiceNumber,
		Description: "Facture " + charge.InvoiceNumber,
		Amount: &paypal.PurchaseUnitAmount{
			Currency: paypalCurrency,
			Value:    p.USDAmount(charge.Amount),
		},
	}}
	appCtx := &paypal.ApplicationContext{
		ReturnURL: p.cfg.ReturnURL,
		CancelURL: p.cfg.CancelURL,
	}
	order, err := p.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, appCtx)
	if err != nil {
		return nil, p.wrap(err)
	}

	out := &Checkout{Ref: order.ID, RiskLevel: unknownRisk}
	for _, l := range order.Links {
		if l.Rel == "approve" {
			out.ApproveURL = l.Href
		}
	}
	return out, nil
}

// Resolve captures the order. An order that was already captured is read back instead.
func (p *PayPalProvider) Resolve(ctx context.Context, ref string) (*Resolution, error) {
	if err := p.ensureToken(ctx); err != nil {
		return nil, err
	}
	captured, err := p.client.CaptureOrder(ctx, ref, paypal.CaptureOrderRequest{})
	if err == nil {
		return &Resolution{Outcome: paypalOutcome(captured.Status), RiskLevel: unknownRisk}, nil
	}

	order, gerr := p.client.GetOrder(ctx, ref)
	if gerr != nil {
		return nil, p.wrap(err)
	}
	if order.Status == "APPROVED" || order.Status == "CREATED" {
		// capture failed on an order that is still capturable
		return nil, p.wrap(err)
	}
	return &Resolution{Outcome: paypalOutcome(order.Status), RiskLevel: unknownRisk}, nil
}

func paypalOutcome(status string) Outcome {
	switch status {
	case "COMPLETED":
		return OutcomeSucceeded
	case "VOIDED":
		return OutcomeCancelled
	default:
		return OutcomePending
	}
}

func (p *PayPalProvider) ensureToken(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.authed {
		return nil
	}
	if _, err := p.client.GetAccessToken(ctx); err != nil {
		return p.wrap(err)
	}
	p.authed = true
	return nil
}

func (p *PayPalProvider) wrap(err error) error {
	msg := err.Error()
	var pe *paypal.ErrorResponse
	if errors.As(err, &pe) && pe.Message != "" {
		msg = pe.Message
	}
	return &ProviderError{Provider: ProviderPayPal, Message: msg, Err: err}
}
