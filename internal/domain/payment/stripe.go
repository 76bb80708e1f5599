package payment

import (
	"context"
	"errors"
	"strconv"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"devisportal/internal/pkg/money"
)

const unknownRisk = "unknown"

// StripeProvider creates PaymentIntents confirmed client-side with the returned secret.
type StripeProvider struct {
	api      *client.API
	currency string
}

func NewStripeProvider(secretKey, currency string) *StripeProvider {
	return NewStripeProviderWithBackends(secretKey, currency, nil)
}

// NewStripeProviderWithBackends lets tests point the SDK at a local server.
func NewStripeProviderWithBackends(secretKey, currency string, backends *stripe.Backends) *StripeProvider {
	if currency == "" {
		currency = "tnd"
	}
	return &StripeProvider{api: client.New(secretKey, backends), currency: currency}
}

func (p *StripeProvider) Name() Provider { return ProviderStripe }

func (p *StripeProvider) Create(ctx context.Context, charge Charge) (*Checkout, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(money.MinorUnits(charge.Amount, p.currency)),
		Currency: stripe.String(p.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	params.AddMetadata("facture_id", strconv.FormatInt(charge.FactureID, 10))
	params.AddMetadata("invoice_number", charge.InvoiceNumber)
	params.AddMetadata("session_id", charge.SessionID)

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, p.wrap(err)
	}
	return &Checkout{Ref: pi.ID, ClientSecret: pi.ClientSecret, RiskLevel: riskOf(pi)}, nil
}

func (p *StripeProvider) Resolve(ctx context.Context, ref string) (*Resolution, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge")

	pi, err := p.api.PaymentIntents.Get(ref, params)
	if err != nil {
		return nil, p.wrap(err)
	}
	return &Resolution{Outcome: stripeOutcome(pi.Status), RiskLevel: riskOf(pi)}, nil
}

func stripeOutcome(status stripe.PaymentIntentStatus) Outcome {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return OutcomeSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return OutcomeCancelled
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		return OutcomeFailed
	default:
		return OutcomePending
	}
}

func riskOf(pi *stripe.PaymentIntent) string {
	if pi.LatestCharge != nil && pi.LatestCharge.Outcome != nil && pi.LatestCharge.Outcome.RiskLevel != "" {
		return pi.LatestCharge.Outcome.RiskLevel
	}
	return unknownRisk
}

func (p *StripeProvider) wrap(err error) error {
	msg := err.Error()
	var se *stripe.Error
	if errors.As(err, &se) && se.Msg != "" {
		msg = se.Msg
	}
	return &ProviderError{Provider: ProviderStripe, Message: msg, Err: err}
}
