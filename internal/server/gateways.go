package server

import (
	"strings"

	"devisportal/internal/config"
	"devisportal/internal/domain/payment"
)

// PayPalReturnPath is where PayPal sends the buyer back in redirect mode.
const PayPalReturnPath = "/api/payment/paypal/execute/"

// Gateways builds the payment providers that have credentials configured.
// A provider without credentials answers 503 PROVIDER_DISABLED.
func Gateways(cfg *config.Config) ([]payment.Gateway, error) {
	var out []payment.Gateway
	if cfg.StripeSecretKey != "" {
		out = append(out, payment.NewStripeProvider(cfg.StripeSecretKey, cfg.StripeCurrency))
	}
	if cfg.PayPalClientID != "" {
		pp, err := payment.NewPayPalProvider(payment.PayPalConfig{
			ClientID:  cfg.PayPalClientID,
			Secret:    cfg.PayPalSecret,
			Mode:      strings.ToLower(cfg.PayPalMode),
			TNDPerUSD: cfg.PayPalTNDRate,
			ReturnURL: cfg.PublicURL + PayPalReturnPath,
			CancelURL: cfg.FrontendURL + "/payment/cancel",
		})
		if err != nil {
			return nil, err
		}
		out = append(out, pp)
	}
	return out, nil
}
