package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
)

func TestStripeOutcome(t *testing.T) {
	cases := map[stripe.PaymentIntentStatus]Outcome{
		stripe.PaymentIntentStatusSucceeded:             OutcomeSucceeded,
		stripe.PaymentIntentStatusCanceled:              OutcomeCancelled,
		stripe.PaymentIntentStatusRequiresPaymentMethod: OutcomeFailed,
		stripe.PaymentIntentStatusProcessing:            OutcomePending,
		stripe.PaymentIntentStatusRequiresAction:        OutcomePending,
	}
	for in, want := range cases {
		assert.Equal(t, want, stripeOutcome(in), string(in))
	}
}

func TestRiskOf(t *testing.T) {
	assert.Equal(t, "unknown", riskOf(&stripe.PaymentIntent{}))
	pi := &stripe.PaymentIntent{LatestCharge: &stripe.Charge{Outcome: &stripe.ChargeOutcome{RiskLevel: "elevated"}}}
	assert.Equal(t, "elevated", riskOf(pi))
}

func TestOutcomeTerminal(t *testing.T) {
	assert.True(t, OutcomeSucceeded.Terminal())
	assert.True(t, OutcomeCancelled.Terminal())
	assert.False(t, OutcomeFailed.Terminal())
	assert.False(t, OutcomePending.Terminal())
}

type paypalStub struct {
	captures   atomic.Int32
	captureErr bool
	orders     []map[string]any
}

func (s *paypalStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v1/oauth2/token":
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":32400}`))
		case r.Method == http.MethodPost && r.URL.Path == "/v2/checkout/orders":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			s.orders = append(s.orders, body)
			_, _ = w.Write([]byte(`{"id":"ORD-1","status":"CREATED","links":[` +
				`{"href":"https://sandbox.paypal.test/checkoutnow?token=ORD-1","rel":"approve","method":"GET"}]}`))
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/capture"):
			s.captures.Add(1)
			if s.captureErr {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(`{"name":"UNPROCESSABLE_ENTITY","message":"The requested action could not be performed."}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"ORD-1","status":"COMPLETED"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v2/checkout/orders/ORD-1":
			_, _ = w.Write([]byte(`{"id":"ORD-1","status":"COMPLETED"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newPayPal(t *testing.T, stub *paypalStub) *PayPalProvider {
	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)
	p, err := NewPayPalProviderWithBase(PayPalConfig{
		ClientID:  "id",
		Secret:    "secret",
		TNDPerUSD: decimal.RequireFromString("3.1"),
		ReturnURL: "http://api.test/api/payment/paypal/execute/",
		CancelURL: "http://front.test/factures",
	}, srv.URL)
	require.NoError(t, err)
	return p
}

func TestPayPalProvider_CreateAndCapture(t *testing.T) {
	stub := &paypalStub{}
	p := newPayPal(t, stub)
	ctx := context.Background()

	out, err := p.Create(ctx, Charge{SessionID: "s1", FactureID: 5, InvoiceNumber: "F2026-005", Amount: decimal.RequireFromString("452.600")})
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", out.Ref)
	assert.Contains(t, out.ApproveURL, "token=ORD-1")

	require.Len(t, stub.orders, 1)
	units := stub.orders[0]["purchase_units"].([]any)
	amount := units[0].(map[string]any)["amount"].(map[string]any)
	assert.Equal(t, "USD", amount["currency_code"])
	assert.Equal(t, "146.00", amount["value"])

	res, err := p.Resolve(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
}

func TestPayPalProvider_AlreadyCapturedReadsOrder(t *testing.T) {
	stub := &paypalStub{captureErr: true}
	p := newPayPal(t, stub)

	res, err := p.Resolve(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, int32(1), stub.captures.Load())
}

func TestPayPalProvider_UnknownOrder(t *testing.T) {
	stub := &paypalStub{captureErr: true}
	p := newPayPal(t, stub)

	_, err := p.Resolve(context.Background(), "ORD-404")
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ProviderPayPal, pe.Provider)
}

func TestPayPalProvider_RejectsBadRate(t *testing.T) {
	_, err := NewPayPalProviderWithBase(PayPalConfig{TNDPerUSD: decimal.Zero}, "http://localhost")
	assert.Error(t, err)
}
