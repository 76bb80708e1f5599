package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"devisportal/internal/domain/payment"
)

func (c *Client) CreateStripeIntent(ctx context.Context, factureID int64) (*payment.IntentResponse, error) {
	var out payment.IntentResponse
	if err := c.doJSON(ctx, call{method: http.MethodPost, path: fmt.Sprintf("/payment/%d/intent/", factureID), protected: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmStripe asks the server to settle a payment session. Its answer is
// the only authoritative payment result.
func (c *Client) ConfirmStripe(ctx context.Context, paymentID string) (*payment.ConfirmResponse, error) {
	var out payment.ConfirmResponse
	path := "/payment/" + url.PathEscape(paymentID) + "/confirm/"
	if err := c.doJSON(ctx, call{method: http.MethodPost, path: path, protected: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StripeConfirmer runs the provider side of the payment (card entry and
// confirmation with Stripe.js or a test double).
type StripeConfirmer func(ctx context.Context, clientSecret string) error

// PayWithStripe creates an intent, lets confirm drive the provider, then asks
// the server for the outcome. When the server step fails after the provider
// succeeded the error is a *ConfirmPendingError carrying the payment id.
func (c *Client) PayWithStripe(ctx context.Context, factureID int64, confirm StripeConfirmer) (*payment.ConfirmResponse, error) {
	intent, err := c.CreateStripeIntent(ctx, factureID)
	if err != nil {
		return nil, err
	}
	if err := confirm(ctx, intent.ClientSecret); err != nil {
		return nil, fmt.Errorf("provider confirmation: %w", err)
	}
	res, err := c.ConfirmStripe(ctx, intent.PaymentID)
	if err != nil {
		return nil, &ConfirmPendingError{PaymentID: intent.PaymentID, Err: err}
	}
	if res.Status != payment.OutcomeSucceeded {
		return res, &ConfirmPendingError{PaymentID: intent.PaymentID, Err: fmt.Errorf("status %s", res.Status)}
	}
	return res, nil
}

func (c *Client) CreatePayPalOrder(ctx context.Context, factureID int64) (*payment.PayPalOrderResponse, error) {
	var out payment.PayPalOrderResponse
	if err := c.doJSON(ctx, call{method: http.MethodPost, path: fmt.Sprintf("/payment/paypal/%d/create/", factureID), protected: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ExecutePayPal(ctx context.Context, factureID int64, orderID string) (*payment.ExecuteResponse, error) {
	if orderID == "" {
		return nil, &FieldError{Field: "order_id", Reason: "required"}
	}
	cl, err := jsonCall(http.MethodPost, fmt.Sprintf("/payment/paypal/%d/execute/", factureID), payment.ExecuteRequest{OrderID: orderID}, true)
	if err != nil {
		return nil, err
	}
	var out payment.ExecuteResponse
	if err := c.doJSON(ctx, cl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
