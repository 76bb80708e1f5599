package payment

type IntentResponse struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    string `json:"payment_id"`
	RiskLevel    string `json:"risk_level"`
}

type ConfirmResponse struct {
	Status    Outcome `json:"status"`
	FactureID int64   `json:"facture_id"`
	RiskLevel string  `json:"risk_level"`
}

type PayPalOrderResponse struct {
	OrderID    string `json:"order_id"`
	PaymentID  string `json:"payment_id"`
	ApproveURL string `json:"approve_url"`
}

type ExecuteRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

type ExecuteResponse struct {
	Status      Outcome `json:"status"`
	FactureID   int64   `json:"facture_id"`
	RedirectURL string  `json:"redirect_url"`
}
