package devis

import "github.com/shopspring/decimal"

// SubmitRequest is the client-facing quote form.
type SubmitRequest struct {
	ProjectType        string          `json:"project_type" validate:"required"`
	Budget             decimal.Decimal `json:"budget"`
	Details            string          `json:"details"`
	TypeSite           TypeSite        `json:"type_site" validate:"omitempty,oneof=vitrine ecommerce blog portfolio autre"`
	Fonctionnalites    string          `json:"fonctionnalites"`
	DesignPersonnalise bool            `json:"design_personnalise"`
	IntegrationSEO     bool            `json:"integration_seo"`
	AutreDetails       string          `json:"autre_details"`
}

type SubmitResponse struct {
	Message string `json:"message"`
	Devis   *Devis `json:"devis"`
}

type CreateDevisRequest struct {
	ClientID           int64           `json:"client_id" validate:"required,gt=0"`
	Description        string          `json:"description" validate:"required"`
	Details            string          `json:"details"`
	Amount             decimal.Decimal `json:"amount"`
	Status             Status          `json:"status" validate:"omitempty,oneof=pending approved rejected counter_offer_accepted"`
	TypeSite           TypeSite        `json:"type_site" validate:"omitempty,oneof=vitrine ecommerce blog portfolio autre"`
	Fonctionnalites    string          `json:"fonctionnalites"`
	DesignPersonnalise bool            `json:"design_personnalise"`
	IntegrationSEO     bool            `json:"integration_seo"`
	AutreDetails       string          `json:"autre_details"`
}

// UpdateDevisRequest is the admin CRUD edit. Nil fields are left unchanged;
// an empty counter_offer clears it.
type UpdateDevisRequest struct {
	Description        *string             `json:"description" validate:"omitempty,min=1"`
	Details            *string             `json:"details"`
	Amount             *decimal.Decimal    `json:"amount"`
	Status             *Status             `json:"status" validate:"omitempty,oneof=pending approved rejected counter_offer_accepted"`
	CounterOffer       *string             `json:"counter_offer"`
	CounterOfferStatus *CounterOfferStatus `json:"counter_offer_status" validate:"omitempty,oneof=none pending accepted rejected"`
	TypeSite           *TypeSite           `json:"type_site" validate:"omitempty,oneof=vitrine ecommerce blog portfolio autre"`
	Fonctionnalites    *string             `json:"fonctionnalites"`
	DesignPersonnalise *bool               `json:"design_personnalise"`
	IntegrationSEO     *bool               `json:"integration_seo"`
	AutreDetails       *string             `json:"autre_details"`
}

// DecisionRequest accepts either {"action":"approve"} or {"status":"approved"}.
type DecisionRequest struct {
	Action string `json:"action"`
	Status string `json:"status"`
}

func (r DecisionRequest) value() string {
	if r.Action != "" {
		return r.Action
	}
	return r.Status
}

type RespondRequest struct {
	Action string `json:"action" validate:"required,oneof=accept reject"`
}
