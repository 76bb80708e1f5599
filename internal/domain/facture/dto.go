package facture

import "github.com/shopspring/decimal"

type LigneInput struct {
	Designation  string          `json:"designation" validate:"required,max=100"`
	PrixUnitaire decimal.Decimal `json:"prix_unitaire"`
	Quantite     int             `json:"quantite" validate:"gt=0"`
}

type CreateFactureRequest struct {
	ClientID      int64           `json:"client_id" validate:"required,gt=0"`
	DevisID       *int64          `json:"devis_id" validate:"omitempty,gt=0"`
	InvoiceNumber string          `json:"invoice_number" validate:"omitempty,max=20"`
	Amount        decimal.Decimal `json:"amount"`
	Status        Status          `json:"status" validate:"omitempty,oneof=unpaid paid overdue"`
	Lignes        []LigneInput    `json:"lignes" validate:"dive"`
}

// UpdateFactureRequest replaces the lines when Lignes is non-nil.
type UpdateFactureRequest struct {
	ClientID      *int64           `json:"client_id" validate:"omitempty,gt=0"`
	DevisID       *int64           `json:"devis_id" validate:"omitempty,gt=0"`
	InvoiceNumber *string          `json:"invoice_number" validate:"omitempty,min=1,max=20"`
	Amount        *decimal.Decimal `json:"amount"`
	Status        *Status          `json:"status" validate:"omitempty,oneof=unpaid paid overdue"`
	Lignes        []LigneInput     `json:"lignes" validate:"omitempty,dive"`
}
