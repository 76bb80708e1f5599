package facture

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"devisportal/internal/domain/client"
	"devisportal/internal/domain/devis"
)

type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnpaid, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// Facture is an invoice. DevisID is set when it was issued from a quote.
type Facture struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	ClientID      int64           `gorm:"index;not null" json:"client_id"`
	Client        *client.Client  `gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT" json:"client,omitempty"`
	DevisID       *int64          `gorm:"uniqueIndex" json:"devis_id"`
	Devis         *devis.Devis    `gorm:"foreignKey:DevisID;constraint:OnDelete:SET NULL" json:"devis,omitempty"`
	InvoiceNumber string          `gorm:"size:20;not null;uniqueIndex" json:"invoice_number"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"amount"`
	Status        Status          `gorm:"size:16;not null;default:unpaid;index" json:"status"`
	PaidAt        *time.Time      `json:"paid_at"`
	// upload ID of the scanned source for OCR imports
	Image     *string   `gorm:"size:64" json:"image"`
	Lignes    []Ligne   `gorm:"foreignKey:FactureID;constraint:OnDelete:CASCADE" json:"lignes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Facture) TableName() string { return "factures" }

// Ligne is one billed item. Total is always PrixUnitaire × Quantite.
type Ligne struct {
	ID           int64           `gorm:"primaryKey" json:"id"`
	FactureID    int64           `gorm:"index;not null" json:"-"`
	Designation  string          `gorm:"size:100;not null" json:"designation"`
	PrixUnitaire decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"prix_unitaire"`
	Quantite     int             `gorm:"not null" json:"quantite"`
	Total        decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"total"`
}

func (Ligne) TableName() string { return "lignes_facture" }

// BeforeSave keeps the stored total consistent with price and quantity.
func (l *Ligne) BeforeSave(*gorm.DB) error {
	l.Total = l.PrixUnitaire.Mul(decimal.NewFromInt(int64(l.Quantite)))
	return nil
}
