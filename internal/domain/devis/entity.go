package devis

import (
	"time"

	"github.com/shopspring/decimal"

	"devisportal/internal/domain/client"
)

type Status string

const (
	StatusPending              Status = "pending"
	StatusApproved             Status = "approved"
	StatusRejected             Status = "rejected"
	StatusCounterOfferAccepted Status = "counter_offer_accepted"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCounterOfferAccepted:
		return true
	}
	return false
}

type CounterOfferStatus string

const (
	CounterOfferNone     CounterOfferStatus = "none"
	CounterOfferPending  CounterOfferStatus = "pending"
	CounterOfferAccepted CounterOfferStatus = "accepted"
	CounterOfferRejected CounterOfferStatus = "rejected"
)

func (s CounterOfferStatus) Valid() bool {
	switch s {
	case CounterOfferNone, CounterOfferPending, CounterOfferAccepted, CounterOfferRejected:
		return true
	}
	return false
}

type TypeSite string

const (
	TypeSiteVitrine   TypeSite = "vitrine"
	TypeSiteEcommerce TypeSite = "ecommerce"
	TypeSiteBlog      TypeSite = "blog"
	TypeSitePortfolio TypeSite = "portfolio"
	TypeSiteAutre     TypeSite = "autre"
)

// Devis is a quote request and its negotiation state.
type Devis struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	ClientID    int64           `gorm:"index;not null" json:"client_id"`
	Client      *client.Client  `gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT" json:"client,omitempty"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Details     string          `gorm:"type:text" json:"details"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,3);not null" json:"amount"`
	Status      Status          `gorm:"size:32;not null;default:pending;index" json:"status"`

	CounterOffer       *string             `gorm:"type:text" json:"counter_offer"`
	CounterOfferAmount decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"counter_offer_amount"`
	CounterOfferStatus CounterOfferStatus  `gorm:"size:16;not null;default:none" json:"counter_offer_status"`

	TypeSite           TypeSite `gorm:"size:16;not null;default:vitrine" json:"type_site"`
	Fonctionnalites    string   `gorm:"type:text" json:"fonctionnalites"`
	DesignPersonnalise bool     `gorm:"not null;default:false" json:"design_personnalise"`
	IntegrationSEO     bool     `gorm:"column:integration_seo;not null;default:false" json:"integration_seo"`
	AutreDetails       string   `gorm:"type:text" json:"autre_details"`

	// upload ID of the attached specification, if any
	SpecificationPDF *string `gorm:"size:64" json:"specification_pdf"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Devis) TableName() string { return "devis" }

// CheckInvariants verifies the relations between status and counter-offer fields
// that hold regardless of how a record was edited.
func (d *Devis) CheckInvariants() error {
	if !d.Status.Valid() {
		return ErrInvalidStatus
	}
	if !d.CounterOfferStatus.Valid() {
		return ErrInvalidStatus
	}
	if d.CounterOffer == nil && d.CounterOfferStatus != CounterOfferNone {
		return ErrInconsistentCounterOffer
	}
	if d.Status == StatusCounterOfferAccepted && d.CounterOfferStatus != CounterOfferAccepted {
		return ErrInconsistentCounterOffer
	}
	if !d.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// HasPendingCounterOffer reports whether the client is expected to answer.
func (d *Devis) HasPendingCounterOffer() bool {
	return d.CounterOffer != nil && d.CounterOfferStatus == CounterOfferPending
}
