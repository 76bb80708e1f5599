package devis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"devisportal/internal/domain/upload"
	"devisportal/internal/pkg/actor"
	"devisportal/internal/pkg/metrics"
)

type devisRepository interface {
	Create(ctx context.Context, d *Devis) error
	GetByID(ctx context.Context, id int64) (*Devis, error)
	List(ctx context.Context, clientID int64) ([]Devis, error)
	Save(ctx context.Context, d *Devis) error
	ApplyTransition(ctx context.Context, d *Devis, from State) error
	Delete(ctx context.Context, id int64) error
}

// InvoiceIssuer creates the facture for an approved quote, or refreshes the
// existing one when the quote already has a facture.
type InvoiceIssuer interface {
	IssueForDevis(ctx context.Context, devisID, clientID int64, amount decimal.Decimal) error
}

type HistoryRecorder interface {
	Record(ctx context.Context, clientID int64, action string)
}

type SpecStore interface {
	Save(ctx context.Context, userID int64, purpose upload.Purpose, f upload.File) (*upload.Upload, error)
	Open(ctx context.Context, id string) (*upload.Upload, io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	repo     devisRepository
	invoices InvoiceIssuer
	history  HistoryRecorder
	files    SpecStore
	loggerf  func(format string, args ...interface{})
}

func NewService(repo devisRepository, invoices InvoiceIssuer, history HistoryRecorder, files SpecStore, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{repo: repo, invoices: invoices, history: history, files: files, loggerf: loggerf}
}

// Submit records a quote request from the authenticated client.
func (s *Service) Submit(ctx context.Context, a actor.Actor, req SubmitRequest) (*Devis, error) {
	if a.ClientID == 0 {
		return nil, ErrNoClient
	}
	typeSite := req.TypeSite
	if typeSite == "" {
		typeSite = TypeSiteVitrine
	}
	d := &Devis{
		ClientID:           a.ClientID,
		Description:        strings.TrimSpace(req.ProjectType),
		Details:            req.Details,
		Amount:             req.Budget,
		Status:             StatusPending,
		CounterOfferStatus: CounterOfferNone,
		TypeSite:           typeSite,
		Fonctionnalites:    req.Fonctionnalites,
		DesignPersonnalise: req.DesignPersonnalise,
		IntegrationSEO:     req.IntegrationSEO,
		AutreDetails:       req.AutreDetails,
	}
	if err := validateNew(d); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	s.history.Record(ctx, d.ClientID, fmt.Sprintf("Demande de devis soumise - %s", d.TypeSite))
	return d, nil
}

// Create is the admin path; any initial status is allowed.
func (s *Service) Create(ctx context.Context, req CreateDevisRequest) (*Devis, error) {
	status := req.Status
	if status == "" {
		status = StatusPending
	}
	typeSite := req.TypeSite
	if typeSite == "" {
		typeSite = TypeSiteVitrine
	}
	d := &Devis{
		ClientID:           req.ClientID,
		Description:        strings.TrimSpace(req.Description),
		Details:            req.Details,
		Amount:             req.Amount,
		Status:             status,
		CounterOfferStatus: CounterOfferNone,
		TypeSite:           typeSite,
		Fonctionnalites:    req.Fonctionnalites,
		DesignPersonnalise: req.DesignPersonnalise,
		IntegrationSEO:     req.IntegrationSEO,
		AutreDetails:       req.AutreDetails,
	}
	if err := validateNew(d); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// List returns every quote to admins and the caller's own quotes to clients.
func (s *Service) List(ctx context.Context, a actor.Actor) ([]Devis, error) {
	if a.IsAdmin() {
		return s.repo.List(ctx, 0)
	}
	if a.ClientID == 0 {
		return []Devis{}, nil
	}
	return s.repo.List(ctx, a.ClientID)
}

func (s *Service) Get(ctx context.Context, a actor.Actor, id int64) (*Devis, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Owns(d.ClientID) {
		return nil, ErrForbidden
	}
	return d, nil
}

// Update applies an admin edit. Status fields may be set freely but the
// counter-offer invariants still hold afterwards.
func (s *Service) Update(ctx context.Context, id int64, req UpdateDevisRequest) (*Devis, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		d.Description = strings.TrimSpace(*req.Description)
	}
	if req.Details != nil {
		d.Details = *req.Details
	}
	if req.Amount != nil {
		d.Amount = *req.Amount
	}
	if req.Status != nil {
		d.Status = *req.Status
	}
	if req.CounterOffer != nil {
		if text := strings.TrimSpace(*req.CounterOffer); text != "" {
			d.CounterOffer = &text
			d.CounterOfferAmount = counterOfferAmount(text)
		} else {
			d.CounterOffer = nil
			d.CounterOfferAmount = decimal.NullDecimal{}
		}
	}
	if req.CounterOfferStatus != nil {
		d.CounterOfferStatus = *req.CounterOfferStatus
	}
	if d.CounterOffer == nil {
		d.CounterOfferStatus = CounterOfferNone
	}
	if req.TypeSite != nil {
		d.TypeSite = *req.TypeSite
	}
	if req.Fonctionnalites != nil {
		d.Fonctionnalites = *req.Fonctionnalites
	}
	if req.DesignPersonnalise != nil {
		d.DesignPersonnalise = *req.DesignPersonnalise
	}
	if req.IntegrationSEO != nil {
		d.IntegrationSEO = *req.IntegrationSEO
	}
	if req.AutreDetails != nil {
		d.AutreDetails = *req.AutreDetails
	}

	if d.Description == "" {
		return nil, ErrEmptyDescription
	}
	if err := d.CheckInvariants(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Decide is the admin approve/reject step.
func (s *Service) Decide(ctx context.Context, id int64, action Action) (*Devis, error) {
	if action != ActionApprove && action != ActionReject {
		return nil, ErrUnknownAction
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, d, action, "")
}

// CounterOffer rejects the quote with a counter-proposal, optionally attaching
// a specification PDF. The attachment is stored only once the step is allowed.
func (s *Service) CounterOffer(ctx context.Context, a actor.Actor, id int64, text string, spec *upload.File) (*Devis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyCounterOffer
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanApply(ActionCounterOffer, d.State()); err != nil {
		return nil, err
	}

	if spec == nil {
		return s.transition(ctx, d, ActionCounterOffer, text)
	}

	u, err := s.files.Save(ctx, a.UserID, upload.PurposeSpecification, *spec)
	if err != nil {
		return nil, err
	}
	previous := d.SpecificationPDF
	d.SpecificationPDF = &u.ID
	out, err := s.transition(ctx, d, ActionCounterOffer, text)
	if err != nil {
		s.dropUpload(ctx, u.ID)
		return nil, err
	}
	if previous != nil && *previous != u.ID {
		s.dropUpload(ctx, *previous)
	}
	return out, nil
}

func (s *Service) dropUpload(ctx context.Context, id string) {
	if err := s.files.Delete(ctx, id); err != nil && !errors.Is(err, upload.ErrUploadNotFound) {
		s.loggerf("level=warn msg=\"drop specification\" upload_id=%s err=%v", id, err)
	}
}

// Respond records the owning client's answer to a pending counter-offer.
func (s *Service) Respond(ctx context.Context, a actor.Actor, id int64, answer string) (*Devis, error) {
	action, err := ResponseAction(answer)
	if err != nil {
		return nil, err
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.ClientID == 0 || a.ClientID != d.ClientID {
		return nil, ErrForbidden
	}
	return s.transition(ctx, d, action, "")
}

// Specification opens the attached PDF for the owner or an admin.
func (s *Service) Specification(ctx context.Context, a actor.Actor, id int64) (*upload.Upload, io.ReadCloser, error) {
	d, err := s.Get(ctx, a, id)
	if err != nil {
		return nil, nil, err
	}
	if d.SpecificationPDF == nil {
		return nil, nil, ErrNoSpecification
	}
	u, rc, err := s.files.Open(ctx, *d.SpecificationPDF)
	if err != nil {
		return nil, nil, fmt.Errorf("open specification %s: %w", *d.SpecificationPDF, err)
	}
	return u, rc, nil
}

func (s *Service) transition(ctx context.Context, d *Devis, action Action, text string) (*Devis, error) {
	from := d.State()
	if err := d.Apply(action, text); err != nil {
		return nil, err
	}
	if err := s.repo.ApplyTransition(ctx, d, from); err != nil {
		return nil, err
	}
	metrics.DevisTransitions.WithLabelValues(string(action)).Inc()
	s.loggerf("level=info msg=devis transition id=%d action=%s status=%s counter_offer_status=%s", d.ID, action, d.Status, d.CounterOfferStatus)

	if action.IssuesInvoice() {
		if err := s.invoices.IssueForDevis(ctx, d.ID, d.ClientID, d.Amount); err != nil {
			s.loggerf("level=error msg=facture not issued devis_id=%d err=%v", d.ID, err)
			return nil, fmt.Errorf("issue facture for devis %d: %w", d.ID, err)
		}
	}
	s.history.Record(ctx, d.ClientID, historyLine(action, d))
	return d, nil
}

func historyLine(action Action, d *Devis) string {
	switch action {
	case ActionApprove:
		return fmt.Sprintf("Devis #%d approuvé", d.ID)
	case ActionReject:
		return fmt.Sprintf("Devis #%d rejeté", d.ID)
	case ActionCounterOffer:
		return fmt.Sprintf("Contre-offre reçue pour le devis #%d", d.ID)
	case ActionAcceptCounterOffer:
		return fmt.Sprintf("Contre-offre acceptée pour le devis #%d", d.ID)
	case ActionRejectCounterOffer:
		return fmt.Sprintf("Contre-offre refusée pour le devis #%d", d.ID)
	}
	return fmt.Sprintf("Devis #%d: %s", d.ID, action)
}

func validateNew(d *Devis) error {
	if d.Description == "" {
		return ErrEmptyDescription
	}
	return d.CheckInvariants()
}
