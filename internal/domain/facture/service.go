package facture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"devisportal/internal/domain/client"
	"devisportal/internal/domain/upload"
	"devisportal/internal/pdf"
	"devisportal/internal/pkg/actor"
	"devisportal/internal/pkg/metrics"
)

const numberAttempts = 5

type factureRepository interface {
	Create(ctx context.Context, f *Facture) error
	GetByID(ctx context.Context, id int64) (*Facture, error)
	GetByDevisID(ctx context.Context, devisID int64) (*Facture, error)
	List(ctx context.Context, clientID int64, status Status) ([]Facture, error)
	NumbersWithPrefix(ctx context.Context, prefix string) ([]string, error)
	Update(ctx context.Context, f *Facture, replaceLines bool) error
	Reissue(ctx context.Context, id int64, amount decimal.Decimal, lines []Ligne) (bool, error)
	Delete(ctx context.Context, id int64) error
	MarkPaidIdempotent(ctx context.Context, id int64, paidAt time.Time) (bool, error)
}

type ClientDirectory interface {
	Lookup(ctx context.Context, id int64) (*client.Client, error)
	Default(ctx context.Context) (*client.Client, error)
}

type HistoryRecorder interface {
	Record(ctx context.Context, clientID int64, action string)
}

// Queue hands notifications to the background worker.
type Queue interface {
	EnqueueFactureCreated(ctx context.Context, factureID int64) error
	EnqueueReceipt(ctx context.Context, factureID int64) error
}

type Renderer interface {
	Render(ctx context.Context, inv pdf.Invoice) ([]byte, error)
}

type OCREngine interface {
	Recognize(ctx context.Context, name string, r io.Reader) (string, error)
}

type SourceStore interface {
	Save(ctx context.Context, userID int64, purpose upload.Purpose, f upload.File) (*upload.Upload, error)
	Open(ctx context.Context, id string) (*upload.Upload, io.ReadCloser, error)
}

type Service struct {
	repo     factureRepository
	clients  ClientDirectory
	history  HistoryRecorder
	queue    Queue
	renderer Renderer
	ocr      OCREngine
	files    SourceStore
	loggerf  func(format string, args ...interface{})
	now      func() time.Time
}

type Deps struct {
	Clients  ClientDirectory
	History  HistoryRecorder
	Queue    Queue
	Renderer Renderer
	OCR      OCREngine
	Files    SourceStore
}

func NewService(repo factureRepository, deps Deps, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		repo:     repo,
		clients:  deps.Clients,
		history:  deps.History,
		queue:    deps.Queue,
		renderer: deps.Renderer,
		ocr:      deps.OCR,
		files:    deps.Files,
		loggerf:  loggerf,
		now:      time.Now,
	}
}

// ParseStatus validates a list filter. The empty string means no filter.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if s == "" {
		return "", nil
	}
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// List returns all factures to admins and the caller's own to clients.
func (s *Service) List(ctx context.Context, a actor.Actor, status Status) ([]Facture, error) {
	if a.IsAdmin() {
		return s.repo.List(ctx, 0, status)
	}
	if a.ClientID == 0 {
		return []Facture{}, nil
	}
	return s.repo.List(ctx, a.ClientID, status)
}

func (s *Service) Get(ctx context.Context, a actor.Actor, id int64) (*Facture, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.Owns(f.ClientID) {
		return nil, ErrForbidden
	}
	return f, nil
}

// Lookup is an unchecked read for the payment flow and the worker.
func (s *Service) Lookup(ctx context.Context, id int64) (*Facture, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateFactureRequest) (*Facture, error) {
	if _, err := s.lookupClient(ctx, req.ClientID); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = StatusUnpaid
	}
	lines, err := buildLines(req.Lignes)
	if err != nil {
		return nil, err
	}
	amount := req.Amount
	if amount.IsZero() {
		amount = sumLines(lines)
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	f := &Facture{
		ClientID:      req.ClientID,
		DevisID:       req.DevisID,
		InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
		Amount:        amount,
		Status:        status,
		Lignes:        lines,
	}
	if status == StatusPaid {
		now := s.now()
		f.PaidAt = &now
	}
	if err := s.create(ctx, f, "manual"); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, f.ID)
}

// IssueForDevis creates the facture of an approved quote, or refreshes the
// amount and line of the one already issued for it.
func (s *Service) IssueForDevis(ctx context.Context, devisID, clientID int64, amount decimal.Decimal) error {
	existing, err := s.repo.GetByDevisID(ctx, devisID)
	switch {
	case err == nil:
		changed, err := s.repo.Reissue(ctx, existing.ID, amount, devisLines(devisID, amount))
		if err != nil {
			return err
		}
		if !changed {
			s.loggerf("level=warn msg=facture already paid, amount kept facture_id=%d devis_id=%d", existing.ID, devisID)
		}
		return nil
	case !errors.Is(err, ErrNotFound):
		return err
	}

	f := &Facture{
		ClientID: clientID,
		DevisID:  &devisID,
		Amount:   amount,
		Status:   StatusUnpaid,
		Lignes:   devisLines(devisID, amount),
	}
	return s.create(ctx, f, "devis")
}

func devisLines(devisID int64, amount decimal.Decimal) []Ligne {
	return []Ligne{{
		Designation:  fmt.Sprintf("Devis #%d", devisID),
		PrixUnitaire: amount,
		Quantite:     1,
		Total:        amount,
	}}
}

// Update is the admin edit. Moving to paid stamps paid_at.
func (s *Service) Update(ctx context.Context, id int64, req UpdateFactureRequest) (*Facture, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ClientID != nil && *req.ClientID != f.ClientID {
		if _, err := s.lookupClient(ctx, *req.ClientID); err != nil {
			return nil, err
		}
		f.ClientID = *req.ClientID
	}
	if req.DevisID != nil {
		f.DevisID = req.DevisID
	}
	if req.InvoiceNumber != nil {
		f.InvoiceNumber = strings.TrimSpace(*req.InvoiceNumber)
	}
	if req.Amount != nil {
		f.Amount = *req.Amount
	}
	if req.Status != nil {
		if *req.Status == StatusPaid && f.Status != StatusPaid {
			now := s.now()
			f.PaidAt = &now
		}
		if *req.Status != StatusPaid {
			f.PaidAt = nil
		}
		f.Status = *req.Status
	}
	replace := req.Lignes != nil
	if replace {
		lines, err := buildLines(req.Lignes)
		if err != nil {
			return nil, err
		}
		f.Lignes = lines
	}
	if !f.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	f.Client = nil
	if err := s.repo.Update(ctx, f, replace); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// ImportOCR stores the scan, reads it and books a facture for clientID, or
// for the default client when clientID is zero.
func (s *Service) ImportOCR(ctx context.Context, a actor.Actor, clientID int64, file upload.File) (*Facture, error) {
	var owner *client.Client
	var err error
	if clientID != 0 {
		owner, err = s.lookupClient(ctx, clientID)
	} else {
		owner, err = s.clients.Default(ctx)
		if errors.Is(err, client.ErrNotFound) {
			err = ErrNoClient
		}
	}
	if err != nil {
		return nil, err
	}

	stored, err := s.files.Save(ctx, a.UserID, upload.PurposeOCRSource, file)
	if err != nil {
		return nil, err
	}
	_, rc, err := s.files.Open(ctx, stored.ID)
	if err != nil {
		return nil, err
	}
	text, err := s.ocr.Recognize(ctx, stored.OriginalName, rc)
	_ = rc.Close()
	if err != nil {
		return nil, err
	}

	fields, err := Extract(text)
	if err != nil {
		return nil, err
	}
	if !fields.Amount.IsPositive() {
		s.loggerf("level=warn msg=ocr amount not found upload_id=%s", stored.ID)
	}

	f := &Facture{
		ClientID: owner.ID,
		Amount:   fields.Amount,
		Status:   fields.Status,
		Image:    &stored.ID,
	}
	if fields.NumberFound {
		f.InvoiceNumber = fields.InvoiceNumber
	}
	if fields.Status == StatusPaid {
		now := s.now()
		f.PaidAt = &now
	}
	if err := s.create(ctx, f, "ocr"); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, f.ID)
}

// RenderPDF returns the invoice document and its download name.
func (s *Service) RenderPDF(ctx context.Context, a actor.Actor, id int64) ([]byte, string, error) {
	f, err := s.Get(ctx, a, id)
	if err != nil {
		return nil, "", err
	}
	doc, err := s.renderer.Render(ctx, ToInvoice(f))
	if err != nil {
		return nil, "", err
	}
	return doc, "facture_" + f.InvoiceNumber + ".pdf", nil
}

// SendReceipt queues the receipt email. Only paid factures qualify.
func (s *Service) SendReceipt(ctx context.Context, id int64) error {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if f.Status != StatusPaid {
		return ErrNotPaid
	}
	return s.queue.EnqueueReceipt(ctx, f.ID)
}

// MarkPaid is the single paid transition used by every payment path.
func (s *Service) MarkPaid(ctx context.Context, id int64) (bool, error) {
	changed, err := s.repo.MarkPaidIdempotent(ctx, id, s.now().UTC())
	if err != nil || !changed {
		return changed, err
	}
	if f, err := s.repo.GetByID(ctx, id); err == nil {
		s.history.Record(ctx, f.ClientID, fmt.Sprintf("Paiement reçu pour la facture %s", f.InvoiceNumber))
	}
	return true, nil
}

// ToInvoice maps a facture to the printable document.
func ToInvoice(f *Facture) pdf.Invoice {
	inv := pdf.Invoice{
		Number:  f.InvoiceNumber,
		Date:    f.CreatedAt,
		Status:  string(f.Status),
		TotalHT: f.Amount,
	}
	if f.Client != nil {
		inv.ClientName = f.Client.Name
	}
	for _, l := range f.Lignes {
		inv.Lines = append(inv.Lines, pdf.Line{
			Designation:  l.Designation,
			PrixUnitaire: l.PrixUnitaire,
			Quantite:     l.Quantite,
			Total:        l.Total,
		})
	}
	return inv
}

// create allocates an invoice number when none is set and retries on collisions
// with concurrent allocations. OCR imports may carry a zero amount.
func (s *Service) create(ctx context.Context, f *Facture, source string) error {
	if f.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !f.Status.Valid() {
		return ErrInvalidStatus
	}

	generated := f.InvoiceNumber == ""
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		if generated {
			if f.InvoiceNumber, err = s.nextNumber(ctx); err != nil {
				return err
			}
		}
		err = s.repo.Create(ctx, f)
		if err == nil {
			break
		}
		if !generated || !errors.Is(err, ErrDuplicateNumber) {
			return err
		}
		f.ID = 0
		for i := range f.Lignes {
			f.Lignes[i].ID, f.Lignes[i].FactureID = 0, 0
		}
	}
	if err != nil {
		return ErrNumberExhausted
	}

	metrics.FacturesCreated.WithLabelValues(source).Inc()
	if err := s.queue.EnqueueFactureCreated(ctx, f.ID); err != nil {
		s.loggerf("level=error msg=facture sms not queued facture_id=%d err=%v", f.ID, err)
	}
	return nil
}

// nextNumber follows the highest numeric suffix of the year. Manual numbers
// with a non-numeric suffix are ignored.
func (s *Service) nextNumber(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("F%d-", s.now().Year())
	numbers, err := s.repo.NumbersWithPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	seq := 0
	for _, n := range numbers {
		v, err := strconv.Atoi(strings.TrimPrefix(n, prefix))
		if err != nil || v < 0 {
			continue
		}
		if v > seq {
			seq = v
		}
	}
	return fmt.Sprintf("%s%03d", prefix, seq+1), nil
}

func (s *Service) lookupClient(ctx context.Context, id int64) (*client.Client, error) {
	c, err := s.clients.Lookup(ctx, id)
	if errors.Is(err, client.ErrNotFound) {
		return nil, ErrClientNotFound
	}
	return c, err
}

func buildLines(in []LigneInput) ([]Ligne, error) {
	lines := make([]Ligne, 0, len(in))
	for _, l := range in {
		if strings.TrimSpace(l.Designation) == "" || l.Quantite <= 0 || l.PrixUnitaire.IsNegative() {
			return nil, ErrInvalidLine
		}
		lines = append(lines, Ligne{
			Designation:  strings.TrimSpace(l.Designation),
			PrixUnitaire: l.PrixUnitaire,
			Quantite:     l.Quantite,
			Total:        l.PrixUnitaire.Mul(decimal.NewFromInt(int64(l.Quantite))),
		})
	}
	return lines, nil
}

func sumLines(lines []Ligne) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total)
	}
	return total
}
