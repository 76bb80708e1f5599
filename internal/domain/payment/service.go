package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"devisportal/internal/domain/facture"
	"devisportal/internal/pkg/actor"
	"devisportal/internal/pkg/metrics"
)

// FactureLedger is the slice of the facture service payments need.
type FactureLedger interface {
	Lookup(ctx context.Context, id int64) (*facture.Facture, error)
	MarkPaid(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	store    SessionStore
	ledger   FactureLedger
	gateways map[Provider]Gateway
	loggerf  func(format string, args ...interface{})

	sessionTTL time.Duration
	outcomeTTL time.Duration
	now        func() time.Time
}

func NewService(store SessionStore, ledger FactureLedger, sessionTTL, outcomeTTL time.Duration, loggerf func(format string, args ...interface{}), gateways ...Gateway) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	s := &Service{
		store:      store,
		ledger:     ledger,
		gateways:   make(map[Provider]Gateway, len(gateways)),
		loggerf:    loggerf,
		sessionTTL: sessionTTL,
		outcomeTTL: outcomeTTL,
		now:        time.Now,
	}
	for _, g := range gateways {
		if g != nil {
			s.gateways[g.Name()] = g
		}
	}
	return s
}

// Result is the completion answer shared by every transport.
type Result struct {
	SessionID string
	FactureID int64
	Outcome   Outcome
	RiskLevel string
}

// Begin opens a provider payment for a facture and stores its session.
func (s *Service) Begin(ctx context.Context, a actor.Actor, provider Provider, factureID int64) (*Session, error) {
	gw, ok := s.gateways[provider]
	if !ok {
		return nil, ErrProviderDisabled
	}
	f, err := s.lookup(ctx, factureID)
	if err != nil {
		return nil, err
	}
	if !a.Owns(f.ClientID) {
		return nil, ErrForbidden
	}
	if f.Status == facture.StatusPaid {
		return nil, ErrAlreadyPaid
	}
	if !f.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	sess := &Session{
		ID:        uuid.NewString(),
		FactureID: f.ID,
		ClientID:  f.ClientID,
		Provider:  provider,
		Outcome:   OutcomePending,
		CreatedAt: s.now().UTC(),
	}
	checkout, err := gw.Create(ctx, Charge{
		SessionID:     sess.ID,
		FactureID:     f.ID,
		InvoiceNumber: f.InvoiceNumber,
		Amount:        f.Amount,
	})
	if err != nil {
		s.loggerf("level=error msg=payment create failed provider=%s facture_id=%d err=%v", provider, f.ID, err)
		return nil, err
	}
	sess.ProviderRef = checkout.Ref
	sess.ClientSecret = checkout.ClientSecret
	sess.ApproveURL = checkout.ApproveURL
	sess.RiskLevel = checkout.RiskLevel

	if err := s.store.Save(ctx, sess, s.sessionTTL); err != nil {
		return nil, err
	}
	s.loggerf("level=info msg=payment session opened session_id=%s provider=%s ref=%s facture_id=%d", sess.ID, provider, sess.ProviderRef, f.ID)
	return sess, nil
}

// Complete resolves a session. Every confirm and execute path ends here.
func (s *Service) Complete(ctx context.Context, a actor.Actor, sessionID string) (*Result, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, a, sess)
}

// CompleteByRef completes the session opened for a provider reference (PayPal order id).
func (s *Service) CompleteByRef(ctx context.Context, a actor.Actor, provider Provider, ref string) (*Result, error) {
	sess, err := s.store.FindByRef(ctx, provider, ref)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, a, sess)
}

// ExecutePayPal completes the order opened for factureID.
func (s *Service) ExecutePayPal(ctx context.Context, a actor.Actor, factureID int64, orderID string) (*Result, error) {
	sess, err := s.store.FindByRef(ctx, ProviderPayPal, orderID)
	if err != nil {
		return nil, err
	}
	if sess.FactureID != factureID {
		return nil, ErrOrderMismatch
	}
	return s.complete(ctx, a, sess)
}

// CompleteRedirect serves the PayPal return URL. The browser carries no token,
// so the order reference itself is the credential.
func (s *Service) CompleteRedirect(ctx context.Context, ref string) (*Result, error) {
	sess, err := s.store.FindByRef(ctx, ProviderPayPal, ref)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, actor.Actor{ClientID: sess.ClientID, Role: actor.RoleClient}, sess)
}

func (s *Service) complete(ctx context.Context, a actor.Actor, sess *Session) (*Result, error) {
	if !a.Owns(sess.ClientID) {
		return nil, ErrForbidden
	}
	if sess.Outcome.Terminal() {
		return resultOf(sess), nil
	}

	f, err := s.lookup(ctx, sess.FactureID)
	if err != nil {
		return nil, err
	}
	if f.Status == facture.StatusPaid {
		sess.Outcome = OutcomeSucceeded
		if err := s.store.Save(ctx, sess, s.outcomeTTL); err != nil {
			s.loggerf("level=warn msg=payment outcome not retained session_id=%s err=%v", sess.ID, err)
		}
		return resultOf(sess), nil
	}

	gw, ok := s.gateways[sess.Provider]
	if !ok {
		return nil, ErrProviderDisabled
	}
	res, err := gw.Resolve(ctx, sess.ProviderRef)
	if err != nil {
		s.loggerf("level=error msg=payment resolve failed session_id=%s provider=%s err=%v", sess.ID, sess.Provider, err)
		return nil, err
	}
	sess.Outcome = res.Outcome
	if res.RiskLevel != "" {
		sess.RiskLevel = res.RiskLevel
	}

	if sess.Outcome == OutcomeSucceeded {
		changed, err := s.ledger.MarkPaid(ctx, sess.FactureID)
		if err != nil {
			return nil, err
		}
		if !changed {
			s.loggerf("level=info msg=facture already paid session_id=%s facture_id=%d", sess.ID, sess.FactureID)
		}
	}

	ttl := time.Duration(0)
	if sess.Outcome.Terminal() {
		ttl = s.outcomeTTL
		metrics.PaymentsCompleted.WithLabelValues(string(sess.Provider), string(sess.Outcome)).Inc()
	}
	if err := s.store.Save(ctx, sess, ttl); err != nil {
		s.loggerf("level=warn msg=payment outcome not retained session_id=%s err=%v", sess.ID, err)
	}
	s.loggerf("level=info msg=payment session resolved session_id=%s outcome=%s risk=%s", sess.ID, sess.Outcome, sess.RiskLevel)
	return resultOf(sess), nil
}

func (s *Service) lookup(ctx context.Context, factureID int64) (*facture.Facture, error) {
	f, err := s.ledger.Lookup(ctx, factureID)
	if err != nil {
		if errors.Is(err, facture.ErrNotFound) {
			return nil, ErrFactureNotFound
		}
		return nil, err
	}
	return f, nil
}

func resultOf(sess *Session) *Result {
	risk := sess.RiskLevel
	if risk == "" {
		risk = unknownRisk
	}
	return &Result{SessionID: sess.ID, FactureID: sess.FactureID, Outcome: sess.Outcome, RiskLevel: risk}
}
