// Package servertest runs the full API against in-memory stores and stubbed
// providers, for end-to-end tests of the server and the portal client.
package servertest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"devisportal/internal/config"
	"devisportal/internal/database/dbtest"
	"devisportal/internal/domain/auth"
	"devisportal/internal/domain/devis"
	"devisportal/internal/domain/facture"
	"devisportal/internal/domain/payment"
	"devisportal/internal/ocr"
	"devisportal/internal/pdf"
	"devisportal/internal/server"
)

const (
	AdminEmail    = "admin@devis.test"
	AdminPassword = "admin-pass-123"
	FrontendURL   = "http://front.test"
)

type Harness struct {
	App    *server.App
	Server *httptest.Server
	DB     *gorm.DB
	Redis  *miniredis.Miniredis
	Config *config.Config

	Notify *Recorder
	Stripe *Gateway
	PayPal *Gateway

	renderFail atomic.Bool
	ocrMu      sync.Mutex
	ocrText    string
}

func New(t testing.TB) *Harness {
	t.Helper()
	h := &Harness{
		Notify: &Recorder{},
		Stripe: &Gateway{name: payment.ProviderStripe, outcome: payment.OutcomeSucceeded},
		PayPal: &Gateway{name: payment.ProviderPayPal, outcome: payment.OutcomeSucceeded},
	}

	h.DB = dbtest.Open(t, server.Models()...)
	h.Redis = miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: h.Redis.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	gotenberg := httptest.NewServer(http.HandlerFunc(h.serveGotenberg))
	t.Cleanup(gotenberg.Close)
	ocrStub := httptest.NewServer(http.HandlerFunc(h.serveOCR))
	t.Cleanup(ocrStub.Close)

	h.Config = &config.Config{
		AppEnv:            "test",
		JWTSecret:         "test-secret-key-with-enough-length",
		JWTAccessTTL:      time.Hour,
		JWTRefreshTTL:     24 * time.Hour,
		VerifyCodeTTL:     10 * time.Minute,
		PasswordResetTTL:  time.Hour,
		FrontendURL:       FrontendURL,
		PublicURL:         "http://api.test",
		UploadsDir:        t.TempDir(),
		PaymentSessionTTL: 30 * time.Minute,
		PaymentOutcomeTTL: 24 * time.Hour,
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
	}

	app, err := server.New(h.Config, server.Deps{
		DB:       h.DB,
		Redis:    rdb,
		Notify:   h.Notify,
		Renderer: pdf.NewInvoiceRenderer(pdf.NewClient(gotenberg.URL), pdf.Company{Name: "Ste Test", Address: "Tunis"}),
		OCR:      ocr.NewClient(ocrStub.URL),
		Gateways: []payment.Gateway{h.Stripe, h.PayPal},
	})
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	h.App = app
	h.Server = httptest.NewServer(app.Router)
	t.Cleanup(h.Server.Close)
	t.Cleanup(app.Hub.Close)

	if _, err := app.Auth.CreateAdmin(context.Background(), AdminEmail, AdminPassword); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return h
}

// APIURL is the base the portal client expects.
func (h *Harness) APIURL() string { return h.Server.URL + "/api" }

// FailRenderer makes the Gotenberg stub answer 500.
func (h *Harness) FailRenderer(fail bool) { h.renderFail.Store(fail) }

// SetOCRText is what the OCR stub recognises in the next uploads.
func (h *Harness) SetOCRText(text string) {
	h.ocrMu.Lock()
	defer h.ocrMu.Unlock()
	h.ocrText = text
}

func (h *Harness) serveGotenberg(w http.ResponseWriter, r *http.Request) {
	if h.renderFail.Load() {
		http.Error(w, "chromium crashed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write([]byte("%PDF-1.4\n% stub\n"))
}

func (h *Harness) serveOCR(w http.ResponseWriter, r *http.Request) {
	h.ocrMu.Lock()
	text := h.ocrText
	h.ocrMu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"text": text})
}

// RegisterClient creates a client account and returns its client id.
func (h *Harness) RegisterClient(t testing.TB, name, email, password string) int64 {
	t.Helper()
	res, err := h.App.Auth.Register(context.Background(), auth.RegisterRequest{
		Name: name, Email: email, Phone: "22123456", Password: password,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return res.ClientID
}

// Token signs in through the service layer and returns an access token.
func (h *Harness) Token(t testing.TB, email, password string, role auth.UserRole) string {
	t.Helper()
	pair, err := h.App.Auth.Login(context.Background(), auth.LoginRequest{Email: email, Password: password}, role)
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return pair.Access
}

func (h *Harness) AdminToken(t testing.TB) string {
	return h.Token(t, AdminEmail, AdminPassword, auth.RoleAdmin)
}

func (h *Harness) SeedDevis(t testing.TB, d devis.Devis) *devis.Devis {
	t.Helper()
	if d.Status == "" {
		d.Status = devis.StatusPending
	}
	if d.CounterOfferStatus == "" {
		d.CounterOfferStatus = devis.CounterOfferNone
	}
	if d.TypeSite == "" {
		d.TypeSite = devis.TypeSiteVitrine
	}
	if err := h.DB.Omit("Client").Create(&d).Error; err != nil {
		t.Fatalf("seed devis: %v", err)
	}
	return &d
}

func (h *Harness) SeedFacture(t testing.TB, clientID int64, number, amount string, status facture.Status) *facture.Facture {
	t.Helper()
	f := facture.Facture{
		ClientID:      clientID,
		InvoiceNumber: number,
		Amount:        decimal.RequireFromString(amount),
		Status:        status,
	}
	if status == facture.StatusPaid {
		now := time.Now().UTC()
		f.PaidAt = &now
	}
	if err := h.DB.Omit("Client", "Devis").Create(&f).Error; err != nil {
		t.Fatalf("seed facture %s: %v", number, err)
	}
	return &f
}

// Recorder stands in for the job queue.
type Recorder struct {
	mu     sync.Mutex
	events []string
	codes  map[string]string
	resets map[string]string
}

func (r *Recorder) EnqueueFactureCreated(_ context.Context, id int64) error {
	r.add(fmt.Sprintf("facture_created:%d", id))
	return nil
}

func (r *Recorder) EnqueueReceipt(_ context.Context, id int64) error {
	r.add(fmt.Sprintf("receipt:%d", id))
	return nil
}

func (r *Recorder) SendVerificationCode(_ context.Context, phone, code string) error {
	r.mu.Lock()
	if r.codes == nil {
		r.codes = map[string]string{}
	}
	r.codes[phone] = code
	r.mu.Unlock()
	r.add("verification:" + phone)
	return nil
}

func (r *Recorder) SendPasswordReset(_ context.Context, email string, userID int64, token string) error {
	r.mu.Lock()
	if r.resets == nil {
		r.resets = map[string]string{}
	}
	r.resets[email] = fmt.Sprintf("%d:%s", userID, token)
	r.mu.Unlock()
	r.add("reset:" + email)
	return nil
}

func (r *Recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *Recorder) Code(phone string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.codes[phone]
}

// Reset returns "uid:token" of the last reset sent to email.
func (r *Recorder) Reset(email string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resets[email]
}

// Gateway is a scripted payment provider.
type Gateway struct {
	name payment.Provider

	mu         sync.Mutex
	outcome    payment.Outcome
	resolveErr error
	creates    int
	resolves   int
}

func (g *Gateway) Name() payment.Provider { return g.name }

func (g *Gateway) Create(_ context.Context, c payment.Charge) (*payment.Checkout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.creates++
	ref := fmt.Sprintf("%s_%s_%d", g.name, c.InvoiceNumber, g.creates)
	return &payment.Checkout{
		Ref:          ref,
		ClientSecret: ref + "_secret",
		ApproveURL:   "https://provider.test/approve/" + ref,
		RiskLevel:    "normal",
	}, nil
}

func (g *Gateway) Resolve(_ context.Context, _ string) (*payment.Resolution, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resolves++
	if g.resolveErr != nil {
		return nil, g.resolveErr
	}
	return &payment.Resolution{Outcome: g.outcome, RiskLevel: "normal"}, nil
}

func (g *Gateway) SetOutcome(o payment.Outcome) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcome = o
}

// FailResolve makes Resolve return a provider error until cleared with nil.
func (g *Gateway) FailResolve(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resolveErr = err
}

func (g *Gateway) Resolves() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.resolves
}
