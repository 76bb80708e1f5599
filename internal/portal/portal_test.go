package portal_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devisportal/internal/domain/catalog"
	"devisportal/internal/domain/devis"
	"devisportal/internal/domain/facture"
	"devisportal/internal/domain/payment"
	"devisportal/internal/portal"
	"devisportal/internal/server/servertest"
)

type countingTransport struct {
	n atomic.Int32
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.n.Add(1)
	return http.DefaultTransport.RoundTrip(r)
}

func newPortal(h *servertest.Harness) (*portal.Client, *countingTransport) {
	tr := &countingTransport{}
	return portal.New(h.APIURL(), nil, portal.WithHTTPClient(&http.Client{Transport: tr})), tr
}

func signedInClient(t *testing.T, h *servertest.Harness, name, email string) (*portal.Client, int64) {
	t.Helper()
	id := h.RegisterClient(t, name, email, "client-pass-1")
	c, _ := newPortal(h)
	_, err := c.Login(context.Background(), email, "client-pass-1")
	require.NoError(t, err)
	return c, id
}

func signedInAdmin(t *testing.T, h *servertest.Harness) *portal.Client {
	t.Helper()
	c, _ := newPortal(h)
	st, err := c.LoginAdmin(context.Background(), servertest.AdminEmail, servertest.AdminPassword)
	require.NoError(t, err)
	require.Equal(t, "admin", st.Role())
	return c
}

func TestProtectedCallWithoutTokenNeverLeaves(t *testing.T) {
	h := servertest.New(t)
	c, tr := newPortal(h)

	_, err := c.ListFactures(context.Background(), "")
	require.ErrorIs(t, err, portal.ErrUnauthenticated)
	assert.Zero(t, tr.n.Load())

	path, ok := portal.RedirectFor(err)
	assert.True(t, ok)
	assert.Equal(t, portal.LoginPath, path)
}

func TestLoginRejectionIsAnAPIError(t *testing.T) {
	h := servertest.New(t)
	h.RegisterClient(t, "Amira", "amira@example.tn", "client-pass-1")
	c, _ := newPortal(h)

	_, err := c.Login(context.Background(), "amira@example.tn", "wrong")
	var apiErr *portal.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.False(t, c.Session().State().Authenticated())

	_, err = c.LoginAdmin(context.Background(), "amira@example.tn", "client-pass-1")
	require.ErrorAs(t, err, &apiErr)
}

func TestRejectedTokenClearsSession(t *testing.T) {
	h := servertest.New(t)
	sess := portal.NewSession()
	sess.Dispatch(portal.LoginAction("not-a-token", "nope"))
	var cleared atomic.Bool
	sess.Subscribe(func(s portal.State) { cleared.Store(!s.Authenticated()) })

	c := portal.New(h.APIURL(), sess)
	_, err := c.ListDevis(context.Background())
	require.ErrorIs(t, err, portal.ErrUnauthenticated)
	assert.True(t, cleared.Load())
	assert.False(t, sess.State().Authenticated())
}

func TestFactureStatusFilter(t *testing.T) {
	h := servertest.New(t)
	c, id := signedInClient(t, h, "Amira", "amira@example.tn")
	h.SeedFacture(t, id, "F2026-001", "100", facture.StatusUnpaid)
	h.SeedFacture(t, id, "F2026-002", "250.500", facture.StatusPaid)
	h.SeedFacture(t, id, "F2026-003", "80", facture.StatusOverdue)
	ctx := context.Background()

	all, err := c.ListFactures(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	paid, err := c.ListFactures(ctx, facture.StatusPaid)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, "F2026-002", paid[0].InvoiceNumber)

	_, err = c.ListFactures(ctx, "lost")
	assert.ErrorIs(t, err, portal.ErrValidation)

	board := portal.NewFactureBoard(all)
	assert.Len(t, board.Filter(facture.StatusOverdue), 1)
}

func TestCounterOfferRoundTrip(t *testing.T) {
	h := servertest.New(t)
	client, clientID := signedInClient(t, h, "Amira", "amira@example.tn")
	admin, tr := newPortal(h)
	_, err := admin.LoginAdmin(context.Background(), servertest.AdminEmail, servertest.AdminPassword)
	require.NoError(t, err)
	ctx := context.Background()

	d := h.SeedDevis(t, devis.Devis{ClientID: clientID, Description: "Site vitrine", Amount: decimal.NewFromInt(500)})

	before := tr.n.Load()
	_, err = admin.SubmitCounterOffer(ctx, d.ID, "   ", nil)
	assert.ErrorIs(t, err, portal.ErrValidation)
	_, err = admin.SubmitCounterOffer(ctx, d.ID, "400 TND", &portal.FilePart{Name: "cahier.docx", Reader: strings.NewReader("x")})
	assert.ErrorIs(t, err, portal.ErrValidation)
	assert.Equal(t, before, tr.n.Load(), "invalid input must not reach the server")

	updated, err := admin.SubmitCounterOffer(ctx, d.ID, "400 TND", &portal.FilePart{Name: "cahier.pdf", Reader: strings.NewReader("%PDF-1.4 spec")})
	require.NoError(t, err)
	assert.Equal(t, devis.StatusPending, updated.Status)
	assert.Equal(t, devis.CounterOfferPending, updated.CounterOfferStatus)

	list, err := client.ListDevis(ctx)
	require.NoError(t, err)
	board := portal.NewDevisBoard(list)
	mine, ok := board.Get(d.ID)
	require.True(t, ok)
	assert.True(t, portal.CanRespond(mine))

	spec, err := client.DownloadSpecificationPDF(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(spec), "%PDF"))

	accepted, err := board.Respond(ctx, client, d.ID, "accept")
	require.NoError(t, err)
	assert.Equal(t, devis.StatusCounterOfferAccepted, accepted.Status)
	assert.Equal(t, devis.CounterOfferAccepted, accepted.CounterOfferStatus)

	mine, _ = board.Get(d.ID)
	assert.Equal(t, *accepted, mine)
	assert.False(t, portal.CanRespond(mine))

	_, err = board.Respond(ctx, client, d.ID, "reject")
	var apiErr *portal.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	mine, _ = board.Get(d.ID)
	assert.Equal(t, *accepted, mine, "a failed respond leaves the board alone")
}

func TestFacturePDF(t *testing.T) {
	h := servertest.New(t)
	c, id := signedInClient(t, h, "Amira", "amira@example.tn")
	f := h.SeedFacture(t, id, "F2026-010", "120", facture.StatusUnpaid)
	ctx := context.Background()

	doc, err := c.DownloadFacturePDF(ctx, f.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(doc), "%PDF"))

	h.FailRenderer(true)
	_, err = c.DownloadFacturePDF(ctx, f.ID)
	assert.ErrorIs(t, err, portal.ErrNotPDF)
}

func TestPDFDownloadRejectsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"Génération impossible","code":"RENDERER_UNAVAILABLE"}`))
	}))
	defer srv.Close()

	sess := portal.NewSession()
	sess.Dispatch(portal.LoginAction("token", "refresh"))
	c := portal.New(srv.URL, sess)

	_, err := c.DownloadFacturePDF(context.Background(), 1)
	require.ErrorIs(t, err, portal.ErrNotPDF)
	assert.Contains(t, err.Error(), "Génération impossible")
}

func TestPayWithStripe(t *testing.T) {
	h := servertest.New(t)
	c, id := signedInClient(t, h, "Amira", "amira@example.tn")
	ctx := context.Background()
	var secrets []string
	confirm := func(_ context.Context, secret string) error {
		secrets = append(secrets, secret)
		return nil
	}

	first := h.SeedFacture(t, id, "F2026-020", "300", facture.StatusUnpaid)
	res, err := c.PayWithStripe(ctx, first.ID, confirm)
	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeSucceeded, res.Status)
	require.Len(t, secrets, 1)

	got, err := c.GetFacture(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, facture.StatusPaid, got.Status)

	second := h.SeedFacture(t, id, "F2026-021", "90", facture.StatusUnpaid)
	h.Stripe.FailResolve(errors.New("stripe timeout"))
	_, err = c.PayWithStripe(ctx, second.ID, confirm)
	require.ErrorIs(t, err, portal.ErrConfirmPending)
	var pending *portal.ConfirmPendingError
	require.ErrorAs(t, err, &pending)
	require.NotEmpty(t, pending.PaymentID)

	h.Stripe.FailResolve(nil)
	res, err = c.ConfirmStripe(ctx, pending.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeSucceeded, res.Status)

	var apiErr *portal.APIError
	require.ErrorAs(t, c.SendReceipt(ctx, second.ID), &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)

	admin := signedInAdmin(t, h)
	require.NoError(t, admin.SendReceipt(ctx, second.ID))
	assert.Contains(t, h.Notify.Events(), "receipt:"+strconv.FormatInt(second.ID, 10))

	_, err = c.PayWithStripe(ctx, second.ID, confirm)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
}

func TestPayPalOrder(t *testing.T) {
	h := servertest.New(t)
	c, id := signedInClient(t, h, "Amira", "amira@example.tn")
	f := h.SeedFacture(t, id, "F2026-030", "150", facture.StatusUnpaid)
	ctx := context.Background()

	order, err := c.CreatePayPalOrder(ctx, f.ID)
	require.NoError(t, err)
	require.NotEmpty(t, order.ApproveURL)

	_, err = c.ExecutePayPal(ctx, f.ID, "")
	assert.ErrorIs(t, err, portal.ErrValidation)

	res, err := c.ExecutePayPal(ctx, f.ID, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, payment.OutcomeSucceeded, res.Status)
}

func TestOCRImportMergesIntoBoard(t *testing.T) {
	h := servertest.New(t)
	_, clientID := signedInClient(t, h, "Amira", "amira@example.tn")
	admin := signedInAdmin(t, h)
	ctx := context.Background()
	h.SetOCRText("Facture F2026-123\nTotal: 1250,500 TND\nStatut: Payée")

	existing := h.SeedFacture(t, clientID, "F2026-001", "10", facture.StatusUnpaid)
	board := portal.NewFactureBoard([]facture.Facture{*existing})

	f, err := admin.ImportOCR(ctx, portal.FilePart{Name: "scan.pdf", Reader: strings.NewReader("%PDF-1.4 scan")}, clientID)
	require.NoError(t, err)
	assert.Equal(t, facture.StatusPaid, f.Status)
	assert.True(t, decimal.RequireFromString("1250.5").Equal(f.Amount))

	board.Merge(*f)
	items := board.Items()
	require.Len(t, items, 2)
	assert.Equal(t, f.ID, items[0].ID)

	_, err = admin.ImportOCR(ctx, portal.FilePart{}, clientID)
	assert.ErrorIs(t, err, portal.ErrValidation)
}

func TestChatAndCatalog(t *testing.T) {
	h := servertest.New(t)
	c, _ := signedInClient(t, h, "Amira", "amira@example.tn")
	ctx := context.Background()

	_, err := h.App.Catalog.CreateOffering(ctx, catalog.OfferingRequest{Name: "Site vitrine", Category: catalog.CategoryWeb, Features: []string{"SEO"}})
	require.NoError(t, err)
	_, err = h.App.Catalog.CreateOffering(ctx, catalog.OfferingRequest{Name: "Logo", Category: catalog.CategoryDesign})
	require.NoError(t, err)

	anon, _ := newPortal(h)
	web, err := anon.ListServices(ctx, "web")
	require.NoError(t, err)
	require.Len(t, web, 1)
	assert.Equal(t, "Site vitrine", web[0].Name)

	testimonials, err := anon.ListTestimonials(ctx)
	require.NoError(t, err)
	assert.Empty(t, testimonials)

	reply, err := c.Chat(ctx, "aide")
	require.NoError(t, err)
	assert.Contains(t, reply, "paiement")

	_, err = anon.Chat(ctx, "aide")
	assert.ErrorIs(t, err, portal.ErrUnauthenticated)
}
