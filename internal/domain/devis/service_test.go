package devis

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"devisportal/internal/database/dbtest"
	"devisportal/internal/domain/client"
	"devisportal/internal/domain/upload"
	"devisportal/internal/pkg/actor"
)

type mockIssuer struct {
	mock.Mock
}

func (m *mockIssuer) IssueForDevis(ctx context.Context, devisID, clientID int64, amount decimal.Decimal) error {
	return m.Called(ctx, devisID, clientID, amount.String()).Error(0)
}

type historyLog struct {
	lines map[int64][]string
}

func (h *historyLog) Record(_ context.Context, clientID int64, action string) {
	if h.lines == nil {
		h.lines = map[int64][]string{}
	}
	h.lines[clientID] = append(h.lines[clientID], action)
}

type fixture struct {
	svc     *Service
	issuer  *mockIssuer
	history *historyLog
	files   *upload.Service
	owner   actor.Actor
	other   actor.Actor
	admin   actor.Actor
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.Open(t, &client.Client{}, &Devis{}, &upload.Upload{})
	ctx := context.Background()

	c1 := &client.Client{Name: "Amel", Email: "amel@mail.tn", CountryCode: "+216"}
	c2 := &client.Client{Name: "Sami", Email: "sami@mail.tn", CountryCode: "+216"}
	require.NoError(t, db.WithContext(ctx).Create(c1).Error)
	require.NoError(t, db.WithContext(ctx).Create(c2).Error)

	f := &fixture{
		issuer:  new(mockIssuer),
		history: &historyLog{},
		owner:   actor.Actor{UserID: 10, ClientID: c1.ID, Role: actor.RoleClient},
		other:   actor.Actor{UserID: 11, ClientID: c2.ID, Role: actor.RoleClient},
		admin:   actor.Actor{UserID: 1, Role: actor.RoleAdmin},
	}
	f.files = upload.NewService(upload.NewRepository(db), t.TempDir())
	f.svc = NewService(NewRepository(db), f.issuer, f.history, f.files, nil)
	return f
}

func (f *fixture) submit(t *testing.T, budget string) *Devis {
	t.Helper()
	d, err := f.svc.Submit(context.Background(), f.owner, SubmitRequest{
		ProjectType: "Site vitrine",
		Budget:      decimal.RequireFromString(budget),
		TypeSite:    TypeSiteVitrine,
	})
	require.NoError(t, err)
	return d
}

func TestSubmit_CreatesPendingAndHistory(t *testing.T) {
	f := newFixture(t)

	d := f.submit(t, "500")
	assert.Equal(t, StatusPending, d.Status)
	assert.Equal(t, CounterOfferNone, d.CounterOfferStatus)
	assert.Equal(t, f.owner.ClientID, d.ClientID)
	assert.Equal(t, []string{"Demande de devis soumise - vitrine"}, f.history.lines[f.owner.ClientID])

	_, err := f.svc.Submit(context.Background(), f.owner, SubmitRequest{ProjectType: "x", Budget: decimal.Zero})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.svc.Submit(context.Background(), f.admin, SubmitRequest{ProjectType: "x", Budget: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrNoClient)
}

func TestListAndGet_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.submit(t, "500")

	mine, err := f.svc.List(ctx, f.owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.svc.List(ctx, f.other)
	require.NoError(t, err)
	assert.Empty(t, theirs)

	all, err := f.svc.List(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = f.svc.Get(ctx, f.other, d.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.Get(ctx, f.owner, d.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Client)
	assert.Equal(t, "Amel", got.Client.Name)
}

func TestCounterOfferThenAccept_IssuesInvoiceAtNewAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.submit(t, "500")

	countered, err := f.svc.CounterOffer(ctx, f.admin, d.ID, "400 TND", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, countered.Status)
	assert.Equal(t, CounterOfferPending, countered.CounterOfferStatus)
	assert.Equal(t, "400 TND", *countered.CounterOffer)

	_, err = f.svc.Decide(ctx, d.ID, ActionApprove)
	assert.ErrorIs(t, err, ErrCounterOfferPending)

	_, err = f.svc.Respond(ctx, f.other, d.ID, "accept")
	assert.ErrorIs(t, err, ErrForbidden)

	f.issuer.On("IssueForDevis", mock.Anything, d.ID, f.owner.ClientID, "400").Return(nil).Once()
	accepted, err := f.svc.Respond(ctx, f.owner, d.ID, "accept")
	require.NoError(t, err)
	assert.Equal(t, StatusCounterOfferAccepted, accepted.Status)
	assert.Equal(t, CounterOfferAccepted, accepted.CounterOfferStatus)
	f.issuer.AssertExpectations(t)

	stored, err := f.svc.Get(ctx, f.admin, d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCounterOfferAccepted, stored.Status)
	assert.True(t, stored.Amount.Equal(decimal.NewFromInt(400)))

	_, err = f.svc.Respond(ctx, f.owner, d.ID, "reject")
	assert.ErrorIs(t, err, ErrNoPendingCounterOffer)
}

func TestUpdate_EditedCounterOfferIsTheAcceptedAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.submit(t, "500")

	_, err := f.svc.CounterOffer(ctx, f.admin, d.ID, "400 TND", nil)
	require.NoError(t, err)

	text := "350 TND"
	edited, err := f.svc.Update(ctx, d.ID, UpdateDevisRequest{CounterOffer: &text})
	require.NoError(t, err)
	require.True(t, edited.CounterOfferAmount.Valid)
	assert.Equal(t, "350", edited.CounterOfferAmount.Decimal.String())

	f.issuer.On("IssueForDevis", mock.Anything, d.ID, f.owner.ClientID, "350").Return(nil).Once()
	accepted, err := f.svc.Respond(ctx, f.owner, d.ID, "accept")
	require.NoError(t, err)
	assert.True(t, accepted.Amount.Equal(decimal.NewFromInt(350)))
	f.issuer.AssertExpectations(t)

	vague := "on en discute"
	edited, err = f.svc.Update(ctx, d.ID, UpdateDevisRequest{CounterOffer: &vague})
	require.NoError(t, err)
	assert.False(t, edited.CounterOfferAmount.Valid)
}

func TestRejectCounterOffer_KeepsPendingAndNoInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.submit(t, "500")

	_, err := f.svc.CounterOffer(ctx, f.admin, d.ID, "450", nil)
	require.NoError(t, err)
	rejected, err := f.svc.Respond(ctx, f.owner, d.ID, "reject")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, rejected.Status)
	assert.Equal(t, CounterOfferRejected, rejected.CounterOfferStatus)
	f.issuer.AssertNotCalled(t, "IssueForDevis", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDecide_ApproveIssuesInvoiceOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.submit(t, "500")

	f.issuer.On("IssueForDevis", mock.Anything, d.ID, f.owner.ClientID, "500").Return(nil).Once()
	approved, err := f.svc.Decide(ctx, d.ID, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)

	_, err = f.svc.Decide(ctx, d.ID, ActionReject)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	f.issuer.AssertExpectations(t)
}

func TestDecide_IssuerFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	d := f.submit(t, "500")

	f.issuer.On("IssueForDevis", mock.Anything, d.ID, f.owner.ClientID, "500").Return(errors.New("db down"))
	_, err := f.svc.Decide(context.Background(), d.ID, ActionApprove)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestCounterOffer_WithSpecificationPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.submit(t, "500")

	pdf := []byte("%PDF-1.4\n%%EOF\n")
	spec := &upload.File{Name: "cahier.pdf", Size: int64(len(pdf)), Reader: bytes.NewReader(pdf)}
	countered, err := f.svc.CounterOffer(ctx, f.admin, d.ID, "400 TND", spec)
	require.NoError(t, err)
	require.NotNil(t, countered.SpecificationPDF)

	u, rc, err := f.svc.Specification(ctx, f.owner, d.ID)
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, pdf, body)
	assert.Equal(t, "cahier.pdf", u.OriginalName)

	_, _, err = f.svc.Specification(ctx, f.other, d.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCounterOffer_NewSpecificationReplacesOld(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.submit(t, "500")
	pdfFile := func(body string) *upload.File {
		b := []byte("%PDF-1.4\n" + body)
		return &upload.File{Name: "cahier.pdf", Size: int64(len(b)), Reader: bytes.NewReader(b)}
	}

	first, err := f.svc.CounterOffer(ctx, f.admin, d.ID, "450 TND", pdfFile("v1"))
	require.NoError(t, err)
	oldID := *first.SpecificationPDF

	_, err = f.svc.Respond(ctx, f.owner, d.ID, "reject")
	require.NoError(t, err)

	second, err := f.svc.CounterOffer(ctx, f.admin, d.ID, "420 TND", pdfFile("v2"))
	require.NoError(t, err)
	require.NotEqual(t, oldID, *second.SpecificationPDF)

	_, _, err = f.files.Open(ctx, oldID)
	assert.ErrorIs(t, err, upload.ErrUploadNotFound)
}

func TestCounterOffer_RejectsNonPDFAndEmptyText(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.submit(t, "500")

	_, err := f.svc.CounterOffer(ctx, f.admin, d.ID, "  ", nil)
	assert.ErrorIs(t, err, ErrEmptyCounterOffer)

	txt := []byte("hello")
	_, err = f.svc.CounterOffer(ctx, f.admin, d.ID, "400", &upload.File{Name: "notes.txt", Size: 5, Reader: bytes.NewReader(txt)})
	assert.ErrorIs(t, err, upload.ErrInvalidExt)

	stored, err := f.svc.Get(ctx, f.admin, d.ID)
	require.NoError(t, err)
	assert.Equal(t, CounterOfferNone, stored.CounterOfferStatus)
	assert.Nil(t, stored.CounterOffer)

	_, _, err = f.svc.Specification(ctx, f.owner, d.ID)
	assert.ErrorIs(t, err, ErrNoSpecification)
}

func TestUpdate_AdminEditKeepsInvariants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.submit(t, "500")

	rejected := StatusRejected
	updated, err := f.svc.Update(ctx, d.ID, UpdateDevisRequest{Status: &rejected})
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, updated.Status)

	// counter_offer_status without a counter-offer collapses to none
	pending := CounterOfferPending
	updated, err = f.svc.Update(ctx, d.ID, UpdateDevisRequest{CounterOfferStatus: &pending})
	require.NoError(t, err)
	assert.Equal(t, CounterOfferNone, updated.CounterOfferStatus)

	accepted := StatusCounterOfferAccepted
	_, err = f.svc.Update(ctx, d.ID, UpdateDevisRequest{Status: &accepted})
	assert.ErrorIs(t, err, ErrInconsistentCounterOffer)

	text := "300 TND"
	coAccepted := CounterOfferAccepted
	updated, err = f.svc.Update(ctx, d.ID, UpdateDevisRequest{Status: &accepted, CounterOffer: &text, CounterOfferStatus: &coAccepted})
	require.NoError(t, err)
	assert.Equal(t, StatusCounterOfferAccepted, updated.Status)

	require.NoError(t, f.svc.Delete(ctx, d.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, d.ID), ErrNotFound)
}
