package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devisportal/internal/domain/facture"
	"devisportal/internal/pkg/actor"
)

type fakeLedger struct {
	mu       sync.Mutex
	factures map[int64]*facture.Facture
	marks    int
}

func newLedger(fs ...facture.Facture) *fakeLedger {
	l := &fakeLedger{factures: map[int64]*facture.Facture{}}
	for i := range fs {
		f := fs[i]
		l.factures[f.ID] = &f
	}
	return l
}

func (l *fakeLedger) Lookup(_ context.Context, id int64) (*facture.Facture, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.factures[id]
	if !ok {
		return nil, facture.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (l *fakeLedger) MarkPaid(_ context.Context, id int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.factures[id]
	if !ok {
		return false, facture.ErrNotFound
	}
	if f.Status == facture.StatusPaid {
		return false, nil
	}
	f.Status = facture.StatusPaid
	l.marks++
	return true, nil
}

type fakeGateway struct {
	mu        sync.Mutex
	name      Provider
	createErr error
	outcome   Outcome
	resolves  int
	charges   []Charge
}

func (g *fakeGateway) Name() Provider { return g.name }

func (g *fakeGateway) Create(_ context.Context, c Charge) (*Checkout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.charges = append(g.charges, c)
	ref := string(g.name) + "_ref_" + c.InvoiceNumber
	return &Checkout{Ref: ref, ClientSecret: ref + "_secret", ApproveURL: "https://paypal.test/approve/" + ref}, nil
}

func (g *fakeGateway) Resolve(_ context.Context, _ string) (*Resolution, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resolves++
	return &Resolution{Outcome: g.outcome, RiskLevel: "normal"}, nil
}

type fixture struct {
	mr     *miniredis.Miniredis
	store  *RedisSessionStore
	ledger *fakeLedger
	stripe *fakeGateway
	paypal *fakeGateway
	svc    *Service
	owner  actor.Actor
	other  actor.Actor
	admin  actor.Actor
}

func newFixture(t *testing.T) *fixture {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := &fixture{
		mr:    mr,
		store: NewRedisSessionStore(rdb),
		ledger: newLedger(
			facture.Facture{ID: 1, ClientID: 7, InvoiceNumber: "F2026-001", Amount: decimal.RequireFromString("452.600"), Status: facture.StatusUnpaid},
			facture.Facture{ID: 2, ClientID: 7, InvoiceNumber: "F2026-002", Amount: decimal.RequireFromString("100"), Status: facture.StatusPaid},
		),
		stripe: &fakeGateway{name: ProviderStripe, outcome: OutcomeSucceeded},
		paypal: &fakeGateway{name: ProviderPayPal, outcome: OutcomeSucceeded},
		owner:  actor.Actor{UserID: 3, ClientID: 7, Role: actor.RoleClient},
		other:  actor.Actor{UserID: 4, ClientID: 8, Role: actor.RoleClient},
		admin:  actor.Actor{UserID: 1, Role: actor.RoleAdmin},
	}
	f.svc = NewService(f.store, f.ledger, 30*time.Minute, 24*time.Hour, nil, f.stripe, f.paypal)
	return f
}

func TestBegin_StoresSessionWithTTL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Begin(ctx, f.owner, ProviderStripe, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "stripe_ref_F2026-001", sess.ProviderRef)
	assert.Equal(t, OutcomePending, sess.Outcome)
	require.Len(t, f.stripe.charges, 1)
	assert.Equal(t, "452.6", f.stripe.charges[0].Amount.String())

	assert.Equal(t, 30*time.Minute, f.mr.TTL("payment:session:"+sess.ID))
	assert.Equal(t, 30*time.Minute, f.mr.TTL("payment:ref:stripe:stripe_ref_F2026-001"))

	stored, err := f.store.FindByRef(ctx, ProviderStripe, sess.ProviderRef)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, stored.ID)
	assert.Equal(t, int64(7), stored.ClientID)
}

func TestBegin_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Begin(ctx, f.other, ProviderStripe, 1)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Begin(ctx, f.owner, ProviderStripe, 2)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	_, err = f.svc.Begin(ctx, f.owner, ProviderStripe, 99)
	assert.ErrorIs(t, err, ErrFactureNotFound)

	svc := NewService(f.store, f.ledger, time.Minute, time.Minute, nil, f.stripe)
	_, err = svc.Begin(ctx, f.owner, ProviderPayPal, 1)
	assert.ErrorIs(t, err, ErrProviderDisabled)

	f.stripe.createErr = &ProviderError{Provider: ProviderStripe, Message: "card declined"}
	_, err = f.svc.Begin(ctx, f.admin, ProviderStripe, 1)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "card declined", pe.Message)
}

func TestComplete_MarksPaidOnceAndReplays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Begin(ctx, f.owner, ProviderStripe, 1)
	require.NoError(t, err)

	res, err := f.svc.Complete(ctx, f.owner, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, int64(1), res.FactureID)
	assert.Equal(t, "normal", res.RiskLevel)
	assert.Equal(t, 1, f.ledger.marks)
	assert.Equal(t, 24*time.Hour, f.mr.TTL("payment:session:"+sess.ID))

	again, err := f.svc.Complete(ctx, f.admin, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, again.Outcome)
	assert.Equal(t, 1, f.stripe.resolves, "replay answers from the stored outcome")
	assert.Equal(t, 1, f.ledger.marks)
}

func TestComplete_PendingKeepsExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stripe.outcome = OutcomePending

	sess, err := f.svc.Begin(ctx, f.owner, ProviderStripe, 1)
	require.NoError(t, err)
	f.mr.FastForward(10 * time.Minute)

	res, err := f.svc.Complete(ctx, f.owner, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, res.Outcome)
	assert.Equal(t, 0, f.ledger.marks)
	assert.Equal(t, 20*time.Minute, f.mr.TTL("payment:session:"+sess.ID))

	f.mr.FastForward(21 * time.Minute)
	_, err = f.svc.Complete(ctx, f.owner, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestComplete_FailedCanBeRetried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stripe.outcome = OutcomeFailed

	sess, err := f.svc.Begin(ctx, f.owner, ProviderStripe, 1)
	require.NoError(t, err)
	res, err := f.svc.Complete(ctx, f.owner, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)

	f.stripe.outcome = OutcomeSucceeded
	res, err = f.svc.Complete(ctx, f.owner, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, 2, f.stripe.resolves)
}

func TestComplete_AlreadyPaidSkipsProvider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Begin(ctx, f.owner, ProviderPayPal, 1)
	require.NoError(t, err)
	_, err = f.ledger.MarkPaid(ctx, 1)
	require.NoError(t, err)

	res, err := f.svc.CompleteByRef(ctx, f.owner, ProviderPayPal, sess.ProviderRef)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, 0, f.paypal.resolves)
}

func TestComplete_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Begin(ctx, f.owner, ProviderStripe, 1)
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, f.other, sess.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 0, f.stripe.resolves)

	_, err = f.svc.Complete(ctx, f.owner, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCompleteRedirect_UsesSessionOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Begin(ctx, f.owner, ProviderPayPal, 1)
	require.NoError(t, err)

	res, err := f.svc.CompleteRedirect(ctx, sess.ProviderRef)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, facture.StatusPaid, f.ledger.factures[1].Status)

	_, err = f.svc.CompleteRedirect(ctx, "unknown-order")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestConcurrentCompletesMarkPaidOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Begin(ctx, f.owner, ProviderStripe, 1)
	require.NoError(t, err)

	svc := NewService(f.store, f.ledger, time.Minute, time.Hour, nil, &fakeGateway{name: ProviderStripe, outcome: OutcomeSucceeded})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Complete(ctx, f.owner, sess.ID)
			if assert.NoError(t, err) {
				assert.Equal(t, OutcomeSucceeded, res.Outcome)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, f.ledger.marks)
}
