package devis

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingDevis(amount string) *Devis {
	return &Devis{
		ID:                 1,
		ClientID:           3,
		Description:        "Site vitrine",
		Amount:             decimal.RequireFromString(amount),
		Status:             StatusPending,
		CounterOfferStatus: CounterOfferNone,
	}
}

func TestApply_CounterOfferKeepsPending(t *testing.T) {
	d := pendingDevis("500")

	require.NoError(t, d.Apply(ActionCounterOffer, "400 TND"))
	assert.Equal(t, StatusPending, d.Status)
	assert.Equal(t, CounterOfferPending, d.CounterOfferStatus)
	require.NotNil(t, d.CounterOffer)
	assert.Equal(t, "400 TND", *d.CounterOffer)
	assert.True(t, d.CounterOfferAmount.Valid)
	assert.Equal(t, "400", d.CounterOfferAmount.Decimal.String())
	assert.Equal(t, "500", d.Amount.String())
	assert.NoError(t, d.CheckInvariants())
}

func TestApply_AcceptAdoptsCounterOfferAmount(t *testing.T) {
	d := pendingDevis("500")
	require.NoError(t, d.Apply(ActionCounterOffer, "400 TND"))

	require.NoError(t, d.Apply(ActionAcceptCounterOffer, ""))
	assert.Equal(t, StatusCounterOfferAccepted, d.Status)
	assert.Equal(t, CounterOfferAccepted, d.CounterOfferStatus)
	assert.Equal(t, "400", d.Amount.String())
	assert.NoError(t, d.CheckInvariants())
}

func TestApply_AcceptWithoutAmountKeepsOriginal(t *testing.T) {
	d := pendingDevis("500")
	require.NoError(t, d.Apply(ActionCounterOffer, "Merci de retirer le blog"))
	assert.False(t, d.CounterOfferAmount.Valid)

	require.NoError(t, d.Apply(ActionAcceptCounterOffer, ""))
	assert.Equal(t, "500", d.Amount.String())
}

func TestApply_RejectCounterOfferReopensNegotiation(t *testing.T) {
	d := pendingDevis("500")
	require.NoError(t, d.Apply(ActionCounterOffer, "450"))

	require.NoError(t, d.Apply(ActionRejectCounterOffer, ""))
	assert.Equal(t, StatusPending, d.Status)
	assert.Equal(t, CounterOfferRejected, d.CounterOfferStatus)

	// a second answer is refused, the admin moves next
	assert.ErrorIs(t, d.Apply(ActionAcceptCounterOffer, ""), ErrNoPendingCounterOffer)
	require.NoError(t, d.Apply(ActionApprove, ""))
	assert.Equal(t, StatusApproved, d.Status)
}

func TestApply_Guards(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(d *Devis)
		action Action
		text   string
		want   error
	}{
		{"approve twice", func(d *Devis) { d.Status = StatusApproved }, ActionApprove, "", ErrInvalidTransition},
		{"reject after approval", func(d *Devis) { d.Status = StatusApproved }, ActionReject, "", ErrInvalidTransition},
		{"approve while counter-offer pending", func(d *Devis) {
			s := "400"
			d.CounterOffer, d.CounterOfferStatus = &s, CounterOfferPending
		}, ActionApprove, "", ErrCounterOfferPending},
		{"accept without counter-offer", func(d *Devis) {}, ActionAcceptCounterOffer, "", ErrNoPendingCounterOffer},
		{"empty counter-offer", func(d *Devis) {}, ActionCounterOffer, "   ", ErrEmptyCounterOffer},
		{"unknown action", func(d *Devis) {}, Action("archive"), "", ErrUnknownAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := pendingDevis("500")
			tt.setup(d)
			before := *d
			assert.ErrorIs(t, d.Apply(tt.action, tt.text), tt.want)
			assert.Equal(t, before.Status, d.Status)
			assert.Equal(t, before.CounterOfferStatus, d.CounterOfferStatus)
		})
	}
}

func TestCheckInvariants(t *testing.T) {
	d := pendingDevis("500")
	d.CounterOfferStatus = CounterOfferPending
	assert.ErrorIs(t, d.CheckInvariants(), ErrInconsistentCounterOffer)

	d = pendingDevis("500")
	d.Status = StatusCounterOfferAccepted
	assert.ErrorIs(t, d.CheckInvariants(), ErrInconsistentCounterOffer)

	d = pendingDevis("0")
	assert.ErrorIs(t, d.CheckInvariants(), ErrInvalidAmount)
}

func TestActionMappings(t *testing.T) {
	a, err := DecisionAction("approved")
	require.NoError(t, err)
	assert.Equal(t, ActionApprove, a)

	a, err = ResponseAction("Reject")
	require.NoError(t, err)
	assert.Equal(t, ActionRejectCounterOffer, a)
	assert.True(t, a.ByClient())
	assert.False(t, a.IssuesInvoice())

	_, err = ResponseAction("maybe")
	assert.ErrorIs(t, err, ErrUnknownAction)
}
