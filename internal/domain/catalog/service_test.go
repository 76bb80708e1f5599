package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devisportal/internal/database/dbtest"
	"devisportal/internal/domain/client"
	"devisportal/internal/pkg/actor"
)

func newTestService(t *testing.T) (*Service, *client.Client) {
	db := dbtest.Open(t, &client.Client{}, &Offering{}, &Testimonial{})
	c := &client.Client{Name: "Amira", Email: "amira@example.tn", CountryCode: client.DefaultCountryCode}
	require.NoError(t, db.Create(c).Error)
	return NewService(NewRepository(db), nil), c
}

func TestOfferings_FeaturesRoundTripAndFilter(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.EnsureOffering(ctx, OfferingRequest{
		Name:     "Site vitrine",
		Category: CategoryWeb,
		Features: []string{"Responsive", " SEO ", ""},
	})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureOffering(ctx, OfferingRequest{Name: "Site vitrine", Category: CategoryWeb})
	require.NoError(t, err)
	assert.False(t, created)

	_, err = svc.CreateOffering(ctx, OfferingRequest{Name: "Logo", Category: CategoryDesign})
	require.NoError(t, err)

	all, err := svc.Offerings(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, FeatureList{"Responsive", "SEO"}, all[0].Features)

	web, err := svc.Offerings(ctx, "WEB")
	require.NoError(t, err)
	require.Len(t, web, 1)
	assert.Equal(t, "Site vitrine", web[0].Name)

	_, err = svc.Offerings(ctx, "food")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestOfferings_UpdateDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	o, err := svc.CreateOffering(ctx, OfferingRequest{Name: "App", Category: CategoryMobile})
	require.NoError(t, err)

	updated, err := svc.UpdateOffering(ctx, o.ID, OfferingRequest{Name: "App mobile", Category: CategoryMobile, PriceRange: "500-1000 USD"})
	require.NoError(t, err)
	assert.Equal(t, "App mobile", updated.Name)

	_, err = svc.UpdateOffering(ctx, o.ID, OfferingRequest{Name: "x", Category: "food"})
	assert.ErrorIs(t, err, ErrInvalidCategory)

	require.NoError(t, svc.DeleteOffering(ctx, o.ID))
	assert.ErrorIs(t, svc.DeleteOffering(ctx, o.ID), ErrOfferingNotFound)
}

func TestTestimonials_Moderation(t *testing.T) {
	svc, c := newTestService(t)
	ctx := context.Background()
	as := actor.Actor{UserID: 2, ClientID: c.ID, Role: actor.RoleClient}

	_, err := svc.SubmitTestimonial(ctx, as, CreateTestimonialRequest{Content: "  ", Rating: 4})
	assert.ErrorIs(t, err, ErrEmptyContent)
	_, err = svc.SubmitTestimonial(ctx, as, CreateTestimonialRequest{Content: "Top", Rating: 6})
	assert.ErrorIs(t, err, ErrInvalidRating)
	_, err = svc.SubmitTestimonial(ctx, actor.Actor{Role: actor.RoleClient}, CreateTestimonialRequest{Content: "Top", Rating: 5})
	assert.ErrorIs(t, err, ErrNoClient)

	tm, err := svc.SubmitTestimonial(ctx, as, CreateTestimonialRequest{Content: "Très bon travail", Rating: 5})
	require.NoError(t, err)
	assert.False(t, tm.IsApproved)

	public, err := svc.PublicTestimonials(ctx)
	require.NoError(t, err)
	assert.Empty(t, public)

	all, err := svc.AllTestimonials(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	approved, err := svc.ApproveTestimonial(ctx, tm.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	assert.Equal(t, "Amira", approved.ClientName)

	public, err = svc.PublicTestimonials(ctx)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Amira", public[0].ClientName)

	require.NoError(t, svc.DeleteTestimonial(ctx, tm.ID))
	_, err = svc.ApproveTestimonial(ctx, tm.ID)
	assert.ErrorIs(t, err, ErrTestimonialNotFound)
}
