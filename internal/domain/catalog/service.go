package catalog

import (
	"context"
	"errors"
	"strings"

	"devisportal/internal/pkg/actor"
)

type catalogRepository interface {
	ListOfferings(ctx context.Context, category Category) ([]Offering, error)
	GetOffering(ctx context.Context, id int64) (*Offering, error)
	FindOfferingByName(ctx context.Context, name string) (*Offering, error)
	CreateOffering(ctx context.Context, o *Offering) error
	SaveOffering(ctx context.Context, o *Offering) error
	DeleteOffering(ctx context.Context, id int64) error
	CreateTestimonial(ctx context.Context, t *Testimonial) error
	ListTestimonials(ctx context.Context, approvedOnly bool) ([]Testimonial, error)
	ApproveTestimonial(ctx context.Context, id int64) (*Testimonial, error)
	DeleteTestimonial(ctx context.Context, id int64) error
}

type Service struct {
	repo    catalogRepository
	loggerf func(format string, args ...interface{})
}

func NewService(repo catalogRepository, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{repo: repo, loggerf: loggerf}
}

func (s *Service) Offerings(ctx context.Context, category string) ([]Offering, error) {
	c := Category(strings.ToLower(strings.TrimSpace(category)))
	if c != "" && !c.Valid() {
		return nil, ErrInvalidCategory
	}
	return s.repo.ListOfferings(ctx, c)
}

func (s *Service) CreateOffering(ctx context.Context, req OfferingRequest) (*Offering, error) {
	o := &Offering{}
	if err := applyOffering(o, req); err != nil {
		return nil, err
	}
	if err := s.repo.CreateOffering(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) UpdateOffering(ctx context.Context, id int64, req OfferingRequest) (*Offering, error) {
	o, err := s.repo.GetOffering(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyOffering(o, req); err != nil {
		return nil, err
	}
	if err := s.repo.SaveOffering(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) DeleteOffering(ctx context.Context, id int64) error {
	return s.repo.DeleteOffering(ctx, id)
}

// EnsureOffering creates the offering unless one with the same name exists.
// It reports whether a row was written.
func (s *Service) EnsureOffering(ctx context.Context, req OfferingRequest) (bool, error) {
	_, err := s.repo.FindOfferingByName(ctx, req.Name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrOfferingNotFound) {
		return false, err
	}
	if _, err := s.CreateOffering(ctx, req); err != nil {
		return false, err
	}
	return true, nil
}

// PublicTestimonials lists approved testimonials only.
func (s *Service) PublicTestimonials(ctx context.Context) ([]Testimonial, error) {
	return s.repo.ListTestimonials(ctx, true)
}

func (s *Service) AllTestimonials(ctx context.Context) ([]Testimonial, error) {
	return s.repo.ListTestimonials(ctx, false)
}

// SubmitTestimonial stores a client's testimonial awaiting moderation.
func (s *Service) SubmitTestimonial(ctx context.Context, a actor.Actor, req CreateTestimonialRequest) (*Testimonial, error) {
	if a.ClientID == 0 {
		return nil, ErrNoClient
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}
	t := &Testimonial{ClientID: a.ClientID, Content: content, Rating: req.Rating}
	if err := s.repo.CreateTestimonial(ctx, t); err != nil {
		return nil, err
	}
	s.loggerf("level=info msg=testimonial submitted id=%d client_id=%d rating=%d", t.ID, t.ClientID, t.Rating)
	return t, nil
}

func (s *Service) ApproveTestimonial(ctx context.Context, id int64) (*Testimonial, error) {
	return s.repo.ApproveTestimonial(ctx, id)
}

func (s *Service) DeleteTestimonial(ctx context.Context, id int64) error {
	return s.repo.DeleteTestimonial(ctx, id)
}

func applyOffering(o *Offering, req OfferingRequest) error {
	if !req.Category.Valid() {
		return ErrInvalidCategory
	}
	o.Name = strings.TrimSpace(req.Name)
	o.Description = req.Description
	o.Category = req.Category
	o.PriceRange = req.PriceRange
	o.Features = splitFeatures(strings.Join(req.Features, ","))
	o.Icon = req.Icon
	return nil
}
