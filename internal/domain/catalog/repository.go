package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListOfferings(ctx context.Context, category Category) ([]Offering, error) {
	var out []Offering
	q := r.db.WithContext(ctx).Order("id ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *Repository) GetOffering(ctx context.Context, id int64) (*Offering, error) {
	var o Offering
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferingNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindOfferingByName is used by the seeder to stay idempotent.
func (r *Repository) FindOfferingByName(ctx context.Context, name string) (*Offering, error) {
	var o Offering
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferingNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *Repository) CreateOffering(ctx context.Context, o *Offering) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *Repository) SaveOffering(ctx context.Context, o *Offering) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *Repository) DeleteOffering(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&Offering{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOfferingNotFound
	}
	return nil
}

func (r *Repository) CreateTestimonial(ctx context.Context, t *Testimonial) error {
	return r.db.WithContext(ctx).Omit("Client").Create(t).Error
}

func (r *Repository) ListTestimonials(ctx context.Context, approvedOnly bool) ([]Testimonial, error) {
	var out []Testimonial
	q := r.db.WithContext(ctx).Preload("Client").Order("created_at DESC, id DESC")
	if approvedOnly {
		q = q.Where("is_approved = ?", true)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Client != nil {
			out[i].ClientName = out[i].Client.Name
		}
	}
	return out, nil
}

func (r *Repository) ApproveTestimonial(ctx context.Context, id int64) (*Testimonial, error) {
	res := r.db.WithContext(ctx).Model(&Testimonial{}).Where("id = ?", id).Update("is_approved", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrTestimonialNotFound
	}
	var t Testimonial
	if err := r.db.WithContext(ctx).Preload("Client").First(&t, id).Error; err != nil {
		return nil, err
	}
	if t.Client != nil {
		t.ClientName = t.Client.Name
	}
	return &t, nil
}

func (r *Repository) DeleteTestimonial(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&Testimonial{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTestimonialNotFound
	}
	return nil
}
