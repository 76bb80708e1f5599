package devis

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

func (r *Repository) Create(ctx context.Context, d *Devis) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Devis, error) {
	var d Devis
	if err := r.db.WithContext(ctx).Preload("Client").First(&d, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// List returns quotes newest first. clientID 0 means all clients.
func (r *Repository) List(ctx context.Context, clientID int64) ([]Devis, error) {
	q := r.db.WithContext(ctx).Preload("Client").Order("created_at DESC, id DESC")
	if clientID != 0 {
		q = q.Where("client_id = ?", clientID)
	}
	var out []Devis
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Save writes every editable column. Used by admin CRUD, last write wins.
func (r *Repository) Save(ctx context.Context, d *Devis) error {
	return r.db.WithContext(ctx).Omit("Client").Save(d).Error
}

// ApplyTransition persists a lifecycle step only if the row is still in from.
// A concurrent change yields ErrInvalidTransition.
func (r *Repository) ApplyTransition(ctx context.Context, d *Devis, from State) error {
	res := r.db.WithContext(ctx).Model(&Devis{}).
		Where("id = ? AND status = ? AND counter_offer_status = ?", d.ID, from.Status, from.CounterOffer).
		Updates(map[string]interface{}{
			"status":               d.Status,
			"amount":               d.Amount,
			"counter_offer":        d.CounterOffer,
			"counter_offer_amount": d.CounterOfferAmount,
			"counter_offer_status": d.CounterOfferStatus,
			"specification_pdf":    d.SpecificationPDF,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&Devis{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStatus feeds the admin dashboard.
func (r *Repository) CountByStatus(ctx context.Context, status Status) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Devis{}).Where("status = ?", status).Count(&n).Error
	return n, err
}
