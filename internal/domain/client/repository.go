package client

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"devisportal/internal/database"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, c *Client) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Client, error) {
	var c Client
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Client, error) {
	var c Client
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// First returns the oldest client; OCR imports fall back to it.
func (r *Repository) First(ctx context.Context) (*Client, error) {
	var c Client
	if err := r.db.WithContext(ctx).Order("id ASC").First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *Repository) List(ctx context.Context) ([]Client, error) {
	var out []Client
	err := r.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

func (r *Repository) Update(ctx context.Context, c *Client) error {
	err := r.db.WithContext(ctx).Model(c).Select("name", "email", "phone", "country_code").Updates(c).Error
	if database.IsUniqueViolation(err) {
		return ErrEmailExists
	}
	return err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&Client{}, id)
	if res.Error != nil {
		if database.IsForeignKeyViolation(res.Error) {
			return ErrClientInUse
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) AddHistorique(ctx context.Context, h *Historique) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *Repository) ListHistorique(ctx context.Context, clientID int64) ([]Historique, error) {
	var out []Historique
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
