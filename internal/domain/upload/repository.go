package upload

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type uploadStore interface {
	Create(ctx context.Context, u *Upload) error
	Get(ctx context.Context, id string) (*Upload, error)
	Remove(ctx context.Context, id string) error
}

// Repository keeps the metadata rows; the bytes live under the uploads dir.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, u *Upload) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *Repository) Get(ctx context.Context, id string) (*Upload, error) {
	var u Upload
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUploadNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) Remove(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&Upload{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUploadNotFound
	}
	return nil
}
