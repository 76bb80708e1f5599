package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"devisportal/internal/domain/facture"
)

// PaidRow is the part of a paid facture the charts need.
type PaidRow struct {
	Amount    decimal.Decimal
	PaidAt    *time.Time
	CreatedAt time.Time
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CountClients(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("clients").Count(&n).Error
	return n, err
}

func (r *Repository) CountDevisByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("devis").Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *Repository) CountFacturesByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("factures").Where("status = ?", status).Count(&n).Error
	return n, err
}

// PaidRows loads amounts and dates of paid factures. Summing happens in Go so
// numeric precision does not depend on the driver.
func (r *Repository) PaidRows(ctx context.Context) ([]PaidRow, error) {
	var rows []PaidRow
	err := r.db.WithContext(ctx).
		Table("factures").
		Select("amount, paid_at, created_at").
		Where("status = ?", facture.StatusPaid).
		Scan(&rows).Error
	return rows, err
}
