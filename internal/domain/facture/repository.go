package facture

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"devisportal/internal/database"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the facture together with its lines.
func (r *Repository) Create(ctx context.Context, f *Facture) error {
	if err := r.db.WithContext(ctx).Omit("Client", "Devis").Create(f).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateNumber
		}
		return err
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Facture, error) {
	var f Facture
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Lignes", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&f, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

func (r *Repository) GetByDevisID(ctx context.Context, devisID int64) (*Facture, error) {
	var f Facture
	if err := r.db.WithContext(ctx).Where("devis_id = ?", devisID).First(&f).Error; err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

// List returns factures newest first. Zero values disable the filters.
func (r *Repository) List(ctx context.Context, clientID int64, status Status) ([]Facture, error) {
	q := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Lignes").
		Order("created_at DESC, id DESC")
	if clientID != 0 {
		q = q.Where("client_id = ?", clientID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []Facture
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// NumbersWithPrefix returns every invoice number starting with prefix.
func (r *Repository) NumbersWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&Facture{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Pluck("invoice_number", &numbers).Error
	return numbers, err
}

// Update saves the facture columns and, when replaceLines is set, swaps its lines.
func (r *Repository) Update(ctx context.Context, f *Facture, replaceLines bool) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(f).Error; err != nil {
			return err
		}
		if !replaceLines {
			return nil
		}
		if err := tx.Where("facture_id = ?", f.ID).Delete(&Ligne{}).Error; err != nil {
			return err
		}
		for i := range f.Lignes {
			f.Lignes[i].ID = 0
			f.Lignes[i].FactureID = f.ID
		}
		if len(f.Lignes) == 0 {
			return nil
		}
		return tx.Create(&f.Lignes).Error
	})
	if database.IsUniqueViolation(err) {
		return ErrDuplicateNumber
	}
	return err
}

// Reissue sets the amount and lines of an unpaid facture in one transaction.
// Paid ones are left alone and changed is false.
func (r *Repository) Reissue(ctx context.Context, id int64, amount decimal.Decimal, lines []Ligne) (bool, error) {
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Facture{}).
			Where("id = ? AND status <> ?", id, StatusPaid).
			Update("amount", amount)
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		changed = true
		if err := tx.Where("facture_id = ?", id).Delete(&Ligne{}).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].ID = 0
			lines[i].FactureID = id
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
	return changed, err
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("facture_id = ?", id).Delete(&Ligne{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Facture{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// MarkPaidIdempotent flips the facture to paid once. changed is false when it
// was already paid, so concurrent confirmations apply their side effects once.
func (r *Repository) MarkPaidIdempotent(ctx context.Context, id int64, paidAt time.Time) (bool, error) {
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var f Facture
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&f, id).Error; err != nil {
			return notFound(err)
		}
		if f.Status == StatusPaid {
			changed = false
			return nil
		}
		res := tx.Model(&Facture{}).Where("id = ? AND status <> ?", id, StatusPaid).Updates(map[string]interface{}{
			"status":  StatusPaid,
			"paid_at": paidAt,
		})
		if res.Error != nil {
			return res.Error
		}
		changed = res.RowsAffected > 0
		return nil
	})
	return changed, err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
