package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"devisportal/internal/database"
	"devisportal/internal/domain/client"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, userNotFound(err)
	}
	return &u, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, userNotFound(err)
	}
	return &u, nil
}

// ClientIDForUser returns 0 when the user has no client record.
func (r *Repository) ClientIDForUser(ctx context.Context, userID int64) (int64, error) {
	var c client.Client
	err := r.db.WithContext(ctx).Select("id").Where("user_id = ?", userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return c.ID, nil
}

func (r *Repository) CreateAdmin(ctx context.Context, u *User) error {
	u.Role = RoleAdmin
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrEmailAlreadyExists
		}
		return err
	}
	return nil
}

// Register creates the login account and its client record atomically.
func (r *Repository) Register(ctx context.Context, u *User, c *client.Client) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		c.UserID = &u.ID
		return tx.Create(c).Error
	})
	if database.IsUniqueViolation(err) {
		return ErrEmailAlreadyExists
	}
	return err
}

func (r *Repository) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	return r.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("password_hash", hash).Error
}

func (r *Repository) CreateVerificationCode(ctx context.Context, vc *VerificationCode) error {
	return r.db.WithContext(ctx).Create(vc).Error
}

func (r *Repository) LatestVerificationCode(ctx context.Context, phone string) (*VerificationCode, error) {
	var vc VerificationCode
	err := r.db.WithContext(ctx).Where("phone = ?", phone).Order("id DESC").First(&vc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidVerificationCode
	}
	if err != nil {
		return nil, err
	}
	return &vc, nil
}

func (r *Repository) IncrementVerificationAttempts(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&VerificationCode{}).Where("id = ?", id).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}

// ConfirmPhone marks the phone verified and discards the user's outstanding codes.
func (r *Repository) ConfirmPhone(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&User{}).Where("id = ?", userID).Update("phone_verified", true).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&VerificationCode{}).Error
	})
}

func (r *Repository) CreateResetToken(ctx context.Context, t *PasswordResetToken) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *Repository) GetResetToken(ctx context.Context, userID int64, tokenHash string) (*PasswordResetToken, error) {
	var t PasswordResetToken
	err := r.db.WithContext(ctx).Where("user_id = ? AND token_hash = ?", userID, tokenHash).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidResetToken
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ConsumeResetToken sets the new password and burns the token in one transaction.
// A token already used by a concurrent request yields ErrInvalidResetToken.
func (r *Repository) ConsumeResetToken(ctx context.Context, id, userID int64, passwordHash string, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&PasswordResetToken{}).Where("id = ? AND used_at IS NULL", id).Update("used_at", at)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidResetToken
		}
		return tx.Model(&User{}).Where("id = ?", userID).Update("password_hash", passwordHash).Error
	})
}

// PurgeExpired deletes expired verification codes and reset tokens.
func (r *Repository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("expires_at < ?", now).Delete(&VerificationCode{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected

		res = tx.Where("expires_at < ? OR used_at IS NOT NULL", now).Delete(&PasswordResetToken{})
		if res.Error != nil {
			return res.Error
		}
		total += res.RowsAffected
		return nil
	})
	return total, err
}

func userNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
