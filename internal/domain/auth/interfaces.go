package auth

import (
	"context"
	"time"

	"devisportal/internal/domain/client"
)

type userRepository interface {
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
	ClientIDForUser(ctx context.Context, userID int64) (int64, error)
	CreateAdmin(ctx context.Context, u *User) error
	Register(ctx context.Context, u *User, c *client.Client) error
	UpdatePassword(ctx context.Context, userID int64, hash string) error

	CreateVerificationCode(ctx context.Context, vc *VerificationCode) error
	LatestVerificationCode(ctx context.Context, phone string) (*VerificationCode, error)
	IncrementVerificationAttempts(ctx context.Context, id int64) error
	ConfirmPhone(ctx context.Context, userID int64) error

	CreateResetToken(ctx context.Context, t *PasswordResetToken) error
	GetResetToken(ctx context.Context, userID int64, tokenHash string) (*PasswordResetToken, error)
	ConsumeResetToken(ctx context.Context, id, userID int64, passwordHash string, at time.Time) error

	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Notifier delivers verification codes and reset links out of band.
type Notifier interface {
	SendVerificationCode(ctx context.Context, phone, code string) error
	SendPasswordReset(ctx context.Context, email string, userID int64, token string) error
}
