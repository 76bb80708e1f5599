package auth

import "time"

type UserRole string

const (
	RoleClient UserRole = "client"
	RoleAdmin  UserRole = "admin"
)

// User is a login account. Clients additionally have a clients row pointing here.
type User struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	Email         string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	PasswordHash  string    `gorm:"not null" json:"-"`
	Role          UserRole  `gorm:"size:20;not null;default:client" json:"role"`
	PhoneVerified bool      `gorm:"not null;default:false" json:"phone_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"-"`
}

func (User) TableName() string { return "users" }

type VerificationCode struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"index;not null"`
	Phone     string    `gorm:"size:32;index;not null"`
	CodeHash  string    `gorm:"not null"`
	Attempts  int       `gorm:"not null;default:0"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

func (VerificationCode) TableName() string { return "phone_verification_codes" }

type PasswordResetToken struct {
	ID        int64      `gorm:"primaryKey"`
	UserID    int64      `gorm:"index;not null"`
	TokenHash string     `gorm:"size:64;uniqueIndex;not null"`
	ExpiresAt time.Time  `gorm:"not null"`
	UsedAt    *time.Time
	CreatedAt time.Time
}

func (PasswordResetToken) TableName() string { return "password_reset_tokens" }
