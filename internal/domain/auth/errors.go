package auth

import "errors"

var (
	ErrInvalidCredentials            = errors.New("invalid credentials")
	ErrEmailAlreadyExists            = errors.New("email already exists")
	ErrUserNotFound                  = errors.New("user not found")
	ErrInvalidRefreshToken           = errors.New("invalid refresh token")
	ErrInvalidVerificationCode       = errors.New("invalid verification code")
	ErrInvalidVerificationCodeFormat = errors.New("invalid verification code format")
	ErrTooManyAttempts               = errors.New("too many attempts")
	ErrInvalidResetToken             = errors.New("invalid or expired reset token")
	ErrWeakPassword                  = errors.New("password must be at least 8 characters")
)
