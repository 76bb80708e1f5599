package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"devisportal/internal/domain/client"
	"devisportal/internal/pkg/jwt"
)

var codeRegex = regexp.MustCompile(`^\d{6}$`)

const maxVerificationAttempts = 5

type Service struct {
	users     userRepository
	jwt       *jwt.Service
	notifier  Notifier
	verifyTTL time.Duration
	resetTTL  time.Duration
	loggerf   func(format string, args ...interface{})
	now       func() time.Time
}

func NewService(users userRepository, jwtService *jwt.Service, notifier Notifier, verifyTTL, resetTTL time.Duration, loggerf func(format string, args ...interface{})) *Service {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Service{
		users:     users,
		jwt:       jwtService,
		notifier:  notifier,
		verifyTTL: verifyTTL,
		resetTTL:  resetTTL,
		loggerf:   loggerf,
		now:       time.Now,
	}
}

// Login checks credentials and issues a token pair. A non-empty role restricts
// which accounts may use the endpoint.
func (s *Service) Login(ctx context.Context, req LoginRequest, role UserRole) (*TokenPair, error) {
	email := normalizeEmail(req.Email)
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := CheckPassword(req.Password, user.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}
	if role != "" && user.Role != role {
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refresh string) (*TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refresh)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *Service) issue(ctx context.Context, user *User) (*TokenPair, error) {
	var clientID int64
	if user.Role == RoleClient {
		id, err := s.users.ClientIDForUser(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		clientID = id
	}

	access, err := s.jwt.GenerateToken(user.ID, clientID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(user.ID, clientID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Register creates a client account and sends a phone verification code.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	countryCode := strings.TrimSpace(req.CountryCode)
	if countryCode == "" {
		countryCode = client.DefaultCountryCode
	}
	email := normalizeEmail(req.Email)
	user := &User{Email: email, PasswordHash: hash, Role: RoleClient}
	c := &client.Client{
		Name:        strings.TrimSpace(req.Name),
		Email:       email,
		Phone:       strings.TrimSpace(req.Phone),
		CountryCode: countryCode,
	}
	if err := s.users.Register(ctx, user, c); err != nil {
		return nil, err
	}

	if err := s.sendVerificationCode(ctx, user.ID, fullPhone(c.CountryCode, c.Phone)); err != nil {
		s.loggerf("level=error msg=verification code not sent user_id=%d err=%v", user.ID, err)
	}

	return &RegisterResponse{Message: "Inscription réussie", ClientID: c.ID}, nil
}

func (s *Service) sendVerificationCode(ctx context.Context, userID int64, phone string) error {
	code, err := generateVerificationCode()
	if err != nil {
		return err
	}
	vc := &VerificationCode{
		UserID:    userID,
		Phone:     phone,
		CodeHash:  hashSecret(code),
		ExpiresAt: s.now().Add(s.verifyTTL),
	}
	if err := s.users.CreateVerificationCode(ctx, vc); err != nil {
		return err
	}
	return s.notifier.SendVerificationCode(ctx, phone, code)
}

func (s *Service) VerifyPhone(ctx context.Context, req VerifyPhoneRequest) error {
	if !codeRegex.MatchString(req.Code) {
		return ErrInvalidVerificationCodeFormat
	}

	vc, err := s.users.LatestVerificationCode(ctx, fullPhone(client.DefaultCountryCode, strings.TrimSpace(req.Phone)))
	if err != nil {
		return err
	}
	if vc.Attempts >= maxVerificationAttempts {
		return ErrTooManyAttempts
	}
	if !vc.ExpiresAt.After(s.now()) {
		return ErrInvalidVerificationCode
	}
	if hashSecret(req.Code) != vc.CodeHash {
		if err := s.users.IncrementVerificationAttempts(ctx, vc.ID); err != nil {
			return err
		}
		return ErrInvalidVerificationCode
	}

	return s.users.ConfirmPhone(ctx, vc.UserID)
}

// RequestPasswordReset never reveals whether the email exists.
func (s *Service) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.loggerf("level=info msg=password reset requested for unknown email")
			return nil
		}
		return err
	}

	token := generateResetToken()
	t := &PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hashSecret(token),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.users.CreateResetToken(ctx, t); err != nil {
		return err
	}
	return s.notifier.SendPasswordReset(ctx, user.Email, user.ID, token)
}

func (s *Service) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) error {
	userID, err := strconv.ParseInt(req.UID, 10, 64)
	if err != nil {
		return ErrInvalidResetToken
	}
	t, err := s.users.GetResetToken(ctx, userID, hashSecret(req.Token))
	if err != nil {
		return err
	}
	now := s.now()
	if t.UsedAt != nil || !t.ExpiresAt.After(now) {
		return ErrInvalidResetToken
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.users.ConsumeResetToken(ctx, t.ID, userID, hash, now)
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(req.OldPassword, user.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// CreateAdmin is used by the seed command.
func (s *Service) CreateAdmin(ctx context.Context, email, password string) (*User, error) {
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &User{Email: normalizeEmail(email), PasswordHash: hash}
	if err := s.users.CreateAdmin(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Cleanup purges expired verification codes and reset tokens.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	return s.users.PurgeExpired(ctx, s.now())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func fullPhone(countryCode, phone string) string {
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return countryCode + phone
}
