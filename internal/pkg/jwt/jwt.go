package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid claims")
)

type Service struct {
	secret     []byte
	ttl        time.Duration
	refreshTTL time.Duration
}

// Claims carries the principal. ClientID is zero for admins.
type Claims struct {
	UserID    int64  `json:"user_id"`
	ClientID  int64  `json:"client_id,omitempty"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwtlib.RegisteredClaims
}

func New(secret string, ttl, refreshTTL time.Duration) *Service {
	return &Service{
		secret:     []byte(secret),
		ttl:        ttl,
		refreshTTL: refreshTTL,
	}
}

func (s *Service) GenerateToken(userID, clientID int64, role string) (string, error) {
	return s.sign(userID, clientID, role, TokenTypeAccess, s.ttl)
}

func (s *Service) GenerateRefreshToken(userID, clientID int64, role string) (string, error) {
	return s.sign(userID, clientID, role, TokenTypeRefresh, s.refreshTTL)
}

func (s *Service) sign(userID, clientID int64, role, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		ClientID:  clientID,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken accepts access tokens only.
func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	return s.validate(tokenStr, TokenTypeAccess)
}

func (s *Service) ValidateRefreshToken(tokenStr string) (*Claims, error) {
	return s.validate(tokenStr, TokenTypeRefresh)
}

func (s *Service) validate(tokenStr, tokenType string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.TokenType != tokenType {
		return nil, ErrInvalidClaims
	}

	return claims, nil
}
