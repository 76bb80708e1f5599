package auth

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"devisportal/internal/database/dbtest"
	"devisportal/internal/domain/client"
	"devisportal/internal/pkg/jwt"
)

// Mock User Repository implementing the interface
type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id int64) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *mockUserRepo) ClientIDForUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserRepo) CreateAdmin(ctx context.Context, u *User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) Register(ctx context.Context, u *User, c *client.Client) error {
	return m.Called(ctx, u, c).Error(0)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	return m.Called(ctx, userID, hash).Error(0)
}

func (m *mockUserRepo) CreateVerificationCode(ctx context.Context, vc *VerificationCode) error {
	return m.Called(ctx, vc).Error(0)
}

func (m *mockUserRepo) LatestVerificationCode(ctx context.Context, phone string) (*VerificationCode, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*VerificationCode), args.Error(1)
}

func (m *mockUserRepo) IncrementVerificationAttempts(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepo) ConfirmPhone(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockUserRepo) CreateResetToken(ctx context.Context, t *PasswordResetToken) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockUserRepo) GetResetToken(ctx context.Context, userID int64, tokenHash string) (*PasswordResetToken, error) {
	args := m.Called(ctx, userID, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PasswordResetToken), args.Error(1)
}

func (m *mockUserRepo) ConsumeResetToken(ctx context.Context, id, userID int64, passwordHash string, at time.Time) error {
	return m.Called(ctx, id, userID, passwordHash, at).Error(0)
}

func (m *mockUserRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// recordingNotifier keeps the last code and reset token it was asked to deliver.
type recordingNotifier struct {
	phone, code    string
	resetUserID    int64
	resetToken     string
	resetRecipient string
}

func (n *recordingNotifier) SendVerificationCode(_ context.Context, phone, code string) error {
	n.phone, n.code = phone, code
	return nil
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, email string, userID int64, token string) error {
	n.resetRecipient, n.resetUserID, n.resetToken = email, userID, token
	return nil
}

func newJWT() *jwt.Service {
	return jwt.New("test-secret", time.Hour, 24*time.Hour)
}

func TestLogin_Success(t *testing.T) {
	repo := new(mockUserRepo)
	hash, _ := HashPassword("secret123")
	repo.On("GetUserByEmail", mock.Anything, "amel@mail.tn").
		Return(&User{ID: 4, Email: "amel@mail.tn", PasswordHash: hash, Role: RoleClient}, nil)
	repo.On("ClientIDForUser", mock.Anything, int64(4)).Return(int64(11), nil)

	jwtSvc := newJWT()
	svc := NewService(repo, jwtSvc, &recordingNotifier{}, time.Minute, time.Hour, nil)

	tokens, err := svc.Login(context.Background(), LoginRequest{Email: " Amel@Mail.tn ", Password: "secret123"}, RoleClient)
	require.NoError(t, err)

	claims, err := jwtSvc.ValidateToken(tokens.Access)
	require.NoError(t, err)
	assert.Equal(t, int64(4), claims.UserID)
	assert.Equal(t, int64(11), claims.ClientID)
	assert.Equal(t, "client", claims.Role)
	repo.AssertExpectations(t)
}

func TestLogin_WrongPasswordOrRole(t *testing.T) {
	repo := new(mockUserRepo)
	hash, _ := HashPassword("secret123")
	repo.On("GetUserByEmail", mock.Anything, "admin@mail.tn").
		Return(&User{ID: 1, Email: "admin@mail.tn", PasswordHash: hash, Role: RoleAdmin}, nil)
	repo.On("GetUserByEmail", mock.Anything, "ghost@mail.tn").Return(nil, ErrUserNotFound)

	svc := NewService(repo, newJWT(), &recordingNotifier{}, time.Minute, time.Hour, nil)
	ctx := context.Background()

	_, err := svc.Login(ctx, LoginRequest{Email: "admin@mail.tn", Password: "nope"}, RoleAdmin)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "admin@mail.tn", Password: "secret123"}, RoleClient)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "ghost@mail.tn", Password: "x"}, RoleClient)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyPhone_WrongCodeCountsAttempt(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("LatestVerificationCode", mock.Anything, "+21622111222").Return(&VerificationCode{
		ID: 3, UserID: 4, Phone: "+21622111222", CodeHash: hashSecret("123456"), ExpiresAt: time.Now().Add(time.Minute),
	}, nil)
	repo.On("IncrementVerificationAttempts", mock.Anything, int64(3)).Return(nil)

	svc := NewService(repo, newJWT(), &recordingNotifier{}, time.Minute, time.Hour, nil)

	err := svc.VerifyPhone(context.Background(), VerifyPhoneRequest{Phone: "22111222", Code: "654321"})
	assert.ErrorIs(t, err, ErrInvalidVerificationCode)
	repo.AssertCalled(t, "IncrementVerificationAttempts", mock.Anything, int64(3))
	repo.AssertNotCalled(t, "ConfirmPhone", mock.Anything, mock.Anything)

	err = svc.VerifyPhone(context.Background(), VerifyPhoneRequest{Phone: "22111222", Code: "12ab"})
	assert.ErrorIs(t, err, ErrInvalidVerificationCodeFormat)
}

func TestVerifyPhone_TooManyAttempts(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("LatestVerificationCode", mock.Anything, "+21622111222").Return(&VerificationCode{
		ID: 3, UserID: 4, CodeHash: hashSecret("123456"), Attempts: maxVerificationAttempts, ExpiresAt: time.Now().Add(time.Minute),
	}, nil)

	svc := NewService(repo, newJWT(), &recordingNotifier{}, time.Minute, time.Hour, nil)

	err := svc.VerifyPhone(context.Background(), VerifyPhoneRequest{Phone: "+21622111222", Code: "123456"})
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestRequestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("GetUserByEmail", mock.Anything, "ghost@mail.tn").Return(nil, ErrUserNotFound)
	notifier := &recordingNotifier{}

	svc := NewService(repo, newJWT(), notifier, time.Minute, time.Hour, nil)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), PasswordResetRequest{Email: "ghost@mail.tn"}))
	assert.Empty(t, notifier.resetToken)
}

func TestAccountLifecycle_WithDatabase(t *testing.T) {
	db := dbtest.Open(t, &User{}, &VerificationCode{}, &PasswordResetToken{}, &client.Client{})
	notifier := &recordingNotifier{}
	jwtSvc := newJWT()
	svc := NewService(NewRepository(db), jwtSvc, notifier, time.Minute, time.Hour, nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{Name: "Amel", Email: "amel@mail.tn", Phone: "22111222", Password: "secret123"})
	require.NoError(t, err)
	assert.NotZero(t, res.ClientID)
	assert.Equal(t, "+21622111222", notifier.phone)

	_, err = svc.Register(ctx, RegisterRequest{Name: "Amel", Email: "AMEL@mail.tn", Phone: "1", Password: "secret123"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	require.NoError(t, svc.VerifyPhone(ctx, VerifyPhoneRequest{Phone: "22111222", Code: notifier.code}))

	tokens, err := svc.Login(ctx, LoginRequest{Email: "amel@mail.tn", Password: "secret123"}, RoleClient)
	require.NoError(t, err)
	claims, err := jwtSvc.ValidateToken(tokens.Access)
	require.NoError(t, err)
	assert.Equal(t, res.ClientID, claims.ClientID)

	refreshed, err := svc.Refresh(ctx, tokens.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Access)
	_, err = svc.Refresh(ctx, tokens.Access)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	require.NoError(t, svc.RequestPasswordReset(ctx, PasswordResetRequest{Email: "amel@mail.tn"}))
	require.NotEmpty(t, notifier.resetToken)

	uid := claimsUID(claims)
	confirm := PasswordResetConfirmRequest{UID: uid, Token: notifier.resetToken, NewPassword: "newsecret99"}
	require.NoError(t, svc.ConfirmPasswordReset(ctx, confirm))
	assert.ErrorIs(t, svc.ConfirmPasswordReset(ctx, confirm), ErrInvalidResetToken)

	_, err = svc.Login(ctx, LoginRequest{Email: "amel@mail.tn", Password: "newsecret99"}, RoleClient)
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, claims.UserID, ChangePasswordRequest{OldPassword: "wrong", NewPassword: "another123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	require.NoError(t, svc.ChangePassword(ctx, claims.UserID, ChangePasswordRequest{OldPassword: "newsecret99", NewPassword: "another123"}))

	purged, err := svc.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func claimsUID(c *jwt.Claims) string {
	return strconv.FormatInt(c.UserID, 10)
}
