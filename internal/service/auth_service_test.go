package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushq/attendance-api/internal/models"
	appErrors "github.com/campushq/attendance-api/pkg/errors"
)

type mockUserReader struct {
	user *models.User
	err  error
}

func (m *mockUserReader) FindByRegNo(ctx context.Context, regNo string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "attendance-api"}
}

func testUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		RegNo:        "REG001",
		FullName:     "Test Student",
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		Active:       true,
	}
}

func TestLoginSuccess(t *testing.T) {
	svc := NewAuthService(&mockUserReader{user: testUser(t, "secret123")}, nil, nil, testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{RegNo: "REG001", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, string(models.RoleStudent), res.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(&mockUserReader{user: testUser(t, "secret123")}, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{RegNo: "REG001", Password: "wrong"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := NewAuthService(&mockUserReader{err: sql.ErrNoRows}, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{RegNo: "NOPE", Password: "whatever"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := testUser(t, "secret123")
	user.Active = false
	svc := NewAuthService(&mockUserReader{user: user}, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{RegNo: "REG001", Password: "secret123"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc := NewAuthService(&mockUserReader{user: testUser(t, "secret123")}, nil, nil, testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{RegNo: "REG001", Password: "secret123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "REG001", claims.RegNo)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	issuer := NewAuthService(&mockUserReader{user: testUser(t, "secret123")}, nil, nil, testAuthConfig())
	res, err := issuer.Login(context.Background(), models.LoginRequest{RegNo: "REG001", Password: "secret123"})
	require.NoError(t, err)

	other := NewAuthService(&mockUserReader{}, nil, nil, AuthConfig{Secret: "different", Expiration: time.Hour})
	_, err = other.ValidateToken(res.AccessToken)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewAuthService(&mockUserReader{}, nil, nil, testAuthConfig())

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}
