package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	id := uuid.New()

	token, err := GenerateToken(Session{
		UserID:       id,
		Email:        "u@example.com",
		Name:         "U",
		RoleCode:     "ADMIN",
		IsSuperuser:  true,
		Privileges:   []string{"order:view"},
		TokenVersion: "v1",
	})
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, id, claims.UserID)
	require.Equal(t, id.String(), claims.Subject)
	require.True(t, claims.IsSuperuser)
	require.Equal(t, []string{"order:view"}, claims.Privileges)
	require.Equal(t, "v1", claims.TokenVersion)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "first")
	token, err := GenerateToken(Session{UserID: uuid.New(), TokenVersion: "v1"})
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "second")
	_, err = ValidateToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_TTL", "1ms")
	token, err := GenerateToken(Session{UserID: uuid.New()})
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	_, err = ValidateToken(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_ForeignIssuer(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:           uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	}).SignedString(SecretKey())
	require.NoError(t, err)

	_, err = ValidateToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := ValidateToken("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTTL(t *testing.T) {
	t.Setenv("JWT_TTL", "")
	require.Equal(t, 24*time.Hour, TTL())
	t.Setenv("JWT_TTL", "90m")
	require.Equal(t, 90*time.Minute, TTL())
	t.Setenv("JWT_TTL", "soon")
	require.Equal(t, 24*time.Hour, TTL())
}
