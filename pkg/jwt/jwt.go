package jwt

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "go-accounting"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingToken = errors.New("missing authorization token")
)

// Session is what a signed token asserts about its holder.
type Session struct {
	UserID       uuid.UUID
	Email        string
	Name         string
	RoleCode     string
	IsSuperuser  bool
	Privileges   []string
	TokenVersion string
}

// Claims represents the JWT claims structure
type Claims struct {
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	RoleCode     string    `json:"role_code"`
	IsSuperuser  bool      `json:"is_superuser"` // Row visibility, rechecked against the DB on each request
	Privileges   []string  `json:"privileges"`
	TokenVersion string    `json:"token_version"`
	jwt.RegisteredClaims
}

// SecretKey returns JWT_SECRET, falling back to a development key.
func SecretKey() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-only-accounting-secret"
	}
	return []byte(secret)
}

// TTL is read from JWT_TTL (a Go duration), 24h by default.
func TTL() time.Duration {
	if d, err := time.ParseDuration(os.Getenv("JWT_TTL")); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}

// GenerateToken signs s for TTL from now.
func GenerateToken(s Session) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:       s.UserID,
		Email:        s.Email,
		Name:         s.Name,
		RoleCode:     s.RoleCode,
		IsSuperuser:  s.IsSuperuser,
		Privileges:   s.Privileges,
		TokenVersion: s.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(TTL())),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(SecretKey())
}

// ValidateToken parses an HS256 token issued by this service.
func ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return SecretKey(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	default:
		return nil, ErrInvalidToken
	}
}
