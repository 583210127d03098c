// Package testutil opens a migrated in-memory SQLite database for tests.
package testutil

import (
	"strings"
	"testing"

	"go-accounting/internal/access"
	"go-accounting/internal/config"
	"go-accounting/internal/model"
	"go-accounting/pkg/database"
	"go-accounting/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns an empty schema private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(config.Config{
		DBDriver:    "sqlite",
		DatabaseURL: "file:" + name + "?mode=memory&cache=shared",
		DBLogLevel:  "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts an active account and returns the principal acting
// as it.
func CreateUser(t *testing.T, db *gorm.DB, email string, superuser bool) access.Principal {
	t.Helper()

	user := &model.User{
		Email:        email,
		FullName:     email,
		IsActive:     true,
		IsSuperuser:  superuser,
		TokenVersion: uuid.NewString(),
	}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, db.Create(user).Error)
	return access.Principal{UserID: user.ID, IsSuperuser: superuser}
}

// Token signs a session for p carrying the given privilege codes. The
// token version matches the stored one so RequireAuth accepts it.
func Token(t *testing.T, db *gorm.DB, p access.Principal, privileges ...string) string {
	t.Helper()

	var user model.User
	require.NoError(t, db.First(&user, "id = ?", p.UserID).Error)
	token, err := jwt.GenerateToken(jwt.Session{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.FullName,
		IsSuperuser:  user.IsSuperuser,
		Privileges:   privileges,
		TokenVersion: user.TokenVersion,
	})
	require.NoError(t, err)
	return token
}
