package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("PORT", "")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "acc")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "accounting")

	cfg := Load()

	require.Equal(t, "3000", cfg.Port)
	require.Equal(t, "postgres", cfg.DBDriver)
	require.Equal(t, time.Second, cfg.SlowQuery)
	require.Contains(t, cfg.DatabaseURL, "host=localhost")
	require.Contains(t, cfg.DatabaseURL, "port=5432")
	require.Contains(t, cfg.DatabaseURL, "dbname=accounting")
}

func TestLoad_SQLite(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/acc.db")

	cfg := Load()

	require.Equal(t, "/tmp/acc.db", cfg.DatabaseURL)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("DB_SLOW_QUERY", "soon")
	require.Equal(t, time.Second, Load().SlowQuery)
}

func TestParseBool(t *testing.T) {
	t.Setenv("FLAG_X", "true")
	require.True(t, ParseBool("FLAG_X", false))
	t.Setenv("FLAG_X", "nope")
	require.False(t, ParseBool("FLAG_X", false))
	t.Setenv("FLAG_X", "")
	require.True(t, ParseBool("FLAG_X", true))
}
