package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config is read once at startup. Precedence: explicit env var > .env file
// (loaded by godotenv in main) > default.
type Config struct {
	Port        string
	AppName     string
	DBDriver    string // postgres | sqlite
	DatabaseURL string
	DBLogLevel  string // silent | error | warn | info
	SlowQuery   time.Duration
	TimeZone    string

	AdminEmail    string
	AdminPassword string
}

func Load() Config {
	cfg := Config{
		Port:          getEnv("PORT", "3000"),
		AppName:       getEnv("APP_NAME", "Accounting Backend v1.0"),
		DBDriver:      getEnv("DB_DRIVER", "postgres"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DBLogLevel:    getEnv("DB_LOG_LEVEL", "warn"),
		SlowQuery:     getDuration("DB_SLOW_QUERY", time.Second),
		TimeZone:      getEnv("DB_TIMEZONE", "UTC"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
	}

	if cfg.DatabaseURL == "" {
		switch cfg.DBDriver {
		case "sqlite":
			cfg.DatabaseURL = getEnv("SQLITE_PATH", "accounting.db")
		default:
			cfg.DatabaseURL = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
				os.Getenv("DB_HOST"),
				os.Getenv("DB_USER"),
				os.Getenv("DB_PASSWORD"),
				os.Getenv("DB_NAME"),
				getEnv("DB_PORT", "5432"),
				cfg.TimeZone,
			)
		}
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration for %s: %s", key, v)
		return def
	}
	return d
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %s", key, v)
			return def
		}
		return b
	}
	return def
}
