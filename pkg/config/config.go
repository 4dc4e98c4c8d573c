package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	LogLevel       string
	MigrationsPath string

	// DATABASE_URL is the runtime connection for the flow event journal; DIRECT_URL
	// bypasses poolers for migrations. Both empty and no DB_HOST means "no journal".
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	TravelAPI TravelAPIConfig

	// SessionJWTSecret verifies access tokens locally (HS256). Leave empty to accept the
	// token unverified and let the travel API be the judge.
	SessionJWTSecret string

	// FrontendAllowedOrigins is a comma-separated allowlist for the booking flow API. Example:
	//   https://travel.example.com,http://localhost:3000
	FrontendAllowedOrigins []string

	// FlowIdleTTL discards booking flows nobody touched for this long.
	FlowIdleTTL time.Duration
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	// MaxConns caps the journal pool; zero keeps the pool default.
	MaxConns int32
}

type TravelAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// JournalEnabled reports whether enough database settings exist to open the journal.
func (c Config) JournalEnabled() bool {
	return strings.TrimSpace(c.DatabaseURL) != "" || strings.TrimSpace(c.DB.Host) != ""
}

func Load() Config {
	// Local dev convenience; production relies on real environment variables.
	_ = godotenv.Load()

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		LogLevel:       env("LOG_LEVEL", "info"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "travelbooking"),
			User:     env("DB_USER", "travelbooking"),
			Password: env("DB_PASSWORD", "travelbooking"),
			SSLMode:  env("DB_SSLMODE", "disable"),
			MaxConns: int32(envInt("DB_MAX_CONNS", 0)),
		},
		TravelAPI: TravelAPIConfig{
			BaseURL: strings.TrimRight(env("TRAVEL_API_BASE_URL", "http://localhost:8000/api"), "/"),
			Timeout: envDuration("TRAVEL_API_TIMEOUT", 10*time.Second),
		},
		SessionJWTSecret:       os.Getenv("SESSION_JWT_SECRET"),
		FrontendAllowedOrigins: envList("FRONTEND_ALLOWED_ORIGINS", "http://localhost:3000"),
		FlowIdleTTL:            envDuration("FLOW_IDLE_TTL", 30*time.Minute),
	}
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SlogLevel maps LOG_LEVEL onto a slog level; unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
