package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the service.
type Config struct {
	ListenAddr string
	Env        string

	DatabaseURL string

	// JWTSecret signs identity tokens. It has no default on purpose;
	// the process refuses to start without one.
	JWTSecret string
	TokenTTL  time.Duration

	OllamaHost  string
	OllamaModel string

	// RecurrenceInterval is how often the recurrence roller re-opens
	// completed repeating tasks. Zero disables the roller.
	RecurrenceInterval time.Duration

	RateLimitPerSecond float64
	RateLimitBurst     int

	TrustedOrigins []string
}

// Load reads configuration from environment variables with sane defaults.
// A local .env file is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ListenAddr:         strings.TrimSpace(os.Getenv("LISTEN_ADDR")),
		Env:                strings.TrimSpace(os.Getenv("ENV")),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TokenTTL:           parseDuration(os.Getenv("TOKEN_TTL"), 30*time.Minute),
		OllamaHost:         strings.TrimSpace(os.Getenv("OLLAMA_HOST")),
		OllamaModel:        strings.TrimSpace(os.Getenv("OLLAMA_MODEL")),
		RecurrenceInterval: parseDuration(os.Getenv("RECURRENCE_INTERVAL"), time.Hour),
		RateLimitPerSecond: parseFloat(os.Getenv("RATE_LIMIT_RPS"), 10),
		RateLimitBurst:     parseInt(os.Getenv("RATE_LIMIT_BURST"), 20),
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":9090"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "smart_todo.db"
	}
	if cfg.OllamaHost == "" {
		cfg.OllamaHost = "http://localhost:11434"
	}
	if cfg.OllamaModel == "" {
		cfg.OllamaModel = "llama3.2"
	}
	if origins := strings.TrimSpace(os.Getenv("TRUSTED_ORIGINS")); origins != "" {
		cfg.TrustedOrigins = strings.Fields(origins)
	}

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseFloat(raw string, fallback float64) float64 {
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}
