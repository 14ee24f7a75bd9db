package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPebble   = "pebble"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	BaseURL            string
	UpstreamTimeout    time.Duration
	UpstreamRPS        float64
	UpstreamBurst      int
	UserAgent          string
	StateBackend       string
	StateDir           string
	StateSecret        string
	DatabaseURL        string
	DBMaxConns         int32
	DBMinConns         int32
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration
	CORSOrigins        []string
	RateLimitRPM       int
	AuthRateLimitRPM   int
	GatewaySecret      string
	GatewayTokenTTL    time.Duration
	EventBuffer        int
	LogLevel           string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BaseURL:            getEnv("WAN_BASE_URL", "https://www.wanandroid.com/"),
		UpstreamTimeout:    getDuration("UPSTREAM_TIMEOUT", 15*time.Second),
		UpstreamRPS:        getFloat("UPSTREAM_RPS", 5),
		UpstreamBurst:      getInt("UPSTREAM_BURST", 10),
		UserAgent:          getEnv("UPSTREAM_USER_AGENT", "go-wanandroid/1.0"),
		StateBackend:       strings.ToLower(getEnv("STATE_BACKEND", BackendPebble)),
		StateDir:           getEnv("STATE_DIR", "./state"),
		StateSecret:        strings.TrimSpace(os.Getenv("STATE_SECRET")),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:         int32(getInt("DB_MAX_CONNS", 4)),
		DBMinConns:         int32(getInt("DB_MIN_CONNS", 0)),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		ServerReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		CORSOrigins:        splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:       getInt("RATE_LIMIT_RPM", 300),
		AuthRateLimitRPM:   getInt("AUTH_RATE_LIMIT_RPM", 10),
		GatewaySecret:      strings.TrimSpace(os.Getenv("GATEWAY_SECRET")),
		GatewayTokenTTL:    getDuration("GATEWAY_TOKEN_TTL", 720*time.Hour),
		EventBuffer:        getInt("EVENT_BUFFER", 64),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("WAN_BASE_URL must be an absolute http(s) URL")
	}

	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive")
	}

	if c.UpstreamRPS < 0 {
		return fmt.Errorf("UPSTREAM_RPS cannot be negative")
	}

	switch c.StateBackend {
	case BackendPebble:
		if strings.TrimSpace(c.StateDir) == "" {
			return fmt.Errorf("STATE_DIR cannot be empty")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres state backend")
		}
		if c.DBMaxConns <= 0 {
			return fmt.Errorf("DB_MAX_CONNS must be positive")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STATE_BACKEND must be one of pebble, postgres, memory")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.GatewaySecret != "" && len(c.GatewaySecret) < 16 {
		return fmt.Errorf("GATEWAY_SECRET must be at least 16 characters")
	}

	if c.GatewayTokenTTL <= 0 {
		return fmt.Errorf("GATEWAY_TOKEN_TTL must be positive")
	}

	if c.EventBuffer <= 0 {
		return fmt.Errorf("EVENT_BUFFER must be positive")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
