// Package config builds runtime configuration from environment variables so
// main stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr            string
	JWTSigningKey   string
	ShutdownTimeout time.Duration

	Redis    RedisConfig
	Postgres PostgresConfig
	Reasoner ReasonerConfig
	Audit    AuditConfig

	// TrustedCIDRs lists networks whose callers bypass rate limiting
	// (loopback is always trusted).
	TrustedCIDRs []string

	// ClaimCacheTTL bounds staleness of cached claim reads.
	ClaimCacheTTL time.Duration

	// TrendingSweepInterval drives the periodic trending recompute and the
	// expired-counter sweep.
	TrendingSweepInterval time.Duration
}

// RedisConfig configures the shared counter/cache store. An empty URL means
// Redis is not configured and in-memory fallbacks are used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the relational store. An empty URL selects the
// in-memory stores (tests, local development).
type PostgresConfig struct {
	URL string
}

// ReasonerConfig configures the automated reasoning collaborator.
type ReasonerConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	Timeout      time.Duration
	MaxRetries   int
	RequestsPerS float64
}

// AuditConfig configures the abuse/safety audit pipeline. Empty brokers
// disable the Kafka publisher; the in-memory store is always active.
type AuditConfig struct {
	KafkaBrokers []string
	Topic        string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:                  envOr("FACTGATE_ADDR", ":8080"),
		JWTSigningKey:         envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		ShutdownTimeout:       envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		ClaimCacheTTL:         envDuration("CLAIM_CACHE_TTL", 5*time.Minute),
		TrendingSweepInterval: envDuration("TRENDING_SWEEP_INTERVAL", time.Minute),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Reasoner: ReasonerConfig{
			BaseURL:      os.Getenv("REASONER_BASE_URL"),
			APIKey:       os.Getenv("REASONER_API_KEY"),
			Model:        envOr("REASONER_MODEL", "gpt-4o-mini"),
			Timeout:      envDuration("REASONER_TIMEOUT", 30*time.Second),
			MaxRetries:   envInt("REASONER_MAX_RETRIES", 2),
			RequestsPerS: envFloat("REASONER_RPS", 2),
		},
		Audit: AuditConfig{
			KafkaBrokers: splitNonEmpty(os.Getenv("AUDIT_KAFKA_BROKERS")),
			Topic:        envOr("AUDIT_KAFKA_TOPIC", "factgate.audit"),
		},
		TrustedCIDRs: splitNonEmpty(os.Getenv("TRUSTED_CIDRS")),
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
