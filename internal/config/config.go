package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	DBHost string
	DBPort string
	DBName string
	DBUser string
	DBPass string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	JWTSecret string

	// Env is "dev" (default) or "prod". When "prod", JWT_SECRET must be set and not the default.
	Env string

	// AuditRetentionDays is how long audit log entries are kept before the
	// cleanup job removes them (default 90). Set via AUDIT_RETENTION_DAYS.
	AuditRetentionDays int

	// AuditCleanupCron is the cron expression for the retention job
	// (default "0 3 * * *", daily at 03:00). Set via AUDIT_CLEANUP_CRON.
	AuditCleanupCron string

	// CacheCapacity, CacheShards, CacheTTL, and CacheEvictionPercent tune the
	// in-memory caches. Defaults: 10000 entries, 64 shards, 5m, 10%.
	CacheCapacity        int
	CacheShards          int
	CacheTTL             time.Duration
	CacheEvictionPercent int

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	// When empty, the API listens with plain HTTP.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string

	// CORSAllowedOrigins is a list of origins allowed for CORS (e.g. https://app.example.com, http://localhost:3000).
	// Set via CORS_ALLOWED_ORIGINS (comma-separated). When empty, no CORS headers are sent (same-origin only).
	CORSAllowedOrigins []string
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBName: getEnv("DB_NAME", "emprecord"),
		DBUser: getEnv("DB_USER", "emprecord"),
		DBPass: getEnv("DB_PASS", "emprecord"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		JWTSecret: getEnv("JWT_SECRET", "supersecretkey"),
		Env:       getEnv("ENV", "dev"),

		AuditRetentionDays: getEnvInt("AUDIT_RETENTION_DAYS", 90),
		AuditCleanupCron:   getEnv("AUDIT_CLEANUP_CRON", "0 3 * * *"),

		CacheCapacity:        getEnvInt("CACHE_CAPACITY", 10000),
		CacheShards:          getEnvInt("CACHE_SHARDS", 64),
		CacheTTL:             getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheEvictionPercent: getEnvInt("CACHE_EVICTION_PERCENT", 10),

		// Optional TLS configuration for HTTPS.
		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		LogFormat: getEnv("LOG_FORMAT", "text"),

		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
