package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	PublicBaseURL string // externally reachable base URL, used to build OAuth callback URLs
	DBPath        string // path to the sqlite database file
	ProviderFile  string // path to the providers.yaml OAuth catalogue

	CheckpointEvery time.Duration // sqlite WAL checkpoint interval

	JWTSecret  string        // HS256 signing secret for session tokens
	SessionTTL time.Duration // session token lifetime (default: 720h)

	// Redis (session cache + change-feed bus)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Write-path rate limiting (per client IP)
	WriteBurst        int // token bucket burst for insert/delete
	WriteRefillPerMin int // refill rate per minute

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict healthz/readyz to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. behind a tunnel)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("MARKLET_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("MARKLET_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("MARKLET_LOG_LEVEL", "info"),
		PrettyLog: mustBool("MARKLET_PRETTY_LOG", true),

		// Core paths and URLs
		PublicBaseURL: requireEnv("MARKLET_PUBLIC_BASE_URL"),
		DBPath:        getenv("MARKLET_DB_PATH", "/var/lib/marklet/marklet.db"),
		ProviderFile:  requireEnv("MARKLET_PROVIDER_FILE"),

		// Maintenance
		CheckpointEvery: mustDuration("MARKLET_WAL_CHECKPOINT_EVERY", 15*time.Minute),

		// Sessions
		JWTSecret:  requireEnv("MARKLET_JWT_SECRET"),
		SessionTTL: mustDuration("MARKLET_SESSION_TTL", 720*time.Hour),

		// Redis settings
		RedisAddr:             requireEnv("MARKLET_REDIS_ADDR"),
		RedisUser:             getenv("MARKLET_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("MARKLET_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("MARKLET_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("MARKLET_REDIS_DB", 0),
		RedisDT:               mustDuration("MARKLET_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("MARKLET_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("MARKLET_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("MARKLET_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("MARKLET_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("MARKLET_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("MARKLET_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("MARKLET_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("MARKLET_REDIS_WARN_THRESHOLD", 3),

		// Rate limiting
		WriteBurst:        getenvInt("MARKLET_WRITE_BURST", 10),
		WriteRefillPerMin: getenvInt("MARKLET_WRITE_REFILL_PER_MIN", 30),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("MARKLET_ALLOWED_HOSTS", "")),
		AllowedCIDRS: splitAndTrim(getenv("MARKLET_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("MARKLET_TRUST_PROXY", false),
	}

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("FATAL: MARKLET_REDIS_PASSWORD is required when MARKLET_REDIS_PASSWORD_REQUIRED=true")
	}

	if len(cfg.JWTSecret) < 32 {
		panic("FATAL: MARKLET_JWT_SECRET must be at least 32 bytes")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		cfgCopy.JWTSecret = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
