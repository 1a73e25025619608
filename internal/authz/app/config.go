package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is assembled from the environment. The JWT_* variables drive
// verification and issuance; the rest are service plumbing.
type Config struct {
	JWKSURI    string   // Optional: remote key set for asymmetric verification
	Secret     string   // Optional: shared secret for HMAC verification and issuance
	Issuers    []string // Optional: accepted iss claims; the first one is stamped on issued tokens
	Audiences  []string // Optional: accepted aud claims
	Algorithms []string // Signing algorithms accepted during verification

	RolesClaim      string // Claim path for roles (default: roles)
	ScopesClaim     string // Claim path for scopes (default: scope)
	ScopesDelimiter string // Delimiter for string scope claims (default: space)

	AccessTokenTTL  time.Duration // Access token lifetime (default: 15m)
	RefreshTokenTTL time.Duration // Refresh token lifetime (default: 7d)

	DatabaseFile         string        // Path to SQLite database file (default: ./gatekeep.db)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Ledger sweep interval (default: 1h)
}

// LoadConfig reads the environment and validates it. Verification needs
// at least one key source; a malformed lifetime is an error rather than
// a silent fallback.
func LoadConfig() (Config, error) {
	cfg := Config{
		JWKSURI:    os.Getenv("JWT_JWKS_URI"),
		Secret:     os.Getenv("JWT_SECRET"),
		Issuers:    splitList(os.Getenv("JWT_ISSUER")),
		Audiences:  splitList(os.Getenv("JWT_AUDIENCE")),
		Algorithms: splitList(getEnvOrDefault("JWT_ALGORITHMS", "RS256,HS256")),

		RolesClaim:      getEnvOrDefault("JWT_ROLES_CLAIM", "roles"),
		ScopesClaim:     getEnvOrDefault("JWT_SCOPES_CLAIM", "scope"),
		ScopesDelimiter: getEnvOrDefault("JWT_SCOPES_DELIMITER", " "),

		DatabaseFile:         getEnvOrDefault("DATABASE_FILE", "gatekeep.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.JWKSURI == "" && cfg.Secret == "" {
		return Config{}, errors.New("config: set JWT_JWKS_URI or JWT_SECRET, verification needs a key source")
	}

	var err error
	if cfg.AccessTokenTTL, err = parseExpiration(
		getEnvOrDefault("JWT_ACCESS_TOKEN_EXPIRATION", "15m")); err != nil {
		return Config{}, fmt.Errorf("config: JWT_ACCESS_TOKEN_EXPIRATION: %w", err)
	}
	if cfg.RefreshTokenTTL, err = parseExpiration(
		getEnvOrDefault("JWT_REFRESH_TOKEN_EXPIRATION", "7d")); err != nil {
		return Config{}, fmt.Errorf("config: JWT_REFRESH_TOKEN_EXPIRATION: %w", err)
	}

	return cfg, nil
}

// parseExpiration reads lifetimes written as "<count><unit>" where unit
// is s, m, h or d. Anything else is rejected outright so a typo like
// "7dd" surfaces at startup instead of running with a surprise default.
func parseExpiration(s string) (time.Duration, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	count, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || count <= 0 {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	switch s[len(s)-1] {
	case 's':
		return time.Duration(count) * time.Second, nil
	case 'm':
		return time.Duration(count) * time.Minute, nil
	case 'h':
		return time.Duration(count) * time.Hour, nil
	case 'd':
		return time.Duration(count) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid duration %q", s)
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
