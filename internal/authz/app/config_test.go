package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseExpiration(t *testing.T) {
	t.Parallel()

	t.Run("accepts each unit", func(t *testing.T) {
		cases := map[string]time.Duration{
			"30s": 30 * time.Second,
			"15m": 15 * time.Minute,
			"12h": 12 * time.Hour,
			"7d":  7 * 24 * time.Hour,
		}
		for in, want := range cases {
			got, err := parseExpiration(in)
			require.NoError(t, err, in)
			require.Equal(t, want, got, in)
		}
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		for _, in := range []string{"", "7", "d", "7dd", "7w", "-5m", "0h", "m7"} {
			_, err := parseExpiration(in)
			require.Error(t, err, in)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("requires a key source", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		t.Setenv("JWT_JWKS_URI", "")

		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("secret alone is enough", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "shhh")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, "shhh", cfg.Secret)
		require.Equal(t, []string{"RS256", "HS256"}, cfg.Algorithms)
		require.Equal(t, "roles", cfg.RolesClaim)
		require.Equal(t, "scope", cfg.ScopesClaim)
		require.Equal(t, " ", cfg.ScopesDelimiter)
		require.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
		require.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	})

	t.Run("issuer, audience and algorithms split on commas", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "shhh")
		t.Setenv("JWT_ISSUER", "https://issuer-a, https://issuer-b")
		t.Setenv("JWT_AUDIENCE", "api, admin-api")
		t.Setenv("JWT_ALGORITHMS", "HS256")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		require.Equal(t, []string{"https://issuer-a", "https://issuer-b"}, cfg.Issuers)
		require.Equal(t, []string{"api", "admin-api"}, cfg.Audiences)
		require.Equal(t, []string{"HS256"}, cfg.Algorithms)
	})

	t.Run("bad lifetime fails fast", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "shhh")
		t.Setenv("JWT_REFRESH_TOKEN_EXPIRATION", "7dd")

		_, err := LoadConfig()
		require.Error(t, err)
	})
}
