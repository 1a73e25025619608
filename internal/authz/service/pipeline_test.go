package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/authz/domain"
	"github.com/aussiebroadwan/gatekeep/internal/authz/store/drivers/sqlite"
	"github.com/aussiebroadwan/gatekeep/pkg/idx"
	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, s *sqlite.Store) *Pipeline {
	t.Helper()

	verifier := jwtx.NewVerifier(jwtx.VerifierConfig{Secret: testSecret})
	extractor, err := NewExtractor("", "", "")
	require.NoError(t, err)

	return NewPipeline(verifier, extractor, NewAllowlistService(s))
}

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return token
}

func bearer(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}

func TestPipelineAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := newTestPipeline(t, s)

	protected := domain.Requirement{}

	t.Run("public requirement skips everything", func(t *testing.T) {
		claims, err := p.Authorize(ctx, http.Header{}, "10.0.0.1", domain.Requirement{Public: true})
		require.NoError(t, err)
		require.Nil(t, claims)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := p.Authorize(ctx, http.Header{}, "10.0.0.1", protected)
		require.ErrorIs(t, err, domain.ErrTokenMissing)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		h := http.Header{}
		h.Set("Authorization", "Basic dXNlcjpwYXNz")
		_, err := p.Authorize(ctx, h, "10.0.0.1", protected)
		require.ErrorIs(t, err, domain.ErrTokenMissing)
	})

	t.Run("empty credential", func(t *testing.T) {
		h := http.Header{}
		h.Set("Authorization", "Bearer   ")
		_, err := p.Authorize(ctx, h, "10.0.0.1", protected)
		require.ErrorIs(t, err, domain.ErrTokenMissing)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := p.Authorize(ctx, bearer("not.a.jwt"), "10.0.0.1", protected)
		require.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("expired token keeps its own kind", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		_, err := p.Authorize(ctx, bearer(token), "10.0.0.1", protected)
		require.ErrorIs(t, err, domain.ErrTokenExpired)
	})

	t.Run("valid token returns claims", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{"sub": "user-1"})
		claims, err := p.Authorize(ctx, bearer(token), "10.0.0.1", protected)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.Subject)
	})
}

func TestPipelineRoles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := newTestPipeline(t, s)

	requirement := domain.Requirement{Roles: []string{"admin", "moderator"}}

	t.Run("any listed role suffices", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{
			"sub":   "user-1",
			"roles": []string{"moderator"},
		})
		_, err := p.Authorize(ctx, bearer(token), "10.0.0.1", requirement)
		require.NoError(t, err)
	})

	t.Run("no overlapping role rejects", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{
			"sub":   "user-1",
			"roles": []string{"viewer"},
		})
		_, err := p.Authorize(ctx, bearer(token), "10.0.0.1", requirement)
		require.ErrorIs(t, err, domain.ErrInsufficientPermissions)
	})

	t.Run("token without roles claim rejects", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{"sub": "user-1"})
		_, err := p.Authorize(ctx, bearer(token), "10.0.0.1", requirement)
		require.ErrorIs(t, err, domain.ErrInsufficientPermissions)
	})
}

func TestPipelineScopes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := newTestPipeline(t, s)

	requirement := domain.Requirement{Scopes: []string{"users:read"}}

	t.Run("exact scope passes", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{
			"sub":   "user-1",
			"scope": "users:read billing:read",
		})
		_, err := p.Authorize(ctx, bearer(token), "10.0.0.1", requirement)
		require.NoError(t, err)
	})

	t.Run("segment wildcard covers the family", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{
			"sub":   "user-1",
			"scope": "users:*",
		})
		_, err := p.Authorize(ctx, bearer(token), "10.0.0.1", requirement)
		require.NoError(t, err)
	})

	t.Run("unrelated scopes reject", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{
			"sub":   "user-1",
			"scope": "billing:read",
		})
		_, err := p.Authorize(ctx, bearer(token), "10.0.0.1", requirement)
		require.ErrorIs(t, err, domain.ErrInsufficientScope)
	})

	t.Run("wildcard held does not work in reverse", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{
			"sub":   "user-1",
			"scope": "users:read",
		})
		_, err := p.Authorize(ctx, bearer(token), "10.0.0.1",
			domain.Requirement{Scopes: []string{"users:*"}})
		require.ErrorIs(t, err, domain.ErrInsufficientScope)
	})
}

func TestPipelineIPRestriction(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := newTestPipeline(t, s)

	require.NoError(t, s.AllowedIPs().CreateAllowedIP(ctx, domain.AllowedIP{
		ID:     idx.New().String(),
		UserID: "restricted",
		CIDR:   "10.0.0.0/24",
	}))

	protected := domain.Requirement{}

	t.Run("address inside the block passes", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{"sub": "restricted"})
		_, err := p.Authorize(ctx, bearer(token), "10.0.0.42", protected)
		require.NoError(t, err)
	})

	t.Run("address outside the block rejects", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{"sub": "restricted"})
		_, err := p.Authorize(ctx, bearer(token), "192.168.1.10", protected)
		require.ErrorIs(t, err, domain.ErrIPNotAllowed)
	})

	t.Run("skip flag bypasses the allowlist", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{"sub": "restricted"})
		_, err := p.Authorize(ctx, bearer(token), "192.168.1.10",
			domain.Requirement{SkipIPRestriction: true})
		require.NoError(t, err)
	})

	t.Run("users without entries are unrestricted", func(t *testing.T) {
		token := mintToken(t, jwt.MapClaims{"sub": "unrestricted"})
		_, err := p.Authorize(ctx, bearer(token), "203.0.113.9", protected)
		require.NoError(t, err)
	})
}

func TestPipelineStageOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	p := newTestPipeline(t, s)

	require.NoError(t, s.AllowedIPs().CreateAllowedIP(ctx, domain.AllowedIP{
		ID:     idx.New().String(),
		UserID: "restricted",
		CIDR:   "10.0.0.1",
	}))

	// The IP stage runs before role and scope checks, so a blocked
	// address wins even when the token also lacks the role.
	token := mintToken(t, jwt.MapClaims{"sub": "restricted"})
	_, err := p.Authorize(ctx, bearer(token), "192.168.1.10",
		domain.Requirement{Roles: []string{"admin"}})
	require.ErrorIs(t, err, domain.ErrIPNotAllowed)

	// And authentication runs before everything else.
	_, err = p.Authorize(ctx, http.Header{}, "192.168.1.10",
		domain.Requirement{Roles: []string{"admin"}})
	require.ErrorIs(t, err, domain.ErrTokenMissing)
}

func TestPipelineNotConfiguredPassesThrough(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	verifier := jwtx.NewVerifier(jwtx.VerifierConfig{})
	extractor, err := NewExtractor("", "", "")
	require.NoError(t, err)
	p := NewPipeline(verifier, extractor, NewAllowlistService(s))

	token := mintToken(t, jwt.MapClaims{"sub": "user-1"})
	_, err = p.Authorize(ctx, bearer(token), "10.0.0.1", domain.Requirement{})
	require.ErrorIs(t, err, jwtx.ErrNotConfigured)
}
