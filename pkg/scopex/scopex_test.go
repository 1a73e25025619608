package scopex_test

import (
	"testing"

	"github.com/aussiebroadwan/gatekeep/pkg/scopex"
	"github.com/stretchr/testify/require"
)

func TestMatchExact(t *testing.T) {
	t.Parallel()

	require.True(t, scopex.Match("users:read", "users:read"))
	require.False(t, scopex.Match("users:read", "users:write"))
	require.False(t, scopex.Match("users", "users:read"))
}

func TestMatchGlobalWildcard(t *testing.T) {
	t.Parallel()

	require.True(t, scopex.Match("*", "users:read"))
	require.True(t, scopex.Match("*", "anything"))
	require.True(t, scopex.Match("*", "*"))
}

func TestMatchPrefixWildcard(t *testing.T) {
	t.Parallel()

	require.True(t, scopex.Match("admin:*", "admin:read"))
	require.True(t, scopex.Match("admin:*", "admin:write"))
	require.True(t, scopex.Match("admin:*", "admin:keys:rotate"))
	require.False(t, scopex.Match("admin:*", "user:read"))
	require.False(t, scopex.Match("admin:*", "admin"))
	require.False(t, scopex.Match("admin:*", "administrators:read"))
}

func TestWildcardIsOneWay(t *testing.T) {
	t.Parallel()

	// A held specific scope never satisfies a required wildcard.
	require.False(t, scopex.Match("admin:read", "admin:*"))
	require.False(t, scopex.Match("users:read", "*"))

	// Except via exact equality.
	require.True(t, scopex.Match("admin:*", "admin:*"))
}

func TestMatchAny(t *testing.T) {
	t.Parallel()

	require.True(t, scopex.MatchAny([]string{"users:read"}, []string{"users:write", "users:read"}))
	require.True(t, scopex.MatchAny([]string{"admin:*"}, []string{"admin:write"}))
	require.False(t, scopex.MatchAny([]string{"users:read"}, []string{"users:write"}))
	require.False(t, scopex.MatchAny(nil, []string{"users:read"}))

	// No requirement means anything goes, even with no held scopes.
	require.True(t, scopex.MatchAny(nil, nil))
	require.True(t, scopex.MatchAny([]string{"users:read"}, nil))
}
