package service

import (
	"fmt"
	"strings"

	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
	"github.com/jmespath/go-jmespath"
)

// Extraction defaults when the operator configures nothing.
const (
	DefaultRolesClaim      = "roles"
	DefaultScopesClaim     = "scope"
	DefaultScopesDelimiter = " "
)

// Extractor pulls roles and scopes out of a verified payload. Claim
// paths are dot-separated addresses into nested claim structure
// ("realm_access.roles"), compiled once at startup. A missing path or
// non-object intermediate yields no values, never an error: a token
// without the claim simply carries no roles/scopes.
type Extractor struct {
	roles     *jmespath.JMESPath
	scopes    *jmespath.JMESPath
	delimiter string
}

// NewExtractor compiles the configured claim paths. Empty arguments
// fall back to the defaults above; a path that doesn't compile is an
// operator error surfaced at startup.
func NewExtractor(rolesPath, scopesPath, delimiter string) (*Extractor, error) {
	if rolesPath == "" {
		rolesPath = DefaultRolesClaim
	}
	if scopesPath == "" {
		scopesPath = DefaultScopesClaim
	}
	if delimiter == "" {
		delimiter = DefaultScopesDelimiter
	}

	roles, err := jmespath.Compile(rolesPath)
	if err != nil {
		return nil, fmt.Errorf("service: invalid roles claim path %q: %w", rolesPath, err)
	}
	scopes, err := jmespath.Compile(scopesPath)
	if err != nil {
		return nil, fmt.Errorf("service: invalid scopes claim path %q: %w", scopesPath, err)
	}

	return &Extractor{roles: roles, scopes: scopes, delimiter: delimiter}, nil
}

// ExtractRoles returns the roles claim as a flat string list. A scalar
// string becomes a single-element list; array elements that aren't
// strings are dropped.
func (e *Extractor) ExtractRoles(claims *jwtx.Claims) []string {
	switch v := e.resolve(e.roles, claims).(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		return filterStrings(v)
	default:
		return nil
	}
}

// ExtractScopes returns the scopes claim as a flat string list. A
// scalar string is split on the configured delimiter with empty
// fragments dropped ("users:read  users:write" is two scopes).
func (e *Extractor) ExtractScopes(claims *jwtx.Claims) []string {
	switch v := e.resolve(e.scopes, claims).(type) {
	case string:
		return splitScopes(v, e.delimiter)
	case []any:
		return filterStrings(v)
	default:
		return nil
	}
}

func (e *Extractor) resolve(path *jmespath.JMESPath, claims *jwtx.Claims) any {
	if claims == nil || claims.Custom == nil {
		return nil
	}
	v, err := path.Search(claims.Custom)
	if err != nil {
		// Type-mismatch during the walk means the claim isn't shaped
		// like the path expects; treat as absent.
		return nil
	}
	return v
}

func filterStrings(in []any) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func splitScopes(s, delimiter string) []string {
	var out []string
	for _, part := range strings.Split(s, delimiter) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
