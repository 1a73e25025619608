package service

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/aussiebroadwan/gatekeep/internal/authz/domain"
	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeep/pkg/scopex"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*jwtx.Claims, error)
}

// Pipeline runs the authorization stages for a request, in a fixed
// order: authenticate, IP restriction, role check, scope check. Public
// requirements short-circuit before any stage runs. The first failing
// stage rejects the request; nothing later can resurrect it.
type Pipeline struct {
	verifier  TokenVerifier
	extractor *Extractor
	allowlist *AllowlistService

	stages []stage
}

type authRequest struct {
	headers     http.Header
	clientIP    string
	requirement domain.Requirement
	claims      *jwtx.Claims
}

type stage func(ctx context.Context, req *authRequest) error

func NewPipeline(verifier TokenVerifier, extractor *Extractor, allowlist *AllowlistService) *Pipeline {
	p := &Pipeline{
		verifier:  verifier,
		extractor: extractor,
		allowlist: allowlist,
	}
	p.stages = []stage{
		p.authenticate,
		p.restrictIP,
		p.checkRoles,
		p.checkScopes,
	}
	return p
}

// Authorize evaluates the requirement against the request. For public
// requirements it returns (nil, nil) without reading the token. On
// success the verified claims come back for the handler to use.
func (p *Pipeline) Authorize(ctx context.Context, headers http.Header, clientIP string, requirement domain.Requirement) (*jwtx.Claims, error) {
	if requirement.Public {
		return nil, nil
	}

	req := &authRequest{
		headers:     headers,
		clientIP:    clientIP,
		requirement: requirement,
	}
	for _, run := range p.stages {
		if err := run(ctx, req); err != nil {
			return nil, err
		}
	}
	return req.claims, nil
}

func (p *Pipeline) authenticate(ctx context.Context, req *authRequest) error {
	raw, err := BearerToken(req.headers)
	if err != nil {
		return err
	}

	claims, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return mapVerifyError(err)
	}
	req.claims = claims
	return nil
}

func (p *Pipeline) restrictIP(ctx context.Context, req *authRequest) error {
	if req.requirement.SkipIPRestriction {
		return nil
	}
	if req.claims == nil {
		return domain.ErrTokenMissing
	}

	allowed, err := p.allowlist.IsAllowed(ctx, req.claims.Subject, req.clientIP)
	if err != nil {
		return err
	}
	if !allowed {
		return domain.ErrIPNotAllowed
	}
	return nil
}

func (p *Pipeline) checkRoles(_ context.Context, req *authRequest) error {
	if len(req.requirement.Roles) == 0 {
		return nil
	}
	if req.claims == nil {
		return domain.ErrTokenMissing
	}

	held := p.extractor.ExtractRoles(req.claims)
	for _, want := range req.requirement.Roles {
		if slices.Contains(held, want) {
			return nil
		}
	}
	return domain.ErrInsufficientPermissions
}

func (p *Pipeline) checkScopes(_ context.Context, req *authRequest) error {
	if len(req.requirement.Scopes) == 0 {
		return nil
	}
	if req.claims == nil {
		return domain.ErrTokenMissing
	}

	held := p.extractor.ExtractScopes(req.claims)
	if !scopex.MatchAny(held, req.requirement.Scopes) {
		return domain.ErrInsufficientScope
	}
	return nil
}

// BearerToken extracts the token from an Authorization header. Missing
// header, wrong scheme and empty credential all collapse to
// ErrTokenMissing: the caller simply hasn't presented a token.
func BearerToken(headers http.Header) (string, error) {
	const prefix = "Bearer "

	value := headers.Get("Authorization")
	if !strings.HasPrefix(value, prefix) {
		return "", domain.ErrTokenMissing
	}
	raw := strings.TrimSpace(value[len(prefix):])
	if raw == "" {
		return "", domain.ErrTokenMissing
	}
	return raw, nil
}

// mapVerifyError folds verifier failures into the domain taxonomy.
// Expiry keeps its own kind so clients know to refresh; everything else
// about a bad token is just invalid. A verifier with no key source is
// operator misconfiguration and passes through unmapped.
func mapVerifyError(err error) error {
	switch {
	case errors.Is(err, jwtx.ErrNotConfigured):
		return err
	case errors.Is(err, jwtx.ErrExpired):
		return domain.ErrTokenExpired
	default:
		return domain.ErrTokenInvalid
	}
}
