package jwtx

import "errors"

var (
	// ErrNotConfigured means neither a JWKS URI nor a shared secret was
	// provided. This is operator misconfiguration, not a bad token, and
	// callers must not fold it into their per-token error taxonomy.
	ErrNotConfigured = errors.New("jwtx: no jwks uri or shared secret configured")

	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrMissingKID  = errors.New("jwtx: missing kid header")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrFetchFailed = errors.New("jwtx: jwks fetch failed")
	ErrFetchLimit  = errors.New("jwtx: jwks fetch rate limited")

	ErrIssuer       = errors.New("jwtx: issuer not allowed")
	ErrAudience     = errors.New("jwtx: audience not allowed")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)
