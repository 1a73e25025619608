package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is a verified token payload. The registered claims are lifted
// into typed fields; Custom holds the complete decoded payload so
// callers can resolve application claims (roles, scopes, email, ...)
// at arbitrary nested paths. Immutable once produced by a Verifier.
type Claims struct {
	Subject  string
	Issuer   string
	Audience []string

	IssuedAt  *time.Time
	NotBefore *time.Time
	ExpiresAt *time.Time

	// Custom is the full decoded payload, registered claims included.
	Custom map[string]any
}

// claimsFromMap lifts registered claims out of a decoded payload.
// A missing or empty subject is rejected; everything else is optional.
func claimsFromMap(m jwt.MapClaims) (*Claims, error) {
	sub, err := m.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalidClaim
	}

	c := &Claims{
		Subject: sub,
		Custom:  map[string]any(m),
	}

	if iss, err := m.GetIssuer(); err == nil {
		c.Issuer = iss
	}
	if aud, err := m.GetAudience(); err == nil {
		c.Audience = []string(aud)
	}
	if exp, err := m.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		c.ExpiresAt = &t
	}
	if iat, err := m.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		c.IssuedAt = &t
	}
	if nbf, err := m.GetNotBefore(); err == nil && nbf != nil {
		t := nbf.Time
		c.NotBefore = &t
	}

	return c, nil
}

// ValidateIssuer checks the issuer against an allowed set. An empty set
// means "don't care".
func (c *Claims) ValidateIssuer(allowed []string) error {
	if len(allowed) == 0 {
		return nil
	}
	if slices.Contains(allowed, c.Issuer) {
		return nil
	}
	return ErrIssuer
}

// ValidateAudience passes when the token's audience (scalar or list)
// intersects the allowed set. An empty set means "don't care".
func (c *Claims) ValidateAudience(allowed []string) error {
	if len(allowed) == 0 {
		return nil
	}
	for _, want := range allowed {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}
	return ErrAudience
}

// NewAccessClaims builds the minimal registered claim set carried by
// ledger-issued access tokens: subject, issuer and lifetime.
func NewAccessClaims(subject, issuer string, ttl time.Duration, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        NewJTI(),
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
