package jwtx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAlgorithms is the allowed signature algorithm set when the
// operator doesn't pin one.
var DefaultAlgorithms = []string{"RS256", "HS256"}

// VerifierConfig captures the two trust mechanisms and the claim
// expectations. At least one of JWKSURI or Secret must be set; when
// both are present JWKS takes priority and the secret is ignored.
type VerifierConfig struct {
	// JWKSURI enables asymmetric verification against a published key set.
	JWKSURI string

	// Secret enables symmetric (HMAC) verification.
	Secret []byte

	// Issuers the token's iss must be in. Empty means "don't care".
	Issuers []string

	// Audiences the token's aud must intersect. Empty means "don't care".
	Audiences []string

	// Algorithms restricts acceptable signature algorithms.
	// Defaults to DefaultAlgorithms.
	Algorithms []string

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration
}

// Verifier validates bearer tokens and returns their claims. Safe for
// concurrent use; the only mutable state is the remote key cache.
type Verifier struct {
	cfg    VerifierConfig
	remote *RemoteKeySet
}

// NewVerifier builds a Verifier from config. A missing key source is
// deliberately not rejected here: it surfaces as ErrNotConfigured on
// the first Verify call, per the error contract.
func NewVerifier(cfg VerifierConfig, opts ...RemoteOption) *Verifier {
	if len(cfg.Algorithms) == 0 {
		cfg.Algorithms = DefaultAlgorithms
	}

	v := &Verifier{cfg: cfg}
	if cfg.JWKSURI != "" {
		v.remote = NewRemoteKeySet(cfg.JWKSURI, opts...)
	}
	return v
}

// Verify checks signature, expiry, not-before, issuer, and audience,
// and returns the decoded claims. Errors are always one of the package
// sentinels (wrapped), so callers can classify with errors.Is.
func (v *Verifier) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	if v.remote == nil && len(v.cfg.Secret) == 0 {
		return nil, ErrNotConfigured
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods(v.cfg.Algorithms),
		jwt.WithLeeway(v.cfg.Leeway),
	)

	payload := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenStr, payload, func(t *jwt.Token) (any, error) {
		// JWKS takes priority over the shared secret when both exist.
		if v.remote != nil {
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, ErrMissingKID
			}
			return v.remote.Key(ctx, kid)
		}
		return v.cfg.Secret, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidClaim
	}

	claims, err := claimsFromMap(payload)
	if err != nil {
		return nil, err
	}

	if err := claims.ValidateIssuer(v.cfg.Issuers); err != nil {
		return nil, err
	}
	if err := claims.ValidateAudience(v.cfg.Audiences); err != nil {
		return nil, err
	}

	return claims, nil
}

// mapParseError folds golang-jwt error categories onto the package
// sentinels. Key-source errors (unknown kid, fetch failures) come back
// wrapped inside the parse error and are preserved.
func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrNotYetValid
	case errors.Is(err, ErrMissingKID),
		errors.Is(err, ErrUnknownKID),
		errors.Is(err, ErrFetchFailed),
		errors.Is(err, ErrFetchLimit):
		return err
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrInvalidSig, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidClaim, err)
	}
}
