package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer mints signed tokens. The ledger uses it for the short-lived
// access half of each issued pair.
type Signer interface {
	Sign(claims jwt.Claims) (string, error)
}

// HS256Signer signs tokens with a shared secret.
type HS256Signer struct {
	secret []byte
}

// NewSignerHS256 returns an HMAC signer. An empty secret is a
// configuration error: issuance needs signing material even when
// verification runs against a remote JWKS.
func NewSignerHS256(secret []byte) (*HS256Signer, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwtx: empty signing secret")
	}
	return &HS256Signer{secret: secret}, nil
}

func (s *HS256Signer) Sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
