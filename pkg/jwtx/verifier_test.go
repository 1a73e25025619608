package jwtx_test

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-at-least-32-bytes-long!")

func signHS256(t *testing.T, secret []byte, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return tok
}

func TestVerifyHS256RoundTrip(t *testing.T) {
	t.Parallel()

	v := jwtx.NewVerifier(jwtx.VerifierConfig{Secret: testSecret})

	now := time.Now().UTC()
	raw := signHS256(t, testSecret, jwtx.NewAccessClaims("user-1", "gatekeep", time.Minute, now))

	claims, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "gatekeep", claims.Issuer)
	require.NotNil(t, claims.ExpiresAt)
	require.WithinDuration(t, now.Add(time.Minute), *claims.ExpiresAt, time.Second)
	require.NotEmpty(t, claims.Custom["jti"])
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	v := jwtx.NewVerifier(jwtx.VerifierConfig{Secret: testSecret})
	raw := signHS256(t, []byte("a-completely-different-secret!!!"),
		jwtx.NewAccessClaims("user-1", "gatekeep", time.Minute, time.Now().UTC()))

	_, err := v.Verify(context.Background(), raw)
	require.ErrorIs(t, err, jwtx.ErrInvalidSig)
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	v := jwtx.NewVerifier(jwtx.VerifierConfig{Secret: testSecret})
	raw := signHS256(t, testSecret,
		jwtx.NewAccessClaims("user-1", "gatekeep", -time.Second, time.Now().UTC().Add(-time.Minute)))

	_, err := v.Verify(context.Background(), raw)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyRejectsNotYetValid(t *testing.T) {
	t.Parallel()

	v := jwtx.NewVerifier(jwtx.VerifierConfig{Secret: testSecret})
	raw := signHS256(t, testSecret,
		jwtx.NewAccessClaims("user-1", "gatekeep", time.Hour, time.Now().UTC().Add(30*time.Minute)))

	_, err := v.Verify(context.Background(), raw)
	require.ErrorIs(t, err, jwtx.ErrNotYetValid)
}

func TestVerifyRejectsMalformed(t *testing.T) {
	t.Parallel()

	v := jwtx.NewVerifier(jwtx.VerifierConfig{Secret: testSecret})

	_, err := v.Verify(context.Background(), "not.a.jwt")
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}

func TestVerifyRequiresSubject(t *testing.T) {
	t.Parallel()

	v := jwtx.NewVerifier(jwtx.VerifierConfig{Secret: testSecret})
	raw := signHS256(t, testSecret, jwt.RegisteredClaims{
		Issuer:    "gatekeep",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})

	_, err := v.Verify(context.Background(), raw)
	require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
}

func TestVerifyIssuerSet(t *testing.T) {
	t.Parallel()

	v := jwtx.NewVerifier(jwtx.VerifierConfig{
		Secret:  testSecret,
		Issuers: []string{"issuer-a", "issuer-b"},
	})

	good := signHS256(t, testSecret, jwtx.NewAccessClaims("u", "issuer-b", time.Minute, time.Now().UTC()))
	_, err := v.Verify(context.Background(), good)
	require.NoError(t, err)

	bad := signHS256(t, testSecret, jwtx.NewAccessClaims("u", "issuer-c", time.Minute, time.Now().UTC()))
	_, err = v.Verify(context.Background(), bad)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestVerifyAudienceIntersection(t *testing.T) {
	t.Parallel()

	v := jwtx.NewVerifier(jwtx.VerifierConfig{
		Secret:    testSecret,
		Audiences: []string{"api", "admin"},
	})

	now := time.Now()
	mk := func(aud jwt.ClaimStrings) string {
		return signHS256(t, testSecret, jwt.RegisteredClaims{
			Subject:   "u",
			Audience:  aud,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		})
	}

	_, err := v.Verify(context.Background(), mk(jwt.ClaimStrings{"other", "api"}))
	require.NoError(t, err)

	// Scalar audience is normalized to a one-element list by the parser.
	_, err = v.Verify(context.Background(), mk(jwt.ClaimStrings{"admin"}))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), mk(jwt.ClaimStrings{"other"}))
	require.ErrorIs(t, err, jwtx.ErrAudience)
}

func TestVerifyDisallowedAlgorithm(t *testing.T) {
	t.Parallel()

	v := jwtx.NewVerifier(jwtx.VerifierConfig{
		Secret:     testSecret,
		Algorithms: []string{"RS256"},
	})

	raw := signHS256(t, testSecret, jwtx.NewAccessClaims("u", "gatekeep", time.Minute, time.Now().UTC()))
	_, err := v.Verify(context.Background(), raw)
	require.Error(t, err)
	require.NotErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyNotConfigured(t *testing.T) {
	t.Parallel()

	v := jwtx.NewVerifier(jwtx.VerifierConfig{})
	_, err := v.Verify(context.Background(), "whatever")
	require.ErrorIs(t, err, jwtx.ErrNotConfigured)
}

func TestSignerHS256(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)

	raw, err := signer.Sign(jwtx.NewAccessClaims("user-9", "gatekeep", time.Minute, time.Now().UTC()))
	require.NoError(t, err)

	v := jwtx.NewVerifier(jwtx.VerifierConfig{Secret: testSecret, Issuers: []string{"gatekeep"}})
	claims, err := v.Verify(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, "user-9", claims.Subject)

	_, err = jwtx.NewSignerHS256(nil)
	require.Error(t, err)
}
