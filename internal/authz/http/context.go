package http

import (
	"context"

	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
)

type claimsCtxKey struct{}

func withClaims(ctx context.Context, claims *jwtx.Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, claims)
}

// ClaimsFromContext returns the verified claims the authorization
// middleware attached to the request. Absent on public routes.
func ClaimsFromContext(ctx context.Context) (*jwtx.Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey{}).(*jwtx.Claims)
	return claims, ok
}
