package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatekeep/internal/authz/domain"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/ipx"
	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

// authorize runs the pipeline against the route's requirement before
// the handler sees the request. On success the verified claims ride
// along in the request context.
func (r *Router) authorize(requirement domain.Requirement) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()

			claims, err := r.pipeline.Authorize(ctx, req.Header, ipx.ClientIP(req), requirement)
			if err != nil {
				writeAuthError(w, req, err)
				return
			}
			if claims != nil {
				req = req.WithContext(withClaims(ctx, claims))
			}
			next.ServeHTTP(w, req)
		})
	}
}

func writeAuthError(w http.ResponseWriter, req *http.Request, err error) {
	var authErr *domain.Error
	if errors.As(err, &authErr) {
		status := authErr.HTTPStatus()
		if status == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", `Bearer realm="gatekeep"`)
		}
		httpx.WriteError(w, status, authErr.Kind, errorDescription(authErr))
		return
	}

	log := slogx.FromContext(req.Context())
	if errors.Is(err, jwtx.ErrNotConfigured) {
		log.Error("verifier has no key source", "err", err)
		httpx.WriteError(w, http.StatusServiceUnavailable,
			"NOT_CONFIGURED", "token verification is not configured")
		return
	}

	log.Error("authorization failed", "err", err)
	httpx.WriteError(w, http.StatusInternalServerError,
		"SERVER_ERROR", "internal server error")
}

func errorDescription(err *domain.Error) string {
	switch err {
	case domain.ErrTokenMissing:
		return "no bearer token was provided"
	case domain.ErrTokenInvalid:
		return "the access token could not be verified"
	case domain.ErrTokenExpired:
		return "the access token has expired"
	case domain.ErrInsufficientPermissions:
		return "the token does not carry a required role"
	case domain.ErrInsufficientScope:
		return "the token does not carry a required scope"
	case domain.ErrIPNotAllowed:
		return "this address is not on the user's allowlist"
	case domain.ErrRefreshTokenInvalid:
		return "the refresh token is not recognised"
	case domain.ErrRefreshTokenRevoked:
		return "the refresh token has been revoked"
	case domain.ErrRefreshTokenExpired:
		return "the refresh token has expired"
	default:
		return "request not authorized"
	}
}
