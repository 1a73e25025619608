package http

import (
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/gatekeep/internal/authz/service"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutHandler revokes the presented refresh token. Always 200 for an
// authenticated caller: revoking an unknown or already-revoked token is
// indistinguishable from success, so logout can be retried freely.
type LogoutHandler struct {
	Ledger *service.Ledger
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized,
			"TOKEN_MISSING", "no bearer token was provided")
		return
	}

	var body logoutRequest
	_ = json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body)

	if body.RefreshToken != "" {
		if err := h.Ledger.Revoke(ctx, claims.Subject, body.RefreshToken); err != nil {
			slogx.FromContext(ctx).Error("logout failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError,
				"SERVER_ERROR", "internal server error")
			return
		}
	}

	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}

// LogoutAllHandler revokes every refresh token the caller holds.
type LogoutAllHandler struct {
	Ledger *service.Ledger
}

func (h *LogoutAllHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized,
			"TOKEN_MISSING", "no bearer token was provided")
		return
	}

	if err := h.Ledger.RevokeAll(ctx, claims.Subject); err != nil {
		slogx.FromContext(ctx).Error("logout all failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"SERVER_ERROR", "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, struct{}{})
}
