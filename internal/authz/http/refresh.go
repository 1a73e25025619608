package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gatekeep/internal/authz/domain"
	"github.com/aussiebroadwan/gatekeep/internal/authz/service"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshHandler exchanges a live refresh token for a new token pair.
type RefreshHandler struct {
	Ledger *service.Ledger
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body refreshRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil || body.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest,
			"INVALID_REQUEST", "a refresh_token field is required")
		return
	}

	pair, err := h.Ledger.Rotate(ctx, body.RefreshToken)
	if err != nil {
		var authErr *domain.Error
		if errors.As(err, &authErr) {
			httpx.WriteError(w, authErr.HTTPStatus(), authErr.Kind, errorDescription(authErr))
			return
		}
		slogx.FromContext(ctx).Error("refresh rotation failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"SERVER_ERROR", "internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}
