package http

import (
	"net/http"

	"github.com/aussiebroadwan/gatekeep/internal/authz/service"
	"github.com/aussiebroadwan/gatekeep/pkg/httpx"
)

type userInfoResponse struct {
	Subject   string   `json:"sub"`
	Issuer    string   `json:"iss,omitempty"`
	Audience  []string `json:"aud,omitempty"`
	ExpiresAt int64    `json:"exp,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	Scopes    []string `json:"scopes,omitempty"`
}

// UserInfoHandler reflects the verified claims back to the caller,
// with roles and scopes resolved through the configured claim paths.
type UserInfoHandler struct {
	Extractor *service.Extractor
}

func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized,
			"TOKEN_MISSING", "no bearer token was provided")
		return
	}

	response := userInfoResponse{
		Subject:  claims.Subject,
		Issuer:   claims.Issuer,
		Audience: claims.Audience,
		Roles:    h.Extractor.ExtractRoles(claims),
		Scopes:   h.Extractor.ExtractScopes(claims),
	}
	if claims.ExpiresAt != nil {
		response.ExpiresAt = claims.ExpiresAt.Unix()
	}

	httpx.WriteJSON(w, http.StatusOK, response)
}
