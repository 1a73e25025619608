package domain

import "net/http"

// Error is a recoverable authorization failure. Every rejection the
// core can produce is one of the sentinel values below, so callers can
// classify with errors.Is and map kinds onto transport status codes.
// Operator misconfiguration is deliberately NOT in this taxonomy.
type Error struct {
	Kind string
}

func (e *Error) Error() string { return e.Kind }

var (
	ErrTokenMissing            = &Error{Kind: "TOKEN_MISSING"}
	ErrTokenInvalid            = &Error{Kind: "TOKEN_INVALID"}
	ErrTokenExpired            = &Error{Kind: "TOKEN_EXPIRED"}
	ErrInsufficientPermissions = &Error{Kind: "INSUFFICIENT_PERMISSIONS"}
	ErrInsufficientScope       = &Error{Kind: "INSUFFICIENT_SCOPE"}
	ErrIPNotAllowed            = &Error{Kind: "IP_NOT_ALLOWED"}
	ErrRefreshTokenInvalid     = &Error{Kind: "REFRESH_TOKEN_INVALID"}
	ErrRefreshTokenRevoked     = &Error{Kind: "REFRESH_TOKEN_REVOKED"}
	ErrRefreshTokenExpired     = &Error{Kind: "REFRESH_TOKEN_EXPIRED"}
)

// HTTPStatus maps the error kind to a response status: authentication
// problems are 401, authorization problems are 403.
func (e *Error) HTTPStatus() int {
	switch e {
	case ErrInsufficientPermissions, ErrInsufficientScope, ErrIPNotAllowed:
		return http.StatusForbidden
	default:
		return http.StatusUnauthorized
	}
}
