package domain

import "time"

// TokenPair is what the ledger hands back: a short-lived signed access
// token and an opaque single-use refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    int64  `json:"expires_in"`           // seconds until access expiry
}

// RefreshToken models the stored refresh token record. Rows are never
// mutated except to set RevokedAt, and never deleted synchronously;
// expired/revoked rows are swept by housekeeping.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Revoked reports whether the token has been revoked.
func (t RefreshToken) Revoked() bool { return t.RevokedAt != nil }
