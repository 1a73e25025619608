package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/gatekeep/internal/authz/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. Sub-repositories keep concerns tidy and
// testable.
type Store interface {
	RefreshTokens() RefreshTokens
	AllowedIPs() AllowedIPs

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (refresh
	// rotation). The caller MUST call Commit() or Rollback().
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing on nil and
	// rolling back on error. The recommended way to handle transactions.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the token by its SHA-256 fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken sets revoked_at, fenced on the row not already
	// being revoked. Returns false when no active row matched, which is
	// how concurrent rotations lose the race.
	RevokeRefreshToken(ctx context.Context, hash string) (bool, error)

	// RevokeRefreshTokenForUser is the ownership-checked variant used by
	// logout: only a row belonging to userID is touched.
	RevokeRefreshTokenForUser(ctx context.Context, userID, hash string) (bool, error)

	// RevokeAllUserRefreshTokens revokes every active token owned by the
	// user ("logout everywhere").
	RevokeAllUserRefreshTokens(ctx context.Context, userID string) error

	// DeleteExpiredRefreshTokens sweeps expired and long-revoked rows.
	DeleteExpiredRefreshTokens(ctx context.Context) error
}

type AllowedIPs interface {
	// ListUserAllowedIPs returns the user's allowlist entries, oldest first.
	// An empty result means the user is unrestricted.
	ListUserAllowedIPs(ctx context.Context, userID string) ([]domain.AllowedIP, error)

	// CreateAllowedIP inserts an allowlist entry (admin/seeding flow).
	CreateAllowedIP(ctx context.Context, a domain.AllowedIP) error
}
