package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/authz/domain"
	"github.com/aussiebroadwan/gatekeep/internal/authz/store"
	"github.com/aussiebroadwan/gatekeep/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeep/pkg/idx"
	"github.com/aussiebroadwan/gatekeep/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

// Ledger owns the refresh token lifecycle: issuance, single-use
// rotation and revocation. Opaque refresh tokens never touch the
// database; only their SHA-256 fingerprints are stored, so a leaked
// database cannot be replayed as live credentials.
type Ledger struct {
	store  store.Store
	signer jwtx.Signer

	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewLedger(s store.Store, signer jwtx.Signer, issuer string, accessTTL, refreshTTL time.Duration) (*Ledger, error) {
	if signer == nil {
		return nil, errors.New("service: ledger requires a token signer")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("service: ledger requires positive token lifetimes")
	}
	return &Ledger{
		store:      s,
		signer:     signer,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// Issue mints a fresh access/refresh pair for the user.
func (l *Ledger) Issue(ctx context.Context, userID string) (*domain.TokenPair, error) {
	pair, err := l.mint(ctx, l.store.RefreshTokens(), userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("issued token pair",
		slog.String("user_id", userID),
	)
	return pair, nil
}

// Rotate exchanges a live refresh token for a new pair and retires the
// old one, atomically. Presenting an unknown, revoked or expired token
// fails with the matching domain error; an expired token is rejected
// as-is rather than revoked, the housekeeping sweep reclaims it.
func (l *Ledger) Rotate(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	hash := cryptox.FingerprintToken(refreshToken)
	now := time.Now().UTC()

	var pair *domain.TokenPair
	err := l.store.WithTx(ctx, func(tx store.Tx) error {
		current, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrRefreshTokenInvalid
		}
		if err != nil {
			return err
		}

		if current.Revoked() {
			return domain.ErrRefreshTokenRevoked
		}
		if now.After(current.ExpiresAt) {
			return domain.ErrRefreshTokenExpired
		}

		// Fenced on the row still being active: of two concurrent
		// rotations of the same token exactly one flips it.
		revoked, err := tx.RefreshTokens().RevokeRefreshToken(ctx, hash)
		if err != nil {
			return err
		}
		if !revoked {
			return domain.ErrRefreshTokenRevoked
		}

		pair, err = l.mint(ctx, tx.RefreshTokens(), current.UserID, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("rotated refresh token")
	return pair, nil
}

// Revoke retires a single refresh token owned by the user. Unknown
// tokens and tokens owned by someone else are silent no-ops: logout is
// idempotent and never confirms whether a token exists.
func (l *Ledger) Revoke(ctx context.Context, userID, refreshToken string) error {
	hash := cryptox.FingerprintToken(refreshToken)
	_, err := l.store.RefreshTokens().RevokeRefreshTokenForUser(ctx, userID, hash)
	return err
}

// RevokeAll retires every active refresh token the user holds.
func (l *Ledger) RevokeAll(ctx context.Context, userID string) error {
	if err := l.store.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("revoked all refresh tokens",
		slog.String("user_id", userID),
	)
	return nil
}

func (l *Ledger) mint(ctx context.Context, repo store.RefreshTokens, userID string, now time.Time) (*domain.TokenPair, error) {
	access, err := l.signer.Sign(jwtx.NewAccessClaims(userID, l.issuer, l.accessTTL, now))
	if err != nil {
		return nil, err
	}

	refresh, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	record := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    userID,
		TokenHash: cryptox.FingerprintToken(refresh),
		ExpiresAt: now.Add(l.refreshTTL),
		CreatedAt: now,
	}
	if err := repo.CreateRefreshToken(ctx, record); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(l.accessTTL.Seconds()),
	}, nil
}
