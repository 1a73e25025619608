package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/authz/domain"
)

type allowedIPsRepo struct {
	db dbtx
}

func (r *allowedIPsRepo) ListUserAllowedIPs(
	ctx context.Context,
	userID string,
) ([]domain.AllowedIP, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, cidr, created_at
		FROM user_allowed_ips
		WHERE user_id = ?
		ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.AllowedIP
	for rows.Next() {
		var a domain.AllowedIP
		if err := rows.Scan(&a.ID, &a.UserID, &a.CIDR, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *allowedIPsRepo) CreateAllowedIP(ctx context.Context, a domain.AllowedIP) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_allowed_ips (id, user_id, cidr, created_at)
		VALUES (?, ?, ?, ?)`,
		a.ID, a.UserID, a.CIDR, time.Now().UTC(),
	)
	return err
}
