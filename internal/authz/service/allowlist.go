package service

import (
	"context"

	"github.com/aussiebroadwan/gatekeep/internal/authz/store"
	"github.com/aussiebroadwan/gatekeep/pkg/ipx"
)

// AllowlistService answers "may this user act from this address". Users
// without allowlist entries are unrestricted; entries are IPv4 literals
// or IPv4 CIDR blocks and the first match wins.
type AllowlistService struct {
	Store store.Store
}

func NewAllowlistService(s store.Store) *AllowlistService {
	return &AllowlistService{Store: s}
}

// IsAllowed reports whether clientIP is acceptable for the user. An
// empty allowlist admits every address.
func (s *AllowlistService) IsAllowed(ctx context.Context, userID, clientIP string) (bool, error) {
	entries, err := s.Store.AllowedIPs().ListUserAllowedIPs(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(entries) == 0 {
		return true, nil
	}

	cidrs := make([]string, len(entries))
	for i, e := range entries {
		cidrs[i] = e.CIDR
	}
	return ipx.MatchAny(cidrs, clientIP), nil
}
