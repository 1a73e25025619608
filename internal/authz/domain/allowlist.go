package domain

import "time"

// AllowedIP is one entry of a user's IP allowlist: either a literal
// address or a CIDR block. A user with zero entries is unrestricted.
// Entries are created by an administrative flow outside this core and
// read-only here.
type AllowedIP struct {
	ID        string
	UserID    string
	CIDR      string // "10.1.2.3" or "10.0.0.0/8"
	CreatedAt time.Time
}
