package domain

// Requirement is the per-endpoint authorization declaration. Roles and
// Scopes are each OR-matched internally and ANDed against each other;
// empty slices impose nothing. Resolved statically at startup from the
// routing table, never per-request.
type Requirement struct {
	// Public skips the whole pipeline for the endpoint.
	Public bool

	// SkipIPRestriction disables the allowlist stage for the endpoint.
	SkipIPRestriction bool

	// Roles the caller must hold at least one of.
	Roles []string

	// Scopes the caller must hold at least one of (wildcards apply to
	// held scopes only).
	Scopes []string
}
