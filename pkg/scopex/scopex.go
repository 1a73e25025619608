// Package scopex implements wildcard scope matching for bearer-token
// authorization. Wildcards only ever apply to scopes the caller HOLDS,
// never to scopes an endpoint REQUIRES: holding "admin:read" does not
// satisfy a required "admin:*".
package scopex

import "strings"

// Wildcard is the scope that grants everything.
const Wildcard = "*"

// Match reports whether a single held scope satisfies a required scope.
//
// Rules, in priority order:
//  1. exact string equality
//  2. the held literal "*" matches any requirement
//  3. a held scope ending in ":*" matches any requirement sharing the
//     prefix before the wildcard ("admin:*" matches "admin:read" but
//     not "user:read")
func Match(held, required string) bool {
	if held == required {
		return true
	}
	if held == Wildcard {
		return true
	}
	if prefix, ok := strings.CutSuffix(held, ":*"); ok {
		return strings.HasPrefix(required, prefix+":")
	}
	return false
}

// MatchAny reports whether any held scope satisfies any one of the
// required scopes (OR semantics on both sides). An empty requirement
// list is trivially satisfied.
func MatchAny(held []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, req := range required {
		for _, have := range held {
			if Match(have, req) {
				return true
			}
		}
	}
	return false
}
