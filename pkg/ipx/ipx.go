// Package ipx provides IP allowlist matching and client address
// extraction for proxied HTTP requests.
//
// CIDR matching is IPv4-only. An IPv6 client address never falls inside
// a CIDR entry; it can only be allowed by exact equality with a listed
// address (or by the caller treating an empty allowlist as unrestricted).
package ipx

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Match reports whether clientIP satisfies a single allowlist entry.
// An entry is either a literal address ("10.1.2.3") compared for
// equality, or a CIDR block ("10.0.0.0/8") tested for containment.
// Malformed entries and malformed client addresses never match.
func Match(entry, clientIP string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(clientIP))
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		return matchCIDR(entry, addr)
	}

	listed, err := netip.ParseAddr(entry)
	if err != nil {
		return false
	}
	return listed.Unmap() == addr
}

// MatchAny reports whether clientIP satisfies at least one entry.
// An empty entry list matches nothing; fail-open behaviour for empty
// allowlists is the caller's policy, not this package's.
func MatchAny(entries []string, clientIP string) bool {
	for _, e := range entries {
		if Match(e, clientIP) {
			return true
		}
	}
	return false
}

// matchCIDR tests IPv4 containment by masking both sides with the
// prefix bits and comparing, the same as comparing the upper prefix-len
// bits of the two 32-bit addresses.
func matchCIDR(cidr string, addr netip.Addr) bool {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return false
	}
	prefix = prefix.Masked()
	if !prefix.Addr().Is4() || !addr.Is4() {
		return false
	}
	return prefix.Contains(addr)
}

// ClientIP extracts the originating client address for a request.
// The first entry of X-Forwarded-For wins (comma-split, trimmed), then
// X-Real-IP, then the transport-level peer address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
