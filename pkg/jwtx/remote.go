package jwtx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	// DefaultCacheTTL is the freshness window for fetched signing keys.
	DefaultCacheTTL = 10 * time.Minute

	// DefaultFetchesPerMinute bounds load on the authorization server.
	DefaultFetchesPerMinute = 10

	maxJWKSBodyBytes = 1 << 20
)

// RemoteKeySet lazily fetches and caches the signing keys published at
// a JWKS endpoint. Lookups within the freshness window are served from
// memory; misses trigger a refetch that is rate limited and collapsed
// so concurrent misses for the same kid share one outstanding fetch.
type RemoteKeySet struct {
	uri     string
	ttl     time.Duration
	client  *http.Client
	limiter *rate.Limiter
	group   singleflight.Group

	mu        sync.RWMutex
	keys      *KeySet
	fetchedAt time.Time
}

// RemoteOption customises a RemoteKeySet.
type RemoteOption func(*RemoteKeySet)

// WithCacheTTL overrides the key freshness window.
func WithCacheTTL(ttl time.Duration) RemoteOption {
	return func(r *RemoteKeySet) { r.ttl = ttl }
}

// WithHTTPClient overrides the HTTP client used for fetches.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemoteKeySet) { r.client = c }
}

// WithFetchLimit overrides the fetch rate limit.
func WithFetchLimit(perMinute int) RemoteOption {
	return func(r *RemoteKeySet) {
		r.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
	}
}

// NewRemoteKeySet creates a cache for the JWKS published at uri.
func NewRemoteKeySet(uri string, opts ...RemoteOption) *RemoteKeySet {
	r := &RemoteKeySet{
		uri:     uri,
		ttl:     DefaultCacheTTL,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(DefaultFetchesPerMinute/60.0), DefaultFetchesPerMinute),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key returns the public key for kid, fetching the JWKS if the cache is
// cold, stale, or doesn't know the kid (key rotation).
func (r *RemoteKeySet) Key(ctx context.Context, kid string) (any, error) {
	if key, ok := r.cached(kid); ok {
		return key, nil
	}

	v, err, _ := r.group.Do(kid, func() (any, error) {
		// A fetch may have landed while we queued behind the flight.
		if key, ok := r.cached(kid); ok {
			return key, nil
		}

		if !r.limiter.Allow() {
			return nil, ErrFetchLimit
		}

		set, err := r.fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}

		r.mu.Lock()
		r.keys = set
		r.fetchedAt = time.Now()
		r.mu.Unlock()

		key, err := set.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *RemoteKeySet) cached(kid string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.keys == nil || time.Since(r.fetchedAt) > r.ttl {
		return nil, false
	}
	key, err := r.keys.Get(kid)
	if err != nil {
		return nil, false
	}
	return key, true
}

func (r *RemoteKeySet) fetch(ctx context.Context) (*KeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, r.uri)
	}

	var jwks JWKS
	dec := json.NewDecoder(http.MaxBytesReader(nil, resp.Body, maxJWKSBodyBytes))
	if err := dec.Decode(&jwks); err != nil {
		return nil, err
	}

	set := NewKeySet()
	if err := set.ResetFromJWKS(jwks); err != nil {
		return nil, err
	}
	return set, nil
}
