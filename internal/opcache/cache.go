// Package opcache implements the Op output cache: for a given Op and
// cache-affecting input set, at most one materialization is stored at
// a time, expired entries are treated as absent, and writes overwrite.
// At-most-once concurrent build per fingerprint is provided, over any
// implementation, by the BuildOnce wrapper (golang.org/x/sync/singleflight)
// for every caller that shares one BuildOnce.
package opcache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is the storage-backend-agnostic contract every backend
// implements. The reference behavior is in-memory with optional
// file-backed persistence; a Redis-backed implementation is also
// provided (see redis.go) as a pluggable alternative.
type Cache interface {
	// Get returns the cached value for key if a live (non-expired) entry
	// exists.
	Get(ctx context.Context, key string) (value any, ok bool, err error)
	// Set stores value under key with the given time-to-live.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// BuildOnce wraps any Cache with singleflight-based at-most-once
// concurrent build coordination: pending lookups for the same
// fingerprint wait on the first build instead of duplicating work.
// Deduplication is within-process only; no cross-process coordination
// is attempted.
type BuildOnce struct {
	backend Cache
	group   singleflight.Group
}

func NewBuildOnce(backend Cache) *BuildOnce {
	return &BuildOnce{backend: backend}
}

// GetOrBuild returns the live cache entry for key, building it via fn
// exactly once across any number of concurrent callers requesting the
// same key, and storing the result with ttl.
func (b *BuildOnce) GetOrBuild(ctx context.Context, key string, ttl time.Duration, fn func() (any, error)) (any, bool, error) {
	if v, ok, err := b.backend.Get(ctx, key); err != nil {
		return nil, false, err
	} else if ok {
		return v, false, nil
	}

	v, err, _ := b.group.Do(key, func() (any, error) {
		// Re-check after winning the singleflight race in case another
		// goroutine already populated the backend while we waited.
		if v, ok, err := b.backend.Get(ctx, key); err == nil && ok {
			return v, nil
		}
		result, err := fn()
		if err != nil {
			return nil, err
		}
		if err := b.backend.Set(ctx, key, result, ttl); err != nil {
			return nil, err
		}
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}
