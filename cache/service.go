package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-reservation-cache/internal/cacheinfra"
	"github.com/goliatone/go-reservation-cache/keys"
)

// ErrInvalidResultType is returned when a cached payload cannot be decoded
// into the type requested by the caller.
var ErrInvalidResultType = errors.New("cache: cached value has unexpected type")

// FetchFn is the function signature GetOrFetch expects when fetching from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// RawFetchFn loads an already encoded payload.
type RawFetchFn = cacheinfra.FetchFunc

// Stats is an observability snapshot: size, ceiling, live keys and counters.
type Stats = cacheinfra.Stats

// CacheService exposes the read-through caching operations used by the
// cached store. Payloads are opaque bytes; use the generic helpers for typed access.
//
// A ttl of zero selects the TTL class configured for the key's namespace. A
// negative ttl stores nothing and removes any existing entry. The sturdyc
// backend serves every key for the shortest class, so it also skips storing
// values whose ttl is shorter than that.
type CacheService interface {
	GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch RawFetchFn) ([]byte, error)
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Invalidate removes every entry matching any pattern as one atomic step
	// and reports how many were removed.
	Invalidate(ctx context.Context, patterns ...keys.Pattern) (int, error)
	// Clear drops every entry. Administrative use only.
	Clear(ctx context.Context) error
	Stats(ctx context.Context) Stats
	Close() error
}

// GetOrFetch is the typed read-through path. On a hit the cached payload is
// decoded into a fresh T; on a miss fetchFn runs, its result is encoded and
// stored, and returned to the caller as is. A failing fetchFn propagates its
// error unchanged and nothing is written.
func GetOrFetch[T any](ctx context.Context, service CacheService, key string, ttl time.Duration, fetchFn FetchFn[T]) (T, error) {
	var (
		mu      sync.Mutex
		fetched T
		fresh   bool
	)
	raw := func(ctx context.Context) ([]byte, error) {
		v, err := fetchFn(ctx)
		if err != nil {
			return nil, err
		}
		mu.Lock()
		if !fresh {
			fetched, fresh = v, true
		}
		mu.Unlock()
		return encode(v)
	}

	payload, err := service.GetOrFetch(ctx, key, ttl, raw)
	if err != nil {
		var zero T
		return zero, err
	}
	mu.Lock()
	v, ok := fetched, fresh
	mu.Unlock()
	if ok {
		return v, nil
	}

	out, err := decode[T](payload)
	if err == nil {
		return out, nil
	}

	// an undecodable entry is dropped so the next read refetches
	_ = service.Delete(ctx, key)
	var zero T
	return zero, fmt.Errorf("%w: key %s: %v", ErrInvalidResultType, key, err)
}

// Get returns the decoded value stored under key. A miss is reported with
// ok == false and a nil error.
func Get[T any](ctx context.Context, service CacheService, key string) (value T, ok bool, err error) {
	payload, found := service.Get(ctx, key)
	if !found {
		return value, false, nil
	}
	value, err = decode[T](payload)
	if err != nil {
		return value, false, fmt.Errorf("%w: key %s: %v", ErrInvalidResultType, key, err)
	}
	return value, true, nil
}

// Set encodes value and stores it under key.
func Set[T any](ctx context.Context, service CacheService, key string, value T, ttl time.Duration) error {
	payload, err := encode(value)
	if err != nil {
		return err
	}
	return service.Set(ctx, key, payload, ttl)
}
