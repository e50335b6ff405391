// Package cache is the read-through cache used in front of the reservation store.
//
// # Overview
//
// A CacheService stores opaque payloads under string keys built by the keys
// package. Every entry carries the TTL class of its key's namespace, the
// store is bounded, and whole groups of keys are dropped at once with
// Invalidate and a keys.Pattern.
//
// Typed access goes through the generic helpers, which encode values with
// msgpack so every reader receives its own copy:
//
//	svc, err := cache.NewCacheService(cache.DefaultConfig(), cache.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer svc.Close()
//
//	tables, err := cache.GetOrFetch(ctx, svc, keys.Tables(rid), 0, func(ctx context.Context) ([]domain.Table, error) {
//		return store.Tables(ctx, rid)
//	})
//
// A ttl of zero selects the namespace's class from Config.TTLs.
//
// # Backends
//
// BackendLedger (the default) enforces the capacity exactly and evicts the
// entry written longest ago. Reads never refresh an entry's age. Setting
// Config.Coalesce collapses concurrent misses for one key into a single fetch.
// A miss only joins a fetch that started after the last invalidation, and the
// shared fetch keeps running if the caller that started it gives up.
//
// BackendSturdyc uses github.com/viccon/sturdyc. It always coalesces, but it
// evicts a percentage of entries at a time and applies the shortest TTL class
// to every key. An explicit ttl shorter than that class is not stored.
//
// # Invalidation races
//
// A fetch that overlaps an invalidation still returns its result to the
// caller, but that result is not kept in the cache. Without this a read that
// started before a write committed could re-populate the entry the write
// just invalidated.
//
// # Error Handling
//
// Fetch errors are returned unchanged and nothing is stored. A payload that
// cannot be decoded into the requested type is dropped from the cache and
// reported as ErrInvalidResultType.
//
// # See Also
//
// The repositorycache package wires this service in front of a store, and the
// invalidation package maps domain writes onto key patterns.
package cache
