// Package repositorycache provides a cached decorator for the reservation Entry Store.
//
// # Overview
//
// CachedStore wraps a store.Store and intercepts read operations to serve
// them from a cache.CacheService, while delegating write operations to the
// base store and invalidating the affected keys once the write has committed.
//
// # Basic Usage
//
//	base := bunstore.New(db)
//	svc, err := cache.NewCacheService(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	cached := repositorycache.New(base, svc, repositorycache.WithLogger(logger))
//
//	// Use exactly like the base store
//	slots, err := cached.AvailableTimeSlots(ctx, restaurantID, day, 4)
//
// # Cached vs Pass-through Operations
//
// ## Cached Operations (Read-only)
//
// Every store.Reader method is cached under the key built by the keys package
// for its shape, with the TTL class of that key's namespace:
//   - Restaurant, Tables, Guests
//   - Reservations, ReservationsOn, ReservationStats
//   - TableAvailability, AvailableTimeSlots
//
// ## Pass-through Operations
//
// These operations bypass the cache and go directly to the base store:
//   - Reservation and GuestRestaurants, which writers use to scope invalidation
//   - All write operations
//
// # Caching Behavior
//
// The cached store follows a read-through caching pattern:
//
//  1. Check cache for the key
//  2. If cache hit, return a decoded copy
//  3. If cache miss, call the base store
//  4. Store the result, unless an invalidation ran while it was fetched
//  5. Return result to caller
//
// A failed base read is returned unchanged and nothing is cached.
//
// # Cache Invalidation Strategy
//
// Each write maps to one or more invalidation events, applied as a single
// purge after the base store returns:
//
//   - CreateReservation: reservation views of the restaurant, the day's time
//     slots and the restaurant's guest list
//   - UpdateReservation: as above for both the old and the new day; the
//     guest list only when the guest changed
//   - CancelReservation: reservation views and the day's time slots
//   - SaveTable, DeleteTable: tables, availability and time slots
//   - SaveGuest: the guest lists of every restaurant the guest booked at
//   - SaveRestaurant: profile, availability and time slots
//
// # Integration with Dependency Injection
//
// The container in pkg/di wires the cache service, invalidator and base store:
//
//	container, err := di.NewContainer(cacheConfig, di.WithStore(base))
//	if err != nil {
//		return err
//	}
//	cached := container.Store()
//
// # Error Handling
//
// Errors from the base store are propagated unchanged and no invalidation
// runs for a failed write. An invalidation failure after a committed write
// is logged and returned wrapped.
package repositorycache
