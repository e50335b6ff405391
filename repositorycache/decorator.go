package repositorycache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-reservation-cache/cache"
	"github.com/goliatone/go-reservation-cache/domain"
	"github.com/goliatone/go-reservation-cache/invalidation"
	"github.com/goliatone/go-reservation-cache/keys"
	"github.com/goliatone/go-reservation-cache/store"
)

// Interface assertion to ensure CachedStore implements store.Store
var _ store.Store = (*CachedStore)(nil)

// CachedStore decorates a base Entry Store with caching functionality
type CachedStore struct {
	base        store.Store
	cache       cache.CacheService
	invalidator *invalidation.Invalidator
	logger      *zap.Logger
}

// Option configures a CachedStore.
type Option func(*CachedStore)

// WithLogger sets the logger used to report failed invalidations.
func WithLogger(logger *zap.Logger) Option {
	return func(c *CachedStore) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithInvalidator replaces the invalidator built over the cache service.
func WithInvalidator(inv *invalidation.Invalidator) Option {
	return func(c *CachedStore) {
		if inv != nil {
			c.invalidator = inv
		}
	}
}

// New creates a new CachedStore that wraps the base store with caching
func New(base store.Store, cacheService cache.CacheService, opts ...Option) *CachedStore {
	c := &CachedStore{
		base:   base,
		cache:  cacheService,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.invalidator == nil {
		c.invalidator = invalidation.New(cacheService, invalidation.WithLogger(c.logger))
	}
	return c
}

// Restaurant retrieves a restaurant profile, with caching
func (c *CachedStore) Restaurant(ctx context.Context, restaurantID int64) (domain.Restaurant, error) {
	return cache.GetOrFetch(ctx, c.cache, keys.Restaurant(restaurantID), 0, func(ctx context.Context) (domain.Restaurant, error) {
		return c.base.Restaurant(ctx, restaurantID)
	})
}

// Tables retrieves the tables of a restaurant, with caching
func (c *CachedStore) Tables(ctx context.Context, restaurantID int64) ([]domain.Table, error) {
	return cache.GetOrFetch(ctx, c.cache, keys.Tables(restaurantID), 0, func(ctx context.Context) ([]domain.Table, error) {
		return c.base.Tables(ctx, restaurantID)
	})
}

// Guests retrieves the guest list of a restaurant, with caching
func (c *CachedStore) Guests(ctx context.Context, restaurantID int64) ([]domain.Guest, error) {
	return cache.GetOrFetch(ctx, c.cache, keys.Guests(restaurantID), 0, func(ctx context.Context) ([]domain.Guest, error) {
		return c.base.Guests(ctx, restaurantID)
	})
}

// Reservations retrieves every reservation of a restaurant, with caching
func (c *CachedStore) Reservations(ctx context.Context, restaurantID int64) ([]domain.Reservation, error) {
	return cache.GetOrFetch(ctx, c.cache, keys.Reservations(restaurantID), 0, func(ctx context.Context) ([]domain.Reservation, error) {
		return c.base.Reservations(ctx, restaurantID)
	})
}

// ReservationsOn retrieves the reservations of a restaurant on one day, with caching
func (c *CachedStore) ReservationsOn(ctx context.Context, restaurantID int64, date time.Time) ([]domain.Reservation, error) {
	return cache.GetOrFetch(ctx, c.cache, keys.ReservationsOn(restaurantID, date), 0, func(ctx context.Context) ([]domain.Reservation, error) {
		return c.base.ReservationsOn(ctx, restaurantID, date)
	})
}

// TableAvailability retrieves the per-table view of a day, with caching
func (c *CachedStore) TableAvailability(ctx context.Context, restaurantID int64, date time.Time) ([]domain.TableAvailability, error) {
	return cache.GetOrFetch(ctx, c.cache, keys.TableAvailability(restaurantID, date), 0, func(ctx context.Context) ([]domain.TableAvailability, error) {
		return c.base.TableAvailability(ctx, restaurantID, date)
	})
}

// AvailableTimeSlots retrieves the free slots for a party size, with caching
func (c *CachedStore) AvailableTimeSlots(ctx context.Context, restaurantID int64, date time.Time, guests int) ([]domain.AvailableSlot, error) {
	return cache.GetOrFetch(ctx, c.cache, keys.AvailableTimeSlots(restaurantID, date, guests), 0, func(ctx context.Context) ([]domain.AvailableSlot, error) {
		return c.base.AvailableTimeSlots(ctx, restaurantID, date, guests)
	})
}

// ReservationStats retrieves dashboard statistics, with caching
func (c *CachedStore) ReservationStats(ctx context.Context, restaurantID int64, filter domain.StatsFilter) (domain.DashboardStats, error) {
	return cache.GetOrFetch(ctx, c.cache, keys.ReservationStats(restaurantID, filter.From, filter.To), 0, func(ctx context.Context) (domain.DashboardStats, error) {
		return c.base.ReservationStats(ctx, restaurantID, filter)
	})
}

// Reservation reads a single reservation. Not cached: writers rely on it
// to learn the current state.
func (c *CachedStore) Reservation(ctx context.Context, id int64) (domain.Reservation, error) {
	return c.base.Reservation(ctx, id)
}

// GuestRestaurants lists restaurants a guest booked at. Not cached.
func (c *CachedStore) GuestRestaurants(ctx context.Context, guestID int64) ([]int64, error) {
	return c.base.GuestRestaurants(ctx, guestID)
}

// SaveRestaurant writes through and invalidates the restaurant's profile
// and derived views
func (c *CachedStore) SaveRestaurant(ctx context.Context, r *domain.Restaurant) error {
	if err := c.base.SaveRestaurant(ctx, r); err != nil {
		return err
	}
	return c.invalidate(ctx, invalidation.RestaurantChanged{RestaurantID: r.ID})
}

// SaveTable writes through and invalidates the restaurant's table views
func (c *CachedStore) SaveTable(ctx context.Context, t *domain.Table) error {
	if err := c.base.SaveTable(ctx, t); err != nil {
		return err
	}
	return c.invalidate(ctx, invalidation.TableChanged{RestaurantID: t.RestaurantID})
}

// DeleteTable deletes through and invalidates the restaurant's table views
func (c *CachedStore) DeleteTable(ctx context.Context, restaurantID, tableID int64) error {
	if err := c.base.DeleteTable(ctx, restaurantID, tableID); err != nil {
		return err
	}
	return c.invalidate(ctx, invalidation.TableChanged{RestaurantID: restaurantID})
}

// SaveGuest writes through and invalidates the guest lists of every
// restaurant the guest booked at. When that set cannot be read every guest
// list is dropped.
func (c *CachedStore) SaveGuest(ctx context.Context, g *domain.Guest) error {
	if err := c.base.SaveGuest(ctx, g); err != nil {
		return err
	}

	restaurants, err := c.base.GuestRestaurants(ctx, g.ID)
	if err != nil {
		c.logger.Warn("guest scope unknown, dropping all guest lists", zap.Int64("guest_id", g.ID), zap.Error(err))
		return c.invalidate(ctx, invalidation.GuestChanged{})
	}
	if len(restaurants) == 0 {
		return nil
	}
	return c.invalidate(ctx, invalidation.GuestChanged{RestaurantIDs: restaurants})
}

// CreateReservation writes through and invalidates the restaurant's
// reservation views for the booked day. The guest list changes too, since
// it is derived from reservations.
func (c *CachedStore) CreateReservation(ctx context.Context, r *domain.Reservation) error {
	if err := c.base.CreateReservation(ctx, r); err != nil {
		return err
	}
	return c.invalidate(ctx, invalidation.Composite{
		invalidation.ReservationChanged{RestaurantID: r.RestaurantID, Dates: days(*r)},
		invalidation.GuestChanged{RestaurantIDs: []int64{r.RestaurantID}},
	})
}

// UpdateReservation writes through and invalidates both the old and new day.
func (c *CachedStore) UpdateReservation(ctx context.Context, r *domain.Reservation) (domain.Reservation, error) {
	prev, err := c.base.UpdateReservation(ctx, r)
	if err != nil {
		return prev, err
	}

	events := invalidation.Composite{
		invalidation.ReservationChanged{RestaurantID: r.RestaurantID, Dates: days(prev, *r)},
	}
	if prev.GuestID != r.GuestID {
		events = append(events, invalidation.GuestChanged{RestaurantIDs: []int64{r.RestaurantID}})
	}
	return prev, c.invalidate(ctx, events)
}

// CancelReservation writes through and invalidates the reservation's day.
func (c *CachedStore) CancelReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	r, err := c.base.CancelReservation(ctx, id)
	if err != nil {
		return r, err
	}
	return r, c.invalidate(ctx, invalidation.ReservationChanged{RestaurantID: r.RestaurantID, Dates: days(r)})
}

// invalidate runs after the base write committed. A failure is returned
// because the cache may now serve pre-write data until the entry expires.
func (c *CachedStore) invalidate(ctx context.Context, e invalidation.Event) error {
	if _, err := c.invalidator.Apply(ctx, e); err != nil {
		c.logger.Error("cache invalidation failed after commit", zap.String("event", e.Name()), zap.Error(err))
		return fmt.Errorf("repositorycache: %w", err)
	}
	return nil
}

// days collects the dates of rs. A single unparseable date yields nil, which
// widens the event to every day of the restaurant.
func days(rs ...domain.Reservation) []time.Time {
	var out []time.Time
	for _, r := range rs {
		d, err := r.Day()
		if err != nil {
			return nil
		}
		out = append(out, d)
	}
	return out
}
