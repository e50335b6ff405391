package invalidation

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-reservation-cache/keys"
	"go.uber.org/zap"
)

// Purger removes every cache entry matching any of the patterns in one step.
// cache.CacheService satisfies it.
type Purger interface {
	Invalidate(ctx context.Context, patterns ...keys.Pattern) (int, error)
}

// Invalidator turns committed mutations into cache purges. Call it once per
// mutation, after the write has committed.
type Invalidator struct {
	purger Purger
	logger *zap.Logger
}

// Option configures an Invalidator.
type Option func(*Invalidator)

// WithLogger sets the logger. Each applied event is logged at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(i *Invalidator) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// New creates an Invalidator purging through p.
func New(p Purger, opts ...Option) *Invalidator {
	i := &Invalidator{purger: p, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Apply purges every pattern of e and reports how many entries were removed.
// Zero removals is not an error.
func (i *Invalidator) Apply(ctx context.Context, e Event) (int, error) {
	patterns := e.Patterns()
	n, err := i.purger.Invalidate(ctx, patterns...)
	if err != nil {
		return 0, fmt.Errorf("invalidation: %s: %w", e.Name(), err)
	}
	if ce := i.logger.Check(zap.DebugLevel, "cache invalidated"); ce != nil {
		ce.Write(
			zap.String("event", e.Name()),
			zap.Stringers("patterns", patterns),
			zap.Int("removed", n),
		)
	}
	return n, nil
}

// ReservationChanged invalidates after a reservation write for restaurantID.
// Pass every day the reservation occupied before and after the write.
func (i *Invalidator) ReservationChanged(ctx context.Context, restaurantID int64, dates ...time.Time) error {
	_, err := i.Apply(ctx, ReservationChanged{RestaurantID: restaurantID, Dates: dates})
	return err
}

// TableChanged invalidates after a table of restaurantID was added, edited or removed.
func (i *Invalidator) TableChanged(ctx context.Context, restaurantID int64) error {
	_, err := i.Apply(ctx, TableChanged{RestaurantID: restaurantID})
	return err
}

// GuestChanged invalidates the guest lists of restaurantIDs, or all guest
// lists when none are given.
func (i *Invalidator) GuestChanged(ctx context.Context, restaurantIDs ...int64) error {
	_, err := i.Apply(ctx, GuestChanged{RestaurantIDs: restaurantIDs})
	return err
}

// RestaurantChanged invalidates after a restaurant profile edit.
func (i *Invalidator) RestaurantChanged(ctx context.Context, restaurantID int64) error {
	_, err := i.Apply(ctx, RestaurantChanged{RestaurantID: restaurantID})
	return err
}
