package invalidation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-reservation-cache/cache"
	"github.com/goliatone/go-reservation-cache/invalidation"
	"github.com/goliatone/go-reservation-cache/keys"
)

var (
	jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan2 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
)

func newCache(t *testing.T) cache.CacheService {
	t.Helper()
	svc, err := cache.NewCacheService(cache.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func seed(t *testing.T, svc cache.CacheService, ks ...string) {
	t.Helper()
	for _, k := range ks {
		require.NoError(t, svc.Set(context.Background(), k, []byte("x"), 0))
	}
}

func present(svc cache.CacheService, k string) bool {
	_, ok := svc.Get(context.Background(), k)
	return ok
}

func patternStrings(ps []keys.Pattern) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

func TestEventPatterns(t *testing.T) {
	tests := []struct {
		name  string
		event invalidation.Event
		want  []string
	}{
		{
			name:  "reservation with date",
			event: invalidation.ReservationChanged{RestaurantID: 5, Dates: []time.Time{jan1}},
			want:  []string{"reservations::5", "availability::5", "timeslots::5::2024-01-01"},
		},
		{
			name:  "reservation moved between days",
			event: invalidation.ReservationChanged{RestaurantID: 5, Dates: []time.Time{jan1, jan2, jan1}},
			want:  []string{"reservations::5", "availability::5", "timeslots::5::2024-01-01", "timeslots::5::2024-01-02"},
		},
		{
			name:  "reservation without date",
			event: invalidation.ReservationChanged{RestaurantID: 5},
			want:  []string{"reservations::5", "availability::5", "timeslots::5"},
		},
		{
			name:  "table",
			event: invalidation.TableChanged{RestaurantID: 7},
			want:  []string{"tables::7", "availability::7", "timeslots::7"},
		},
		{
			name:  "guest in two restaurants",
			event: invalidation.GuestChanged{RestaurantIDs: []int64{1, 2, 1}},
			want:  []string{"guests::1", "guests::2"},
		},
		{
			name:  "guest without scope",
			event: invalidation.GuestChanged{},
			want:  []string{"guests"},
		},
		{
			name: "composite",
			event: invalidation.Composite{
				invalidation.ReservationChanged{RestaurantID: 1, Dates: []time.Time{jan2}},
				invalidation.GuestChanged{RestaurantIDs: []int64{1}},
			},
			want: []string{"reservations::1", "availability::1", "timeslots::1::2024-01-02", "guests::1"},
		},
		{
			name:  "restaurant",
			event: invalidation.RestaurantChanged{RestaurantID: 3},
			want:  []string{"restaurant::3", "availability::3", "timeslots::3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := patternStrings(tt.event.Patterns())
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Patterns() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInvalidator_ReservationChangedScenario(t *testing.T) {
	svc := newCache(t)
	inv := invalidation.New(svc)
	ctx := context.Background()

	availability := keys.TableAvailability(5, jan1)
	reservations := keys.ReservationsOn(5, jan1)
	guests := keys.Guests(5)
	seed(t, svc, availability, reservations, guests)

	require.NoError(t, inv.ReservationChanged(ctx, 5, jan1))

	assert.False(t, present(svc, availability))
	assert.False(t, present(svc, reservations))
	assert.True(t, present(svc, guests))
}

func TestInvalidator_ReservationChangedScopesByDateAndRestaurant(t *testing.T) {
	svc := newCache(t)
	inv := invalidation.New(svc)
	ctx := context.Background()

	slotsJan1 := keys.AvailableTimeSlots(5, jan1, 2)
	slotsJan2 := keys.AvailableTimeSlots(5, jan2, 2)
	otherRestaurant := keys.Reservations(55)
	stats := keys.ReservationStats(5, "2024-01-01", "")
	seed(t, svc, slotsJan1, slotsJan2, otherRestaurant, stats)

	require.NoError(t, inv.ReservationChanged(ctx, 5, jan1))

	assert.False(t, present(svc, slotsJan1))
	assert.True(t, present(svc, slotsJan2), "slots on an untouched day survive")
	assert.True(t, present(svc, otherRestaurant), "restaurant 55 is not restaurant 5")
	assert.False(t, present(svc, stats), "stats live under the reservations namespace")
}

func TestInvalidator_TableChanged(t *testing.T) {
	svc := newCache(t)
	inv := invalidation.New(svc)

	tables := keys.Tables(5)
	availability := keys.TableAvailability(5, jan1)
	slots := keys.AvailableTimeSlots(5, jan2, 4)
	reservations := keys.Reservations(5)
	seed(t, svc, tables, availability, slots, reservations)

	require.NoError(t, inv.TableChanged(context.Background(), 5))

	assert.False(t, present(svc, tables))
	assert.False(t, present(svc, availability))
	assert.False(t, present(svc, slots))
	assert.True(t, present(svc, reservations))
}

func TestInvalidator_GuestChanged(t *testing.T) {
	svc := newCache(t)
	inv := invalidation.New(svc)
	ctx := context.Background()

	seed(t, svc, keys.Guests(1), keys.Guests(2), keys.Tables(1))

	require.NoError(t, inv.GuestChanged(ctx, 1))
	assert.False(t, present(svc, keys.Guests(1)))
	assert.True(t, present(svc, keys.Guests(2)))

	require.NoError(t, inv.GuestChanged(ctx))
	assert.False(t, present(svc, keys.Guests(2)))
	assert.True(t, present(svc, keys.Tables(1)))
}

func TestInvalidator_ApplyReportsRemovedAndLogs(t *testing.T) {
	svc := newCache(t)
	core, logs := observer.New(zap.DebugLevel)
	inv := invalidation.New(svc, invalidation.WithLogger(zap.New(core)))

	seed(t, svc, keys.Restaurant(3), keys.TableAvailability(3, jan1))

	n, err := inv.Apply(context.Background(), invalidation.RestaurantChanged{RestaurantID: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries := logs.FilterMessage("cache invalidated").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "restaurant_changed", entries[0].ContextMap()["event"])
	assert.EqualValues(t, 2, entries[0].ContextMap()["removed"])
}

func TestInvalidator_NoMatchesIsNotAnError(t *testing.T) {
	inv := invalidation.New(newCache(t))
	n, err := inv.Apply(context.Background(), invalidation.TableChanged{RestaurantID: 99})
	require.NoError(t, err)
	assert.Zero(t, n)
}

type failingPurger struct{ err error }

func (f failingPurger) Invalidate(context.Context, ...keys.Pattern) (int, error) {
	return 0, f.err
}

func TestInvalidator_PropagatesPurgeError(t *testing.T) {
	boom := errors.New("closed")
	inv := invalidation.New(failingPurger{err: boom})

	err := inv.TableChanged(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "table_changed")
}
