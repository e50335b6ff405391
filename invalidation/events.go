package invalidation

import (
	"strings"
	"time"

	"github.com/goliatone/go-reservation-cache/keys"
)

// Event describes a committed mutation in terms of the cache keys it makes stale.
type Event interface {
	Name() string
	Patterns() []keys.Pattern
}

// ReservationChanged covers a reservation being created, updated, canceled
// or archived. Dates lists every calendar day the reservation touched, which
// is both the old and new day when a reservation moves. With no dates every
// time slot view of the restaurant is dropped.
type ReservationChanged struct {
	RestaurantID int64
	Dates        []time.Time
}

func (e ReservationChanged) Name() string { return "reservation_changed" }

func (e ReservationChanged) Patterns() []keys.Pattern {
	patterns := []keys.Pattern{
		keys.ReservationsPattern(e.RestaurantID),
		keys.AvailabilityPattern(e.RestaurantID),
	}
	if len(e.Dates) == 0 {
		return append(patterns, keys.AllTimeSlotsPattern(e.RestaurantID))
	}

	seen := make(map[string]struct{}, len(e.Dates))
	for _, d := range e.Dates {
		day := keys.FormatDate(d)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		patterns = append(patterns, keys.TimeSlotsPattern(e.RestaurantID, d))
	}
	return patterns
}

// TableChanged covers a table being added, edited or removed. Free slots
// are computed per table, so every time slot view of the restaurant goes too.
type TableChanged struct {
	RestaurantID int64
}

func (e TableChanged) Name() string { return "table_changed" }

func (e TableChanged) Patterns() []keys.Pattern {
	return []keys.Pattern{
		keys.TablesPattern(e.RestaurantID),
		keys.AvailabilityPattern(e.RestaurantID),
		keys.AllTimeSlotsPattern(e.RestaurantID),
	}
}

// GuestChanged covers a guest profile edit. Guests are not owned by a
// single restaurant, so RestaurantIDs names every restaurant whose guest
// list includes the guest. An empty scope drops every guest list.
type GuestChanged struct {
	RestaurantIDs []int64
}

func (e GuestChanged) Name() string { return "guest_changed" }

func (e GuestChanged) Patterns() []keys.Pattern {
	if len(e.RestaurantIDs) == 0 {
		return []keys.Pattern{keys.NamespacePattern(keys.NamespaceGuests)}
	}
	patterns := make([]keys.Pattern, 0, len(e.RestaurantIDs))
	seen := make(map[int64]struct{}, len(e.RestaurantIDs))
	for _, rid := range e.RestaurantIDs {
		if _, ok := seen[rid]; ok {
			continue
		}
		seen[rid] = struct{}{}
		patterns = append(patterns, keys.GuestsPattern(rid))
	}
	return patterns
}

// RestaurantChanged covers edits to a restaurant profile. Operating hours
// and capacity bounds feed the derived availability and time slot views.
type RestaurantChanged struct {
	RestaurantID int64
}

func (e RestaurantChanged) Name() string { return "restaurant_changed" }

func (e RestaurantChanged) Patterns() []keys.Pattern {
	return []keys.Pattern{
		keys.RestaurantPattern(e.RestaurantID),
		keys.AvailabilityPattern(e.RestaurantID),
		keys.AllTimeSlotsPattern(e.RestaurantID),
	}
}

// Composite applies several events as one purge.
type Composite []Event

func (c Composite) Name() string {
	names := make([]string, len(c))
	for i, e := range c {
		names[i] = e.Name()
	}
	return strings.Join(names, "+")
}

func (c Composite) Patterns() []keys.Pattern {
	var out []keys.Pattern
	for _, e := range c {
		out = append(out, e.Patterns()...)
	}
	return out
}
