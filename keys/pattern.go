package keys

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPattern is returned by ParsePattern for input outside the key grammar.
var ErrInvalidPattern = errors.New("keys: invalid pattern")

// Pattern selects every key inside a namespace whose leading segments equal
// the pattern segments. Matching is segment aligned: "reservations::5"
// matches "reservations::5" and "reservations::5::2024-01-01" but never
// "reservations::55".
type Pattern struct {
	prefix string
}

// NewPattern builds a pattern from a namespace and zero or more leading segments.
func NewPattern(ns Namespace, segments ...string) Pattern {
	return Pattern{prefix: Build(ns, segments...)}
}

// ParsePattern validates an externally supplied pattern such as
// "reservations::5". Only known namespaces are accepted and no segment may
// be empty or carry wildcard characters.
func ParsePattern(s string) (Pattern, error) {
	if s == "" {
		return Pattern{}, fmt.Errorf("%w: empty", ErrInvalidPattern)
	}
	parts := strings.Split(s, Separator)
	ns := Namespace(parts[0])
	if !Known(ns) {
		return Pattern{}, fmt.Errorf("%w: unknown namespace %q", ErrInvalidPattern, parts[0])
	}
	for _, p := range parts[1:] {
		if p == "" || strings.ContainsAny(p, "*?[]:") {
			return Pattern{}, fmt.Errorf("%w: bad segment %q", ErrInvalidPattern, p)
		}
	}
	return NewPattern(ns, parts[1:]...), nil
}

// Matches reports whether key falls under the pattern.
func (p Pattern) Matches(key string) bool {
	if !strings.HasPrefix(key, p.prefix) {
		return false
	}
	rest := key[len(p.prefix):]
	return rest == "" || strings.HasPrefix(rest, Separator)
}

// Namespace returns the namespace the pattern is confined to.
func (p Pattern) Namespace() Namespace {
	return NamespaceOf(p.prefix)
}

func (p Pattern) String() string {
	return p.prefix
}

// IsZero reports whether the pattern was never initialised.
func (p Pattern) IsZero() bool {
	return p.prefix == ""
}

// ReservationsPattern covers every reservation-derived key of a restaurant,
// including date-scoped lists and dashboard statistics.
func ReservationsPattern(restaurantID int64) Pattern {
	return NewPattern(NamespaceReservations, ID(restaurantID))
}

// AvailabilityPattern covers table availability of a restaurant on every date.
func AvailabilityPattern(restaurantID int64) Pattern {
	return NewPattern(NamespaceAvailability, ID(restaurantID))
}

// TimeSlotsPattern covers free time slots of a restaurant on date, for every party size.
func TimeSlotsPattern(restaurantID int64, date time.Time) Pattern {
	return NewPattern(NamespaceTimeSlots, ID(restaurantID), FormatDate(date))
}

// AllTimeSlotsPattern covers free time slots of a restaurant on every date.
func AllTimeSlotsPattern(restaurantID int64) Pattern {
	return NewPattern(NamespaceTimeSlots, ID(restaurantID))
}

// TablesPattern covers the table list of a restaurant.
func TablesPattern(restaurantID int64) Pattern {
	return NewPattern(NamespaceTables, ID(restaurantID))
}

// GuestsPattern covers the guest list of a restaurant.
func GuestsPattern(restaurantID int64) Pattern {
	return NewPattern(NamespaceGuests, ID(restaurantID))
}

// RestaurantPattern covers a restaurant profile.
func RestaurantPattern(restaurantID int64) Pattern {
	return NewPattern(NamespaceRestaurant, ID(restaurantID))
}

// NamespacePattern covers a whole namespace.
func NamespacePattern(ns Namespace) Pattern {
	return NewPattern(ns)
}
