package keys

import (
	"strconv"
	"strings"
	"time"
)

// Separator delimits key segments. No namespace or formatted identifier may contain it.
const Separator = "::"

// DateLayout is the fixed-width day format used in every date segment.
const DateLayout = "2006-01-02"

// Namespace tags one query shape. Each namespace is a prefix of no other namespace.
type Namespace string

const (
	NamespaceAvailability Namespace = "availability"
	NamespaceReservations Namespace = "reservations"
	NamespaceGuests       Namespace = "guests"
	NamespaceTables       Namespace = "tables"
	NamespaceTimeSlots    Namespace = "timeslots"
	NamespaceRestaurant   Namespace = "restaurant"
)

// Namespaces lists every known namespace in a stable order.
func Namespaces() []Namespace {
	return []Namespace{
		NamespaceAvailability,
		NamespaceReservations,
		NamespaceGuests,
		NamespaceTables,
		NamespaceTimeSlots,
		NamespaceRestaurant,
	}
}

// Known reports whether ns is one of the built-in namespaces.
func Known(ns Namespace) bool {
	for _, n := range Namespaces() {
		if n == ns {
			return true
		}
	}
	return false
}

const statsSegment = "stats"

// TableAvailability keys the per-table availability view of a restaurant on a day.
func TableAvailability(restaurantID int64, date time.Time) string {
	return Build(NamespaceAvailability, ID(restaurantID), FormatDate(date))
}

// Reservations keys the full reservation list of a restaurant.
func Reservations(restaurantID int64) string {
	return Build(NamespaceReservations, ID(restaurantID))
}

// ReservationsOn keys the reservation list of a restaurant scoped to one day.
func ReservationsOn(restaurantID int64, date time.Time) string {
	return Build(NamespaceReservations, ID(restaurantID), FormatDate(date))
}

// ReservationStats keys dashboard statistics computed from a restaurant's
// reservations between two days. Each bound is a DateLayout day, or empty
// for an open bound, which renders as "_".
func ReservationStats(restaurantID int64, from, to string) string {
	return Build(NamespaceReservations, ID(restaurantID), statsSegment, from, to)
}

// Guests keys the guest list of a restaurant.
func Guests(restaurantID int64) string {
	return Build(NamespaceGuests, ID(restaurantID))
}

// Tables keys the table list of a restaurant.
func Tables(restaurantID int64) string {
	return Build(NamespaceTables, ID(restaurantID))
}

// AvailableTimeSlots keys the free time slots of a restaurant on a day for a party size.
func AvailableTimeSlots(restaurantID int64, date time.Time, guests int) string {
	return Build(NamespaceTimeSlots, ID(restaurantID), FormatDate(date), strconv.Itoa(guests))
}

// Restaurant keys a single restaurant profile.
func Restaurant(restaurantID int64) string {
	return Build(NamespaceRestaurant, ID(restaurantID))
}

// Build joins a namespace and its segments. Segments are sanitized so that
// they can never introduce an extra separator.
func Build(ns Namespace, segments ...string) string {
	if len(segments) == 0 {
		return string(ns)
	}
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, string(ns))
	for _, s := range segments {
		parts = append(parts, sanitize(s))
	}
	return strings.Join(parts, Separator)
}

// NamespaceOf returns the namespace segment of key.
func NamespaceOf(key string) Namespace {
	if i := strings.Index(key, Separator); i >= 0 {
		return Namespace(key[:i])
	}
	return Namespace(key)
}

// ID formats a numeric identifier segment.
func ID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// FormatDate formats the calendar day of t in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func sanitize(segment string) string {
	if segment == "" {
		return "_"
	}
	return strings.ReplaceAll(segment, ":", "_")
}
