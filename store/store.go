// Package store defines the Entry Store: the durable system of record for
// restaurants, tables, time slots, guests and reservations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-reservation-cache/domain"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a write would break a uniqueness rule,
	// such as two reservations referencing the same time slot.
	ErrConflict = errors.New("store: conflict")
)

// Reader is every read the cache mirrors. Each method maps to one key shape.
type Reader interface {
	Restaurant(ctx context.Context, restaurantID int64) (domain.Restaurant, error)
	Tables(ctx context.Context, restaurantID int64) ([]domain.Table, error)
	Guests(ctx context.Context, restaurantID int64) ([]domain.Guest, error)
	Reservations(ctx context.Context, restaurantID int64) ([]domain.Reservation, error)
	ReservationsOn(ctx context.Context, restaurantID int64, date time.Time) ([]domain.Reservation, error)
	TableAvailability(ctx context.Context, restaurantID int64, date time.Time) ([]domain.TableAvailability, error)
	AvailableTimeSlots(ctx context.Context, restaurantID int64, date time.Time, guests int) ([]domain.AvailableSlot, error)
	ReservationStats(ctx context.Context, restaurantID int64, filter domain.StatsFilter) (domain.DashboardStats, error)
}

// Lookup holds reads that are never cached because writers need them fresh.
type Lookup interface {
	Reservation(ctx context.Context, id int64) (domain.Reservation, error)
	GuestRestaurants(ctx context.Context, guestID int64) ([]int64, error)
}

// Writer commits mutations. Every method returns only after the write has
// committed, so callers may invalidate as soon as it returns.
type Writer interface {
	SaveRestaurant(ctx context.Context, r *domain.Restaurant) error
	SaveTable(ctx context.Context, t *domain.Table) error
	DeleteTable(ctx context.Context, restaurantID, tableID int64) error
	SaveGuest(ctx context.Context, g *domain.Guest) error
	CreateReservation(ctx context.Context, r *domain.Reservation) error
	// UpdateReservation replaces r and returns the version it replaced.
	UpdateReservation(ctx context.Context, r *domain.Reservation) (domain.Reservation, error)
	CancelReservation(ctx context.Context, id int64) (domain.Reservation, error)
}

// Store is the full Entry Store contract.
type Store interface {
	Reader
	Lookup
	Writer
}
