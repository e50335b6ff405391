package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationCreated   ReservationStatus = "created"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCanceled  ReservationStatus = "canceled"
	ReservationCompleted ReservationStatus = "completed"
	ReservationArchived  ReservationStatus = "archived"
)

// ReservationStatuses lists every status in lifecycle order.
func ReservationStatuses() []ReservationStatus {
	return []ReservationStatus{
		ReservationCreated,
		ReservationConfirmed,
		ReservationCanceled,
		ReservationCompleted,
		ReservationArchived,
	}
}

// Valid reports whether s is a known reservation status.
func (s ReservationStatus) Valid() bool {
	for _, known := range ReservationStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// Holds reports whether a reservation in this status still blocks its table.
func (s ReservationStatus) Holds() bool {
	return s == ReservationCreated || s == ReservationConfirmed
}

// Reservation belongs to one restaurant and one guest, and optionally to one
// table and one time slot.
type Reservation struct {
	bun.BaseModel `bun:"table:reservations,alias:res" json:"-" msgpack:"-"`

	ID           int64             `bun:"id,pk,autoincrement" json:"id"`
	Reference    uuid.UUID         `bun:"reference,type:varchar(36),notnull,unique" json:"reference"`
	RestaurantID int64             `bun:"restaurant_id,notnull" json:"restaurant_id"`
	GuestID      int64             `bun:"guest_id,notnull" json:"guest_id"`
	TableID      *int64            `bun:"table_id" json:"table_id,omitempty"`
	TimeSlotID   *int64            `bun:"time_slot_id,unique" json:"time_slot_id,omitempty"`
	Date         string            `bun:"date,notnull" json:"date"`
	Time         string            `bun:"time,notnull" json:"time"`
	Duration     int               `bun:"duration,notnull" json:"duration"`
	Guests       int               `bun:"guests,notnull" json:"guests"`
	Status       ReservationStatus `bun:"status,notnull" json:"status"`
	CreatedAt    time.Time         `bun:"created_at,notnull" json:"created_at"`
}

// Day parses Date.
func (r Reservation) Day() (time.Time, error) {
	return ParseDate(r.Date)
}
