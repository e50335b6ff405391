package domain

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// DateLayout is the calendar day format used for reservation and slot dates.
const DateLayout = time.DateOnly

// ClockLayout is the wall clock format used for opening hours and slot times.
const ClockLayout = "15:04"

// DefaultSlotMinutes is used when a restaurant does not set its own slot length.
const DefaultSlotMinutes = 30

// Restaurant is identity, operating hours and capacity bounds.
type Restaurant struct {
	bun.BaseModel `bun:"table:restaurants,alias:r" json:"-" msgpack:"-"`

	ID          int64  `bun:"id,pk,autoincrement" json:"id"`
	Name        string `bun:"name,notnull" json:"name"`
	Opens       string `bun:"opens,notnull" json:"opens"`
	Closes      string `bun:"closes,notnull" json:"closes"`
	MinGuests   int    `bun:"min_guests,notnull" json:"min_guests"`
	MaxGuests   int    `bun:"max_guests,notnull" json:"max_guests"`
	SlotMinutes int    `bun:"slot_minutes,notnull" json:"slot_minutes"`
}

// AcceptsParty reports whether a party of n fits the restaurant's bounds.
// A zero bound is treated as unset.
func (r Restaurant) AcceptsParty(n int) bool {
	if n <= 0 {
		return false
	}
	if r.MinGuests > 0 && n < r.MinGuests {
		return false
	}
	if r.MaxGuests > 0 && n > r.MaxGuests {
		return false
	}
	return true
}

// Slots lists the start times between Opens and Closes, SlotMinutes apart.
// The last slot starts before Closes.
func (r Restaurant) Slots() ([]string, error) {
	opens, err := time.Parse(ClockLayout, r.Opens)
	if err != nil {
		return nil, fmt.Errorf("restaurant %d: opens: %w", r.ID, err)
	}
	closes, err := time.Parse(ClockLayout, r.Closes)
	if err != nil {
		return nil, fmt.Errorf("restaurant %d: closes: %w", r.ID, err)
	}
	step := r.SlotMinutes
	if step <= 0 {
		step = DefaultSlotMinutes
	}

	var out []string
	for t := opens; t.Before(closes); t = t.Add(time.Duration(step) * time.Minute) {
		out = append(out, t.Format(ClockLayout))
	}
	return out, nil
}

// ParseDate parses a calendar day in DateLayout.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate formats the calendar day of t.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
