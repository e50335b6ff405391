package domain

import "github.com/uptrace/bun"

// TableStatus is the floor status of a table.
type TableStatus string

const (
	TableFree        TableStatus = "free"
	TableOccupied    TableStatus = "occupied"
	TableReserved    TableStatus = "reserved"
	TableUnavailable TableStatus = "unavailable"
)

// Valid reports whether s is a known table status.
func (s TableStatus) Valid() bool {
	switch s {
	case TableFree, TableOccupied, TableReserved, TableUnavailable:
		return true
	}
	return false
}

// Table belongs to exactly one restaurant.
type Table struct {
	bun.BaseModel `bun:"table:tables,alias:t" json:"-" msgpack:"-"`

	ID           int64       `bun:"id,pk,autoincrement" json:"id"`
	RestaurantID int64       `bun:"restaurant_id,notnull" json:"restaurant_id"`
	Number       int         `bun:"number,notnull" json:"number"`
	Seats        int         `bun:"seats,notnull" json:"seats"`
	Status       TableStatus `bun:"status,notnull" json:"status"`
}

// Bookable reports whether the table can take a party of n.
func (t Table) Bookable(n int) bool {
	return t.Status != TableUnavailable && t.Seats >= n
}
