package domain

import "github.com/uptrace/bun"

// TimeSlotStatus tracks whether a slot is still bookable.
type TimeSlotStatus string

const (
	SlotFree     TimeSlotStatus = "free"
	SlotPending  TimeSlotStatus = "pending"
	SlotOccupied TimeSlotStatus = "occupied"
)

// TimeSlot is one bookable start time of one table on one day. At most one
// reservation may ever reference a slot.
type TimeSlot struct {
	bun.BaseModel `bun:"table:time_slots,alias:ts" json:"-" msgpack:"-"`

	ID           int64          `bun:"id,pk,autoincrement" json:"id"`
	RestaurantID int64          `bun:"restaurant_id,notnull" json:"restaurant_id"`
	TableID      int64          `bun:"table_id,notnull" json:"table_id"`
	Date         string         `bun:"date,notnull" json:"date"`
	Time         string         `bun:"time,notnull" json:"time"`
	Status       TimeSlotStatus `bun:"status,notnull" json:"status"`
}
