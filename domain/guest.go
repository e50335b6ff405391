package domain

import "github.com/uptrace/bun"

// Guest is independent of any single restaurant. A restaurant's guest list
// is derived from its reservations.
type Guest struct {
	bun.BaseModel `bun:"table:guests,alias:g" json:"-" msgpack:"-"`

	ID    int64  `bun:"id,pk,autoincrement" json:"id"`
	Name  string `bun:"name,notnull" json:"name"`
	Email string `bun:"email" json:"email"`
	Phone string `bun:"phone" json:"phone"`
}
