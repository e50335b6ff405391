package bunstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-reservation-cache/domain"
)

// Fixtures is a full data set, typically decoded from a JSON seed file.
type Fixtures struct {
	Restaurants  []domain.Restaurant  `json:"restaurants"`
	Tables       []domain.Table       `json:"tables"`
	TimeSlots    []domain.TimeSlot    `json:"time_slots"`
	Guests       []domain.Guest       `json:"guests"`
	Reservations []domain.Reservation `json:"reservations"`
}

// Seed inserts f in dependency order inside one transaction. Explicit IDs
// in the fixtures are kept.
func Seed(ctx context.Context, db *bun.DB, f Fixtures) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		batches := []struct {
			name  string
			model any
			n     int
		}{
			{"restaurants", &f.Restaurants, len(f.Restaurants)},
			{"tables", &f.Tables, len(f.Tables)},
			{"time slots", &f.TimeSlots, len(f.TimeSlots)},
			{"guests", &f.Guests, len(f.Guests)},
			{"reservations", &f.Reservations, len(f.Reservations)},
		}
		for _, b := range batches {
			if b.n == 0 {
				continue
			}
			if _, err := tx.NewInsert().Model(b.model).Exec(ctx); err != nil {
				return fmt.Errorf("bunstore: seed %s: %w", b.name, err)
			}
		}
		return nil
	})
}
