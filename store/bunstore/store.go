package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/goliatone/go-reservation-cache/domain"
	"github.com/goliatone/go-reservation-cache/store"
)

var _ store.Store = (*Store)(nil)

// Store is the bun backed Entry Store.
type Store struct {
	db     *bun.DB
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger installs a query hook that logs through logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now for reservation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New wraps db. The schema is expected to exist, see CreateSchema.
func New(db *bun.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	db.AddQueryHook(&queryLogger{logger: s.logger.Named("bunstore")})
	return s
}

// DB exposes the underlying handle for schema management and seeding.
func (s *Store) DB() *bun.DB {
	return s.db
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Restaurant(ctx context.Context, restaurantID int64) (domain.Restaurant, error) {
	var r domain.Restaurant
	err := s.db.NewSelect().Model(&r).Where("r.id = ?", restaurantID).Scan(ctx)
	if err != nil {
		return domain.Restaurant{}, notFound(err, "restaurant %d", restaurantID)
	}
	return r, nil
}

func (s *Store) Tables(ctx context.Context, restaurantID int64) ([]domain.Table, error) {
	tables := []domain.Table{}
	err := s.db.NewSelect().
		Model(&tables).
		Where("t.restaurant_id = ?", restaurantID).
		Order("t.number ASC", "t.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bunstore: tables of restaurant %d: %w", restaurantID, err)
	}
	return tables, nil
}

// Guests lists every guest holding at least one reservation at the restaurant.
func (s *Store) Guests(ctx context.Context, restaurantID int64) ([]domain.Guest, error) {
	sub := s.db.NewSelect().
		Model((*domain.Reservation)(nil)).
		Column("guest_id").
		Where("res.restaurant_id = ?", restaurantID)

	guests := []domain.Guest{}
	err := s.db.NewSelect().
		Model(&guests).
		Where("g.id IN (?)", sub).
		Order("g.name ASC", "g.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bunstore: guests of restaurant %d: %w", restaurantID, err)
	}
	return guests, nil
}

func (s *Store) Reservations(ctx context.Context, restaurantID int64) ([]domain.Reservation, error) {
	return s.reservations(ctx, restaurantID, func(q *bun.SelectQuery) *bun.SelectQuery { return q })
}

func (s *Store) ReservationsOn(ctx context.Context, restaurantID int64, date time.Time) ([]domain.Reservation, error) {
	day := domain.FormatDate(date)
	return s.reservations(ctx, restaurantID, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("res.date = ?", day)
	})
}

func (s *Store) reservations(ctx context.Context, restaurantID int64, scope func(*bun.SelectQuery) *bun.SelectQuery) ([]domain.Reservation, error) {
	out := []domain.Reservation{}
	q := s.db.NewSelect().
		Model(&out).
		Where("res.restaurant_id = ?", restaurantID).
		Order("res.date ASC", "res.time ASC", "res.id ASC")
	if err := scope(q).Scan(ctx); err != nil {
		return nil, fmt.Errorf("bunstore: reservations of restaurant %d: %w", restaurantID, err)
	}
	return out, nil
}

func (s *Store) TableAvailability(ctx context.Context, restaurantID int64, date time.Time) ([]domain.TableAvailability, error) {
	r, err := s.Restaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	slots, err := r.Slots()
	if err != nil {
		return nil, err
	}
	tables, err := s.Tables(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	reservations, err := s.ReservationsOn(ctx, restaurantID, date)
	if err != nil {
		return nil, err
	}
	return domain.BuildTableAvailability(slots, tables, reservations), nil
}

// AvailableTimeSlots returns free slots grouped by start time. A party the
// restaurant cannot seat gets an empty list.
func (s *Store) AvailableTimeSlots(ctx context.Context, restaurantID int64, date time.Time, guests int) ([]domain.AvailableSlot, error) {
	r, err := s.Restaurant(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if !r.AcceptsParty(guests) {
		return []domain.AvailableSlot{}, nil
	}
	tables, err := s.Tables(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	var slots []domain.TimeSlot
	err = s.db.NewSelect().
		Model(&slots).
		Where("ts.restaurant_id = ?", restaurantID).
		Where("ts.date = ?", domain.FormatDate(date)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bunstore: time slots of restaurant %d: %w", restaurantID, err)
	}
	return domain.BuildAvailableSlots(slots, tables, guests), nil
}

func (s *Store) ReservationStats(ctx context.Context, restaurantID int64, filter domain.StatsFilter) (domain.DashboardStats, error) {
	reservations, err := s.reservations(ctx, restaurantID, func(q *bun.SelectQuery) *bun.SelectQuery {
		if filter.From != "" {
			q = q.Where("res.date >= ?", filter.From)
		}
		if filter.To != "" {
			q = q.Where("res.date <= ?", filter.To)
		}
		return q
	})
	if err != nil {
		return domain.DashboardStats{}, err
	}
	return domain.BuildDashboardStats(reservations, filter), nil
}

func (s *Store) Reservation(ctx context.Context, id int64) (domain.Reservation, error) {
	return s.reservationTx(ctx, s.db, id)
}

func (s *Store) GuestRestaurants(ctx context.Context, guestID int64) ([]int64, error) {
	var ids []int64
	err := s.db.NewSelect().
		Model((*domain.Reservation)(nil)).
		ColumnExpr("DISTINCT res.restaurant_id").
		Where("res.guest_id = ?", guestID).
		Order("res.restaurant_id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("bunstore: restaurants of guest %d: %w", guestID, err)
	}
	return ids, nil
}

func (s *Store) reservationTx(ctx context.Context, db bun.IDB, id int64) (domain.Reservation, error) {
	var r domain.Reservation
	err := db.NewSelect().Model(&r).Where("res.id = ?", id).Scan(ctx)
	if err != nil {
		return domain.Reservation{}, notFound(err, "reservation %d", id)
	}
	return r, nil
}

func (s *Store) SaveRestaurant(ctx context.Context, r *domain.Restaurant) error {
	return s.save(ctx, r, r.ID, "restaurant", nil)
}

// SaveTable inserts or updates t. A table cannot move to another restaurant;
// such an update reports ErrNotFound.
func (s *Store) SaveTable(ctx context.Context, t *domain.Table) error {
	if t.Status == "" {
		t.Status = domain.TableFree
	}
	return s.save(ctx, t, t.ID, "table", func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Where("restaurant_id = ?", t.RestaurantID)
	})
}

func (s *Store) SaveGuest(ctx context.Context, g *domain.Guest) error {
	return s.save(ctx, g, g.ID, "guest", nil)
}

// save inserts model when id is zero and updates it by primary key otherwise.
func (s *Store) save(ctx context.Context, model any, id int64, what string, scope func(*bun.UpdateQuery) *bun.UpdateQuery) error {
	if id == 0 {
		if _, err := s.db.NewInsert().Model(model).Exec(ctx); err != nil {
			return fmt.Errorf("bunstore: insert %s: %w", what, err)
		}
		return nil
	}

	q := s.db.NewUpdate().Model(model).WherePK()
	if scope != nil {
		q = scope(q)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("bunstore: update %s %d: %w", what, id, err)
	}
	return expectRow(res, "%s %d", what, id)
}

// DeleteTable removes a table and its time slots that were never booked.
func (s *Store) DeleteTable(ctx context.Context, restaurantID, tableID int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*domain.Table)(nil)).
			Where("id = ?", tableID).
			Where("restaurant_id = ?", restaurantID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("bunstore: delete table %d: %w", tableID, err)
		}
		if err := expectRow(res, "table %d of restaurant %d", tableID, restaurantID); err != nil {
			return err
		}

		_, err = tx.NewDelete().
			Model((*domain.TimeSlot)(nil)).
			Where("table_id = ?", tableID).
			Where("status = ?", domain.SlotFree).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("bunstore: delete slots of table %d: %w", tableID, err)
		}
		return nil
	})
}

// CreateReservation inserts r. When r names a time slot the slot must be
// free and belong to the same restaurant; the reservation takes the slot's
// table, date and time.
func (s *Store) CreateReservation(ctx context.Context, r *domain.Reservation) error {
	if r.Reference == uuid.Nil {
		r.Reference = uuid.New()
	}
	if r.Status == "" {
		r.Status = domain.ReservationCreated
	}
	r.CreatedAt = s.now().UTC()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if r.TimeSlotID != nil {
			if err := s.claimSlot(ctx, tx, r); err != nil {
				return err
			}
		}
		if _, err := tx.NewInsert().Model(r).Exec(ctx); err != nil {
			return fmt.Errorf("bunstore: insert reservation: %w", err)
		}
		return nil
	})
}

// UpdateReservation rewrites r. The reference and creation time are kept
// from the stored version, which is returned so callers know the old date.
func (s *Store) UpdateReservation(ctx context.Context, r *domain.Reservation) (domain.Reservation, error) {
	var prev domain.Reservation
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		prev, err = s.reservationTx(ctx, tx, r.ID)
		if err != nil {
			return err
		}
		r.Reference = prev.Reference
		r.CreatedAt = prev.CreatedAt
		if r.Status == domain.ReservationCanceled {
			r.TimeSlotID = nil
		}
		if r.RestaurantID != prev.RestaurantID {
			return fmt.Errorf("%w: reservation %d cannot move between restaurants", store.ErrConflict, r.ID)
		}

		sameSlot := equalID(prev.TimeSlotID, r.TimeSlotID)
		if prev.TimeSlotID != nil && !sameSlot {
			if err := setSlotStatus(ctx, tx, *prev.TimeSlotID, domain.SlotFree); err != nil {
				return err
			}
		}
		if r.TimeSlotID != nil {
			if !sameSlot {
				if err := s.claimSlot(ctx, tx, r); err != nil {
					return err
				}
			}
			if err := setSlotStatus(ctx, tx, *r.TimeSlotID, slotStatusFor(r.Status)); err != nil {
				return err
			}
		}

		res, err := tx.NewUpdate().Model(r).WherePK().Exec(ctx)
		if err != nil {
			return fmt.Errorf("bunstore: update reservation %d: %w", r.ID, err)
		}
		return expectRow(res, "reservation %d", r.ID)
	})
	return prev, err
}

// CancelReservation marks the reservation canceled and releases its slot.
func (s *Store) CancelReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	var out domain.Reservation
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		r, err := s.reservationTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if r.TimeSlotID != nil {
			if err := setSlotStatus(ctx, tx, *r.TimeSlotID, domain.SlotFree); err != nil {
				return err
			}
		}
		r.Status = domain.ReservationCanceled
		r.TimeSlotID = nil

		_, err = tx.NewUpdate().
			Model(&r).
			Column("status", "time_slot_id").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("bunstore: cancel reservation %d: %w", id, err)
		}
		out = r
		return nil
	})
	return out, err
}

func (s *Store) claimSlot(ctx context.Context, tx bun.Tx, r *domain.Reservation) error {
	var slot domain.TimeSlot
	err := tx.NewSelect().Model(&slot).Where("ts.id = ?", *r.TimeSlotID).Scan(ctx)
	if err != nil {
		return notFound(err, "time slot %d", *r.TimeSlotID)
	}
	if slot.RestaurantID != r.RestaurantID {
		return fmt.Errorf("%w: time slot %d belongs to restaurant %d", store.ErrConflict, slot.ID, slot.RestaurantID)
	}
	if slot.Status != domain.SlotFree {
		return fmt.Errorf("%w: time slot %d is %s", store.ErrConflict, slot.ID, slot.Status)
	}

	tableID := slot.TableID
	r.TableID = &tableID
	r.Date = slot.Date
	r.Time = slot.Time
	return setSlotStatus(ctx, tx, slot.ID, slotStatusFor(r.Status))
}

func setSlotStatus(ctx context.Context, tx bun.Tx, slotID int64, status domain.TimeSlotStatus) error {
	_, err := tx.NewUpdate().
		Model((*domain.TimeSlot)(nil)).
		Set("status = ?", status).
		Where("id = ?", slotID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bunstore: update time slot %d: %w", slotID, err)
	}
	return nil
}

func slotStatusFor(s domain.ReservationStatus) domain.TimeSlotStatus {
	switch s {
	case domain.ReservationCreated:
		return domain.SlotPending
	case domain.ReservationConfirmed, domain.ReservationCompleted:
		return domain.SlotOccupied
	}
	return domain.SlotFree
}

func equalID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: "+format, append([]any{store.ErrNotFound}, args...)...)
	}
	return fmt.Errorf("bunstore: "+format+": %w", append(args, err)...)
}

func expectRow(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bunstore: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: "+format, append([]any{store.ErrNotFound}, args...)...)
	}
	return nil
}
