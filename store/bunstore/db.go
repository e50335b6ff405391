// Package bunstore implements the Entry Store on top of bun. SQLite (via
// mattn/go-sqlite3) and PostgreSQL (via lib/pq) are supported.
package bunstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	"github.com/goliatone/go-reservation-cache/domain"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Open connects to dsn with driver and wraps the pool in a bun.DB using the
// matching dialect.
func Open(driver, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("bunstore: open %s: %w", driver, err)
	}

	switch driver {
	case DriverSQLite:
		// in-memory databases live and die with their connection
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case DriverPostgres:
		return bun.NewDB(sqldb, pgdialect.New()), nil
	}

	_ = sqldb.Close()
	return nil, fmt.Errorf("bunstore: unsupported driver %q", driver)
}

func models() []any {
	return []any{
		(*domain.Restaurant)(nil),
		(*domain.Table)(nil),
		(*domain.TimeSlot)(nil),
		(*domain.Guest)(nil),
		(*domain.Reservation)(nil),
	}
}

// CreateSchema creates every table and index if they do not exist yet.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, m := range models() {
		if _, err := db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("bunstore: create table for %T: %w", m, err)
		}
	}

	indexes := []struct {
		model   any
		name    string
		columns []string
	}{
		{(*domain.Table)(nil), "tables_restaurant_idx", []string{"restaurant_id"}},
		{(*domain.TimeSlot)(nil), "time_slots_restaurant_date_idx", []string{"restaurant_id", "date"}},
		{(*domain.Reservation)(nil), "reservations_restaurant_date_idx", []string{"restaurant_id", "date"}},
		{(*domain.Reservation)(nil), "reservations_guest_idx", []string{"guest_id"}},
	}
	for _, idx := range indexes {
		_, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("bunstore: create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// queryLogger reports every query at debug level and failed queries at warn.
type queryLogger struct {
	logger *zap.Logger
}

var _ bun.QueryHook = (*queryLogger)(nil)

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	fields := []zap.Field{
		zap.String("operation", event.Operation()),
		zap.Duration("duration", time.Since(event.StartTime)),
	}
	if event.Err != nil && event.Err != sql.ErrNoRows {
		h.logger.Warn("query failed", append(fields, zap.String("query", event.Query), zap.Error(event.Err))...)
		return
	}
	if ce := h.logger.Check(zap.DebugLevel, "query"); ce != nil {
		ce.Write(append(fields, zap.String("query", event.Query))...)
	}
}
