package repositorycache

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-reservation-cache/cache"
	"github.com/goliatone/go-reservation-cache/domain"
	"github.com/goliatone/go-reservation-cache/keys"
	"github.com/goliatone/go-reservation-cache/store"
)

var (
	jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan2 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
)

// mockStore is an in-memory store that tracks method calls for testing
type mockStore struct {
	mu    sync.Mutex
	calls []string

	tables       []domain.Table
	guests       []domain.Guest
	reservations map[int64]domain.Reservation
	guestScope   []int64

	readErr   error
	writeErr  error
	scopeErr  error
	beforeGet func()
}

func newMockStore() *mockStore {
	return &mockStore{
		tables: []domain.Table{{ID: 1, RestaurantID: 5, Number: 1, Seats: 4, Status: domain.TableFree}},
		guests: []domain.Guest{{ID: 1, Name: "Ada"}},
		reservations: map[int64]domain.Reservation{
			1: {ID: 1, RestaurantID: 5, GuestID: 1, Date: "2024-01-01", Time: "18:00", Guests: 2, Status: domain.ReservationCreated},
		},
		guestScope: []int64{5},
	}
}

// Helper method to record method calls
func (m *mockStore) recordCall(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, method)
}

// Helper method to count recorded calls of one method
func (m *mockStore) count(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (m *mockStore) read(method string) error {
	m.recordCall(method)
	if m.beforeGet != nil {
		m.beforeGet()
	}
	return m.readErr
}

func (m *mockStore) Restaurant(ctx context.Context, restaurantID int64) (domain.Restaurant, error) {
	if err := m.read("Restaurant"); err != nil {
		return domain.Restaurant{}, err
	}
	return domain.Restaurant{ID: restaurantID, Name: "Bistro", Opens: "18:00", Closes: "22:00"}, nil
}

func (m *mockStore) Tables(ctx context.Context, restaurantID int64) ([]domain.Table, error) {
	if err := m.read("Tables"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Table(nil), m.tables...), nil
}

func (m *mockStore) Guests(ctx context.Context, restaurantID int64) ([]domain.Guest, error) {
	if err := m.read("Guests"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Guest(nil), m.guests...), nil
}

func (m *mockStore) Reservations(ctx context.Context, restaurantID int64) ([]domain.Reservation, error) {
	if err := m.read("Reservations"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Reservation
	for _, r := range m.reservations {
		if r.RestaurantID == restaurantID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) ReservationsOn(ctx context.Context, restaurantID int64, date time.Time) ([]domain.Reservation, error) {
	if err := m.read("ReservationsOn"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Reservation
	for _, r := range m.reservations {
		if r.RestaurantID == restaurantID && r.Date == domain.FormatDate(date) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) TableAvailability(ctx context.Context, restaurantID int64, date time.Time) ([]domain.TableAvailability, error) {
	if err := m.read("TableAvailability"); err != nil {
		return nil, err
	}
	return []domain.TableAvailability{{TableID: 1, Free: []string{"18:00"}}}, nil
}

func (m *mockStore) AvailableTimeSlots(ctx context.Context, restaurantID int64, date time.Time, guests int) ([]domain.AvailableSlot, error) {
	if err := m.read("AvailableTimeSlots"); err != nil {
		return nil, err
	}
	return []domain.AvailableSlot{{Time: "18:00", TableIDs: []int64{1}}}, nil
}

func (m *mockStore) ReservationStats(ctx context.Context, restaurantID int64, filter domain.StatsFilter) (domain.DashboardStats, error) {
	if err := m.read("ReservationStats"); err != nil {
		return domain.DashboardStats{}, err
	}
	return domain.DashboardStats{Total: len(m.reservations)}, nil
}

func (m *mockStore) Reservation(ctx context.Context, id int64) (domain.Reservation, error) {
	m.recordCall("Reservation")
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return domain.Reservation{}, store.ErrNotFound
	}
	return r, nil
}

func (m *mockStore) GuestRestaurants(ctx context.Context, guestID int64) ([]int64, error) {
	m.recordCall("GuestRestaurants")
	return m.guestScope, m.scopeErr
}

func (m *mockStore) SaveRestaurant(ctx context.Context, r *domain.Restaurant) error {
	m.recordCall("SaveRestaurant")
	return m.writeErr
}

func (m *mockStore) SaveTable(ctx context.Context, t *domain.Table) error {
	m.recordCall("SaveTable")
	if m.writeErr != nil {
		return m.writeErr
	}
	m.mu.Lock()
	m.tables = append(m.tables, *t)
	m.mu.Unlock()
	return nil
}

func (m *mockStore) DeleteTable(ctx context.Context, restaurantID, tableID int64) error {
	m.recordCall("DeleteTable")
	return m.writeErr
}

func (m *mockStore) SaveGuest(ctx context.Context, g *domain.Guest) error {
	m.recordCall("SaveGuest")
	return m.writeErr
}

func (m *mockStore) CreateReservation(ctx context.Context, r *domain.Reservation) error {
	m.recordCall("CreateReservation")
	if m.writeErr != nil {
		return m.writeErr
	}
	m.mu.Lock()
	r.ID = int64(len(m.reservations) + 1)
	m.reservations[r.ID] = *r
	m.mu.Unlock()
	return nil
}

func (m *mockStore) UpdateReservation(ctx context.Context, r *domain.Reservation) (domain.Reservation, error) {
	m.recordCall("UpdateReservation")
	if m.writeErr != nil {
		return domain.Reservation{}, m.writeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.reservations[r.ID]
	if !ok {
		return domain.Reservation{}, store.ErrNotFound
	}
	m.reservations[r.ID] = *r
	return prev, nil
}

func (m *mockStore) CancelReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	m.recordCall("CancelReservation")
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return domain.Reservation{}, store.ErrNotFound
	}
	r.Status = domain.ReservationCanceled
	m.reservations[id] = r
	return r, nil
}

func newCachedStore(t *testing.T) (*CachedStore, *mockStore, cache.CacheService) {
	t.Helper()
	svc, err := cache.NewCacheService(cache.DefaultConfig())
	if err != nil {
		t.Fatalf("NewCacheService() failed: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	base := newMockStore()
	return New(base, svc), base, svc
}

func cached(svc cache.CacheService, key string) bool {
	_, ok := svc.Get(context.Background(), key)
	return ok
}

func TestCachedStore_ReadsAreCached(t *testing.T) {
	c, base, _ := newCachedStore(t)
	ctx := context.Background()

	tests := []struct {
		method string
		call   func() error
	}{
		{"Restaurant", func() error { _, err := c.Restaurant(ctx, 5); return err }},
		{"Tables", func() error { _, err := c.Tables(ctx, 5); return err }},
		{"Guests", func() error { _, err := c.Guests(ctx, 5); return err }},
		{"Reservations", func() error { _, err := c.Reservations(ctx, 5); return err }},
		{"ReservationsOn", func() error { _, err := c.ReservationsOn(ctx, 5, jan1); return err }},
		{"TableAvailability", func() error { _, err := c.TableAvailability(ctx, 5, jan1); return err }},
		{"AvailableTimeSlots", func() error { _, err := c.AvailableTimeSlots(ctx, 5, jan1, 2); return err }},
		{"ReservationStats", func() error { _, err := c.ReservationStats(ctx, 5, domain.StatsFilter{From: "2024-01-01"}); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				if err := tt.call(); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
			if n := base.count(tt.method); n != 1 {
				t.Errorf("expected base %s to be called once, got %d", tt.method, n)
			}
		})
	}
}

func TestCachedStore_DistinctArgumentsUseDistinctKeys(t *testing.T) {
	c, base, _ := newCachedStore(t)
	ctx := context.Background()

	_, _ = c.AvailableTimeSlots(ctx, 5, jan1, 2)
	_, _ = c.AvailableTimeSlots(ctx, 5, jan1, 4)
	_, _ = c.AvailableTimeSlots(ctx, 5, jan2, 2)
	_, _ = c.AvailableTimeSlots(ctx, 6, jan1, 2)
	_, _ = c.ReservationStats(ctx, 5, domain.StatsFilter{From: "2024-01-01"})
	_, _ = c.ReservationStats(ctx, 5, domain.StatsFilter{From: "2024-01-02"})

	if n := base.count("AvailableTimeSlots"); n != 4 {
		t.Errorf("expected 4 slot fetches, got %d", n)
	}
	if n := base.count("ReservationStats"); n != 2 {
		t.Errorf("expected 2 stats fetches, got %d", n)
	}
}

func TestCachedStore_ReadErrorIsNotCached(t *testing.T) {
	c, base, svc := newCachedStore(t)
	ctx := context.Background()
	boom := errors.New("database unavailable")
	base.readErr = boom

	if _, err := c.Tables(ctx, 5); !errors.Is(err, boom) {
		t.Fatalf("expected base error, got %v", err)
	}
	if cached(svc, keys.Tables(5)) {
		t.Error("failed read must not be cached")
	}

	base.readErr = nil
	if _, err := c.Tables(ctx, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := base.count("Tables"); n != 2 {
		t.Errorf("expected retry to reach the base store, got %d calls", n)
	}
}

func TestCachedStore_ReturnedValuesAreCopies(t *testing.T) {
	c, _, _ := newCachedStore(t)
	ctx := context.Background()

	_, _ = c.Tables(ctx, 5)
	first, _ := c.Tables(ctx, 5)
	first[0].Seats = 99

	second, _ := c.Tables(ctx, 5)
	if second[0].Seats != 4 {
		t.Errorf("cached value was mutated through a returned copy: %d seats", second[0].Seats)
	}
}

func TestCachedStore_CreateReservationInvalidates(t *testing.T) {
	c, _, svc := newCachedStore(t)
	ctx := context.Background()

	_, _ = c.Reservations(ctx, 5)
	_, _ = c.ReservationsOn(ctx, 5, jan1)
	_, _ = c.TableAvailability(ctx, 5, jan1)
	_, _ = c.AvailableTimeSlots(ctx, 5, jan1, 2)
	_, _ = c.AvailableTimeSlots(ctx, 5, jan2, 2)
	_, _ = c.Guests(ctx, 5)
	_, _ = c.Tables(ctx, 5)
	_, _ = c.Reservations(ctx, 6)

	r := &domain.Reservation{RestaurantID: 5, GuestID: 2, Date: "2024-01-01", Time: "19:00", Guests: 2}
	if err := c.CreateReservation(ctx, r); err != nil {
		t.Fatalf("CreateReservation() failed: %v", err)
	}

	gone := []string{
		keys.Reservations(5),
		keys.ReservationsOn(5, jan1),
		keys.TableAvailability(5, jan1),
		keys.AvailableTimeSlots(5, jan1, 2),
		keys.Guests(5),
	}
	for _, k := range gone {
		if cached(svc, k) {
			t.Errorf("expected %s to be invalidated", k)
		}
	}

	kept := []string{keys.AvailableTimeSlots(5, jan2, 2), keys.Tables(5), keys.Reservations(6)}
	for _, k := range kept {
		if !cached(svc, k) {
			t.Errorf("expected %s to stay cached", k)
		}
	}

	list, err := c.Reservations(ctx, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("read after write should see the new reservation, got %d", len(list))
	}
}

func TestCachedStore_UpdateReservationInvalidatesBothDays(t *testing.T) {
	c, _, svc := newCachedStore(t)
	ctx := context.Background()

	_, _ = c.AvailableTimeSlots(ctx, 5, jan1, 2)
	_, _ = c.AvailableTimeSlots(ctx, 5, jan2, 2)
	_, _ = c.Guests(ctx, 5)

	moved := domain.Reservation{ID: 1, RestaurantID: 5, GuestID: 1, Date: "2024-01-02", Time: "18:00", Guests: 2}
	prev, err := c.UpdateReservation(ctx, &moved)
	if err != nil {
		t.Fatalf("UpdateReservation() failed: %v", err)
	}
	if prev.Date != "2024-01-01" {
		t.Errorf("expected previous version to be returned, got %+v", prev)
	}

	if cached(svc, keys.AvailableTimeSlots(5, jan1, 2)) {
		t.Error("old day slots must be invalidated")
	}
	if cached(svc, keys.AvailableTimeSlots(5, jan2, 2)) {
		t.Error("new day slots must be invalidated")
	}
	if !cached(svc, keys.Guests(5)) {
		t.Error("guest list should survive when the guest did not change")
	}
}

func TestCachedStore_CancelReservationInvalidates(t *testing.T) {
	c, _, svc := newCachedStore(t)
	ctx := context.Background()

	_, _ = c.TableAvailability(ctx, 5, jan1)
	if _, err := c.CancelReservation(ctx, 1); err != nil {
		t.Fatalf("CancelReservation() failed: %v", err)
	}
	if cached(svc, keys.TableAvailability(5, jan1)) {
		t.Error("availability must be invalidated by a cancellation")
	}

	if _, err := c.CancelReservation(ctx, 42); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCachedStore_TableWritesInvalidate(t *testing.T) {
	c, base, svc := newCachedStore(t)
	ctx := context.Background()

	_, _ = c.Tables(ctx, 5)
	if err := c.SaveTable(ctx, &domain.Table{RestaurantID: 5, Number: 2, Seats: 2}); err != nil {
		t.Fatalf("SaveTable() failed: %v", err)
	}
	tables, _ := c.Tables(ctx, 5)
	if len(tables) != 2 {
		t.Errorf("expected new table to be visible, got %d tables", len(tables))
	}
	if n := base.count("Tables"); n != 2 {
		t.Errorf("expected refetch after SaveTable, got %d calls", n)
	}

	_, _ = c.TableAvailability(ctx, 5, jan1)
	if err := c.DeleteTable(ctx, 5, 2); err != nil {
		t.Fatalf("DeleteTable() failed: %v", err)
	}
	if cached(svc, keys.TableAvailability(5, jan1)) || cached(svc, keys.Tables(5)) {
		t.Error("table views must be invalidated by DeleteTable")
	}
}

func TestCachedStore_SaveGuestScopesByRestaurant(t *testing.T) {
	c, base, svc := newCachedStore(t)
	ctx := context.Background()

	_, _ = c.Guests(ctx, 5)
	_, _ = c.Guests(ctx, 6)

	if err := c.SaveGuest(ctx, &domain.Guest{ID: 1, Name: "Ada K"}); err != nil {
		t.Fatalf("SaveGuest() failed: %v", err)
	}
	if cached(svc, keys.Guests(5)) {
		t.Error("guests of restaurant 5 must be invalidated")
	}
	if !cached(svc, keys.Guests(6)) {
		t.Error("guests of restaurant 6 must stay cached")
	}

	_, _ = c.Guests(ctx, 5)
	base.scopeErr = errors.New("lookup failed")
	if err := c.SaveGuest(ctx, &domain.Guest{ID: 1}); err != nil {
		t.Fatalf("SaveGuest() failed: %v", err)
	}
	if cached(svc, keys.Guests(5)) || cached(svc, keys.Guests(6)) {
		t.Error("unknown guest scope must drop every guest list")
	}
}

func TestCachedStore_SaveRestaurantInvalidates(t *testing.T) {
	c, _, svc := newCachedStore(t)
	ctx := context.Background()

	_, _ = c.Restaurant(ctx, 5)
	_, _ = c.AvailableTimeSlots(ctx, 5, jan1, 2)
	_, _ = c.Tables(ctx, 5)

	if err := c.SaveRestaurant(ctx, &domain.Restaurant{ID: 5, Opens: "17:00", Closes: "22:00"}); err != nil {
		t.Fatalf("SaveRestaurant() failed: %v", err)
	}
	if cached(svc, keys.Restaurant(5)) || cached(svc, keys.AvailableTimeSlots(5, jan1, 2)) {
		t.Error("restaurant views must be invalidated")
	}
	if !cached(svc, keys.Tables(5)) {
		t.Error("tables do not depend on the restaurant profile")
	}
}

func TestCachedStore_FailedWriteDoesNotInvalidate(t *testing.T) {
	c, base, svc := newCachedStore(t)
	ctx := context.Background()
	boom := errors.New("constraint violated")

	_, _ = c.Tables(ctx, 5)
	_, _ = c.Reservations(ctx, 5)
	base.writeErr = boom

	if err := c.SaveTable(ctx, &domain.Table{RestaurantID: 5}); !errors.Is(err, boom) {
		t.Errorf("expected write error, got %v", err)
	}
	if err := c.CreateReservation(ctx, &domain.Reservation{RestaurantID: 5}); !errors.Is(err, boom) {
		t.Errorf("expected write error, got %v", err)
	}
	if !cached(svc, keys.Tables(5)) || !cached(svc, keys.Reservations(5)) {
		t.Error("a failed write must leave the cache untouched")
	}
}

func TestCachedStore_ReadOverlappingWriteIsNotCached(t *testing.T) {
	c, base, svc := newCachedStore(t)
	ctx := context.Background()

	var once sync.Once
	base.beforeGet = func() {
		once.Do(func() {
			// the write commits and invalidates while this read is in flight
			if err := c.CreateReservation(ctx, &domain.Reservation{RestaurantID: 5, Date: "2024-01-01"}); err != nil {
				t.Errorf("CreateReservation() failed: %v", err)
			}
		})
	}

	if _, err := c.Reservations(ctx, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached(svc, keys.Reservations(5)) {
		t.Error("a read that overlapped an invalidation must not populate the cache")
	}
}

func TestCachedStore_LookupsPassThrough(t *testing.T) {
	c, base, _ := newCachedStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		r, err := c.Reservation(ctx, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(r, base.reservations[1]) {
			t.Errorf("unexpected reservation %+v", r)
		}
		_, _ = c.GuestRestaurants(ctx, 1)
	}
	if base.count("Reservation") != 2 || base.count("GuestRestaurants") != 2 {
		t.Error("lookups must not be cached")
	}
}

func TestDays(t *testing.T) {
	got := days(domain.Reservation{Date: "2024-01-01"}, domain.Reservation{Date: "2024-01-02"})
	if len(got) != 2 || !got[0].Equal(jan1) || !got[1].Equal(jan2) {
		t.Errorf("unexpected days %v", got)
	}
	if got := days(domain.Reservation{Date: "2024-01-01"}, domain.Reservation{Date: "soon"}); got != nil {
		t.Errorf("expected nil for an unparseable date, got %v", got)
	}
}
