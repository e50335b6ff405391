package cacheinfra

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-reservation-cache/keys"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newLedgerService(t *testing.T, mutate func(*Config)) (*ledgerService, *testClock) {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	clock := &testClock{now: time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)}
	svc, err := NewLedgerService(cfg, Options{Clock: clock.Now})
	if err != nil {
		t.Fatalf("NewLedgerService() failed: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc, clock
}

func TestLedgerService_GetOrFetch(t *testing.T) {
	svc, _ := newLedgerService(t, nil)
	ctx := context.Background()

	t.Run("miss then hit calls fetch once", func(t *testing.T) {
		calls := 0
		fetch := func(ctx context.Context) ([]byte, error) {
			calls++
			return []byte("payload"), nil
		}

		for i := 0; i < 2; i++ {
			got, err := svc.GetOrFetch(ctx, "tables::1", 0, fetch)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != "payload" {
				t.Errorf("expected payload, got %q", got)
			}
		}
		if calls != 1 {
			t.Errorf("expected fetch to be called once, got %d", calls)
		}
	})

	t.Run("fetch error propagates and writes nothing", func(t *testing.T) {
		boom := errors.New("db down")
		_, err := svc.GetOrFetch(ctx, "tables::2", 0, func(ctx context.Context) ([]byte, error) {
			return nil, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected original error, got %v", err)
		}
		if _, ok := svc.Get(ctx, "tables::2"); ok {
			t.Error("failed fetch must not populate the cache")
		}

		calls := 0
		_, _ = svc.GetOrFetch(ctx, "tables::2", 0, func(ctx context.Context) ([]byte, error) {
			calls++
			return []byte("ok"), nil
		})
		if calls != 1 {
			t.Errorf("next call should retry the fetch, got %d calls", calls)
		}
	})
}

func TestLedgerService_TTLClasses(t *testing.T) {
	svc, clock := newLedgerService(t, nil)
	ctx := context.Background()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	availability := keys.TableAvailability(1, day)
	tables := keys.Tables(1)
	_ = svc.Set(ctx, availability, []byte("a"), 0)
	_ = svc.Set(ctx, tables, []byte("t"), 0)

	clock.Advance(31 * time.Second)

	if _, ok := svc.Get(ctx, availability); ok {
		t.Error("availability should expire after its 30s class")
	}
	if _, ok := svc.Get(ctx, tables); !ok {
		t.Error("tables should still be cached under its 5m class")
	}
}

func TestLedgerService_ExplicitTTLWins(t *testing.T) {
	svc, clock := newLedgerService(t, nil)
	ctx := context.Background()

	_ = svc.Set(ctx, keys.Tables(1), []byte("t"), time.Second)
	clock.Advance(2 * time.Second)

	if _, ok := svc.Get(ctx, keys.Tables(1)); ok {
		t.Error("explicit ttl should override the namespace class")
	}
}

func TestLedgerService_NegativeTTLStoresNothing(t *testing.T) {
	svc, _ := newLedgerService(t, nil)
	ctx := context.Background()
	key := keys.Tables(1)

	_ = svc.Set(ctx, key, []byte("t"), 0)
	_ = svc.Set(ctx, key, []byte("t2"), -time.Second)
	if _, ok := svc.Get(ctx, key); ok {
		t.Error("a negative ttl should drop the key")
	}

	got, err := svc.GetOrFetch(ctx, key, -time.Second, func(ctx context.Context) ([]byte, error) {
		return []byte("fresh"), nil
	})
	if err != nil || string(got) != "fresh" {
		t.Fatalf("GetOrFetch() = %q, %v", got, err)
	}
	if _, ok := svc.Get(ctx, key); ok {
		t.Error("a negative ttl fetch should not be cached")
	}
}

func TestLedgerService_InvalidationDuringFetchSkipsWrite(t *testing.T) {
	svc, _ := newLedgerService(t, nil)
	ctx := context.Background()
	key := keys.Reservations(5)

	got, err := svc.GetOrFetch(ctx, key, 0, func(ctx context.Context) ([]byte, error) {
		// a write commits and invalidates while this read is in flight
		if _, err := svc.Invalidate(ctx, keys.ReservationsPattern(5)); err != nil {
			t.Fatalf("invalidate: %v", err)
		}
		return []byte("pre-commit"), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "pre-commit" {
		t.Errorf("caller should still receive its fetch result, got %q", got)
	}
	if _, ok := svc.Get(ctx, key); ok {
		t.Error("result of a fetch overlapping an invalidation must not be cached")
	}
}

func TestLedgerService_Coalesce(t *testing.T) {
	svc, _ := newLedgerService(t, func(c *Config) { c.Coalesce = true })
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("v"), nil
	}

	var wg sync.WaitGroup
	started := make(chan struct{}, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			if _, err := svc.GetOrFetch(ctx, "guests::1", 0, fetch); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-started
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n < 1 || n > 8 {
		t.Fatalf("unexpected fetch count %d", n)
	}
	if _, ok := svc.Get(ctx, "guests::1"); !ok {
		t.Error("coalesced fetch should populate the cache")
	}
}

func TestLedgerService_StatsAndClear(t *testing.T) {
	svc, _ := newLedgerService(t, func(c *Config) { c.Capacity = 3 })
	ctx := context.Background()

	_ = svc.Set(ctx, keys.Guests(1), []byte("g"), 0)
	_ = svc.Set(ctx, keys.Tables(1), []byte("t"), 0)

	st := svc.Stats(ctx)
	if st.Size != 2 || st.Capacity != 3 {
		t.Errorf("unexpected stats %+v", st)
	}
	if len(st.Keys) != 2 || st.Keys[0] != "guests::1" || st.Keys[1] != "tables::1" {
		t.Errorf("unexpected keys %v", st.Keys)
	}

	if err := svc.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if svc.Stats(ctx).Size != 0 {
		t.Error("expected empty cache after Clear")
	}
}

func TestLedgerService_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg, "test")
	cfg := DefaultConfig()
	cfg.Capacity = 1
	svc, err := NewLedgerService(cfg, Options{Metrics: metrics})
	if err != nil {
		t.Fatalf("NewLedgerService() failed: %v", err)
	}
	ctx := context.Background()

	_, _ = svc.Get(ctx, "guests::1")
	_ = svc.Set(ctx, "guests::1", []byte("x"), 0)
	_, _ = svc.Get(ctx, "guests::1")
	_ = svc.Set(ctx, "guests::2", []byte("x"), 0)
	_, _ = svc.Invalidate(ctx, keys.NamespacePattern(keys.NamespaceGuests))

	checks := map[string]float64{
		"hits":        testutil.ToFloat64(metrics.hits),
		"misses":      testutil.ToFloat64(metrics.misses),
		"evictions":   testutil.ToFloat64(metrics.evictions),
		"invalidated": testutil.ToFloat64(metrics.invalidated),
		"entries":     testutil.ToFloat64(metrics.entries),
	}
	want := map[string]float64{"hits": 1, "misses": 1, "evictions": 1, "invalidated": 1, "entries": 0}
	for name, w := range want {
		if checks[name] != w {
			t.Errorf("%s = %v, want %v", name, checks[name], w)
		}
	}
}
