// Package ledger holds the bounded, TTL-tagged entry map behind the cache.
//
// All operations take a single mutex and never perform I/O, so they complete
// in bounded time. Expiry is lazy: an expired entry is dropped when it is next
// read, when it is selected for eviction, or by the optional sweeper.
package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-reservation-cache/keys"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// DefaultCapacity is used when New receives a non-positive capacity.
const DefaultCapacity = 10000

// Observer receives ledger events, typically to feed metrics.
type Observer interface {
	Hit()
	Miss()
	Evicted()
	Expired()
	Invalidated(n int)
	Size(n int)
}

type entry struct {
	value     []byte
	writtenAt time.Time
	ttl       time.Duration
	seq       uint64
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.writtenAt) > e.ttl
}

// Ledger maps keys to timestamped payloads with a hard capacity ceiling.
type Ledger struct {
	mu         sync.Mutex
	entries    map[string]*entry
	capacity   int
	seq        uint64
	generation uint64

	now      func() time.Time
	logger   *zap.Logger
	observer Observer

	hits          *xsync.Counter
	misses        *xsync.Counter
	evictions     *xsync.Counter
	expirations   *xsync.Counter
	invalidations *xsync.Counter

	sweepEvery time.Duration
	stop       chan struct{}
	stopOnce   sync.Once
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces time.Now, mostly for tests that simulate time.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the logger used for eviction and sweep diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(l *Ledger) {
		l.observer = o
	}
}

// WithSweepInterval starts a background sweep of expired entries. Zero disables it.
func WithSweepInterval(d time.Duration) Option {
	return func(l *Ledger) {
		l.sweepEvery = d
	}
}

// New creates a Ledger holding at most capacity entries.
func New(capacity int, opts ...Option) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l := &Ledger{
		entries:       make(map[string]*entry),
		capacity:      capacity,
		now:           time.Now,
		logger:        zap.NewNop(),
		hits:          xsync.NewCounter(),
		misses:        xsync.NewCounter(),
		evictions:     xsync.NewCounter(),
		expirations:   xsync.NewCounter(),
		invalidations: xsync.NewCounter(),
		stop:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.sweepEvery > 0 {
		go l.sweepLoop()
	}
	return l
}

// Get returns a copy of the payload for key if present and unexpired. An
// expired entry is removed as a side effect.
func (l *Ledger) Get(key string) ([]byte, bool) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if ok && e.expired(l.now()) {
		delete(l.entries, key)
		l.expirations.Inc()
		l.notify(func(o Observer) { o.Expired(); o.Size(len(l.entries)) })
		ok = false
	}
	l.mu.Unlock()

	if !ok {
		l.misses.Inc()
		l.notify(func(o Observer) { o.Miss() })
		return nil, false
	}
	l.hits.Inc()
	l.notify(func(o Observer) { o.Hit() })
	return append([]byte(nil), e.value...), true
}

// Set inserts or overwrites key, stamping the current time. A new key on a
// full ledger first evicts the oldest written entry. A non-positive ttl
// stores nothing and drops any existing entry.
func (l *Ledger) Set(key string, value []byte, ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setLocked(key, value, ttl)
}

// SetIfGeneration behaves like Set but only when no delete, invalidation or
// clear happened since gen was read from Generation. It reports whether the
// value was stored.
func (l *Ledger) SetIfGeneration(key string, value []byte, ttl time.Duration, gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.generation != gen {
		return false
	}
	return l.setLocked(key, value, ttl)
}

func (l *Ledger) setLocked(key string, value []byte, ttl time.Duration) bool {
	if ttl <= 0 {
		delete(l.entries, key)
		return false
	}
	if _, exists := l.entries[key]; !exists && len(l.entries) >= l.capacity {
		l.evictLocked()
	}
	l.seq++
	l.entries[key] = &entry{
		value:     append([]byte(nil), value...),
		writtenAt: l.now(),
		ttl:       ttl,
		seq:       l.seq,
	}
	l.notify(func(o Observer) { o.Size(len(l.entries)) })
	return true
}

// Delete removes key if present.
func (l *Ledger) Delete(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	if _, ok := l.entries[key]; ok {
		delete(l.entries, key)
		l.notify(func(o Observer) { o.Size(len(l.entries)) })
	}
}

// InvalidateByPattern removes every entry whose key matches any of the
// patterns and returns how many were removed. Matching and removal happen
// under one lock, so no reader can observe a matched entry afterwards.
func (l *Ledger) InvalidateByPattern(patterns ...keys.Pattern) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++

	removed := 0
	for key := range l.entries {
		for _, p := range patterns {
			if p.Matches(key) {
				delete(l.entries, key)
				removed++
				break
			}
		}
	}
	if removed > 0 {
		l.invalidations.Add(int64(removed))
	}
	l.notify(func(o Observer) { o.Invalidated(removed); o.Size(len(l.entries)) })
	return removed
}

// Clear removes all entries and returns how many were dropped.
func (l *Ledger) Clear() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	n := len(l.entries)
	l.entries = make(map[string]*entry)
	l.notify(func(o Observer) { o.Size(0) })
	return n
}

// Generation returns a counter bumped by every Delete, InvalidateByPattern and Clear.
func (l *Ledger) Generation() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation
}

// Len returns the number of stored entries, expired or not.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Capacity returns the capacity ceiling.
func (l *Ledger) Capacity() int {
	return l.capacity
}

// Stats is a point in time snapshot for observability only.
type Stats struct {
	Size          int
	Capacity      int
	Keys          []string
	Hits          int64
	Misses        int64
	Evictions     int64
	Expirations   int64
	Invalidations int64
}

// Stats returns size, capacity, the sorted live key set and counters.
// Keys of entries that have expired but not yet been collected are omitted.
func (l *Ledger) Stats() Stats {
	l.mu.Lock()
	now := l.now()
	size := len(l.entries)
	live := make([]string, 0, size)
	for key, e := range l.entries {
		if !e.expired(now) {
			live = append(live, key)
		}
	}
	l.mu.Unlock()

	sort.Strings(live)
	return Stats{
		Size:          size,
		Capacity:      l.capacity,
		Keys:          live,
		Hits:          l.hits.Value(),
		Misses:        l.misses.Value(),
		Evictions:     l.evictions.Value(),
		Expirations:   l.expirations.Value(),
		Invalidations: l.invalidations.Value(),
	}
}

// Close stops the sweeper if one is running.
func (l *Ledger) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Ledger) notify(fn func(Observer)) {
	if l.observer != nil {
		fn(l.observer)
	}
}
