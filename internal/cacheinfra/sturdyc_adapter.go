package cacheinfra

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-reservation-cache/keys"
	"github.com/viccon/sturdyc"
	"go.uber.org/zap"
)

// sturdycService wraps a sturdyc client providing caching behaviour.
//
// sturdyc has a single TTL per client, so the shortest configured TTL class
// is applied to every key: no shape is ever served staler than its own class
// allows. An explicit ttl shorter than that cannot be honoured and the value
// is not stored. Eviction is sturdyc's percentage based policy rather than
// the ledger's single oldest-written entry.
//
// Reads go through the client's Get and Set only. Fetches are coalesced per
// generation and stored under mu, so a value fetched across an invalidation
// is never visible in the cache.
type sturdycService struct {
	client     *sturdyc.Client[[]byte]
	capacity   int
	ttl        time.Duration
	mu         sync.Mutex
	generation atomic.Uint64
	flight     flight
	metrics    *Metrics
	logger     *zap.Logger
}

// NewSturdycService creates a new sturdyc cache service adapter.
//
// Capacity, NumShards, EvictionPercentage and the shortest TTL class are
// passed to sturdyc.New(); other options are applied via ToSturdycOptions().
func NewSturdycService(cfg Config, opts Options) (*sturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	client := sturdyc.New[[]byte](
		cfg.Capacity,
		cfg.NumShards,
		cfg.ShortestTTL(),
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &sturdycService{
		client:   client,
		capacity: cfg.Capacity,
		ttl:      cfg.ShortestTTL(),
		metrics:  opts.Metrics,
		logger:   logger,
	}, nil
}

// GetOrFetch serves key from the client or runs fetch, coalesced with
// other callers of the same generation. The result is stored only when no
// delete, invalidation or clear happened since the fetch started.
func (s *sturdycService) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) ([]byte, error) {
	if v, ok := s.client.Get(key); ok {
		s.observe(func(m *Metrics) { m.Hit() })
		return v, nil
	}
	s.observe(func(m *Metrics) { m.Miss() })

	gen := s.generation.Load()
	return s.flight.do(ctx, key, gen, func(ctx context.Context) ([]byte, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if !s.setIfGeneration(key, v, ttl, gen) {
			s.logger.Debug("skipped cache write, invalidated during fetch", zap.String("key", key))
		}
		return v, nil
	})
}

func (s *sturdycService) Get(ctx context.Context, key string) ([]byte, bool) {
	v, ok := s.client.Get(key)
	if ok {
		s.observe(func(m *Metrics) { m.Hit() })
	} else {
		s.observe(func(m *Metrics) { m.Miss() })
	}
	return v, ok
}

// Set stores value under key. A zero ttl uses the client TTL. A negative
// ttl, or one shorter than the client TTL, drops the key instead.
func (s *sturdycService) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeLocked(key, value, ttl)
	return nil
}

func (s *sturdycService) setIfGeneration(key string, value []byte, ttl time.Duration, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation.Load() != gen {
		return false
	}
	return s.storeLocked(key, value, ttl)
}

func (s *sturdycService) storeLocked(key string, value []byte, ttl time.Duration) bool {
	if ttl < 0 || (ttl > 0 && ttl < s.ttl) {
		s.client.Delete(key)
		s.logger.Debug("not stored, ttl below client ttl",
			zap.String("key", key),
			zap.Duration("ttl", ttl),
			zap.Duration("client_ttl", s.ttl),
		)
		return false
	}
	s.client.Set(key, append([]byte(nil), value...))
	return true
}

// Delete removes a single entry from the cache.
func (s *sturdycService) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation.Add(1)
	s.client.Delete(key)
	return nil
}

// Invalidate removes every entry matching any pattern. sturdyc cannot lock
// across shards, so keys are scanned and then deleted one by one.
func (s *sturdycService) Invalidate(ctx context.Context, patterns ...keys.Pattern) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation.Add(1)

	removed := 0
	for _, key := range s.client.ScanKeys() {
		for _, p := range patterns {
			if p.Matches(key) {
				s.client.Delete(key)
				removed++
				break
			}
		}
	}
	s.observe(func(m *Metrics) { m.Invalidated(removed); m.Size(s.client.Size()) })
	return removed, nil
}

func (s *sturdycService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation.Add(1)
	scanned := s.client.ScanKeys()
	for _, key := range scanned {
		s.client.Delete(key)
	}
	s.logger.Info("cache cleared", zap.Int("count", len(scanned)))
	return nil
}

func (s *sturdycService) Stats(ctx context.Context) Stats {
	return Stats{
		Backend:  BackendSturdyc,
		Size:     s.client.Size(),
		Capacity: s.capacity,
		Keys:     sortedCopy(s.client.ScanKeys()),
	}
}

func (s *sturdycService) Close() error {
	return nil
}

func (s *sturdycService) observe(fn func(*Metrics)) {
	if s.metrics != nil {
		fn(s.metrics)
	}
}
