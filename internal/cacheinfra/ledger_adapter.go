package cacheinfra

import (
	"context"
	"time"

	"github.com/goliatone/go-reservation-cache/internal/ledger"
	"github.com/goliatone/go-reservation-cache/keys"
	"go.uber.org/zap"
)

// ledgerService is the default backend: a single ledger with per-shape TTLs.
type ledgerService struct {
	ledger *ledger.Ledger
	cfg    Config
	flight *flight
	logger *zap.Logger
}

// NewLedgerService creates the ledger backed service.
func NewLedgerService(cfg Config, opts Options) (*ledgerService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ledgerOpts := []ledger.Option{
		ledger.WithLogger(logger),
		ledger.WithSweepInterval(cfg.SweepInterval),
		ledger.WithClock(opts.Clock),
	}
	if opts.Metrics != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithObserver(opts.Metrics))
	}

	s := &ledgerService{
		ledger: ledger.New(cfg.Capacity, ledgerOpts...),
		cfg:    cfg,
		logger: logger,
	}
	if cfg.Coalesce {
		s.flight = &flight{}
	}
	return s, nil
}

// GetOrFetch returns the cached payload for key, or runs fetch and stores
// its result. A failed fetch writes nothing. A fetch that overlapped an
// invalidation is returned to the callers that were already waiting on it
// but not stored. With Coalesce, callers only share a fetch that started in
// the same generation.
func (s *ledgerService) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) ([]byte, error) {
	if v, ok := s.ledger.Get(key); ok {
		return v, nil
	}
	gen := s.ledger.Generation()
	if s.flight == nil {
		return s.fetchAndStore(ctx, key, ttl, gen, fetch)
	}
	return s.flight.do(ctx, key, gen, func(ctx context.Context) ([]byte, error) {
		return s.fetchAndStore(ctx, key, ttl, gen, fetch)
	})
}

func (s *ledgerService) fetchAndStore(ctx context.Context, key string, ttl time.Duration, gen uint64, fetch FetchFunc) ([]byte, error) {
	v, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if !s.ledger.SetIfGeneration(key, v, s.resolveTTL(key, ttl), gen) {
		s.logger.Debug("skipped cache write, invalidated during fetch", zap.String("key", key))
	}
	return v, nil
}

func (s *ledgerService) Get(ctx context.Context, key string) ([]byte, bool) {
	return s.ledger.Get(key)
}

func (s *ledgerService) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.ledger.Set(key, value, s.resolveTTL(key, ttl))
	return nil
}

func (s *ledgerService) Delete(ctx context.Context, key string) error {
	s.ledger.Delete(key)
	return nil
}

func (s *ledgerService) Invalidate(ctx context.Context, patterns ...keys.Pattern) (int, error) {
	return s.ledger.InvalidateByPattern(patterns...), nil
}

func (s *ledgerService) Clear(ctx context.Context) error {
	n := s.ledger.Clear()
	s.logger.Info("cache cleared", zap.Int("count", n))
	return nil
}

func (s *ledgerService) Stats(ctx context.Context) Stats {
	st := s.ledger.Stats()
	return Stats{
		Backend:       BackendLedger,
		Size:          st.Size,
		Capacity:      st.Capacity,
		Keys:          st.Keys,
		Hits:          st.Hits,
		Misses:        st.Misses,
		Evictions:     st.Evictions,
		Expirations:   st.Expirations,
		Invalidations: st.Invalidations,
	}
}

func (s *ledgerService) Close() error {
	s.ledger.Close()
	return nil
}

// resolveTTL maps zero to the key's TTL class. A negative ttl is kept, and
// the ledger stores nothing for it.
func (s *ledgerService) resolveTTL(key string, ttl time.Duration) time.Duration {
	if ttl != 0 {
		return ttl
	}
	return s.cfg.TTLFor(keys.NamespaceOf(key))
}
