package cache

import (
	"time"

	"github.com/goliatone/go-reservation-cache/internal/cacheinfra"
	"github.com/goliatone/go-reservation-cache/keys"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Backend names the engine behind a CacheService.
type Backend = cacheinfra.Backend

const (
	BackendLedger  = cacheinfra.BackendLedger
	BackendSturdyc = cacheinfra.BackendSturdyc
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Backend            Backend
	Capacity           int
	DefaultTTL         time.Duration
	TTLs               map[keys.Namespace]time.Duration
	Coalesce           bool
	SweepInterval      time.Duration
	NumShards          int
	EvictionPercentage int
	EvictionInterval   time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// TTLFor resolves the TTL class used for keys in ns.
func (c Config) TTLFor(ns keys.Namespace) time.Duration {
	return c.toInternal().TTLFor(ns)
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// Option customises NewCacheService.
type Option func(*cacheinfra.Options)

// WithLogger sets the logger used by the backend. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *cacheinfra.Options) {
		o.Logger = logger
	}
}

// WithMetrics registers cache counters on reg under the given metric namespace.
func WithMetrics(reg prometheus.Registerer, namespace string) Option {
	return func(o *cacheinfra.Options) {
		o.Metrics = cacheinfra.NewMetrics(reg, namespace)
	}
}

// WithClock replaces time.Now. Only the ledger backend honours it.
func WithClock(now func() time.Time) Option {
	return func(o *cacheinfra.Options) {
		o.Clock = now
	}
}

// NewCacheService constructs the cache service selected by cfg.Backend.
func NewCacheService(cfg Config, opts ...Option) (CacheService, error) {
	var o cacheinfra.Options
	for _, opt := range opts {
		opt(&o)
	}
	return cacheinfra.NewService(cfg.toInternal(), o)
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Backend:            c.Backend,
		Capacity:           c.Capacity,
		DefaultTTL:         c.DefaultTTL,
		TTLs:               copyTTLs(c.TTLs),
		Coalesce:           c.Coalesce,
		SweepInterval:      c.SweepInterval,
		NumShards:          c.NumShards,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Backend:            cfg.Backend,
		Capacity:           cfg.Capacity,
		DefaultTTL:         cfg.DefaultTTL,
		TTLs:               copyTTLs(cfg.TTLs),
		Coalesce:           cfg.Coalesce,
		SweepInterval:      cfg.SweepInterval,
		NumShards:          cfg.NumShards,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}

func copyTTLs(in map[keys.Namespace]time.Duration) map[keys.Namespace]time.Duration {
	if in == nil {
		return nil
	}
	out := make(map[keys.Namespace]time.Duration, len(in))
	for ns, ttl := range in {
		out[ns] = ttl
	}
	return out
}
