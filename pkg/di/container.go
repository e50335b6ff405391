package di

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/goliatone/go-reservation-cache/cache"
	"github.com/goliatone/go-reservation-cache/invalidation"
	"github.com/goliatone/go-reservation-cache/repositorycache"
	"github.com/goliatone/go-reservation-cache/store"
)

// Container provides dependency injection for cache related components.
// It owns the single cache service of the process, the invalidator built on
// it and, when a base store is supplied, the cached store in front of it.
type Container struct {
	cacheService cache.CacheService
	invalidator  *invalidation.Invalidator
	cachedStore  *repositorycache.CachedStore
	config       cache.Config
	logger       *zap.Logger
}

type options struct {
	logger     *zap.Logger
	registerer prometheus.Registerer
	namespace  string
	base       store.Store
	now        func() time.Time
}

// Option customises NewContainer.
type Option func(*options)

// WithLogger sets the logger shared by every component.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics registers cache metrics on reg under namespace.
func WithMetrics(reg prometheus.Registerer, namespace string) Option {
	return func(o *options) {
		o.registerer = reg
		o.namespace = namespace
	}
}

// WithStore wraps base in a cached store available through Store.
func WithStore(base store.Store) Option {
	return func(o *options) {
		o.base = base
	}
}

// WithClock overrides the cache clock. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// NewContainer creates a new DI container with the provided cache configuration.
func NewContainer(config cache.Config, opts ...Option) (*Container, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	cacheOpts := []cache.Option{cache.WithLogger(o.logger.Named("cache"))}
	if o.registerer != nil {
		cacheOpts = append(cacheOpts, cache.WithMetrics(o.registerer, o.namespace))
	}
	if o.now != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(o.now))
	}

	cacheService, err := cache.NewCacheService(config, cacheOpts...)
	if err != nil {
		return nil, err
	}

	c := &Container{
		cacheService: cacheService,
		invalidator:  invalidation.New(cacheService, invalidation.WithLogger(o.logger.Named("invalidation"))),
		config:       config,
		logger:       o.logger,
	}
	if o.base != nil {
		c.cachedStore = NewCachedStore(c, o.base)
	}

	o.logger.Info("cache container ready",
		zap.String("backend", string(config.Backend)),
		zap.Int("capacity", config.Capacity),
		zap.Bool("cached_store", c.cachedStore != nil),
	)
	return c, nil
}

// NewContainerWithDefaults creates a new DI container using default configuration.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	return NewContainer(cache.DefaultConfig(), opts...)
}

// CacheService returns the singleton cache service instance.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// Invalidator returns the invalidator bound to the cache service.
func (c *Container) Invalidator() *invalidation.Invalidator {
	return c.invalidator
}

// Store returns the cached store, or nil when no base store was supplied.
func (c *Container) Store() *repositorycache.CachedStore {
	return c.cachedStore
}

// Config returns a copy of the cache configuration used by this container.
func (c *Container) Config() cache.Config {
	return c.config
}

// Close releases the cache service.
func (c *Container) Close() error {
	return c.cacheService.Close()
}

// NewCachedStore wraps base with the container's cache service and invalidator.
func NewCachedStore(container *Container, base store.Store) *repositorycache.CachedStore {
	return repositorycache.New(base, container.cacheService,
		repositorycache.WithInvalidator(container.invalidator),
		repositorycache.WithLogger(container.logger.Named("repositorycache")),
	)
}
