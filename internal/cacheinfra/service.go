package cacheinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-reservation-cache/keys"
	"go.uber.org/zap"
)

// FetchFunc loads an encoded payload from the source of truth.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Stats is a point in time view of a backend, for observability only.
type Stats struct {
	Backend       Backend  `json:"backend"`
	Size          int      `json:"size"`
	Capacity      int      `json:"capacity"`
	Keys          []string `json:"keys"`
	Hits          int64    `json:"hits"`
	Misses        int64    `json:"misses"`
	Evictions     int64    `json:"evictions"`
	Expirations   int64    `json:"expirations"`
	Invalidations int64    `json:"invalidations"`
}

// Service is the byte level contract both backends fulfil.
type Service interface {
	GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) ([]byte, error)
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Invalidate(ctx context.Context, patterns ...keys.Pattern) (int, error)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) Stats
	Close() error
}

// Options carries collaborators that are not part of Config.
type Options struct {
	Logger  *zap.Logger
	Metrics *Metrics
	Clock   func() time.Time
}

// NewService validates cfg and builds the selected backend.
func NewService(cfg Config, opts Options) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	switch cfg.Backend {
	case BackendLedger:
		return NewLedgerService(cfg, opts)
	case BackendSturdyc:
		return NewSturdycService(cfg, opts)
	}
	return nil, fmt.Errorf("cacheinfra: unsupported backend %q", cfg.Backend)
}
