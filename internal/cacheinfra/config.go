package cacheinfra

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-reservation-cache/keys"
	"github.com/viccon/sturdyc"
)

// Backend selects the storage engine behind the cache service.
type Backend string

const (
	// BackendLedger is the bounded ledger with per-shape TTLs and
	// least-recently-written eviction.
	BackendLedger Backend = "ledger"
	// BackendSturdyc trades exact eviction and per-shape TTLs for sharding
	// and built-in request coalescing.
	BackendSturdyc Backend = "sturdyc"
)

// Config holds the configuration for the cache backends.
type Config struct {
	// Backend selects the engine. Default: ledger
	Backend Backend

	// Capacity is the hard ceiling on stored entries. Must be greater than 0.
	Capacity int

	// DefaultTTL applies to keys whose namespace has no entry in TTLs.
	DefaultTTL time.Duration

	// TTLs maps a key namespace to its time-to-live class.
	TTLs map[keys.Namespace]time.Duration

	// Coalesce de-duplicates concurrent fetches for the same key on the
	// ledger backend. sturdyc always coalesces. Callers only join a fetch
	// started in the current generation, and the shared fetch outlives the
	// cancellation of the caller that started it.
	Coalesce bool

	// SweepInterval enables a periodic sweep of expired ledger entries in
	// addition to lazy expiry. Zero disables it.
	SweepInterval time.Duration

	// NumShards determines the number of sturdyc shards. Default: 256
	NumShards int

	// EvictionPercentage is the share of sturdyc entries dropped when full.
	// Must be between 1-100 for the sturdyc backend. Default: 10
	EvictionPercentage int

	// EvictionInterval sets how often sturdyc checks for expired entries.
	// Zero value uses the default interval.
	EvictionInterval time.Duration
}

// DefaultTTLs returns the built-in TTL classes. Availability shaped data is
// kept short because it must track live booking state.
func DefaultTTLs() map[keys.Namespace]time.Duration {
	return map[keys.Namespace]time.Duration{
		keys.NamespaceAvailability: 30 * time.Second,
		keys.NamespaceTimeSlots:    30 * time.Second,
		keys.NamespaceReservations: time.Minute,
		keys.NamespaceGuests:       5 * time.Minute,
		keys.NamespaceTables:       5 * time.Minute,
		keys.NamespaceRestaurant:   15 * time.Minute,
	}
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Backend:            BackendLedger,
		Capacity:           10000,
		DefaultTTL:         5 * time.Minute,
		TTLs:               DefaultTTLs(),
		NumShards:          256,
		EvictionPercentage: 10,
	}
}

// TTLFor resolves the TTL class of a namespace.
func (c Config) TTLFor(ns keys.Namespace) time.Duration {
	if ttl, ok := c.TTLs[ns]; ok && ttl > 0 {
		return ttl
	}
	return c.DefaultTTL
}

// ShortestTTL returns the smallest configured TTL class.
func (c Config) ShortestTTL() time.Duration {
	shortest := c.DefaultTTL
	for _, ttl := range c.TTLs {
		if ttl > 0 && ttl < shortest {
			shortest = ttl
		}
	}
	return shortest
}

// Validate checks if the configuration values are valid. The returned error
// is a validation.Errors keyed by field name.
func (c Config) Validate() error {
	sturdy := c.Backend == BackendSturdyc
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendLedger, BackendSturdyc)),
		validation.Field(&c.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&c.DefaultTTL, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.TTLs, validation.By(validateTTLs)),
		validation.Field(&c.SweepInterval, validation.Min(time.Duration(0))),
		validation.Field(&c.NumShards, validation.When(sturdy, validation.Required, validation.Min(1))),
		validation.Field(&c.EvictionPercentage, validation.When(sturdy, validation.Required, validation.Min(1), validation.Max(100))),
		validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0))),
	)
}

func validateTTLs(value any) error {
	ttls, _ := value.(map[keys.Namespace]time.Duration)
	for ns, ttl := range ttls {
		if !keys.Known(ns) {
			return validation.NewError("validation_ttl_namespace", "unknown namespace "+string(ns))
		}
		if ttl <= 0 {
			return validation.NewError("validation_ttl_positive", "ttl for "+string(ns)+" must be greater than 0")
		}
	}
	return nil
}

// ToSturdycOptions converts the sturdyc specific fields into options.
// Capacity, NumShards, TTL and EvictionPercentage are passed to sturdyc.New directly.
// Early refreshes are not offered: they run inside sturdyc's own GetOrFetch,
// which the adapter does not use.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}
