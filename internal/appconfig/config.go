// Package appconfig loads the service configuration from an optional YAML
// file and RESCACHE_* environment variables.
package appconfig

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-reservation-cache/cache"
	"github.com/goliatone/go-reservation-cache/keys"
	"github.com/goliatone/go-reservation-cache/store/bunstore"
)

// EnvPrefix namespaces environment overrides, e.g. RESCACHE_HTTP_ADDR.
const EnvPrefix = "RESCACHE"

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CacheConfig is the file representation of cache.Config. TTL classes are
// keyed by namespace name.
type CacheConfig struct {
	Backend            string                   `mapstructure:"backend"`
	Capacity           int                      `mapstructure:"capacity"`
	DefaultTTL         time.Duration            `mapstructure:"default_ttl"`
	TTLs               map[string]time.Duration `mapstructure:"ttls"`
	Coalesce           bool                     `mapstructure:"coalesce"`
	SweepInterval      time.Duration            `mapstructure:"sweep_interval"`
	NumShards          int                      `mapstructure:"num_shards"`
	EvictionPercentage int                      `mapstructure:"eviction_percentage"`
	EvictionInterval   time.Duration            `mapstructure:"eviction_interval"`
}

// NewViper returns a viper instance with every default registered and
// environment overrides enabled.
func NewViper() *viper.Viper {
	v := viper.New()
	d := cache.DefaultConfig()

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.driver", bunstore.DriverSQLite)
	v.SetDefault("database.dsn", "file:reservations.db?cache=shared")
	v.SetDefault("log.level", "info")
	v.SetDefault("cache.backend", string(d.Backend))
	v.SetDefault("cache.capacity", d.Capacity)
	v.SetDefault("cache.default_ttl", d.DefaultTTL)
	v.SetDefault("cache.coalesce", d.Coalesce)
	v.SetDefault("cache.sweep_interval", d.SweepInterval)
	v.SetDefault("cache.num_shards", d.NumShards)
	v.SetDefault("cache.eviction_percentage", d.EvictionPercentage)
	v.SetDefault("cache.eviction_interval", d.EvictionInterval)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configFile when set and decodes the merged settings.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("appconfig: read %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("appconfig: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.HTTP),
		validation.Field(&c.Database),
		validation.Field(&c.Log),
		validation.Field(&c.Cache),
	)
}

func (c HTTPConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
	)
}

func (c DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Driver, validation.Required, validation.In(bunstore.DriverSQLite, bunstore.DriverPostgres)),
		validation.Field(&c.DSN, validation.Required),
	)
}

func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.Required, validation.In("debug", "info", "warn", "error")),
	)
}

func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.TTLs, validation.By(knownNamespaces)),
	)
}

func knownNamespaces(value any) error {
	ttls, _ := value.(map[string]time.Duration)
	for name := range ttls {
		if !keys.Known(keys.Namespace(name)) {
			return fmt.Errorf("unknown namespace %q", name)
		}
	}
	return nil
}

// CacheConfig converts the file settings into a validated cache.Config.
// TTL classes from the file override the defaults one by one.
func (c Config) CacheConfig() (cache.Config, error) {
	out := cache.DefaultConfig()
	out.Backend = cache.Backend(c.Cache.Backend)
	out.Capacity = c.Cache.Capacity
	out.DefaultTTL = c.Cache.DefaultTTL
	out.Coalesce = c.Cache.Coalesce
	out.SweepInterval = c.Cache.SweepInterval
	out.NumShards = c.Cache.NumShards
	out.EvictionPercentage = c.Cache.EvictionPercentage
	out.EvictionInterval = c.Cache.EvictionInterval
	for name, ttl := range c.Cache.TTLs {
		out.TTLs[keys.Namespace(name)] = ttl
	}

	if err := out.Validate(); err != nil {
		return cache.Config{}, fmt.Errorf("appconfig: cache: %w", err)
	}
	return out, nil
}

// NewLogger builds a production zap logger at the configured level.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("appconfig: log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
