// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	DB      DBConfig      `mapstructure:"db"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// DBConfig controls access to the Postgres backend.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxConns     int32  `mapstructure:"max_conns"`
	MinConns     int32  `mapstructure:"min_conns"`
	MaxConnLifeM int    `mapstructure:"max_conn_life_minutes"`
}

// ScrapeConfig governs the supervisor and its scrapers.
type ScrapeConfig struct {
	// Cron is the schedule expression; empty means one-shot.
	Cron string `mapstructure:"cron"`
	// ResultBuffer is the capacity of the result channel.
	ResultBuffer int `mapstructure:"result_buffer"`
	// CommandBuffer is the per-subscriber command buffer on the bus.
	CommandBuffer int `mapstructure:"command_buffer"`
	// RequestDelay is the pause between requests to the same site.
	RequestDelay time.Duration `mapstructure:"request_delay"`
	// RequestTimeout bounds each outbound HTTP request.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
	// LegacyLindholmen switches the Lindholmen site to the old
	// lindholmen.se HTML scraper instead of the community data set.
	LegacyLindholmen bool `mapstructure:"legacy_lindholmen"`
}

// CacheConfig controls the HTTP response cache.
type CacheConfig struct {
	// TTL for a cached response; zero disables caching.
	TTL time.Duration `mapstructure:"ttl"`
	// Capacity is the max resident entries.
	Capacity int `mapstructure:"capacity"`
	// Path is the optional snapshot file, loaded at startup and written
	// at shutdown.
	Path string `mapstructure:"path"`
}

// ServerConfig controls the HTTP servers.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
	// GTag is an optional analytics tag injected by the HTML server.
	GTag string `mapstructure:"gtag"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from an optional file plus the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GOLUNCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Every key needs a default registered, even an empty one, or values
// that arrive only through the environment are invisible to Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 20)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("db.max_conn_life_minutes", 60)
	v.SetDefault("scrape.cron", "")
	v.SetDefault("scrape.result_buffer", 4)
	v.SetDefault("scrape.command_buffer", 8)
	v.SetDefault("scrape.request_delay", "1500ms")
	v.SetDefault("scrape.request_timeout", "5s")
	v.SetDefault("scrape.user_agent", "golunch/0.1")
	v.SetDefault("scrape.legacy_lindholmen", false)
	v.SetDefault("cache.ttl", "20m")
	v.SetDefault("cache.capacity", 64)
	v.SetDefault("cache.path", "")
	v.SetDefault("server.listen", "[::]:20666")
	v.SetDefault("server.gtag", "")
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Scrape.ResultBuffer <= 0 {
		return fmt.Errorf("scrape.result_buffer must be > 0")
	}
	if c.Scrape.CommandBuffer <= 0 {
		return fmt.Errorf("scrape.command_buffer must be > 0")
	}
	if c.Scrape.RequestTimeout <= 0 {
		return fmt.Errorf("scrape.request_timeout must be > 0")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be > 0")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must be >= 0")
	}
	return nil
}

// MaxConnLifetime converts the configured minutes to a duration.
func (c DBConfig) MaxConnLifetime() time.Duration {
	return time.Duration(c.MaxConnLifeM) * time.Minute
}
