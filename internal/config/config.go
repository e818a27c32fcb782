// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs, sourced from an
// optional config file and INSIGHTS_-prefixed environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Enrich    EnrichConfig    `mapstructure:"enrich"`
	Response  ResponseConfig  `mapstructure:"response"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	MaxBodyBytes           int64  `mapstructure:"max_body_bytes"`
	RequestDeadlineSeconds int    `mapstructure:"request_deadline_seconds"`
}

// LoggingConfig selects zap behavior.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
	PrintableHost  string `mapstructure:"printable_host"`
}

// CacheConfig sets the on-disk cache location and freshness policy.
type CacheConfig struct {
	Dir           string `mapstructure:"dir"`
	TTLSeconds    int    `mapstructure:"ttl_seconds"`
	MaxAgeSeconds int    `mapstructure:"max_age_seconds"`
	MaxBytes      int64  `mapstructure:"max_bytes"`
}

// RateLimitConfig governs per-client admission control.
type RateLimitConfig struct {
	PerMinute           int `mapstructure:"per_minute"`
	Burst               int `mapstructure:"burst"`
	IdleEvictionMinutes int `mapstructure:"idle_eviction_minutes"`
}

// EnrichConfig bounds the enrichment stage.
type EnrichConfig struct {
	MaxChars     int `mapstructure:"max_chars"`
	KeywordCount int `mapstructure:"keyword_count"`
}

// ResponseConfig bounds response shaping.
type ResponseConfig struct {
	MaxTextChars int `mapstructure:"max_text_chars"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("INSIGHTS")
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.max_body_bytes", 16384)
	v.SetDefault("server.request_deadline_seconds", 60)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("http.timeout_seconds", 12)
	v.SetDefault("http.user_agent", "url-insights/1.0")
	v.SetDefault("http.respect_robots", false)
	v.SetDefault("http.printable_host", "wikipedia.org")
	v.SetDefault("cache.dir", "./data/cache")
	v.SetDefault("cache.ttl_seconds", 3600)
	v.SetDefault("cache.max_age_seconds", 600)
	v.SetDefault("cache.max_bytes", 100*1024*1024)
	v.SetDefault("ratelimit.per_minute", 10)
	v.SetDefault("ratelimit.burst", 0)
	v.SetDefault("ratelimit.idle_eviction_minutes", 10)
	v.SetDefault("enrich.max_chars", 6000)
	v.SetDefault("enrich.keyword_count", 12)
	v.SetDefault("response.max_text_chars", 20000)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir must be set")
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttl_seconds must be >= 0")
	}
	if c.RateLimit.PerMinute <= 0 {
		return fmt.Errorf("ratelimit.per_minute must be > 0")
	}
	return nil
}

// HTTPTimeout returns the outbound client timeout as a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RequestDeadline returns the end-to-end pipeline deadline.
func (c Config) RequestDeadline() time.Duration {
	return time.Duration(c.Server.RequestDeadlineSeconds) * time.Second
}

// ListenAddr returns the host:port the server binds to.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
