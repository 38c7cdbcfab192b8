// Package config loads gleam.yaml, .env and environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when GLEAM_CONFIG is unset.
const DefaultPath = "config/gleam.yaml"

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Relays    RelaysConfig    `yaml:"relays"`
	Timeouts  TimeoutsConfig  `yaml:"timeouts"`
	Feeds     FeedsConfig     `yaml:"feeds"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	LogLevel  string          `yaml:"log_level"`

	// Environment only, never read from the file.
	RedisURL      string `yaml:"-"`
	SessionSecret string `yaml:"-"`
}

type ServerConfig struct {
	Port          string `yaml:"port"`
	MaxBodyBytes  int64  `yaml:"max_body_bytes"`
	SecureCookies bool   `yaml:"secure_cookies"`
	DevMode       bool   `yaml:"dev_mode"`

	// TrustedProxyCount is how many X-Forwarded-For hops to trust (0 = none).
	TrustedProxyCount int `yaml:"trusted_proxy_count"`
}

// RelaysConfig holds the relay sets used for each purpose
type RelaysConfig struct {
	Default []string `yaml:"default"`
	Publish []string `yaml:"publish"`
	Profile []string `yaml:"profile"`
	Search  []string `yaml:"search"`
}

type TimeoutsConfig struct {
	Query        time.Duration `yaml:"query"`
	Feed         time.Duration `yaml:"feed"`
	Video        time.Duration `yaml:"video"`
	Thread       time.Duration `yaml:"thread"`
	Interactions time.Duration `yaml:"interactions"`
	Indicator    time.Duration `yaml:"indicator"`
	Profile      time.Duration `yaml:"profile"`
	Publish      time.Duration `yaml:"publish"`
}

type FeedsConfig struct {
	GlobalLimit  int `yaml:"global_limit"`
	ExploreLimit int `yaml:"explore_limit"`
	UserLimit    int `yaml:"user_limit"`
	VideoLimit   int `yaml:"video_limit"`
	ReplyLimit   int `yaml:"reply_limit"`
}

type CacheConfig struct {
	MaxEntries         int           `yaml:"max_entries"`
	Prefix             string        `yaml:"prefix"`
	ProfileTTL         time.Duration `yaml:"profile_ttl"`
	ProfileNotFoundTTL time.Duration `yaml:"profile_not_found_ttl"`
	ContactTTL         time.Duration `yaml:"contact_ttl"`
	SessionTTL         time.Duration `yaml:"session_ttl"`
	EventTTL           time.Duration `yaml:"event_ttl"`
}

type RateLimitConfig struct {
	PublishPerMinute float64 `yaml:"publish_per_minute"`
	PublishBurst     int     `yaml:"publish_burst"`
	LoginPerMinute   float64 `yaml:"login_per_minute"`
	LoginBurst       int     `yaml:"login_burst"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			MaxBodyBytes: 64 << 10,
		},
		Relays: RelaysConfig{
			Default: []string{
				"wss://relay.damus.io",
				"wss://relay.nostr.band",
				"wss://relay.primal.net",
				"wss://nos.lol",
			},
			Publish: []string{
				"wss://relay.damus.io",
				"wss://relay.primal.net",
				"wss://nos.lol",
			},
			Profile: []string{
				"wss://purplepag.es",
				"wss://relay.nostr.band",
			},
			Search: []string{
				"wss://relay.nostr.band",
			},
		},
		Timeouts: TimeoutsConfig{
			Query:        3 * time.Second,
			Feed:         3 * time.Second,
			Video:        5 * time.Second,
			Thread:       3 * time.Second,
			Interactions: 2 * time.Second,
			Indicator:    2 * time.Second,
			Profile:      2500 * time.Millisecond,
			Publish:      5 * time.Second,
		},
		Feeds: FeedsConfig{
			GlobalLimit:  20,
			ExploreLimit: 30,
			UserLimit:    20,
			VideoLimit:   10,
			ReplyLimit:   50,
		},
		Cache: CacheConfig{
			MaxEntries:         10000,
			Prefix:             "gleam:",
			ProfileTTL:         time.Hour,
			ProfileNotFoundTTL: 30 * time.Second,
			ContactTTL:         10 * time.Minute,
			SessionTTL:         24 * time.Hour,
			EventTTL:           10 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			PublishPerMinute: 10,
			PublishBurst:     5,
			LoginPerMinute:   5,
			LoginBurst:       5,
		},
		LogLevel: "info",
	}
}

// Load reads .env (if present), the YAML file at path and the environment.
// A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}
	if path == "" {
		path = os.Getenv("GLEAM_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	// Relay sets start empty so fillEmpty can tell which ones the file set.
	cfg := Default()
	cfg.Relays = RelaysConfig{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("config file not found, using defaults", "path", path)
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.fillEmpty()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("loaded configuration",
		"path", path,
		"default_relays", len(cfg.Relays.Default),
		"publish_relays", len(cfg.Relays.Publish),
		"redis", cfg.RedisURL != "")
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.RedisURL = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.SessionSecret = v
	}
	if v, err := strconv.Atoi(os.Getenv("TRUSTED_PROXY_COUNT")); err == nil && v >= 0 {
		c.Server.TrustedProxyCount = v
	}
	if v, err := strconv.ParseBool(os.Getenv("DEV_MODE")); err == nil {
		c.Server.DevMode = v
	}
}

// fillEmpty restores defaults for relay sets the file left empty.
func (c *Config) fillEmpty() {
	d := Default()
	if len(c.Relays.Default) == 0 {
		c.Relays.Default = d.Relays.Default
		if len(c.Relays.Publish) == 0 {
			c.Relays.Publish = d.Relays.Publish
		}
	}
	if len(c.Relays.Publish) == 0 {
		c.Relays.Publish = c.Relays.Default
	}
	if len(c.Relays.Profile) == 0 {
		c.Relays.Profile = d.Relays.Profile
	}
	if len(c.Relays.Search) == 0 {
		c.Relays.Search = d.Relays.Search
	}
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("config: server.port is empty")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("config: invalid port %q", c.Server.Port)
	}
	if c.Timeouts.Query <= 0 {
		return errors.New("config: timeouts.query must be positive")
	}
	return nil
}

// ProfileRelays returns the profile relays followed by the default ones.
func (c *Config) ProfileRelays() []string {
	return append(append([]string{}, c.Relays.Profile...), c.Relays.Default...)
}

var (
	current     *Config
	currentMu   sync.RWMutex
	currentOnce sync.Once
)

// Get returns the process-wide configuration, loading it on first use (thread-safe)
func Get() *Config {
	currentOnce.Do(func() {
		cfg, err := Load("")
		if err != nil {
			slog.Error("invalid configuration, using defaults", "error", err)
			cfg = Default()
		}
		currentMu.Lock()
		if current == nil {
			current = cfg
		}
		currentMu.Unlock()
	})

	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// Set replaces the process-wide configuration.
func Set(cfg *Config) {
	currentOnce.Do(func() {})
	currentMu.Lock()
	current = cfg
	currentMu.Unlock()
}

// Reload re-reads the configuration; the old one stays active on error.
func Reload() error {
	cfg, err := Load("")
	if err != nil {
		return err
	}
	Set(cfg)
	slog.Info("configuration reloaded")
	return nil
}
