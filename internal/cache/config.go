package cache

import "time"

// Config holds cache TTLs
type Config struct {
	ProfileTTL         time.Duration
	ProfileNotFoundTTL time.Duration
	ContactTTL         time.Duration
	SessionTTL         time.Duration
	EventTTL           time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		ProfileTTL:         time.Hour,
		ProfileNotFoundTTL: 30 * time.Second, // retry soon, relays are often just slow
		ContactTTL:         10 * time.Minute,
		SessionTTL:         24 * time.Hour,
		EventTTL:           10 * time.Minute,
	}
}
