package cache

import (
	"context"
	"encoding/json"
	"time"

	"gleam/internal/metrics"
	"gleam/internal/types"
)

// ProfileCache stores kind 0 metadata by pubkey, including negative results.
type ProfileCache struct {
	backend Backend
	config  Config
}

func NewProfileCache(backend Backend, config Config) *ProfileCache {
	return &ProfileCache{backend: backend, config: config}
}

func profileKey(pubkey string) string { return "profile:" + pubkey }

// Get returns (profile, notFound, ok). ok is false on a miss.
func (c *ProfileCache) Get(ctx context.Context, pubkey string) (*types.ProfileInfo, bool, bool) {
	data, found, err := c.backend.Get(ctx, profileKey(pubkey))
	if err != nil || !found {
		metrics.IncCacheMiss("profile")
		return nil, false, false
	}
	var cached types.CachedProfile
	if err := json.Unmarshal(data, &cached); err != nil {
		metrics.IncCacheMiss("profile")
		return nil, false, false
	}
	metrics.IncCacheHit("profile")
	return cached.Profile, cached.NotFound, true
}

// GetMultiple splits pubkeys into cached profiles and misses. Cached
// not-found entries are neither: they are known to have no profile.
func (c *ProfileCache) GetMultiple(ctx context.Context, pubkeys []string) (map[string]*types.ProfileInfo, []string) {
	found := make(map[string]*types.ProfileInfo)
	keys := make([]string, len(pubkeys))
	for i, pk := range pubkeys {
		keys[i] = profileKey(pk)
	}
	data, err := c.backend.GetMultiple(ctx, keys)
	if err != nil {
		return found, pubkeys
	}

	var missing []string
	for _, pk := range pubkeys {
		raw, ok := data[profileKey(pk)]
		var cached types.CachedProfile
		if !ok || json.Unmarshal(raw, &cached) != nil {
			metrics.IncCacheMiss("profile")
			missing = append(missing, pk)
			continue
		}
		metrics.IncCacheHit("profile")
		if !cached.NotFound && cached.Profile != nil {
			found[pk] = cached.Profile
		}
	}
	return found, missing
}

// SetMultiple stores profiles; pubkeys mapped to nil are stored as not found.
func (c *ProfileCache) SetMultiple(ctx context.Context, profiles map[string]*types.ProfileInfo) error {
	now := time.Now().Unix()
	hits := make(map[string][]byte)
	misses := make(map[string][]byte)
	for pk, p := range profiles {
		cached := types.CachedProfile{Profile: p, FetchedAt: now, NotFound: p == nil}
		data, err := json.Marshal(cached)
		if err != nil {
			return err
		}
		if p == nil {
			misses[profileKey(pk)] = data
		} else {
			hits[profileKey(pk)] = data
		}
	}
	if err := c.backend.SetMultiple(ctx, hits, c.config.ProfileTTL); err != nil {
		return err
	}
	return c.backend.SetMultiple(ctx, misses, c.config.ProfileNotFoundTTL)
}

// ContactCache stores the newest contact list per pubkey.
type ContactCache struct {
	backend Backend
	config  Config
}

func NewContactCache(backend Backend, config Config) *ContactCache {
	return &ContactCache{backend: backend, config: config}
}

func contactKey(pubkey string) string { return "contacts:" + pubkey }

func (c *ContactCache) Get(ctx context.Context, pubkey string) (*types.CachedContacts, bool) {
	data, found, err := c.backend.Get(ctx, contactKey(pubkey))
	if err != nil || !found {
		metrics.IncCacheMiss("contacts")
		return nil, false
	}
	var cached types.CachedContacts
	if err := json.Unmarshal(data, &cached); err != nil {
		metrics.IncCacheMiss("contacts")
		return nil, false
	}
	metrics.IncCacheHit("contacts")
	return &cached, true
}

func (c *ContactCache) Set(ctx context.Context, pubkey string, contacts *types.CachedContacts) error {
	contacts.FetchedAt = time.Now().Unix()
	data, err := json.Marshal(contacts)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, contactKey(pubkey), data, c.config.ContactTTL)
}

// Delete drops the cached list, used after the user republishes it.
func (c *ContactCache) Delete(ctx context.Context, pubkey string) error {
	return c.backend.Delete(ctx, contactKey(pubkey))
}

// EventCache stores immutable events by id.
type EventCache struct {
	backend Backend
	config  Config
}

func NewEventCache(backend Backend, config Config) *EventCache {
	return &EventCache{backend: backend, config: config}
}

func eventKey(id string) string { return "event:" + id }

func (c *EventCache) Get(ctx context.Context, id string) (*types.Event, bool) {
	data, found, err := c.backend.Get(ctx, eventKey(id))
	if err != nil || !found {
		metrics.IncCacheMiss("event")
		return nil, false
	}
	var evt types.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		metrics.IncCacheMiss("event")
		return nil, false
	}
	metrics.IncCacheHit("event")
	return &evt, true
}

func (c *EventCache) Set(ctx context.Context, evt *types.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, eventKey(evt.ID), data, c.config.EventTTL)
}
