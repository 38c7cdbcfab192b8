package client

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	"gleam/internal/types"
)

// Profile returns the kind 0 metadata for pubkey. A nil profile with a nil
// error means the author has never published one.
func (c *Client) Profile(ctx context.Context, pubkey string) (*types.ProfileInfo, error) {
	profiles, err := c.Profiles(ctx, []string{pubkey})
	if err != nil {
		return nil, err
	}
	return profiles[pubkey], nil
}

// Profiles fetches metadata for many authors with a single relay query.
// Authors without a profile are absent from the result.
func (c *Client) Profiles(ctx context.Context, pubkeys []string) (map[string]*types.ProfileInfo, error) {
	pubkeys = uniqueStrings(pubkeys)
	if len(pubkeys) == 0 {
		return map[string]*types.ProfileInfo{}, nil
	}

	result, missing := c.profiles.GetMultiple(ctx, pubkeys)
	if len(missing) == 0 {
		return result, nil
	}

	key := batchKey("profiles", missing)
	v, err, shared := c.profileGroup.Do(key, func() (interface{}, error) {
		return c.fetchProfiles(ctx, missing)
	})
	if err != nil {
		// Relays being down should not break pages; render without names.
		c.log.Warn("profile fetch failed", "count", len(missing), "error", err)
		return result, nil
	}
	if shared {
		c.log.Debug("profile fetch shared", "count", len(missing))
	}
	for pk, p := range v.(map[string]*types.ProfileInfo) {
		result[pk] = p
	}
	return result, nil
}

func (c *Client) fetchProfiles(ctx context.Context, pubkeys []string) (map[string]*types.ProfileInfo, error) {
	events, err := c.query(ctx, c.cfg.Timeouts.Profile, c.cfg.ProfileRelays(), types.Filter{
		Authors: pubkeys,
		Kinds:   []int{types.KindMetadata},
		Limit:   len(pubkeys) * 2,
	})
	if err != nil {
		return nil, err
	}

	newest := make(map[string]*types.Event, len(events))
	for i := range events {
		evt := &events[i]
		if prev, ok := newest[evt.PubKey]; !ok || evt.CreatedAt > prev.CreatedAt {
			newest[evt.PubKey] = evt
		}
	}

	found := make(map[string]*types.ProfileInfo, len(newest))
	toCache := make(map[string]*types.ProfileInfo, len(pubkeys))
	for _, pk := range pubkeys {
		evt, ok := newest[pk]
		if !ok {
			toCache[pk] = nil
			continue
		}
		p := ParseProfile(evt.Content)
		if p == nil {
			toCache[pk] = nil
			continue
		}
		found[pk] = p
		toCache[pk] = p
	}
	if err := c.profiles.SetMultiple(ctx, toCache); err != nil {
		c.log.Debug("profile cache write failed", "error", err)
	}
	return found, nil
}

// ParseProfile reads kind 0 content. Fields with the wrong JSON type are
// ignored rather than failing the whole profile.
func ParseProfile(content string) *types.ProfileInfo {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return nil
	}
	str := func(key string) string {
		if v, ok := data[key].(string); ok {
			return v
		}
		return ""
	}
	return &types.ProfileInfo{
		Name:        str("name"),
		DisplayName: str("display_name"),
		Picture:     str("picture"),
		Nip05:       str("nip05"),
		About:       str("about"),
		Banner:      str("banner"),
		Lud16:       str("lud16"),
		Website:     str("website"),
	}
}

// Stats counts posts, followers and followed accounts for pubkey. The three
// queries run in parallel; a failed query leaves its counter at zero.
func (c *Client) Stats(ctx context.Context, pubkey string) types.UserStats {
	var stats types.UserStats
	timeout := c.cfg.Timeouts.Interactions
	relays := c.cfg.Relays.Default

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events, err := c.query(gctx, timeout, relays, types.Filter{
			Kinds:   []int{types.KindTextNote},
			Authors: []string{pubkey},
			Limit:   1000,
		})
		if err != nil {
			c.log.Debug("post count failed", "pubkey", pubkey, "error", err)
			return nil
		}
		stats.Posts = len(events)
		return nil
	})
	g.Go(func() error {
		events, err := c.query(gctx, timeout, relays, types.Filter{
			Kinds: []int{types.KindContactList},
			PTags: []string{pubkey},
			Limit: 500,
		})
		if err != nil {
			c.log.Debug("follower count failed", "pubkey", pubkey, "error", err)
			return nil
		}
		authors := make(map[string]bool, len(events))
		for _, evt := range events {
			authors[evt.PubKey] = true
		}
		stats.Followers = len(authors)
		return nil
	})
	g.Go(func() error {
		contacts, err := c.Contacts(gctx, pubkey)
		if err != nil {
			c.log.Debug("following count failed", "pubkey", pubkey, "error", err)
			return nil
		}
		stats.Following = len(contacts.Pubkeys)
		return nil
	})
	_ = g.Wait()
	return stats
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// prefetchTimeout bounds background cache warming after sign-in.
const prefetchTimeout = 30 * time.Second

// maxPrefetchProfiles caps how many followed profiles are warmed.
const maxPrefetchProfiles = 500

// Prefetch warms the profile and contact caches for a user who just signed in.
func (c *Client) Prefetch(ctx context.Context, pubkey string) {
	ctx, cancel := context.WithTimeout(ctx, prefetchTimeout)
	defer cancel()

	pubkeys := []string{pubkey}
	contacts, err := c.Contacts(ctx, pubkey)
	if err != nil {
		c.log.Debug("prefetch contacts failed", "pubkey", pubkey, "error", err)
	} else {
		pubkeys = append(pubkeys, contacts.Pubkeys...)
	}
	if len(pubkeys) > maxPrefetchProfiles {
		pubkeys = pubkeys[:maxPrefetchProfiles]
	}
	if _, err := c.Profiles(ctx, pubkeys); err != nil {
		c.log.Debug("prefetch profiles failed", "pubkey", pubkey, "error", err)
	}
	c.log.Debug("prefetch done", "pubkey", pubkey, "profiles", len(pubkeys))
}
