package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gleam/internal/content"
	"gleam/internal/relay"
	"gleam/internal/thread"
	"gleam/internal/types"
)

// Page is one page of a feed, ready to render.
type Page struct {
	Items      []Item
	Profiles   map[string]*types.ProfileInfo
	NextCursor *int64 // nil at the end of the feed
}

// FeedOptions are shared by all feeds.
type FeedOptions struct {
	Until  *int64
	Viewer string // signed-in pubkey, used for liked and reposted flags
}

// Global returns the newest notes from the default relays.
func (c *Client) Global(ctx context.Context, opts FeedOptions) (*Page, error) {
	return c.feed(ctx, opts, c.cfg.Timeouts.Feed, c.cfg.Relays.Default, types.Filter{
		Kinds: []int{types.KindTextNote},
		Limit: c.cfg.Feeds.GlobalLimit,
	}, nil)
}

// Explore returns a wider page of notes, including the search relays.
func (c *Client) Explore(ctx context.Context, opts FeedOptions) (*Page, error) {
	relays := relay.MergeRelays(c.cfg.Relays.Default, c.cfg.Relays.Search...)
	return c.feed(ctx, opts, c.cfg.Timeouts.Feed, relays, types.Filter{
		Kinds: []int{types.KindTextNote},
		Limit: c.cfg.Feeds.ExploreLimit,
	}, nil)
}

// Following returns notes and reposts from the accounts pubkey follows.
// An empty contact list yields an empty page.
func (c *Client) Following(ctx context.Context, pubkey string, opts FeedOptions) (*Page, error) {
	contacts, err := c.Contacts(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	if len(contacts.Pubkeys) == 0 {
		return &Page{Profiles: map[string]*types.ProfileInfo{}}, nil
	}
	return c.feed(ctx, opts, c.cfg.Timeouts.Feed, c.cfg.Relays.Default, types.Filter{
		Kinds:   []int{types.KindTextNote, types.KindRepost},
		Authors: contacts.Pubkeys,
		Limit:   c.cfg.Feeds.GlobalLimit,
	}, nil)
}

// UserPosts returns notes and reposts authored by pubkey.
func (c *Client) UserPosts(ctx context.Context, pubkey string, opts FeedOptions) (*Page, error) {
	return c.feed(ctx, opts, c.cfg.Timeouts.Feed, c.cfg.Relays.Default, types.Filter{
		Kinds:   []int{types.KindTextNote, types.KindRepost},
		Authors: []string{pubkey},
		Limit:   c.cfg.Feeds.UserLimit,
	}, nil)
}

// Hashtag returns notes tagged with tag, matched case-insensitively by
// lowercasing as clients do when publishing t tags.
func (c *Client) Hashtag(ctx context.Context, tag string, opts FeedOptions) (*Page, error) {
	tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	if tag == "" {
		return nil, fmt.Errorf("hashtag: empty tag")
	}
	return c.feed(ctx, opts, c.cfg.Timeouts.Feed, c.cfg.Relays.Default, types.Filter{
		Kinds: []int{types.KindTextNote},
		TTags: []string{tag},
		Limit: c.cfg.Feeds.GlobalLimit,
	}, nil)
}

// Videos returns short videos that carry a playable variant.
func (c *Client) Videos(ctx context.Context, opts FeedOptions) (*Page, error) {
	return c.feed(ctx, opts, c.cfg.Timeouts.Video, c.cfg.Relays.Default, types.Filter{
		Kinds: []int{types.KindShortVideo},
		Limit: c.cfg.Feeds.VideoLimit,
	}, content.ValidateVideoEvent)
}

// feed runs one page query. The cursor comes from the raw page so events
// dropped by keep do not stall pagination.
func (c *Client) feed(ctx context.Context, opts FeedOptions, timeout time.Duration, relays []string, filter types.Filter, keep func(*types.Event) bool) (*Page, error) {
	filter.Until = opts.Until
	raw, err := c.query(ctx, timeout, relays, filter)
	if err != nil {
		return nil, fmt.Errorf("feed query: %w", err)
	}

	events := thread.Dedupe(raw)
	if keep != nil {
		kept := events[:0]
		for i := range events {
			if keep(&events[i]) {
				kept = append(kept, events[i])
			}
		}
		events = kept
	}
	thread.SortByDate(events, true)

	page, err := c.Enrich(ctx, events, opts.Viewer)
	if err != nil {
		return nil, err
	}
	page.NextCursor = thread.NextCursor(raw)
	return page, nil
}
