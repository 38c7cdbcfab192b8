package client

import (
	"context"
	"fmt"

	"gleam/internal/nips"
	"gleam/internal/relay"
	"gleam/internal/thread"
	"gleam/internal/types"
)

// QuoteFilter builds the filter that finds the event a pointer names.
// Profile pointers and secret keys do not name events.
func QuoteFilter(ptr *nips.Pointer) (types.Filter, error) {
	switch ptr.Type {
	case nips.PrefixNote:
		return types.Filter{IDs: []string{ptr.EventID}, Limit: 1}, nil
	case nips.PrefixNEvent:
		f := types.Filter{IDs: []string{ptr.EventID}, Limit: 1}
		if ptr.Author != "" {
			f.Authors = []string{ptr.Author}
		}
		return f, nil
	case nips.PrefixNAddr:
		return types.Filter{
			Kinds:   []int{ptr.Kind},
			Authors: []string{ptr.PubKey},
			DTags:   []string{ptr.Identifier},
			Limit:   1,
		}, nil
	default:
		return types.Filter{}, fmt.Errorf("%s does not reference an event", ptr.Type)
	}
}

// hintedRelays adds the pointer's relay hints to the default set, skipping
// hints that point at private addresses.
func (c *Client) hintedRelays(hints []string) []string {
	safe := make([]string, 0, len(hints))
	for _, h := range hints {
		if relay.IsURLSafe(h) {
			safe = append(safe, h)
		}
	}
	return relay.MergeRelays(c.cfg.Relays.Default, safe...)
}

// Resolve fetches the event a note, nevent or naddr pointer names. For
// addressable events the newest version wins.
func (c *Client) Resolve(ctx context.Context, ptr *nips.Pointer) (*types.Event, error) {
	filter, err := QuoteFilter(ptr)
	if err != nil {
		return nil, err
	}
	if ptr.IsEvent() {
		if evt, ok := c.events.Get(ctx, ptr.EventID); ok {
			return evt, nil
		}
	}

	events, err := c.query(ctx, c.cfg.Timeouts.Query, c.hintedRelays(ptr.RelayHints), filter)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ptr.Type, err)
	}
	if len(events) == 0 {
		return nil, thread.ErrNotFound
	}
	thread.SortByDate(events, true)
	evt := &events[0]
	if ptr.IsEvent() {
		if evt.ID != ptr.EventID {
			return nil, thread.ErrNotFound
		}
		if err := c.events.Set(ctx, evt); err != nil {
			c.log.Debug("event cache write failed", "error", err)
		}
	}
	return evt, nil
}

// Quote resolves an identifier into a single renderable item.
func (c *Client) Quote(ctx context.Context, identifier, viewer string) (*Page, error) {
	ptr, err := nips.Decode(identifier)
	if err != nil {
		return nil, err
	}
	evt, err := c.Resolve(ctx, ptr)
	if err != nil {
		return nil, err
	}
	return c.Enrich(ctx, []types.Event{*evt}, viewer)
}
