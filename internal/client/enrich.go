package client

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"gleam/internal/content"
	"gleam/internal/thread"
	"gleam/internal/types"
)

// enrichConcurrency bounds per-item relay lookups during enrichment.
const enrichConcurrency = 8

// Item is a renderable note. For reposts, Event is the original and
// RepostedBy is the kind 6 wrapper.
type Item struct {
	Event        *types.Event
	RepostedBy   *types.Event
	Interactions thread.Interactions
	Liked        bool
	Reposted     bool
	ReplyTo      *ReplyInfo
	Video        *content.Video
	Article      *content.Article
}

// ReplyInfo names the parent of a reply.
type ReplyInfo struct {
	ParentID string
	Author   string // empty when the parent was not found
}

// Missing reports whether the parent could not be fetched.
func (r *ReplyInfo) Missing() bool {
	return r.Author == ""
}

// Enrich turns events into items: reposts are resolved (and dropped when the
// original is gone), reply parents and interaction counts are looked up and
// profiles for everyone shown are fetched in one batch.
func (c *Client) Enrich(ctx context.Context, events []types.Event, viewer string) (*Page, error) {
	items := make([]*Item, len(events))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i := range events {
		i, evt := i, &events[i]
		if evt.Kind != types.KindRepost {
			items[i] = newItem(evt)
			continue
		}
		g.Go(func() error {
			original, err := c.resolveRepost(gctx, evt)
			if err != nil {
				if !errors.Is(err, thread.ErrNotFound) {
					c.log.Debug("repost resolve failed", "repost", evt.ID, "error", err)
				}
				return nil
			}
			item := newItem(original)
			item.RepostedBy = evt
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := make([]*Item, 0, len(items))
	for _, item := range items {
		if item != nil {
			kept = append(kept, item)
		}
	}

	c.attachReplyParents(ctx, kept)
	c.attachInteractions(ctx, kept, viewer)

	var pubkeys []string
	for _, item := range kept {
		pubkeys = append(pubkeys, item.Event.PubKey)
		pubkeys = append(pubkeys, content.MentionedPubkeys(item.Event.Content)...)
		if item.RepostedBy != nil {
			pubkeys = append(pubkeys, item.RepostedBy.PubKey)
		}
		if item.ReplyTo != nil && item.ReplyTo.Author != "" {
			pubkeys = append(pubkeys, item.ReplyTo.Author)
		}
	}
	profiles, err := c.Profiles(ctx, pubkeys)
	if err != nil {
		return nil, err
	}

	page := &Page{Items: make([]Item, len(kept)), Profiles: profiles}
	for i, item := range kept {
		page.Items[i] = *item
	}
	return page, nil
}

func newItem(evt *types.Event) *Item {
	item := &Item{Event: evt}
	switch evt.Kind {
	case types.KindVideo, types.KindShortVideo:
		if content.ValidateVideoEvent(evt) {
			v := content.ExtractVideo(evt)
			item.Video = &v
		}
	case types.KindLongForm:
		if a, err := content.ExtractArticle(evt); err == nil {
			item.Article = &a
		}
	}
	return item
}

func (c *Client) resolveRepost(ctx context.Context, repost *types.Event) (*types.Event, error) {
	return thread.ResolveRepost(ctx, cachedEvents{c}, c.cfg.Relays.Default, repost)
}

// cachedEvents is a Querier that answers single-id lookups through the
// event cache and FetchEvent's coalescing. Other filters go to the relays.
type cachedEvents struct{ c *Client }

func (ce cachedEvents) Query(ctx context.Context, relays []string, filter types.Filter) ([]types.Event, error) {
	if len(filter.IDs) != 1 || len(filter.Kinds) > 0 || len(filter.Authors) > 0 ||
		len(filter.ETags)+len(filter.PTags)+len(filter.DTags)+len(filter.TTags) > 0 {
		return ce.c.q.Query(ctx, relays, filter)
	}
	evt, err := ce.c.FetchEvent(ctx, filter.IDs[0], relays...)
	if errors.Is(err, thread.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []types.Event{*evt}, nil
}

// attachReplyParents fetches the parents of all replies in one query.
func (c *Client) attachReplyParents(ctx context.Context, items []*Item) {
	var ids []string
	for _, item := range items {
		if thread.IsReply(item.Event) {
			parent := thread.ParentEventID(item.Event)
			item.ReplyTo = &ReplyInfo{ParentID: parent}
			ids = append(ids, parent)
		}
	}
	ids = uniqueStrings(ids)
	if len(ids) == 0 {
		return
	}

	events, err := c.query(ctx, c.cfg.Timeouts.Indicator, c.cfg.Relays.Default, types.Filter{
		IDs:   ids,
		Limit: len(ids),
	})
	if err != nil {
		c.log.Debug("reply parent lookup failed", "count", len(ids), "error", err)
		return
	}
	authors := make(map[string]string, len(events))
	for _, evt := range events {
		authors[evt.ID] = evt.PubKey
	}
	for _, item := range items {
		if item.ReplyTo != nil {
			item.ReplyTo.Author = authors[item.ReplyTo.ParentID]
		}
	}
}

// attachInteractions fills counters for each item. Failures leave zero counts.
func (c *Client) attachInteractions(ctx context.Context, items []*Item, viewer string) {
	var g errgroup.Group
	g.SetLimit(enrichConcurrency)
	for _, item := range items {
		item := item
		g.Go(func() error {
			ictx, cancel := context.WithTimeout(ctx, c.cfg.Timeouts.Interactions)
			defer cancel()
			in, err := thread.FetchInteractions(ictx, c.q, c.cfg.Relays.Default, item.Event.ID)
			if err != nil {
				c.log.Debug("interactions failed", "event", item.Event.ID, "error", err)
				return nil
			}
			item.Interactions = in
			item.Liked = in.LikedBy(viewer)
			item.Reposted = in.RepostedBy(viewer)
			return nil
		})
	}
	_ = g.Wait()
}
