package client

import (
	"context"

	"gleam/internal/thread"
	"gleam/internal/types"
)

// PostView is everything the post page shows.
type PostView struct {
	Target     Item
	Root       *Item // set when the target is a reply and the root was found
	RootID     string
	Replies    []Item
	NextCursor *int64
	Profiles   map[string]*types.ProfileInfo
}

// Thread loads the thread around id. until pages through direct replies.
func (c *Client) Thread(ctx context.Context, id string, until *int64, viewer string) (*PostView, error) {
	t, err := thread.Build(ctx, c.q, id, thread.Options{
		Relays:       c.cfg.Relays.Default,
		QueryTimeout: c.cfg.Timeouts.Thread,
		ReplyLimit:   c.cfg.Feeds.ReplyLimit,
		Until:        until,
	})
	if err != nil {
		return nil, err
	}
	if err := c.events.Set(ctx, t.Target); err != nil {
		c.log.Debug("event cache write failed", "error", err)
	}

	events := []types.Event{*t.Target}
	if t.Root != nil {
		events = append(events, *t.Root)
	}
	events = append(events, t.Replies.Events...)

	page, err := c.Enrich(ctx, events, viewer)
	if err != nil {
		return nil, err
	}

	view := &PostView{RootID: t.RootID, NextCursor: t.Replies.NextCursor, Profiles: page.Profiles}
	for _, item := range page.Items {
		switch {
		case item.Event.ID == t.Target.ID || (item.RepostedBy != nil && item.RepostedBy.ID == t.Target.ID):
			view.Target = item
		case t.Root != nil && item.Event.ID == t.Root.ID:
			root := item
			view.Root = &root
		default:
			view.Replies = append(view.Replies, item)
		}
	}
	if view.Target.Event == nil {
		// A repost whose original is gone.
		return nil, ErrNotFound
	}
	return view, nil
}
