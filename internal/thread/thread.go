package thread

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gleam/internal/types"
)

// ErrNotFound is returned when no relay had the requested event.
var ErrNotFound = errors.New("event not found")

// Querier runs a single filter against a set of relays and returns
// verified, deduplicated events. Implementations honor ctx cancellation.
type Querier interface {
	Query(ctx context.Context, relays []string, filter types.Filter) ([]types.Event, error)
}

// Defaults used when Options leaves a field zero.
const (
	DefaultQueryTimeout = 3 * time.Second
	DefaultReplyLimit   = 50
)

// Options controls thread assembly.
type Options struct {
	Relays       []string
	QueryTimeout time.Duration // applied to each relay query separately
	ReplyLimit   int
	Until        *int64 // reply page cursor
}

func (o Options) timeout() time.Duration {
	if o.QueryTimeout <= 0 {
		return DefaultQueryTimeout
	}
	return o.QueryTimeout
}

func (o Options) limit() int {
	if o.ReplyLimit <= 0 {
		return DefaultReplyLimit
	}
	return o.ReplyLimit
}

// Thread is a target event with its root and one page of direct replies.
type Thread struct {
	Target  *types.Event
	Root    *types.Event // nil when the target is not a reply or the root is gone
	RootID  string
	Replies ReplyPage
}

// ReplyPage is one page of direct replies, oldest first.
type ReplyPage struct {
	Events     []types.Event
	NextCursor *int64 // nil when the page was short
}

// FetchEvent fetches a single event by id.
func FetchEvent(ctx context.Context, q Querier, relays []string, id string) (*types.Event, error) {
	events, err := q.Query(ctx, relays, types.Filter{IDs: []string{id}, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("fetch event %s: %w", id, err)
	}
	for i := range events {
		if events[i].ID == id {
			return &events[i], nil
		}
	}
	return nil, ErrNotFound
}

// Build assembles the thread around id: the target, its root when the target
// is a reply, and the first page of direct replies.
func Build(ctx context.Context, q Querier, id string, opts Options) (*Thread, error) {
	tctx, cancel := context.WithTimeout(ctx, opts.timeout())
	target, err := FetchEvent(tctx, q, opts.Relays, id)
	cancel()
	if err != nil {
		return nil, err
	}

	t := &Thread{Target: target}
	if IsReply(target) {
		t.RootID = RootEventID(target)
	}
	if t.RootID != "" && t.RootID != target.ID {
		rctx, cancel := context.WithTimeout(ctx, opts.timeout())
		root, err := FetchEvent(rctx, q, opts.Relays, t.RootID)
		cancel()
		switch {
		case err == nil:
			t.Root = root
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}

	page, err := FetchReplies(ctx, q, target.ID, opts)
	if err != nil {
		return nil, err
	}
	t.Replies = page
	return t, nil
}

// FetchReplies returns one page of direct replies to id, oldest first. Only
// events that reference id are kept; relays sometimes return loose matches.
func FetchReplies(ctx context.Context, q Querier, id string, opts Options) (ReplyPage, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout())
	defer cancel()

	limit := opts.limit()
	events, err := q.Query(ctx, opts.Relays, types.Filter{
		Kinds: []int{types.KindTextNote},
		ETags: []string{id},
		Limit: limit,
		Until: opts.Until,
	})
	if err != nil {
		return ReplyPage{}, fmt.Errorf("fetch replies %s: %w", id, err)
	}

	replies := make([]types.Event, 0, len(events))
	for i := range events {
		if events[i].ID != id && IsReplyTo(&events[i], id) {
			replies = append(replies, events[i])
		}
	}
	replies = Dedupe(replies)

	page := ReplyPage{Events: replies}
	if len(events) >= limit {
		page.NextCursor = NextCursor(events)
	}
	SortByDate(page.Events, false)
	return page, nil
}
