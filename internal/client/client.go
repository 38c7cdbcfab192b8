// Package client composes relay queries, caches and signing into the
// operations the web handlers and CLI need.
package client

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"gleam/internal/cache"
	"gleam/internal/config"
	"gleam/internal/relay"
	"gleam/internal/thread"
	"gleam/internal/types"
)

// ErrNotFound is returned when no relay had the requested event or profile.
var ErrNotFound = thread.ErrNotFound

// ErrNotSignedIn is returned by actions called without a signer.
var ErrNotSignedIn = errors.New("must be signed in")

// ErrIncomplete is returned when no relay finished a query whose result
// would be written back, so an empty answer cannot be trusted.
var ErrIncomplete = errors.New("no relay answered in time")

// Querier queries relays. *relay.Pool satisfies it.
type Querier = thread.Querier

// CompleteQuerier also reports whether any relay sent EOSE.
// *relay.Pool satisfies it.
type CompleteQuerier interface {
	QueryComplete(ctx context.Context, relays []string, filter types.Filter) ([]types.Event, bool, error)
}

var _ CompleteQuerier = (*relay.Pool)(nil)

// Publisher sends a signed event to relays and reports which accepted it.
type Publisher interface {
	Publish(ctx context.Context, relays []string, evt *types.Event) ([]string, error)
}

// Client is safe for concurrent use.
type Client struct {
	q        Querier
	pub      Publisher
	cfg      *config.Config
	profiles *cache.ProfileCache
	contacts *cache.ContactCache
	events   *cache.EventCache
	log      *slog.Logger

	profileGroup singleflight.Group
	contactGroup singleflight.Group
	eventGroup   singleflight.Group
}

// New builds a client. backend stores profiles, contact lists and events.
func New(q Querier, pub Publisher, cfg *config.Config, backend cache.Backend, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cc := cache.Config{
		ProfileTTL:         cfg.Cache.ProfileTTL,
		ProfileNotFoundTTL: cfg.Cache.ProfileNotFoundTTL,
		ContactTTL:         cfg.Cache.ContactTTL,
		SessionTTL:         cfg.Cache.SessionTTL,
		EventTTL:           cfg.Cache.EventTTL,
	}
	return &Client{
		q:        q,
		pub:      pub,
		cfg:      cfg,
		profiles: cache.NewProfileCache(backend, cc),
		contacts: cache.NewContactCache(backend, cc),
		events:   cache.NewEventCache(backend, cc),
		log:      logger.With("component", "client"),
	}
}

// Config returns the configuration the client was built with.
func (c *Client) Config() *config.Config {
	return c.cfg
}

func (c *Client) query(ctx context.Context, timeout time.Duration, relays []string, filter types.Filter) ([]types.Event, error) {
	if timeout <= 0 {
		timeout = c.cfg.Timeouts.Query
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.q.Query(ctx, relays, filter)
}

// queryComplete is query plus EOSE reporting. Queriers without
// QueryComplete are treated as complete when they return no error.
func (c *Client) queryComplete(ctx context.Context, timeout time.Duration, relays []string, filter types.Filter) ([]types.Event, bool, error) {
	cq, ok := c.q.(CompleteQuerier)
	if !ok {
		events, err := c.query(ctx, timeout, relays, filter)
		return events, err == nil, err
	}
	if timeout <= 0 {
		timeout = c.cfg.Timeouts.Query
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return cq.QueryComplete(ctx, relays, filter)
}

// FetchEvent returns a single event by id, from cache when possible.
func (c *Client) FetchEvent(ctx context.Context, id string, relayHints ...string) (*types.Event, error) {
	if evt, ok := c.events.Get(ctx, id); ok {
		return evt, nil
	}
	v, err, _ := c.eventGroup.Do(id, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeouts.Query)
		defer cancel()
		evt, err := thread.FetchEvent(ctx, c.q, c.relaysWith(relayHints), id)
		if err != nil {
			return nil, err
		}
		if err := c.events.Set(ctx, evt); err != nil {
			c.log.Debug("event cache write failed", "error", err)
		}
		return evt, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.Event), nil
}

func (c *Client) relaysWith(hints []string) []string {
	if len(hints) == 0 {
		return c.cfg.Relays.Default
	}
	return relay.MergeRelays(c.cfg.Relays.Default, hints...)
}

// batchKey is a stable singleflight key for a set of ids.
func batchKey(prefix string, ids []string) string {
	sorted := append([]string{}, ids...)
	sort.Strings(sorted)
	return prefix + ":" + strings.Join(sorted, ",")
}
