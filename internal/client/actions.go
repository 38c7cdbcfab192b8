package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gleam/internal/content"
	"gleam/internal/nostr"
	"gleam/internal/thread"
	"gleam/internal/types"
)

// MaxContentLength bounds note and reply bodies accepted from forms.
const MaxContentLength = 64000

// ErrEmptyContent is returned when a post or reply has no text.
var ErrEmptyContent = errors.New("content is empty")

// PublishResult reports where a signed event landed.
type PublishResult struct {
	Event    *types.Event
	Accepted []string
	Failed   error // failures on some relays when at least one accepted
}

// publish signs evt and sends it to the publish relays. It fails only when
// no relay accepted the event.
func (c *Client) publish(ctx context.Context, signer nostr.Signer, evt *types.Event) (*PublishResult, error) {
	if signer == nil {
		return nil, ErrNotSignedIn
	}
	if err := signer.Sign(ctx, evt); err != nil {
		return nil, fmt.Errorf("sign kind %d: %w", evt.Kind, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeouts.Publish)
	defer cancel()
	accepted, err := c.pub.Publish(ctx, c.cfg.Relays.Publish, evt)
	result := &PublishResult{Event: evt, Accepted: accepted, Failed: err}
	if len(accepted) == 0 {
		if err == nil {
			err = errors.New("no relay accepted the event")
		}
		c.log.Warn("publish failed", "kind", evt.Kind, "event_id", nostr.ShortID(evt.ID), "error", err)
		return result, fmt.Errorf("publish kind %d: %w", evt.Kind, err)
	}
	if err != nil {
		c.log.Info("publish partially failed", "kind", evt.Kind, "event_id", nostr.ShortID(evt.ID),
			"accepted", len(accepted), "error", err)
	} else {
		c.log.Info("published", "kind", evt.Kind, "event_id", nostr.ShortID(evt.ID), "accepted", len(accepted))
	}
	if err := c.events.Set(ctx, evt); err != nil {
		c.log.Debug("event cache write failed", "error", err)
	}
	return result, nil
}

func cleanContent(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyContent
	}
	if len(s) > MaxContentLength {
		return "", fmt.Errorf("content exceeds %d bytes", MaxContentLength)
	}
	return s, nil
}

func hashtagTags(text string) [][]string {
	tags := [][]string{}
	for _, tag := range content.ExtractHashtags(text) {
		tags = append(tags, []string{"t", tag})
	}
	return tags
}

// Post publishes a kind 1 note. Hashtags in the text become t tags so the
// note shows up in hashtag feeds.
func (c *Client) Post(ctx context.Context, signer nostr.Signer, text string) (*PublishResult, error) {
	text, err := cleanContent(text)
	if err != nil {
		return nil, err
	}
	return c.publish(ctx, signer, &types.Event{
		Kind:    types.KindTextNote,
		Content: text,
		Tags:    hashtagTags(text),
	})
}

// Reply publishes a kind 1 reply to parentID. When the parent cannot be
// fetched, parentAuthor (if a valid pubkey) is enough for the reply and p
// tags; only the root tag is lost.
func (c *Client) Reply(ctx context.Context, signer nostr.Signer, parentID, parentAuthor, text string) (*PublishResult, error) {
	text, err := cleanContent(text)
	if err != nil {
		return nil, err
	}
	var tags [][]string
	parent, err := c.FetchEvent(ctx, parentID)
	switch {
	case err == nil:
		tags = thread.ReplyTags(parent)
	case nostr.IsHex64(parentID) && nostr.IsHex64(parentAuthor):
		c.log.Debug("reply parent unavailable, using form author", "parent", nostr.ShortID(parentID), "error", err)
		tags = thread.ReplyTags(&types.Event{ID: parentID, PubKey: parentAuthor})
	default:
		return nil, fmt.Errorf("reply parent: %w", err)
	}
	tags = append(tags, hashtagTags(text)...)
	return c.publish(ctx, signer, &types.Event{
		Kind:    types.KindTextNote,
		Content: text,
		Tags:    tags,
	})
}

// Like publishes a "+" reaction. author may be empty when unknown.
func (c *Client) Like(ctx context.Context, signer nostr.Signer, id, author string) (*PublishResult, error) {
	if !nostr.IsHex64(id) {
		return nil, fmt.Errorf("like: invalid event id %q", id)
	}
	tags := [][]string{{"e", id}}
	if nostr.IsHex64(author) {
		tags = append(tags, []string{"p", author})
	}
	return c.publish(ctx, signer, &types.Event{
		Kind:    types.KindReaction,
		Content: "+",
		Tags:    tags,
	})
}

// Repost publishes a kind 6 repost of id. The author is looked up when the
// caller does not know it.
func (c *Client) Repost(ctx context.Context, signer nostr.Signer, id, author string) (*PublishResult, error) {
	if !nostr.IsHex64(id) {
		return nil, fmt.Errorf("repost: invalid event id %q", id)
	}
	if !nostr.IsHex64(author) {
		evt, err := c.FetchEvent(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("repost target: %w", err)
		}
		author = evt.PubKey
	}
	return c.publish(ctx, signer, &types.Event{
		Kind:    types.KindRepost,
		Content: "",
		Tags:    [][]string{{"e", id}, {"p", author}},
	})
}
