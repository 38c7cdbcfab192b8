package client

import (
	"context"
	"fmt"

	"gleam/internal/nostr"
	"gleam/internal/types"
)

// Contacts returns the newest contact list of pubkey. A user who never
// published one gets an empty list with NotFound set. When no relay
// finished in time and nothing was found, the error is ErrIncomplete.
func (c *Client) Contacts(ctx context.Context, pubkey string) (*types.CachedContacts, error) {
	if cached, ok := c.contacts.Get(ctx, pubkey); ok {
		return cached, nil
	}

	v, err, _ := c.contactGroup.Do(pubkey, func() (interface{}, error) {
		contacts, complete, err := c.fetchContacts(ctx, pubkey)
		if err != nil {
			return nil, err
		}
		if !complete {
			if contacts.NotFound {
				return nil, ErrIncomplete
			}
			return contacts, nil
		}
		if err := c.contacts.Set(ctx, pubkey, contacts); err != nil {
			c.log.Debug("contact cache write failed", "error", err)
		}
		return contacts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.CachedContacts), nil
}

// fetchContacts always asks the relays; complete reports whether any of
// them sent EOSE.
func (c *Client) fetchContacts(ctx context.Context, pubkey string) (*types.CachedContacts, bool, error) {
	events, complete, err := c.queryComplete(ctx, c.cfg.Timeouts.Query, c.cfg.Relays.Default, types.Filter{
		Kinds:   []int{types.KindContactList},
		Authors: []string{pubkey},
		Limit:   1,
	})
	if err != nil {
		return nil, false, fmt.Errorf("fetch contacts: %w", err)
	}
	return contactsFromEvents(events), complete, nil
}

// contactsFromEvents picks the newest kind 3 and keeps its valid p tags.
func contactsFromEvents(events []types.Event) *types.CachedContacts {
	var newest *types.Event
	for i := range events {
		if newest == nil || events[i].CreatedAt > newest.CreatedAt {
			newest = &events[i]
		}
	}
	if newest == nil {
		return &types.CachedContacts{NotFound: true}
	}

	contacts := &types.CachedContacts{Content: newest.Content}
	seen := make(map[string]bool)
	for _, tag := range newest.Tags {
		if len(tag) < 2 || tag[0] != "p" || !nostr.IsHex64(tag[1]) || seen[tag[1]] {
			continue
		}
		seen[tag[1]] = true
		contacts.Pubkeys = append(contacts.Pubkeys, tag[1])
		contacts.Tags = append(contacts.Tags, tag)
	}
	return contacts
}

// IsFollowing reports whether follower's contact list includes target.
func (c *Client) IsFollowing(ctx context.Context, follower, target string) (bool, error) {
	contacts, err := c.Contacts(ctx, follower)
	if err != nil {
		return false, err
	}
	for _, pk := range contacts.Pubkeys {
		if pk == target {
			return true, nil
		}
	}
	return false, nil
}

// Follow adds target to the signer's contact list and republishes it.
// Existing entries keep their relay hints and petnames.
func (c *Client) Follow(ctx context.Context, signer nostr.Signer, target string) (*PublishResult, error) {
	if !nostr.IsHex64(target) {
		return nil, fmt.Errorf("follow: invalid pubkey %q", target)
	}
	return c.updateContacts(ctx, signer, func(tags [][]string) ([][]string, bool) {
		for _, tag := range tags {
			if tag[1] == target {
				return tags, false
			}
		}
		return append(tags, []string{"p", target}), true
	})
}

// Unfollow removes target from the signer's contact list. Without an
// existing list there is nothing to remove and nothing is published.
func (c *Client) Unfollow(ctx context.Context, signer nostr.Signer, target string) (*PublishResult, error) {
	return c.updateContacts(ctx, signer, func(tags [][]string) ([][]string, bool) {
		out := make([][]string, 0, len(tags))
		for _, tag := range tags {
			if tag[1] != target {
				out = append(out, tag)
			}
		}
		return out, len(out) != len(tags)
	})
}

func (c *Client) updateContacts(ctx context.Context, signer nostr.Signer, update func([][]string) ([][]string, bool)) (*PublishResult, error) {
	if signer == nil {
		return nil, ErrNotSignedIn
	}
	me := signer.PublicKey()

	// Always start from the relays' copy; a stale cached list would drop
	// follows, and a list read before any relay finished may be empty only
	// because it has not arrived yet.
	if err := c.contacts.Delete(ctx, me); err != nil {
		c.log.Debug("contact cache delete failed", "error", err)
	}
	current, complete, err := c.fetchContacts(ctx, me)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, fmt.Errorf("load contact list: %w", ErrIncomplete)
	}

	tags, changed := update(current.Tags)
	if !changed {
		return &PublishResult{}, nil
	}

	evt := &types.Event{
		Kind:    types.KindContactList,
		Content: current.Content,
		Tags:    tags,
	}
	result, err := c.publish(ctx, signer, evt)
	if err != nil {
		return result, err
	}
	if err := c.contacts.Set(ctx, me, contactsFromEvents([]types.Event{*evt})); err != nil {
		c.log.Debug("contact cache write failed", "error", err)
	}
	return result, nil
}
