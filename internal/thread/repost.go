package thread

import (
	"context"
	"strings"

	"gleam/internal/nostr"
	"gleam/internal/types"
)

// ParseEmbeddedRepost returns the original event embedded as JSON in a
// repost's content. Embedded events must carry a valid signature.
func ParseEmbeddedRepost(repost *types.Event) (*types.Event, bool) {
	content := strings.TrimSpace(repost.Content)
	if content == "" || content[0] != '{' {
		return nil, false
	}
	evt, ok := nostr.ParseEventJSON(content)
	if !ok {
		return nil, false
	}
	return &evt, true
}

// RepostTargetID is the first "e" reference of a repost.
func RepostTargetID(repost *types.Event) string {
	ids := ReferencedEventIDs(repost)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// ResolveRepost returns the reposted event, from the embedded JSON or by
// fetching the referenced id. ErrNotFound means the repost should not be shown.
func ResolveRepost(ctx context.Context, q Querier, relays []string, repost *types.Event) (*types.Event, error) {
	if evt, ok := ParseEmbeddedRepost(repost); ok {
		return evt, nil
	}
	id := RepostTargetID(repost)
	if id == "" {
		return nil, ErrNotFound
	}
	return FetchEvent(ctx, q, relays, id)
}
