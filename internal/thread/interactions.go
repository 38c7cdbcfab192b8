package thread

import (
	"context"
	"fmt"

	"gleam/internal/types"
)

// InteractionLimit caps the interaction query for a single event.
const InteractionLimit = 150

// Interactions groups the events that point at a single event.
type Interactions struct {
	Replies []types.Event
	Reposts []types.Event
	Likes   []types.Event
}

// InteractionsFilter selects replies, reposts and reactions to id.
func InteractionsFilter(id string) types.Filter {
	return types.Filter{
		Kinds: []int{types.KindTextNote, types.KindRepost, types.KindReaction},
		ETags: []string{id},
		Limit: InteractionLimit,
	}
}

// SplitInteractions sorts events referencing id into replies, reposts and
// likes. Every reaction counts as a like.
func SplitInteractions(id string, events []types.Event) Interactions {
	var out Interactions
	for _, evt := range Dedupe(events) {
		if !IsReplyTo(&evt, id) {
			continue
		}
		switch evt.Kind {
		case types.KindTextNote:
			out.Replies = append(out.Replies, evt)
		case types.KindRepost:
			out.Reposts = append(out.Reposts, evt)
		case types.KindReaction:
			out.Likes = append(out.Likes, evt)
		}
	}
	return out
}

// LikedBy reports whether pubkey is among the likers.
func (i Interactions) LikedBy(pubkey string) bool {
	return hasAuthor(i.Likes, pubkey)
}

// RepostedBy reports whether pubkey is among the reposters.
func (i Interactions) RepostedBy(pubkey string) bool {
	return hasAuthor(i.Reposts, pubkey)
}

func hasAuthor(events []types.Event, pubkey string) bool {
	if pubkey == "" {
		return false
	}
	for _, evt := range events {
		if evt.PubKey == pubkey {
			return true
		}
	}
	return false
}

// FetchInteractions queries and splits the interactions for id.
func FetchInteractions(ctx context.Context, q Querier, relays []string, id string) (Interactions, error) {
	events, err := q.Query(ctx, relays, InteractionsFilter(id))
	if err != nil {
		return Interactions{}, fmt.Errorf("fetch interactions %s: %w", id, err)
	}
	return SplitInteractions(id, events), nil
}
