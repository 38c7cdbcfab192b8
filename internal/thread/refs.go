// Package thread resolves reply chains, reposts and paginated event sets.
//
// Reference tags are read leniently: any "e" tag counts as a reference, the
// "reply" marker picks the parent, and the last "e" tag is taken as the root.
package thread

import (
	"gleam/internal/nostr"
	"gleam/internal/types"
)

const markerReply = "reply"

// ReferencedEventIDs returns the ids of all "e" tags in tag order.
func ReferencedEventIDs(evt *types.Event) []string {
	var ids []string
	for _, tag := range evt.Tags {
		if len(tag) >= 2 && tag[0] == "e" && tag[1] != "" {
			ids = append(ids, tag[1])
		}
	}
	return ids
}

// IsReply reports whether the event references any other event.
func IsReply(evt *types.Event) bool {
	return len(ReferencedEventIDs(evt)) > 0
}

// ReplyDepth is the number of "e" references the event carries.
func ReplyDepth(evt *types.Event) int {
	return len(ReferencedEventIDs(evt))
}

// ParentEventID returns the "e" tag marked "reply", else the first "e" tag.
func ParentEventID(evt *types.Event) string {
	first := ""
	for _, tag := range evt.Tags {
		if len(tag) < 2 || tag[0] != "e" || tag[1] == "" {
			continue
		}
		if len(tag) >= 4 && tag[3] == markerReply {
			return tag[1]
		}
		if first == "" {
			first = tag[1]
		}
	}
	return first
}

// RootEventID returns the last "e" tag. A "root" marker is not consulted.
func RootEventID(evt *types.Event) string {
	ids := ReferencedEventIDs(evt)
	if len(ids) == 0 {
		return ""
	}
	return ids[len(ids)-1]
}

// IsReplyTo reports whether the event references id anywhere in its "e" tags.
func IsReplyTo(evt *types.Event, id string) bool {
	for _, ref := range ReferencedEventIDs(evt) {
		if ref == id {
			return true
		}
	}
	return false
}

// MentionedPubkeys returns the valid hex pubkeys of all "p" tags, deduplicated.
func MentionedPubkeys(evt *types.Event) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tag := range evt.Tags {
		if len(tag) >= 2 && tag[0] == "p" && nostr.IsHex64(tag[1]) && !seen[tag[1]] {
			seen[tag[1]] = true
			out = append(out, tag[1])
		}
	}
	return out
}

// ReplyTags builds the reference tags for a reply to parent. The root
// reference, when the parent is itself a reply, goes after the reply tag so
// both the marker rule and the last-tag rule resolve correctly.
func ReplyTags(parent *types.Event) [][]string {
	tags := [][]string{{"e", parent.ID, "", markerReply}}
	if IsReply(parent) {
		if root := RootEventID(parent); root != "" && root != parent.ID {
			tags = append(tags, []string{"e", root, "", "root"})
		}
	}
	return append(tags, []string{"p", parent.PubKey})
}
