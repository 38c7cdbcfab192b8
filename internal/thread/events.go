package thread

import (
	"sort"

	"gleam/internal/types"
)

// Dedupe drops events whose id was already seen, keeping first occurrence order.
func Dedupe(events []types.Event) []types.Event {
	seen := make(map[string]bool, len(events))
	out := make([]types.Event, 0, len(events))
	for _, evt := range events {
		if evt.ID == "" || seen[evt.ID] {
			continue
		}
		seen[evt.ID] = true
		out = append(out, evt)
	}
	return out
}

// SortByDate sorts in place by created_at, ties broken by id for a stable order.
func SortByDate(events []types.Event, newestFirst bool) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.CreatedAt != b.CreatedAt {
			if newestFirst {
				return a.CreatedAt > b.CreatedAt
			}
			return a.CreatedAt < b.CreatedAt
		}
		return a.ID < b.ID
	})
}

// FilterRootEvents keeps only events without "e" references.
func FilterRootEvents(events []types.Event) []types.Event {
	out := make([]types.Event, 0, len(events))
	for i := range events {
		if !IsReply(&events[i]) {
			out = append(out, events[i])
		}
	}
	return out
}

// NextCursor returns the until value for the following page: the oldest
// created_at minus one. Nil means there is no next page.
func NextCursor(events []types.Event) *int64 {
	if len(events) == 0 {
		return nil
	}
	oldest := events[0].CreatedAt
	for _, evt := range events[1:] {
		if evt.CreatedAt < oldest {
			oldest = evt.CreatedAt
		}
	}
	next := oldest - 1
	return &next
}
