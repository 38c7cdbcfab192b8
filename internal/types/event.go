// Package types provides shared type definitions used across internal packages.
package types

// Event kinds this client reads or writes.
const (
	KindMetadata    = 0
	KindTextNote    = 1
	KindContactList = 3
	KindRepost      = 6
	KindReaction    = 7
	KindVideo       = 21
	KindShortVideo  = 22
	KindLongForm    = 30023
)

// Event represents a Nostr event (NIP-01)
type Event struct {
	ID         string     `json:"id"`
	PubKey     string     `json:"pubkey"`
	CreatedAt  int64      `json:"created_at"`
	Kind       int        `json:"kind"`
	Tags       [][]string `json:"tags"`
	Content    string     `json:"content"`
	Sig        string     `json:"sig"`
	RelaysSeen []string   `json:"-"`
}

// Filter represents a Nostr subscription filter (NIP-01)
type Filter struct {
	IDs     []string
	Authors []string
	Kinds   []int
	Limit   int
	Since   *int64
	Until   *int64
	ETags   []string // #e tag filter (replies, reactions, reposts)
	PTags   []string // #p tag filter (mentions, followers)
	DTags   []string // #d tag filter (addressable events)
	TTags   []string // #t tag filter (hashtags)
}

// NostrMessage represents a raw Nostr protocol message
type NostrMessage []interface{}
