package nostr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gleam/internal/types"
)

func TestFilterToREQ(t *testing.T) {
	until := int64(1700000000)
	req := FilterToREQ(types.Filter{
		Kinds: []int{1},
		ETags: []string{"abc"},
		Limit: 50,
		Until: &until,
	})

	assert.Equal(t, []int{1}, req["kinds"])
	assert.Equal(t, []string{"abc"}, req["#e"])
	assert.Equal(t, 50, req["limit"])
	assert.Equal(t, until, req["until"])
	assert.NotContains(t, req, "authors")
	assert.NotContains(t, req, "#p")
}

func TestMatchesFilter(t *testing.T) {
	evt := &types.Event{
		ID:        "id1",
		PubKey:    "pk1",
		Kind:      1,
		CreatedAt: 100,
		Tags:      [][]string{{"e", "root"}, {"t", "nostr"}},
	}
	since, until := int64(50), int64(99)

	assert.True(t, MatchesFilter(evt, types.Filter{Kinds: []int{1}, ETags: []string{"root"}}))
	assert.True(t, MatchesFilter(evt, types.Filter{TTags: []string{"nostr"}}))
	assert.False(t, MatchesFilter(evt, types.Filter{Kinds: []int{7}}))
	assert.False(t, MatchesFilter(evt, types.Filter{ETags: []string{"other"}}))
	assert.False(t, MatchesFilter(evt, types.Filter{Authors: []string{"pk2"}}))
	assert.False(t, MatchesFilter(evt, types.Filter{Until: &until}))
	assert.True(t, MatchesFilter(evt, types.Filter{Since: &since}))
}
