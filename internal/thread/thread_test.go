package thread

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gleam/internal/nostr"
	"gleam/internal/types"
)

// fakeQuerier answers from an in-memory event set using filter matching.
type fakeQuerier struct {
	mu      sync.Mutex
	events  []types.Event
	err     error
	filters []types.Filter
}

func (f *fakeQuerier) Query(ctx context.Context, relays []string, filter types.Filter) ([]types.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	var out []types.Event
	for i := range f.events {
		if nostr.MatchesFilter(&f.events[i], filter) {
			out = append(out, f.events[i])
		}
	}
	SortByDate(out, true)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func hexID(c string) string { return strings.Repeat(c, 64) }

func note(id string, createdAt int64, tags ...[]string) types.Event {
	return types.Event{ID: id, PubKey: hexID("a"), CreatedAt: createdAt, Kind: types.KindTextNote, Tags: tags}
}

func TestReplyHeuristics(t *testing.T) {
	root, mid := hexID("1"), hexID("2")

	plain := note(hexID("9"), 1)
	assert.False(t, IsReply(&plain))
	assert.Empty(t, ParentEventID(&plain))
	assert.Empty(t, RootEventID(&plain))
	assert.Zero(t, ReplyDepth(&plain))

	// unmarked: parent is first, root is last
	unmarked := note(hexID("8"), 1, []string{"e", mid}, []string{"p", hexID("b")}, []string{"e", root})
	assert.True(t, IsReply(&unmarked))
	assert.Equal(t, mid, ParentEventID(&unmarked))
	assert.Equal(t, root, RootEventID(&unmarked))
	assert.Equal(t, 2, ReplyDepth(&unmarked))
	assert.Equal(t, []string{mid, root}, ReferencedEventIDs(&unmarked))

	// reply marker wins for the parent
	marked := note(hexID("7"), 1, []string{"e", root, "", "root"}, []string{"e", mid, "", "reply"})
	assert.Equal(t, mid, ParentEventID(&marked))
	assert.Equal(t, mid, RootEventID(&marked), "root is the last e tag even when another tag is marked root")

	assert.True(t, IsReplyTo(&marked, root))
	assert.False(t, IsReplyTo(&marked, hexID("3")))
}

func TestReplyTagsKeepHeuristicsConsistent(t *testing.T) {
	root := note(hexID("1"), 1)
	tags := ReplyTags(&root)
	assert.Equal(t, [][]string{{"e", root.ID, "", "reply"}, {"p", root.PubKey}}, tags)

	mid := note(hexID("2"), 2, []string{"e", root.ID, "", "reply"})
	reply := types.Event{Tags: ReplyTags(&mid)}
	assert.Equal(t, mid.ID, ParentEventID(&reply))
	assert.Equal(t, root.ID, RootEventID(&reply))
}

func TestDedupeAndSort(t *testing.T) {
	a, b, c := note(hexID("1"), 10), note(hexID("2"), 20), note(hexID("3"), 20)
	merged := Dedupe([]types.Event{a, b, b, c, a})
	require.Len(t, merged, 3)

	SortByDate(merged, true)
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, ids(merged))
	SortByDate(merged, false)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, ids(merged))

	assert.Empty(t, Dedupe([]types.Event{{ID: ""}}))
}

func TestFilterRootEvents(t *testing.T) {
	a := note(hexID("1"), 1)
	b := note(hexID("2"), 2, []string{"e", a.ID})
	assert.Equal(t, []string{a.ID}, ids(FilterRootEvents([]types.Event{a, b})))
}

func TestNextCursor(t *testing.T) {
	assert.Nil(t, NextCursor(nil))
	cur := NextCursor([]types.Event{note(hexID("1"), 50), note(hexID("2"), 30), note(hexID("3"), 40)})
	require.NotNil(t, cur)
	assert.Equal(t, int64(29), *cur)
}

func TestBuildThreadForReply(t *testing.T) {
	root := note(hexID("1"), 100)
	target := note(hexID("2"), 200, []string{"e", root.ID, "", "reply"})
	r1 := note(hexID("3"), 300, []string{"e", target.ID, "", "reply"})
	r2 := note(hexID("4"), 250, []string{"e", root.ID, "", "root"}, []string{"e", target.ID, "", "reply"})
	unrelated := note(hexID("5"), 260, []string{"e", root.ID})

	q := &fakeQuerier{events: []types.Event{root, target, r1, r2, unrelated}}
	th, err := Build(context.Background(), q, target.ID, Options{})
	require.NoError(t, err)

	assert.Equal(t, target.ID, th.Target.ID)
	require.NotNil(t, th.Root)
	assert.Equal(t, root.ID, th.Root.ID)
	assert.Equal(t, []string{r2.ID, r1.ID}, ids(th.Replies.Events), "oldest first, direct replies only")
	assert.Nil(t, th.Replies.NextCursor)
}

func TestBuildThreadForRootSkipsRootFetch(t *testing.T) {
	target := note(hexID("1"), 100)
	q := &fakeQuerier{events: []types.Event{target}}
	th, err := Build(context.Background(), q, target.ID, Options{})
	require.NoError(t, err)
	assert.Nil(t, th.Root)
	assert.Empty(t, th.RootID)
	assert.Len(t, q.filters, 2, "target and replies only")
}

func TestBuildThreadMissingRoot(t *testing.T) {
	target := note(hexID("2"), 200, []string{"e", hexID("1")})
	q := &fakeQuerier{events: []types.Event{target}}
	th, err := Build(context.Background(), q, target.ID, Options{})
	require.NoError(t, err)
	assert.Nil(t, th.Root)
	assert.Equal(t, hexID("1"), th.RootID)
}

func TestBuildThreadNotFound(t *testing.T) {
	_, err := Build(context.Background(), &fakeQuerier{}, hexID("1"), Options{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBuildThreadQueryError(t *testing.T) {
	boom := errors.New("relays down")
	_, err := Build(context.Background(), &fakeQuerier{err: boom}, hexID("1"), Options{})
	assert.ErrorIs(t, err, boom)
}

func TestFetchRepliesPaginates(t *testing.T) {
	target := note(hexID("0"), 1)
	events := []types.Event{target}
	for i, c := range []string{"1", "2", "3", "4", "5"} {
		events = append(events, note(hexID(c), int64(10+i), []string{"e", target.ID}))
	}
	q := &fakeQuerier{events: events}
	opts := Options{ReplyLimit: 2}

	var all []types.Event
	for page := 0; page < 10; page++ {
		p, err := FetchReplies(context.Background(), q, target.ID, opts)
		require.NoError(t, err)
		all = Dedupe(append(all, p.Events...))
		if p.NextCursor == nil {
			break
		}
		opts.Until = p.NextCursor
	}
	assert.Len(t, all, 5)
}

func TestResolveRepostEmbedded(t *testing.T) {
	signer, err := nostr.NewKeySigner(hexID("1"))
	require.NoError(t, err)
	original := types.Event{Kind: types.KindTextNote, Content: "hello", Tags: [][]string{}}
	require.NoError(t, signer.Sign(context.Background(), &original))
	raw, err := json.Marshal(original)
	require.NoError(t, err)

	repost := types.Event{Kind: types.KindRepost, Content: string(raw), Tags: [][]string{{"e", original.ID}}}
	q := &fakeQuerier{}
	got, err := ResolveRepost(context.Background(), q, nil, &repost)
	require.NoError(t, err)
	assert.Equal(t, original.ID, got.ID)
	assert.Empty(t, q.filters, "embedded event needs no fetch")
}

func TestResolveRepostFallsBackToFetch(t *testing.T) {
	original := note(hexID("1"), 10)
	repost := types.Event{Kind: types.KindRepost, Content: "{not json", Tags: [][]string{{"e", original.ID}, {"p", original.PubKey}}}
	got, err := ResolveRepost(context.Background(), &fakeQuerier{events: []types.Event{original}}, nil, &repost)
	require.NoError(t, err)
	assert.Equal(t, original.ID, got.ID)
}

func TestResolveRepostUnresolved(t *testing.T) {
	repost := types.Event{Kind: types.KindRepost}
	_, err := ResolveRepost(context.Background(), &fakeQuerier{}, nil, &repost)
	assert.ErrorIs(t, err, ErrNotFound)

	repost.Tags = [][]string{{"e", hexID("1")}}
	_, err = ResolveRepost(context.Background(), &fakeQuerier{}, nil, &repost)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSplitInteractions(t *testing.T) {
	target := hexID("0")
	reply := note(hexID("1"), 1, []string{"e", target})
	repost := types.Event{ID: hexID("2"), PubKey: hexID("b"), Kind: types.KindRepost, Tags: [][]string{{"e", target}}}
	like := types.Event{ID: hexID("3"), PubKey: hexID("c"), Kind: types.KindReaction, Content: "+", Tags: [][]string{{"e", target}}}
	other := types.Event{ID: hexID("4"), Kind: types.KindReaction, Tags: [][]string{{"e", hexID("9")}}}

	got := SplitInteractions(target, []types.Event{reply, repost, like, like, other})
	assert.Len(t, got.Replies, 1)
	assert.Len(t, got.Reposts, 1)
	assert.Len(t, got.Likes, 1)
	assert.True(t, got.LikedBy(hexID("c")))
	assert.False(t, got.LikedBy(""))
	assert.True(t, got.RepostedBy(hexID("b")))

	f := InteractionsFilter(target)
	assert.Equal(t, []int{1, 6, 7}, f.Kinds)
	assert.Equal(t, 150, f.Limit)
}

func ids(events []types.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}
