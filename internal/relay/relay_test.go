package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gleam/internal/nostr"
	"gleam/internal/types"
)

// fakeRelay answers REQ with every stored event followed by EOSE, and EVENT
// with an OK carrying the configured verdict.
type fakeRelay struct {
	t        *testing.T
	srv      *httptest.Server
	mu       sync.Mutex
	events   []types.Event
	reject   string
	silent   bool
	noEOSE   bool
	received []types.Event
	reqs     int
}

func newFakeRelay(t *testing.T, events ...types.Event) *fakeRelay {
	f := &fakeRelay{t: t, events: events}
	upgrader := websocket.Upgrader{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var msg []json.RawMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			var typ string
			_ = json.Unmarshal(msg[0], &typ)
			switch typ {
			case "REQ":
				var subID string
				_ = json.Unmarshal(msg[1], &subID)
				f.mu.Lock()
				f.reqs++
				events := append([]types.Event{}, f.events...)
				noEOSE := f.noEOSE
				f.mu.Unlock()
				for _, evt := range events {
					_ = conn.WriteJSON([]interface{}{"EVENT", subID, evt})
				}
				if !noEOSE {
					_ = conn.WriteJSON([]interface{}{"EOSE", subID})
				}
			case "EVENT":
				var evt types.Event
				_ = json.Unmarshal(msg[1], &evt)
				f.mu.Lock()
				f.received = append(f.received, evt)
				reject, silent := f.reject, f.silent
				f.mu.Unlock()
				if silent {
					continue
				}
				_ = conn.WriteJSON([]interface{}{"OK", evt.ID, reject == "", reject})
			}
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeRelay) URL() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http")
}

func signedNote(t *testing.T, content string, createdAt int64) types.Event {
	t.Helper()
	signer, err := nostr.NewKeySigner(strings.Repeat("1", 64))
	require.NoError(t, err)
	evt := types.Event{Kind: types.KindTextNote, Content: content, CreatedAt: createdAt, Tags: [][]string{}}
	require.NoError(t, signer.Sign(context.Background(), &evt))
	return evt
}

func newTestPool(t *testing.T) *Pool {
	p := NewPool(Options{})
	t.Cleanup(p.Close)
	return p
}

func TestQueryMergesAndDedupes(t *testing.T) {
	a := signedNote(t, "a", 100)
	b := signedNote(t, "b", 200)
	c := signedNote(t, "c", 150)
	r1 := newFakeRelay(t, a, b)
	r2 := newFakeRelay(t, b, c)

	p := newTestPool(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	events, err := p.Query(ctx, []string{r1.URL(), r2.URL()}, types.Filter{Kinds: []int{1}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, []string{events[0].ID, events[1].ID, events[2].ID})
	assert.ElementsMatch(t, []string{r1.URL(), r2.URL()}, events[0].RelaysSeen)
}

func TestQueryDropsForgedAndUnmatched(t *testing.T) {
	good := signedNote(t, "good", 100)
	forged := signedNote(t, "forged", 101)
	forged.Content = "tampered"
	other := signedNote(t, "other", 102)
	other.Kind = types.KindReaction // id no longer matches either
	retagged := signedNote(t, "retagged", 103)
	retagged.Tags = [][]string{{"e", strings.Repeat("f", 64), "", "reply"}}

	r := newFakeRelay(t, good, forged, other, retagged)
	p := newTestPool(t)
	events, err := p.Query(context.Background(), []string{r.URL()}, types.Filter{Kinds: []int{1}, Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, good.ID, events[0].ID)
}

func TestQueryAppliesLimit(t *testing.T) {
	var events []types.Event
	for i := 0; i < 5; i++ {
		events = append(events, signedNote(t, "n", int64(100+i)))
	}
	r := newFakeRelay(t, events...)
	p := newTestPool(t)
	got, err := p.Query(context.Background(), []string{r.URL()}, types.Filter{Kinds: []int{1}, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(104), got[0].CreatedAt)
	assert.Equal(t, int64(103), got[1].CreatedAt)
}

func TestQueryLimitKeepsNewestAcrossRelays(t *testing.T) {
	var older, newer []types.Event
	for i := 0; i < 4; i++ {
		older = append(older, signedNote(t, "old", int64(100+i)))
		newer = append(newer, signedNote(t, "new", int64(200+i)))
	}
	r1 := newFakeRelay(t, older...)
	r2 := newFakeRelay(t, newer...)
	p := newTestPool(t)
	got, err := p.Query(context.Background(), []string{r1.URL(), r2.URL()}, types.Filter{Kinds: []int{1}, Limit: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{203, 202, 201}, []int64{got[0].CreatedAt, got[1].CreatedAt, got[2].CreatedAt})
}

func TestQueryCompleteReportsEOSE(t *testing.T) {
	stalled := newFakeRelay(t, signedNote(t, "partial", 1))
	stalled.mu.Lock()
	stalled.noEOSE = true
	stalled.mu.Unlock()
	p := newTestPool(t)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	events, complete, err := p.QueryComplete(ctx, []string{stalled.URL()}, types.Filter{Kinds: []int{1}})
	require.NoError(t, err)
	assert.False(t, complete)
	assert.Len(t, events, 1)

	ok := newFakeRelay(t)
	ctx2, cancel2 := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel2()
	events, complete, err = p.QueryComplete(ctx2, []string{stalled.URL(), ok.URL()}, types.Filter{Kinds: []int{1}})
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Len(t, events, 1)
}

func TestQueryReusesConnection(t *testing.T) {
	r := newFakeRelay(t, signedNote(t, "a", 1))
	p := newTestPool(t)
	for i := 0; i < 3; i++ {
		_, err := p.Query(context.Background(), []string{r.URL()}, types.Filter{Kinds: []int{1}})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, p.Connections())
	r.mu.Lock()
	assert.Equal(t, 3, r.reqs)
	r.mu.Unlock()
}

func TestQueryAllRelaysFail(t *testing.T) {
	p := newTestPool(t)
	_, err := p.Query(context.Background(), []string{"ws://10.0.0.1:7777", "http://example.com"}, types.Filter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsafeURL)
}

func TestQueryPartialFailure(t *testing.T) {
	r := newFakeRelay(t, signedNote(t, "a", 1))
	p := newTestPool(t)
	events, err := p.Query(context.Background(), []string{r.URL(), "ws://192.168.1.1"}, types.Filter{Kinds: []int{1}})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestPublish(t *testing.T) {
	ok := newFakeRelay(t)
	rejecting := newFakeRelay(t)
	rejecting.reject = "blocked: spam"

	p := newTestPool(t)
	evt := signedNote(t, "hello", 1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	accepted, err := p.Publish(ctx, []string{ok.URL(), rejecting.URL()}, &evt)
	assert.Equal(t, []string{ok.URL()}, accepted)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "blocked: spam")

	ok.mu.Lock()
	require.Len(t, ok.received, 1)
	assert.Equal(t, evt.ID, ok.received[0].ID)
	ok.mu.Unlock()
}

func TestPublishTimesOutWithoutOK(t *testing.T) {
	r := newFakeRelay(t)
	r.silent = true
	p := newTestPool(t)
	evt := signedNote(t, "hello", 1)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	accepted, err := p.Publish(ctx, []string{r.URL()}, &evt)
	assert.Empty(t, accepted)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublishNoRelays(t *testing.T) {
	p := newTestPool(t)
	evt := signedNote(t, "x", 1)
	_, err := p.Publish(context.Background(), nil, &evt)
	assert.Error(t, err)
}

func TestIsURLSafe(t *testing.T) {
	assert.True(t, IsURLSafe("ws://localhost:7777"))
	assert.True(t, IsURLSafe("ws://127.0.0.1:7777"))
	assert.True(t, IsURLSafe("wss://8.8.8.8"))
	assert.False(t, IsURLSafe("https://relay.example.com"))
	assert.False(t, IsURLSafe("ws://10.1.2.3"))
	assert.False(t, IsURLSafe("ws://169.254.169.254"))
	assert.False(t, IsURLSafe("ws://[fe80::1]"))
	assert.False(t, IsURLSafe("wss://"))
}

func TestMergeRelays(t *testing.T) {
	got := MergeRelays([]string{"wss://Relay.Damus.io/", "wss://nos.lol"}, "wss://relay.damus.io", "https://x.com", "wss://extra.example")
	assert.Equal(t, []string{"wss://relay.damus.io", "wss://nos.lol", "wss://extra.example"}, got)
}
