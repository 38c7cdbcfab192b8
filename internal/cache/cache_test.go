package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gleam/internal/types"
)

func TestMemoryCacheExpiry(t *testing.T) {
	m := NewMemoryCache(10, 0)
	defer m.Close()
	now := time.Unix(1000, 0)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Minute))
	v, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	now = now.Add(2 * time.Minute)
	_, ok, _ = m.Get(ctx, "a")
	assert.False(t, ok)
}

func TestMemoryCacheEvictsSoonestExpiring(t *testing.T) {
	m := NewMemoryCache(2, 0)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "short", []byte("s"), time.Second))
	require.NoError(t, m.Set(ctx, "long", []byte("l"), time.Hour))
	require.NoError(t, m.Set(ctx, "mid", []byte("m"), time.Minute))

	assert.Equal(t, 2, m.Len())
	_, ok, _ := m.Get(ctx, "short")
	assert.False(t, ok)
	_, ok, _ = m.Get(ctx, "long")
	assert.True(t, ok)
}

func TestMemoryCacheMultiple(t *testing.T) {
	m := NewMemoryCache(10, 0)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.SetMultiple(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, time.Minute))
	got, err := m.GetMultiple(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, m.Delete(ctx, "a"))
	got, _ = m.GetMultiple(ctx, []string{"a"})
	assert.Empty(t, got)
}

func TestProfileCache(t *testing.T) {
	ctx := context.Background()
	pc := NewProfileCache(NewMemoryCache(100, 0), DefaultConfig())

	require.NoError(t, pc.SetMultiple(ctx, map[string]*types.ProfileInfo{
		"alice": {Name: "alice"},
		"ghost": nil,
	}))

	p, notFound, ok := pc.Get(ctx, "alice")
	require.True(t, ok)
	assert.False(t, notFound)
	assert.Equal(t, "alice", p.Name)

	_, notFound, ok = pc.Get(ctx, "ghost")
	assert.True(t, ok)
	assert.True(t, notFound)

	found, missing := pc.GetMultiple(ctx, []string{"alice", "ghost", "bob"})
	assert.Len(t, found, 1)
	assert.Equal(t, []string{"bob"}, missing)
}

func TestContactCache(t *testing.T) {
	ctx := context.Background()
	cc := NewContactCache(NewMemoryCache(100, 0), DefaultConfig())

	_, ok := cc.Get(ctx, "alice")
	assert.False(t, ok)

	require.NoError(t, cc.Set(ctx, "alice", &types.CachedContacts{Pubkeys: []string{"bob"}}))
	got, ok := cc.Get(ctx, "alice")
	require.True(t, ok)
	assert.Equal(t, []string{"bob"}, got.Pubkeys)
	assert.NotZero(t, got.FetchedAt)

	require.NoError(t, cc.Delete(ctx, "alice"))
	_, ok = cc.Get(ctx, "alice")
	assert.False(t, ok)
}

func TestEventCache(t *testing.T) {
	ctx := context.Background()
	ec := NewEventCache(NewMemoryCache(100, 0), DefaultConfig())
	require.NoError(t, ec.Set(ctx, &types.Event{ID: "x", Content: "hi", Tags: [][]string{{"e", "y"}}}))
	evt, ok := ec.Get(ctx, "x")
	require.True(t, ok)
	assert.Equal(t, "hi", evt.Content)
	assert.Equal(t, [][]string{{"e", "y"}}, evt.Tags)
}

func TestOpenDefaultsToMemory(t *testing.T) {
	b, kind, err := Open("", "gleam:", 10)
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, "memory", kind)
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	rc, err := NewRedisCache(url, "gleam-test:")
	require.NoError(t, err)
	defer rc.Close()
	ctx := context.Background()

	require.NoError(t, rc.SetMultiple(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, time.Minute))
	got, err := rc.GetMultiple(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, got)

	require.NoError(t, rc.Delete(ctx, "a"))
	_, ok, err := rc.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenRejectsBadRedisURL(t *testing.T) {
	_, _, err := Open("not-a-url", "gleam:", 10)
	assert.Error(t, err)
}
