package auth

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gleam/internal/cache"
	"gleam/internal/types"
)

const (
	testNsec   = "nsec1vl029mgpspedva04g90vltkh6fvh240zqtv9k0t9af8935ke9laqsnlfe5"
	testSecHex = "67dea2ed018072d675f5415ecfaed7d2597555e202d85b3d65ea4e58d2d92ffa"
)

func TestCSRFToken(t *testing.T) {
	m := NewCSRFManager([]byte("secret"))
	now := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return now }

	token := m.GenerateToken("sess")
	assert.True(t, m.ValidateToken("sess", token))
	assert.False(t, m.ValidateToken("other", token))
	assert.False(t, m.ValidateToken("sess", "garbage"))
	assert.False(t, m.ValidateToken("sess", "123.abc"))

	now = now.Add(CSRFTokenMaxAge + time.Second)
	assert.False(t, m.ValidateToken("sess", token), "expired")

	other := NewCSRFManager([]byte("different"))
	assert.False(t, other.ValidateToken("sess", m.GenerateToken("sess")))
}

func TestDeriveKeys(t *testing.T) {
	a, err := DeriveKeys("secret")
	require.NoError(t, err)
	b, err := DeriveKeys("secret")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a.CSRF, a.Seal)
	assert.Len(t, a.Seal, 32)

	r1, err := DeriveKeys("")
	require.NoError(t, err)
	r2, err := DeriveKeys("")
	require.NoError(t, err)
	assert.NotEqual(t, r1.Seal, r2.Seal)
}

func TestSealer(t *testing.T) {
	keys, err := DeriveKeys("secret")
	require.NoError(t, err)
	s, err := NewSealer(keys.Seal)
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("hello"), []byte("ad"))
	require.NoError(t, err)
	assert.NotContains(t, sealed, "hello")

	pt, err := s.Open(sealed, []byte("ad"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(pt))

	_, err = s.Open(sealed, []byte("other"))
	assert.ErrorIs(t, err, ErrUnseal)
	_, err = s.Open("!!", nil)
	assert.ErrorIs(t, err, ErrUnseal)

	_, err = NewSealer([]byte("short"))
	assert.Error(t, err)
}

func newStore(t *testing.T) (*SessionStore, cache.Backend) {
	t.Helper()
	keys, err := DeriveKeys("secret")
	require.NoError(t, err)
	sealer, err := NewSealer(keys.Seal)
	require.NoError(t, err)
	backend := cache.NewMemoryCache(100, 0)
	t.Cleanup(func() { backend.Close() })
	return NewSessionStore(backend, sealer, time.Hour), backend
}

func TestSessionLifecycle(t *testing.T) {
	store, backend := newStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, testNsec)
	require.NoError(t, err)
	assert.Equal(t, "7e7e9c42a91bfef19fa929e5fda1b72e0ebc1a4c1141673e2794234d86addf4e", sess.PubKey)

	raw, found, err := backend.Get(ctx, "session:"+sess.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.NotContains(t, string(raw), testSecHex, "secret key must be sealed at rest")

	loaded, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.PubKey, loaded.PubKey)
	assert.Equal(t, sess.PubKey, loaded.Signer().PublicKey())

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestSessionCreateAcceptsHex(t *testing.T) {
	store, _ := newStore(t)
	sess, err := store.Create(context.Background(), strings.ToUpper(testSecHex))
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
}

func TestSessionCreateRejectsBadKey(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.Create(context.Background(), "npub10elfcs4fr0l0r8af98jlmgdh9c8tcxjvz9qkw038js35mp4dma8qzvjptg")
	assert.Error(t, err)
	_, err = store.Create(context.Background(), "hello")
	assert.Error(t, err)
}

func TestSessionGetRejectsTampering(t *testing.T) {
	store, backend := newStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "")
	assert.ErrorIs(t, err, ErrNotSignedIn)
	_, err = store.Get(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotSignedIn)

	sess, err := store.Create(ctx, testNsec)
	require.NoError(t, err)

	// moving a sealed key to another session id fails authentication
	raw, _, _ := backend.Get(ctx, "session:"+sess.ID)
	var cached types.CachedSession
	require.NoError(t, json.Unmarshal(raw, &cached))
	cached.ID = "stolen"
	moved, _ := json.Marshal(cached)
	require.NoError(t, backend.Set(ctx, "session:stolen", moved, time.Hour))
	_, err = store.Get(ctx, "stolen")
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestLimiter(t *testing.T) {
	l := NewLimiter(1, 2)
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"), "burst exhausted")
	assert.True(t, l.Allow("b"), "keys are independent")
}
