package nostr

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gleam/internal/types"
)

const (
	testSecretKey = "edc90d06fee17615229c8526dc005d959e4af3bdc0b48c5776c951bcafedec85"
	testPubKey    = "bbde6a0e8847e1cdb2ba5ec021cc949eb3cef125b8304a748fe11c0407990eec"
)

func TestComputeEventIDSerialization(t *testing.T) {
	evt := &types.Event{
		PubKey:    testPubKey,
		CreatedAt: 1700000000,
		Kind:      1,
		Content:   "test",
	}
	withEmptyTags := *evt
	withEmptyTags.Tags = [][]string{}

	// nil and empty tags must hash identically ("[]", never "null")
	assert.Equal(t, ComputeEventID(&withEmptyTags), ComputeEventID(evt))
	assert.Len(t, ComputeEventID(evt), 64)
}

func TestComputeEventIDDoesNotEscapeHTML(t *testing.T) {
	a := &types.Event{PubKey: testPubKey, CreatedAt: 1700000000, Kind: 1, Content: "<b>&</b>"}
	b := &types.Event{PubKey: testPubKey, CreatedAt: 1700000000, Kind: 1, Content: "\\u003cb\\u003e\\u0026\\u003c/b\\u003e"}
	assert.NotEqual(t, ComputeEventID(a), ComputeEventID(b))
}

func TestValidateKnownSignature(t *testing.T) {
	// signature produced by nak for the test key
	evt := &types.Event{
		ID:     "7f431bf32dcabd8630b529e25754bfb37b84b1e2a2bf01531b5db0d21180ba9f",
		PubKey: testPubKey,
		Sig:    "ca1ad40f52d92c011452f76a24c760b24cd69db3d70839db32e44c61f3fbc98d0a9363a6666ec061b97167f13a19715eaeda22fef60694c78335f0644dfcd912",
	}
	assert.True(t, ValidateEventSignature(evt))

	evt.ID = "0" + evt.ID[1:]
	assert.False(t, ValidateEventSignature(evt))
}

func TestKeySignerRoundTrip(t *testing.T) {
	signer, err := NewKeySigner(testSecretKey)
	require.NoError(t, err)
	assert.Equal(t, testPubKey, signer.PublicKey())

	evt := &types.Event{Kind: 1, Content: "hello <world>", Tags: [][]string{{"t", "gleam"}}}
	require.NoError(t, signer.Sign(context.Background(), evt))

	assert.Equal(t, testPubKey, evt.PubKey)
	assert.NotZero(t, evt.CreatedAt)
	assert.True(t, VerifyEvent(evt))

	evt.Content = "tampered"
	assert.False(t, VerifyEvent(evt))
}

func TestNewKeySignerRejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "zz", testSecretKey[:62]} {
		_, err := NewKeySigner(key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestSignHonorsCancelledContext(t *testing.T) {
	signer, err := NewKeySigner(testSecretKey)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, signer.Sign(ctx, &types.Event{Kind: 1}))
}

func TestParseEventFromInterface(t *testing.T) {
	signer, err := NewKeySigner(testSecretKey)
	require.NoError(t, err)
	evt := &types.Event{Kind: 1, Content: "from the wire", Tags: [][]string{{"e", "abc", "", "reply"}}}
	require.NoError(t, signer.Sign(context.Background(), evt))

	raw, err := json.Marshal(evt)
	require.NoError(t, err)
	var generic interface{}
	require.NoError(t, json.Unmarshal(raw, &generic))

	parsed, ok := ParseEventFromInterface(generic)
	require.True(t, ok)
	assert.Equal(t, evt.ID, parsed.ID)
	assert.Equal(t, evt.Tags, parsed.Tags)

	wire := generic.(map[string]interface{})
	wire["content"] = "forged"
	_, ok = ParseEventFromInterface(generic)
	assert.False(t, ok)

	// Original content with rewritten tags keeps a valid signature over the
	// claimed id, but the id no longer matches.
	wire["content"] = "from the wire"
	wire["tags"] = []interface{}{[]interface{}{"e", strings.Repeat("f", 64), "", "reply"}}
	_, ok = ParseEventFromInterface(generic)
	assert.False(t, ok)

	_, ok = ParseEventFromInterface("not an object")
	assert.False(t, ok)
}

func TestParseEventJSON(t *testing.T) {
	signer, err := NewKeySigner(testSecretKey)
	require.NoError(t, err)
	evt := &types.Event{Kind: 1, Content: "embedded"}
	require.NoError(t, signer.Sign(context.Background(), evt))
	raw, err := json.Marshal(evt)
	require.NoError(t, err)

	parsed, ok := ParseEventJSON(string(raw))
	require.True(t, ok)
	assert.Equal(t, "embedded", parsed.Content)

	_, ok = ParseEventJSON("")
	assert.False(t, ok)
	_, ok = ParseEventJSON(`{"id":"x"}`)
	assert.False(t, ok)
}

func TestShortIDAndIsHex64(t *testing.T) {
	assert.Equal(t, "bbde6a0e8847", ShortID(testPubKey))
	assert.Equal(t, "abc", ShortID("abc"))
	assert.True(t, IsHex64(testPubKey))
	assert.False(t, IsHex64("BBDE"+testPubKey[4:]))
	assert.False(t, IsHex64(testPubKey[:63]))
}
