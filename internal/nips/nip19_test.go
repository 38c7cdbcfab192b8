package nips

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	vectorNpub   = "npub10elfcs4fr0l0r8af98jlmgdh9c8tcxjvz9qkw038js35mp4dma8qzvjptg"
	vectorPubHex = "7e7e9c42a91bfef19fa929e5fda1b72e0ebc1a4c1141673e2794234d86addf4e"
	vectorNsec   = "nsec1vl029mgpspedva04g90vltkh6fvh240zqtv9k0t9af8935ke9laqsnlfe5"
	vectorSecHex = "67dea2ed018072d675f5415ecfaed7d2597555e202d85b3d65ea4e58d2d92ffa"
)

func TestDecodeNpubVector(t *testing.T) {
	p, err := Decode(vectorNpub)
	require.NoError(t, err)
	assert.Equal(t, PrefixNpub, p.Type)
	assert.Equal(t, vectorPubHex, p.PubKey)
	assert.True(t, p.IsProfile())

	enc, err := EncodePubkey(vectorPubHex)
	require.NoError(t, err)
	assert.Equal(t, vectorNpub, enc)
}

func TestDecodeNsecVector(t *testing.T) {
	sk, err := DecodeSecretKey(vectorNsec)
	require.NoError(t, err)
	assert.Equal(t, vectorSecHex, sk)

	enc, err := EncodeSecretKey(vectorSecHex)
	require.NoError(t, err)
	assert.Equal(t, vectorNsec, enc)
}

func TestDecodeNProfileVector(t *testing.T) {
	p, err := Decode("nprofile1qqsrhuxx8l9ex335q7he0f09aej04zpazpl0ne2cgukyawd24mayt8gpp4mhxue69uhhytnc9e3k7mgpz4mhxue69uhkg6nzv9ejuumpv34kytnrdaksjlyr9p")
	require.NoError(t, err)
	assert.Equal(t, PrefixNProfile, p.Type)
	assert.Equal(t, "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d", p.PubKey)
	assert.Equal(t, []string{"wss://r.x.com", "wss://djbas.sadkb.com"}, p.RelayHints)
}

func TestDecodeAcceptsNostrURI(t *testing.T) {
	p, err := Decode("nostr:" + vectorNpub)
	require.NoError(t, err)
	assert.Equal(t, vectorPubHex, p.PubKey)
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	// flip the last character
	bad := vectorNpub[:len(vectorNpub)-1] + "q"
	_, err := Decode(bad)
	require.Error(t, err)
}

func TestDecodeRejectsUnknownPrefix(t *testing.T) {
	s, err := encodeBytes("nfoo", make([]byte, 32))
	require.NoError(t, err)
	_, err = Decode(s)
	require.ErrorIs(t, err, ErrUnknownPrefix)
}

func TestNoteRoundTrip(t *testing.T) {
	id := strings.Repeat("ab", 32)
	note, err := EncodeEventID(id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(note, "note1"))

	p, err := Decode(note)
	require.NoError(t, err)
	assert.True(t, p.IsEvent())
	assert.Equal(t, id, p.EventID)
}

func TestNEventRoundTrip(t *testing.T) {
	id := strings.Repeat("01", 32)
	author := vectorPubHex
	s, err := EncodeNEvent(id, author, []string{"wss://relay.example.com"})
	require.NoError(t, err)

	p, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, PrefixNEvent, p.Type)
	assert.Equal(t, id, p.EventID)
	assert.Equal(t, author, p.Author)
	assert.Equal(t, []string{"wss://relay.example.com"}, p.RelayHints)
}

func TestNEventWithoutAuthor(t *testing.T) {
	id := strings.Repeat("02", 32)
	s, err := EncodeNEvent(id, "", nil)
	require.NoError(t, err)
	p, err := Decode(s)
	require.NoError(t, err)
	assert.Empty(t, p.Author)
	assert.Empty(t, p.RelayHints)
}

func TestNAddrRoundTrip(t *testing.T) {
	s, err := EncodeNAddr(30023, vectorPubHex, "my-article", []string{"wss://relay.example.com"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s, "naddr1"))

	p, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, 30023, p.Kind)
	assert.Equal(t, vectorPubHex, p.PubKey)
	assert.Equal(t, "my-article", p.Identifier)
	assert.Equal(t, []string{"wss://relay.example.com"}, p.RelayHints)
}

func TestNAddrMissingKind(t *testing.T) {
	tlv := appendTLV(nil, tlvTypeSpecial, []byte("x"))
	tlv = appendTLV(tlv, tlvTypeAuthor, make([]byte, 32))
	s, err := encodeBytes(PrefixNAddr, tlv)
	require.NoError(t, err)
	_, err = Decode(s)
	require.Error(t, err)
}

func TestDecodePubkey(t *testing.T) {
	pk, err := DecodePubkey(strings.ToUpper(vectorPubHex))
	require.NoError(t, err)
	assert.Equal(t, vectorPubHex, pk)

	pk, err = DecodePubkey(vectorNpub)
	require.NoError(t, err)
	assert.Equal(t, vectorPubHex, pk)

	note, _ := EncodeEventID(vectorPubHex)
	_, err = DecodePubkey(note)
	require.Error(t, err)
}

func TestEncodeRejectsBadHex(t *testing.T) {
	_, err := EncodePubkey("zz")
	require.Error(t, err)
	_, err = EncodeEventID("abcd")
	require.Error(t, err)
}

func TestLooksLikeIdentifier(t *testing.T) {
	assert.True(t, LooksLikeIdentifier(vectorNpub))
	assert.True(t, LooksLikeIdentifier("nostr:note1abc"))
	assert.True(t, LooksLikeIdentifier("naddr1xyz"))
	assert.False(t, LooksLikeIdentifier(vectorNsec))
	assert.False(t, LooksLikeIdentifier("explore"))
}
