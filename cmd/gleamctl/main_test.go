package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gleam/internal/nips"
	"gleam/internal/nostr"
)

func run(t *testing.T, args ...string) (map[string]interface{}, error) {
	t.Helper()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	defer func() { app.Writer = nil; app.ErrWriter = nil }()

	err := app.Run(append([]string{"gleamctl"}, args...))
	if err != nil {
		return nil, err
	}
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded), out.String())
	return decoded, nil
}

func TestVersionShortFlag(t *testing.T) {
	var out bytes.Buffer
	app.Writer = &out
	defer func() { app.Writer = nil }()

	require.NotPanics(t, func() {
		require.NoError(t, app.Run([]string{"gleamctl", "-v"}))
	})
	assert.Contains(t, out.String(), Version)

	decoded, err := run(t, "--verbose", "keygen")
	require.NoError(t, err)
	assert.NotEmpty(t, decoded["npub"])
}

func TestKeygen(t *testing.T) {
	out, err := run(t, "keygen")
	require.NoError(t, err)

	sk, err := nips.DecodeSecretKey(out["nsec"].(string))
	require.NoError(t, err)
	signer, err := nostr.NewKeySigner(sk)
	require.NoError(t, err)
	assert.Equal(t, signer.PublicKey(), out["pubkey"])

	pk, err := nips.DecodePubkey(out["npub"].(string))
	require.NoError(t, err)
	assert.Equal(t, out["pubkey"], pk)
}

func TestDecode(t *testing.T) {
	id := "b9f5441e45ca39179320e0031cfb18e34078673dcc3d3e3a3b3a981760aa5696"
	pk := "79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"

	note, err := nips.EncodeEventID(id)
	require.NoError(t, err)
	out, err := run(t, "decode", note)
	require.NoError(t, err)
	assert.Equal(t, nips.PrefixNote, out["Type"])
	assert.Equal(t, id, out["EventID"])

	naddr, err := nips.EncodeNAddr(30023, pk, "my-article", []string{"wss://relay.example.com"})
	require.NoError(t, err)
	out, err = run(t, "decode", naddr)
	require.NoError(t, err)
	assert.Equal(t, pk, out["PubKey"])
	assert.Equal(t, "my-article", out["Identifier"])
	assert.EqualValues(t, 30023, out["Kind"])
}

func TestDecodeRefusesSecretKeys(t *testing.T) {
	sk, err := nostr.GenerateSecretKey()
	require.NoError(t, err)
	nsec, err := nips.EncodeSecretKey(sk)
	require.NoError(t, err)

	_, err = run(t, "decode", nsec)
	assert.ErrorContains(t, err, "secret key")

	_, err = run(t, "decode", "npub1notvalid")
	assert.Error(t, err)
}
