package nostr

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"gleam/internal/types"
)

// ErrInvalidKey is returned for secret keys that are not 32 bytes of hex.
var ErrInvalidKey = errors.New("invalid secret key")

// Signer turns an unsigned event template into a signed event.
type Signer interface {
	PublicKey() string
	Sign(ctx context.Context, evt *types.Event) error
}

// KeySigner signs with a secp256k1 secret key held in memory.
type KeySigner struct {
	privateKey *btcec.PrivateKey
	publicKey  string
}

// NewKeySigner parses a hex secret key.
func NewKeySigner(secretHex string) (*KeySigner, error) {
	keyBytes, err := hex.DecodeString(secretHex)
	if err != nil || len(keyBytes) != 32 {
		return nil, ErrInvalidKey
	}
	privateKey, _ := btcec.PrivKeyFromBytes(keyBytes)
	return &KeySigner{
		privateKey: privateKey,
		publicKey:  hex.EncodeToString(schnorr.SerializePubKey(privateKey.PubKey())),
	}, nil
}

// GenerateSecretKey returns a fresh hex secret key.
func GenerateSecretKey() (string, error) {
	privateKey, err := btcec.NewPrivateKey()
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(privateKey.Serialize()), nil
}

// PublicKey returns the x-only public key as hex.
func (s *KeySigner) PublicKey() string {
	return s.publicKey
}

// Sign fills PubKey, CreatedAt (when zero), ID and Sig.
func (s *KeySigner) Sign(ctx context.Context, evt *types.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	evt.PubKey = s.publicKey
	if evt.CreatedAt == 0 {
		evt.CreatedAt = time.Now().Unix()
	}
	if evt.Tags == nil {
		evt.Tags = [][]string{}
	}
	evt.ID = ComputeEventID(evt)

	idBytes, err := hex.DecodeString(evt.ID)
	if err != nil {
		return fmt.Errorf("decode event id: %w", err)
	}
	sig, err := schnorr.Sign(s.privateKey, idBytes)
	if err != nil {
		return fmt.Errorf("sign event: %w", err)
	}
	evt.Sig = hex.EncodeToString(sig.Serialize())
	return nil
}
