package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gleam/internal/cache"
	"gleam/internal/nips"
	"gleam/internal/nostr"
	"gleam/internal/types"
)

// ErrNotSignedIn is returned when a request has no valid session.
var ErrNotSignedIn = errors.New("not signed in")

// Session is a signed-in user.
type Session struct {
	ID        string
	PubKey    string
	CreatedAt time.Time
	signer    *nostr.KeySigner
}

// Signer returns the signer for the session's key.
func (s *Session) Signer() nostr.Signer {
	return s.signer
}

// SessionStore keeps sessions in a cache backend with sealed keys.
type SessionStore struct {
	backend cache.Backend
	sealer  *Sealer
	ttl     time.Duration
}

func NewSessionStore(backend cache.Backend, sealer *Sealer, ttl time.Duration) *SessionStore {
	return &SessionStore{backend: backend, sealer: sealer, ttl: ttl}
}

// TTL is how long a session lives.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

func sessionKey(id string) string { return "session:" + id }

// Create signs a user in with an nsec or hex secret key.
func (s *SessionStore) Create(ctx context.Context, secret string) (*Session, error) {
	skHex, err := nips.DecodeSecretKey(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", nostr.ErrInvalidKey, err)
	}
	signer, err := nostr.NewKeySigner(skHex)
	if err != nil {
		return nil, err
	}

	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	sealed, err := s.sealer.Seal([]byte(skHex), []byte(id))
	if err != nil {
		return nil, fmt.Errorf("seal key: %w", err)
	}

	now := time.Now()
	data, err := json.Marshal(types.CachedSession{
		ID:         id,
		UserPubKey: signer.PublicKey(),
		SealedKey:  sealed,
		CreatedAt:  now.Unix(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.backend.Set(ctx, sessionKey(id), data, s.ttl); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &Session{ID: id, PubKey: signer.PublicKey(), CreatedAt: now, signer: signer}, nil
}

// Get loads a session; unknown, expired or tampered sessions are ErrNotSignedIn.
func (s *SessionStore) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotSignedIn
	}
	data, found, err := s.backend.Get(ctx, sessionKey(id))
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return nil, ErrNotSignedIn
	}

	var cached types.CachedSession
	if err := json.Unmarshal(data, &cached); err != nil || cached.ID != id {
		return nil, ErrNotSignedIn
	}
	skHex, err := s.sealer.Open(cached.SealedKey, []byte(id))
	if err != nil {
		return nil, ErrNotSignedIn
	}
	signer, err := nostr.NewKeySigner(string(skHex))
	if err != nil || signer.PublicKey() != cached.UserPubKey {
		return nil, ErrNotSignedIn
	}
	return &Session{
		ID:        id,
		PubKey:    cached.UserPubKey,
		CreatedAt: time.Unix(cached.CreatedAt, 0),
		signer:    signer,
	}, nil
}

// Delete signs the session out.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.backend.Delete(ctx, sessionKey(id))
}

func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewAnonymousID returns a random id for binding CSRF tokens to visitors
// who are not signed in.
func NewAnonymousID() (string, error) {
	return newSessionID()
}
