// Package auth holds sessions, CSRF protection and rate limiting.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Keys are the per-purpose secrets derived from the server session secret.
type Keys struct {
	CSRF []byte
	Seal []byte
}

// DeriveKeys expands secret into independent CSRF and sealing keys. An empty
// secret yields random keys, so sessions do not survive a restart.
func DeriveKeys(secret string) (Keys, error) {
	master := []byte(secret)
	if len(master) == 0 {
		master = make([]byte, 32)
		if _, err := rand.Read(master); err != nil {
			return Keys{}, fmt.Errorf("generate session secret: %w", err)
		}
	}
	csrf, err := expand(master, "gleam csrf")
	if err != nil {
		return Keys{}, err
	}
	seal, err := expand(master, "gleam session seal")
	if err != nil {
		return Keys{}, err
	}
	return Keys{CSRF: csrf, Seal: seal}, nil
}

func expand(master []byte, info string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}
