package nips

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Entity prefixes
const (
	PrefixNpub     = "npub"
	PrefixNsec     = "nsec"
	PrefixNote     = "note"
	PrefixNProfile = "nprofile"
	PrefixNEvent   = "nevent"
	PrefixNAddr    = "naddr"
)

// TLV type constants for NIP-19
const (
	tlvTypeSpecial = 0 // event id for nevent, pubkey for nprofile, d-tag for naddr
	tlvTypeRelay   = 1
	tlvTypeAuthor  = 2
	tlvTypeKind    = 3
)

// ErrUnknownPrefix is returned for bech32 strings that are not NIP-19 entities.
var ErrUnknownPrefix = errors.New("unknown nip19 prefix")

// Pointer is a decoded NIP-19 entity. Which fields are set depends on Type.
type Pointer struct {
	Type       string   // one of the Prefix* constants
	PubKey     string   // npub, nprofile, and naddr author
	SecretKey  string   // nsec only
	EventID    string   // note, nevent
	Author     string   // optional nevent author
	Kind       int      // naddr kind, optional nevent kind
	Identifier string   // naddr d-tag
	RelayHints []string // nprofile, nevent, naddr
}

// IsProfile reports whether the pointer names a user.
func (p *Pointer) IsProfile() bool {
	return p.Type == PrefixNpub || p.Type == PrefixNProfile
}

// IsEvent reports whether the pointer names a single event by id.
func (p *Pointer) IsEvent() bool {
	return p.Type == PrefixNote || p.Type == PrefixNEvent
}

// LooksLikeIdentifier is a cheap prefix check used by routing before a full decode.
func LooksLikeIdentifier(s string) bool {
	s = strings.TrimPrefix(strings.ToLower(s), "nostr:")
	for _, p := range []string{PrefixNpub, PrefixNote, PrefixNProfile, PrefixNEvent, PrefixNAddr} {
		if strings.HasPrefix(s, p+"1") {
			return true
		}
	}
	return false
}

// Decode decodes any NIP-19 entity. A leading "nostr:" is accepted.
func Decode(s string) (*Pointer, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "nostr:")
	hrp, payload, err := decodeBytes(s)
	if err != nil {
		return nil, fmt.Errorf("bech32: %w", err)
	}

	switch hrp {
	case PrefixNpub, PrefixNsec, PrefixNote:
		if len(payload) != 32 {
			return nil, fmt.Errorf("invalid %s length %d", hrp, len(payload))
		}
		p := &Pointer{Type: hrp}
		value := hex.EncodeToString(payload)
		switch hrp {
		case PrefixNpub:
			p.PubKey = value
		case PrefixNsec:
			p.SecretKey = value
		case PrefixNote:
			p.EventID = value
		}
		return p, nil
	case PrefixNProfile:
		return decodeNProfileTLV(payload)
	case PrefixNEvent:
		return decodeNEventTLV(payload)
	case PrefixNAddr:
		return decodeNAddrTLV(payload)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPrefix, hrp)
}

// DecodePubkey accepts an npub, an nprofile or a 64-char hex key and returns hex.
func DecodePubkey(s string) (string, error) {
	s = strings.TrimSpace(s)
	if isHex32(s) {
		return strings.ToLower(s), nil
	}
	p, err := Decode(s)
	if err != nil {
		return "", err
	}
	if !p.IsProfile() {
		return "", fmt.Errorf("expected npub or nprofile, got %s", p.Type)
	}
	return p.PubKey, nil
}

// DecodeSecretKey accepts an nsec or a 64-char hex key and returns hex.
func DecodeSecretKey(s string) (string, error) {
	s = strings.TrimSpace(s)
	if isHex32(s) {
		return strings.ToLower(s), nil
	}
	p, err := Decode(s)
	if err != nil {
		return "", err
	}
	if p.Type != PrefixNsec {
		return "", fmt.Errorf("expected nsec, got %s", p.Type)
	}
	return p.SecretKey, nil
}

// EncodePubkey encodes a hex pubkey to npub format
func EncodePubkey(hexPubkey string) (string, error) {
	return encodeHex32(PrefixNpub, hexPubkey)
}

// EncodeSecretKey encodes a hex secret key to nsec format
func EncodeSecretKey(hexKey string) (string, error) {
	return encodeHex32(PrefixNsec, hexKey)
}

// EncodeEventID encodes a hex event ID to note format
func EncodeEventID(hexEventID string) (string, error) {
	return encodeHex32(PrefixNote, hexEventID)
}

// EncodeNProfile encodes a pubkey with optional relay hints.
func EncodeNProfile(pubkeyHex string, relays []string) (string, error) {
	pk, err := hex32Bytes(pubkeyHex)
	if err != nil {
		return "", err
	}
	tlv := appendTLV(nil, tlvTypeSpecial, pk)
	tlv = appendRelays(tlv, relays)
	return encodeBytes(PrefixNProfile, tlv)
}

// EncodeNEvent encodes an event id with optional author and relay hints.
func EncodeNEvent(eventIDHex, authorHex string, relays []string) (string, error) {
	id, err := hex32Bytes(eventIDHex)
	if err != nil {
		return "", err
	}
	tlv := appendTLV(nil, tlvTypeSpecial, id)
	tlv = appendRelays(tlv, relays)
	if authorHex != "" {
		author, err := hex32Bytes(authorHex)
		if err != nil {
			return "", err
		}
		tlv = appendTLV(tlv, tlvTypeAuthor, author)
	}
	return encodeBytes(PrefixNEvent, tlv)
}

// EncodeNAddr encodes an naddr from kind, pubkey (hex), and d-tag
func EncodeNAddr(kind int, pubkeyHex, dTag string, relays []string) (string, error) {
	pk, err := hex32Bytes(pubkeyHex)
	if err != nil {
		return "", err
	}
	if len(dTag) > 255 {
		return "", errors.New("d-tag too long")
	}
	kindBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(kindBytes, uint32(kind))

	tlv := appendTLV(nil, tlvTypeSpecial, []byte(dTag))
	tlv = appendRelays(tlv, relays)
	tlv = appendTLV(tlv, tlvTypeAuthor, pk)
	tlv = appendTLV(tlv, tlvTypeKind, kindBytes)
	return encodeBytes(PrefixNAddr, tlv)
}

func encodeHex32(hrp, hexValue string) (string, error) {
	b, err := hex32Bytes(hexValue)
	if err != nil {
		return "", err
	}
	return encodeBytes(hrp, b)
}

func hex32Bytes(hexValue string) ([]byte, error) {
	b, err := hex.DecodeString(hexValue)
	if err != nil {
		return nil, err
	}
	if len(b) != 32 {
		return nil, errors.New("invalid key length")
	}
	return b, nil
}

func isHex32(s string) bool {
	if len(s) != 64 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func appendTLV(dst []byte, typ byte, value []byte) []byte {
	dst = append(dst, typ, byte(len(value)))
	return append(dst, value...)
}

func appendRelays(dst []byte, relays []string) []byte {
	for _, r := range relays {
		if r == "" || len(r) > 255 {
			continue
		}
		dst = appendTLV(dst, tlvTypeRelay, []byte(r))
	}
	return dst
}

// walkTLV calls fn for each well-formed entry; a truncated tail is ignored.
func walkTLV(data []byte, fn func(typ byte, value []byte)) {
	for i := 0; i+2 <= len(data); {
		typ := data[i]
		l := int(data[i+1])
		i += 2
		if i+l > len(data) {
			return
		}
		fn(typ, data[i:i+l])
		i += l
	}
}

func decodeNProfileTLV(data []byte) (*Pointer, error) {
	p := &Pointer{Type: PrefixNProfile}
	walkTLV(data, func(typ byte, value []byte) {
		switch typ {
		case tlvTypeSpecial:
			if len(value) == 32 {
				p.PubKey = hex.EncodeToString(value)
			}
		case tlvTypeRelay:
			p.RelayHints = append(p.RelayHints, string(value))
		}
	})
	if p.PubKey == "" {
		return nil, errors.New("nprofile missing pubkey")
	}
	return p, nil
}

func decodeNEventTLV(data []byte) (*Pointer, error) {
	p := &Pointer{Type: PrefixNEvent}
	walkTLV(data, func(typ byte, value []byte) {
		switch typ {
		case tlvTypeSpecial:
			if len(value) == 32 {
				p.EventID = hex.EncodeToString(value)
			}
		case tlvTypeRelay:
			p.RelayHints = append(p.RelayHints, string(value))
		case tlvTypeAuthor:
			if len(value) == 32 {
				p.Author = hex.EncodeToString(value)
			}
		case tlvTypeKind:
			if len(value) == 4 {
				p.Kind = int(binary.BigEndian.Uint32(value))
			}
		}
	})
	if p.EventID == "" {
		return nil, errors.New("nevent missing event ID")
	}
	return p, nil
}

func decodeNAddrTLV(data []byte) (*Pointer, error) {
	p := &Pointer{Type: PrefixNAddr}
	hasKind := false
	walkTLV(data, func(typ byte, value []byte) {
		switch typ {
		case tlvTypeSpecial:
			p.Identifier = string(value)
		case tlvTypeRelay:
			p.RelayHints = append(p.RelayHints, string(value))
		case tlvTypeAuthor:
			if len(value) == 32 {
				p.PubKey = hex.EncodeToString(value)
			}
		case tlvTypeKind:
			if len(value) == 4 {
				p.Kind = int(binary.BigEndian.Uint32(value))
				hasKind = true
			}
		}
	})
	if !hasKind || p.PubKey == "" {
		return nil, errors.New("naddr missing required fields")
	}
	return p, nil
}
