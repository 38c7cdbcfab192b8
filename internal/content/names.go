package content

import (
	"encoding/hex"

	"gleam/internal/types"
)

var (
	nameAdjectives = []string{
		"Amber", "Brave", "Calm", "Daring", "Eager", "Fuzzy", "Gentle", "Hidden",
		"Icy", "Jolly", "Keen", "Lucky", "Misty", "Noble", "Olive", "Quiet",
	}
	nameNouns = []string{
		"Badger", "Comet", "Falcon", "Fox", "Heron", "Koala", "Lynx", "Maple",
		"Otter", "Panda", "Quokka", "Raven", "Sparrow", "Tiger", "Walrus", "Yak",
	}
)

// GenUserName derives a stable placeholder name from a pubkey.
func GenUserName(pubkey string) string {
	b, err := hex.DecodeString(pubkey)
	if err != nil || len(b) < 2 {
		return "Anonymous"
	}
	return nameAdjectives[int(b[0])%len(nameAdjectives)] + " " + nameNouns[int(b[1])%len(nameNouns)]
}

// DisplayName is display_name, then name, then a generated name.
func DisplayName(p *types.ProfileInfo, pubkey string) string {
	if p != nil {
		if p.DisplayName != "" {
			return p.DisplayName
		}
		if p.Name != "" {
			return p.Name
		}
	}
	return GenUserName(pubkey)
}

// Username is name, then a generated name.
func Username(p *types.ProfileInfo, pubkey string) string {
	if p != nil && p.Name != "" {
		return p.Name
	}
	return GenUserName(pubkey)
}
