package relay

import (
	"net"
	"net/url"
	"strings"
)

// IsURLSafe validates that a relay URL is safe to connect to.
// Loopback is allowed for development; other private ranges are blocked.
func IsURLSafe(relayURL string) bool {
	parsed, err := url.Parse(relayURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return false
	}

	host := parsed.Hostname()
	if host == "" {
		return false
	}
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return isIPSafe(ip)
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		// Unresolvable names are let through unless they look internal
		return !strings.HasSuffix(host, ".") &&
			!strings.HasSuffix(host, ".local") &&
			!strings.HasSuffix(host, ".internal")
	}
	for _, ip := range ips {
		if !isIPSafe(ip) {
			return false
		}
	}
	return true
}

func isIPSafe(ip net.IP) bool {
	switch {
	case ip == nil:
		return false
	case ip.IsLoopback():
		return true
	case ip.IsPrivate(),
		ip.IsLinkLocalUnicast(),
		ip.IsLinkLocalMulticast(),
		ip.IsUnspecified(),
		ip.IsMulticast():
		return false
	}
	return true
}

// NormalizeURL lowercases scheme and host and drops a trailing slash.
// Returns "" for anything that is not a ws/wss URL.
func NormalizeURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (parsed.Scheme != "ws" && parsed.Scheme != "wss") || parsed.Host == "" {
		return ""
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	return parsed.String()
}

// MergeRelays appends hints to base, normalized and deduplicated, keeping order.
func MergeRelays(base []string, hints ...string) []string {
	seen := make(map[string]bool, len(base)+len(hints))
	out := make([]string, 0, len(base)+len(hints))
	for _, r := range append(append([]string{}, base...), hints...) {
		n := NormalizeURL(r)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
