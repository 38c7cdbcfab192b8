package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gleam/internal/auth"
	"gleam/internal/client"
)

// trustedProxyCount is how many proxies in X-Forwarded-For we control,
// set from server.trusted_proxy_count.
var trustedProxyCount = 0

// getClientIP extracts the client IP, trusting X-Forwarded-For only as far
// as trustedProxyCount allows.
func getClientIP(r *http.Request) string {
	if trustedProxyCount == 0 {
		return parseRemoteAddr(r.RemoteAddr)
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		idx := len(ips) - trustedProxyCount
		if idx < 0 {
			idx = 0
		}
		return strings.TrimSpace(ips[idx])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return parseRemoteAddr(r.RemoteAddr)
}

// parseRemoteAddr extracts the IP from RemoteAddr (which includes port)
func parseRemoteAddr(remoteAddr string) string {
	if idx := strings.LastIndex(remoteAddr, ":"); idx != -1 {
		remoteAddr = remoteAddr[:idx]
	}
	remoteAddr = strings.TrimPrefix(remoteAddr, "[")
	remoteAddr = strings.TrimSuffix(remoteAddr, "]")
	return remoteAddr
}

// sanitizeErrorForUser returns a user-safe error message, logging the full error
func sanitizeErrorForUser(ctx context.Context, op string, err error) string {
	LoggerFromContext(ctx).Error(op, "error", err)
	switch {
	case errors.Is(err, client.ErrNotFound):
		return "Post not found"
	case errors.Is(err, client.ErrEmptyContent):
		return "You cannot post an empty note!"
	case errors.Is(err, auth.ErrNotSignedIn), errors.Is(err, client.ErrNotSignedIn):
		return "Please sign in first"
	case errors.Is(err, client.ErrIncomplete):
		return "Relays did not answer in time, nothing was changed. Please try again"
	case errors.Is(err, context.DeadlineExceeded):
		return "Connection timed out"
	}
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "timeout"):
		return "Connection timed out"
	case strings.Contains(errStr, "connection refused"):
		return "Could not connect to relay"
	case strings.Contains(errStr, "rate limit"):
		return "Rate limit exceeded, please try again later"
	case strings.Contains(errStr, "invalid"):
		return "Invalid input format"
	default:
		return "Operation failed"
	}
}

// sanitizeReturnURL ensures the return URL is a local path to prevent open redirects
func sanitizeReturnURL(returnURL string) string {
	if returnURL == "" {
		return "/"
	}
	// Must start with / and not // or /\ (protocol-relative)
	if !strings.HasPrefix(returnURL, "/") || strings.HasPrefix(returnURL, "//") || strings.HasPrefix(returnURL, "/\\") {
		return "/"
	}
	if u, err := url.Parse(returnURL); err != nil || u.Host != "" || u.Scheme != "" {
		return "/"
	}
	return returnURL
}

// returnURL reads the sanitized return_url form field.
func returnURL(r *http.Request) string {
	return sanitizeReturnURL(r.FormValue("return_url"))
}

// parseUntil reads the until cursor; invalid values start from the top.
func parseUntil(r *http.Request) *int64 {
	v := r.URL.Query().Get("until")
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

// nextPageURL keeps the current query and replaces until.
func nextPageURL(r *http.Request, cursor *int64) string {
	if cursor == nil {
		return ""
	}
	q := r.URL.Query()
	q.Set("until", strconv.FormatInt(*cursor, 10))
	return r.URL.Path + "?" + q.Encode()
}

// isSafeLink accepts absolute http(s) URLs only.
func isSafeLink(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
