package main

import (
	"net/http"
	"strings"
)

// secureCookies forces the Secure flag, set from server.secure_cookies.
var secureCookies bool

// shouldSecureCookie reports whether cookies for this request need the Secure flag.
func shouldSecureCookie(r *http.Request) bool {
	if secureCookies || r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// SetCookie sets an HTTP-only cookie with standard security defaults.
// maxAge is in seconds; -1 deletes the cookie.
func SetCookie(w http.ResponseWriter, r *http.Request, name, value, path string, maxAge int, sameSite http.SameSite) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   shouldSecureCookie(r),
		SameSite: sameSite,
	})
}

// SetSessionCookie sets a session cookie with SameSite=Strict on "/".
func SetSessionCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	SetCookie(w, r, name, value, "/", maxAge, http.SameSiteStrictMode)
}

// SetLaxCookie allows cross-site top-level navigation. Used for flash messages.
func SetLaxCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	SetCookie(w, r, name, value, "/", maxAge, http.SameSiteLaxMode)
}

// DeleteCookie deletes a cookie by setting MaxAge to -1.
func DeleteCookie(w http.ResponseWriter, r *http.Request, name string) {
	SetCookie(w, r, name, "", "/", -1, http.SameSiteStrictMode)
}
