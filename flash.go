package main

import (
	"net/http"
	"net/url"
)

// Flash message cookie names
const (
	flashSuccessCookie = "flash_success"
	flashErrorCookie   = "flash_error"
	flashMaxAge        = 60 // plenty of time for the redirect
)

// FlashMessages holds success and error messages read from cookies
type FlashMessages struct {
	Success string
	Error   string
}

func setFlashSuccess(w http.ResponseWriter, r *http.Request, message string) {
	SetLaxCookie(w, r, flashSuccessCookie, url.QueryEscape(message), flashMaxAge)
}

func setFlashError(w http.ResponseWriter, r *http.Request, message string) {
	SetLaxCookie(w, r, flashErrorCookie, url.QueryEscape(message), flashMaxAge)
}

// getFlashMessages reads and clears flash message cookies.
// Call this once per request, before the response is written.
func getFlashMessages(w http.ResponseWriter, r *http.Request) FlashMessages {
	var messages FlashMessages
	if cookie, err := r.Cookie(flashSuccessCookie); err == nil {
		if decoded, err := url.QueryUnescape(cookie.Value); err == nil {
			messages.Success = decoded
		}
		SetLaxCookie(w, r, flashSuccessCookie, "", -1)
	}
	if cookie, err := r.Cookie(flashErrorCookie); err == nil {
		if decoded, err := url.QueryUnescape(cookie.Value); err == nil {
			messages.Error = decoded
		}
		SetLaxCookie(w, r, flashErrorCookie, "", -1)
	}
	return messages
}

// redirectWithSuccess redirects to a URL and sets a success flash message
func redirectWithSuccess(w http.ResponseWriter, r *http.Request, url string, message string) {
	setFlashSuccess(w, r, message)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// redirectWithError redirects to a URL and sets an error flash message
func redirectWithError(w http.ResponseWriter, r *http.Request, url string, message string) {
	setFlashError(w, r, message)
	http.Redirect(w, r, url, http.StatusSeeOther)
}
