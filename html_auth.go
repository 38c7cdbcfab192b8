package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gleam/internal/auth"
	"gleam/internal/nostr"
)

const (
	sessionCookieName = "gleam_session"

	// anonSessionCookieName binds CSRF tokens on the login form to a visitor.
	anonSessionCookieName = "gleam_anon"
	anonSessionMaxAge     = 600
)

type sessionContextKey struct{}
type anonContextKey struct{}

// sessionMiddleware attaches the signed-in session, if any, to the request context.
func (a *app) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
			session, err := a.sessions.Get(ctx, cookie.Value)
			switch {
			case err == nil:
				ctx = context.WithValue(ctx, sessionContextKey{}, session)
			case errors.Is(err, auth.ErrNotSignedIn):
				DeleteCookie(w, r, sessionCookieName)
			default:
				LoggerFromContext(ctx).Warn("session lookup failed", "error", err)
			}
		}
		if cookie, err := r.Cookie(anonSessionCookieName); err == nil && cookie.Value != "" {
			ctx = context.WithValue(ctx, anonContextKey{}, cookie.Value)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFromRequest returns the signed-in session or nil.
func sessionFromRequest(r *http.Request) *auth.Session {
	session, _ := r.Context().Value(sessionContextKey{}).(*auth.Session)
	return session
}

// viewerPubkey is the signed-in pubkey or "".
func viewerPubkey(r *http.Request) string {
	if s := sessionFromRequest(r); s != nil {
		return s.PubKey
	}
	return ""
}

// csrfSubject is the id CSRF tokens are bound to: the session when signed
// in, otherwise an anonymous id kept in a short-lived cookie.
func csrfSubject(w http.ResponseWriter, r *http.Request) string {
	if s := sessionFromRequest(r); s != nil {
		return s.ID
	}
	if id, ok := r.Context().Value(anonContextKey{}).(string); ok {
		return id
	}
	id, err := auth.NewAnonymousID()
	if err != nil {
		LoggerFromContext(r.Context()).Error("failed to create anonymous id", "error", err)
		return ""
	}
	SetSessionCookie(w, r, anonSessionCookieName, id, anonSessionMaxAge)
	return id
}

func (a *app) csrfToken(w http.ResponseWriter, r *http.Request) string {
	subject := csrfSubject(w, r)
	if subject == "" {
		return ""
	}
	return a.csrf.GenerateToken(subject)
}

// validCSRF checks the form token against the request's session or anonymous id.
func (a *app) validCSRF(r *http.Request) bool {
	token := r.FormValue("csrf_token")
	if s := sessionFromRequest(r); s != nil {
		return a.csrf.ValidateToken(s.ID, token)
	}
	if id, ok := r.Context().Value(anonContextKey{}).(string); ok {
		return a.csrf.ValidateToken(id, token)
	}
	return false
}

// requireAuth returns the session for a form POST, or writes the redirect
// or error and returns nil. CSRF and the publish rate limit are checked here.
func (a *app) requireAuth(w http.ResponseWriter, r *http.Request) *auth.Session {
	session := sessionFromRequest(r)
	if session == nil {
		redirectWithError(w, r, "/login", "Please sign in first")
		return nil
	}
	if !a.validCSRF(r) {
		http.Error(w, "Invalid or expired form, please reload the page", http.StatusForbidden)
		return nil
	}
	if !a.publish.Allow(session.ID) {
		redirectWithError(w, r, returnURL(r), "Rate limit exceeded, please try again later")
		return nil
	}
	return session
}

func (a *app) loginPageHandler(w http.ResponseWriter, r *http.Request) {
	if sessionFromRequest(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	data := loginPage{
		pageData:  a.newPageData(w, r, "Sign in", ""),
		ReturnURL: sanitizeReturnURL(r.URL.Query().Get("return_url")),
	}
	a.render(w, r, cachedLoginTemplate, http.StatusOK, data)
}

func (a *app) loginSubmitHandler(w http.ResponseWriter, r *http.Request) {
	logger := LoggerFromContext(r.Context())
	if !a.login.Allow(getClientIP(r)) {
		redirectWithError(w, r, "/login", "Too many sign-in attempts, please wait a minute")
		return
	}
	if !a.validCSRF(r) {
		redirectWithError(w, r, "/login", "Your sign-in form expired, please try again")
		return
	}

	secret := strings.TrimSpace(r.FormValue("secret"))
	session, err := a.sessions.Create(r.Context(), secret)
	if err != nil {
		if errors.Is(err, nostr.ErrInvalidKey) {
			redirectWithError(w, r, "/login", "That does not look like a valid secret key")
			return
		}
		redirectWithError(w, r, "/login", sanitizeErrorForUser(r.Context(), "create session", err))
		return
	}

	SetSessionCookie(w, r, sessionCookieName, session.ID, int(a.sessions.TTL().Seconds()))
	DeleteCookie(w, r, anonSessionCookieName)
	logger.Info("user signed in", "pubkey", nostr.ShortID(session.PubKey))

	// Warm the caches the first page will need.
	go a.client.Prefetch(context.WithoutCancel(r.Context()), session.PubKey)

	redirectWithSuccess(w, r, sanitizeReturnURL(r.FormValue("return_url")), "Signed in")
}

func (a *app) logoutHandler(w http.ResponseWriter, r *http.Request) {
	session := sessionFromRequest(r)
	if session == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if !a.validCSRF(r) {
		http.Error(w, "Invalid or expired form, please reload the page", http.StatusForbidden)
		return
	}
	if err := a.sessions.Delete(r.Context(), session.ID); err != nil {
		LoggerFromContext(r.Context()).Warn("session delete failed", "error", err)
	}
	DeleteCookie(w, r, sessionCookieName)
	redirectWithSuccess(w, r, "/", "Signed out")
}
