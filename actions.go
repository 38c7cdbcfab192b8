package main

import (
	"net/http"

	"gleam/internal/client"
	"gleam/internal/nips"
	"gleam/internal/nostr"
)

// Publishing handlers. Every action is a form POST that redirects back to
// return_url with a flash message.

func (a *app) postNoteHandler(w http.ResponseWriter, r *http.Request) {
	session := a.requireAuth(w, r)
	if session == nil {
		return
	}
	back := returnURL(r)
	res, err := a.client.Post(r.Context(), session.Signer(), r.FormValue("content"))
	if err != nil {
		redirectWithError(w, r, back, sanitizeErrorForUser(r.Context(), "publish note", err))
		return
	}
	redirectWithSuccess(w, r, back, publishedMessage("Note published", res))
}

func (a *app) replyHandler(w http.ResponseWriter, r *http.Request) {
	session := a.requireAuth(w, r)
	if session == nil {
		return
	}
	back := returnURL(r)
	id := r.FormValue("event_id")
	if !nostr.IsHex64(id) {
		redirectWithError(w, r, back, "Invalid event ID")
		return
	}
	res, err := a.client.Reply(r.Context(), session.Signer(), id, r.FormValue("event_pubkey"), r.FormValue("content"))
	if err != nil {
		redirectWithError(w, r, back, sanitizeErrorForUser(r.Context(), "publish reply", err))
		return
	}
	redirectWithSuccess(w, r, back, publishedMessage("Reply published", res))
}

func (a *app) likeHandler(w http.ResponseWriter, r *http.Request) {
	session := a.requireAuth(w, r)
	if session == nil {
		return
	}
	back := returnURL(r)
	id := r.FormValue("event_id")
	if !nostr.IsHex64(id) {
		redirectWithError(w, r, back, "Invalid event ID")
		return
	}
	res, err := a.client.Like(r.Context(), session.Signer(), id, r.FormValue("event_pubkey"))
	if err != nil {
		redirectWithError(w, r, back, sanitizeErrorForUser(r.Context(), "publish like", err))
		return
	}
	redirectWithSuccess(w, r, back, publishedMessage("Liked", res))
}

func (a *app) repostHandler(w http.ResponseWriter, r *http.Request) {
	session := a.requireAuth(w, r)
	if session == nil {
		return
	}
	back := returnURL(r)
	id := r.FormValue("event_id")
	if !nostr.IsHex64(id) {
		redirectWithError(w, r, back, "Invalid event ID")
		return
	}
	res, err := a.client.Repost(r.Context(), session.Signer(), id, r.FormValue("event_pubkey"))
	if err != nil {
		redirectWithError(w, r, back, sanitizeErrorForUser(r.Context(), "publish repost", err))
		return
	}
	redirectWithSuccess(w, r, back, publishedMessage("Reposted", res))
}

func (a *app) followHandler(w http.ResponseWriter, r *http.Request) {
	a.contactAction(w, r, true)
}

func (a *app) unfollowHandler(w http.ResponseWriter, r *http.Request) {
	a.contactAction(w, r, false)
}

func (a *app) contactAction(w http.ResponseWriter, r *http.Request, follow bool) {
	session := a.requireAuth(w, r)
	if session == nil {
		return
	}
	back := returnURL(r)
	target, err := nips.DecodePubkey(r.FormValue("pubkey"))
	if err != nil {
		redirectWithError(w, r, back, "Invalid public key")
		return
	}
	if target == session.PubKey {
		redirectWithError(w, r, back, "You cannot follow yourself")
		return
	}

	var res *client.PublishResult
	if follow {
		res, err = a.client.Follow(r.Context(), session.Signer(), target)
	} else {
		res, err = a.client.Unfollow(r.Context(), session.Signer(), target)
	}
	if err != nil {
		redirectWithError(w, r, back, sanitizeErrorForUser(r.Context(), "update contacts", err))
		return
	}
	msg := "Unfollowed"
	if follow {
		msg = "Followed"
	}
	redirectWithSuccess(w, r, back, publishedMessage(msg, res))
}

// publishedMessage notes partial relay failures in the success message.
func publishedMessage(msg string, res *client.PublishResult) string {
	if res != nil && res.Failed != nil && len(res.Accepted) > 0 {
		return msg + " (some relays did not accept it)"
	}
	return msg
}
