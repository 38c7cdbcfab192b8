package main

import (
	"encoding/base64"
	"errors"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"
	"golang.org/x/sync/errgroup"

	"gleam/internal/client"
	"gleam/internal/content"
	"gleam/internal/nips"
	"gleam/internal/types"
)

func (a *app) homeHandler(w http.ResponseWriter, r *http.Request) {
	session := sessionFromRequest(r)
	opts := client.FeedOptions{Until: parseUntil(r), Viewer: viewerPubkey(r)}

	if session != nil && r.URL.Query().Get("feed") == "following" {
		page, err := a.client.Following(r.Context(), session.PubKey, opts)
		a.renderFeed(w, r, "Following", "following", page, err, feedPage{
			ShowPostForm: true,
			Empty:        "Nothing here yet. Follow some people to fill this feed.",
		})
		return
	}
	page, err := a.client.Global(r.Context(), opts)
	a.renderFeed(w, r, "Global", "global", page, err, feedPage{ShowPostForm: session != nil})
}

func (a *app) exploreHandler(w http.ResponseWriter, r *http.Request) {
	page, err := a.client.Explore(r.Context(), client.FeedOptions{Until: parseUntil(r), Viewer: viewerPubkey(r)})
	a.renderFeed(w, r, "Explore", "explore", page, err, feedPage{})
}

func (a *app) videosHandler(w http.ResponseWriter, r *http.Request) {
	page, err := a.client.Videos(r.Context(), client.FeedOptions{Until: parseUntil(r), Viewer: viewerPubkey(r)})
	a.renderFeed(w, r, "Videos", "videos", page, err, feedPage{Empty: "No videos found."})
}

func (a *app) hashtagHandler(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tag"]
	page, err := a.client.Hashtag(r.Context(), tag, client.FeedOptions{Until: parseUntil(r), Viewer: viewerPubkey(r)})
	a.renderFeed(w, r, "#"+tag, "", page, err, feedPage{Heading: "#" + tag})
}

// renderFeed renders a feed page; base carries the page-specific fields.
func (a *app) renderFeed(w http.ResponseWriter, r *http.Request, title, active string, page *client.Page, err error, base feedPage) {
	if err != nil {
		a.renderError(w, r, http.StatusBadGateway, "Could not load feed", sanitizeErrorForUser(r.Context(), "load feed", err))
		return
	}
	base.pageData = a.newPageData(w, r, title, active)
	base.Notes = buildNoteViews(page.Items, page.Profiles, base.pageData)
	base.NextURL = nextPageURL(r, page.NextCursor)
	a.render(w, r, cachedFeedTemplate, http.StatusOK, base)
}

func (a *app) postHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	view, err := a.client.Thread(r.Context(), id, parseUntil(r), viewerPubkey(r))
	if errors.Is(err, client.ErrNotFound) {
		a.renderError(w, r, http.StatusNotFound, "Post not found", "No relay had this post. It may have been deleted.")
		return
	}
	if err != nil {
		a.renderError(w, r, http.StatusBadGateway, "Could not load post", sanitizeErrorForUser(r.Context(), "load thread", err))
		return
	}

	pd := a.newPageData(w, r, "Post", "")
	data := threadPage{
		pageData: pd,
		Target:   buildNoteView(&view.Target, view.Profiles, pd),
		RootID:   view.RootID,
		Replies:  buildNoteViews(view.Replies, view.Profiles, pd),
		NextURL:  nextPageURL(r, view.NextCursor),
	}
	if view.Root != nil {
		root := buildNoteView(view.Root, view.Profiles, pd)
		data.Root = &root
	}
	if view.Target.Event.Content != "" {
		data.Description = truncate(view.Target.Event.Content, 160)
	}
	a.render(w, r, cachedThreadTemplate, http.StatusOK, data)
}

func (a *app) ownProfileHandler(w http.ResponseWriter, r *http.Request) {
	session := sessionFromRequest(r)
	if session == nil {
		http.Redirect(w, r, "/login?return_url=/profile", http.StatusSeeOther)
		return
	}
	a.showProfile(w, r, session.PubKey)
}

func (a *app) profileHandler(w http.ResponseWriter, r *http.Request) {
	pubkey, err := nips.DecodePubkey(mux.Vars(r)["identifier"])
	if err != nil {
		a.notFoundHandler(w, r)
		return
	}
	a.showProfile(w, r, pubkey)
}

func (a *app) showProfile(w http.ResponseWriter, r *http.Request, pubkey string) {
	ctx := r.Context()
	viewer := viewerPubkey(r)

	var (
		profile     *types.ProfileInfo
		stats       types.UserStats
		page        *client.Page
		isFollowing bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = a.client.Profile(gctx, pubkey)
		return err
	})
	g.Go(func() error {
		stats = a.client.Stats(gctx, pubkey)
		return nil
	})
	g.Go(func() error {
		var err error
		page, err = a.client.UserPosts(gctx, pubkey, client.FeedOptions{Until: parseUntil(r), Viewer: viewer})
		return err
	})
	if viewer != "" && viewer != pubkey {
		g.Go(func() error {
			following, err := a.client.IsFollowing(gctx, viewer, pubkey)
			if err != nil {
				LoggerFromContext(ctx).Debug("follow state lookup failed", "error", err)
			}
			isFollowing = following
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.renderError(w, r, http.StatusBadGateway, "Could not load profile", sanitizeErrorForUser(ctx, "load profile", err))
		return
	}

	pd := a.newPageData(w, r, content.DisplayName(profile, pubkey), "")
	pv := profileView{
		Pubkey:   pubkey,
		Npub:     npub(pubkey),
		Name:     content.DisplayName(profile, pubkey),
		Username: content.Username(profile, pubkey),
	}
	if profile != nil {
		pv.ProfileInfo = *profile
		if !isSafeLink(pv.Website) {
			pv.Website = ""
		}
	}
	if pv.About != "" {
		pd.Description = truncate(pv.About, 160)
	}
	data := profilePage{
		pageData:    pd,
		Profile:     pv,
		Stats:       stats,
		IsSelf:      viewer == pubkey,
		IsFollowing: isFollowing,
		QRCode:      qrCodeDataURL(r, "nostr:"+pv.Npub),
		Notes:       buildNoteViews(page.Items, page.Profiles, pd),
		NextURL:     nextPageURL(r, page.NextCursor),
	}
	a.render(w, r, cachedProfileTemplate, http.StatusOK, data)
}

// qrCodeDataURL renders content as an inline PNG.
func qrCodeDataURL(r *http.Request, content string) template.URL {
	png, err := qrcode.Encode(content, qrcode.Medium, 256)
	if err != nil {
		LoggerFromContext(r.Context()).Error("failed to generate QR code", "error", err)
		return ""
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}

// nip19Handler routes bare NIP-19 identifiers to the page they name.
func (a *app) nip19Handler(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["nip19"]
	if !nips.LooksLikeIdentifier(identifier) {
		a.notFoundHandler(w, r)
		return
	}
	ptr, err := nips.Decode(identifier)
	if err != nil {
		a.notFoundHandler(w, r)
		return
	}

	switch {
	case ptr.IsProfile():
		http.Redirect(w, r, "/profile/"+identifier, http.StatusFound)
	case ptr.IsEvent():
		http.Redirect(w, r, "/post/"+ptr.EventID, http.StatusFound)
	case ptr.Type == nips.PrefixNAddr:
		a.addressHandler(w, r, ptr)
	default:
		a.notFoundHandler(w, r)
	}
}

// addressHandler shows an addressable event: articles get the article
// view, anything else goes to the post page of its newest version.
func (a *app) addressHandler(w http.ResponseWriter, r *http.Request, ptr *nips.Pointer) {
	evt, err := a.client.Resolve(r.Context(), ptr)
	if errors.Is(err, client.ErrNotFound) {
		a.renderError(w, r, http.StatusNotFound, "Post not found", "No relay had this post. It may have been deleted.")
		return
	}
	if err != nil {
		a.renderError(w, r, http.StatusBadGateway, "Could not load post", sanitizeErrorForUser(r.Context(), "resolve address", err))
		return
	}
	if evt.Kind != types.KindLongForm {
		http.Redirect(w, r, "/post/"+evt.ID, http.StatusFound)
		return
	}

	page, err := a.client.Enrich(r.Context(), []types.Event{*evt}, viewerPubkey(r))
	if err != nil || len(page.Items) == 0 || page.Items[0].Article == nil {
		a.renderError(w, r, http.StatusBadGateway, "Could not load article", "The article could not be rendered.")
		return
	}
	item := page.Items[0]
	pd := a.newPageData(w, r, item.Article.Title, "")
	pd.Description = item.Article.Summary
	data := articlePage{
		pageData: pd,
		Note:     buildNoteView(&item, page.Profiles, pd),
		Article:  item.Article,
	}
	a.render(w, r, cachedArticleTemplate, http.StatusOK, data)
}

// quoteHandler renders the quote card fragment for an identifier.
func (a *app) quoteHandler(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]
	data := quoteFragment{Identifier: identifier}

	page, err := a.client.Quote(r.Context(), identifier, viewerPubkey(r))
	switch {
	case err == nil && len(page.Items) > 0:
		pd := pageData{Viewer: nil, CurrentURL: r.URL.RequestURI()}
		note := buildNoteView(&page.Items[0], page.Profiles, pd)
		data.Note = &note
	case err != nil && !errors.Is(err, client.ErrNotFound):
		LoggerFromContext(r.Context()).Debug("quote resolve failed", "identifier", identifier, "error", err)
	}
	a.renderNamed(w, r, cachedQuoteTemplate, "quote", http.StatusOK, data)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
