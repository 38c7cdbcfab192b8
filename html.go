package main

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"gleam/internal/client"
	"gleam/internal/content"
	"gleam/internal/nips"
	"gleam/internal/types"
	"gleam/templates"
)

var (
	cachedFeedTemplate    *template.Template
	cachedThreadTemplate  *template.Template
	cachedArticleTemplate *template.Template
	cachedProfileTemplate *template.Template
	cachedLoginTemplate   *template.Template
	cachedErrorTemplate   *template.Template
	cachedQuoteTemplate   *template.Template
)

var funcMap = template.FuncMap{
	"formatCount": func(n int) string { return humanize.Comma(int64(n)) },
	"duration": func(seconds int) string {
		return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
	},
}

// initTemplates compiles every page once at startup.
func initTemplates() {
	page := func(name, body string) *template.Template {
		tmpl, err := template.New(name).Funcs(funcMap).Parse(templates.GetBaseTemplates() + templates.GetNoteTemplates() + body)
		if err != nil {
			slog.Error("failed to compile template", "template", name, "error", err)
			os.Exit(1)
		}
		return tmpl
	}
	cachedFeedTemplate = page("feed", templates.FeedTemplate)
	cachedThreadTemplate = page("thread", templates.ThreadTemplate)
	cachedArticleTemplate = page("article", templates.ArticleTemplate)
	cachedProfileTemplate = page("profile", templates.ProfileTemplate)
	cachedLoginTemplate = page("login", templates.LoginTemplate)
	cachedErrorTemplate = page("error", templates.ErrorTemplate)
	cachedQuoteTemplate = page("quote", templates.QuoteTemplate)
	slog.Debug("templates compiled")
}

// pageData is shared by every full page.
type pageData struct {
	Title       string
	Description string
	Viewer      *viewerView
	CSRFToken   string
	CurrentURL  string
	Flash       FlashMessages
	Nav         []NavItem
}

type viewerView struct {
	PubKey  string
	Npub    string
	Name    string
	Picture string
}

// noteView is a note card. Action forms need the CSRF token and return URL
// on every card, so they are carried here.
type noteView struct {
	ID          string
	Pubkey      string
	Npub        string
	Naddr       string
	AuthorName  string
	Username    string
	Picture     string
	TimeAgo     string
	Timestamp   string
	ContentHTML template.HTML
	RepostedBy  *authorView
	ReplyTo     *replyToView
	Video       *content.Video
	Article     *content.Article
	Replies     int
	Reposts     int
	Likes       int
	Liked       bool
	Reposted    bool
	LoggedIn    bool
	CSRFToken   string
	ReturnURL   string
}

type authorView struct {
	Pubkey string
	Npub   string
	Name   string
}

type replyToView struct {
	ParentID string
	Name     string
	Missing  bool
}

type feedPage struct {
	pageData
	Heading      string
	Empty        string
	ShowPostForm bool
	Notes        []noteView
	NextURL      string
}

type threadPage struct {
	pageData
	Target  noteView
	Root    *noteView
	RootID  string
	Replies []noteView
	NextURL string
}

type articlePage struct {
	pageData
	Note    noteView
	Article *content.Article
}

type profileView struct {
	types.ProfileInfo
	Pubkey   string
	Npub     string
	Name     string
	Username string
}

type profilePage struct {
	pageData
	Profile     profileView
	Stats       types.UserStats
	IsSelf      bool
	IsFollowing bool
	QRCode      template.URL
	Notes       []noteView
	NextURL     string
}

type loginPage struct {
	pageData
	ReturnURL string
}

type errorPage struct {
	pageData
	Heading string
	Message string
}

type quoteFragment struct {
	Note       *noteView
	Identifier string
}

// newPageData fills the fields every page needs. Call before writing the response.
func (a *app) newPageData(w http.ResponseWriter, r *http.Request, title, activePage string) pageData {
	pd := pageData{
		Title:      title,
		CSRFToken:  a.csrfToken(w, r),
		CurrentURL: r.URL.RequestURI(),
		Flash:      getFlashMessages(w, r),
	}
	session := sessionFromRequest(r)
	pd.Nav = GetNavItems(NavContext{LoggedIn: session != nil, ActivePage: activePage})
	if session != nil {
		pd.Viewer = a.viewer(r.Context(), session.PubKey)
	}
	return pd
}

func (a *app) viewer(ctx context.Context, pubkey string) *viewerView {
	v := &viewerView{PubKey: pubkey, Npub: npub(pubkey)}
	profile, err := a.client.Profile(ctx, pubkey)
	if err != nil {
		LoggerFromContext(ctx).Debug("viewer profile lookup failed", "error", err)
	}
	v.Name = content.DisplayName(profile, pubkey)
	if profile != nil {
		v.Picture = profile.Picture
	}
	return v
}

func npub(pubkey string) string {
	encoded, err := nips.EncodePubkey(pubkey)
	if err != nil {
		return pubkey
	}
	return encoded
}

// nameFunc resolves mention names from the page's profile batch.
func nameFunc(profiles map[string]*types.ProfileInfo) content.NameFunc {
	return func(pubkey string) string {
		return content.Username(profiles[pubkey], pubkey)
	}
}

// buildNoteViews converts enriched items into note cards.
func buildNoteViews(items []client.Item, profiles map[string]*types.ProfileInfo, pd pageData) []noteView {
	views := make([]noteView, len(items))
	for i := range items {
		views[i] = buildNoteView(&items[i], profiles, pd)
	}
	return views
}

func buildNoteView(item *client.Item, profiles map[string]*types.ProfileInfo, pd pageData) noteView {
	evt := item.Event
	profile := profiles[evt.PubKey]
	created := time.Unix(evt.CreatedAt, 0)
	v := noteView{
		ID:         evt.ID,
		Pubkey:     evt.PubKey,
		Npub:       npub(evt.PubKey),
		AuthorName: content.DisplayName(profile, evt.PubKey),
		Username:   content.Username(profile, evt.PubKey),
		TimeAgo:    humanize.Time(created),
		Timestamp:  created.UTC().Format(time.RFC3339),
		Video:      item.Video,
		Article:    item.Article,
		Replies:    len(item.Interactions.Replies),
		Reposts:    len(item.Interactions.Reposts),
		Likes:      len(item.Interactions.Likes),
		Liked:      item.Liked,
		Reposted:   item.Reposted,
		LoggedIn:   pd.Viewer != nil,
		CSRFToken:  pd.CSRFToken,
		ReturnURL:  pd.CurrentURL,
	}
	if profile != nil {
		v.Picture = profile.Picture
	}
	if item.Video == nil && item.Article == nil {
		v.ContentHTML = content.RenderContent(evt.Content, nameFunc(profiles))
	}
	if item.Article != nil {
		if naddr, err := nips.EncodeNAddr(evt.Kind, evt.PubKey, item.Article.Identifier, nil); err == nil {
			v.Naddr = naddr
		}
	}
	if item.RepostedBy != nil {
		pk := item.RepostedBy.PubKey
		v.RepostedBy = &authorView{Pubkey: pk, Npub: npub(pk), Name: content.DisplayName(profiles[pk], pk)}
	}
	if item.ReplyTo != nil {
		rt := &replyToView{ParentID: item.ReplyTo.ParentID, Missing: item.ReplyTo.Missing()}
		if !rt.Missing {
			rt.Name = content.Username(profiles[item.ReplyTo.Author], item.ReplyTo.Author)
		}
		v.ReplyTo = rt
	}
	return v
}

// render executes a page template into a buffer so errors never produce
// half-written pages.
func (a *app) render(w http.ResponseWriter, r *http.Request, tmpl *template.Template, status int, data interface{}) {
	a.renderNamed(w, r, tmpl, "base", status, data)
}

func (a *app) renderNamed(w http.ResponseWriter, r *http.Request, tmpl *template.Template, name string, status int, data interface{}) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		LoggerFromContext(r.Context()).Error("failed to render template", "template", tmpl.Name(), "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// renderError shows a full error page.
func (a *app) renderError(w http.ResponseWriter, r *http.Request, status int, heading, message string) {
	data := errorPage{
		pageData: a.newPageData(w, r, heading, ""),
		Heading:  heading,
		Message:  message,
	}
	a.render(w, r, cachedErrorTemplate, status, data)
}

func (a *app) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	a.renderError(w, r, http.StatusNotFound, "Not found", "There is nothing at this address.")
}
