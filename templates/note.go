package templates

// Note card and the pieces it is built from. Every feed, the thread page
// and the quote fragment render notes through the "note" template.

func GetNoteTemplates() string {
	return noteTemplate + replyToTemplate + videoTemplate + articleTemplate + noteActionsTemplate
}

var noteTemplate = `{{define "note"}}
<article class="note" id="note-{{.ID}}">
  {{if .RepostedBy}}<div class="repost-indicator">🔁 <a href="/profile/{{.RepostedBy.Npub}}">{{.RepostedBy.Name}}</a> reposted</div>{{end}}
  <div class="note-author">
    <a href="/profile/{{.Npub}}" class="author-link">
      {{if .Picture}}<img src="{{.Picture}}" alt="" class="avatar" loading="lazy">{{else}}<span class="avatar avatar-placeholder"></span>{{end}}
      <span class="author-name">{{.AuthorName}}</span>
      <span class="author-username">@{{.Username}}</span>
    </a>
    <a href="/post/{{.ID}}" class="note-time" title="{{.Timestamp}}">{{.TimeAgo}}</a>
  </div>
  {{if .ReplyTo}}{{template "reply-to" .ReplyTo}}{{end}}
  {{if .Video}}{{template "video" .Video}}
  {{else if .Article}}{{template "article-card" .}}
  {{else}}<div class="note-content">{{.ContentHTML}}</div>{{end}}
  {{template "note-actions" .}}
</article>
{{end}}`

var replyToTemplate = `{{define "reply-to"}}<div class="reply-indicator">{{if .Missing}}<span class="text-muted">Reply to deleted post</span>{{else}}Replying to <a href="/post/{{.ParentID}}">@{{.Name}}</a>{{end}}</div>{{end}}`

var videoTemplate = `{{define "video"}}
<div class="video-note">
  <h3 class="video-title">{{.Title}}</h3>
  <video controls preload="metadata" playsinline{{if .Thumbnail}} poster="{{.Thumbnail}}"{{end}}{{if .Alt}} aria-label="{{.Alt}}"{{end}}>
    {{range .Variants}}<source src="{{.URL}}"{{if .MimeType}} type="{{.MimeType}}"{{end}}>
    {{end}}
  </video>
  {{if .Description}}<p class="video-description">{{.Description}}</p>{{end}}
  {{if .Duration}}<span class="video-duration">{{duration .Duration}}</span>{{end}}
  {{if .Hashtags}}<div class="video-tags">{{range .Hashtags}}<a href="/t/{{.}}" class="hashtag">#{{.}}</a> {{end}}</div>{{end}}
</div>
{{end}}`

var articleTemplate = `{{define "article-card"}}
<div class="article-card">
  {{if .Article.Image}}<img src="{{.Article.Image}}" alt="" class="article-image" loading="lazy">{{end}}
  <h3 class="article-title"><a href="/{{.Naddr}}">{{.Article.Title}}</a></h3>
  {{if .Article.Summary}}<p class="article-summary">{{.Article.Summary}}</p>{{end}}
</div>
{{end}}`

var noteActionsTemplate = `{{define "note-actions"}}
<footer class="note-actions" id="footer-{{.ID}}">
  <a href="/post/{{.ID}}" class="action" title="Replies">💬 {{formatCount .Replies}}</a>
  {{if .LoggedIn}}
  <form method="POST" action="/repost" class="inline-form">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
    <input type="hidden" name="event_id" value="{{.ID}}">
    <input type="hidden" name="event_pubkey" value="{{.Pubkey}}">
    <input type="hidden" name="return_url" value="{{.ReturnURL}}">
    <button type="submit" class="action{{if .Reposted}} active{{end}}" title="Repost"{{if .Reposted}} disabled{{end}}>🔁 {{formatCount .Reposts}}</button>
  </form>
  <form method="POST" action="/like" class="inline-form">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
    <input type="hidden" name="event_id" value="{{.ID}}">
    <input type="hidden" name="event_pubkey" value="{{.Pubkey}}">
    <input type="hidden" name="return_url" value="{{.ReturnURL}}">
    <button type="submit" class="action{{if .Liked}} active{{end}}" title="Like"{{if .Liked}} disabled{{end}}>{{if .Liked}}❤️{{else}}🤍{{end}} {{formatCount .Likes}}</button>
  </form>
  {{else}}
  <span class="action" title="Reposts">🔁 {{formatCount .Reposts}}</span>
  <span class="action" title="Likes">🤍 {{formatCount .Likes}}</span>
  {{end}}
</footer>
{{end}}`
