package templates

// Post page: optional root, the target note, a reply form and direct replies.
var ThreadTemplate = `{{define "content"}}
<div class="thread">
  {{if .Root}}<div class="thread-root">{{template "note" .Root}}</div>
  {{else if .RootID}}<div class="thread-root"><p class="text-muted">The start of this thread is not available. <a href="/post/{{.RootID}}">Try again</a></p></div>{{end}}
  <div class="thread-target">{{template "note" .Target}}</div>
  {{if .Viewer}}
  <form method="POST" action="/reply" class="reply-form">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
    <input type="hidden" name="event_id" value="{{.Target.ID}}">
    <input type="hidden" name="event_pubkey" value="{{.Target.Pubkey}}">
    <input type="hidden" name="return_url" value="{{.CurrentURL}}">
    <label for="reply-content" class="sr-only">Write a reply</label>
    <textarea id="reply-content" name="content" placeholder="Write your reply..." maxlength="64000" required></textarea>
    <button type="submit" class="btn-primary">Reply</button>
  </form>
  {{end}}
  <section class="replies" aria-label="Replies">
    <h2 class="replies-heading">{{len .Replies}} {{if eq (len .Replies) 1}}reply{{else}}replies{{end}}</h2>
    {{range .Replies}}{{template "note" .}}{{end}}
  </section>
  {{if .NextURL}}<nav class="pagination"><a href="{{.NextURL}}" rel="next" class="btn-secondary">Older replies</a></nav>{{end}}
</div>
{{end}}`

// Long-form article page reached through an naddr.
var ArticleTemplate = `{{define "content"}}
<article class="article">
  {{if .Article.Image}}<img src="{{.Article.Image}}" alt="" class="article-banner">{{end}}
  <h2 class="article-title">{{.Article.Title}}</h2>
  <div class="article-meta">
    <a href="/profile/{{.Note.Npub}}">{{.Note.AuthorName}}</a> · <span title="{{.Note.Timestamp}}">{{.Note.TimeAgo}}</span>
  </div>
  {{if .Article.Summary}}<p class="article-summary">{{.Article.Summary}}</p>{{end}}
  <div class="article-body">{{.Article.Body}}</div>
  {{template "note-actions" .Note}}
</article>
{{end}}`
