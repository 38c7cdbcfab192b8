package templates

// Feed page: global, explore, following, hashtag and video feeds.
var FeedTemplate = `{{define "content"}}
{{if .Heading}}<h2 class="feed-heading">{{.Heading}}</h2>{{end}}
{{if .ShowPostForm}}
<div class="post-form-container">
  <form method="POST" action="/post" class="post-form" id="post-form">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
    <input type="hidden" name="return_url" value="{{.CurrentURL}}">
    <label for="post-content" class="sr-only">Write a new note</label>
    <textarea id="post-content" name="content" placeholder="What's on your mind?" maxlength="64000" required></textarea>
    <div class="post-actions"><button type="submit" class="btn-primary">Post</button></div>
  </form>
</div>
{{end}}
<div id="notes-list">
  {{range .Notes}}{{template "note" .}}{{else}}<p class="empty-state">{{if .Empty}}{{.Empty}}{{else}}No posts found.{{end}}</p>{{end}}
</div>
{{if .NextURL}}<nav class="pagination"><a href="{{.NextURL}}" rel="next" class="btn-secondary">Load more</a></nav>{{end}}
{{end}}`
