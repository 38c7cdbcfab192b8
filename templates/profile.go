package templates

// Profile page: header with metadata, counters, follow button and posts.
var ProfileTemplate = `{{define "content"}}
<section class="profile-header">
  {{if .Profile.Banner}}<img src="{{.Profile.Banner}}" alt="" class="profile-banner">{{end}}
  <div class="profile-info">
    {{if .Profile.Picture}}<img src="{{.Profile.Picture}}" alt="" class="profile-avatar">{{else}}<span class="profile-avatar avatar-placeholder"></span>{{end}}
    <h2 class="profile-name">{{.Profile.Name}}</h2>
    <div class="profile-username">@{{.Profile.Username}}</div>
    {{if .Profile.Nip05}}<div class="profile-nip05">✓ {{.Profile.Nip05}}</div>{{end}}
    {{if .Profile.About}}<p class="profile-about">{{.Profile.About}}</p>{{end}}
    {{if .Profile.Website}}<a href="{{.Profile.Website}}" class="profile-website" rel="nofollow noopener" target="_blank">{{.Profile.Website}}</a>{{end}}
    {{if .Profile.Lud16}}<div class="profile-lud16">⚡ {{.Profile.Lud16}}</div>{{end}}
    <div class="profile-npub"><code>{{.Profile.Npub}}</code></div>
    {{if .QRCode}}<details class="profile-qr"><summary>Show QR code</summary><img src="{{.QRCode}}" alt="QR code for {{.Profile.Npub}}" width="200" height="200"></details>{{end}}
  </div>
  <dl class="profile-stats">
    <div><dt>Posts</dt><dd>{{formatCount .Stats.Posts}}</dd></div>
    <div><dt>Followers</dt><dd>{{formatCount .Stats.Followers}}</dd></div>
    <div><dt>Following</dt><dd>{{formatCount .Stats.Following}}</dd></div>
  </dl>
  {{if and .Viewer (not .IsSelf)}}
  <form method="POST" action="{{if .IsFollowing}}/unfollow{{else}}/follow{{end}}" class="follow-form">
    <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
    <input type="hidden" name="pubkey" value="{{.Profile.Pubkey}}">
    <input type="hidden" name="return_url" value="{{.CurrentURL}}">
    <button type="submit" class="{{if .IsFollowing}}btn-secondary{{else}}btn-primary{{end}}">{{if .IsFollowing}}Unfollow{{else}}Follow{{end}}</button>
  </form>
  {{end}}
</section>
<div id="notes-list">
  {{range .Notes}}{{template "note" .}}{{else}}<p class="empty-state">No posts yet.</p>{{end}}
</div>
{{if .NextURL}}<nav class="pagination"><a href="{{.NextURL}}" rel="next" class="btn-secondary">Load more</a></nav>{{end}}
{{end}}`
