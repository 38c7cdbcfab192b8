package templates

// Quote fragment, embedded by notes that reference another event.
var QuoteTemplate = `{{define "quote"}}
<div class="quoted-note">
  {{if .Note}}{{template "note" .Note}}
  {{else}}<div class="quoted-note-error"><p>Post not found</p><a href="/{{.Identifier}}" class="text-muted">View original</a></div>{{end}}
</div>
{{end}}`
