package templates

// Base template - shared structure for all HTML pages.
// Page templates define the "content" block.

func GetBaseTemplates() string {
	return baseTemplate + headerTemplate + flashTemplate + footerTemplate
}

var baseTemplate = `{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <meta name="description" content="{{if .Description}}{{.Description}}{{else}}A simple Nostr client{{end}}">
  <meta property="og:title" content="{{.Title}} - gleam">
  <title>{{.Title}} - gleam</title>
  <link rel="stylesheet" href="/static/style.css">
</head>
<body id="top">
  <a href="#main-content" class="skip-link">Skip to main content</a>
  <div class="container">
    {{template "header" .}}
    {{template "flash" .Flash}}
    <main id="main-content">
      <h1 class="sr-only">{{.Title}}</h1>
      {{template "content" .}}
    </main>
    {{template "footer" .}}
  </div>
</body>
</html>{{end}}
`

var headerTemplate = `{{define "header"}}
<header class="sticky-section">
  <nav>
    {{range .Nav}}<a href="{{.Href}}" class="nav-tab{{if .Active}} active{{end}}"{{if .Active}} aria-current="page"{{end}}>{{.Title}}</a>
    {{end}}
    <div class="ml-auto flex-center gap-sm">
      {{if .Viewer}}
      <a href="/profile" class="nav-tab" title="Your profile">{{if .Viewer.Picture}}<img src="{{.Viewer.Picture}}" alt="" class="avatar-xs" loading="lazy"> {{end}}{{.Viewer.Name}}</a>
      <form method="POST" action="/logout" class="inline-form">
        <input type="hidden" name="csrf_token" value="{{.CSRFToken}}">
        <button type="submit" class="ghost-btn text-xs">Sign out</button>
      </form>
      {{else}}
      <a href="/login" class="btn-primary">Sign in</a>
      {{end}}
    </div>
  </nav>
</header>
{{end}}`

var flashTemplate = `{{define "flash"}}{{if .Success}}<div class="flash-message flash-success" role="status">{{.Success}}</div>{{end}}{{if .Error}}<div class="flash-message flash-error" role="alert">{{.Error}}</div>{{end}}{{end}}`

var footerTemplate = `{{define "footer"}}
<footer>
<a href="#top" class="scroll-top" aria-label="Scroll to top">↑</a>
</footer>
{{end}}`
