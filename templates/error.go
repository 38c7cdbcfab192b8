package templates

var ErrorTemplate = `{{define "content"}}
<section class="error-page">
  <h2>{{.Heading}}</h2>
  <p>{{.Message}}</p>
  <a href="/" class="btn-secondary">Back to the feed</a>
</section>
{{end}}`
