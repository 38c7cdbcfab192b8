package content

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"gleam/internal/types"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy   = bluemonday.UGCPolicy()
)

// Article is a long-form event ready to render.
type Article struct {
	Title       string
	Summary     string
	Image       string
	Identifier  string
	PublishedAt string
	Body        template.HTML
}

// RenderMarkdown converts markdown to sanitized HTML.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes())), nil
}

// ExtractArticle reads NIP-23 metadata tags and renders the body.
func ExtractArticle(evt *types.Event) (Article, error) {
	body, err := RenderMarkdown(evt.Content)
	if err != nil {
		return Article{}, err
	}
	return Article{
		Title:       tagValue(evt.Tags, "title"),
		Summary:     tagValue(evt.Tags, "summary"),
		Image:       tagValue(evt.Tags, "image"),
		Identifier:  tagValue(evt.Tags, "d"),
		PublishedAt: tagValue(evt.Tags, "published_at"),
		Body:        body,
	}, nil
}
