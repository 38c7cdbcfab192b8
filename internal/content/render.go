package content

import (
	"fmt"
	"html"
	"html/template"
	"net/url"
	"strings"
)

// NameFunc returns the display name for a pubkey.
type NameFunc func(pubkey string) string

// RenderNote renders parsed note content as HTML. names resolves mention
// labels; nil falls back to generated names.
func RenderNote(n Note, names NameFunc) template.HTML {
	if names == nil {
		names = GenUserName
	}
	var sb strings.Builder
	if n.Text != "" {
		sb.WriteString(`<div class="note-text">`)
		for _, seg := range n.Segments {
			writeSegment(&sb, seg, names)
		}
		sb.WriteString(`</div>`)
	}
	writeGallery(&sb, n.Images)
	return template.HTML(sb.String())
}

// RenderContent parses and renders content in one step.
func RenderContent(content string, names NameFunc) template.HTML {
	return RenderNote(Parse(content), names)
}

func writeSegment(sb *strings.Builder, seg Segment, names NameFunc) {
	switch seg.Kind {
	case SegmentURL:
		fmt.Fprintf(sb, `<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
			html.EscapeString(seg.URL), html.EscapeString(seg.Text))
	case SegmentVideo:
		fmt.Fprintf(sb, `<video src="%s" controls preload="metadata" class="note-video"></video>`,
			html.EscapeString(seg.URL))
	case SegmentAudio:
		fmt.Fprintf(sb, `<audio src="%s" controls preload="metadata" class="note-audio"></audio>`,
			html.EscapeString(seg.URL))
	case SegmentYouTube:
		fmt.Fprintf(sb, `<iframe class="youtube-embed" src="https://www.youtube-nocookie.com/embed/%s" frameborder="0" allow="encrypted-media; picture-in-picture" allowfullscreen></iframe>`,
			html.EscapeString(seg.URL))
	case SegmentMention:
		fmt.Fprintf(sb, `<a href="%s" class="mention">@%s</a>`,
			html.EscapeString(seg.URL), html.EscapeString(names(seg.Ref.PubKey)))
	case SegmentNostrRef:
		fmt.Fprintf(sb, `<a href="%s" class="nostr-ref">%s</a>`,
			html.EscapeString(seg.URL), html.EscapeString(seg.Text))
	case SegmentHashtag:
		fmt.Fprintf(sb, `<a href="/t/%s" class="hashtag">%s</a>`,
			url.PathEscape(seg.Tag), html.EscapeString(seg.Text))
	default:
		sb.WriteString(html.EscapeString(seg.Text))
	}
}

func writeGallery(sb *strings.Builder, images []string) {
	if len(images) == 0 {
		return
	}
	class := "gallery"
	if len(images) == 1 {
		class += " single-image"
	}
	fmt.Fprintf(sb, `<div class="%s">`, class)
	for i, img := range images {
		if i == 4 {
			fmt.Fprintf(sb, `<span class="gallery-more">+%d</span>`, len(images)-4)
			break
		}
		fmt.Fprintf(sb, `<a href="%s" target="_blank" rel="noopener noreferrer"><img src="%s" alt="Image %d" loading="lazy"></a>`,
			html.EscapeString(img), html.EscapeString(img), i+1)
	}
	sb.WriteString(`</div>`)
}
