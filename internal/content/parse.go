// Package content parses note content into renderable segments.
package content

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"gleam/internal/nips"
)

// SegmentKind identifies what a Segment holds.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentURL
	SegmentVideo
	SegmentAudio
	SegmentYouTube
	SegmentMention  // npub reference
	SegmentNostrRef // note, nevent, nprofile reference
	SegmentHashtag
)

// Segment is one piece of parsed note text.
type Segment struct {
	Kind SegmentKind
	Text string // raw matched text
	URL  string // link target, media source or youtube id
	Tag  string // hashtag without '#'
	Ref  *nips.Pointer
}

// Note is parsed note content: text segments plus an image gallery.
type Note struct {
	Text     string // content with image urls removed
	Images   []string
	Segments []Segment
}

var (
	imageURLRegex = regexp.MustCompile(`(?i)https?://[^\s]+\.(?:jpg|jpeg|png|gif|webp|svg)(?:\?[^\s]*)?`)
	imageExtRegex = regexp.MustCompile(`(?i)\.(?:jpg|jpeg|png|gif|webp|svg)(?:\?[^\s]*)?$`)
	videoExtRegex = regexp.MustCompile(`(?i)\.(?:mp4|webm|m3u8|mov)(?:\?[^\s]*)?$`)
	audioExtRegex = regexp.MustCompile(`(?i)\.(?:mp3|wav|ogg|flac|m4a)(?:\?[^\s]*)?$`)
	youtubeRegex  = regexp.MustCompile(`(?i)(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`)
	blankRunRegex = regexp.MustCompile(`\n\n+`)

	// url | nostr:<prefix><data> | #hashtag
	segmentRegex = regexp.MustCompile(`(https?://[^\s]+)|nostr:(npub1|note1|nprofile1|nevent1)([023456789acdefghjklmnpqrstuvwxyz]+)|(#\w+)`)
)

// ExtractImages returns the image urls in content and the content with
// them removed. Blank-line runs are collapsed only when something was removed.
func ExtractImages(content string) (string, []string) {
	images := imageURLRegex.FindAllString(content, -1)
	if len(images) == 0 {
		return content, nil
	}
	text := content
	for _, img := range images {
		text = strings.Replace(text, img, "", 1)
		text = strings.TrimSpace(blankRunRegex.ReplaceAllString(text, "\n\n"))
	}
	return text, images
}

// Parse splits note content into an image gallery and text segments.
func Parse(content string) Note {
	text, images := ExtractImages(content)
	return Note{Text: text, Images: images, Segments: Segments(text)}
}

// Segments tokenizes text into links, media, nostr references and hashtags.
func Segments(text string) []Segment {
	var segs []Segment
	last := 0
	for _, m := range segmentRegex.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if m[8] >= 0 && !hashtagBoundary(text, start) {
			continue
		}
		if start > last {
			segs = append(segs, Segment{Kind: SegmentText, Text: text[last:start]})
		}
		full := text[start:end]
		switch {
		case m[2] >= 0:
			if seg, ok := urlSegment(full); ok {
				segs = append(segs, seg)
			}
		case m[4] >= 0:
			segs = append(segs, refSegment(full))
		case m[8] >= 0:
			segs = append(segs, Segment{Kind: SegmentHashtag, Text: full, Tag: full[1:]})
		}
		last = end
	}
	if last < len(text) {
		segs = append(segs, Segment{Kind: SegmentText, Text: text[last:]})
	}
	return segs
}

// hashtagBoundary reports whether a '#' at i starts a hashtag: it must open
// the text or follow whitespace, so "a#b" and "foo#bar" stay text.
func hashtagBoundary(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.IsSpace(r)
}

// urlSegment classifies a url; image urls are dropped since they belong to the gallery.
func urlSegment(u string) (Segment, bool) {
	switch {
	case imageExtRegex.MatchString(u):
		return Segment{}, false
	case videoExtRegex.MatchString(u):
		return Segment{Kind: SegmentVideo, Text: u, URL: u}, true
	case audioExtRegex.MatchString(u):
		return Segment{Kind: SegmentAudio, Text: u, URL: u}, true
	}
	if m := youtubeRegex.FindStringSubmatch(u); len(m) > 1 {
		return Segment{Kind: SegmentYouTube, Text: u, URL: m[1]}, true
	}
	return Segment{Kind: SegmentURL, Text: u, URL: u}, true
}

// refSegment decodes a nostr: reference; undecodable references stay text.
func refSegment(full string) Segment {
	p, err := nips.Decode(full)
	if err != nil {
		return Segment{Kind: SegmentText, Text: full}
	}
	kind := SegmentNostrRef
	if p.Type == nips.PrefixNpub {
		kind = SegmentMention
	}
	return Segment{Kind: kind, Text: full, URL: "/" + strings.TrimPrefix(full, "nostr:"), Ref: p}
}

// ExtractHashtags returns the distinct lowercase hashtags in content.
func ExtractHashtags(content string) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, seg := range Segments(content) {
		if seg.Kind != SegmentHashtag {
			continue
		}
		tag := strings.ToLower(seg.Tag)
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}

// MentionedPubkeys returns pubkeys of npub and nprofile references in content.
func MentionedPubkeys(contents ...string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range contents {
		for _, seg := range Segments(c) {
			if seg.Ref == nil || !seg.Ref.IsProfile() || seen[seg.Ref.PubKey] {
				continue
			}
			seen[seg.Ref.PubKey] = true
			out = append(out, seg.Ref.PubKey)
		}
	}
	return out
}
