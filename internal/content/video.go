package content

import (
	"regexp"
	"strconv"
	"strings"

	"gleam/internal/types"
)

var videoURLRegex = regexp.MustCompile(`(?i)\.(?:mp4|webm|ogg|m3u8|mov|avi)(?:\?[^\s]*)?$`)

// VideoVariant is one imeta entry describing a playable source.
type VideoVariant struct {
	URL          string
	Dimension    string
	MimeType     string
	FallbackURLs []string
	Thumbnails   []string
}

// Video is the renderable data of a NIP-71 video event.
type Video struct {
	URL         string
	Title       string
	Thumbnail   string
	Duration    int // seconds, 0 when unknown
	Description string
	Hashtags    []string
	PublishedAt string
	Alt         string
	Variants    []VideoVariant
}

// ValidateVideoEvent reports whether evt is a kind 21/22 event with a title
// and at least one imeta entry pointing at a video.
func ValidateVideoEvent(evt *types.Event) bool {
	if evt.Kind != types.KindVideo && evt.Kind != types.KindShortVideo {
		return false
	}
	if tagValue(evt.Tags, "title") == "" {
		return false
	}
	for _, tag := range evt.Tags {
		if len(tag) > 0 && tag[0] == "imeta" {
			if _, ok := parseImeta(tag); ok {
				return true
			}
		}
	}
	return false
}

// ExtractVideo collects title, media variants and metadata from a video
// event. The first video variant is primary unless a later one is video/mp4.
func ExtractVideo(evt *types.Event) Video {
	v := Video{
		Title:       tagValue(evt.Tags, "title"),
		Description: evt.Content,
		PublishedAt: tagValue(evt.Tags, "published_at"),
		Alt:         tagValue(evt.Tags, "alt"),
	}
	if d, err := strconv.Atoi(tagValue(evt.Tags, "duration")); err == nil {
		v.Duration = d
	}

	primary := -1
	for _, tag := range evt.Tags {
		if len(tag) < 2 {
			continue
		}
		switch tag[0] {
		case "t":
			v.Hashtags = append(v.Hashtags, tag[1])
		case "imeta":
			variant, ok := parseImeta(tag)
			if !ok {
				continue
			}
			v.Variants = append(v.Variants, variant)
			if primary < 0 || (variant.MimeType == "video/mp4" && v.Variants[primary].MimeType != "video/mp4") {
				primary = len(v.Variants) - 1
			}
			if v.Thumbnail == "" && len(variant.Thumbnails) > 0 {
				v.Thumbnail = variant.Thumbnails[0]
			}
		}
	}
	if primary >= 0 {
		v.URL = v.Variants[primary].URL
	}
	return v
}

// parseImeta reads "key value" entries; ok is false unless the entry is a video.
func parseImeta(tag []string) (VideoVariant, bool) {
	var v VideoVariant
	for _, entry := range tag[1:] {
		key, val, found := strings.Cut(entry, " ")
		if !found {
			continue
		}
		switch key {
		case "url":
			if v.URL == "" {
				v.URL = val
			}
		case "dim":
			v.Dimension = val
		case "m":
			v.MimeType = val
		case "image":
			v.Thumbnails = append(v.Thumbnails, val)
		case "fallback":
			v.FallbackURLs = append(v.FallbackURLs, val)
		}
	}
	if v.URL == "" {
		return v, false
	}
	if v.MimeType != "" {
		return v, strings.HasPrefix(v.MimeType, "video/") || v.MimeType == "application/x-mpegURL"
	}
	return v, videoURLRegex.MatchString(v.URL)
}

func tagValue(tags [][]string, name string) string {
	for _, tag := range tags {
		if len(tag) >= 2 && tag[0] == name {
			return tag[1]
		}
	}
	return ""
}
