package extractor

import "strings"

// InstagramKind describes what an Instagram URL points at
type InstagramKind string

const (
	InstagramStory    InstagramKind = "story"
	InstagramReel     InstagramKind = "reel"
	InstagramCarousel InstagramKind = "carousel"
	InstagramPost     InstagramKind = "post"
)

// DetectInstagramKind inspects the URL path. itemCount is the number of
// media items the extractor returned for the URL.
func DetectInstagramKind(rawURL string, itemCount int) InstagramKind {
	var path string
	if u, _, ok := parseWebURL(rawURL); ok {
		path = strings.ToLower(u.Path)
	}

	switch {
	case strings.Contains(path, "/stories/"):
		return InstagramStory
	case strings.Contains(path, "/reel/"), strings.Contains(path, "/reels/"):
		return InstagramReel
	case itemCount > 1:
		return InstagramCarousel
	default:
		return InstagramPost
	}
}
