package media

import (
	"strings"

	"github.com/guiyumin/clipgrab/internal/ytdlp"
)

// PreviewURL picks a URL the browser can play inline: the item's direct URL,
// or else the progressive format (video and audio together) with the
// greatest height, then bitrate
func PreviewURL(item *ytdlp.RawItem) (string, bool) {
	if item == nil {
		return "", false
	}
	if direct := strings.TrimSpace(item.URL); direct != "" {
		return direct, true
	}

	var best *ytdlp.RawFormat
	for _, f := range item.Formats {
		if f == nil || strings.TrimSpace(f.URL) == "" {
			continue
		}
		if !f.HasVideo() || !f.HasAudio() {
			continue
		}
		if best == nil || previewBetter(f, best) {
			best = f
		}
	}

	if best == nil {
		return "", false
	}
	return strings.TrimSpace(best.URL), true
}

func previewBetter(a, b *ytdlp.RawFormat) bool {
	ha, hb := int(a.Height.Or(0)), int(b.Height.Or(0))
	if ha != hb {
		return ha > hb
	}
	return a.TBR.Or(0) > b.TBR.Or(0)
}
