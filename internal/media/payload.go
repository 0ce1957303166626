package media

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/guiyumin/clipgrab/internal/extractor"
	"github.com/guiyumin/clipgrab/internal/ytdlp"
)

// Type is the inferred kind of a media item
type Type string

const (
	TypeVideo Type = "video"
	TypeAudio Type = "audio"
	TypeImage Type = "image"
	TypeFile  Type = "file"
)

const maxTitleLength = 100

var (
	imageExtensions = map[string]bool{"jpg": true, "jpeg": true, "png": true, "webp": true}
	audioExtensions = map[string]bool{"mp3": true, "m4a": true, "aac": true, "ogg": true, "wav": true}
	videoURLMarkers = []string{".mp4", ".mov", ".webm"}
)

// Payload is the per-item record returned by the metadata endpoint
type Payload struct {
	Index           int              `json:"index"`
	Platform        string           `json:"platform"`
	Type            Type             `json:"type"`
	InstagramKind   *string          `json:"instagram_kind"`
	Title           string           `json:"title"`
	Thumbnail       *string          `json:"thumbnail"`
	PreviewURL      *string          `json:"preview_url"`
	Duration        ytdlp.Number     `json:"duration"`
	Ext             *string          `json:"ext"`
	DownloadOptions []DownloadOption `json:"download_options"`
}

// InferType guesses the media kind from item-level codecs, then the
// extension, then the direct URL
func InferType(item *ytdlp.RawItem) Type {
	ext := strings.ToLower(item.Ext)
	directURL := strings.ToLower(item.URL)

	switch {
	case item.VCodec != "" && item.VCodec != "none":
		return TypeVideo
	case item.ACodec != "" && item.ACodec != "none":
		return TypeAudio
	case imageExtensions[ext]:
		return TypeImage
	case audioExtensions[ext]:
		return TypeAudio
	}

	for _, marker := range videoURLMarkers {
		if strings.Contains(directURL, marker) {
			return TypeVideo
		}
	}
	return TypeFile
}

// NormalizeTitle trims, collapses whitespace runs and caps the length.
// fallback is used when raw is blank.
func NormalizeTitle(raw, fallback string) string {
	title := strings.Join(strings.Fields(raw), " ")
	if title == "" {
		title = fallback
	}

	if utf8.RuneCountInString(title) > maxTitleLength {
		title = string([]rune(title)[:maxTitleLength])
	}
	return title
}

// BuildPayload renders flattened items for the metadata response. The
// Instagram kind is nil for other platforms.
func BuildPayload(items []*ytdlp.RawItem, platform extractor.Platform, sourceURL string, hasMerger bool) ([]Payload, *string) {
	var kind *string
	if platform == extractor.PlatformInstagram {
		k := string(extractor.DetectInstagramKind(sourceURL, len(items)))
		kind = &k
	}

	payload := make([]Payload, 0, len(items))
	for i, item := range items {
		idx := i + 1
		options, _ := BuildOptions(item, hasMerger)

		p := Payload{
			Index:           idx,
			Platform:        string(platform),
			Type:            InferType(item),
			InstagramKind:   kind,
			Title:           NormalizeTitle(item.Title, fmt.Sprintf("media_%d", idx)),
			Thumbnail:       optional(item.Thumbnail),
			Duration:        item.Duration,
			Ext:             optional(item.Ext),
			DownloadOptions: options,
		}
		if platform == extractor.PlatformInstagram {
			if preview, ok := PreviewURL(item); ok {
				p.PreviewURL = &preview
			}
		}
		payload = append(payload, p)
	}
	return payload, kind
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
