package media

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiyumin/clipgrab/internal/extractor"
	"github.com/guiyumin/clipgrab/internal/ytdlp"
)

func TestPreviewURL(t *testing.T) {
	progressive := func(url string, height, tbr float64) *ytdlp.RawFormat {
		return &ytdlp.RawFormat{
			FormatID: "p",
			VCodec:   "avc1",
			ACodec:   "mp4a",
			Height:   ytdlp.Num(height),
			TBR:      ytdlp.Num(tbr),
			URL:      url,
		}
	}

	tests := []struct {
		name string
		item *ytdlp.RawItem
		want string
		ok   bool
	}{
		{"nil", nil, "", false},
		{"direct url wins", &ytdlp.RawItem{URL: " https://cdn/x.mp4 ", Formats: ytdlp.Formats{progressive("https://cdn/p.mp4", 1080, 1)}}, "https://cdn/x.mp4", true},
		{"no progressive", &ytdlp.RawItem{Formats: ytdlp.Formats{
			{VCodec: "avc1", ACodec: "none", URL: "https://cdn/v"},
			{VCodec: "none", ACodec: "mp4a", URL: "https://cdn/a"},
			{VCodec: "avc1", ACodec: "mp4a"},
		}}, "", false},
		{"tallest wins", &ytdlp.RawItem{Formats: ytdlp.Formats{
			progressive("https://cdn/480", 480, 9000),
			progressive("https://cdn/720", 720, 100),
		}}, "https://cdn/720", true},
		{"bitrate breaks height ties", &ytdlp.RawItem{Formats: ytdlp.Formats{
			progressive("https://cdn/low", 720, 100),
			progressive("https://cdn/high", 720, 200),
			progressive("https://cdn/same", 720, 200),
		}}, "https://cdn/high", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PreviewURL(tt.item)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferType(t *testing.T) {
	tests := []struct {
		name string
		item ytdlp.RawItem
		want Type
	}{
		{"video codec", ytdlp.RawItem{VCodec: "h264", Ext: "jpg"}, TypeVideo},
		{"audio codec", ytdlp.RawItem{VCodec: "none", ACodec: "aac"}, TypeAudio},
		{"image ext", ytdlp.RawItem{VCodec: "none", Ext: "JPG"}, TypeImage},
		{"webp ext", ytdlp.RawItem{Ext: "webp"}, TypeImage},
		{"audio ext", ytdlp.RawItem{Ext: "m4a"}, TypeAudio},
		{"video url", ytdlp.RawItem{URL: "https://cdn/clip.MP4?sig=1"}, TypeVideo},
		{"unknown", ytdlp.RawItem{Ext: "zip"}, TypeFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferType(&tt.item))
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"collapses ascii whitespace", "  Hello \n\tworld   again ", "Hello world again"},
		{"collapses unicode spaces", "a\u00a0\u00a0b\u3000c", "a b c"},
		{"trims unicode spaces", "\u3000title\u00a0", "title"},
		{"empty falls back", "", "media_2"},
		{"whitespace only falls back", " \t\u00a0\u3000 ", "media_2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.raw, "media_2"))
		})
	}

	long := NormalizeTitle(strings.Repeat("é", 150), "x")
	assert.Equal(t, 100, len([]rune(long)))
}

func TestBuildPayloadInstagramCarousel(t *testing.T) {
	items := []*ytdlp.RawItem{
		{Title: "first", Ext: "mp4", VCodec: "h264", URL: "https://cdn/1.mp4", Duration: ytdlp.Num(12)},
		{Title: "", Ext: "jpg", Thumbnail: "https://cdn/2.jpg"},
		{Title: "third", Ext: "mp4", Formats: ytdlp.Formats{
			{FormatID: "p", VCodec: "avc1", ACodec: "mp4a", Height: ytdlp.Num(640), URL: "https://cdn/3.mp4"},
		}},
	}

	payload, kind := BuildPayload(items, extractor.PlatformInstagram, "https://www.instagram.com/p/ABC123/", false)
	require.NotNil(t, kind)
	assert.Equal(t, "carousel", *kind)
	require.Len(t, payload, 3)

	for i, p := range payload {
		assert.Equal(t, i+1, p.Index)
		assert.Equal(t, "Instagram", p.Platform)
		assert.Equal(t, kind, p.InstagramKind)
		assert.Equal(t, "best", p.DownloadOptions[0].Value)
	}

	assert.Equal(t, TypeVideo, payload[0].Type)
	require.NotNil(t, payload[0].PreviewURL)
	assert.Equal(t, "https://cdn/1.mp4", *payload[0].PreviewURL)
	assert.Equal(t, 12.0, payload[0].Duration.Value)

	assert.Equal(t, "media_2", payload[1].Title)
	assert.Equal(t, TypeImage, payload[1].Type)
	assert.Nil(t, payload[1].PreviewURL)
	require.NotNil(t, payload[1].Thumbnail)

	require.NotNil(t, payload[2].PreviewURL)
	assert.Equal(t, "https://cdn/3.mp4", *payload[2].PreviewURL)
	assert.Equal(t, []string{"best", "p"}, values(payload[2].DownloadOptions))
}

func TestBuildPayloadOtherPlatforms(t *testing.T) {
	items := []*ytdlp.RawItem{{Title: "talk", URL: "https://cdn/direct.mp4"}}

	payload, kind := BuildPayload(items, extractor.PlatformYouTube, "https://youtu.be/x", true)
	assert.Nil(t, kind)
	require.Len(t, payload, 1)
	assert.Nil(t, payload[0].InstagramKind)
	assert.Nil(t, payload[0].PreviewURL)
	assert.Nil(t, payload[0].Ext)
	assert.False(t, payload[0].Duration.Valid)
}
