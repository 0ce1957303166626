package media

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guiyumin/clipgrab/internal/ytdlp"
)

func videoFormat(id string, height, tbr, fps float64, acodec, ext string) *ytdlp.RawFormat {
	return &ytdlp.RawFormat{
		FormatID: ytdlp.Text(id),
		VCodec:   "avc1",
		ACodec:   acodec,
		Height:   ytdlp.Num(height),
		TBR:      ytdlp.Num(tbr),
		FPS:      ytdlp.Num(fps),
		Ext:      ext,
	}
}

func audioFormat(id string, abr, tbr float64, ext string) *ytdlp.RawFormat {
	return &ytdlp.RawFormat{
		FormatID: ytdlp.Text(id),
		VCodec:   "none",
		ACodec:   "opus",
		ABR:      ytdlp.Num(abr),
		TBR:      ytdlp.Num(tbr),
		Ext:      ext,
	}
}

func values(options []DownloadOption) []string {
	out := make([]string, 0, len(options))
	for _, o := range options {
		out = append(out, o.Value)
	}
	return out
}

func assertAligned(t *testing.T, options []DownloadOption, selectors SelectorMap) {
	t.Helper()
	seen := map[string]bool{}
	for _, o := range options {
		assert.False(t, seen[o.Value], "duplicate option %q", o.Value)
		seen[o.Value] = true
		assert.Contains(t, selectors, o.Value)
	}
	assert.Len(t, selectors, len(options))
}

func TestBuildOptionsBestOnly(t *testing.T) {
	tests := []struct {
		name      string
		item      *ytdlp.RawItem
		hasMerger bool
		selector  string
	}{
		{"nil item", nil, false, "best"},
		{"no formats", &ytdlp.RawItem{}, false, "best"},
		{"no formats with merger", &ytdlp.RawItem{}, true, "bestvideo*+bestaudio/best"},
		{"formats without ids", &ytdlp.RawItem{Formats: ytdlp.Formats{
			videoFormat("", 720, 1000, 30, "none", "mp4"),
			videoFormat("   ", 1080, 2000, 30, "none", "mp4"),
		}}, true, "bestvideo*+bestaudio/best"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options, selectors := BuildOptions(tt.item, tt.hasMerger)
			assert.Equal(t, []DownloadOption{{Value: "best", Label: "Best available", Mode: ModeAuto}}, options)
			assert.Equal(t, SelectorMap{"best": tt.selector}, selectors)
		})
	}
}

func TestBuildOptionsVideoLabels(t *testing.T) {
	item := &ytdlp.RawItem{Formats: ytdlp.Formats{
		videoFormat("18", 360, 500, 30, "mp4a.40.2", "mp4"),
		videoFormat("137", 1080, 4000, 30, "none", "mp4"),
		videoFormat("247", 720, 1500, 30, "", "webm"),
	}}

	t.Run("with merger", func(t *testing.T) {
		options, selectors := BuildOptions(item, true)
		assert.Equal(t, []DownloadOption{
			{Value: "best", Label: "Best available", Mode: ModeAuto},
			{Value: "137", Label: "Video 1080p + audio", Mode: ModeVideo},
			{Value: "247", Label: "Video 720p + audio", Mode: ModeVideo},
			{Value: "18", Label: "Video 360p", Mode: ModeVideo},
		}, options)
		assert.Equal(t, SelectorMap{
			"best": "bestvideo*+bestaudio/best",
			"137":  "137+bestaudio/best",
			"247":  "247+bestaudio/best",
			"18":   "18",
		}, selectors)
	})

	t.Run("without merger", func(t *testing.T) {
		options, selectors := BuildOptions(item, false)
		assert.Equal(t, []DownloadOption{
			{Value: "best", Label: "Best available", Mode: ModeAuto},
			{Value: "137", Label: "Video 1080p (video-only, MP4)", Mode: ModeVideo},
			{Value: "247", Label: "Video 720p (video-only, WEBM)", Mode: ModeVideo},
			{Value: "18", Label: "Video 360p (MP4)", Mode: ModeVideo},
		}, options)
		assert.Equal(t, SelectorMap{
			"best": "best",
			"137":  "137",
			"247":  "247",
			"18":   "18",
		}, selectors)
	})

	t.Run("without merger or extension", func(t *testing.T) {
		bare := &ytdlp.RawItem{Formats: ytdlp.Formats{videoFormat("5", 240, 100, 0, "none", "")}}
		options, _ := BuildOptions(bare, false)
		require.Len(t, options, 2)
		assert.Equal(t, "Video 240p (video-only)", options[1].Label)
	})
}

func TestBuildOptionsKeepsHighestScorePerHeight(t *testing.T) {
	item := &ytdlp.RawItem{Formats: ytdlp.Formats{
		videoFormat("low", 720, 1000, 60, "none", "mp4"),
		videoFormat("high", 720, 1200, 24, "none", "mp4"),
		videoFormat("fps-tiebreak", 720, 1200, 30, "none", "mp4"),
		videoFormat("equal", 720, 1200, 30, "none", "mp4"),
	}}

	options, selectors := BuildOptions(item, true)
	assert.Equal(t, []string{"best", "fps-tiebreak"}, values(options))
	assert.Equal(t, "fps-tiebreak+bestaudio/best", selectors["fps-tiebreak"])
}

func TestBuildOptionsFrameRateNeverBeatsBitrate(t *testing.T) {
	item := &ytdlp.RawItem{Formats: ytdlp.Formats{
		videoFormat("fast", 1080, 3000, 120, "none", "mp4"),
		videoFormat("rich", 1080, 3001, 24, "none", "mp4"),
	}}

	options, _ := BuildOptions(item, true)
	assert.Equal(t, []string{"best", "rich"}, values(options))
}

func TestBuildOptionsCapsAndOrders(t *testing.T) {
	var formats ytdlp.Formats
	for i, h := range []float64{144, 240, 360, 480, 720, 1080, 1440, 2160} {
		formats = append(formats, videoFormat(fmt.Sprintf("v%d", i), h, 100*h, 30, "none", "mp4"))
	}
	for i, abr := range []float64{48, 160, 70, 128, 256, 32, 96} {
		formats = append(formats, audioFormat(fmt.Sprintf("a%d", i), abr, abr, "webm"))
	}
	item := &ytdlp.RawItem{Formats: formats}

	options, selectors := BuildOptions(item, false)
	require.Len(t, options, 11)
	assertAligned(t, options, selectors)

	assert.Equal(t, []string{
		"best",
		"v7", "v6", "v5", "v4", "v3",
		"a4", "a1", "a3", "a6", "a2",
	}, values(options))
	assert.Equal(t, "Video 2160p (video-only, MP4)", options[1].Label)
	assert.Equal(t, "Audio 256 kbps (WEBM)", options[6].Label)
	assert.Equal(t, ModeAudio, options[10].Mode)
}

func TestBuildOptionsAudioLabels(t *testing.T) {
	tests := []struct {
		name   string
		format *ytdlp.RawFormat
		label  string
	}{
		{"abr and ext", audioFormat("a", 129.6, 130, "m4a"), "Audio 130 kbps (M4A)"},
		{"rounds half to even", audioFormat("a", 127.5, 128, "webm"), "Audio 128 kbps (WEBM)"},
		{"zero abr", audioFormat("a", 0, 0, "mp3"), "Audio (MP3)"},
		{"no ext", audioFormat("a", 64, 64, ""), "Audio 64 kbps"},
		{"no abr", &ytdlp.RawFormat{FormatID: "a", VCodec: "none", ACodec: "mp4a"}, "Audio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options, selectors := BuildOptions(&ytdlp.RawItem{Formats: ytdlp.Formats{tt.format}}, true)
			require.Len(t, options, 2)
			assert.Equal(t, tt.label, options[1].Label)
			assert.Equal(t, ModeAudio, options[1].Mode)
			assert.Equal(t, "a", selectors["a"])
		})
	}
}

func TestBuildOptionsAudioTiesKeepInputOrder(t *testing.T) {
	item := &ytdlp.RawItem{Formats: ytdlp.Formats{
		audioFormat("first", 128, 128, "m4a"),
		audioFormat("second", 128, 128, "webm"),
	}}

	options, _ := BuildOptions(item, false)
	assert.Equal(t, []string{"best", "first", "second"}, values(options))
}

func TestBuildOptionsSkipsDuplicatesAndUnusable(t *testing.T) {
	item := &ytdlp.RawItem{Formats: ytdlp.Formats{
		videoFormat("best", 1080, 5000, 30, "none", "mp4"),
		videoFormat("22", 720, 2000, 30, "mp4a", "mp4"),
		audioFormat("22", 128, 128, "m4a"),
		{FormatID: "sb0", VCodec: "none", ACodec: "none", Ext: "mhtml"},
		{FormatID: "nocodec", Ext: "mp4"},
		videoFormat("zero-height", 0, 9999, 30, "none", "mp4"),
		videoFormat("negative", -1, 9999, 30, "none", "mp4"),
		{FormatID: "unknown-height", VCodec: "avc1", TBR: ytdlp.Num(9999)},
		nil,
	}}

	options, selectors := BuildOptions(item, true)
	assert.Equal(t, []string{"best", "22"}, values(options))
	assert.Equal(t, "bestvideo*+bestaudio/best", selectors["best"])
	assertAligned(t, options, selectors)
}

func TestScore(t *testing.T) {
	assert.InDelta(t, 1000.03, Score(videoFormat("x", 720, 1000, 30, "none", "mp4")), 1e-9)
	assert.Equal(t, 0.0, Score(&ytdlp.RawFormat{}))
}
