package media

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/guiyumin/clipgrab/internal/ytdlp"
)

// Mode tells the UI what kind of output an option produces
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeVideo Mode = "video"
	ModeAudio Mode = "audio"
)

// BestOptionID is always offered and always resolvable
const BestOptionID = "best"

const (
	maxVideoOptions = 5
	maxAudioOptions = 5

	bestSelectorMerged = "bestvideo*+bestaudio/best"
	bestSelectorPlain  = "best"
)

// DownloadOption is one user-facing download choice
type DownloadOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Mode  Mode   `json:"mode"`
}

// SelectorMap maps option values to yt-dlp format selectors
type SelectorMap map[string]string

// Score ranks formats by total bitrate, using frame rate only to break
// near-ties
func Score(f *ytdlp.RawFormat) float64 {
	return f.TBR.Or(0) + f.FPS.Or(0)/1000
}

// BuildOptions converts an item's raw formats into at most 1+5+5 options:
// best, then video by descending height, then audio by descending score.
// hasMerger reports whether ffmpeg can merge separate streams.
func BuildOptions(item *ytdlp.RawItem, hasMerger bool) ([]DownloadOption, SelectorMap) {
	options := []DownloadOption{{Value: BestOptionID, Label: "Best available", Mode: ModeAuto}}
	selectors := SelectorMap{BestOptionID: bestSelectorPlain}
	if hasMerger {
		selectors[BestOptionID] = bestSelectorMerged
	}
	if item == nil || len(item.Formats) == 0 {
		return options, selectors
	}

	seen := map[string]bool{BestOptionID: true}
	videoByHeight := map[int]*ytdlp.RawFormat{}
	var audio []*ytdlp.RawFormat

	for _, f := range item.Formats {
		if f == nil || f.ID() == "" {
			continue
		}

		if f.HasVideo() {
			height := int(f.Height.Or(0))
			if height > 0 {
				existing, ok := videoByHeight[height]
				if !ok || Score(f) > Score(existing) {
					videoByHeight[height] = f
				}
			}
		}

		if !f.HasVideo() && f.HasAudio() {
			audio = append(audio, f)
		}
	}

	heights := make([]int, 0, len(videoByHeight))
	for h := range videoByHeight {
		heights = append(heights, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))
	if len(heights) > maxVideoOptions {
		heights = heights[:maxVideoOptions]
	}

	for _, height := range heights {
		f := videoByHeight[height]
		id := f.ID()
		if seen[id] {
			continue
		}
		seen[id] = true

		label, selector := videoLabel(f, height, hasMerger)
		selectors[id] = selector
		options = append(options, DownloadOption{Value: id, Label: label, Mode: ModeVideo})
	}

	sort.SliceStable(audio, func(i, j int) bool {
		return Score(audio[i]) > Score(audio[j])
	})
	if len(audio) > maxAudioOptions {
		audio = audio[:maxAudioOptions]
	}

	for _, f := range audio {
		id := f.ID()
		if seen[id] {
			continue
		}
		seen[id] = true

		selectors[id] = id
		options = append(options, DownloadOption{Value: id, Label: audioLabel(f), Mode: ModeAudio})
	}

	return options, selectors
}

// videoLabel returns the label and selector for a video format. Formats
// without audio are merged with the best audio when ffmpeg is present;
// otherwise they stay video-only and say so.
func videoLabel(f *ytdlp.RawFormat, height int, hasMerger bool) (string, string) {
	id := f.ID()
	label := fmt.Sprintf("Video %dp", height)
	selector := id

	var qualifiers []string
	switch {
	case f.HasAudio():
	case hasMerger:
		label += " + audio"
		selector = id + "+bestaudio/best"
	default:
		qualifiers = append(qualifiers, "video-only")
	}

	if ext := strings.ToUpper(f.Ext); ext != "" && !hasMerger {
		qualifiers = append(qualifiers, ext)
	}
	if len(qualifiers) > 0 {
		label += " (" + strings.Join(qualifiers, ", ") + ")"
	}
	return label, selector
}

func audioLabel(f *ytdlp.RawFormat) string {
	label := "Audio"
	if f.ABR.Valid {
		if abr := int(math.RoundToEven(f.ABR.Value)); abr != 0 {
			label += fmt.Sprintf(" %d kbps", abr)
		}
	}
	if ext := strings.ToUpper(f.Ext); ext != "" {
		label += " (" + ext + ")"
	}
	return label
}
