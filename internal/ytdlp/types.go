package ytdlp

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// RawItem is one media unit as described by yt-dlp's JSON output.
// Playlists carry their children in Entries.
type RawItem struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Uploader  string     `json:"uploader"`
	Channel   string     `json:"channel"`
	Thumbnail string     `json:"thumbnail"`
	URL       string     `json:"url"`
	Ext       string     `json:"ext"`
	VCodec    string     `json:"vcodec"`
	ACodec    string     `json:"acodec"`
	Duration  Number     `json:"duration"`
	Formats   Formats    `json:"formats"`
	Entries   []*RawItem `json:"entries"`

	empty bool
}

func (it *RawItem) UnmarshalJSON(data []byte) error {
	type plain RawItem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*it = RawItem(p)

	data = bytes.TrimSpace(data)
	if len(data) >= 2 && data[0] == '{' {
		it.empty = len(bytes.TrimSpace(data[1:len(data)-1])) == 0
	}
	return nil
}

// IsEmpty reports whether the item is nil or was decoded from {}
func (it *RawItem) IsEmpty() bool {
	return it == nil || it.empty
}

// RawFormat is one encoding of a RawItem
type RawFormat struct {
	FormatID Text   `json:"format_id"`
	VCodec   string `json:"vcodec"`
	ACodec   string `json:"acodec"`
	Height   Number `json:"height"`
	FPS      Number `json:"fps"`
	TBR      Number `json:"tbr"`
	ABR      Number `json:"abr"`
	Ext      string `json:"ext"`
	URL      string `json:"url"`
}

// codecNone is yt-dlp's marker for a missing stream
const codecNone = "none"

// ID returns the trimmed format identifier
func (f *RawFormat) ID() string {
	return strings.TrimSpace(string(f.FormatID))
}

// VideoCodec returns the video codec, "none" when absent
func (f *RawFormat) VideoCodec() string {
	return codecOrNone(f.VCodec)
}

// AudioCodec returns the audio codec, "none" when absent
func (f *RawFormat) AudioCodec() string {
	return codecOrNone(f.ACodec)
}

// HasVideo reports whether the format carries a video stream
func (f *RawFormat) HasVideo() bool {
	return f.VideoCodec() != codecNone
}

// HasAudio reports whether the format carries an audio stream
func (f *RawFormat) HasAudio() bool {
	return f.AudioCodec() != codecNone
}

func codecOrNone(codec string) string {
	if codec == "" {
		return codecNone
	}
	return codec
}

// Number is a JSON number that tolerates null, numeric strings and
// garbage; anything unparsable decodes as absent
type Number struct {
	Value float64
	Valid bool
}

// Num builds a present Number
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Or returns the value, or def when absent
func (n Number) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Value
}

// Text is a JSON string that also accepts bare numbers
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*t = Text(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err == nil {
		*t = Text(data)
	}
	return nil
}

// Formats decodes a format list, skipping entries that are not objects.
// A value that is not a list at all decodes as empty.
type Formats []*RawFormat

func (fs *Formats) UnmarshalJSON(data []byte) error {
	*fs = nil

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	out := make(Formats, 0, len(raw))
	for _, msg := range raw {
		msg = bytes.TrimSpace(msg)
		if len(msg) == 0 || msg[0] != '{' {
			continue
		}
		var f RawFormat
		if err := json.Unmarshal(msg, &f); err != nil {
			continue
		}
		out = append(out, &f)
	}
	*fs = out
	return nil
}
