package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/guiyumin/clipgrab/internal/downloader"
	"github.com/guiyumin/clipgrab/internal/media"
)

// printInspection writes a readable summary of the metadata
func printInspection(w io.Writer, in *downloader.Inspection) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)
	faint := color.New(color.Faint)

	bold.Fprintf(w, "%s\n", in.Title)
	fmt.Fprintf(w, "  Platform: %s", in.Platform)
	if in.InstagramKind != nil {
		fmt.Fprintf(w, " (%s)", *in.InstagramKind)
	}
	fmt.Fprintln(w)
	if in.Uploader != nil {
		fmt.Fprintf(w, "  Uploader: %s\n", *in.Uploader)
	}
	if !in.FFmpegAvailable {
		yellow.Fprintln(w, "  ffmpeg not found: separate video and audio streams cannot be merged")
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))

	for i, item := range in.Items {
		cyan.Fprintf(w, "[%d]", item.Index)
		fmt.Fprintf(w, " %s ", item.Title)
		faint.Fprintf(w, "(%s", item.Type)
		if item.Duration.Valid {
			faint.Fprintf(w, ", %s", downloader.FormatDuration(time.Duration(item.Duration.Value*float64(time.Second))))
		}
		faint.Fprintln(w, ")")

		for _, opt := range item.DownloadOptions {
			fmt.Fprintf(w, "    %-12s %s\n", opt.Value, modeLabel(opt))
		}
		if i < len(in.Items)-1 {
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
}

func modeLabel(opt media.DownloadOption) string {
	switch opt.Mode {
	case media.ModeVideo:
		return color.GreenString(opt.Label)
	case media.ModeAudio:
		return color.MagentaString(opt.Label)
	default:
		return opt.Label
	}
}

func printSaved(w io.Writer, path string, size int64) {
	fmt.Fprintf(w, "%s %s (%s)\n", color.GreenString("Saved:"), path, downloader.FormatBytes(size))
}
