package downloader

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/guiyumin/clipgrab/internal/extractor"
	"github.com/guiyumin/clipgrab/internal/job"
	"github.com/guiyumin/clipgrab/internal/media"
	"github.com/guiyumin/clipgrab/internal/ytdlp"
)

// Fetcher retrieves raw metadata and reports merge capability
type Fetcher interface {
	FetchMetadata(ctx context.Context, url string) (*ytdlp.RawItem, error)
	HasMerger() bool
}

// JobRunner runs a validated download selection
type JobRunner interface {
	Run(ctx context.Context, req job.Request) (*job.Result, error)
}

// Service ties classification, metadata, format selection and download
// jobs together. It is shared by the HTTP server and the CLI.
type Service struct {
	fetcher Fetcher
	jobs    JobRunner
	log     zerolog.Logger
}

// NewService creates a Service
func NewService(fetcher Fetcher, jobs JobRunner, log zerolog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		jobs:    jobs,
		log:     log.With().Str("component", "downloader").Logger(),
	}
}

// Inspection is the metadata response for one URL
type Inspection struct {
	URL             string             `json:"url"`
	Platform        extractor.Platform `json:"platform"`
	FFmpegAvailable bool               `json:"ffmpeg_available"`
	InstagramKind   *string            `json:"instagram_kind"`
	Title           string             `json:"title"`
	Uploader        *string            `json:"uploader"`
	Items           []media.Payload    `json:"items"`
}

// Inspect classifies url, fetches its metadata and builds the per-item
// download options
func (s *Service) Inspect(ctx context.Context, url string) (*Inspection, error) {
	platform, err := extractor.Classify(url)
	if err != nil {
		return nil, err
	}

	root, err := s.fetcher.FetchMetadata(ctx, url)
	if err != nil {
		s.log.Warn().Err(err).Str("url", url).Msg("metadata fetch failed")
		return nil, err
	}

	hasMerger := s.fetcher.HasMerger()
	items := media.Flatten(root)
	payload, kind := media.BuildPayload(items, platform, url, hasMerger)

	uploader := root.Uploader
	if uploader == "" {
		uploader = root.Channel
	}

	s.log.Debug().
		Str("url", url).
		Str("platform", string(platform)).
		Int("items", len(items)).
		Msg("metadata ready")

	return &Inspection{
		URL:             url,
		Platform:        platform,
		FFmpegAvailable: hasMerger,
		InstagramKind:   kind,
		Title:           media.NormalizeTitle(root.Title, fmt.Sprintf("%s media", platform)),
		Uploader:        optional(uploader),
		Items:           payload,
	}, nil
}

// Request is a download request as the user expressed it
type Request struct {
	URL string
	// Index is the 1-based item number, nil when not given
	Index    *int
	FormatID string
}

// Download resolves the request against fresh metadata and runs a job.
// The caller must Cleanup the returned result.
func (s *Service) Download(ctx context.Context, req Request) (*job.Result, error) {
	if _, err := extractor.Classify(req.URL); err != nil {
		return nil, err
	}

	root, err := s.fetcher.FetchMetadata(ctx, req.URL)
	if err != nil {
		s.log.Warn().Err(err).Str("url", req.URL).Msg("metadata fetch failed")
		return nil, err
	}

	s.log.Debug().Str("url", req.URL).Str("phase", string(job.PhaseValidating)).Msg("resolving selection")
	sel, err := job.Resolve(media.Flatten(root), req.Index, req.FormatID, s.fetcher.HasMerger())
	if err != nil {
		return nil, err
	}

	return s.jobs.Run(ctx, job.Request{URL: req.URL, Selection: sel})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// FormatBytes renders a byte count for humans
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// FormatDuration renders a media duration as m:ss or h:mm:ss
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return "??:??"
	}
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	if m >= 60 {
		h := m / 60
		m = m % 60
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
