package ytdlp

import (
	"context"
	"encoding/json"
	"os/exec"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/guiyumin/clipgrab/internal/metrics"
)

const (
	DefaultBinary       = "yt-dlp"
	DefaultFFmpegBinary = "ffmpeg"

	// OutputTemplate keeps titles to 80 characters plus the real extension
	OutputTemplate = "%(title).80s.%(ext)s"

	noCheckCertificates = "--no-check-certificates"

	metadataParseFailed = "Failed to parse media metadata from yt-dlp output."
)

// certificateErrorMarkers are lower-cased substrings yt-dlp prints when
// TLS verification fails
var certificateErrorMarkers = []string{
	"certificate_verify_failed",
	"unable to get local issuer certificate",
}

// ExtractionError reports a yt-dlp failure. Message is what the user sees.
type ExtractionError struct {
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	return e.Message
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsCertificateError reports whether a tool message describes a TLS
// certificate verification failure
func IsCertificateError(message string) bool {
	text := strings.ToLower(message)
	for _, marker := range certificateErrorMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// Options configures a Client
type Options struct {
	Binary       string
	FFmpegBinary string
	CookiesFile  string
	Runner       Runner
	Logger       zerolog.Logger
	// MergerProbe overrides the ffmpeg lookup, mainly for tests
	MergerProbe func() bool
}

// Client drives the yt-dlp executable
type Client struct {
	binary      string
	ffmpeg      string
	cookiesFile string
	runner      Runner
	log         zerolog.Logger
	mergerProbe func() bool
}

// New creates a Client, filling unset options with defaults
func New(opts Options) *Client {
	c := &Client{
		binary:      opts.Binary,
		ffmpeg:      opts.FFmpegBinary,
		cookiesFile: strings.TrimSpace(opts.CookiesFile),
		runner:      opts.Runner,
		log:         opts.Logger,
		mergerProbe: opts.MergerProbe,
	}
	if c.binary == "" {
		c.binary = DefaultBinary
	}
	if c.ffmpeg == "" {
		c.ffmpeg = DefaultFFmpegBinary
	}
	if c.runner == nil {
		c.runner = ExecRunner{}
	}
	return c
}

// HasMerger reports whether ffmpeg is available to merge separate video
// and audio streams
func (c *Client) HasMerger() bool {
	if c.mergerProbe != nil {
		return c.mergerProbe()
	}
	_, err := exec.LookPath(c.ffmpeg)
	return err == nil
}

func (c *Client) baseArgs() []string {
	args := []string{"--no-warnings"}
	if c.cookiesFile != "" {
		args = append(args, "--cookies", c.cookiesFile)
	}
	return args
}

// run executes yt-dlp once and, when the failure is a certificate
// verification error, once more with verification disabled. The second
// result is final either way.
func (c *Client) run(ctx context.Context, operation string, args []string) (*Output, error) {
	out, err := c.runner.Run(ctx, c.binary, args)
	if err != nil {
		metrics.RecordExtractorRun(operation, "error")
		return nil, &ExtractionError{Message: err.Error(), Err: err}
	}
	if out.ExitCode == 0 {
		metrics.RecordExtractorRun(operation, "success")
		return out, nil
	}

	message := failureMessage(out, "yt-dlp failed")
	if slices.Contains(args, noCheckCertificates) || !IsCertificateError(message) {
		metrics.RecordExtractorRun(operation, "failure")
		return out, nil
	}

	c.log.Warn().
		Str("operation", operation).
		Str("error", message).
		Msg("certificate verification failed, retrying without it")
	metrics.RecordCertificateRetry(operation)

	retryArgs := append([]string{noCheckCertificates}, args...)
	out, err = c.runner.Run(ctx, c.binary, retryArgs)
	if err != nil {
		metrics.RecordExtractorRun(operation, "error")
		return nil, &ExtractionError{Message: err.Error(), Err: err}
	}
	if out.ExitCode == 0 {
		metrics.RecordExtractorRun(operation, "success")
	} else {
		metrics.RecordExtractorRun(operation, "failure")
	}
	return out, nil
}

// failureMessage picks stderr, then stdout, then fallback
func failureMessage(out *Output, fallback string) string {
	if msg := strings.TrimSpace(out.Stderr); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(out.Stdout); msg != "" {
		return msg
	}
	return fallback
}

// FetchMetadata asks yt-dlp for a single JSON document describing the URL
// without downloading any media
func (c *Client) FetchMetadata(ctx context.Context, url string) (*RawItem, error) {
	args := append(c.baseArgs(), "--dump-single-json", "--skip-download", url)

	out, err := c.run(ctx, "metadata", args)
	if err != nil {
		return nil, err
	}
	if out.ExitCode != 0 {
		return nil, &ExtractionError{Message: failureMessage(out, "yt-dlp failed")}
	}

	var item RawItem
	if err := json.Unmarshal([]byte(out.Stdout), &item); err != nil {
		return nil, &ExtractionError{Message: metadataParseFailed, Err: err}
	}
	return &item, nil
}

// DownloadRequest describes one yt-dlp download invocation
type DownloadRequest struct {
	URL       string
	OutputDir string
	Selector  string
	ItemCount int
	// Index is the 1-based playlist position, 0 when not given
	Index int
}

// DownloadArgs builds the yt-dlp arguments for a download
func (c *Client) DownloadArgs(req DownloadRequest) []string {
	args := append(c.baseArgs(),
		"--restrict-filenames",
		"-P", req.OutputDir,
		"-o", OutputTemplate,
	)
	if req.Selector != "" {
		args = append(args, "-f", req.Selector)
	}

	// A single-item URL must never be expanded as a playlist
	switch {
	case req.ItemCount > 1 && req.Index > 0:
		args = append(args, "--playlist-items", strconv.Itoa(req.Index))
	case req.ItemCount <= 1:
		args = append(args, "--no-playlist")
	}

	return append(args, req.URL)
}

// Download runs yt-dlp to write the selected media into req.OutputDir
func (c *Client) Download(ctx context.Context, req DownloadRequest) error {
	out, err := c.run(ctx, "download", c.DownloadArgs(req))
	if err != nil {
		return err
	}
	if out.ExitCode != 0 {
		return &ExtractionError{Message: failureMessage(out, "Download failed")}
	}
	return nil
}
