package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/guiyumin/clipgrab/internal/metrics"
	"github.com/guiyumin/clipgrab/internal/ytdlp"
)

// Phase is a step in a download job's life
type Phase string

const (
	PhaseCreated    Phase = "created"
	PhaseValidating Phase = "validating"
	PhaseRunning    Phase = "running"
	PhaseLocating   Phase = "locating"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

const noOutputMessage = "Download finished but no file was produced."

// Downloader materializes media into a directory
type Downloader interface {
	Download(ctx context.Context, req ytdlp.DownloadRequest) error
}

// Orchestrator runs download jobs, each in its own workspace
type Orchestrator struct {
	root       string
	downloader Downloader
	timeout    time.Duration
	log        zerolog.Logger
}

// NewOrchestrator creates an Orchestrator that places workspaces under
// root. A zero timeout lets yt-dlp run as long as the request lives.
func NewOrchestrator(root string, downloader Downloader, timeout time.Duration, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		root:       root,
		downloader: downloader,
		timeout:    timeout,
		log:        log,
	}
}

// Request is one job to run
type Request struct {
	URL       string
	Selection *Selection
}

// Result is a finished download. The file lives in the job's workspace
// until Cleanup is called.
type Result struct {
	JobID    string
	Path     string
	Filename string
	Size     int64

	workspace *Workspace
}

// Cleanup deletes the job workspace
func (r *Result) Cleanup() error {
	if r == nil || r.workspace == nil {
		return nil
	}
	return r.workspace.Cleanup()
}

// Run executes yt-dlp for the selection and locates the produced file.
// On failure the workspace is removed before returning; on success the
// caller must Cleanup the result.
func (o *Orchestrator) Run(ctx context.Context, req Request) (res *Result, err error) {
	if req.Selection == nil {
		return nil, errors.New("job has no selection")
	}

	start := time.Now()
	ws, err := NewWorkspace(o.root)
	if err != nil {
		metrics.RecordJob(string(PhaseFailed), time.Since(start).Seconds())
		return nil, err
	}

	log := o.log.With().Str("job_id", ws.ID).Str("url", req.URL).Logger()
	log.Debug().Str("phase", string(PhaseCreated)).Str("dir", ws.Dir).Msg("workspace created")

	defer func() {
		phase := PhaseCompleted
		if err != nil {
			phase = PhaseFailed
			if cleanupErr := ws.Cleanup(); cleanupErr != nil {
				log.Error().Err(cleanupErr).Msg("failed to remove workspace")
			}
			log.Warn().Err(err).Str("phase", string(phase)).Msg("download job failed")
		}
		metrics.RecordJob(string(phase), time.Since(start).Seconds())
	}()

	runCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	log.Info().
		Str("phase", string(PhaseRunning)).
		Str("format_id", req.Selection.FormatID).
		Str("selector", req.Selection.Selector).
		Int("index", req.Selection.Index).
		Msg("running yt-dlp")

	err = o.downloader.Download(runCtx, ytdlp.DownloadRequest{
		URL:       req.URL,
		OutputDir: ws.Dir,
		Selector:  req.Selection.Selector,
		ItemCount: req.Selection.ItemCount,
		Index:     req.Selection.Index,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && o.timeout > 0 {
			return nil, &ytdlp.ExtractionError{
				Message: fmt.Sprintf("Download timed out after %s.", o.timeout),
				Err:     err,
			}
		}
		return nil, err
	}

	log.Debug().Str("phase", string(PhaseLocating)).Msg("scanning workspace")
	path, ok, err := LocateOutput(ws.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan workspace: %w", err)
	}
	if !ok {
		return nil, &ytdlp.ExtractionError{Message: noOutputMessage}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat download: %w", err)
	}

	log.Info().
		Str("phase", string(PhaseCompleted)).
		Str("file", filepath.Base(path)).
		Int64("bytes", info.Size()).
		Dur("elapsed", time.Since(start)).
		Msg("download job finished")

	return &Result{
		JobID:     ws.ID,
		Path:      path,
		Filename:  filepath.Base(path),
		Size:      info.Size(),
		workspace: ws,
	}, nil
}
