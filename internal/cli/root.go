package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/guiyumin/clipgrab/internal/downloader"
	"github.com/guiyumin/clipgrab/internal/version"
)

var (
	output    string
	formatID  string
	itemIndex int
	info      bool
	batchFile string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "clipgrab [url]",
	Short: "Download media from Instagram, YouTube, Facebook and Loom",
	Long: `clipgrab fetches media through yt-dlp.

Run "clipgrab serve" for the web UI, or pass a URL to download from the
terminal:

  clipgrab https://youtu.be/dQw4w9WgXcQ
  clipgrab --info https://www.instagram.com/p/ABC123/
  clipgrab -i 2 -f best https://www.instagram.com/p/ABC123/
  clipgrab --batch urls.txt`,
	Version:       version.Version,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchFile != "" {
			return runBatch(cmd.Context(), batchFile)
		}
		if len(args) == 0 {
			return cmd.Help()
		}
		if info {
			return runInfo(cmd.Context(), args[0])
		}
		return runDownload(cmd.Context(), args[0])
	},
}

func init() {
	addDownloadFlags(rootCmd)
	rootCmd.Flags().BoolVar(&info, "info", false, "show media info without downloading")
	rootCmd.Flags().StringVarP(&batchFile, "batch", "b", "", "file with one URL per line")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show info-level logs")
}

func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory (default: current directory)")
	cmd.Flags().StringVarP(&formatID, "format", "f", "", `option id from --info (default "best")`)
	cmd.Flags().IntVarP(&itemIndex, "index", "i", 0, "1-based item number for multi-item URLs")
}

// Execute runs the root command until it finishes or the process is
// interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, errCancelled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func runInfo(ctx context.Context, url string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}

	inspection, err := runWithSpinner(ctx, "Fetching media info", url, func(ctx context.Context) (*downloader.Inspection, error) {
		return a.service.Inspect(ctx, url)
	})
	if err != nil {
		return err
	}

	printInspection(os.Stdout, inspection)
	return nil
}

func runDownload(ctx context.Context, url string) error {
	a, err := newApp(true)
	if err != nil {
		return err
	}

	req := downloader.Request{URL: url, FormatID: formatID}
	if itemIndex != 0 {
		req.Index = &itemIndex
	}

	result, err := runWithSpinner(ctx, "Downloading", url, func(ctx context.Context) (saved, error) {
		res, err := a.service.Download(ctx, req)
		if err != nil {
			return saved{}, err
		}
		defer func() {
			if err := res.Cleanup(); err != nil {
				a.log.Warn().Err(err).Str("job_id", res.JobID).Msg("failed to remove workspace")
			}
		}()

		dest, err := moveFile(res.Path, output, res.Filename)
		return saved{path: dest, size: res.Size}, err
	})
	if err != nil {
		return err
	}

	printSaved(os.Stdout, result.path, result.size)
	return nil
}

type saved struct {
	path string
	size int64
}

// moveFile moves src into dir under name, copying when a rename is not
// possible across filesystems
func moveFile(src, dir, name string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	dest := filepath.Join(dir, name)
	if err := os.Rename(src, dest); err == nil {
		return dest, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return dest, out.Close()
}
