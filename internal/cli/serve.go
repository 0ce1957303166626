package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/guiyumin/clipgrab/internal/config"
	"github.com/guiyumin/clipgrab/internal/server"
)

var (
	servePort   int
	serveDetach bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI and HTTP API",
	Long: `Run the web UI and HTTP API.

Settings come from the config file, .env and the environment
(PORT, YTDLP_COOKIES_FILE, WORKSPACE_DIR, HISTORY_DB, ...).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveDetach {
			return startDetached()
		}

		a, err := newApp(false)
		if err != nil {
			return err
		}
		if servePort != 0 {
			a.cfg.Port = servePort
			if err := a.cfg.Validate(); err != nil {
				return err
			}
		}

		if _, err := exec.LookPath(a.cfg.YtdlpBinary); err != nil {
			a.log.Warn().Str("binary", a.cfg.YtdlpBinary).Msg("yt-dlp not found in PATH, requests will fail")
		}
		if !a.client.HasMerger() {
			a.log.Warn().Str("binary", a.cfg.FFmpegBinary).Msg("ffmpeg not found, merged formats are disabled")
		}

		var history *server.HistoryDB
		if a.cfg.HistoryDB != "" {
			history, err = server.NewHistoryDB(a.cfg.HistoryDB)
			if err != nil {
				return err
			}
			defer history.Close()
		}

		srv := server.New(a.cfg, a.log, a.service, history)
		if err := srv.Run(cmd.Context()); err != nil {
			return err
		}
		a.log.Info().Msg("server exited cleanly")
		return nil
	},
}

// startDetached re-runs serve in the background with output appended to
// a log file next to the config
func startDetached() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}

	logPath := filepath.Join(filepath.Dir(config.SavePath()), "clipgrab.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	args := []string{"serve"}
	if servePort != 0 {
		args = append(args, "--port", fmt.Sprint(servePort))
	}

	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	detachProcess(child)

	if err := child.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	fmt.Printf("clipgrab server started (PID %d)\n", child.Process.Pid)
	fmt.Printf("Logs: %s\n", logPath)
	return child.Process.Release()
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides PORT)")
	serveCmd.Flags().BoolVarP(&serveDetach, "detach", "d", false, "run in the background")
	rootCmd.AddCommand(serveCmd)
}
