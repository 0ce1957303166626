package cli

import (
	"github.com/rs/zerolog"

	"github.com/guiyumin/clipgrab/internal/config"
	"github.com/guiyumin/clipgrab/internal/downloader"
	"github.com/guiyumin/clipgrab/internal/job"
	"github.com/guiyumin/clipgrab/internal/logger"
	"github.com/guiyumin/clipgrab/internal/ytdlp"
)

// app is the wired object graph shared by the commands
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	client  *ytdlp.Client
	service *downloader.Service
}

// newApp loads configuration and builds the services. Commands that print
// to the terminal pass quiet to keep info logs out of their output.
func newApp(quiet bool) (*app, error) {
	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg)
	if quiet && !verbose && log.GetLevel() < zerolog.WarnLevel {
		log = log.Level(zerolog.WarnLevel)
	}

	client := ytdlp.New(ytdlp.Options{
		Binary:       cfg.YtdlpBinary,
		FFmpegBinary: cfg.FFmpegBinary,
		CookiesFile:  cfg.CookiesFile,
		Logger:       log,
	})
	orchestrator := job.NewOrchestrator(cfg.WorkspaceDir, client, cfg.DownloadTimeout, log)

	return &app{
		cfg:     cfg,
		log:     log,
		client:  client,
		service: downloader.NewService(client, orchestrator, log),
	}, nil
}
