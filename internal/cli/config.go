package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/guiyumin/clipgrab/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage clipgrab configuration",
	Long:  "View and initialize clipgrab settings. Environment variables override the file.",
}

// clipgrab config show - show effective config
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnvFiles()
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		fmt.Println("Current configuration:")
		fmt.Printf("  Port:             %d\n", cfg.Port)
		fmt.Printf("  yt-dlp:           %s\n", cfg.YtdlpBinary)
		fmt.Printf("  ffmpeg:           %s\n", cfg.FFmpegBinary)
		fmt.Printf("  Cookies file:     %s\n", orDefault(cfg.CookiesFile, "(none)"))
		fmt.Printf("  Workspace dir:    %s\n", cfg.WorkspaceDir)
		fmt.Printf("  Download timeout: %s\n", orDefault(durationOrNone(cfg), "(none)"))
		fmt.Printf("  History DB:       %s\n", orDefault(cfg.HistoryDB, "(disabled)"))
		fmt.Printf("  Log level:        %s\n", cfg.LogLevel)
		fmt.Printf("  Environment:      %s\n", cfg.Environment)
		fmt.Printf("  Config:           %s\n", config.SavePath())
		return nil
	},
}

// clipgrab config path - show config file path
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.SavePath())
	},
}

var configInitForce bool

// clipgrab config init - write the defaults to the config file
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if config.Exists() && !configInitForce {
			fmt.Fprintf(os.Stderr, "Config already exists at %s (use --force to overwrite)\n", config.SavePath())
			return nil
		}
		if err := config.Save(config.Default()); err != nil {
			return fmt.Errorf("failed to save: %w", err)
		}
		fmt.Printf("Config written to %s\n", config.SavePath())
		return nil
	},
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func durationOrNone(cfg *config.Config) string {
	if cfg.DownloadTimeout <= 0 {
		return ""
	}
	return cfg.DownloadTimeout.String()
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(configCmd)
}
