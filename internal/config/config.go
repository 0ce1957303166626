package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	appDirName     = "clipgrab"
	configFileName = "config.yml"

	// configPathEnv points at an alternative config file
	configPathEnv = "CLIPGRAB_CONFIG"
)

// Config holds the settings for the server and the CLI. Values come from
// the defaults, then the YAML file, then the environment.
type Config struct {
	CookiesFile     string        `yaml:"cookies_file,omitempty" env:"YTDLP_COOKIES_FILE"`
	Port            int           `yaml:"port" env:"PORT"`
	YtdlpBinary     string        `yaml:"ytdlp_binary" env:"YTDLP_BINARY"`
	FFmpegBinary    string        `yaml:"ffmpeg_binary" env:"FFMPEG_BINARY"`
	WorkspaceDir    string        `yaml:"workspace_dir" env:"WORKSPACE_DIR"`
	DownloadTimeout time.Duration `yaml:"download_timeout" env:"DOWNLOAD_TIMEOUT"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL"`
	Environment     string        `yaml:"environment" env:"ENVIRONMENT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// HistoryDB is the sqlite file for job history, empty disables it
	HistoryDB string `yaml:"history_db,omitempty" env:"HISTORY_DB"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Port:            5000,
		YtdlpBinary:     "yt-dlp",
		FFmpegBinary:    "ffmpeg",
		WorkspaceDir:    "tmp_downloads",
		LogLevel:        "info",
		Environment:     "development",
		ShutdownTimeout: 10 * time.Second,
	}
}

// ConfigDir returns the per-user clipgrab directory
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDirName), nil
}

// SavePath returns where the config file is read from and written to
func SavePath() string {
	if p := strings.TrimSpace(os.Getenv(configPathEnv)); p != "" {
		return p
	}
	dir, err := ConfigDir()
	if err != nil {
		return configFileName
	}
	return filepath.Join(dir, configFileName)
}

// Exists reports whether the config file is present
func Exists() bool {
	_, err := os.Stat(SavePath())
	return err == nil
}

// Load reads the config file at SavePath, if any, and applies the
// environment on top
func Load() (*Config, error) {
	return LoadFile(SavePath())
}

// LoadFile is Load with an explicit file path. A missing file is not an
// error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load that falls back to defaults on any error
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Save writes cfg to SavePath
func Save(cfg *Config) error {
	path := SavePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadEnvFiles loads .env files into the process environment. Later files
// override earlier ones, and both override variables already set.
func LoadEnvFiles(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
		}
	}
}

func (c *Config) normalize() {
	c.CookiesFile = strings.TrimSpace(c.CookiesFile)
	c.YtdlpBinary = strings.TrimSpace(c.YtdlpBinary)
	c.FFmpegBinary = strings.TrimSpace(c.FFmpegBinary)
	c.WorkspaceDir = strings.TrimSpace(c.WorkspaceDir)
	c.HistoryDB = strings.TrimSpace(c.HistoryDB)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.YtdlpBinary == "" {
		return fmt.Errorf("YTDLP_BINARY must not be empty")
	}
	if c.WorkspaceDir == "" {
		return fmt.Errorf("WORKSPACE_DIR must not be empty")
	}
	if c.DownloadTimeout < 0 {
		return fmt.Errorf("DOWNLOAD_TIMEOUT must not be negative")
	}
	return nil
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
