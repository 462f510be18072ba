package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/docchat/internal/config"
	"github.com/user/docchat/internal/session"
	"github.com/user/docchat/internal/state"
	"github.com/user/docchat/pkg/ragapi"
	"github.com/user/docchat/pkg/ragapi/httpapi"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your PDFs through a local document registry",
}

func init() {
	defaultPath := filepath.Join(os.Getenv("HOME"), ".docchat", "config.json")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultPath, "config file path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func newClient(cfg *config.Config) ragapi.Client {
	return httpapi.New(&ragapi.Config{
		BaseURL:  cfg.Server.BaseURL,
		ChatPath: cfg.Server.ChatPath,
		Timeout:  cfg.Server.TimeoutSeconds,
	})
}

func newCoordinator(cfg *config.Config) (*session.Coordinator, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	registry := state.NewRegistryStore(cfg.DataDir)
	transcripts := state.NewTranscriptStore(cfg.DataDir)
	return session.New(newClient(cfg), registry, transcripts, session.Options{
		Selection:            session.SelectionMode(cfg.Selection),
		FailedUploads:        session.FailedUploadPolicy(cfg.Upload.FailedPolicy),
		MaxFileBytes:         cfg.Upload.MaxFileBytes,
		MaxConcurrentUploads: int64(cfg.Upload.MaxConcurrent),
	})
}
