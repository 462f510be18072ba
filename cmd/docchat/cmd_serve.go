package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/docchat/internal/health"
	"github.com/user/docchat/internal/telegram"
	"github.com/user/docchat/internal/tokens"
	"github.com/user/docchat/internal/web"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the docchat daemon (status API, health poller, Telegram)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "docchat.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	coord, err := newCoordinator(cfg)
	if err != nil {
		return err
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Health poller
	poller := health.New(coord, cfg.Health.PollSchedule)
	if err := poller.Start(ctx); err != nil {
		return fmt.Errorf("start health poller: %w", err)
	}
	defer poller.Stop()

	// Token counter is optional: the tokenizer needs its encoding data,
	// which may be unavailable offline. The status API degrades gracefully.
	counter, err := tokens.New()
	if err != nil {
		slog.Warn("token counter disabled", "error", err)
		counter = nil
	}

	// Status API
	srv := web.NewServer(coord, counter)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: srv,
	}
	go func() {
		slog.Info("status API started", "port", cfg.HTTP.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("status API error", "error", err)
		}
	}()
	defer httpServer.Shutdown(context.Background())

	// Telegram adapter
	if cfg.Telegram.Token != "" {
		adapter, err := telegram.New(cfg.Telegram.Token, coord)
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		go adapter.Start(ctx)
		slog.Info("telegram adapter started")
	} else {
		slog.Warn("telegram adapter disabled (no token)")
	}

	slog.Info("docchat started",
		"data_dir", cfg.DataDir,
		"base_url", cfg.Server.BaseURL,
		"log_level", cfg.LogLevel,
		"pid_file", pidPath,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	return nil
}
