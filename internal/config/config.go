package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DefaultBaseURL is the local-development fallback for the remote service.
const DefaultBaseURL = "http://localhost:8000"

type Config struct {
	DataDir  string `json:"data_dir"`
	LogLevel string `json:"log_level"`
	Server   struct {
		BaseURL        string `json:"base_url"`
		ChatPath       string `json:"chat_path"`
		TimeoutSeconds int    `json:"timeout_seconds"`
	} `json:"server"`
	Upload struct {
		MaxFileBytes  int64  `json:"max_file_bytes"`
		MaxConcurrent int    `json:"max_concurrent"`
		FailedPolicy  string `json:"failed_policy"` // keep | remove
	} `json:"upload"`
	Selection string `json:"selection"` // exclusive | toggle
	Health    struct {
		PollSchedule string `json:"poll_schedule"`
	} `json:"health"`
	HTTP struct {
		Port int `json:"port"`
	} `json:"http"`
	Telegram struct {
		Token string `json:"token"`
	} `json:"telegram"`
}

func Load(path string) (*Config, error) {
	// A .env alongside the working directory feeds the env overrides below.
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:  filepath.Join(os.Getenv("HOME"), ".docchat"),
		LogLevel: "info",
	}
	cfg.Server.BaseURL = DefaultBaseURL
	cfg.Server.ChatPath = "/chat"
	cfg.Server.TimeoutSeconds = 60
	cfg.Upload.MaxFileBytes = 10 << 20
	cfg.Upload.MaxConcurrent = 2
	cfg.Upload.FailedPolicy = "keep"
	cfg.Selection = "exclusive"
	cfg.Health.PollSchedule = "@every 30s"
	cfg.HTTP.Port = 8787

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if baseURL := os.Getenv("DOCCHAT_API_URL"); baseURL != "" {
		cfg.Server.BaseURL = baseURL
	}
	if dataDir := os.Getenv("DOCCHAT_DATA_DIR"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if tgToken := os.Getenv("TELEGRAM_BOT_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}

	return cfg, nil
}

// Save writes the config atomically, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
