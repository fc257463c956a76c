package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pooja-fusiongs/ai-interview-platform-sub000/pkg/log"
)

// Config holds all gateway configuration.
// Values come from environment variables with sensible defaults; a
// .env file in the working directory is honored when present.
//
// Environment Variables:
// Backend:
// - BACKEND_BASE_URL: platform API base URL (required)
// - BACKEND_TIMEOUT: request timeout in seconds (default: 15)
// - TOKEN_FILE: path of the persisted bearer token (default: <DATA_DIR>/token)
//
// Candidate identity:
// - CANDIDATE_EMAIL: email used for applied-status checks
// - CANDIDATE_ROLE: role of the signed-in user (default: candidate)
//
// Reconciler:
// - RECONCILE_CONCURRENCY: bound on per-job fallback lookups (default: 8)
// - RECONCILE_CACHE_TTL: applied-status cache TTL in minutes (default: 15)
//
// Sync monitor:
// - SYNC_CRON: cron expression for the ATS sync-log refresh (default: @every 2m)
//
// Gateway HTTP:
// - HTTP_ADDR: listen address (default: :8585)
// - UI_STATIC_DIR: static asset dir served at / (optional)
//
// Storage:
// - DATA_DIR: data directory for the sqlite store and token file (default: ./data)
//
// Notifier:
// - TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID: enable telegram notifications
//
// Session:
// - ACTIVITY_INTERVAL: keep-alive ping interval in seconds (default: 60)
// - LOG_LEVEL: debug|info|warn|error (default: info)

type Config struct {
	Backend   BackendConfig   `json:"backend"`
	Candidate CandidateConfig `json:"candidate"`
	Reconcile ReconcileConfig `json:"reconcile"`
	Sync      SyncConfig      `json:"sync"`
	HTTP      HTTPConfig      `json:"http"`
	Data      DataConfig      `json:"data"`
	Notify    NotifyConfig    `json:"notify"`
	Session   SessionConfig   `json:"session"`
	LogLevel  string          `json:"log_level"`
}

type BackendConfig struct {
	BaseURL   string        `json:"base_url"`
	Timeout   time.Duration `json:"timeout"`
	TokenFile string        `json:"token_file"`
}

type CandidateConfig struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type ReconcileConfig struct {
	Concurrency int           `json:"concurrency"`
	CacheTTL    time.Duration `json:"cache_ttl"`
}

type SyncConfig struct {
	CronExpr string `json:"cron_expr"`
}

type HTTPConfig struct {
	Addr        string `json:"addr"`
	UIStaticDir string `json:"ui_static_dir"`
}

type DataConfig struct {
	Dir string `json:"dir"`
}

// DBPath returns the sqlite database location inside the data dir.
func (d DataConfig) DBPath() string {
	return filepath.Join(d.Dir, "gateway.db")
}

type NotifyConfig struct {
	TelegramToken  string `json:"telegram_token"`
	TelegramChatID int64  `json:"telegram_chat_id"`
}

type SessionConfig struct {
	ActivityInterval time.Duration `json:"activity_interval"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from
// environment variables and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug("Loaded .env file")
	}

	dataDir := getEnvString("DATA_DIR", "./data")
	config := &Config{
		Backend: BackendConfig{
			BaseURL:   getEnvString("BACKEND_BASE_URL", ""),
			Timeout:   time.Duration(getEnvInt("BACKEND_TIMEOUT", 15)) * time.Second,
			TokenFile: getEnvString("TOKEN_FILE", filepath.Join(dataDir, "token")),
		},
		Candidate: CandidateConfig{
			Email: getEnvString("CANDIDATE_EMAIL", ""),
			Role:  getEnvString("CANDIDATE_ROLE", "candidate"),
		},
		Reconcile: ReconcileConfig{
			Concurrency: getEnvInt("RECONCILE_CONCURRENCY", 8),
			CacheTTL:    time.Duration(getEnvInt("RECONCILE_CACHE_TTL", 15)) * time.Minute,
		},
		Sync: SyncConfig{
			CronExpr: getEnvString("SYNC_CRON", "@every 2m"),
		},
		HTTP: HTTPConfig{
			Addr:        getEnvString("HTTP_ADDR", ":8585"),
			UIStaticDir: getEnvString("UI_STATIC_DIR", ""),
		},
		Data: DataConfig{
			Dir: dataDir,
		},
		Notify: NotifyConfig{
			TelegramToken:  getEnvString("TELEGRAM_BOT_TOKEN", ""),
			TelegramChatID: getEnvInt64("TELEGRAM_CHAT_ID", 0),
		},
		Session: SessionConfig{
			ActivityInterval: time.Duration(getEnvInt("ACTIVITY_INTERVAL", 60)) * time.Second,
		},
		LogLevel: getEnvString("LOG_LEVEL", "info"),
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return fmt.Errorf("BACKEND_BASE_URL is required")
	}
	if _, err := url.Parse(c.Backend.BaseURL); err != nil {
		return fmt.Errorf("invalid BACKEND_BASE_URL: %w", err)
	}
	if c.Reconcile.Concurrency <= 0 {
		return fmt.Errorf("RECONCILE_CONCURRENCY must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
