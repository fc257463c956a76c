package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
)

const DefaultRuntimeSettingsFile = "./data/settings.json"

// RuntimeSettings is the subset of configuration that can be changed
// through the gateway API without a restart.
type RuntimeSettings struct {
	BackendURL     string `json:"backend_url"`
	SyncCronExpr   string `json:"sync_cron_expr"`
	CandidateEmail string `json:"candidate_email"`
}

func RuntimeSettingsFilePath() string {
	return getEnvString("SETTINGS_FILE", DefaultRuntimeSettingsFile)
}

func (s RuntimeSettings) Validate() error {
	if strings.TrimSpace(s.BackendURL) == "" {
		return fmt.Errorf("backend_url is required")
	}
	parsed, err := url.Parse(s.BackendURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid backend_url")
	}
	if strings.TrimSpace(s.SyncCronExpr) == "" {
		return fmt.Errorf("sync_cron_expr is required")
	}
	if _, err := cron.ParseStandard(s.SyncCronExpr); err != nil {
		return fmt.Errorf("invalid sync_cron_expr: %w", err)
	}
	if email := strings.TrimSpace(s.CandidateEmail); email != "" && !strings.Contains(email, "@") {
		return fmt.Errorf("invalid candidate_email")
	}
	return nil
}

func (c *Config) RuntimeSettings() RuntimeSettings {
	return RuntimeSettings{
		BackendURL:     c.Backend.BaseURL,
		SyncCronExpr:   c.Sync.CronExpr,
		CandidateEmail: c.Candidate.Email,
	}
}

func WithRuntimeSettings(settings RuntimeSettings) Option {
	return func(c *Config) {
		if strings.TrimSpace(settings.BackendURL) != "" {
			c.Backend.BaseURL = settings.BackendURL
		}
		if strings.TrimSpace(settings.SyncCronExpr) != "" {
			c.Sync.CronExpr = settings.SyncCronExpr
		}
		if strings.TrimSpace(settings.CandidateEmail) != "" {
			c.Candidate.Email = settings.CandidateEmail
		}
	}
}

// FileSettingsStore persists runtime settings as JSON on disk.
// Safe for concurrent use.
type FileSettingsStore struct {
	mu       sync.Mutex
	path     string
	fallback RuntimeSettings
}

func NewFileSettingsStore(path string, fallback RuntimeSettings) *FileSettingsStore {
	return &FileSettingsStore{path: path, fallback: fallback}
}

func (s *FileSettingsStore) GetRuntimeSettings() (RuntimeSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s.fallback, nil
		}
		return RuntimeSettings{}, fmt.Errorf("read settings file: %w", err)
	}
	var settings RuntimeSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return RuntimeSettings{}, fmt.Errorf("parse settings file: %w", err)
	}
	return settings, nil
}

func (s *FileSettingsStore) UpdateRuntimeSettings(next RuntimeSettings) (RuntimeSettings, error) {
	if err := next.Validate(); err != nil {
		return RuntimeSettings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return RuntimeSettings{}, fmt.Errorf("create settings directory: %w", err)
	}
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return RuntimeSettings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return RuntimeSettings{}, fmt.Errorf("write settings file: %w", err)
	}
	return next, nil
}
