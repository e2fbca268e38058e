// Package config provides configuration management for prompt-tracker.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Defaults.
const (
	DefaultWorkerPort      = 37788
	DefaultDBDriver        = "sqlite"
	DefaultMaxConns        = 4
	DefaultStoreTimeoutMS  = 5000
	DefaultStoreRetries    = 3
	DefaultNotifyTimeoutMS = 3000
	DefaultNotifySound     = "default"
	DefaultLogLevel        = "info"
)

// DefaultNotifiers selects the platform notifier.
var DefaultNotifiers = []string{"auto"}

// Environment variables, also accepted as keys in the settings file.
const (
	EnvDBDriver        = "PROMPT_TRACKER_DB_DRIVER"
	EnvDBPath          = "PROMPT_TRACKER_DB_PATH"
	EnvMaxConns        = "PROMPT_TRACKER_MAX_CONNS"
	EnvStoreTimeoutMS  = "PROMPT_TRACKER_STORE_TIMEOUT_MS"
	EnvStoreRetries    = "PROMPT_TRACKER_STORE_RETRIES"
	EnvNotifyTimeoutMS = "PROMPT_TRACKER_NOTIFY_TIMEOUT_MS"
	EnvNotifiers       = "PROMPT_TRACKER_NOTIFIERS"
	EnvNotifySound     = "PROMPT_TRACKER_NOTIFY_SOUND"
	EnvWebhookURL      = "PROMPT_TRACKER_WEBHOOK_URL"
	EnvWorkerPort      = "PROMPT_TRACKER_WORKER_PORT"
	EnvLogLevel        = "PROMPT_TRACKER_LOG_LEVEL"
	EnvStripPrivate    = "PROMPT_TRACKER_STRIP_PRIVATE"
)

// Config holds prompt-tracker settings.
type Config struct {
	DBDriver        string   `json:"PROMPT_TRACKER_DB_DRIVER"`
	DBPath          string   `json:"PROMPT_TRACKER_DB_PATH"`
	NotifiersRaw    string   `json:"PROMPT_TRACKER_NOTIFIERS"`
	NotifySound     string   `json:"PROMPT_TRACKER_NOTIFY_SOUND"`
	WebhookURL      string   `json:"PROMPT_TRACKER_WEBHOOK_URL"`
	LogLevel        string   `json:"PROMPT_TRACKER_LOG_LEVEL"`
	Notifiers       []string `json:"-"`
	MaxConns        int      `json:"PROMPT_TRACKER_MAX_CONNS"`
	StoreTimeoutMS  int      `json:"PROMPT_TRACKER_STORE_TIMEOUT_MS"`
	StoreRetries    int      `json:"PROMPT_TRACKER_STORE_RETRIES"`
	NotifyTimeoutMS int      `json:"PROMPT_TRACKER_NOTIFY_TIMEOUT_MS"`
	WorkerPort      int      `json:"PROMPT_TRACKER_WORKER_PORT"`
	StripPrivate    bool     `json:"PROMPT_TRACKER_STRIP_PRIVATE"`
}

// DataDir returns the directory holding the database and settings.
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude")
}

// DBPath returns the default SQLite database path.
func DBPath() string {
	return filepath.Join(DataDir(), "prompt_tracker.db")
}

// SettingsPath returns the path to the settings file.
func SettingsPath() string {
	return filepath.Join(DataDir(), "prompt-tracker.json")
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DBDriver:        DefaultDBDriver,
		DBPath:          DBPath(),
		MaxConns:        DefaultMaxConns,
		StoreTimeoutMS:  DefaultStoreTimeoutMS,
		StoreRetries:    DefaultStoreRetries,
		NotifyTimeoutMS: DefaultNotifyTimeoutMS,
		NotifiersRaw:    strings.Join(DefaultNotifiers, ","),
		Notifiers:       append([]string(nil), DefaultNotifiers...),
		NotifySound:     DefaultNotifySound,
		WorkerPort:      DefaultWorkerPort,
		LogLevel:        DefaultLogLevel,
		StripPrivate:    true,
	}
}

// Load reads the settings file and applies environment overrides.
// A missing or malformed settings file yields the defaults.
func Load() (*Config, error) {
	cfg := Default()

	path := SettingsPath()
	data, err := os.ReadFile(path)
	if err == nil {
		// Unmarshal over the defaults so absent keys keep them
		if err := json.Unmarshal(data, cfg); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Malformed settings file, using defaults")
			cfg = Default()
		}
	}

	cfg.applyEnv()

	if cfg.NotifiersRaw != "" {
		cfg.Notifiers = splitTrim(cfg.NotifiersRaw)
	}
	if len(cfg.Notifiers) == 0 {
		cfg.Notifiers = append([]string(nil), DefaultNotifiers...)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DBPath()
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = DefaultMaxConns
	}
	if cfg.StoreTimeoutMS <= 0 {
		cfg.StoreTimeoutMS = DefaultStoreTimeoutMS
	}
	if cfg.StoreRetries < 0 {
		cfg.StoreRetries = DefaultStoreRetries
	}
	if cfg.NotifyTimeoutMS <= 0 {
		cfg.NotifyTimeoutMS = DefaultNotifyTimeoutMS
	}
	if cfg.WorkerPort <= 0 {
		cfg.WorkerPort = DefaultWorkerPort
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	envString(EnvDBDriver, &c.DBDriver)
	envString(EnvDBPath, &c.DBPath)
	envString(EnvNotifiers, &c.NotifiersRaw)
	envString(EnvNotifySound, &c.NotifySound)
	envString(EnvWebhookURL, &c.WebhookURL)
	envString(EnvLogLevel, &c.LogLevel)
	envInt(EnvMaxConns, &c.MaxConns)
	envInt(EnvStoreTimeoutMS, &c.StoreTimeoutMS)
	envInt(EnvStoreRetries, &c.StoreRetries)
	envInt(EnvNotifyTimeoutMS, &c.NotifyTimeoutMS)
	envInt(EnvWorkerPort, &c.WorkerPort)
	if v := os.Getenv(EnvStripPrivate); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.StripPrivate = b
		}
	}
}

func envString(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// StoreTimeout returns the per-attempt store deadline.
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMS) * time.Millisecond
}

// NotifyTimeout returns the notification deadline.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.NotifyTimeoutMS) * time.Millisecond
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// EnsureSettings writes a default settings file if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// EnsureAll creates the data directory and the default settings file.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}

// splitTrim splits a comma-separated string and drops empty entries.
func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
