// Package config provides centralized configuration for driverhelper.
// Values start from DefaultRuntimeConfig, then an optional YAML file, then
// the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/ilyakaznacheev/cleanenv"
)

// AppName is used for data, state and config directories.
const AppName = "driverhelper"

// Connectivity modes.
const (
	ModeFile    = "file"
	ModeProbe   = "probe"
	ModeOnline  = "online"
	ModeOffline = "offline"
)

// RuntimeConfig holds every tunable value.
type RuntimeConfig struct {
	Storage      StorageConfig      `yaml:"storage"`
	Sync         SyncConfig         `yaml:"sync"`
	Sink         SinkConfig         `yaml:"sink"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
	Daemon       DaemonConfig       `yaml:"daemon"`
	Gateway      GatewayConfig      `yaml:"gateway"`
}

// StorageConfig holds local store configuration.
type StorageConfig struct {
	// Path is the SQLite file, or ":memory:".
	// Default: $XDG_DATA_HOME/driverhelper/driverhelper.db
	Path string `yaml:"path" env:"DRIVERHELPER_DATABASE" env-description:"SQLite database path or :memory:"`

	// MinFreeSpace is the minimum free space required for write operations.
	// Default: 10MB
	MinFreeSpace uint64 `yaml:"min_free_space" env:"DRIVERHELPER_MIN_FREE_SPACE" env-description:"Bytes that must be free before a write"`

	// MinFreeSpaceWarning is the threshold for warning about low disk space.
	// Default: 50MB
	MinFreeSpaceWarning uint64 `yaml:"min_free_space_warning" env:"DRIVERHELPER_MIN_FREE_SPACE_WARNING" env-description:"Bytes below which a low-space warning is logged"`
}

// SyncConfig holds outbox drain configuration.
type SyncConfig struct {
	// Interval between scheduled drains.
	// Default: 60s
	Interval time.Duration `yaml:"interval" env:"DRIVERHELPER_SYNC_INTERVAL" env-description:"Time between scheduled drains"`

	// Timeout bounds one sink call.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout" env:"DRIVERHELPER_SYNC_TIMEOUT" env-description:"Timeout for one sink call"`

	// Retention prunes synced outbox rows older than this. Zero keeps them forever.
	// Default: 0
	Retention time.Duration `yaml:"retention" env:"DRIVERHELPER_SYNC_RETENTION" env-description:"Age after which synced outbox rows are pruned (0 keeps all)"`
}

// SinkConfig holds the remote sink chain configuration.
type SinkConfig struct {
	WebhookURL    string `yaml:"webhook_url" env:"CLOUD_SYNC_WEBHOOK_URL" env-description:"Primary sink: webhook receiving sync batches"`
	WebhookToken  string `yaml:"webhook_token" env:"CLOUD_SYNC_WEBHOOK_TOKEN" env-description:"Bearer token for the webhook"`
	PostgresDSN   string `yaml:"postgres_dsn" env:"DRIVERHELPER_SINK_POSTGRES_DSN" env-description:"Secondary sink: Postgres connection string"`
	PostgresTable string `yaml:"postgres_table" env:"SUPABASE_SYNC_TABLE" env-description:"Table the Postgres sink inserts into"`

	// Source is sent in the webhook envelope.
	// Default: driver-helper
	Source string `yaml:"source" env:"DRIVERHELPER_SINK_SOURCE" env-description:"Source name sent to the webhook"`
}

// ConnectivityConfig selects and tunes the connectivity source.
type ConnectivityConfig struct {
	// Mode is one of file, probe, online, offline.
	// Default: file
	Mode string `yaml:"mode" env:"DRIVERHELPER_CONNECTIVITY_MODE" env-description:"Connectivity source: file, probe, online or offline"`

	// File holds "online" or "offline".
	// Default: $XDG_STATE_HOME/driverhelper/connectivity
	File string `yaml:"file" env:"DRIVERHELPER_CONNECTIVITY_FILE" env-description:"State file watched in file mode"`

	ProbeURL string `yaml:"probe_url" env:"DRIVERHELPER_PROBE_URL" env-description:"URL checked in probe mode"`

	// ProbeInterval is how often ProbeURL is checked.
	// Default: 15s
	ProbeInterval time.Duration `yaml:"probe_interval" env:"DRIVERHELPER_PROBE_INTERVAL" env-description:"Time between reachability probes"`
}

// DaemonConfig holds daemon-related configuration.
type DaemonConfig struct {
	// StartupWait is the time to wait for the daemon to start before checking status.
	// Default: 500ms
	StartupWait time.Duration `yaml:"startup_wait" env:"DRIVERHELPER_DAEMON_STARTUP_WAIT"`

	// KillTimeout is the timeout for graceful shutdown before force kill.
	// Default: 5s
	KillTimeout time.Duration `yaml:"kill_timeout" env:"DRIVERHELPER_DAEMON_KILL_TIMEOUT"`

	// HTTPAddr serves /health, /status, /metrics and /ws. Empty disables it.
	// Default: 127.0.0.1:7767
	HTTPAddr string `yaml:"http_addr" env:"DRIVERHELPER_DAEMON_HTTP_ADDR" env-description:"Daemon status server address"`

	// PruneSchedule is the cron spec for outbox retention.
	// Default: @daily
	PruneSchedule string `yaml:"prune_schedule" env:"DRIVERHELPER_PRUNE_SCHEDULE"`

	// LogMaxSizeMB rotates the daemon log after this many megabytes.
	// Default: 10
	LogMaxSizeMB int `yaml:"log_max_size_mb" env:"DRIVERHELPER_LOG_MAX_SIZE_MB"`

	// LogMaxBackups is the number of rotated logs kept.
	// Default: 3
	LogMaxBackups int `yaml:"log_max_backups" env:"DRIVERHELPER_LOG_MAX_BACKUPS"`
}

// GatewayConfig holds the reference sync gateway configuration.
type GatewayConfig struct {
	// Addr is the listen address.
	// Default: :8787
	Addr string `yaml:"addr" env:"DRIVERHELPER_GATEWAY_ADDR" env-description:"Gateway listen address"`

	// LedgerPath is the Badger directory used for deduplication.
	// Default: $XDG_DATA_HOME/driverhelper/gateway-ledger
	LedgerPath string `yaml:"ledger_path" env:"DRIVERHELPER_GATEWAY_LEDGER" env-description:"Gateway dedup ledger directory"`

	// LedgerTTL expires ledger entries. Zero keeps them forever.
	// Default: 720h
	LedgerTTL time.Duration `yaml:"ledger_ttl" env:"DRIVERHELPER_GATEWAY_LEDGER_TTL"`
}

// DefaultRuntimeConfig returns the default runtime configuration.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Storage: StorageConfig{
			Path:                filepath.Join(xdg.DataHome, AppName, AppName+".db"),
			MinFreeSpace:        10 * 1024 * 1024, // 10MB
			MinFreeSpaceWarning: 50 * 1024 * 1024, // 50MB
		},
		Sync: SyncConfig{
			Interval: 60 * time.Second,
			Timeout:  30 * time.Second,
		},
		Sink: SinkConfig{
			PostgresTable: "driver_helper_sync",
			Source:        "driver-helper",
		},
		Connectivity: ConnectivityConfig{
			Mode:          ModeFile,
			File:          filepath.Join(xdg.StateHome, AppName, "connectivity"),
			ProbeInterval: 15 * time.Second,
		},
		Daemon: DaemonConfig{
			StartupWait:   500 * time.Millisecond,
			KillTimeout:   5 * time.Second,
			HTTPAddr:      "127.0.0.1:7767",
			PruneSchedule: "@daily",
			LogMaxSizeMB:  10,
			LogMaxBackups: 3,
		},
		Gateway: GatewayConfig{
			Addr:       ":8787",
			LedgerPath: filepath.Join(xdg.DataHome, AppName, "gateway-ledger"),
			LedgerTTL:  720 * time.Hour,
		},
	}
}

// Global holds the process-wide configuration.
// It is initialized with defaults and environment overrides.
var Global = initGlobal()

func initGlobal() *RuntimeConfig {
	cfg := DefaultRuntimeConfig()
	_ = cfg.loadFromEnv()
	return cfg
}

func (c *RuntimeConfig) loadFromEnv() error {
	return cleanenv.ReadEnv(c)
}

// DefaultPath returns the config file location.
// DRIVERHELPER_CONFIG overrides it.
func DefaultPath() string {
	if p := os.Getenv("DRIVERHELPER_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// Load reads configuration with priority ENV > YAML > defaults.
// A missing file is not an error unless path was given explicitly.
func Load(path string) (*RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *RuntimeConfig) Validate() error {
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", c.Sync.Interval)
	}
	if c.Sync.Timeout <= 0 {
		return fmt.Errorf("sync timeout must be positive, got %s", c.Sync.Timeout)
	}
	if c.Sync.Retention < 0 {
		return fmt.Errorf("sync retention must not be negative")
	}

	switch c.Connectivity.Mode {
	case ModeFile, ModeProbe, ModeOnline, ModeOffline:
	default:
		return fmt.Errorf("unknown connectivity mode %q", c.Connectivity.Mode)
	}
	if c.Connectivity.Mode == ModeProbe && c.Connectivity.ProbeURL == "" {
		return fmt.Errorf("probe mode requires probe_url")
	}

	if c.Sink.WebhookURL != "" {
		u, err := url.Parse(c.Sink.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid webhook url %q", c.Sink.WebhookURL)
		}
	}
	if c.Sink.PostgresDSN != "" && c.Sink.PostgresTable == "" {
		return fmt.Errorf("postgres sink requires a table name")
	}

	return nil
}

// EnvHelp describes every environment variable the config reads.
func EnvHelp() (string, error) {
	return cleanenv.GetDescription(&RuntimeConfig{}, nil)
}

// ReloadFromEnv reloads configuration from environment variables.
func (c *RuntimeConfig) ReloadFromEnv() error {
	return c.loadFromEnv()
}

// Reset resets the configuration to defaults.
// This is primarily useful for testing.
func (c *RuntimeConfig) Reset() {
	*c = *DefaultRuntimeConfig()
}
