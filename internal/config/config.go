package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Storage backends
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// StorageConfig selects and tunes the durable medium
type StorageConfig struct {
	// Backend is one of sqlite, file or memory
	Backend string `json:"backend"`
	// Path is the SQLite file or the directory of JSON files. Empty means
	// the default data directory.
	Path string `json:"path"`
	// MaxValueBytes rejects collections larger than this; 0 is unlimited
	MaxValueBytes int `json:"max_value_bytes"`
	// KeyPrefix namespaces the storage keys, e.g. for a second registry
	KeyPrefix string `json:"key_prefix"`
}

// SyncConfig tunes how changes made by other processes are picked up
type SyncConfig struct {
	Enabled      bool   `json:"enabled"`
	PollInterval string `json:"poll_interval"`
}

// LayoutConfig defines layout-specific configuration
type LayoutConfig struct {
	ShowStatsBar   bool   `json:"show_stats_bar"`
	ShowBorders    bool   `json:"show_borders"`
	CurrentTheme   string `json:"current_theme"`    // Active theme name (e.g., "courrier-dark")
	CustomThemeDir string `json:"custom_theme_dir"` // Custom themes directory (empty = default)
	SubjectWidth   int    `json:"subject_width"`
}

// KeyBindings defines keyboard shortcuts for the TUI
type KeyBindings struct {
	Add         string `json:"add"`
	Edit        string `json:"edit"`
	Delete      string `json:"delete"`
	Search      string `json:"search"`
	Sort        string `json:"sort"`
	Undo        string `json:"undo"`
	Refresh     string `json:"refresh"`
	SwitchTable string `json:"switch_table"`
	StatusNext  string `json:"status_next"`
	Pending     string `json:"pending"`
	InProgress  string `json:"in_progress"`
	Processed   string `json:"processed"`
	Archived    string `json:"archived"`
	Quit        string `json:"quit"`
}

// Config holds all configuration for the courrier registry
type Config struct {
	Storage StorageConfig `json:"storage"`
	Sync    SyncConfig    `json:"sync"`

	// Layout configuration
	Layout LayoutConfig `json:"layout"`

	// Keyboard shortcuts
	Keys KeyBindings `json:"keys"`

	// Logging
	LogFile string `json:"log_file"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Storage: DefaultStorageConfig(),
		Sync:    DefaultSyncConfig(),
		Layout:  DefaultLayoutConfig(),
		Keys:    DefaultKeyBindings(),
		LogFile: "",
	}
}

// DefaultStorageConfig returns the SQLite backend in the data directory
func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		Backend:       BackendSQLite,
		Path:          "",
		MaxValueBytes: 5 * 1024 * 1024,
	}
}

// DefaultSyncConfig returns default sync settings
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		Enabled:      true,
		PollInterval: "750ms",
	}
}

// DefaultLayoutConfig returns default layout configuration
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		ShowStatsBar:   true,
		ShowBorders:    true,
		CurrentTheme:   "courrier-dark",
		CustomThemeDir: "",
		SubjectWidth:   40,
	}
}

// DefaultKeyBindings returns default keyboard shortcuts
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Add:         "a",
		Edit:        "e",
		Delete:      "d",
		Search:      "/",
		Sort:        "o",
		Undo:        "U",
		Refresh:     "R",
		SwitchTable: "tab",
		StatusNext:  "s",
		Pending:     "1",
		InProgress:  "2",
		Processed:   "3",
		Archived:    "4",
		Quit:        "q",
	}
}

// LoadConfig loads configuration from file. A missing file yields the
// defaults; a malformed one is an error.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Try to load from config file
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	return cfg, nil
}

// DefaultConfigDir returns ~/.config/courrier
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "courrier")
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.json")
}

// DefaultDataDir returns the default directory for stored collections
func DefaultDataDir() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "data")
}

// DefaultLogDir returns the default log directory path
func DefaultLogDir() string {
	return DefaultConfigDir()
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetPollInterval returns the parsed sync poll interval
func (c *Config) GetPollInterval() time.Duration {
	if c.Sync.PollInterval != "" {
		if d, err := time.ParseDuration(c.Sync.PollInterval); err == nil && d > 0 {
			return d
		}
	}
	return 750 * time.Millisecond
}

// StoragePath returns where the backend keeps its data: the configured
// path, or courrier.db / json/ under the data directory
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return expandHome(c.Storage.Path)
	}
	switch c.Storage.Backend {
	case BackendFile:
		return filepath.Join(DefaultDataDir(), "json")
	default:
		return filepath.Join(DefaultDataDir(), "courrier.db")
	}
}

// expandHome expands a leading ~ to the home directory
func expandHome(path string) string {
	if len(path) < 2 || path[0] != '~' || (path[1] != '/' && path[1] != filepath.Separator) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
