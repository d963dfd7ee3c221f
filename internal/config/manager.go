package config

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Manager provides centralized configuration management with validation
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	watchers []func(*Config)

	configPath  string
	lastModTime time.Time
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config:   DefaultConfig(),
		watchers: make([]func(*Config), 0),
	}
}

// LoadFromFile loads configuration from a file with validation
func (m *Manager) LoadFromFile(configPath string) error {
	configPath = expandHome(configPath)

	// Load configuration
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	applyDefaults(cfg)

	m.mu.Lock()
	m.config = cfg
	m.configPath = configPath
	if stat, err := os.Stat(configPath); err == nil {
		m.lastModTime = stat.ModTime()
	}
	watchers := append([]func(*Config){}, m.watchers...)
	m.mu.Unlock()

	notifyWatchers(watchers, cfg)
	return nil
}

// GetConfig returns a copy of the current configuration
func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modifications
	return copyConfig(m.config)
}

// ConfigPath returns the file the configuration was loaded from
func (m *Manager) ConfigPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configPath
}

// UpdateConfig updates the configuration with validation
func (m *Manager) UpdateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	// Validate the new configuration
	if err := validateConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	applyDefaults(cfg)

	m.mu.Lock()
	m.config = copyConfig(cfg)
	watchers := append([]func(*Config){}, m.watchers...)
	m.mu.Unlock()

	notifyWatchers(watchers, cfg)
	return nil
}

// SaveToFile saves the current configuration to a file
func (m *Manager) SaveToFile(filePath string) error {
	m.mu.RLock()
	cfg := copyConfig(m.config)
	m.mu.RUnlock()

	if err := cfg.SaveConfig(filePath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// AddWatcher adds a configuration change watcher. Watchers run
// synchronously after each successful load or update.
func (m *Manager) AddWatcher(watcher func(*Config)) {
	if watcher == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.watchers = append(m.watchers, watcher)
}

// Changed reports whether the config file was modified since it was loaded
func (m *Manager) Changed() bool {
	m.mu.RLock()
	configPath, last := m.configPath, m.lastModTime
	m.mu.RUnlock()

	if configPath == "" {
		return false
	}
	stat, err := os.Stat(configPath)
	if err != nil {
		return false
	}
	return stat.ModTime().After(last)
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	switch cfg.Storage.Backend {
	case "", BackendSQLite, BackendFile, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Storage.MaxValueBytes < 0 {
		return fmt.Errorf("max_value_bytes cannot be negative")
	}

	if cfg.Sync.PollInterval != "" {
		d, err := time.ParseDuration(cfg.Sync.PollInterval)
		if err != nil {
			return fmt.Errorf("invalid poll interval: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("poll interval must be positive")
		}
	}

	return nil
}

// applyDefaults applies default values for missing configuration
func applyDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendSQLite
	}

	if cfg.Keys == (KeyBindings{}) {
		cfg.Keys = DefaultKeyBindings()
	}

	if cfg.Layout == (LayoutConfig{}) {
		cfg.Layout = DefaultLayoutConfig()
	}

	if cfg.Layout.CurrentTheme == "" {
		cfg.Layout.CurrentTheme = DefaultLayoutConfig().CurrentTheme
	}
}

func copyConfig(cfg *Config) *Config {
	if cfg == nil {
		return nil
	}

	c := *cfg
	return &c
}

func notifyWatchers(watchers []func(*Config), cfg *Config) {
	for _, watcher := range watchers {
		watcher(copyConfig(cfg))
	}
}
