package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/ajramos/courrier/internal/bus"
	"github.com/ajramos/courrier/internal/config"
	"github.com/ajramos/courrier/internal/db"
	"github.com/ajramos/courrier/internal/mirror"
	"github.com/ajramos/courrier/internal/services"
)

// env is everything a command needs to work on the registry
type env struct {
	cfg      *config.Config
	logger   *log.Logger
	logFile  *os.File
	dbStore  *db.Store
	mirror   *mirror.Mirror
	watcher  *bus.Watcher
	registry *services.Registry
	cancel   context.CancelFunc
}

// getConfigPath returns the configuration file path using the following priority:
// 1. CLI flag
// 2. Environment variable COURRIER_CONFIG
// 3. Default path ~/.config/courrier/config.json
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envPath := os.Getenv("COURRIER_CONFIG"); envPath != "" {
		return expandPath(envPath)
	}
	return config.DefaultConfigPath()
}

// expandPath expands ~ to the home directory
func expandPath(path string) string {
	if len(path) >= 2 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// loadConfig reads the configuration through a Manager so it is validated
// and completed with defaults
func loadConfig(path string) (*config.Config, error) {
	m := config.NewManager()
	if err := m.LoadFromFile(path); err != nil {
		return nil, err
	}
	return m.GetConfig(), nil
}

// openLogger writes to the configured log file, or to stderr when verbose
func openLogger(cfg *config.Config, verbose bool) (*log.Logger, *os.File) {
	if verbose {
		return log.New(os.Stderr, "[courrier] ", log.LstdFlags|log.Lmicroseconds), nil
	}
	lf := cfg.LogFile
	if lf == "" {
		lf = filepath.Join(config.DefaultLogDir(), "courrier.log")
	}
	lf = expandPath(lf)
	if err := os.MkdirAll(filepath.Dir(lf), 0o755); err != nil {
		return log.New(io.Discard, "", 0), nil
	}
	f, err := os.OpenFile(lf, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return log.New(io.Discard, "", 0), nil
	}
	return log.New(f, "[courrier] ", log.LstdFlags|log.Lmicroseconds), f
}

// openMedium opens the configured storage backend
func openMedium(ctx context.Context, cfg *config.Config) (mirror.Medium, *db.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return mirror.NewMemoryMedium(cfg.Storage.MaxValueBytes), nil, nil
	case config.BackendFile:
		fm, err := mirror.NewFileMedium(cfg.StoragePath(), cfg.Storage.MaxValueBytes)
		if err != nil {
			return nil, nil, err
		}
		return fm, nil, nil
	case config.BackendSQLite, "":
		st, err := db.Open(ctx, cfg.StoragePath())
		if err != nil {
			return nil, nil, err
		}
		return db.NewSlotStore(st, cfg.Storage.MaxValueBytes), st, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

// openEnv wires medium, mirror, bus and registry, then loads both
// collections. With watch set, changes written by other processes are
// picked up until ctx ends.
func openEnv(ctx context.Context, cfg *config.Config, logger *log.Logger, watch bool) (*env, error) {
	medium, st, err := openMedium(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	e := &env{cfg: cfg, logger: logger, dbStore: st, cancel: cancel}
	e.mirror = mirror.New(medium, mirror.WithLogger(logger), mirror.WithKeyPrefix(cfg.Storage.KeyPrefix))

	local := bus.NewLocalBus()
	var b bus.Bus = local
	if watch && cfg.Sync.Enabled {
		e.watcher = bus.NewWatcher(ctx, e.mirror, cfg.GetPollInterval(), logger)
		b = bus.Group{local, e.watcher}
	}

	e.registry = services.NewRegistry(e.mirror, b, services.WithLogger(logger))
	e.registry.Load(ctx)
	if e.watcher != nil {
		go e.watcher.Run(ctx)
	}
	logger.Printf("registry opened (backend %s, %s)", cfg.Storage.Backend, cfg.StoragePath())
	return e, nil
}

func (e *env) Close() {
	e.cancel()
	e.registry.Close()
	if e.dbStore != nil {
		if err := e.dbStore.Close(); err != nil {
			e.logger.Printf("ERROR: closing database: %v", err)
		}
	}
	if e.logFile != nil {
		_ = e.logFile.Close()
	}
}
