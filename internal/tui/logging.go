package tui

import (
	"log"
	"os"
	"path/filepath"

	"github.com/ajramos/courrier/internal/config"
)

// initLogger opens the log file named by the configuration, falling back to
// ~/.config/courrier/courrier.log
func (a *App) initLogger() {
	if a.logger != nil && a.logFile != nil {
		return
	}
	lf := a.Config.LogFile
	if lf == "" {
		lf = filepath.Join(config.DefaultLogDir(), "courrier.log")
	}
	if err := os.MkdirAll(filepath.Dir(lf), 0o755); err != nil {
		return
	}
	if f, err := os.OpenFile(lf, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		a.logFile = f
		a.logger = log.New(f, "[courrier] ", log.LstdFlags|log.Lmicroseconds)
	}
}

// closeLogger closes the log file if opened
func (a *App) closeLogger() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}
