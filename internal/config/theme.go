package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// themeFile is the on-disk layout of a theme
type themeFile struct {
	Courrier *Theme `yaml:"courrier"`
}

// ThemeLoader handles loading and saving themes
type ThemeLoader struct {
	themesDir string
}

// NewThemeLoader creates a new theme loader
func NewThemeLoader(themesDir string) *ThemeLoader {
	return &ThemeLoader{
		themesDir: themesDir,
	}
}

// DefaultThemesDir returns ~/.config/courrier/themes
func DefaultThemesDir() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "themes")
}

// LoadThemeFromFile loads a theme from a YAML file. The name may omit the
// .yaml extension.
func (tl *ThemeLoader) LoadThemeFromFile(filename string) (*Theme, error) {
	if filepath.Ext(filename) == "" {
		filename += ".yaml"
	}
	// Try to load from themes directory first
	path := filepath.Join(tl.themesDir, filename)
	if !fileExists(path) {
		// Try absolute path
		path = filename
		if !fileExists(path) {
			return nil, fmt.Errorf("theme file not found: %s", filename)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme file: %w", err)
	}

	var tf themeFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse theme file: %w", err)
	}

	if tf.Courrier == nil {
		return nil, fmt.Errorf("invalid theme file: missing courrier section")
	}
	if tf.Courrier.Name == "" {
		tf.Courrier.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	return tf.Courrier, nil
}

// ListAvailableThemes returns the theme names found in the themes directory
func (tl *ThemeLoader) ListAvailableThemes() ([]string, error) {
	var themes []string

	entries, err := os.ReadDir(tl.themesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read themes directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".yaml" {
			themes = append(themes, strings.TrimSuffix(entry.Name(), ".yaml"))
		}
	}

	return themes, nil
}

// SaveThemeToFile saves a theme configuration to a YAML file
func (tl *ThemeLoader) SaveThemeToFile(theme *Theme, filename string) error {
	// Ensure themes directory exists
	if err := os.MkdirAll(tl.themesDir, 0755); err != nil {
		return fmt.Errorf("failed to create themes directory: %w", err)
	}

	data, err := yaml.Marshal(themeFile{Courrier: theme})
	if err != nil {
		return fmt.Errorf("failed to marshal theme: %w", err)
	}

	if err := os.WriteFile(filepath.Join(tl.themesDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write theme file: %w", err)
	}

	return nil
}

// ValidateTheme checks that the colours every view needs are set
func (tl *ThemeLoader) ValidateTheme(theme *Theme) error {
	if theme == nil {
		return fmt.Errorf("theme is nil")
	}

	requiredColors := []struct {
		name  string
		color Color
	}{
		{"Body.FgColor", theme.Body.FgColor},
		{"Body.BgColor", theme.Body.BgColor},
		{"Status.Pending", theme.Status.Pending},
		{"Status.InProgress", theme.Status.InProgress},
		{"Status.Processed", theme.Status.Processed},
		{"Status.Archived", theme.Status.Archived},
	}

	for _, req := range requiredColors {
		if req.color == "" {
			return fmt.Errorf("missing required color: %s", req.name)
		}
	}

	return nil
}

// CreateDefaultTheme writes the default theme if none exists
func (tl *ThemeLoader) CreateDefaultTheme() error {
	if fileExists(filepath.Join(tl.themesDir, "courrier-dark.yaml")) {
		return nil // Theme already exists
	}
	return tl.SaveThemeToFile(DefaultTheme(), "courrier-dark.yaml")
}

// Helper function to check if file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
