package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ajramos/courrier/internal/config"
)

// ThemeUpdateCallback represents a function that gets called when theme changes
type ThemeUpdateCallback func(*config.Theme) error

// ComponentRegistration represents a component that can receive theme updates
type ComponentRegistration struct {
	name     string
	callback ThemeUpdateCallback
}

// ThemeServiceImpl implements ThemeService
type ThemeServiceImpl struct {
	mu             sync.RWMutex
	currentTheme   string
	themesDir      string
	customThemeDir string

	registeredComponents []ComponentRegistration
	currentThemeConfig   *config.Theme // Cache current theme for new registrations
}

// NewThemeService creates a new theme service. Themes are looked up in
// customThemeDir first, then themesDir; the built-in default theme needs no
// file.
func NewThemeService(themesDir string, customThemeDir string) *ThemeServiceImpl {
	return &ThemeServiceImpl{
		currentTheme:   config.DefaultTheme().Name,
		themesDir:      themesDir,
		customThemeDir: customThemeDir,
	}
}

// ListAvailableThemes returns all available theme names, the built-in one first
func (s *ThemeServiceImpl) ListAvailableThemes(ctx context.Context) ([]string, error) {
	seen := map[string]bool{config.DefaultTheme().Name: true}
	themes := []string{config.DefaultTheme().Name}

	for _, dir := range s.dirs() {
		names, err := getThemesFromDirectory(dir)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if !seen[name] {
				themes = append(themes, name)
				seen[name] = true
			}
		}
	}
	return themes, nil
}

// GetCurrentTheme returns the name of the currently active theme
func (s *ThemeServiceImpl) GetCurrentTheme(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentTheme, nil
}

// ApplyTheme loads the named theme and pushes it to every registered component
func (s *ThemeServiceImpl) ApplyTheme(ctx context.Context, name string) error {
	theme, err := s.loadThemeByName(name)
	if err != nil {
		return fmt.Errorf("failed to load theme '%s': %w", name, err)
	}

	s.mu.Lock()
	s.currentThemeConfig = theme
	s.currentTheme = name
	components := append([]ComponentRegistration(nil), s.registeredComponents...)
	s.mu.Unlock()

	var errs []string
	for _, component := range components {
		if err := component.callback(theme); err != nil {
			errs = append(errs, fmt.Sprintf("component '%s': %v", component.name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("theme update errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// RegisterComponent registers a component to receive theme updates
func (s *ThemeServiceImpl) RegisterComponent(name string, callback ThemeUpdateCallback) error {
	if callback == nil {
		return fmt.Errorf("%w: nil theme callback for '%s'", ErrInvalidInput, name)
	}
	s.mu.Lock()
	s.registeredComponents = append(s.registeredComponents, ComponentRegistration{
		name:     name,
		callback: callback,
	})
	current := s.currentThemeConfig
	s.mu.Unlock()

	// If we have a current theme, apply it to the new component immediately
	if current != nil {
		if err := callback(current); err != nil {
			return fmt.Errorf("failed to apply current theme to component '%s': %w", name, err)
		}
	}
	return nil
}

// UnregisterComponent removes a component from theme updates
func (s *ThemeServiceImpl) UnregisterComponent(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, component := range s.registeredComponents {
		if component.name == name {
			s.registeredComponents = append(s.registeredComponents[:i], s.registeredComponents[i+1:]...)
			break
		}
	}
}

// GetCurrentThemeConfig returns the currently loaded theme, the default one
// before any ApplyTheme
func (s *ThemeServiceImpl) GetCurrentThemeConfig() *config.Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentThemeConfig == nil {
		return config.DefaultTheme()
	}
	return s.currentThemeConfig
}

// GetThemeConfig loads a theme without applying it
func (s *ThemeServiceImpl) GetThemeConfig(ctx context.Context, name string) (*config.Theme, error) {
	theme, err := s.loadThemeByName(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load theme '%s': %w", name, err)
	}
	return theme, nil
}

// ValidateTheme checks if a theme is valid and can be loaded
func (s *ThemeServiceImpl) ValidateTheme(ctx context.Context, name string) error {
	theme, err := s.loadThemeByName(name)
	if err != nil {
		return err
	}
	return config.NewThemeLoader(s.themesDir).ValidateTheme(theme)
}

// dirs lists theme directories in priority order
func (s *ThemeServiceImpl) dirs() []string {
	var dirs []string
	if s.customThemeDir != "" {
		dirs = append(dirs, s.customThemeDir)
	}
	if s.themesDir != "" && s.themesDir != s.customThemeDir {
		dirs = append(dirs, s.themesDir)
	}
	return dirs
}

// loadThemeByName loads a theme configuration by name, checking all directories
func (s *ThemeServiceImpl) loadThemeByName(name string) (*config.Theme, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("%w: invalid theme name %q", ErrInvalidInput, name)
	}
	fileName := name + ".yaml"

	for _, dir := range s.dirs() {
		if _, err := os.Stat(filepath.Join(dir, fileName)); err == nil {
			return config.NewThemeLoader(dir).LoadThemeFromFile(fileName)
		}
	}
	if name == config.DefaultTheme().Name {
		return config.DefaultTheme(), nil
	}
	return nil, fmt.Errorf("theme '%s' not found in any theme directory", name)
}

// getThemesFromDirectory reads theme names from a directory; a missing
// directory has none
func getThemesFromDirectory(dir string) ([]string, error) {
	var themes []string

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return themes, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read themes directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".yaml") {
			themes = append(themes, strings.TrimSuffix(entry.Name(), ".yaml"))
		}
	}
	return themes, nil
}
