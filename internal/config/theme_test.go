package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ajramos/courrier/internal/courrier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeLoader_DefaultRoundTrip(t *testing.T) {
	tl := NewThemeLoader(filepath.Join(t.TempDir(), "themes"))
	require.NoError(t, tl.CreateDefaultTheme())
	require.NoError(t, tl.CreateDefaultTheme()) // second call is a no-op

	names, err := tl.ListAvailableThemes()
	require.NoError(t, err)
	assert.Equal(t, []string{"courrier-dark"}, names)

	theme, err := tl.LoadThemeFromFile("courrier-dark")
	require.NoError(t, err)
	assert.Equal(t, DefaultTheme(), theme)
	assert.NoError(t, tl.ValidateTheme(theme))
}

func TestThemeLoader_Errors(t *testing.T) {
	dir := t.TempDir()
	tl := NewThemeLoader(dir)

	_, err := tl.LoadThemeFromFile("missing")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("palette:\n  body: {}\n"), 0644))
	_, err = tl.LoadThemeFromFile("other.yaml")
	assert.ErrorContains(t, err, "missing courrier section")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("courrier: [\n"), 0644))
	_, err = tl.LoadThemeFromFile("broken")
	assert.ErrorContains(t, err, "failed to parse")

	_, err = NewThemeLoader(filepath.Join(dir, "nope")).ListAvailableThemes()
	assert.Error(t, err)
}

func TestThemeLoader_NameFromFile(t *testing.T) {
	dir := t.TempDir()
	yml := "courrier:\n  status:\n    pending: \"#ffffff\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "light.yaml"), []byte(yml), 0644))

	theme, err := NewThemeLoader(dir).LoadThemeFromFile("light")
	require.NoError(t, err)
	assert.Equal(t, "light", theme.Name)
	assert.Equal(t, Color("#ffffff"), theme.Status.Pending)
	assert.ErrorContains(t, NewThemeLoader(dir).ValidateTheme(theme), "Body.FgColor")
}

func TestTheme_StatusColor(t *testing.T) {
	theme := DefaultTheme()

	tests := []struct {
		status   courrier.Status
		expected Color
	}{
		{courrier.StatusPending, theme.Status.Pending},
		{"en_cours", theme.Status.InProgress},
		{"traité", theme.Status.Processed},
		{courrier.StatusArchived, theme.Status.Archived},
		{"rejeté", theme.Status.Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, theme.StatusColor(tt.status), string(tt.status))
	}

	var nilTheme *Theme
	assert.Equal(t, DefaultColor, nilTheme.StatusColor(courrier.StatusPending))
	assert.Equal(t, DefaultColor, (&Theme{}).StatusColor(courrier.StatusPending))
}

func TestColor_String(t *testing.T) {
	assert.Equal(t, "#50fa7b", NewColor("#50fa7b").String())
	assert.Equal(t, "-", DefaultColor.String())
}
