package mirror

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ajramos/courrier/internal/courrier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileMedium_EmptyDir(t *testing.T) {
	_, err := NewFileMedium("  ", 0)
	assert.Error(t, err)
}

func TestFileMedium_GetSet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f, err := NewFileMedium(dir, 0)
	require.NoError(t, err)

	_, ok, err := f.Get(ctx, "courriers-arrive")
	require.NoError(t, err)
	assert.False(t, ok)

	mustSet(t, f, "courriers-arrive", `[{"id":"1"}]`)
	text, ok, err := f.Get(ctx, "courriers-arrive")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, text)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
	assert.Equal(t, "courriers-arrive.json", entries[0].Name())
}

func TestFileMedium_InvalidKey(t *testing.T) {
	f, err := NewFileMedium(t.TempDir(), 0)
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", `a\b`} {
		_, err := f.Set(context.Background(), key, "x")
		assert.Error(t, err, key)
	}
}

func TestFileMedium_Quota(t *testing.T) {
	f, err := NewFileMedium(t.TempDir(), 4)
	require.NoError(t, err)

	_, err = f.Set(context.Background(), "k", "too long")
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestFileMedium_VersionChangesOnWrite(t *testing.T) {
	ctx := context.Background()
	f, err := NewFileMedium(t.TempDir(), 0)
	require.NoError(t, err)

	v0, err := f.Version(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v0)

	set := mustSet(t, f, "k", "[]")
	v1, err := f.Version(ctx, "k")
	require.NoError(t, err)
	assert.NotEqual(t, v0, v1)
	assert.Equal(t, set, v1)
}

func TestFileMedium_VersionDistinguishesSameSizeWrites(t *testing.T) {
	ctx := context.Background()
	f, err := NewFileMedium(t.TempDir(), 0)
	require.NoError(t, err)

	// same length, written back to back within one clock tick
	first := mustSet(t, f, "k", `[{"id":"a"}]`)
	second := mustSet(t, f, "k", `[{"id":"b"}]`)
	assert.NotEqual(t, first, second)

	v, err := f.Version(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, second, v)

	// writing the same content back yields the same token
	assert.Equal(t, first, mustSet(t, f, "k", `[{"id":"a"}]`))
}

func TestFileMedium_MirrorRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f, err := NewFileMedium(dir, 0)
	require.NoError(t, err)
	m := New(f)

	list := records(4, courrier.Outgoing)
	mustWrite(t, m, courrier.Outgoing, list)
	assert.Equal(t, list, m.Read(ctx, courrier.Outgoing))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "courriers-arrive.json"), []byte("garbage"), 0o600))
	assert.Empty(t, m.Read(ctx, courrier.Incoming))
}
