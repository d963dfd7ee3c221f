package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// FileMedium stores each key as <dir>/<key>.json. Writes go to a temporary
// file that is renamed over the target, so readers never see partial data.
type FileMedium struct {
	dir      string
	maxBytes int
}

// NewFileMedium creates the directory if needed; maxBytes <= 0 means no
// per-value limit
func NewFileMedium(dir string, maxBytes int) (*FileMedium, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("empty storage directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileMedium{dir: dir, maxBytes: maxBytes}, nil
}

func (f *FileMedium) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

// Get reads the file for key
func (f *FileMedium) Get(ctx context.Context, key string) (string, bool, error) {
	p, err := f.path(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Set atomically replaces the file for key and returns the content version
// of value
func (f *FileMedium) Set(ctx context.Context, key, value string) (int64, error) {
	p, err := f.path(key)
	if err != nil {
		return 0, err
	}
	if f.maxBytes > 0 && len(value) > f.maxBytes {
		return 0, ErrQuotaExceeded
	}
	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}
	if err := os.Rename(tmpName, p); err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}
	return contentVersion(value), nil
}

// Version is a hash of the stored content: it moves whenever the content
// does, however close together the writes land
func (f *FileMedium) Version(ctx context.Context, key string) (int64, error) {
	text, ok, err := f.Get(ctx, key)
	if err != nil || !ok {
		return 0, err
	}
	return contentVersion(text), nil
}

// contentVersion maps text onto a positive token; 0 is kept for "never
// written"
func contentVersion(text string) int64 {
	v := int64(xxhash.Sum64String(text) &^ (1 << 63))
	if v == 0 {
		v = 1
	}
	return v
}
