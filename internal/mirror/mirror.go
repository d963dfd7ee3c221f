// Package mirror keeps the durable copy of each direction's collection: one
// JSON array per direction, stored under a direction-specific key in a
// key-value medium.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/ajramos/courrier/internal/courrier"
)

var (
	// ErrPersist wraps every failure to store a collection
	ErrPersist = errors.New("persist failed")
	// ErrQuotaExceeded is returned by media that refuse a value for its size
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Medium is a durable key-value slot store. Set replaces the whole value
// in one step and returns the version it produced. Version returns a token
// that changes whenever the stored value changes, 0 when the key was never
// written.
type Medium interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) (int64, error)
	Version(ctx context.Context, key string) (int64, error)
}

// KeyFor maps a direction onto its storage key. The names match what the
// registry has always used so existing data stays readable.
func KeyFor(d courrier.Direction) string {
	switch d {
	case courrier.Incoming:
		return "courriers-arrive"
	case courrier.Outgoing:
		return "courriers-depart"
	}
	return "courriers-" + strings.ToLower(string(d))
}

// Mirror serializes collections to and from a Medium
type Mirror struct {
	medium Medium
	prefix string
	logger *log.Logger
}

// Option configures a Mirror
type Option func(*Mirror)

// WithLogger sets the logger used for degraded reads
func WithLogger(l *log.Logger) Option {
	return func(m *Mirror) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithKeyPrefix namespaces every key, e.g. per test or per profile
func WithKeyPrefix(prefix string) Option {
	return func(m *Mirror) { m.prefix = prefix }
}

// New creates a Mirror over medium
func New(medium Medium, opts ...Option) *Mirror {
	m := &Mirror{
		medium: medium,
		logger: log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Key returns the storage key for d including any prefix
func (m *Mirror) Key(d courrier.Direction) string {
	return m.prefix + KeyFor(d)
}

// Medium exposes the underlying medium, e.g. for a watcher
func (m *Mirror) Medium() Medium {
	return m.medium
}

// Write stores list under the key of d and returns the version of the slot
// this write produced. The returned error wraps ErrPersist.
func (m *Mirror) Write(ctx context.Context, d courrier.Direction, list []courrier.Record) (int64, error) {
	if m == nil || m.medium == nil {
		return 0, fmt.Errorf("%w: mirror not initialized", ErrPersist)
	}
	key := m.Key(d)
	data, err := courrier.EncodeRecords(list)
	if err != nil {
		return 0, fmt.Errorf("%w: encode %s: %w", ErrPersist, key, err)
	}
	v, err := m.medium.Set(ctx, key, string(data))
	if err != nil {
		return 0, fmt.Errorf("%w: write %s: %w", ErrPersist, key, err)
	}
	return v, nil
}

// Read returns the stored collection of d. A missing key, an unreadable
// medium or undecodable text all yield an empty collection; the cause is
// logged.
func (m *Mirror) Read(ctx context.Context, d courrier.Direction) []courrier.Record {
	list, err := m.ReadStrict(ctx, d)
	if err != nil {
		if m != nil {
			m.logger.Printf("WARN: reading %s, using empty collection: %v", m.Key(d), err)
		}
		return []courrier.Record{}
	}
	return list
}

// ReadStrict is Read with the failure reported instead of swallowed
func (m *Mirror) ReadStrict(ctx context.Context, d courrier.Direction) ([]courrier.Record, error) {
	if m == nil || m.medium == nil {
		return nil, fmt.Errorf("mirror not initialized")
	}
	key := m.Key(d)
	text, ok, err := m.medium.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || strings.TrimSpace(text) == "" {
		return []courrier.Record{}, nil
	}
	list, err := courrier.DecodeRecords([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if list == nil {
		list = []courrier.Record{}
	}
	return list, nil
}

// Version returns the medium's change token for d
func (m *Mirror) Version(ctx context.Context, d courrier.Direction) (int64, error) {
	if m == nil || m.medium == nil {
		return 0, fmt.Errorf("mirror not initialized")
	}
	return m.medium.Version(ctx, m.Key(d))
}
