package mirror

import (
	"context"
	"sync"
)

// MemoryMedium keeps slots in process memory. An optional quota caps the
// total size of all values, like a browser storage area.
type MemoryMedium struct {
	mu       sync.RWMutex
	values   map[string]string
	versions map[string]int64
	maxBytes int
	failWith error
}

// NewMemoryMedium constructs a MemoryMedium; maxBytes <= 0 means unlimited
func NewMemoryMedium(maxBytes int) *MemoryMedium {
	return &MemoryMedium{
		values:   make(map[string]string),
		versions: make(map[string]int64),
		maxBytes: maxBytes,
	}
}

// Get returns the value stored under key
func (m *MemoryMedium) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set replaces the value stored under key and returns the new write count
func (m *MemoryMedium) Set(ctx context.Context, key, value string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return 0, m.failWith
	}
	if m.maxBytes > 0 {
		used := len(value)
		for k, v := range m.values {
			if k != key {
				used += len(v)
			}
		}
		if used > m.maxBytes {
			return 0, ErrQuotaExceeded
		}
	}
	m.values[key] = value
	m.versions[key]++
	return m.versions[key], nil
}

// Version returns the number of writes to key
func (m *MemoryMedium) Version(ctx context.Context, key string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.versions[key], nil
}

// Delete removes key, counting as a change
func (m *MemoryMedium) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		delete(m.values, key)
		m.versions[key]++
	}
}

// FailWrites makes every following Set return err; nil restores normal writes
func (m *MemoryMedium) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}
