package services

import (
	"context"
	"fmt"

	"github.com/ajramos/courrier/internal/bus"
	"github.com/ajramos/courrier/internal/courrier"
	"github.com/ajramos/courrier/internal/mirror"
)

// Registry owns one RecordStore per direction over a shared mirror and bus
type Registry struct {
	stores map[courrier.Direction]*RecordStoreImpl
}

// DirectionSummary is the stats of one direction
type DirectionSummary struct {
	Direction courrier.Direction
	Stats     courrier.Stats
}

// NewRegistry creates a store for every direction. Call Load before use.
func NewRegistry(m *mirror.Mirror, b bus.Bus, opts ...Option) *Registry {
	r := &Registry{stores: make(map[courrier.Direction]*RecordStoreImpl, 2)}
	for _, d := range courrier.Directions() {
		r.stores[d] = NewRecordStore(d, m, b, opts...)
	}
	return r
}

// Load loads every store
func (r *Registry) Load(ctx context.Context) {
	for _, d := range courrier.Directions() {
		r.stores[d].Load(ctx)
	}
}

// Store returns the store of d
func (r *Registry) Store(d courrier.Direction) (*RecordStoreImpl, error) {
	if r == nil {
		return nil, fmt.Errorf("registry not initialized")
	}
	s, ok := r.stores[d]
	if !ok {
		return nil, fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, d)
	}
	return s, nil
}

// Summary returns the stats of every direction in display order
func (r *Registry) Summary() []DirectionSummary {
	out := make([]DirectionSummary, 0, len(r.stores))
	for _, d := range courrier.Directions() {
		out = append(out, DirectionSummary{Direction: d, Stats: r.stores[d].Stats()})
	}
	return out
}

// Close detaches every store from the bus
func (r *Registry) Close() {
	if r == nil {
		return
	}
	for _, s := range r.stores {
		s.Close()
	}
}
