package services

import (
	"context"
	"time"

	"github.com/ajramos/courrier/internal/config"
	"github.com/ajramos/courrier/internal/courrier"
)

// LoadState is the lifecycle of a RecordStore
type LoadState int

const (
	StateUninitialized LoadState = iota
	StateLoading
	StateReady
)

func (s LoadState) String() string {
	switch s {
	case StateLoading:
		return "LOADING"
	case StateReady:
		return "READY"
	}
	return "UNINITIALIZED"
}

// RecordStore owns the collection of one direction. Every mutation is
// written through the mirror and announced on the bus.
type RecordStore interface {
	Direction() courrier.Direction

	// Load replaces the collection with the mirrored one. Unreadable data
	// yields an empty collection.
	Load(ctx context.Context) []courrier.Record

	// Add creates a record from f and puts it at the head of the collection
	Add(ctx context.Context, f courrier.Fields) (*courrier.Record, error)
	// Update merges f into record id. It returns nil, nil when id is absent.
	Update(ctx context.Context, id string, f courrier.Fields) (*courrier.Record, error)
	SetStatus(ctx context.Context, id string, status courrier.Status) (*courrier.Record, error)
	SetStatusAsync(ctx context.Context, id string, status courrier.Status) <-chan StatusResult
	// Remove deletes record id; removing an absent id is a no-op
	Remove(ctx context.Context, id string) error
	// Restore puts back a previous version of a record: in place when the
	// id is present, at the head otherwise
	Restore(ctx context.Context, rec courrier.Record) (*courrier.Record, error)

	Get(id string) *courrier.Record
	Records() []courrier.Record
	Query(f courrier.Filter) []courrier.Record
	Stats() courrier.Stats
	State() LoadState

	// OnChange registers fn to receive the collection after every change
	OnChange(fn func([]courrier.Record)) (unsubscribe func())
	Close()
}

// StatusResult is delivered by SetStatusAsync
type StatusResult struct {
	Record *courrier.Record
	Err    error
}

// UndoService handles single-level undo of record changes
type UndoService interface {
	// Record an action for potential undo
	RecordAction(ctx context.Context, action *UndoableAction) error

	// Undo the last recorded action
	UndoLastAction(ctx context.Context) (*UndoResult, error)

	// Check if undo is available
	HasUndoableAction() bool

	// Get description of what will be undone
	GetUndoDescription() string

	// Clear undo history (e.g., after app restart)
	ClearUndoHistory() error
}

// UndoActionType represents the type of action that can be undone
type UndoActionType string

const (
	UndoActionAdd    UndoActionType = "add"
	UndoActionUpdate UndoActionType = "update"
	UndoActionStatus UndoActionType = "status"
	UndoActionRemove UndoActionType = "remove"
)

// UndoableAction represents an action that can be undone
type UndoableAction struct {
	ID          string             `json:"id"`
	Type        UndoActionType     `json:"type"`
	Direction   courrier.Direction `json:"direction"`
	RecordID    string             `json:"record_id"`
	Previous    *courrier.Record   `json:"previous,omitempty"` // nil for add
	Timestamp   time.Time          `json:"timestamp"`
	Description string             `json:"description"`
}

// UndoResult represents the result of an undo operation
type UndoResult struct {
	Success     bool               `json:"success"`
	Description string             `json:"description"`
	ActionType  UndoActionType     `json:"action_type"`
	Direction   courrier.Direction `json:"direction"`
	RecordID    string             `json:"record_id"`
	Errors      []string           `json:"errors,omitempty"`
}

// ThemeService handles status colour themes
type ThemeService interface {
	ListAvailableThemes(ctx context.Context) ([]string, error)
	GetCurrentTheme(ctx context.Context) (string, error)
	ApplyTheme(ctx context.Context, name string) error
	GetThemeConfig(ctx context.Context, name string) (*config.Theme, error)
	ValidateTheme(ctx context.Context, name string) error
}
