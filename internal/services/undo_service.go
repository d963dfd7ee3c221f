package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ajramos/courrier/internal/courrier"
	"github.com/google/uuid"
)

// StoreResolver finds the store owning a direction
type StoreResolver interface {
	Store(d courrier.Direction) (*RecordStoreImpl, error)
}

// UndoServiceImpl implements UndoService
type UndoServiceImpl struct {
	stores     StoreResolver
	lastAction *UndoableAction
	mu         sync.RWMutex
	logger     *log.Logger // Optional - for debug logging
}

// NewUndoService creates a new undo service
func NewUndoService(stores StoreResolver) *UndoServiceImpl {
	return &UndoServiceImpl{stores: stores}
}

// SetLogger sets the logger for debug output
func (s *UndoServiceImpl) SetLogger(logger *log.Logger) {
	s.logger = logger
}

// RecordAction records an action for potential undo
func (s *UndoServiceImpl) RecordAction(ctx context.Context, action *UndoableAction) error {
	if action == nil {
		return fmt.Errorf("action cannot be nil")
	}
	if action.RecordID == "" && action.Previous != nil {
		action.RecordID = action.Previous.ID
	}
	if action.RecordID == "" {
		return fmt.Errorf("%w: action without record id", ErrInvalidInput)
	}
	if action.Type != UndoActionAdd && action.Previous == nil {
		return fmt.Errorf("%w: %s action needs the previous record", ErrInvalidInput, action.Type)
	}
	// Generate unique ID if not provided
	if action.ID == "" {
		action.ID = uuid.New().String()
	}
	if action.Timestamp.IsZero() {
		action.Timestamp = time.Now()
	}
	if action.Previous != nil {
		prev := action.Previous.Clone()
		action.Previous = &prev
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Single-level undo
	s.lastAction = action
	if s.logger != nil {
		s.logger.Printf("undo: recorded %s on %s/%s", action.Type, action.Direction, action.RecordID)
	}
	return nil
}

// UndoLastAction undoes the last recorded action
func (s *UndoServiceImpl) UndoLastAction(ctx context.Context) (*UndoResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastAction == nil {
		return nil, ErrNothingToUndo
	}
	action := s.lastAction
	result := &UndoResult{
		Success:    true,
		ActionType: action.Type,
		Direction:  action.Direction,
		RecordID:   action.RecordID,
	}

	if s.stores == nil {
		return nil, fmt.Errorf("undo service not initialized")
	}
	store, err := s.stores.Store(action.Direction)
	if err != nil {
		return nil, err
	}

	switch action.Type {
	case UndoActionAdd:
		result.Description = "Removed added record"
		err = store.Remove(ctx, action.RecordID)
	case UndoActionUpdate, UndoActionStatus:
		result.Description = "Restored previous values"
		_, err = store.Restore(ctx, *action.Previous)
	case UndoActionRemove:
		result.Description = "Restored deleted record"
		_, err = store.Restore(ctx, *action.Previous)
	default:
		err = fmt.Errorf("unknown action type: %s", action.Type)
	}
	if err != nil {
		result.Success = false
		result.Errors = append(result.Errors, err.Error())
	}

	// Clear the undo history after performing undo (single-level undo)
	if result.Success {
		s.lastAction = nil
	}
	return result, nil
}

// HasUndoableAction checks if there's an action that can be undone
func (s *UndoServiceImpl) HasUndoableAction() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAction != nil
}

// GetUndoDescription returns a description of what will be undone
func (s *UndoServiceImpl) GetUndoDescription() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastAction == nil {
		return "No action to undo"
	}
	if s.lastAction.Description != "" {
		return s.lastAction.Description
	}
	return fmt.Sprintf("Undo %s", s.lastAction.Type)
}

// ClearUndoHistory clears the undo history
func (s *UndoServiceImpl) ClearUndoHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAction = nil
	return nil
}
