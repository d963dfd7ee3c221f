package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ajramos/courrier/internal/courrier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoService_Empty(t *testing.T) {
	r, _ := newTestRegistry(t)
	svc := NewUndoService(r)

	assert.False(t, svc.HasUndoableAction())
	assert.Equal(t, "No action to undo", svc.GetUndoDescription())

	res, err := svc.UndoLastAction(context.Background())
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrNothingToUndo))
}

func TestUndoService_RecordActionValidation(t *testing.T) {
	svc := NewUndoService(nil)
	ctx := context.Background()

	assert.Error(t, svc.RecordAction(ctx, nil))
	assert.True(t, errors.Is(svc.RecordAction(ctx, &UndoableAction{Type: UndoActionAdd}), ErrInvalidInput))
	assert.True(t, errors.Is(svc.RecordAction(ctx, &UndoableAction{Type: UndoActionRemove, RecordID: "x"}), ErrInvalidInput))

	action := &UndoableAction{Type: UndoActionAdd, RecordID: "x"}
	require.NoError(t, svc.RecordAction(ctx, action))
	assert.NotEmpty(t, action.ID)
	assert.False(t, action.Timestamp.IsZero())
	assert.Equal(t, "Undo add", svc.GetUndoDescription())
}

func TestUndoService_UndoActions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		apply func(t *testing.T, s *RecordStoreImpl, rec *courrier.Record) *UndoableAction
		check func(t *testing.T, s *RecordStoreImpl, rec *courrier.Record)
	}{
		{
			name: "add",
			apply: func(t *testing.T, s *RecordStoreImpl, _ *courrier.Record) *UndoableAction {
				added, err := s.Add(ctx, courrier.Fields{Subject: courrier.String("new")})
				require.NoError(t, err)
				return &UndoableAction{Type: UndoActionAdd, Direction: s.Direction(), RecordID: added.ID}
			},
			check: func(t *testing.T, s *RecordStoreImpl, rec *courrier.Record) {
				assert.Len(t, s.Records(), 1)
				assert.NotNil(t, s.Get(rec.ID))
			},
		},
		{
			name: "update",
			apply: func(t *testing.T, s *RecordStoreImpl, rec *courrier.Record) *UndoableAction {
				_, err := s.Update(ctx, rec.ID, courrier.Fields{Subject: courrier.String("edited")})
				require.NoError(t, err)
				return &UndoableAction{Type: UndoActionUpdate, Direction: s.Direction(), Previous: rec}
			},
			check: func(t *testing.T, s *RecordStoreImpl, rec *courrier.Record) {
				assert.Equal(t, "base", s.Get(rec.ID).Subject)
			},
		},
		{
			name: "status",
			apply: func(t *testing.T, s *RecordStoreImpl, rec *courrier.Record) *UndoableAction {
				_, err := s.SetStatus(ctx, rec.ID, courrier.StatusArchived)
				require.NoError(t, err)
				return &UndoableAction{Type: UndoActionStatus, Direction: s.Direction(), Previous: rec}
			},
			check: func(t *testing.T, s *RecordStoreImpl, rec *courrier.Record) {
				assert.Equal(t, courrier.StatusPending, s.Get(rec.ID).Status)
			},
		},
		{
			name: "remove",
			apply: func(t *testing.T, s *RecordStoreImpl, rec *courrier.Record) *UndoableAction {
				require.NoError(t, s.Remove(ctx, rec.ID))
				return &UndoableAction{Type: UndoActionRemove, Direction: s.Direction(), Previous: rec}
			},
			check: func(t *testing.T, s *RecordStoreImpl, rec *courrier.Record) {
				got := s.Get(rec.ID)
				require.NotNil(t, got)
				assert.Equal(t, rec.SequenceNumber, got.SequenceNumber)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRegistry(t)
			s, err := r.Store(courrier.Outgoing)
			require.NoError(t, err)
			rec, err := s.Add(ctx, courrier.Fields{Subject: courrier.String("base")})
			require.NoError(t, err)

			svc := NewUndoService(r)
			require.NoError(t, svc.RecordAction(ctx, tt.apply(t, s, rec)))
			assert.True(t, svc.HasUndoableAction())

			res, err := svc.UndoLastAction(ctx)
			require.NoError(t, err)
			assert.True(t, res.Success, res.Errors)
			assert.Equal(t, courrier.Outgoing, res.Direction)
			assert.False(t, svc.HasUndoableAction())
			tt.check(t, s, rec)
		})
	}
}

func TestUndoService_Clear(t *testing.T) {
	svc := NewUndoService(nil)
	require.NoError(t, svc.RecordAction(context.Background(), &UndoableAction{Type: UndoActionAdd, RecordID: "x"}))
	require.NoError(t, svc.ClearUndoHistory())
	assert.False(t, svc.HasUndoableAction())
}

func TestIsPermanentError(t *testing.T) {
	assert.True(t, IsPermanentError(ErrNotFound))
	assert.True(t, IsPermanentError(ErrQuotaExceeded))
	assert.False(t, IsPermanentError(ErrPersist))
	assert.False(t, IsPermanentError(nil))
}
