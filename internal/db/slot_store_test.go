package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ajramos/courrier/internal/courrier"
	"github.com/ajramos/courrier/internal/mirror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ mirror.Medium = (*SlotStore)(nil)

// mustSet writes key and returns the version the write produced
func mustSet(t *testing.T, ss *SlotStore, key, value string) int64 {
	t.Helper()
	v, err := ss.Set(context.Background(), key, value)
	require.NoError(t, err)
	return v
}

func TestSlotStore_NilGuards(t *testing.T) {
	var ss *SlotStore
	ctx := context.Background()

	_, _, err := ss.Get(ctx, "k")
	assert.Error(t, err)
	_, err = ss.Set(ctx, "k", "v")
	assert.Error(t, err)
	_, err = ss.Version(ctx, "k")
	assert.Error(t, err)
	_, err = ss.History(ctx, "k", 1)
	assert.Error(t, err)
	assert.Nil(t, NewSlotStore(nil, 0))
}

func TestSlotStore_GetMissing(t *testing.T) {
	ss := NewSlotStore(openTestStore(t), 0)

	v, ok, err := ss.Get(context.Background(), "courriers-depart")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)

	ver, err := ss.Version(context.Background(), "courriers-depart")
	require.NoError(t, err)
	assert.Zero(t, ver)
}

func TestSlotStore_SetReplacesAndBumpsVersion(t *testing.T) {
	ss := NewSlotStore(openTestStore(t), 0)
	ctx := context.Background()

	assert.Equal(t, int64(1), mustSet(t, ss, "courriers-arrive", `[1]`))
	assert.Equal(t, int64(2), mustSet(t, ss, "courriers-arrive", `[1,2]`))

	v, ok, err := ss.Get(ctx, "courriers-arrive")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1,2]`, v)

	ver, err := ss.Version(ctx, "courriers-arrive")
	require.NoError(t, err)
	assert.Equal(t, int64(2), ver)

	other, err := ss.Version(ctx, "courriers-depart")
	require.NoError(t, err)
	assert.Zero(t, other)
}

func TestSlotStore_InvalidKey(t *testing.T) {
	ss := NewSlotStore(openTestStore(t), 0)
	_, err := ss.Set(context.Background(), "  ", "[]")
	assert.Error(t, err)
}

func TestSlotStore_Quota(t *testing.T) {
	ss := NewSlotStore(openTestStore(t), 8)
	ctx := context.Background()

	mustSet(t, ss, "k", `[1]`)
	_, err := ss.Set(ctx, "k", strings.Repeat("x", 9))
	require.Error(t, err)
	assert.True(t, errors.Is(err, mirror.ErrQuotaExceeded))

	// previous value untouched
	v, _, err := ss.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, v)
}

func TestSlotStore_HistoryTrimmed(t *testing.T) {
	ss := NewSlotStore(openTestStore(t), 0)
	ctx := context.Background()

	for i := 0; i < historyPerKey+5; i++ {
		mustSet(t, ss, "k", fmt.Sprintf("[%d]", i))
	}

	hist, err := ss.History(ctx, "k", 0)
	require.NoError(t, err)
	require.Len(t, hist, historyPerKey)
	assert.Equal(t, int64(historyPerKey+5), hist[0].Version)
	assert.Equal(t, int64(6), hist[len(hist)-1].Version)

	last, err := ss.History(ctx, "k", 2)
	require.NoError(t, err)
	assert.Len(t, last, 2)
}

func TestSlotStore_Keys(t *testing.T) {
	ss := NewSlotStore(openTestStore(t), 0)
	ctx := context.Background()

	mustSet(t, ss, "courriers-depart", "[]")
	mustSet(t, ss, "courriers-arrive", "[]")

	keys, err := ss.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"courriers-arrive", "courriers-depart"}, keys)
}

func TestSlotStore_WithMirror(t *testing.T) {
	store := openTestStore(t)
	m := mirror.New(NewSlotStore(store, 0))
	ctx := context.Background()

	written, err := m.Write(ctx, courrier.Incoming, []courrier.Record{{ID: "a", SequenceNumber: "00001"}})
	require.NoError(t, err)
	recs := m.Read(ctx, courrier.Incoming)
	require.Len(t, recs, 1)
	assert.Equal(t, "a", recs[0].ID)

	ver, err := m.Version(ctx, courrier.Incoming)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)
	assert.Equal(t, written, ver)
	assert.Empty(t, m.Read(ctx, courrier.Outgoing))
}
