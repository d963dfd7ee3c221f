package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ajramos/courrier/internal/mirror"
)

// historyPerKey bounds the write history kept for each slot
const historyPerKey = 50

// SlotStore is the SQLite storage medium: one row per key, replaced as a
// whole on every write, with a version counter other processes can poll
type SlotStore struct {
	db            *sql.DB
	maxValueBytes int
}

// SlotWrite is one entry of a slot's write history
type SlotWrite struct {
	Key       string
	Version   int64
	Bytes     int
	WrittenAt time.Time
}

// NewSlotStore creates a slot store from a base store. maxValueBytes <= 0
// disables the size limit.
func NewSlotStore(store *Store, maxValueBytes int) *SlotStore {
	if store == nil {
		return nil
	}
	return &SlotStore{db: store.DB(), maxValueBytes: maxValueBytes}
}

// Get returns the value stored under key
func (ss *SlotStore) Get(ctx context.Context, key string) (string, bool, error) {
	if ss == nil || ss.db == nil {
		return "", false, fmt.Errorf("slot store not initialized")
	}
	var out string
	err := ss.db.QueryRowContext(ctx, `SELECT value FROM storage_slots WHERE key=?`, key).Scan(&out)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}

// Set replaces the value under key and bumps its version in one
// transaction. It returns the version it wrote.
func (ss *SlotStore) Set(ctx context.Context, key, value string) (int64, error) {
	if ss == nil || ss.db == nil {
		return 0, fmt.Errorf("slot store not initialized")
	}
	if strings.TrimSpace(key) == "" {
		return 0, fmt.Errorf("invalid slot key")
	}
	if ss.maxValueBytes > 0 && len(value) > ss.maxValueBytes {
		return 0, fmt.Errorf("%w: %d bytes over limit of %d", mirror.ErrQuotaExceeded, len(value), ss.maxValueBytes)
	}
	now := time.Now().UnixNano()

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO storage_slots(key, value, version, updated_at)
VALUES(?,?,1,?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, version=storage_slots.version+1, updated_at=excluded.updated_at;
`, key, value, now)
	var version int64
	if err == nil {
		err = tx.QueryRowContext(ctx, `SELECT version FROM storage_slots WHERE key=?`, key).Scan(&version)
	}
	if err == nil {
		_, err = tx.ExecContext(ctx, `INSERT INTO slot_history(key, version, bytes, written_at) VALUES(?,?,?,?)`,
			key, version, len(value), now)
	}
	if err == nil {
		_, err = tx.ExecContext(ctx, `DELETE FROM slot_history WHERE key=? AND version<=?`, key, version-historyPerKey)
	}
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("write slot %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return version, nil
}

// Version returns the write counter of key, 0 if never written
func (ss *SlotStore) Version(ctx context.Context, key string) (int64, error) {
	if ss == nil || ss.db == nil {
		return 0, fmt.Errorf("slot store not initialized")
	}
	var v int64
	err := ss.db.QueryRowContext(ctx, `SELECT version FROM storage_slots WHERE key=?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return v, err
}

// Keys lists every stored key
func (ss *SlotStore) Keys(ctx context.Context) ([]string, error) {
	if ss == nil || ss.db == nil {
		return nil, fmt.Errorf("slot store not initialized")
	}
	rows, err := ss.db.QueryContext(ctx, `SELECT key FROM storage_slots ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// History returns the most recent writes of key, newest first
func (ss *SlotStore) History(ctx context.Context, key string, limit int) ([]SlotWrite, error) {
	if ss == nil || ss.db == nil {
		return nil, fmt.Errorf("slot store not initialized")
	}
	if limit <= 0 || limit > historyPerKey {
		limit = historyPerKey
	}
	rows, err := ss.db.QueryContext(ctx,
		`SELECT key, version, bytes, written_at FROM slot_history WHERE key=? ORDER BY version DESC LIMIT ?`, key, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []SlotWrite
	for rows.Next() {
		var w SlotWrite
		var at int64
		if err := rows.Scan(&w.Key, &w.Version, &w.Bytes, &at); err != nil {
			return nil, err
		}
		w.WrittenAt = time.Unix(0, at).UTC()
		out = append(out, w)
	}
	return out, rows.Err()
}
