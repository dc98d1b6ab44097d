// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package draft persists not-yet-sent composer content per conversation.
//
// Content plus cursor offset is keyed by conversation, or by conversation
// and pending approval request when one is active, so replying to an
// approval prompt never clobbers the conversation's main draft. Saves are
// debounced after each document change and forced synchronously on
// unmount and conversation switch. Storage failures are swallowed: the
// composer keeps working with in-memory drafts for the session.
package draft

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrStoreClosed = errors.New("draft store closed")
)

// =============================================================================
// DRAFT RECORD
// =============================================================================

// Draft is a saved composer state.
type Draft struct {
	Content      string `json:"content"`
	CursorOffset int    `json:"cursorOffset"`
}

// Key identifies a draft slot.
type Key struct {
	ConversationID string
	ApprovalID     string // non-empty while replying to a control request
}

// String returns the storage form of the key.
func (k Key) String() string {
	if k.ApprovalID != "" {
		return k.ConversationID + "/approval/" + k.ApprovalID
	}
	return k.ConversationID
}

// =============================================================================
// KV ABSTRACTION
// =============================================================================

// KV is the durable storage a Store writes through. Implementations must
// tolerate absent keys (return ok=false, no error) and treat malformed
// values as absent.
type KV interface {
	Get(key string) (value string, ok bool, err error)
	Put(key, value string) error
	Delete(key string) error
	Close() error
}

// =============================================================================
// IN-MEMORY KV
// =============================================================================

// MemoryKV is a map-backed KV for tests and for the degraded mode entered
// after storage failures.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV returns an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

// Get implements KV.
func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Put implements KV.
func (m *MemoryKV) Put(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Close implements KV.
func (m *MemoryKV) Close() error { return nil }

// =============================================================================
// SQLITE KV
// =============================================================================

// SQLiteKV stores drafts in a local SQLite database so they survive
// crashes and restarts.
type SQLiteKV struct {
	db *sql.DB
}

// OpenSQLiteKV opens (creating if needed) the draft database at path.
func OpenSQLiteKV(path string) (*SQLiteKV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create draft dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open draft db: %w", err)
	}

	// Single connection: drafts have one writer and SQLite locks whole
	// files anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure draft db: %w", err)
		}
	}

	schema := `CREATE TABLE IF NOT EXISTS drafts (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create draft table: %w", err)
	}

	return &SQLiteKV{db: db}, nil
}

// Get implements KV.
func (s *SQLiteKV) Get(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM drafts WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read draft: %w", err)
	}
	return v, true, nil
}

// Put implements KV.
func (s *SQLiteKV) Put(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO drafts (key, value, updated_at) VALUES (?, ?, strftime('%s','now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	return nil
}

// Delete implements KV.
func (s *SQLiteKV) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM drafts WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// Prune removes drafts older than the given number of days.
func (s *SQLiteKV) Prune(days int) (int64, error) {
	res, err := s.db.Exec(
		"DELETE FROM drafts WHERE updated_at < strftime('%s','now') - ? * 86400", days)
	if err != nil {
		return 0, fmt.Errorf("prune drafts: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close implements KV.
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

// encodeDraft renders a draft as its stored JSON value.
func encodeDraft(d Draft) string {
	b, err := json.Marshal(d)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// decodeDraft parses a stored value, treating malformed input as an empty
// draft.
func decodeDraft(v string) Draft {
	var d Draft
	if err := json.Unmarshal([]byte(v), &d); err != nil {
		return Draft{}
	}
	if d.CursorOffset < 0 {
		d.CursorOffset = 0
	}
	return d
}
