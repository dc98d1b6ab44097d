// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package draft

import (
	"sync"
	"time"

	"github.com/morganforge/quill-tui/internal/doc"
)

// =============================================================================
// DEBOUNCED STORE
// =============================================================================

// DefaultDebounce is the delay between the last document change and the
// resulting durable write.
const DefaultDebounce = 500 * time.Millisecond

// Store debounces draft writes to a KV and falls back to process memory
// when the KV fails, so the composer never loses work mid-session to a
// storage problem.
type Store struct {
	kv       KV
	fallback *MemoryKV
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]Draft
	closed  bool
}

// NewStore wraps a KV with the standard debounce.
func NewStore(kv KV) *Store {
	return NewStoreDebounce(kv, DefaultDebounce)
}

// NewStoreDebounce wraps a KV with an explicit debounce interval, zero
// meaning immediate writes.
func NewStoreDebounce(kv KV, d time.Duration) *Store {
	return &Store{
		kv:       kv,
		fallback: NewMemoryKV(),
		debounce: d,
		pending:  make(map[string]Draft),
	}
}

// Load returns the saved draft for a key, or a zero draft when absent or
// unreadable. Pending unflushed saves win over stored values.
func (s *Store) Load(key Key) Draft {
	k := key.String()

	s.mu.Lock()
	if d, ok := s.pending[k]; ok {
		s.mu.Unlock()
		return d
	}
	s.mu.Unlock()

	if v, ok, err := s.kv.Get(k); err == nil && ok {
		return decodeDraft(v)
	}
	if v, ok, _ := s.fallback.Get(k); ok {
		return decodeDraft(v)
	}
	return Draft{}
}

// Save schedules a durable write of the draft, replacing any write already
// scheduled for the same key. The write lands after the debounce interval
// unless Flush or Close forces it earlier.
func (s *Store) Save(key Key, content string, cursor int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.pending[key.String()] = Draft{Content: content, CursorOffset: cursor}

	if s.debounce <= 0 {
		s.flushLocked()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.Flush)
}

// SaveNow writes the draft synchronously, bypassing the debounce. Used on
// unmount and on conversation switch, where the content must be captured
// under the previous key before it goes away.
func (s *Store) SaveNow(key Key, content string, cursor int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending[key.String()] = Draft{Content: content, CursorOffset: cursor}
	s.flushLocked()
}

// Delete removes the draft for a key, typically after a successful send.
func (s *Store) Delete(key Key) {
	k := key.String()
	s.mu.Lock()
	delete(s.pending, k)
	s.mu.Unlock()

	// Failures fall through to the fallback, same as writes.
	_ = s.kv.Delete(k)
	_ = s.fallback.Delete(k)
}

// Flush writes every pending draft now.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

func (s *Store) flushLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	for k, d := range s.pending {
		v := encodeDraft(d)
		if err := s.kv.Put(k, v); err != nil {
			// Degrade to in-memory for this session.
			_ = s.fallback.Put(k, v)
		}
		delete(s.pending, k)
	}
}

// Close flushes and releases the underlying storage.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	s.flushLocked()
	s.closed = true
	s.mu.Unlock()
	return s.kv.Close()
}

// =============================================================================
// CURSOR RESTORATION
// =============================================================================

// Restore parses a saved draft back into a document and selection. When
// the saved offset exceeds the parsed document's size, a trailing empty
// paragraph was lost to serialization (it serializes to nothing); a fresh
// one is appended so the caret lands after the final block instead of
// being clamped into it.
func Restore(d Draft) (*doc.Document, doc.Selection) {
	parsed := doc.Parse(d.Content)
	if d.CursorOffset > parsed.Length() {
		parsed.Blocks = append(parsed.Blocks, doc.NewParagraph(""))
	}
	return parsed, doc.Caret(d.CursorOffset).Clamp(parsed.Length())
}
