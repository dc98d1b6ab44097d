// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for the quill TUI.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/morganforge/quill-tui/internal/model"
	"github.com/morganforge/quill-tui/internal/util"
)

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ConversationStore persists conversations as JSON files, one per
// conversation, under BaseDir.
type ConversationStore struct {
	// BaseDir is the directory for stored conversations.
	// Default: ~/.quill/conversations/
	BaseDir string

	// MaxConversations limits stored conversations (0 = unlimited).
	// Oldest conversations are discarded past the limit.
	MaxConversations int
}

// NewConversationStore creates a store under the default directory.
func NewConversationStore() (*ConversationStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, &ConversationError{Message: "could not determine home directory: " + err.Error()}
	}
	return NewConversationStoreWithDir(filepath.Join(homeDir, ".quill", "conversations"))
}

// NewConversationStoreWithDir creates a store under baseDir.
func NewConversationStoreWithDir(baseDir string) (*ConversationStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, &ConversationError{Message: "could not create storage directory: " + err.Error()}
	}
	return &ConversationStore{
		BaseDir:          baseDir,
		MaxConversations: 100,
	}, nil
}

// Save writes a conversation to disk. Blank conversations are skipped.
func (s *ConversationStore) Save(conv *model.Conversation) error {
	if conv == nil || len(conv.Messages) == 0 {
		return nil
	}
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return &ConversationError{Message: "could not encode conversation: " + err.Error()}
	}
	if err := util.AtomicWriteFile(s.filePath(conv.ID), data, 0o600); err != nil {
		return &ConversationError{Message: "could not write conversation: " + err.Error()}
	}
	s.enforceLimit()
	return nil
}

// Load reads a conversation by ID.
func (s *ConversationStore) Load(id string) (*model.Conversation, error) {
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConversationNotFound
		}
		return nil, &ConversationError{Message: "could not read conversation: " + err.Error()}
	}
	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, &ConversationError{Message: "could not decode conversation: " + err.Error()}
	}
	return &conv, nil
}

// ConversationMeta contains metadata for listing conversations.
type ConversationMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// List returns metadata for all stored conversations, newest first.
func (s *ConversationStore) List() ([]ConversationMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		return nil, &ConversationError{Message: "could not read storage directory: " + err.Error()}
	}

	var metas []ConversationMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		conv, err := s.Load(id)
		if err != nil {
			// Unreadable files are skipped, not fatal.
			continue
		}
		metas = append(metas, ConversationMeta{
			ID:           conv.ID,
			Title:        conv.Title,
			UpdatedAt:    conv.UpdatedAt,
			MessageCount: len(conv.Messages),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Delete removes a stored conversation.
func (s *ConversationStore) Delete(id string) error {
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrConversationNotFound
		}
		return &ConversationError{Message: "could not delete conversation: " + err.Error()}
	}
	return nil
}

// enforceLimit discards the oldest conversations past MaxConversations.
func (s *ConversationStore) enforceLimit() {
	if s.MaxConversations <= 0 {
		return
	}
	metas, err := s.List()
	if err != nil {
		return
	}
	for _, meta := range metas[minInt(len(metas), s.MaxConversations):] {
		os.Remove(s.filePath(meta.ID))
	}
}

func (s *ConversationStore) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ConversationError represents a conversation-related error.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is supports errors.Is comparisons.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	return ok && t != nil
}
