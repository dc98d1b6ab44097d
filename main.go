// quill - A rich-text chat composer for agent workspaces.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/quill-tui/internal/config"
	"github.com/morganforge/quill-tui/internal/draft"
	"github.com/morganforge/quill-tui/internal/storage"
	"github.com/morganforge/quill-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			fmt.Printf("quill %s (%s, %s)\n", Version, GitCommit, BuildDate)
			return
		}
	}

	cfg, _ := config.Load()
	if err := config.EnsureConfigDir(); err != nil {
		fmt.Fprintf(os.Stderr, "quill: %v\n", err)
		os.Exit(1)
	}

	drafts := openDraftStore(cfg)
	defer drafts.Close()

	// Conversation persistence is best-effort; the panel runs without
	// it when the directory cannot be created.
	convs, err := storage.NewConversationStore()
	if err != nil {
		convs = nil
	}

	panel := chat.New(cfg, drafts, convs)
	p := tea.NewProgram(panel, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "quill: %v\n", err)
		os.Exit(1)
	}
}

// openDraftStore opens the sqlite-backed draft store, degrading to a
// memory-only store for the session when the database is unavailable.
func openDraftStore(cfg *config.Config) *draft.Store {
	debounce := time.Duration(cfg.Drafts.DebounceMs) * time.Millisecond
	path, err := cfg.DraftDBPath()
	if err != nil {
		return draft.NewStoreDebounce(draft.NewMemoryKV(), debounce)
	}
	kv, err := draft.OpenSQLiteKV(path)
	if err != nil {
		return draft.NewStoreDebounce(draft.NewMemoryKV(), debounce)
	}
	if cfg.Drafts.RetentionDays > 0 {
		kv.Prune(cfg.Drafts.RetentionDays)
	}
	return draft.NewStoreDebounce(kv, debounce)
}
