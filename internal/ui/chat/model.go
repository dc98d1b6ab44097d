// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat panel: a transcript viewport above the
// composer. Message classification and approval handling live outside;
// the panel only wires their callbacks into the composer.
package chat

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/morganforge/quill-tui/internal/config"
	"github.com/morganforge/quill-tui/internal/draft"
	"github.com/morganforge/quill-tui/internal/editor"
	"github.com/morganforge/quill-tui/internal/highlight"
	"github.com/morganforge/quill-tui/internal/model"
	"github.com/morganforge/quill-tui/internal/pipeline"
	"github.com/morganforge/quill-tui/internal/storage"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat panel.
type Model struct {
	cfg    *config.Config
	drafts *draft.Store
	store  *storage.ConversationStore

	conversations []*model.Conversation
	active        int

	viewport viewport.Model
	renderer *glamour.TermRenderer
	composer *editor.Editor
	keys     keyMap

	planMode bool
	width    int
	height   int
	ready    bool
}

// New builds the chat panel with one fresh conversation. The store may
// be nil; conversations then live only for the session.
func New(cfg *config.Config, drafts *draft.Store, store *storage.ConversationStore) *Model {
	m := &Model{
		cfg:           cfg,
		drafts:        drafts,
		store:         store,
		conversations: []*model.Conversation{model.NewConversation()},
		keys:          defaultKeyMap(),
	}

	m.composer = editor.New(editor.Options{
		Drafts:      drafts,
		EnterMode:   pipeline.ParseEnterMode(cfg.Composer.EnterMode),
		TabWidth:    cfg.Composer.TabWidth,
		Placeholder: cfg.Composer.Placeholder,
		MaxHeight:   cfg.UI.MaxComposerHeight,
		Highlighter: highlight.NewServiceStyle(highlight.DefaultCacheSize, cfg.UI.Theme),
		Callbacks: editor.Callbacks{
			Send:          m.handleSend,
			TogglePlan:    m.handleTogglePlan,
			HeightChanged: m.handleComposerHeight,
		},
	})
	m.composer.Mount(draft.Key{ConversationID: m.conversation().ID})
	m.composer.Focus()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// conversation returns the active conversation.
func (m *Model) conversation() *model.Conversation {
	return m.conversations[m.active]
}

// Composer exposes the composer for programmatic access.
func (m *Model) Composer() *editor.Editor {
	return m.composer
}

// PlanMode reports whether plan mode is active.
func (m *Model) PlanMode() bool {
	return m.planMode
}

// =============================================================================
// COMPOSER CALLBACKS
// =============================================================================

// handleSend appends the sent markdown to the transcript. Returning false
// keeps the composer content; that happens only when no conversation is
// bound.
func (m *Model) handleSend(markdown string) bool {
	conv := m.conversation()
	if conv == nil {
		return false
	}
	if conv.Approval != nil {
		// The reply resolves the pending control request; the composer
		// returns to the conversation's main draft key.
		conv.Approval = nil
		conv.AddUserMessage(markdown)
		m.composer.SetApprovalRequest("")
	} else {
		conv.AddUserMessage(markdown)
	}
	m.refreshTranscript()
	m.viewport.GotoBottom()
	return true
}

func (m *Model) handleTogglePlan() {
	m.planMode = !m.planMode
}

func (m *Model) handleComposerHeight(rows int) {
	m.layout()
}

// =============================================================================
// CONVERSATION SWITCHING
// =============================================================================

// NewConversation opens a fresh conversation and switches the composer's
// draft key to it.
func (m *Model) NewConversation() {
	m.conversations = append(m.conversations, model.NewConversation())
	m.active = len(m.conversations) - 1
	m.composer.SetConversation(m.conversation().ID)
	m.refreshTranscript()
}

// NextConversation cycles to the next conversation.
func (m *Model) NextConversation() {
	if len(m.conversations) < 2 {
		return
	}
	m.active = (m.active + 1) % len(m.conversations)
	m.composer.SetConversation(m.conversation().ID)
	m.refreshTranscript()
}

// DiscardConversation drops the active conversation along with its
// stored copy and drafts.
func (m *Model) DiscardConversation() {
	conv := m.conversation()
	// Blank the composer first so the key switch below does not
	// re-persist the discarded draft.
	m.composer.Set("")
	if m.store != nil {
		m.store.Delete(conv.ID)
	}
	if m.drafts != nil {
		m.drafts.Delete(draft.Key{ConversationID: conv.ID})
		if conv.Approval != nil {
			m.drafts.Delete(draft.Key{ConversationID: conv.ID, ApprovalID: conv.Approval.ID})
		}
	}

	m.conversations = append(m.conversations[:m.active], m.conversations[m.active+1:]...)
	if len(m.conversations) == 0 {
		m.conversations = []*model.Conversation{model.NewConversation()}
	}
	if m.active >= len(m.conversations) {
		m.active = len(m.conversations) - 1
	}
	m.composer.SetConversation(m.conversation().ID)
	m.refreshTranscript()
}

// SaveAll persists every non-blank conversation.
func (m *Model) SaveAll() {
	if m.store == nil {
		return
	}
	for _, conv := range m.conversations {
		m.store.Save(conv)
	}
}

// PresentApproval binds the composer to a pending control request so the
// reply drafts under its own key.
func (m *Model) PresentApproval(req *model.ApprovalRequest) {
	m.conversation().Approval = req
	m.composer.SetApprovalRequest(req.ID)
	m.refreshTranscript()
}
