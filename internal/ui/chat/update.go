// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/morganforge/quill-tui/internal/config"
	"github.com/morganforge/quill-tui/internal/editor"
	"github.com/morganforge/quill-tui/internal/pipeline"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, m.handleResize(msg)
	case editor.ScrolledIntoViewMsg:
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, m.composer.Update(msg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.composer.Unmount()
		m.SaveAll()
		m.drafts.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.NewConv):
		m.NewConversation()
		return m, nil
	case key.Matches(msg, m.keys.DiscardConv):
		m.DiscardConversation()
		return m, nil
	case key.Matches(msg, m.keys.NextConv):
		m.NextConversation()
		return m, nil
	case key.Matches(msg, m.keys.CycleEnter):
		m.cycleEnterMode()
		return m, nil
	case key.Matches(msg, m.keys.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.ScrollDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keys.FocusEditor):
		m.composer.Focus()
		return m, nil
	}
	return m, m.composer.Update(msg)
}

// cycleEnterMode flips the send chord and persists the preference
// immediately.
func (m *Model) cycleEnterMode() {
	mode := m.composer.CycleEnterMode()
	m.cfg.Composer.EnterMode = mode.String()
	// Storage failures leave the preference in effect for the session.
	_ = config.Save(m.cfg)
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) handleResize(msg tea.WindowSizeMsg) tea.Cmd {
	m.width = msg.Width
	m.height = msg.Height

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(m.transcriptWidth()),
	)
	if err == nil {
		m.renderer = renderer
	}

	if !m.ready {
		m.viewport = viewport.New(m.transcriptWidth(), m.transcriptHeight())
		m.ready = true
	}
	m.composer.SetWidth(m.width - 4)
	m.layout()
	m.refreshTranscript()
	m.viewport.GotoBottom()
	return nil
}

// layout resizes the viewport around the composer's current height.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	m.viewport.Width = m.transcriptWidth()
	m.viewport.Height = m.transcriptHeight()
}

func (m *Model) transcriptWidth() int {
	if m.width < 8 {
		return 8
	}
	return m.width - 2
}

func (m *Model) transcriptHeight() int {
	h := m.height - m.composerBoxHeight() - statusBarHeight
	if h < 1 {
		return 1
	}
	return h
}

// EnterModeLabel returns the status bar's send chord hint.
func (m *Model) EnterModeLabel() string {
	if m.composer.EnterMode() == pipeline.CtrlEnterSends {
		return "C-Enter sends"
	}
	return "Enter sends"
}
