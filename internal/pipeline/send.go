// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/quill-tui/internal/doc"
)

// =============================================================================
// SEND ON ENTER
// =============================================================================

// sendHandler turns the configured send chord into a send request and
// Shift+Enter into a soft line break. It stays out of code blocks (their
// Enter always means a literal newline) and out of list items (Enter there
// belongs to list continuation).
type sendHandler struct {
	keys keyMap
}

func (h *sendHandler) Name() string { return "send-on-enter" }

func (h *sendHandler) CanHandle(msg tea.KeyMsg, ctx *Context) bool {
	a := ctx.Doc.Resolve(ctx.Sel.Head)
	if a.Leaf.Type == doc.NodeCodeBlock {
		return false
	}

	switch {
	case key.Matches(msg, h.keys.ShiftEnter):
		return true
	case key.Matches(msg, h.keys.CtrlEnter):
		return true
	case key.Matches(msg, h.keys.Enter):
		return ctx.Mode == EnterSends && a.ListItem() == nil
	}
	return false
}

func (h *sendHandler) Handle(msg tea.KeyMsg, ctx *Context) (*Result, error) {
	if key.Matches(msg, h.keys.ShiftEnter) {
		tx, err := replaceSelection(ctx, "\n", nil)
		if err != nil {
			return nil, err
		}
		return &Result{Tx: tx}, nil
	}
	return &Result{Send: true}, nil
}
