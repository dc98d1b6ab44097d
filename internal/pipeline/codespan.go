// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/quill-tui/internal/doc"
)

// =============================================================================
// CODE SPAN ARROWS
// =============================================================================

// codeSpanArrowHandler owns caret movement across inline code span edges.
// Span membership attaches to the character before the caret, so the
// position just past the last code character is still inside the span and
// the position before the first is outside. The handler claims exactly the
// boundary-crossing presses and moves one position, which keeps traversal
// of a span of n characters at n+1 presses and never leaves the caret
// stuck at an edge.
type codeSpanArrowHandler struct {
	keys keyMap
}

func (h *codeSpanArrowHandler) Name() string { return "code-span-arrows" }

func (h *codeSpanArrowHandler) CanHandle(msg tea.KeyMsg, ctx *Context) bool {
	if !ctx.Sel.IsCaret() {
		return false
	}
	pos := ctx.Sel.Head
	switch {
	case key.Matches(msg, h.keys.Right):
		return pos < ctx.Doc.Length() && ctx.Doc.InCodeSpan(pos+1) != ctx.Doc.InCodeSpan(pos)
	case key.Matches(msg, h.keys.Left):
		return pos > 0 && ctx.Doc.InCodeSpan(pos-1) != ctx.Doc.InCodeSpan(pos)
	}
	return false
}

func (h *codeSpanArrowHandler) Handle(msg tea.KeyMsg, ctx *Context) (*Result, error) {
	pos := ctx.Sel.Head
	if key.Matches(msg, h.keys.Right) {
		pos++
	} else {
		pos--
	}
	return &Result{Tx: &doc.Transaction{Doc: ctx.Doc, Sel: doc.Caret(pos)}}, nil
}

// =============================================================================
// CODE SPAN BACKSPACE
// =============================================================================

// codeSpanBackspaceHandler removes a one-character code span in a single
// stroke, mark and all, so the next typed character comes out plain
// instead of re-entering a zero-width span.
type codeSpanBackspaceHandler struct {
	keys keyMap
}

func (h *codeSpanBackspaceHandler) Name() string { return "code-span-backspace" }

func (h *codeSpanBackspaceHandler) CanHandle(msg tea.KeyMsg, ctx *Context) bool {
	if !key.Matches(msg, h.keys.Backspace) || !ctx.Sel.IsCaret() {
		return false
	}
	span := ctx.Doc.CodeSpanAround(ctx.Sel.Head)
	return span != nil && span.Len() == 1 && ctx.Sel.Head == span.To
}

func (h *codeSpanBackspaceHandler) Handle(msg tea.KeyMsg, ctx *Context) (*Result, error) {
	span := ctx.Doc.CodeSpanAround(ctx.Sel.Head)
	if span == nil {
		return &Result{}, nil
	}
	tx, err := doc.Apply(ctx.Doc, ctx.Sel, doc.DeleteRange{From: span.From, To: span.To})
	if err != nil {
		return nil, err
	}
	return &Result{Tx: tx}, nil
}
