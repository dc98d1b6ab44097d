// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/quill-tui/internal/doc"
)

// =============================================================================
// BLOCKQUOTE BACKSPACE
// =============================================================================

// blockquoteBackspaceHandler lifts content out of a blockquote when
// Backspace is pressed at the very start of the quote's first child,
// instead of deleting into the preceding block.
type blockquoteBackspaceHandler struct {
	keys keyMap
}

func (h *blockquoteBackspaceHandler) Name() string { return "blockquote-backspace" }

func (h *blockquoteBackspaceHandler) CanHandle(msg tea.KeyMsg, ctx *Context) bool {
	if !key.Matches(msg, h.keys.Backspace) || !ctx.Sel.IsCaret() {
		return false
	}
	a := ctx.Doc.Resolve(ctx.Sel.Head)
	if a.Offset != 0 {
		return false
	}
	quote := nearestQuote(a.Parents)
	return quote != nil && firstLeaf(quote) == a.Leaf
}

func (h *blockquoteBackspaceHandler) Handle(msg tea.KeyMsg, ctx *Context) (*Result, error) {
	tx, err := doc.Apply(ctx.Doc, ctx.Sel, doc.Lift{Pos: ctx.Sel.Head})
	if err != nil {
		return nil, err
	}
	return &Result{Tx: tx}, nil
}

// nearestQuote returns the innermost blockquote in a parent chain.
func nearestQuote(parents []*doc.Node) *doc.Node {
	for i := len(parents) - 1; i >= 0; i-- {
		if parents[i].Type == doc.NodeBlockquote {
			return parents[i]
		}
	}
	return nil
}
