// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/quill-tui/internal/doc"
)

// =============================================================================
// CODE BLOCK BACKSPACE
// =============================================================================

// codeBlockBackspaceHandler covers two backspace cases inside code blocks:
// an empty block converts back to a paragraph instead of merging upward,
// and deleting indentation snaps to the tab-stop grid, removing enough
// spaces to land on a multiple of the tab width. Backspace over a
// non-space character is left to default handling.
type codeBlockBackspaceHandler struct {
	keys keyMap
}

func (h *codeBlockBackspaceHandler) Name() string { return "code-block-backspace" }

func (h *codeBlockBackspaceHandler) CanHandle(msg tea.KeyMsg, ctx *Context) bool {
	if !key.Matches(msg, h.keys.Backspace) || !ctx.Sel.IsCaret() {
		return false
	}
	a := ctx.Doc.Resolve(ctx.Sel.Head)
	if a.Leaf.Type != doc.NodeCodeBlock {
		return false
	}
	return a.Leaf.IsEmpty() || lineIsSpacesBefore(a.Leaf.Text(), a.Offset)
}

func (h *codeBlockBackspaceHandler) Handle(msg tea.KeyMsg, ctx *Context) (*Result, error) {
	a := ctx.Doc.Resolve(ctx.Sel.Head)

	if a.Leaf.IsEmpty() {
		tx, err := doc.Apply(ctx.Doc, ctx.Sel, doc.SetType{Pos: ctx.Sel.Head, Type: doc.NodeParagraph})
		if err != nil {
			return nil, err
		}
		return &Result{Tx: tx}, nil
	}

	width := ctx.TabWidth
	if width <= 0 {
		width = 2
	}
	col := lineColumn(a.Leaf.Text(), a.Offset)
	n := col % width
	if n == 0 {
		n = width
	}
	tx, err := doc.Apply(ctx.Doc, ctx.Sel, doc.DeleteRange{From: ctx.Sel.Head - n, To: ctx.Sel.Head})
	if err != nil {
		return nil, err
	}
	return &Result{Tx: tx}, nil
}

// =============================================================================
// CODE BLOCK ENTER / ARROW DOWN / ESCAPE
// =============================================================================

// codeBlockKeysHandler keeps code blocks self-contained. Enter in any
// flavor inserts a literal newline and never sends. ArrowDown on the last
// line exits the block, creating a trailing paragraph when the block is
// the document's last block, and asks the surface to scroll the caret into
// view. Escape claims the key so the surrounding UI does not steal focus,
// leaving the caret where it is.
type codeBlockKeysHandler struct {
	keys keyMap
}

func (h *codeBlockKeysHandler) Name() string { return "code-block-keys" }

func (h *codeBlockKeysHandler) CanHandle(msg tea.KeyMsg, ctx *Context) bool {
	a := ctx.Doc.Resolve(ctx.Sel.Head)
	if a.Leaf.Type != doc.NodeCodeBlock {
		return false
	}
	switch {
	case key.Matches(msg, h.keys.Enter), key.Matches(msg, h.keys.ShiftEnter), key.Matches(msg, h.keys.CtrlEnter):
		return true
	case key.Matches(msg, h.keys.Escape):
		return true
	case key.Matches(msg, h.keys.Down):
		return onLastLine(a.Leaf.Text(), a.Offset)
	}
	return false
}

func (h *codeBlockKeysHandler) Handle(msg tea.KeyMsg, ctx *Context) (*Result, error) {
	switch {
	case key.Matches(msg, h.keys.Escape):
		return &Result{}, nil

	case key.Matches(msg, h.keys.Down):
		return h.exitDown(ctx)

	default: // any Enter flavor
		tx, err := replaceSelection(ctx, "\n", nil)
		if err != nil {
			return nil, err
		}
		return &Result{Tx: tx}, nil
	}
}

// exitDown moves the caret past the code block, extending the document
// with an empty paragraph when nothing follows.
func (h *codeBlockKeysHandler) exitDown(ctx *Context) (*Result, error) {
	a := ctx.Doc.Resolve(ctx.Sel.Head)
	blockEnd := ctx.Sel.Head + (len([]rune(a.Leaf.Text())) - a.Offset)

	if blockEnd < ctx.Doc.Length() {
		tx := &doc.Transaction{Doc: ctx.Doc, Sel: doc.Caret(blockEnd + 1)}
		return &Result{Tx: tx, ScrollIntoView: true}, nil
	}

	tx, err := doc.Apply(ctx.Doc, ctx.Sel, doc.InsertBlockAfter{Pos: ctx.Sel.Head, Block: doc.NewParagraph("")})
	if err != nil {
		return nil, err
	}
	return &Result{Tx: tx, ScrollIntoView: true}, nil
}

// onLastLine reports whether no newline follows the offset in text.
func onLastLine(text string, offset int) bool {
	rs := []rune(text)
	if offset >= len(rs) {
		return true
	}
	return !strings.ContainsRune(string(rs[offset:]), '\n')
}
