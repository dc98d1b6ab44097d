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
// TAB / SHIFT+TAB
// =============================================================================

// tabHandler gives Tab a context-dependent meaning. In a list item it
// indents or outdents one level. In a heading it moves the level toward H6
// or back toward H1, past which the block becomes a paragraph. In a plain
// paragraph Tab promotes to H1 and Shift+Tab asks the host to toggle plan
// mode, there being no lower level. In a code block Tab and Shift+Tab
// insert or remove spaces snapped to the tab-stop grid relative to line
// start. The handler always claims the key so focus never tabs away from
// the composer.
type tabHandler struct {
	keys keyMap
}

func (h *tabHandler) Name() string { return "tab-indent" }

func (h *tabHandler) CanHandle(msg tea.KeyMsg, ctx *Context) bool {
	return key.Matches(msg, h.keys.Tab) || key.Matches(msg, h.keys.ShiftTab)
}

func (h *tabHandler) Handle(msg tea.KeyMsg, ctx *Context) (*Result, error) {
	forward := key.Matches(msg, h.keys.Tab)
	a := ctx.Doc.Resolve(ctx.Sel.Head)

	switch {
	case a.Leaf.Type == doc.NodeCodeBlock:
		return h.codeBlockTab(ctx, a, forward)

	case a.ListItem() != nil:
		return h.listTab(ctx, forward)

	case a.Leaf.Type == doc.NodeHeading:
		return h.headingTab(ctx, a, forward)

	case a.Leaf.Type == doc.NodeParagraph:
		if !forward {
			return &Result{TogglePlan: true}, nil
		}
		tx, err := doc.Apply(ctx.Doc, ctx.Sel, doc.SetType{Pos: ctx.Sel.Head, Type: doc.NodeHeading, Level: 1})
		if err != nil {
			return nil, err
		}
		return &Result{Tx: tx}, nil
	}
	return &Result{}, nil
}

func (h *tabHandler) listTab(ctx *Context, forward bool) (*Result, error) {
	var op doc.Op = doc.OutdentItem{Pos: ctx.Sel.Head}
	if forward {
		op = doc.IndentItem{Pos: ctx.Sel.Head}
	}
	tx, err := doc.Apply(ctx.Doc, ctx.Sel, op)
	if err != nil {
		return &Result{}, nil // first-item indent and similar dead ends stay claimed
	}
	return &Result{Tx: tx}, nil
}

func (h *tabHandler) headingTab(ctx *Context, a doc.Ancestry, forward bool) (*Result, error) {
	level := a.Leaf.Level
	if forward {
		if level >= 6 {
			return &Result{}, nil
		}
		next := level + 1
		tx, err := doc.Apply(ctx.Doc, ctx.Sel, doc.SetAttrs{Pos: ctx.Sel.Head, Level: &next})
		if err != nil {
			return nil, err
		}
		return &Result{Tx: tx}, nil
	}
	if level <= 1 {
		tx, err := doc.Apply(ctx.Doc, ctx.Sel, doc.SetType{Pos: ctx.Sel.Head, Type: doc.NodeParagraph})
		if err != nil {
			return nil, err
		}
		return &Result{Tx: tx}, nil
	}
	next := level - 1
	tx, err := doc.Apply(ctx.Doc, ctx.Sel, doc.SetAttrs{Pos: ctx.Sel.Head, Level: &next})
	if err != nil {
		return nil, err
	}
	return &Result{Tx: tx}, nil
}

// codeBlockTab snaps indentation to the tab-stop grid. Tab inserts enough
// spaces to land on the next stop; Shift+Tab removes spaces back to the
// previous stop, eating at most the run of spaces before the caret.
func (h *tabHandler) codeBlockTab(ctx *Context, a doc.Ancestry, forward bool) (*Result, error) {
	width := ctx.TabWidth
	if width <= 0 {
		width = 2
	}
	col := lineColumn(a.Leaf.Text(), a.Offset)

	if forward {
		n := width - col%width
		tx, err := doc.Apply(ctx.Doc, ctx.Sel, doc.InsertText{Pos: ctx.Sel.Head, Text: strings.Repeat(" ", n)})
		if err != nil {
			return nil, err
		}
		return &Result{Tx: tx}, nil
	}

	run := spaceRunBefore(a.Leaf.Text(), a.Offset)
	if run == 0 {
		return &Result{}, nil
	}
	n := col % width
	if n == 0 {
		n = width
	}
	if n > run {
		n = run
	}
	tx, err := doc.Apply(ctx.Doc, ctx.Sel, doc.DeleteRange{From: ctx.Sel.Head - n, To: ctx.Sel.Head})
	if err != nil {
		return nil, err
	}
	return &Result{Tx: tx}, nil
}

// lineColumn returns the caret's column within its line of text.
func lineColumn(text string, offset int) int {
	rs := []rune(text)
	if offset > len(rs) {
		offset = len(rs)
	}
	col := 0
	for i := offset - 1; i >= 0 && rs[i] != '\n'; i-- {
		col++
	}
	return col
}

// spaceRunBefore counts consecutive spaces immediately before the caret,
// stopping at the line start.
func spaceRunBefore(text string, offset int) int {
	rs := []rune(text)
	if offset > len(rs) {
		offset = len(rs)
	}
	n := 0
	for i := offset - 1; i >= 0 && rs[i] == ' '; i-- {
		n++
	}
	return n
}

// lineIsSpacesBefore reports whether everything between line start and the
// caret is spaces, with at least one of them.
func lineIsSpacesBefore(text string, offset int) bool {
	col := lineColumn(text, offset)
	return col > 0 && spaceRunBefore(text, offset) >= col
}
