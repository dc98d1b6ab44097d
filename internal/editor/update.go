// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package editor

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/quill-tui/internal/doc"
	"github.com/morganforge/quill-tui/internal/pipeline"
)

// =============================================================================
// MESSAGES
// =============================================================================

// heightNotifyMsg delivers the coalesced height observation. Only one is
// in flight at a time; newer observations overwrite the pending value.
type heightNotifyMsg struct{}

// ScrolledIntoViewMsg asks the owning panel to scroll the caret's block
// into view after a handler requested it.
type ScrolledIntoViewMsg struct{}

// =============================================================================
// UPDATE
// =============================================================================

// Update processes a bubbletea message. Non-key messages and keys while
// unmounted, unfocused, or disabled pass through untouched.
func (e *Editor) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case heightNotifyMsg:
		e.heightPending = false
		if e.callbacks.HeightChanged != nil && e.pendingHeight != e.lastHeight {
			e.lastHeight = e.pendingHeight
			e.callbacks.HeightChanged(e.pendingHeight)
		}
		return nil
	case tea.KeyMsg:
		if !e.mounted || !e.focused || e.disabled {
			return nil
		}
		return e.handleKey(msg)
	}
	return nil
}

func (e *Editor) handleKey(msg tea.KeyMsg) tea.Cmd {
	ctx := &pipeline.Context{Doc: e.doc, Sel: e.sel, Mode: e.mode, TabWidth: e.tabWidth}

	res, err := e.pipe.Dispatch(msg, ctx)
	if err != nil {
		// A handler claimed the event but could not produce a valid
		// transaction; the keystroke is swallowed.
		return nil
	}
	if res != nil {
		return e.applyResult(res)
	}
	return e.defaultKey(msg)
}

func (e *Editor) applyResult(res *pipeline.Result) tea.Cmd {
	if res.Tx != nil {
		e.doc, e.sel = res.Tx.Doc, res.Tx.Sel
		e.afterChange()
	}
	var cmds []tea.Cmd
	if res.Send {
		e.TriggerSend()
	}
	if res.TogglePlan && e.callbacks.TogglePlan != nil {
		e.callbacks.TogglePlan()
	}
	if res.ScrollIntoView {
		cmds = append(cmds, func() tea.Msg { return ScrolledIntoViewMsg{} })
	}
	if cmd := e.observeHeight(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// =============================================================================
// DEFAULT KEY BEHAVIOR
// =============================================================================

// defaultKey runs when no handler claims the event: plain typing, caret
// movement, and structural Enter/Backspace/Delete.
func (e *Editor) defaultKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyRunes:
		e.insertText(string(msg.Runes))
	case tea.KeySpace:
		e.insertText(" ")
	case tea.KeyEnter:
		// Reached only in ctrl+enter mode outside special contexts.
		e.splitBlock()
	case tea.KeyBackspace:
		e.backspace()
	case tea.KeyDelete:
		e.deleteForward()
	case tea.KeyLeft:
		e.moveCaret(-1)
	case tea.KeyRight:
		e.moveCaret(1)
	case tea.KeyUp:
		e.moveLine(-1)
	case tea.KeyDown:
		e.moveLine(1)
	case tea.KeyHome:
		e.moveLineEdge(false)
	case tea.KeyEnd:
		e.moveLineEdge(true)
	default:
		return nil
	}
	return e.observeHeight()
}

func (e *Editor) insertText(text string) {
	if !e.sel.IsCaret() {
		tx, err := doc.Apply(e.doc, e.sel, doc.DeleteRange{From: e.sel.From(), To: e.sel.To()})
		if err != nil {
			return
		}
		e.doc, e.sel = tx.Doc, tx.Sel
	}
	tx, err := doc.Apply(e.doc, e.sel, doc.InsertText{Pos: e.sel.Head, Text: text})
	if err != nil {
		return
	}
	e.doc, e.sel = tx.Doc, tx.Sel
	e.afterChange()
}

func (e *Editor) splitBlock() {
	tx, err := doc.Apply(e.doc, e.sel, doc.SplitBlock{Pos: e.sel.Head})
	if err != nil {
		return
	}
	e.doc, e.sel = tx.Doc, tx.Sel
	e.afterChange()
}

func (e *Editor) backspace() {
	if !e.sel.IsCaret() {
		e.deleteSelection()
		return
	}
	if e.sel.Head == 0 {
		return
	}
	a := e.doc.Resolve(e.sel.Head)
	if a.Offset == 0 {
		// At a block start: merge with the previous block.
		tx, err := doc.Apply(e.doc, e.sel, doc.MergeBlocks{Pos: e.sel.Head})
		if err == nil {
			e.doc, e.sel = tx.Doc, tx.Sel
			e.afterChange()
		}
		return
	}
	tx, err := doc.Apply(e.doc, e.sel, doc.DeleteRange{From: e.sel.Head - 1, To: e.sel.Head})
	if err != nil {
		return
	}
	e.doc, e.sel = tx.Doc, tx.Sel
	e.afterChange()
}

func (e *Editor) deleteForward() {
	if !e.sel.IsCaret() {
		e.deleteSelection()
		return
	}
	if e.sel.Head >= e.doc.Length() {
		return
	}
	tx, err := doc.Apply(e.doc, e.sel, doc.DeleteRange{From: e.sel.Head, To: e.sel.Head + 1})
	if err != nil {
		return
	}
	e.doc, e.sel = tx.Doc, tx.Sel
	e.afterChange()
}

func (e *Editor) deleteSelection() {
	tx, err := doc.Apply(e.doc, e.sel, doc.DeleteRange{From: e.sel.From(), To: e.sel.To()})
	if err != nil {
		return
	}
	e.doc, e.sel = tx.Doc, tx.Sel
	e.afterChange()
}

func (e *Editor) moveCaret(delta int) {
	pos := e.sel.Head + delta
	if pos < 0 {
		pos = 0
	}
	if max := e.doc.Length(); pos > max {
		pos = max
	}
	e.sel = doc.Caret(pos)
	e.recomputeObservers()
}

// moveLine moves the caret one visual line up or down, preserving the
// column where possible. Lines are delimited by soft breaks and block
// boundaries in the flattened text.
func (e *Editor) moveLine(delta int) {
	text := e.doc.Text()
	runes := []rune(text)
	pos := e.sel.Head
	if pos > len(runes) {
		pos = len(runes)
	}

	lineStart := pos
	for lineStart > 0 && runes[lineStart-1] != '\n' {
		lineStart--
	}
	col := pos - lineStart

	if delta < 0 {
		if lineStart == 0 {
			return
		}
		prevStart := lineStart - 1
		for prevStart > 0 && runes[prevStart-1] != '\n' {
			prevStart--
		}
		prevLen := lineStart - 1 - prevStart
		if col > prevLen {
			col = prevLen
		}
		e.sel = doc.Caret(prevStart + col)
	} else {
		lineEnd := pos
		for lineEnd < len(runes) && runes[lineEnd] != '\n' {
			lineEnd++
		}
		if lineEnd >= len(runes) {
			return
		}
		nextStart := lineEnd + 1
		nextEnd := nextStart
		for nextEnd < len(runes) && runes[nextEnd] != '\n' {
			nextEnd++
		}
		if col > nextEnd-nextStart {
			col = nextEnd - nextStart
		}
		e.sel = doc.Caret(nextStart + col)
	}
	e.recomputeObservers()
}

func (e *Editor) moveLineEdge(end bool) {
	runes := []rune(e.doc.Text())
	pos := e.sel.Head
	if pos > len(runes) {
		pos = len(runes)
	}
	if end {
		for pos < len(runes) && runes[pos] != '\n' {
			pos++
		}
	} else {
		for pos > 0 && runes[pos-1] != '\n' {
			pos--
		}
	}
	e.sel = doc.Caret(pos)
	e.recomputeObservers()
}

// =============================================================================
// CHANGE PLUMBING
// =============================================================================

// afterChange runs after every committed transaction: observers refresh
// and the draft save debounce restarts.
func (e *Editor) afterChange() {
	e.recomputeObservers()
	e.scheduleSave()
}

// observeHeight compares the rendered height against the last delivered
// value and schedules a single coalesced notification when it moved.
func (e *Editor) observeHeight() tea.Cmd {
	h := e.contentHeight()
	if h == e.lastHeight {
		return nil
	}
	e.pendingHeight = h
	if e.heightPending {
		// Overwrite the pending slot; the in-flight notification will
		// deliver the newest value.
		return nil
	}
	e.heightPending = true
	return func() tea.Msg { return heightNotifyMsg{} }
}
