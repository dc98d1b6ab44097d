// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package editor binds the document model, keystroke pipeline, and draft
// store into a composer component for the chat panel.
package editor

import (
	"github.com/morganforge/quill-tui/internal/doc"
	"github.com/morganforge/quill-tui/internal/draft"
	"github.com/morganforge/quill-tui/internal/highlight"
	"github.com/morganforge/quill-tui/internal/pipeline"
)

// =============================================================================
// CALLBACKS
// =============================================================================

// Callbacks are supplied by the owning panel. All are optional; a nil
// callback makes the corresponding action a no-op.
type Callbacks struct {
	// Send receives the serialized markdown. Returning false rejects the
	// send; the composer keeps its content and focus.
	Send func(markdown string) bool

	// TogglePlan fires on Shift+Tab in an unindented paragraph.
	TogglePlan func()

	// HeightChanged reports the rendered content height in rows. Calls
	// are coalesced so at most one notification is pending at a time.
	HeightChanged func(rows int)
}

// =============================================================================
// EDITOR
// =============================================================================

// Editor is the composer surface. Commands invoked before Mount or after
// Unmount are silent no-ops.
type Editor struct {
	doc *doc.Document
	sel doc.Selection

	pipe   *pipeline.Pipeline
	drafts *draft.Store
	key    draft.Key

	mode     pipeline.EnterMode
	tabWidth int

	placeholder string
	disabled    bool
	mounted     bool
	focused     bool

	width      int
	maxHeight  int
	lastHeight int

	// Single pending slot for height notifications. A new observation
	// overwrites the not-yet-delivered one instead of queueing.
	pendingHeight  int
	heightPending  bool
	scrollIntoView bool

	toolbar    pipeline.ToolbarState
	langTarget *pipeline.LanguageTarget

	highlighter *highlight.Service
	callbacks   Callbacks
}

// Options configure a new editor.
type Options struct {
	Drafts      *draft.Store
	EnterMode   pipeline.EnterMode
	TabWidth    int
	Placeholder string
	Width       int
	MaxHeight   int
	Highlighter *highlight.Service
	Callbacks   Callbacks
}

// New builds an unmounted editor. Call Mount (usually via SetConversation)
// before feeding it key events.
func New(opts Options) *Editor {
	if opts.TabWidth <= 0 {
		opts.TabWidth = 2
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = 10
	}
	if opts.Highlighter == nil {
		opts.Highlighter = highlight.NewService(highlight.DefaultCacheSize)
	}
	return &Editor{
		doc:         doc.New(),
		sel:         doc.Caret(0),
		pipe:        pipeline.New(),
		drafts:      opts.Drafts,
		mode:        opts.EnterMode,
		tabWidth:    opts.TabWidth,
		placeholder: opts.Placeholder,
		width:       opts.Width,
		maxHeight:   opts.MaxHeight,
		highlighter: opts.Highlighter,
		callbacks:   opts.Callbacks,
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Mount activates the editor under the given draft key, loading and
// restoring any saved draft.
func (e *Editor) Mount(key draft.Key) {
	e.key = key
	e.mounted = true
	e.loadDraft()
	e.recomputeObservers()
	// The parent measures the initial layout itself; only height moves
	// after mount are notified.
	e.lastHeight = e.contentHeight()
}

// Unmount flushes the current draft synchronously and deactivates the
// editor. Subsequent commands are no-ops until the next Mount.
func (e *Editor) Unmount() {
	if !e.mounted {
		return
	}
	e.saveNow()
	e.mounted = false
	e.focused = false
}

// SetConversation switches the draft key to a conversation. The previous
// key's draft is flushed before the new one is loaded, so the switch is
// atomic from the caller's perspective.
func (e *Editor) SetConversation(conversationID string) {
	e.switchKey(draft.Key{ConversationID: conversationID})
}

// SetApprovalRequest scopes drafting to a pending approval request so a
// reply does not clobber the conversation's main draft. An empty id
// returns to the conversation key.
func (e *Editor) SetApprovalRequest(approvalID string) {
	e.switchKey(draft.Key{ConversationID: e.key.ConversationID, ApprovalID: approvalID})
}

func (e *Editor) switchKey(key draft.Key) {
	if e.mounted && key == e.key {
		return
	}
	if e.mounted {
		e.saveNow()
	}
	e.key = key
	e.mounted = true
	e.loadDraft()
	e.recomputeObservers()
	e.lastHeight = e.contentHeight()
}

func (e *Editor) loadDraft() {
	if e.drafts == nil {
		e.doc, e.sel = doc.New(), doc.Caret(0)
		return
	}
	e.doc, e.sel = draft.Restore(e.drafts.Load(e.key))
}

// =============================================================================
// FOCUS
// =============================================================================

// Focus gives the editor keyboard focus.
func (e *Editor) Focus() {
	if e.mounted {
		e.focused = true
	}
}

// Blur removes keyboard focus.
func (e *Editor) Blur() {
	e.focused = false
}

// Focused reports whether the editor has keyboard focus.
func (e *Editor) Focused() bool {
	return e.focused
}

// Mounted reports whether the editor is active.
func (e *Editor) Mounted() bool {
	return e.mounted
}

// =============================================================================
// CONTENT ACCESS
// =============================================================================

// Get returns the composer content as markdown.
func (e *Editor) Get() string {
	if !e.mounted {
		return ""
	}
	return doc.Serialize(e.doc)
}

// Set replaces the composer content, placing the caret at the end.
func (e *Editor) Set(markdown string) {
	if !e.mounted {
		return
	}
	e.doc = doc.Parse(markdown)
	e.sel = doc.Caret(e.doc.Length())
	e.afterChange()
}

// Empty reports whether the composer holds any content.
func (e *Editor) Empty() bool {
	return !e.mounted || e.doc.IsBlank()
}

// Selection returns the current selection.
func (e *Editor) Selection() doc.Selection {
	return e.sel
}

// Document returns the current document. Callers must not mutate it.
func (e *Editor) Document() *doc.Document {
	return e.doc
}

// =============================================================================
// PREFERENCES
// =============================================================================

// EnterMode returns the active send chord mode.
func (e *Editor) EnterMode() pipeline.EnterMode {
	return e.mode
}

// SetEnterMode switches the send chord mode.
func (e *Editor) SetEnterMode(m pipeline.EnterMode) {
	e.mode = m
}

// CycleEnterMode flips the send chord mode and returns the new value.
func (e *Editor) CycleEnterMode() pipeline.EnterMode {
	if e.mode == pipeline.EnterSends {
		e.mode = pipeline.CtrlEnterSends
	} else {
		e.mode = pipeline.EnterSends
	}
	return e.mode
}

// SetPlaceholder updates the empty-composer hint.
func (e *Editor) SetPlaceholder(s string) {
	e.placeholder = s
}

// SetDisabled toggles the disabled flag. A disabled editor ignores keys
// and renders its placeholder dimmed.
func (e *Editor) SetDisabled(disabled bool) {
	e.disabled = disabled
	if disabled {
		e.focused = false
	}
}

// Disabled reports the disabled flag.
func (e *Editor) Disabled() bool {
	return e.disabled
}

// SetWidth updates the rendering width.
func (e *Editor) SetWidth(w int) {
	if w > 0 {
		e.width = w
	}
}

// =============================================================================
// OBSERVERS
// =============================================================================

// Toolbar returns the active-format state for the current selection.
func (e *Editor) Toolbar() pipeline.ToolbarState {
	return e.toolbar
}

// LanguageTarget returns the code block a language picker would target,
// or nil when the selection is outside any code block.
func (e *Editor) LanguageTarget() *pipeline.LanguageTarget {
	return e.langTarget
}

func (e *Editor) recomputeObservers() {
	e.toolbar = pipeline.ComputeToolbar(e.doc, e.sel)
	e.langTarget = pipeline.CodeLanguageAt(e.doc, e.sel)
}

// =============================================================================
// SEND
// =============================================================================

// TriggerSend submits the composer content through the send callback.
// A blank composer or an unmounted editor is a no-op. A callback return
// of false keeps content and focus.
func (e *Editor) TriggerSend() {
	if !e.mounted || e.disabled || e.doc.IsBlank() {
		return
	}
	key := e.key
	markdown := doc.Serialize(e.doc)
	if e.callbacks.Send != nil && !e.callbacks.Send(markdown) {
		e.focused = true
		return
	}
	if e.drafts != nil {
		e.drafts.Delete(key)
	}
	// The callback may rebind the draft key (an approval reply returns
	// to the conversation's main draft); the rebind already reloaded
	// the document, so only an unchanged binding clears it.
	if e.key == key {
		e.doc = doc.New()
		e.sel = doc.Caret(0)
	}
	e.recomputeObservers()
}

// =============================================================================
// DRAFT PLUMBING
// =============================================================================

func (e *Editor) scheduleSave() {
	if e.drafts == nil || !e.mounted {
		return
	}
	e.drafts.Save(e.key, doc.Serialize(e.doc), e.sel.Head)
}

func (e *Editor) saveNow() {
	if e.drafts == nil || !e.mounted {
		return
	}
	if e.doc.IsBlank() {
		e.drafts.Delete(e.key)
		return
	}
	e.drafts.SaveNow(e.key, doc.Serialize(e.doc), e.sel.Head)
}
