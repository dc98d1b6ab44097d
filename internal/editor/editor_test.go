// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package editor

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/quill-tui/internal/doc"
	"github.com/morganforge/quill-tui/internal/draft"
	"github.com/morganforge/quill-tui/internal/pipeline"
)

func newTestEditor(t *testing.T, cb Callbacks) (*Editor, *draft.Store) {
	t.Helper()
	store := draft.NewStoreDebounce(draft.NewMemoryKV(), 0)
	e := New(Options{
		Drafts:      store,
		EnterMode:   pipeline.EnterSends,
		TabWidth:    2,
		Placeholder: "Type a message...",
		Callbacks:   cb,
	})
	e.Mount(draft.Key{ConversationID: "conv-1"})
	e.Focus()
	return e, store
}

func typeKeys(e *Editor, s string) {
	for _, r := range s {
		e.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestSendOnEnterClearsContent(t *testing.T) {
	var sent string
	e, _ := newTestEditor(t, Callbacks{Send: func(md string) bool {
		sent = md
		return true
	}})

	typeKeys(e, "hello")
	e.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if sent != "hello" {
		t.Errorf("sent = %q, want %q", sent, "hello")
	}
	if !e.Empty() {
		t.Errorf("composer should be empty after send, has %q", e.Get())
	}
}

func TestSendRejectionKeepsContentAndFocus(t *testing.T) {
	e, _ := newTestEditor(t, Callbacks{Send: func(string) bool { return false }})

	typeKeys(e, "keep me")
	e.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if got := e.Get(); got != "keep me" {
		t.Errorf("content = %q, want retained", got)
	}
	if !e.Focused() {
		t.Error("editor should keep focus after rejected send")
	}
}

func TestSoftBreakLeavesContentIntact(t *testing.T) {
	sends := 0
	e, _ := newTestEditor(t, Callbacks{Send: func(string) bool {
		sends++
		return true
	}})

	typeKeys(e, "up")
	e.Update(tea.KeyMsg{Type: tea.KeyCtrlJ})
	typeKeys(e, "down")

	if sends != 0 {
		t.Errorf("soft break triggered %d sends", sends)
	}
	if got := e.doc.Text(); got != "up\ndown" {
		t.Errorf("text = %q, want %q", got, "up\ndown")
	}
}

func TestBlankComposerDoesNotSend(t *testing.T) {
	sends := 0
	e, _ := newTestEditor(t, Callbacks{Send: func(string) bool {
		sends++
		return true
	}})

	e.Update(tea.KeyMsg{Type: tea.KeyEnter})
	e.TriggerSend()

	if sends != 0 {
		t.Errorf("blank composer sent %d times", sends)
	}
}

func TestUnmountedCommandsAreNoOps(t *testing.T) {
	e := New(Options{})

	e.Set("ignored")
	e.Focus()
	e.TriggerSend()
	e.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})

	if got := e.Get(); got != "" {
		t.Errorf("unmounted Get = %q, want empty", got)
	}
	if e.Focused() {
		t.Error("unmounted editor should not take focus")
	}
}

func TestConversationSwitchPreservesDrafts(t *testing.T) {
	e, _ := newTestEditor(t, Callbacks{})

	typeKeys(e, "draft one")
	e.SetConversation("conv-2")

	if !e.Empty() {
		t.Errorf("fresh conversation should start empty, has %q", e.Get())
	}

	typeKeys(e, "draft two")
	e.SetConversation("conv-1")

	if got := e.Get(); got != "draft one" {
		t.Errorf("restored draft = %q, want %q", got, "draft one")
	}

	e.SetConversation("conv-2")
	if got := e.Get(); got != "draft two" {
		t.Errorf("restored draft = %q, want %q", got, "draft two")
	}
}

func TestApprovalDraftDoesNotClobberConversationDraft(t *testing.T) {
	e, _ := newTestEditor(t, Callbacks{})

	typeKeys(e, "main draft")
	e.SetApprovalRequest("appr-9")

	if !e.Empty() {
		t.Errorf("approval draft should start empty, has %q", e.Get())
	}
	typeKeys(e, "approval reply")

	e.SetApprovalRequest("")
	if got := e.Get(); got != "main draft" {
		t.Errorf("conversation draft = %q, want %q", got, "main draft")
	}
}

func TestDraftRestoresCursor(t *testing.T) {
	store := draft.NewStoreDebounce(draft.NewMemoryKV(), 0)
	key := draft.Key{ConversationID: "conv-1"}
	store.SaveNow(key, "hello", 3)

	e := New(Options{Drafts: store})
	e.Mount(key)

	if got := e.Selection(); got != doc.Caret(3) {
		t.Errorf("restored selection = %+v, want caret at 3", got)
	}
}

func TestSendClearsDraft(t *testing.T) {
	e, store := newTestEditor(t, Callbacks{Send: func(string) bool { return true }})

	typeKeys(e, "bye")
	e.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if d := store.Load(draft.Key{ConversationID: "conv-1"}); d.Content != "" {
		t.Errorf("draft after send = %q, want empty", d.Content)
	}
}

func TestTogglePlanCallback(t *testing.T) {
	toggles := 0
	e, _ := newTestEditor(t, Callbacks{TogglePlan: func() { toggles++ }})

	e.Update(tea.KeyMsg{Type: tea.KeyShiftTab})

	if toggles != 1 {
		t.Errorf("TogglePlan fired %d times, want 1", toggles)
	}
}

func TestDisabledEditorIgnoresKeys(t *testing.T) {
	e, _ := newTestEditor(t, Callbacks{})

	e.SetDisabled(true)
	typeKeys(e, "nope")

	if !e.Empty() {
		t.Errorf("disabled editor accepted input: %q", e.Get())
	}
}

func TestBackspaceMergesBlocks(t *testing.T) {
	e, _ := newTestEditor(t, Callbacks{})

	e.Set("one\n\ntwo")
	// Caret lands at the end; move to the start of "two".
	e.sel = doc.Caret(4)
	e.Update(tea.KeyMsg{Type: tea.KeyBackspace})

	if got := e.doc.Text(); got != "onetwo" {
		t.Errorf("text = %q, want %q", got, "onetwo")
	}
}

func TestCycleEnterMode(t *testing.T) {
	e, _ := newTestEditor(t, Callbacks{})

	if got := e.CycleEnterMode(); got != pipeline.CtrlEnterSends {
		t.Errorf("first cycle = %v, want CtrlEnterSends", got)
	}
	if got := e.CycleEnterMode(); got != pipeline.EnterSends {
		t.Errorf("second cycle = %v, want EnterSends", got)
	}
}

func TestHeightNotificationCoalesces(t *testing.T) {
	var heights []int
	e, _ := newTestEditor(t, Callbacks{HeightChanged: func(h int) { heights = append(heights, h) }})

	typeKeys(e, "a")
	cmd1 := e.Update(tea.KeyMsg{Type: tea.KeyCtrlJ})
	typeKeys(e, "b")
	cmd2 := e.Update(tea.KeyMsg{Type: tea.KeyCtrlJ})

	// Two height moves, one pending slot: the second grow must not
	// schedule a second notification while the first is in flight.
	if cmd1 == nil {
		t.Fatal("first height move should schedule a notification")
	}
	if cmd2 != nil {
		t.Error("second height move should reuse the pending slot")
	}

	e.Update(heightNotifyMsg{})
	if len(heights) != 1 || heights[0] != 3 {
		t.Errorf("heights = %v, want one delivery of 3", heights)
	}
}

func TestToolbarTracksSelection(t *testing.T) {
	e, _ := newTestEditor(t, Callbacks{})

	e.Set("# title")
	if e.Toolbar().HeadingLevel != 1 {
		t.Errorf("HeadingLevel = %d, want 1", e.Toolbar().HeadingLevel)
	}
}

func TestLanguageTargetInsideCodeBlock(t *testing.T) {
	e, _ := newTestEditor(t, Callbacks{})

	e.Set("```go\nfmt.Println()\n```")
	if lt := e.LanguageTarget(); lt == nil || lt.Language != "go" {
		t.Errorf("LanguageTarget = %+v, want go block", lt)
	}
}

func TestPlaceholderShownOnlyWhenBlank(t *testing.T) {
	e, _ := newTestEditor(t, Callbacks{})

	if view := e.View(); view == "" {
		t.Error("blank composer should render the placeholder")
	}

	typeKeys(e, "x")
	if _, show := e.placeholderFor(); show {
		t.Error("placeholder should hide once content exists")
	}
}
