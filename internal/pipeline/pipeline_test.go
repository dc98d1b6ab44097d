// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/quill-tui/internal/doc"
)

// press dispatches a key and applies the outcome the way the editor
// surface would: a claimed transaction replaces the context state, an
// unclaimed key runs the default behavior (rune insertion, single-step
// caret movement, single-character backspace).
func press(t *testing.T, p *Pipeline, ctx *Context, msg tea.KeyMsg) *Result {
	t.Helper()
	res, err := p.Dispatch(msg, ctx)
	if err != nil {
		t.Fatalf("Dispatch(%v): %v", msg, err)
	}
	if res != nil {
		if res.Tx != nil {
			ctx.Doc, ctx.Sel = res.Tx.Doc, res.Tx.Sel
		}
		return res
	}

	// Default behavior for unclaimed keys.
	switch msg.Type {
	case tea.KeyRunes:
		tx, err := replaceSelection(ctx, string(msg.Runes), nil)
		if err != nil {
			t.Fatalf("default insert: %v", err)
		}
		ctx.Doc, ctx.Sel = tx.Doc, tx.Sel
	case tea.KeyLeft:
		if ctx.Sel.Head > 0 {
			ctx.Sel = doc.Caret(ctx.Sel.Head - 1)
		}
	case tea.KeyRight:
		if ctx.Sel.Head < ctx.Doc.Length() {
			ctx.Sel = doc.Caret(ctx.Sel.Head + 1)
		}
	case tea.KeyBackspace:
		if ctx.Sel.Head > 0 {
			tx, err := doc.Apply(ctx.Doc, ctx.Sel, doc.DeleteRange{From: ctx.Sel.Head - 1, To: ctx.Sel.Head})
			if err != nil {
				t.Fatalf("default backspace: %v", err)
			}
			ctx.Doc, ctx.Sel = tx.Doc, tx.Sel
		}
	}
	return nil
}

func typeText(t *testing.T, p *Pipeline, ctx *Context, s string) {
	t.Helper()
	for _, r := range s {
		press(t, p, ctx, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func newCtx(d *doc.Document, sel doc.Selection) *Context {
	return &Context{Doc: d, Sel: sel, Mode: EnterSends, TabWidth: 2}
}

// =============================================================================
// SEND ON ENTER
// =============================================================================

func TestEnterSendsOutsideSpecialContexts(t *testing.T) {
	p := New()
	ctx := newCtx(doc.New(), doc.Caret(0))
	typeText(t, p, ctx, "hello")

	res := press(t, p, ctx, tea.KeyMsg{Type: tea.KeyEnter})
	if res == nil || !res.Send {
		t.Fatalf("Enter should request send, got %+v", res)
	}
	if got := ctx.Doc.Text(); got != "hello" {
		t.Errorf("content changed on send request: %q", got)
	}
}

func TestShiftEnterInsertsSoftBreak(t *testing.T) {
	p := New()
	ctx := newCtx(doc.New(), doc.Caret(0))
	typeText(t, p, ctx, "up")

	res := press(t, p, ctx, tea.KeyMsg{Type: tea.KeyCtrlJ})
	if res == nil || res.Send {
		t.Fatalf("soft break should be claimed without send, got %+v", res)
	}
	if got := ctx.Doc.Text(); got != "up\n" {
		t.Errorf("text = %q, want %q", got, "up\n")
	}
}

func TestPlainEnterInCtrlEnterMode(t *testing.T) {
	p := New()
	ctx := newCtx(doc.New(), doc.Caret(0))
	ctx.Mode = CtrlEnterSends
	typeText(t, p, ctx, "x")

	if res, _ := p.Dispatch(tea.KeyMsg{Type: tea.KeyEnter}, ctx); res != nil {
		t.Errorf("plain Enter should be unclaimed in ctrl+enter mode, got %+v", res)
	}
	res := press(t, p, ctx, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	if res == nil || !res.Send {
		t.Errorf("Alt+Enter should send, got %+v", res)
	}
}

func TestEnterInCodeBlockInsertsNewline(t *testing.T) {
	p := New()
	d := &doc.Document{Blocks: []*doc.Node{doc.NewCodeBlock("go", "x")}}
	ctx := newCtx(d, doc.Caret(1))

	res := press(t, p, ctx, tea.KeyMsg{Type: tea.KeyEnter})
	if res == nil || res.Send {
		t.Fatalf("code block Enter must not send, got %+v", res)
	}
	if got := ctx.Doc.Text(); got != "x\n" {
		t.Errorf("text = %q, want literal newline", got)
	}
}

// =============================================================================
// LIST ENTER
// =============================================================================

func TestEnterSplitsListItem(t *testing.T) {
	p := New()
	d := doc.Parse("- [ ] item")
	ctx := newCtx(d, doc.Caret(4))

	res := press(t, p, ctx, tea.KeyMsg{Type: tea.KeyEnter})
	if res == nil || res.Send {
		t.Fatalf("list Enter must split, got %+v", res)
	}
	list := ctx.Doc.Blocks[0]
	if len(list.Children) != 2 {
		t.Fatalf("items = %d, want 2", len(list.Children))
	}
	if list.Children[1].Checked != doc.CheckUnchecked {
		t.Error("new task item should start unchecked")
	}
}

func TestEnterOnEmptyItemExitsList(t *testing.T) {
	p := New()
	d := doc.Parse("- item")
	// Split once at end, leaving an empty second item, then Enter again.
	ctx := newCtx(d, doc.Caret(4))
	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyEnter})

	res := press(t, p, ctx, tea.KeyMsg{Type: tea.KeyEnter})
	if res == nil {
		t.Fatal("empty-item Enter should be claimed")
	}
	if len(ctx.Doc.Blocks) != 2 || ctx.Doc.Blocks[1].Type != doc.NodeParagraph {
		t.Errorf("blocks = %+v, want list then paragraph", ctx.Doc.Blocks)
	}
}

// =============================================================================
// TAB
// =============================================================================

func TestTabPromotesParagraphToHeading(t *testing.T) {
	p := New()
	ctx := newCtx(doc.New(), doc.Caret(0))
	typeText(t, p, ctx, "t")

	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyTab})
	if b := ctx.Doc.Blocks[0]; b.Type != doc.NodeHeading || b.Level != 1 {
		t.Fatalf("block = %+v, want H1", b)
	}

	// Tab walks the level toward H6 and stops there.
	for i := 0; i < 8; i++ {
		press(t, p, ctx, tea.KeyMsg{Type: tea.KeyTab})
	}
	if ctx.Doc.Blocks[0].Level != 6 {
		t.Errorf("level = %d, want capped at 6", ctx.Doc.Blocks[0].Level)
	}

	// Shift+Tab walks back down and past H1 lands on a paragraph.
	for i := 0; i < 6; i++ {
		press(t, p, ctx, tea.KeyMsg{Type: tea.KeyShiftTab})
	}
	if ctx.Doc.Blocks[0].Type != doc.NodeParagraph {
		t.Errorf("block = %v, want paragraph past H1", ctx.Doc.Blocks[0].Type)
	}
}

func TestShiftTabOnPlainParagraphTogglesPlan(t *testing.T) {
	p := New()
	ctx := newCtx(doc.New(), doc.Caret(0))
	res := press(t, p, ctx, tea.KeyMsg{Type: tea.KeyShiftTab})
	if res == nil || !res.TogglePlan {
		t.Fatalf("Shift+Tab should toggle plan mode, got %+v", res)
	}
}

func TestTabIndentsListItem(t *testing.T) {
	p := New()
	d := doc.Parse("- one\n- two")
	ctx := newCtx(d, doc.Caret(5)) // inside "two"

	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyTab})
	list := ctx.Doc.Blocks[0]
	if len(list.Children) != 1 {
		t.Fatalf("top items = %d, want second item nested", len(list.Children))
	}

	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyShiftTab})
	if len(ctx.Doc.Blocks[0].Children) != 2 {
		t.Error("Shift+Tab should restore the sibling item")
	}
}

func TestTabFirstListItemStaysClaimed(t *testing.T) {
	p := New()
	d := doc.Parse("- only")
	ctx := newCtx(d, doc.Caret(0))
	res := press(t, p, ctx, tea.KeyMsg{Type: tea.KeyTab})
	if res == nil {
		t.Fatal("Tab in a list must stay claimed even when indent is impossible")
	}
	if got := ctx.Doc.Text(); got != "only" {
		t.Errorf("text = %q, want unchanged", got)
	}
}

func TestTabStopsInCodeBlock(t *testing.T) {
	p := New()
	d := &doc.Document{Blocks: []*doc.Node{doc.NewCodeBlock("go", "")}}
	ctx := newCtx(d, doc.Caret(0))

	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyTab})
	if got := ctx.Doc.Text(); got != "  " {
		t.Fatalf("first Tab = %q, want two spaces", got)
	}
	typeText(t, p, ctx, "x")
	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyTab})
	// Column 3: one space reaches the next stop.
	if got := ctx.Doc.Text(); got != "  x " {
		t.Fatalf("Tab at odd column = %q, want single space", got)
	}
}

// =============================================================================
// CODE BLOCK BACKSPACE
// =============================================================================

func TestCodeBlockBackspaceSnapsToTabStop(t *testing.T) {
	p := New()
	d := &doc.Document{Blocks: []*doc.Node{doc.NewCodeBlock("go", "    x")}}
	ctx := newCtx(d, doc.Caret(5))

	// Delete the x, then Backspace once: two spaces go, not one.
	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyBackspace})
	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyBackspace})
	if got := ctx.Doc.Text(); got != "  " {
		t.Errorf("text = %q, want two trailing spaces", got)
	}
}

func TestCodeBlockBackspaceOddColumnRemovesOne(t *testing.T) {
	p := New()
	d := &doc.Document{Blocks: []*doc.Node{doc.NewCodeBlock("go", "   ")}}
	ctx := newCtx(d, doc.Caret(3))

	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyBackspace})
	if got := ctx.Doc.Text(); got != "  " {
		t.Errorf("text = %q, want landing on even column", got)
	}
}

func TestBackspaceEmptyCodeBlockBecomesParagraph(t *testing.T) {
	p := New()
	d := &doc.Document{Blocks: []*doc.Node{doc.NewCodeBlock("go", "")}}
	ctx := newCtx(d, doc.Caret(0))

	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyBackspace})
	if ctx.Doc.Blocks[0].Type != doc.NodeParagraph {
		t.Errorf("block = %v, want paragraph", ctx.Doc.Blocks[0].Type)
	}
}

// =============================================================================
// CODE BLOCK EXIT
// =============================================================================

func TestArrowDownExitsCodeBlockAtLastLine(t *testing.T) {
	p := New()
	d := &doc.Document{Blocks: []*doc.Node{doc.NewCodeBlock("go", "a\nb")}}
	ctx := newCtx(d, doc.Caret(3))

	res := press(t, p, ctx, tea.KeyMsg{Type: tea.KeyDown})
	if res == nil || !res.ScrollIntoView {
		t.Fatalf("exit should request scroll, got %+v", res)
	}
	if len(ctx.Doc.Blocks) != 2 || ctx.Doc.Blocks[1].Type != doc.NodeParagraph {
		t.Fatalf("blocks = %+v, want trailing paragraph", ctx.Doc.Blocks)
	}
	if ctx.Sel.Head != ctx.Doc.Length() {
		t.Errorf("caret = %d, want in trailing paragraph at %d", ctx.Sel.Head, ctx.Doc.Length())
	}
}

func TestEscapeInCodeBlockKeepsCaret(t *testing.T) {
	p := New()
	d := &doc.Document{Blocks: []*doc.Node{doc.NewCodeBlock("go", "ab")}}
	ctx := newCtx(d, doc.Caret(1))

	res := press(t, p, ctx, tea.KeyMsg{Type: tea.KeyEsc})
	if res == nil {
		t.Fatal("Escape in a code block should be claimed")
	}
	if ctx.Sel != doc.Caret(1) {
		t.Errorf("caret moved to %+v", ctx.Sel)
	}
}

// =============================================================================
// CODE SPAN NAVIGATION
// =============================================================================

// spanCtx builds "x<ab>y" with <ab> inline code, span [1,3).
func spanCtx(caret int) *Context {
	d := &doc.Document{Blocks: []*doc.Node{
		{Type: doc.NodeParagraph, Runs: []doc.Run{
			{Text: "x"},
			{Text: "ab", Marks: []doc.Mark{{Type: doc.MarkCode}}},
			{Text: "y"},
		}},
	}}
	return newCtx(d, doc.Caret(caret))
}

func TestCodeSpanTraversalCount(t *testing.T) {
	p := New()
	// Span [1,3): from position 0, reaching 3 takes exactly 3 presses.
	ctx := spanCtx(0)
	presses := 0
	for ctx.Sel.Head < 3 {
		press(t, p, ctx, tea.KeyMsg{Type: tea.KeyRight})
		presses++
		if presses > 10 {
			t.Fatal("caret stuck traversing the span")
		}
	}
	if presses != 3 {
		t.Errorf("presses = %d, want 3", presses)
	}
}

func TestCodeSpanArrowLeftFromOutside(t *testing.T) {
	p := New()
	ctx := spanCtx(4) // end of "xaby"
	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyLeft})
	if ctx.Sel.Head != 3 {
		t.Fatalf("caret = %d, want 3 (right-inside edge)", ctx.Sel.Head)
	}
	if !ctx.Doc.InCodeSpan(ctx.Sel.Head) {
		t.Error("position 3 should be inside the span")
	}
	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyLeft})
	if ctx.Sel.Head != 2 {
		t.Errorf("caret = %d, want 2 (not past the left boundary)", ctx.Sel.Head)
	}
}

func TestBackspaceLastSpanCharClearsMark(t *testing.T) {
	p := New()
	d := &doc.Document{Blocks: []*doc.Node{
		{Type: doc.NodeParagraph, Runs: []doc.Run{
			{Text: "a"},
			{Text: "c", Marks: []doc.Mark{{Type: doc.MarkCode}}},
		}},
	}}
	ctx := newCtx(d, doc.Caret(2))

	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyBackspace})
	if got := ctx.Doc.Text(); got != "a" {
		t.Fatalf("text = %q, want %q", got, "a")
	}

	// Typing now produces plain text, not a resurrected span.
	typeText(t, p, ctx, "b")
	if ctx.Doc.RangeHasMark(0, 2, doc.MarkCode) || ctx.Doc.InCodeSpan(2) {
		t.Error("typed text should be plain after the span died")
	}
}

// =============================================================================
// STRUCTURE GUARDS
// =============================================================================

func TestBlockquoteBackspaceLifts(t *testing.T) {
	p := New()
	d := doc.Parse("> quoted")
	ctx := newCtx(d, doc.Caret(0))

	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyBackspace})
	if ctx.Doc.Blocks[0].Type != doc.NodeParagraph {
		t.Errorf("block = %v, want lifted paragraph", ctx.Doc.Blocks[0].Type)
	}
	if got := ctx.Doc.Text(); got != "quoted" {
		t.Errorf("text = %q, want content preserved", got)
	}
}

func TestDeleteAtItemStartRemovesPrecedingChar(t *testing.T) {
	p := New()
	d := doc.Parse("- ab\n- cd")
	ctx := newCtx(d, doc.Caret(3)) // start of "cd"

	res := press(t, p, ctx, tea.KeyMsg{Type: tea.KeyDelete})
	if res == nil {
		t.Fatal("forward delete at item start should be claimed")
	}
	if got := ctx.Doc.Text(); got != "a\ncd" {
		t.Errorf("text = %q, want preceding char gone", got)
	}
	list := ctx.Doc.Blocks[0]
	if list.Type != doc.NodeList || len(list.Children) != 2 {
		t.Error("list structure should survive")
	}
}

// =============================================================================
// SELECTION WRAP AND PUNCTUATION
// =============================================================================

func TestSelectionWrapBrackets(t *testing.T) {
	p := New()
	d := &doc.Document{Blocks: []*doc.Node{doc.NewParagraph("hello")}}
	ctx := newCtx(d, doc.Selection{Anchor: 0, Head: 5})

	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("(")})
	if got := ctx.Doc.Text(); got != "(hello)" {
		t.Fatalf("text = %q, want wrapped", got)
	}
	if ctx.Sel.From() != 1 || ctx.Sel.To() != 6 {
		t.Errorf("selection = %+v, want inner range kept", ctx.Sel)
	}
}

func TestSelectionWrapBacktickTogglesCodeMark(t *testing.T) {
	p := New()
	d := &doc.Document{Blocks: []*doc.Node{doc.NewParagraph("ref")}}
	ctx := newCtx(d, doc.Selection{Anchor: 0, Head: 3})

	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("`")})
	if !ctx.Doc.RangeHasMark(0, 3, doc.MarkCode) {
		t.Fatal("backtick should toggle the code mark on")
	}
	if got := ctx.Doc.Text(); got != "ref" {
		t.Errorf("text = %q, want no literal backticks", got)
	}

	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("`")})
	if ctx.Doc.RangeHasMark(0, 3, doc.MarkCode) {
		t.Error("second backtick should toggle the mark off")
	}
}

func TestSelectionWrapInCodeBlockReplacesLiterally(t *testing.T) {
	p := New()
	d := &doc.Document{Blocks: []*doc.Node{doc.NewCodeBlock("go", "abc")}}
	ctx := newCtx(d, doc.Selection{Anchor: 0, Head: 3})

	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("(")})
	if got := ctx.Doc.Text(); got != "(" {
		t.Errorf("text = %q, want literal replacement", got)
	}
}

func TestSmartPunctuationNormalizedInCode(t *testing.T) {
	p := New()
	d := &doc.Document{Blocks: []*doc.Node{doc.NewCodeBlock("go", "")}}
	ctx := newCtx(d, doc.Caret(0))

	press(t, p, ctx, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'“'}})
	if got := ctx.Doc.Text(); got != `"` {
		t.Errorf("text = %q, want straight quote", got)
	}
}

// =============================================================================
// OBSERVERS
// =============================================================================

func TestComputeToolbar(t *testing.T) {
	d := doc.Parse("**bold** and `code`\n\n```go\nx\n```")
	// Caret right after "bold" text.
	st := ComputeToolbar(d, doc.Caret(2))
	if !st.Bold || st.Code || st.CodeBlock {
		t.Errorf("toolbar at bold text = %+v", st)
	}

	// Inside the code block.
	st = ComputeToolbar(d, doc.Caret(d.Length()))
	if !st.CodeBlock {
		t.Errorf("toolbar in code block = %+v", st)
	}
}

func TestCodeLanguageTarget(t *testing.T) {
	d := doc.Parse("para\n\n```rust\nfn main() {}\n```")
	if CodeLanguageAt(d, doc.Caret(0)) != nil {
		t.Error("paragraph caret should have no language target")
	}
	lt := CodeLanguageAt(d, doc.Caret(d.Length()))
	if lt == nil || lt.Language != "rust" {
		t.Fatalf("target = %+v, want rust block", lt)
	}
}

func TestPlaceholder(t *testing.T) {
	ph := Placeholder{Text: "Type a message", Disabled: "Waiting for agent"}

	if s, ok := ph.For(doc.New(), true); !ok || s != "Type a message" {
		t.Errorf("blank enabled = %q/%v", s, ok)
	}
	if s, ok := ph.For(doc.New(), false); !ok || s != "Waiting for agent" {
		t.Errorf("blank disabled = %q/%v", s, ok)
	}
	d := doc.Parse("text")
	if _, ok := ph.For(d, true); ok {
		t.Error("non-blank document should show no placeholder")
	}
}

// =============================================================================
// MARKDOWN SHORTCUTS
// =============================================================================

func TestTypedBulletPrefixBecomesList(t *testing.T) {
	p := New()
	ctx := newCtx(doc.New(), doc.Caret(0))
	typeText(t, p, ctx, "- item")

	list := ctx.Doc.Blocks[0]
	if list.Type != doc.NodeList || list.Kind != doc.ListBullet {
		t.Fatalf("block = %+v, want bullet list", list)
	}
	if got := list.Children[0].Children[0].Text(); got != "item" {
		t.Errorf("item text = %q", got)
	}
}

func TestTypedOrdinalPrefixBecomesOrderedList(t *testing.T) {
	p := New()
	ctx := newCtx(doc.New(), doc.Caret(0))
	typeText(t, p, ctx, "1. step")

	list := ctx.Doc.Blocks[0]
	if list.Type != doc.NodeList || list.Kind != doc.ListOrdered {
		t.Fatalf("block = %+v, want ordered list", list)
	}
	if got := list.Children[0].Children[0].Text(); got != "step" {
		t.Errorf("item text = %q", got)
	}
}

func TestTypedQuotePrefixBecomesBlockquote(t *testing.T) {
	p := New()
	ctx := newCtx(doc.New(), doc.Caret(0))
	typeText(t, p, ctx, "> aside")

	quote := ctx.Doc.Blocks[0]
	if quote.Type != doc.NodeBlockquote {
		t.Fatalf("block = %+v, want blockquote", quote)
	}
	if got := quote.Children[0].Text(); got != "aside" {
		t.Errorf("quote text = %q", got)
	}
}

func TestTypedFencePrefixBecomesCodeBlock(t *testing.T) {
	p := New()
	ctx := newCtx(doc.New(), doc.Caret(0))
	typeText(t, p, ctx, "```go x := 1")

	cb := ctx.Doc.Blocks[0]
	if cb.Type != doc.NodeCodeBlock || cb.Language != "go" {
		t.Fatalf("block = %+v, want go code block", cb)
	}
	if got := cb.Text(); got != "x := 1" {
		t.Errorf("code text = %q", got)
	}
}

func TestShortcutIgnoredInsideListItem(t *testing.T) {
	p := New()
	d := doc.Parse("- a")
	ctx := newCtx(d, doc.Caret(0))

	// A bullet prefix typed inside an existing item stays literal text.
	typeText(t, p, ctx, "- ")

	list := ctx.Doc.Blocks[0]
	if list.Type != doc.NodeList || list.Kind != doc.ListBullet {
		t.Fatalf("block = %+v, want bullet list", list)
	}
	item := list.Children[0]
	if got := item.Children[0].Text(); got != "- a" {
		t.Errorf("item text = %q, want %q", got, "- a")
	}
	if ch := item.Children[0]; ch.Type != doc.NodeParagraph {
		t.Errorf("item child = %v, want paragraph", ch.Type)
	}
}

func TestShortcutRequiresBlockStartPrefix(t *testing.T) {
	p := New()
	ctx := newCtx(doc.New(), doc.Caret(0))
	typeText(t, p, ctx, "note - x")

	got := ctx.Doc.Blocks[0]
	if got.Type != doc.NodeParagraph {
		t.Fatalf("block = %+v, want paragraph", got)
	}
	if got.Text() != "note - x" {
		t.Errorf("text = %q, want %q", got.Text(), "note - x")
	}
}
