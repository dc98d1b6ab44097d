// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package doc

import (
	"testing"
)

func TestParseInlineMarks(t *testing.T) {
	d := Parse("plain **bold** *italic* ~~gone~~ `code` [site](https://example.com)")
	if len(d.Blocks) != 1 || d.Blocks[0].Type != NodeParagraph {
		t.Fatalf("blocks = %+v, want one paragraph", d.Blocks)
	}

	byText := map[string][]Mark{}
	for _, r := range d.Blocks[0].Runs {
		byText[r.Text] = r.Marks
	}

	checks := []struct {
		text string
		mark MarkType
	}{
		{"bold", MarkBold},
		{"italic", MarkItalic},
		{"gone", MarkStrike},
		{"code", MarkCode},
		{"site", MarkLink},
	}
	for _, c := range checks {
		marks, ok := byText[c.text]
		if !ok {
			t.Errorf("run %q missing, runs = %+v", c.text, d.Blocks[0].Runs)
			continue
		}
		if !HasMark(marks, c.mark) {
			t.Errorf("run %q lacks %s mark", c.text, c.mark)
		}
	}

	for _, m := range byText["site"] {
		if m.Type == MarkLink && m.Href != "https://example.com" {
			t.Errorf("link href = %q", m.Href)
		}
	}
}

func TestParseBlocks(t *testing.T) {
	src := "## Sub\n\npara\n\n```go\nx := 1\n```\n\n---\n\n> quoted"
	d := Parse(src)
	if len(d.Blocks) != 5 {
		t.Fatalf("blocks = %d, want 5: %+v", len(d.Blocks), d.Blocks)
	}
	if h := d.Blocks[0]; h.Type != NodeHeading || h.Level != 2 || h.Text() != "Sub" {
		t.Errorf("heading = %+v", h)
	}
	if cb := d.Blocks[2]; cb.Type != NodeCodeBlock || cb.Language != "go" || cb.Text() != "x := 1" {
		t.Errorf("code block = %+v (text %q)", cb, cb.Text())
	}
	if d.Blocks[3].Type != NodeRule {
		t.Errorf("fourth block = %v, want rule", d.Blocks[3].Type)
	}
	if q := d.Blocks[4]; q.Type != NodeBlockquote || q.Children[0].Text() != "quoted" {
		t.Errorf("quote = %+v", q)
	}
}

func TestParseTaskList(t *testing.T) {
	d := Parse("- [ ] open\n- [x] done")
	list := d.Blocks[0]
	if list.Type != NodeList || list.Kind != ListTask {
		t.Fatalf("block = %+v, want task list", list)
	}
	if list.Children[0].Checked != CheckUnchecked {
		t.Errorf("first item checked = %v, want unchecked", list.Children[0].Checked)
	}
	if list.Children[1].Checked != CheckChecked {
		t.Errorf("second item checked = %v, want checked", list.Children[1].Checked)
	}
}

func TestParseOrderedList(t *testing.T) {
	d := Parse("1. first\n2. second")
	list := d.Blocks[0]
	if list.Type != NodeList || list.Kind != ListOrdered {
		t.Fatalf("block = %+v, want ordered list", list)
	}
	if len(list.Children) != 2 {
		t.Fatalf("items = %d, want 2", len(list.Children))
	}
	for _, item := range list.Children {
		if item.Checked != CheckNone {
			t.Errorf("ordered item carries checkbox: %+v", item)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	for _, src := range []string{"", "   \n\n  "} {
		if d := Parse(src); !d.IsBlank() {
			t.Errorf("Parse(%q) not blank: %+v", src, d.Blocks)
		}
	}
}

func TestSerializeBlocks(t *testing.T) {
	tests := []struct {
		name string
		doc  *Document
		want string
	}{
		{
			"heading and paragraph",
			&Document{Blocks: []*Node{NewHeading(1, "Title"), NewParagraph("body")}},
			"# Title\n\nbody",
		},
		{
			"code block",
			&Document{Blocks: []*Node{NewCodeBlock("go", "x := 1\ny := 2")}},
			"```go\nx := 1\ny := 2\n```",
		},
		{
			"rule",
			&Document{Blocks: []*Node{NewParagraph("a"), {Type: NodeRule}, NewParagraph("b")}},
			"a\n\n---\n\nb",
		},
		{
			"blockquote",
			&Document{Blocks: []*Node{{Type: NodeBlockquote, Children: []*Node{NewParagraph("quoted")}}}},
			"> quoted",
		},
		{
			"task list",
			taskListDoc("open", "done"),
			"- [ ] open\n- [ ] done",
		},
		{
			"marked runs",
			&Document{Blocks: []*Node{{Type: NodeParagraph, Runs: []Run{
				{Text: "see "},
				{Text: "this", Marks: []Mark{{Type: MarkBold}}},
				{Text: " and "},
				{Text: "ref", Marks: []Mark{{Type: MarkCode}}},
			}}}},
			"see **this** and `ref`",
		},
		{
			"soft break becomes hard break",
			&Document{Blocks: []*Node{NewParagraph("up\ndown")}},
			"up\\\ndown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Serialize(tt.doc); got != tt.want {
				t.Errorf("Serialize = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerializeEscapesLiteralText(t *testing.T) {
	texts := []string{
		"*hi*",
		"_hi_",
		"~~keep~~",
		"`x`",
		"- item",
		"+ item",
		"# note",
		"> aside",
		"1. step",
		"2) step",
		"---",
		"[label](url)",
		"<http://example.com>",
		"back\\slash",
	}
	for _, text := range texts {
		d := &Document{Blocks: []*Node{NewParagraph(text)}}
		got := Parse(Serialize(d))

		if len(got.Blocks) != 1 || got.Blocks[0].Type != NodeParagraph {
			t.Errorf("%q: blocks = %+v, want one paragraph", text, got.Blocks)
			continue
		}
		p := got.Blocks[0]
		if p.Text() != text {
			t.Errorf("text %q came back as %q", text, p.Text())
		}
		for _, r := range p.Runs {
			if len(r.Marks) != 0 {
				t.Errorf("%q: run %q gained marks %+v", text, r.Text, r.Marks)
			}
		}
	}
}

func TestRoundTripPreservesStructure(t *testing.T) {
	d := &Document{Blocks: []*Node{
		NewHeading(2, "release *notes*"),
		{Type: NodeParagraph, Runs: []Run{
			{Text: "literal *stars* beside "},
			{Text: "starred", Marks: []Mark{{Type: MarkBold}}},
		}},
		NewCodeBlock("sh", "echo *glob*"),
	}}
	got := Parse(Serialize(d))

	if len(got.Blocks) != 3 {
		t.Fatalf("blocks = %d, want 3: %+v", len(got.Blocks), got.Blocks)
	}
	if h := got.Blocks[0]; h.Type != NodeHeading || h.Level != 2 || h.Text() != "release *notes*" {
		t.Errorf("heading = %+v (text %q)", h, h.Text())
	}
	p := got.Blocks[1]
	if p.Text() != "literal *stars* beside starred" {
		t.Errorf("paragraph text = %q", p.Text())
	}
	var bolded string
	for _, r := range p.Runs {
		if HasMark(r.Marks, MarkBold) {
			bolded += r.Text
		} else if len(r.Marks) != 0 {
			t.Errorf("run %q carries unexpected marks %+v", r.Text, r.Marks)
		}
	}
	if bolded != "starred" {
		t.Errorf("bold text = %q, want %q", bolded, "starred")
	}
	if cb := got.Blocks[2]; cb.Type != NodeCodeBlock || cb.Text() != "echo *glob*" {
		t.Errorf("code block = %+v (text %q)", cb, cb.Text())
	}
}

func TestRoundTrip(t *testing.T) {
	sources := []string{
		"# Title\n\nbody with **bold** and `code`",
		"- one\n- two",
		"- [ ] open\n- [x] done",
		"```py\nprint(1)\n```",
		"> quoted line",
	}
	for _, src := range sources {
		d := Parse(src)
		again := Parse(Serialize(d))
		if Serialize(again) != Serialize(d) {
			t.Errorf("round trip diverged for %q:\nfirst  %q\nsecond %q",
				src, Serialize(d), Serialize(again))
		}
	}
}

func TestSerializeChecked(t *testing.T) {
	d := taskListDoc("a", "b")
	d.Blocks[0].Children[1].Checked = CheckChecked
	want := "- [ ] a\n- [x] b"
	if got := Serialize(d); got != want {
		t.Errorf("Serialize = %q, want %q", got, want)
	}
}
