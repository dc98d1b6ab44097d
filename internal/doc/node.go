// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package doc implements the composer's structured document: a tree of block
// nodes carrying marked inline text, flat rune-offset addressing, and the
// transaction engine through which all mutation flows.
package doc

import (
	"strings"
)

// =============================================================================
// NODE TYPES
// =============================================================================

// NodeType identifies a block node in the document tree.
type NodeType int

const (
	// NodeParagraph is a leaf block holding inline content.
	NodeParagraph NodeType = iota
	// NodeHeading is a leaf block with a Level attribute (1-6).
	NodeHeading
	// NodeCodeBlock is a leaf block with a Language attribute. Its inline
	// content never carries marks and may contain literal newlines.
	NodeCodeBlock
	// NodeRule is a horizontal rule. It holds no inline content.
	NodeRule
	// NodeList is a container of list items with a Kind attribute.
	NodeList
	// NodeListItem is a container inside a list. Checked is present
	// (not CheckNone) iff the parent list's Kind is ListTask.
	NodeListItem
	// NodeBlockquote is a container of arbitrary blocks.
	NodeBlockquote
)

// String returns a human-readable name for the node type.
func (t NodeType) String() string {
	switch t {
	case NodeParagraph:
		return "paragraph"
	case NodeHeading:
		return "heading"
	case NodeCodeBlock:
		return "code_block"
	case NodeRule:
		return "rule"
	case NodeList:
		return "list"
	case NodeListItem:
		return "list_item"
	case NodeBlockquote:
		return "blockquote"
	default:
		return "unknown"
	}
}

// IsLeaf reports whether the type holds inline content directly.
func (t NodeType) IsLeaf() bool {
	return t == NodeParagraph || t == NodeHeading || t == NodeCodeBlock
}

// IsContainer reports whether the type holds child block nodes.
func (t NodeType) IsContainer() bool {
	return t == NodeList || t == NodeListItem || t == NodeBlockquote
}

// ListKind identifies the flavor of a NodeList.
type ListKind int

const (
	// ListBullet is an unordered list.
	ListBullet ListKind = iota
	// ListOrdered is a numbered list.
	ListOrdered
	// ListTask is a bullet list whose items carry a checkbox.
	ListTask
)

// String returns a human-readable name for the list kind.
func (k ListKind) String() string {
	switch k {
	case ListBullet:
		return "bullet"
	case ListOrdered:
		return "ordered"
	case ListTask:
		return "task"
	default:
		return "unknown"
	}
}

// CheckState is the tri-state checkbox attribute of a list item.
type CheckState int

const (
	// CheckNone means the item is not a task item.
	CheckNone CheckState = iota
	// CheckUnchecked is an unticked task item.
	CheckUnchecked
	// CheckChecked is a ticked task item.
	CheckChecked
)

// =============================================================================
// MARKS
// =============================================================================

// MarkType identifies an inline text decoration.
type MarkType int

const (
	MarkBold MarkType = iota
	MarkItalic
	MarkStrike
	MarkCode
	MarkLink
)

// String returns a human-readable name for the mark type.
func (t MarkType) String() string {
	switch t {
	case MarkBold:
		return "bold"
	case MarkItalic:
		return "italic"
	case MarkStrike:
		return "strikethrough"
	case MarkCode:
		return "code"
	case MarkLink:
		return "link"
	default:
		return "unknown"
	}
}

// Mark is a non-structural decoration attached to a run of text.
// Href is set only for MarkLink.
type Mark struct {
	Type MarkType
	Href string
}

// Equal reports whether two marks are the same decoration.
func (m Mark) Equal(o Mark) bool {
	return m.Type == o.Type && m.Href == o.Href
}

// HasMark reports whether marks contains a mark of the given type.
func HasMark(marks []Mark, t MarkType) bool {
	for _, m := range marks {
		if m.Type == t {
			return true
		}
	}
	return false
}

// AddMark returns marks with m added, replacing any existing mark of the
// same type (links are exclusive per run).
func AddMark(marks []Mark, m Mark) []Mark {
	out := make([]Mark, 0, len(marks)+1)
	for _, e := range marks {
		if e.Type != m.Type {
			out = append(out, e)
		}
	}
	return append(out, m)
}

// RemoveMark returns marks without any mark of the given type.
func RemoveMark(marks []Mark, t MarkType) []Mark {
	out := make([]Mark, 0, len(marks))
	for _, e := range marks {
		if e.Type != t {
			out = append(out, e)
		}
	}
	return out
}

// sameMarks reports whether two mark sets are equal ignoring order.
func sameMarks(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for _, m := range a {
		found := false
		for _, o := range b {
			if m.Equal(o) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// =============================================================================
// RUNS
// =============================================================================

// Run is a contiguous piece of text sharing one mark set.
type Run struct {
	Text  string
	Marks []Mark
}

// runeLen returns the rune length of the run's text.
func (r Run) runeLen() int {
	return len([]rune(r.Text))
}

// cloneRuns deep-copies a run slice.
func cloneRuns(runs []Run) []Run {
	out := make([]Run, len(runs))
	for i, r := range runs {
		out[i] = Run{Text: r.Text, Marks: append([]Mark(nil), r.Marks...)}
	}
	return out
}

// normalizeRuns merges adjacent runs with identical marks and drops empty
// runs. A leaf with no text keeps zero runs.
func normalizeRuns(runs []Run) []Run {
	var out []Run
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		if n := len(out); n > 0 && sameMarks(out[n-1].Marks, r.Marks) {
			out[n-1].Text += r.Text
			continue
		}
		out = append(out, r)
	}
	return out
}

// =============================================================================
// NODES
// =============================================================================

// Node is a block node in the document tree. Leaves (paragraph, heading,
// code block) use Runs; containers (list, list item, blockquote) use
// Children. Rules use neither.
type Node struct {
	Type NodeType

	// Attributes. Which fields are meaningful depends on Type.
	Level    int        // heading level 1-6
	Language string     // code block language, "" = none
	Kind     ListKind   // list kind
	Checked  CheckState // list item checkbox

	Runs     []Run
	Children []*Node
}

// NewParagraph returns a paragraph leaf with the given plain text.
func NewParagraph(text string) *Node {
	n := &Node{Type: NodeParagraph}
	if text != "" {
		n.Runs = []Run{{Text: text}}
	}
	return n
}

// NewHeading returns a heading leaf.
func NewHeading(level int, text string) *Node {
	n := &Node{Type: NodeHeading, Level: level}
	if text != "" {
		n.Runs = []Run{{Text: text}}
	}
	return n
}

// NewCodeBlock returns a code block leaf.
func NewCodeBlock(language, code string) *Node {
	n := &Node{Type: NodeCodeBlock, Language: language}
	if code != "" {
		n.Runs = []Run{{Text: code}}
	}
	return n
}

// Clone deep-copies the node.
func (n *Node) Clone() *Node {
	c := &Node{
		Type:     n.Type,
		Level:    n.Level,
		Language: n.Language,
		Kind:     n.Kind,
		Checked:  n.Checked,
	}
	if n.Runs != nil {
		c.Runs = cloneRuns(n.Runs)
	}
	for _, ch := range n.Children {
		c.Children = append(c.Children, ch.Clone())
	}
	return c
}

// Text returns the concatenated inline text of a leaf node.
func (n *Node) Text() string {
	var sb strings.Builder
	for _, r := range n.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// RuneLen returns the rune length of a leaf's inline text. Rules have
// length zero.
func (n *Node) RuneLen() int {
	total := 0
	for _, r := range n.Runs {
		total += r.runeLen()
	}
	return total
}

// IsEmpty reports whether a leaf holds no text.
func (n *Node) IsEmpty() bool {
	return n.RuneLen() == 0
}

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is an ordered tree of block nodes. The zero value is not valid;
// use New or Parse. A valid document always contains at least one block.
type Document struct {
	Blocks []*Node
}

// New returns a document holding a single empty paragraph.
func New() *Document {
	return &Document{Blocks: []*Node{NewParagraph("")}}
}

// Clone deep-copies the document.
func (d *Document) Clone() *Document {
	c := &Document{}
	for _, b := range d.Blocks {
		c.Blocks = append(c.Blocks, b.Clone())
	}
	return c
}

// IsBlank reports whether the document is a single empty paragraph, the
// state in which the composer shows its placeholder.
func (d *Document) IsBlank() bool {
	return len(d.Blocks) == 1 &&
		d.Blocks[0].Type == NodeParagraph &&
		d.Blocks[0].IsEmpty()
}

// Text returns the document's flattened text: every leaf's inline text in
// tree order, separated by single newlines. Positions in a Selection are
// rune offsets into this string.
func (d *Document) Text() string {
	spans := d.spans()
	var sb strings.Builder
	for i, sp := range spans {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(sp.node.Text())
	}
	return sb.String()
}

// Length returns the rune length of the flattened text, which is also the
// maximum valid caret position.
func (d *Document) Length() int {
	spans := d.spans()
	total := 0
	for i, sp := range spans {
		if i > 0 {
			total++ // separator slot
		}
		total += sp.node.RuneLen()
	}
	return total
}

// =============================================================================
// POSITION ADDRESSING
// =============================================================================

// leafSpan locates one leaf in the flattened text. start and end are the
// absolute rune offsets of the leaf's first and one-past-last character;
// caret positions start..end inclusive sit inside this leaf. parents runs
// from outermost container to immediate parent (empty at top level).
type leafSpan struct {
	node    *Node
	parents []*Node
	start   int
	end     int
}

// spans returns the leaf spans of the document in tree order. Rules occupy
// a zero-length span so every block is addressable.
func (d *Document) spans() []leafSpan {
	var out []leafSpan
	pos := 0
	var walk func(n *Node, parents []*Node)
	walk = func(n *Node, parents []*Node) {
		if n.Type.IsContainer() {
			chain := append(append([]*Node(nil), parents...), n)
			for _, ch := range n.Children {
				walk(ch, chain)
			}
			return
		}
		if len(out) > 0 {
			pos++ // separator between consecutive leaves
		}
		ln := n.RuneLen()
		out = append(out, leafSpan{node: n, parents: parents, start: pos, end: pos + ln})
		pos += ln
	}
	for _, b := range d.Blocks {
		walk(b, nil)
	}
	return out
}

// leafAt returns the span containing the caret position. Positions exactly
// on a separator slot belong to the end of the preceding leaf.
func (d *Document) leafAt(pos int) (leafSpan, bool) {
	spans := d.spans()
	for _, sp := range spans {
		if pos >= sp.start && pos <= sp.end {
			return sp, true
		}
	}
	return leafSpan{}, false
}

// LeafBlockAt returns the leaf block containing pos, with the rune offset
// of pos within that leaf's text. ok is false for out-of-range positions.
func (d *Document) LeafBlockAt(pos int) (n *Node, offset int, ok bool) {
	sp, found := d.leafAt(pos)
	if !found {
		return nil, 0, false
	}
	return sp.node, pos - sp.start, true
}

// marksAt returns the mark set governing the character ending at pos inside
// the given leaf (the character before the caret), or nil at offset 0.
func marksAt(n *Node, offset int) []Mark {
	if offset <= 0 {
		return nil
	}
	seen := 0
	for _, r := range n.Runs {
		seen += r.runeLen()
		if offset <= seen {
			return r.Marks
		}
	}
	return nil
}
