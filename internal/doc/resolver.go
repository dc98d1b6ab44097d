// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package doc

// =============================================================================
// POSITION RESOLUTION
// =============================================================================

// Ancestry describes where a flattened-text position sits in the block
// tree: the leaf block, the caret offset inside it, and the container
// chain from the document root down to the leaf's parent.
type Ancestry struct {
	Leaf    *Node
	Offset  int
	Parents []*Node
}

// Resolve maps a position to its ancestry. Positions past the end resolve
// to the last leaf; a blank document resolves to its single paragraph.
func (d *Document) Resolve(pos int) Ancestry {
	sp, ok := d.leafAt(pos)
	if !ok {
		spans := d.spans()
		sp = spans[len(spans)-1]
		pos = sp.end
	}
	return Ancestry{
		Leaf:    sp.node,
		Offset:  pos - sp.start,
		Parents: append([]*Node(nil), sp.parents...),
	}
}

// InType reports whether the position sits inside a block of the given
// type, either the leaf itself or any ancestor container.
func (a Ancestry) InType(t NodeType) bool {
	if a.Leaf != nil && a.Leaf.Type == t {
		return true
	}
	for _, p := range a.Parents {
		if p.Type == t {
			return true
		}
	}
	return false
}

// ListItem returns the innermost enclosing list item, nil outside lists.
func (a Ancestry) ListItem() *Node {
	return nearestAncestor(a.Parents, NodeListItem)
}

// List returns the innermost enclosing list, nil outside lists.
func (a Ancestry) List() *Node {
	return nearestAncestor(a.Parents, NodeList)
}

// MarksAt returns the active mark set at a position: the marks of the
// character immediately before the caret. At the start of a block there is
// no preceding character, so the set is empty.
func (d *Document) MarksAt(pos int) []Mark {
	sp, ok := d.leafAt(pos)
	if !ok {
		return nil
	}
	return marksAt(sp.node, pos-sp.start)
}

// RangeHasMark reports whether every character in [from, to) carries a mark
// of the given type. Code block content and separator slots are skipped; an
// empty range reports false.
func (d *Document) RangeHasMark(from, to int, t MarkType) bool {
	if from >= to {
		return false
	}
	found := false
	for _, sp := range d.spans() {
		if sp.node.Type == NodeCodeBlock || sp.node.Type == NodeRule {
			continue
		}
		lo, hi := from-sp.start, to-sp.start
		if hi <= 0 || lo >= sp.node.RuneLen() {
			continue
		}
		if lo < 0 {
			lo = 0
		}
		if n := sp.node.RuneLen(); hi > n {
			hi = n
		}
		seen := 0
		for _, r := range sp.node.Runs {
			rl := r.runeLen()
			rLo, rHi := seen, seen+rl
			seen = rHi
			if rHi <= lo || rLo >= hi {
				continue
			}
			if !HasMark(r.Marks, t) {
				return false
			}
			found = true
		}
	}
	return found
}

// =============================================================================
// CODE SPAN BOUNDARIES
// =============================================================================

// Range is a half-open character range [From, To) in flattened text.
type Range struct {
	From int
	To   int
}

// Len returns the number of characters covered.
func (r Range) Len() int { return r.To - r.From }

// InCodeSpan reports whether the caret position sits inside an inline code
// span. Ownership follows the character before the caret: the position
// just after the last code character is still inside, the position before
// the first code character is outside.
func (d *Document) InCodeSpan(pos int) bool {
	return HasMark(d.MarksAt(pos), MarkCode)
}

// CodeSpanAround returns the extent of the inline code span the caret is
// inside, using before-caret ownership, or nil when the caret is outside
// any span. Directly adjacent spans count as one contiguous extent.
func (d *Document) CodeSpanAround(pos int) *Range {
	sp, ok := d.leafAt(pos)
	if !ok || sp.node.Type == NodeCodeBlock {
		return nil
	}
	offset := pos - sp.start
	if !HasMark(marksAt(sp.node, offset), MarkCode) {
		return nil
	}

	coded := codeFlags(sp.node)
	lo := offset - 1
	for lo > 0 && coded[lo-1] {
		lo--
	}
	hi := offset
	for hi < len(coded) && coded[hi] {
		hi++
	}
	return &Range{From: sp.start + lo, To: sp.start + hi}
}

// NextCodeSpan returns the first code span starting at or after pos within
// the same leaf, nil when none follows.
func (d *Document) NextCodeSpan(pos int) *Range {
	sp, ok := d.leafAt(pos)
	if !ok || sp.node.Type == NodeCodeBlock {
		return nil
	}
	coded := codeFlags(sp.node)
	for i := pos - sp.start; i < len(coded); i++ {
		if coded[i] {
			j := i
			for j < len(coded) && coded[j] {
				j++
			}
			return &Range{From: sp.start + i, To: sp.start + j}
		}
	}
	return nil
}

// PrevCodeSpan returns the last code span ending at or before pos within
// the same leaf, nil when none precedes.
func (d *Document) PrevCodeSpan(pos int) *Range {
	sp, ok := d.leafAt(pos)
	if !ok || sp.node.Type == NodeCodeBlock {
		return nil
	}
	coded := codeFlags(sp.node)
	end := pos - sp.start
	if end > len(coded) {
		end = len(coded)
	}
	for i := end - 1; i >= 0; i-- {
		if coded[i] {
			j := i + 1
			lo := i
			for lo > 0 && coded[lo-1] {
				lo--
			}
			return &Range{From: sp.start + lo, To: sp.start + j}
		}
	}
	return nil
}

// codeFlags returns a per-character table marking which runes of the leaf
// carry the inline code mark.
func codeFlags(n *Node) []bool {
	flags := make([]bool, 0, n.RuneLen())
	for _, r := range n.Runs {
		coded := HasMark(r.Marks, MarkCode)
		for range []rune(r.Text) {
			flags = append(flags, coded)
		}
	}
	return flags
}
