// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package doc

// =============================================================================
// SELECTION
// =============================================================================

// Selection is an (anchor, head) pair of rune offsets into the document's
// flattened text. Equal anchor and head form a caret. Offsets are only
// meaningful against the document version they were computed from; every
// transaction remaps the selection onto the new version.
type Selection struct {
	Anchor int
	Head   int
}

// Caret returns a collapsed selection at pos.
func Caret(pos int) Selection {
	return Selection{Anchor: pos, Head: pos}
}

// IsCaret reports whether the selection is collapsed.
func (s Selection) IsCaret() bool {
	return s.Anchor == s.Head
}

// From returns the lower bound of the selection.
func (s Selection) From() int {
	if s.Anchor < s.Head {
		return s.Anchor
	}
	return s.Head
}

// To returns the upper bound of the selection.
func (s Selection) To() int {
	if s.Anchor > s.Head {
		return s.Anchor
	}
	return s.Head
}

// Clamp bounds both endpoints into [0, max]. Stale offsets are clamped,
// never dereferenced.
func (s Selection) Clamp(max int) Selection {
	return Selection{Anchor: clampPos(s.Anchor, max), Head: clampPos(s.Head, max)}
}

func clampPos(p, max int) int {
	if p < 0 {
		return 0
	}
	if p > max {
		return max
	}
	return p
}

// =============================================================================
// POSITION MAPPING
// =============================================================================

// MapPos translates a position across an edit that replaced the range
// [editPos, editPos+delLen) with insLen runes. Positions before the edit
// are unchanged; positions inside the deleted range collapse to the edit
// point; positions after shift by the size delta.
func MapPos(pos, editPos, delLen, insLen int) int {
	switch {
	case pos <= editPos:
		return pos
	case pos < editPos+delLen:
		return editPos
	default:
		return pos + insLen - delLen
	}
}

// MapSelection translates both endpoints of a selection across an edit.
func MapSelection(s Selection, editPos, delLen, insLen int) Selection {
	return Selection{
		Anchor: MapPos(s.Anchor, editPos, delLen, insLen),
		Head:   MapPos(s.Head, editPos, delLen, insLen),
	}
}
