// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestAdaptiveColorsHaveBothVariants(t *testing.T) {
	colors := map[string]struct{ light, dark string }{
		"Cyan":        {Cyan.Light, Cyan.Dark},
		"Emerald":     {Emerald.Light, Emerald.Dark},
		"Amber":       {Amber.Light, Amber.Dark},
		"Rose":        {Rose.Light, Rose.Dark},
		"Blue":        {Blue.Light, Blue.Dark},
		"Overlay":     {Overlay.Light, Overlay.Dark},
		"CodeBg":      {CodeBg.Light, CodeBg.Dark},
		"TextPrimary": {TextPrimary.Light, TextPrimary.Dark},
		"TextMuted":   {TextMuted.Light, TextMuted.Dark},
	}
	for name, c := range colors {
		if c.light == "" || c.dark == "" {
			t.Errorf("%s is missing a light or dark variant", name)
		}
	}
}

func TestFocusedComposerBoxDiffersFromBlurred(t *testing.T) {
	a := ComposerBox.Render("x")
	b := ComposerBoxFocused.Render("x")
	if a == b && ComposerBox.GetBorderTopForeground() == ComposerBoxFocused.GetBorderTopForeground() {
		t.Error("focused composer border should differ from blurred")
	}
}
