// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}

	// Styles must render without panicking regardless of terminal.
	_ = theme.OwnBubble.Render("hello")
	_ = theme.PeerBubble.Render("hello")
	_ = theme.FlaggedBubble.Render("flagged")
	_ = theme.UnreadBadge.Render("3")
	_ = theme.TypingIndicator.Render("Boris is typing...")
}

func TestAdaptiveColorsDefined(t *testing.T) {
	colors := map[string]struct{ Light, Dark string }{
		"Teal":    {Teal.Light, Teal.Dark},
		"Rose":    {Rose.Light, Rose.Dark},
		"Amber":   {Amber.Light, Amber.Dark},
		"Emerald": {Emerald.Light, Emerald.Dark},
	}
	for name, c := range colors {
		if c.Light == "" || c.Dark == "" {
			t.Errorf("%s missing a variant: %+v", name, c)
		}
	}
}
