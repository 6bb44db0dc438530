// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application. It detects
// the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER / STATUS BAR
	// ==========================================================================

	Header       lipgloss.Style
	HeaderTitle  lipgloss.Style
	StatusBar    lipgloss.Style
	Connected    lipgloss.Style
	Disconnected lipgloss.Style
	UnreadBadge  lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLES
	// ==========================================================================

	OwnBubble     lipgloss.Style
	PeerBubble    lipgloss.Style
	FlaggedBubble lipgloss.Style
	Timestamp     lipgloss.Style
	SeenTick      lipgloss.Style
	FailedMark    lipgloss.Style
	PendingMark   lipgloss.Style
	ImportantMark lipgloss.Style
	ReplyQuote    lipgloss.Style

	// ==========================================================================
	// COMPOSER
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style
	TypingIndicator  lipgloss.Style

	// ==========================================================================
	// CONVERSATION LIST
	// ==========================================================================

	ListItem         lipgloss.Style
	ListItemSelected lipgloss.Style
	ListPeerName     lipgloss.Style
	ListPreview      lipgloss.Style
	ListFilter       lipgloss.Style

	// ==========================================================================
	// MISC
	// ==========================================================================

	ErrorText lipgloss.Style
	HelpKey   lipgloss.Style
	HelpDesc  lipgloss.Style
}

// NewTheme builds a theme for the current terminal.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextPrimary).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.Connected = lipgloss.NewStyle().Foreground(Emerald)
	t.Disconnected = lipgloss.NewStyle().Foreground(Rose)
	t.UnreadBadge = lipgloss.NewStyle().
		Background(Teal).
		Foreground(TextInverse).
		Padding(0, 1).
		Bold(true)

	t.OwnBubble = lipgloss.NewStyle().
		Background(OwnBubbleBg).
		Foreground(OwnBubbleFg).
		Padding(0, 1)
	t.PeerBubble = lipgloss.NewStyle().
		Background(PeerBubbleBg).
		Foreground(PeerBubbleFg).
		Padding(0, 1)
	t.FlaggedBubble = lipgloss.NewStyle().
		Background(FlaggedBubbleBg).
		Foreground(FlaggedBubbleFg).
		Padding(0, 1)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
	t.SeenTick = lipgloss.NewStyle().Foreground(Emerald)
	t.FailedMark = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.PendingMark = lipgloss.NewStyle().Foreground(TextMuted)
	t.ImportantMark = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.ReplyQuote = lipgloss.NewStyle().
		Foreground(TextSecondary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Overlay).
		PaddingLeft(1)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Foreground(Teal).Bold(true)
	t.InputPlaceholder = lipgloss.NewStyle().Foreground(TextMuted)
	t.TypingIndicator = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	t.ListItem = lipgloss.NewStyle().Padding(0, 1)
	t.ListItemSelected = lipgloss.NewStyle().
		Padding(0, 1).
		Background(TealDeep).
		Foreground(TextPrimary).
		Bold(true)
	t.ListPeerName = lipgloss.NewStyle().Foreground(TextPrimary).Bold(true)
	t.ListPreview = lipgloss.NewStyle().Foreground(TextSecondary)
	t.ListFilter = lipgloss.NewStyle().Foreground(Indigo)

	t.ErrorText = lipgloss.NewStyle().Foreground(Rose)
	t.HelpKey = lipgloss.NewStyle().Foreground(Teal)
	t.HelpDesc = lipgloss.NewStyle().Foreground(TextMuted)

	return t
}
