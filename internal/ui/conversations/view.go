// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversations

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bazarle/bazarle-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the conversation list.
func (m Model) View() string {
	var b strings.Builder

	title := m.theme.HeaderTitle.Render("Bazarle Messages")
	if total := m.store.TotalUnread(); total > 0 {
		title += " " + m.theme.UnreadBadge.Render(fmt.Sprintf("%d unread", total))
	}
	b.WriteString(m.theme.Header.Width(m.width).Render(title))
	b.WriteString("\n")

	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.theme.ListFilter.Render("/ ") + m.filter.View())
		b.WriteString("\n")
	}
	if m.unreadOnly {
		b.WriteString(m.theme.ListFilter.Render("showing unread only"))
		b.WriteString("\n")
	}

	items := m.visibleItems()
	switch {
	case m.loading && len(items) == 0:
		b.WriteString(m.theme.HelpDesc.Render("loading conversations..."))
	case len(items) == 0:
		b.WriteString(m.theme.HelpDesc.Render("no conversations"))
	default:
		for i, item := range items {
			b.WriteString(m.renderItem(item, i == m.cursor))
			b.WriteString("\n")
		}
	}

	if m.errText != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.ErrorText.Render(m.errText))
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderItem(item Item, selected bool) string {
	style := m.theme.ListItem
	if selected {
		style = m.theme.ListItemSelected
	}

	name := m.theme.ListPeerName.Render(item.Peer.DisplayName())
	if item.Peer.Role != "" {
		name += m.theme.HelpDesc.Render(" · " + item.Peer.Role)
	}

	var badge string
	if item.Unread > 0 {
		badge = " " + m.theme.UnreadBadge.Render(fmt.Sprintf("%d", item.Unread))
	}

	var when string
	if !item.LastAt.IsZero() {
		when = m.theme.Timestamp.Render(item.LastAt.Local().Format("Jan 2 15:04"))
	}

	previewWidth := m.width - 8
	if previewWidth < 16 {
		previewWidth = 16
	}
	preview := m.theme.ListPreview.Render(util.TruncateWidth(item.Preview, previewWidth))

	head := name + badge
	gap := m.width - lipgloss.Width(head) - lipgloss.Width(when) - 4
	if gap < 1 {
		gap = 1
	}

	return style.Width(m.width).Render(
		head + strings.Repeat(" ", gap) + when + "\n" + preview)
}

func (m Model) renderHelp() string {
	help := []string{
		m.theme.HelpKey.Render("Enter") + m.theme.HelpDesc.Render(" open"),
		m.theme.HelpKey.Render("/") + m.theme.HelpDesc.Render(" filter"),
		m.theme.HelpKey.Render("u") + m.theme.HelpDesc.Render(" unread only"),
		m.theme.HelpKey.Render("C-l") + m.theme.HelpDesc.Render(" reload"),
		m.theme.HelpKey.Render("C-c") + m.theme.HelpDesc.Render(" quit"),
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(help, "  "))
}
