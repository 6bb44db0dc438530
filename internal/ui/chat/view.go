// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bazarle/bazarle-tui/internal/model"
	"github.com/bazarle/bazarle-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the conversation.
func (m Model) View() string {
	if !m.ready {
		return "initializing..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch m.state {
	case StateLoading:
		if len(m.store.Messages(m.peer.ID)) == 0 {
			b.WriteString(m.spinner.View() + " loading conversation...")
		} else {
			b.WriteString(m.viewport.View())
		}
	case StateError:
		b.WriteString(m.theme.ErrorText.Render(m.errText))
	default:
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	b.WriteString(m.renderTypingLine())
	b.WriteString("\n")
	b.WriteString(m.theme.InputContainer.Width(m.width - 2).Render(
		m.theme.InputPrompt.Render("> ") + m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())

	return b.String()
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render(m.peer.DisplayName())
	if m.peer.Role != "" {
		title += m.theme.HelpDesc.Render(" (" + m.peer.Role + ")")
	}

	conn := m.theme.Connected.Render("● online")
	if !m.connected {
		conn = m.theme.Disconnected.Render("● reconnecting")
	}

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(conn) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(
		title + strings.Repeat(" ", gap) + conn)
}

func (m Model) renderTypingLine() string {
	if m.peerTyping {
		return m.theme.TypingIndicator.Render(m.peer.DisplayName() + " is typing...")
	}
	return ""
}

func (m Model) renderStatusLine() string {
	if m.errText != "" {
		return m.theme.ErrorText.Render(m.errText + "  (Ctrl+R to retry)")
	}
	help := []string{
		m.theme.HelpKey.Render("Enter") + m.theme.HelpDesc.Render(" send"),
		m.theme.HelpKey.Render("Esc") + m.theme.HelpDesc.Render(" back"),
		m.theme.HelpKey.Render("C-c") + m.theme.HelpDesc.Render(" quit"),
	}
	return m.theme.StatusBar.Width(m.width).Render(strings.Join(help, "  "))
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

// renderMessages renders the whole transcript from the store.
func (m Model) renderMessages() string {
	messages := m.store.Messages(m.peer.ID)
	if len(messages) == 0 {
		return m.theme.HelpDesc.Render("No messages yet. Say hello!")
	}

	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, m.renderMessage(msg))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderMessage(msg *model.Message) string {
	own := msg.IsFrom(m.self.ID)

	bubble := m.theme.PeerBubble
	if own {
		bubble = m.theme.OwnBubble
	}
	if msg.Warning {
		bubble = m.theme.FlaggedBubble
	}

	maxBody := m.width * 2 / 3
	if maxBody < 20 {
		maxBody = 20
	}
	if util.StringWidth(msg.Body) > maxBody {
		// Width makes lipgloss wrap long bodies inside the bubble.
		bubble = bubble.Width(maxBody)
	}
	content := bubble.Render(msg.Body)

	var meta []string
	meta = append(meta, m.theme.Timestamp.Render(msg.CreatedAt.Local().Format("15:04")))
	if msg.IsImportant {
		meta = append(meta, m.theme.ImportantMark.Render("!"))
	}
	if msg.Warning {
		meta = append(meta, m.theme.ImportantMark.Render("⚠ flagged"))
	}
	if own {
		meta = append(meta, m.renderStatusMark(msg))
	}

	var parts []string
	if quoted := msg.ReplyTo; quoted != nil {
		parts = append(parts, m.theme.ReplyQuote.Render(
			quoted.From.DisplayName()+": "+quoted.Preview(48)))
	}
	parts = append(parts, content)
	parts = append(parts, strings.Join(meta, " "))

	block := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if own {
		return lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right, block)
	}
	return block
}

// renderStatusMark renders the delivery state of an outgoing message.
func (m Model) renderStatusMark(msg *model.Message) string {
	switch {
	case msg.Status == model.StatusFailed:
		return m.theme.FailedMark.Render("✗ failed")
	case msg.IsOptimistic():
		return m.theme.PendingMark.Render("…")
	case msg.Status == model.StatusSeen:
		return m.theme.SeenTick.Render("✓✓")
	default:
		return m.theme.PendingMark.Render("✓")
	}
}
