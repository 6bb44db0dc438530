// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversations

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bazarle/bazarle-tui/internal/model"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles incoming messages for the conversation list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case LoadedMsg:
		return m.handleLoaded(msg)

	case LoadFailedMsg:
		m.loading = false
		// Whatever rows we already have stay on screen.
		m.errText = "could not load conversations: " + msg.Err.Error()
		return m, nil
	}

	return m, nil
}

func (m Model) handleLoaded(msg LoadedMsg) (Model, tea.Cmd) {
	m.loading = false
	m.errText = ""

	for _, entry := range msg.Entries {
		if entry.User.ID == "" {
			continue
		}
		m.bootstrap[entry.User.ID] = model.ConversationSummary{
			User:        entry.User,
			LastMessage: entry.LastMessage,
		}
		// Unread counts from the listing seed the store; opening the
		// conversation later consumes them.
		m.store.SetUnread(entry.User, entry.Unread)
	}
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// While typing a filter, most keys edit the query.
	if m.filtering {
		switch {
		case key.Matches(msg, m.keyMap.ClearOrQuit):
			m.filtering = false
			m.filter.Reset()
			m.filter.Blur()
			m.cursor = 0
			return m, nil
		case key.Matches(msg, m.keyMap.Open):
			m.filtering = false
			m.filter.Blur()
			return m.open()
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.cursor = 0
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keyMap.Up):
		m.cursor--
		m.clampCursor(len(m.visibleItems()))
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		m.cursor++
		m.clampCursor(len(m.visibleItems()))
		return m, nil

	case key.Matches(msg, m.keyMap.Open):
		return m.open()

	case key.Matches(msg, m.keyMap.Filter):
		m.filtering = true
		m.filter.Focus()
		return m, nil

	case key.Matches(msg, m.keyMap.UnreadOnly):
		m.unreadOnly = !m.unreadOnly
		m.cursor = 0
		return m, nil

	case key.Matches(msg, m.keyMap.ClearOrQuit):
		if m.filter.Value() != "" || m.unreadOnly {
			m.filter.Reset()
			m.unreadOnly = false
			m.cursor = 0
		}
		return m, nil
	}

	return m, nil
}

// open emits an OpenMsg for the row under the cursor.
func (m Model) open() (Model, tea.Cmd) {
	items := m.visibleItems()
	if len(items) == 0 {
		return m, nil
	}
	m.clampCursor(len(items))
	peer := items[m.cursor].Peer

	return m, func() tea.Msg {
		return OpenMsg{Peer: peer}
	}
}
