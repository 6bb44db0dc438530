// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bazarle/bazarle-tui/internal/model"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles incoming messages for the conversation view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state == StateLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case HistoryLoadedMsg:
		return m.handleHistoryLoaded(msg)

	case HistoryFailedMsg:
		if msg.PeerID != m.peer.ID {
			return m, nil
		}
		// A failed load never clears previously loaded state.
		if m.state == StateLoading && len(m.store.Messages(m.peer.ID)) == 0 {
			m.state = StateError
		} else {
			m.state = StateReady
		}
		m.errText = "could not load history: " + msg.Err.Error()
		return m, nil

	case SendCompletedMsg:
		if msg.PeerID == m.peer.ID {
			m.store.ReconcileEcho(m.peer, msg.Message)
			m.errText = ""
			m.refreshViewport(true)
		}
		return m, nil

	case SendFailedMsg:
		if msg.PeerID == m.peer.ID {
			m.store.MarkFailed(msg.PeerID, msg.LocalID)
			m.errText = "send failed: " + msg.Err.Error()
			m.refreshViewport(false)
		}
		return m, nil

	case MessageReceivedMsg:
		return m.handleIncoming(msg.Message)

	case SeenReceivedMsg:
		if msg.By == m.peer.ID {
			m.store.MarkSeen(m.peer.ID, m.self.ID)
			m.refreshViewport(false)
		}
		return m, nil

	case TypingReceivedMsg:
		// Indicators from other conversations are not shown here.
		if msg.From == m.peer.ID {
			m.peerTyping = msg.Active
		}
		return m, nil

	case ConnectionChangedMsg:
		m.connected = msg.Connected
		if msg.Connected {
			// Reload to close any gap an outage created.
			m.peerTyping = false
			cmds = append(cmds, LoadHistoryCmd(m.client, m.peer.ID))
		} else if m.typing != nil {
			m.typing.Reset()
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.Retry):
		return m.retryFailed()

	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
		return m, nil
	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	case key.Matches(msg, m.keyMap.Bottom):
		m.viewport.GotoBottom()
		return m, nil
	}

	// Everything else edits the composer.
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	after := m.input.Value()

	if after != before && m.typing != nil {
		if after == "" {
			// Composer cleared: the peer's indicator goes out right away.
			m.typing.Stop()
		} else {
			m.typing.Keystroke(context.Background())
		}
	}
	return m, cmd
}

// submit turns the composer content into an optimistic send.
func (m Model) submit() (Model, tea.Cmd) {
	body := strings.TrimSpace(m.input.Value())
	if body == "" || m.state == StateLoading {
		return m, nil
	}

	placeholder := model.NewOptimistic(m.self, m.peer, body)
	m.store.AddMessage(m.peer, placeholder)

	m.input.Reset()
	if m.typing != nil {
		m.typing.Stop()
	}
	m.errText = ""
	m.refreshViewport(true)

	return m, SendMessageCmd(m.client, m.peer.ID, body, placeholder.LocalID)
}

// retryFailed re-sends the newest failed message. The placeholder stays in
// place; the eventual echo reconciles it away.
func (m Model) retryFailed() (Model, tea.Cmd) {
	var failed *model.Message
	for _, msg := range m.store.Messages(m.peer.ID) {
		if msg.Status == model.StatusFailed && msg.IsFrom(m.self.ID) {
			failed = msg
		}
	}
	if failed == nil {
		return m, nil
	}

	m.errText = ""
	return m, SendMessageCmd(m.client, m.peer.ID, failed.Body, failed.LocalID)
}

// =============================================================================
// EVENT HANDLERS
// =============================================================================

func (m Model) handleHistoryLoaded(msg HistoryLoadedMsg) (Model, tea.Cmd) {
	if msg.PeerID != m.peer.ID {
		return m, nil
	}

	if msg.FromCache {
		// Cached history only paints an empty view; it never overwrites
		// anything the server already delivered.
		if m.state == StateLoading && len(m.store.Messages(m.peer.ID)) == 0 {
			m.store.SetMessages(m.peer, msg.Messages)
			m.refreshViewport(true)
		}
		return m, nil
	}

	// Optimistic placeholders survive a reload; their echoes may not be in
	// the fetched history yet.
	var pending []*model.Message
	for _, existing := range m.store.Messages(m.peer.ID) {
		if existing.IsOptimistic() {
			pending = append(pending, existing)
		}
	}

	confirmed := make(map[string]bool, len(msg.Messages))
	for _, srv := range msg.Messages {
		if srv.LocalID != "" {
			confirmed[srv.LocalID] = true
		}
	}

	m.store.SetMessages(m.peer, msg.Messages)
	for _, placeholder := range pending {
		if !confirmed[placeholder.LocalID] {
			m.store.AddMessage(m.peer, placeholder)
		}
	}
	// Opening the conversation consumes its unread count.
	m.store.MarkSeen(m.peer.ID, m.self.ID)
	m.state = StateReady
	m.errText = ""
	m.refreshViewport(true)

	return m, CacheMessagesCmd(m.cache, m.peer.ID, msg)
}

// handleIncoming applies a pushed message. Traffic for the open
// conversation lands in the transcript and is immediately seen; everything
// else only bumps that conversation's unread count. An echo of the user's
// own send goes through reconciliation so the optimistic placeholder is
// consumed whichever channel delivers the echo first.
func (m Model) handleIncoming(incoming *model.Message) (Model, tea.Cmd) {
	peer := incoming.PeerOf(m.self.ID)
	own := incoming.IsFrom(m.self.ID)

	if peer.ID != m.peer.ID {
		if own {
			m.store.ReconcileEcho(peer, incoming)
		} else if m.store.AddMessage(peer, incoming) {
			// Duplicates never bump the unread counter.
			m.store.IncrementUnread(peer)
		}
		return m, nil
	}

	if own {
		m.store.ReconcileEcho(m.peer, incoming)
	} else {
		m.store.AddMessage(m.peer, incoming)
		// A delivered message supersedes the typing indicator.
		m.peerTyping = false
	}
	m.store.MarkSeen(m.peer.ID, m.self.ID)
	m.refreshViewport(true)
	return m, nil
}
