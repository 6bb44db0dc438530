// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui contains the Bubble Tea application root. The root model owns
// the screen stack (conversation list, open conversation) and routes pushed
// realtime traffic to whichever screen needs it.
package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bazarle/bazarle-tui/internal/api"
	appchat "github.com/bazarle/bazarle-tui/internal/chat"
	"github.com/bazarle/bazarle-tui/internal/model"
	"github.com/bazarle/bazarle-tui/internal/session"
	"github.com/bazarle/bazarle-tui/internal/storage"
	"github.com/bazarle/bazarle-tui/internal/ui/chat"
	"github.com/bazarle/bazarle-tui/internal/ui/conversations"
	"github.com/bazarle/bazarle-tui/internal/ui/styles"
)

// =============================================================================
// SCREENS
// =============================================================================

type screen int

const (
	screenList screen = iota // Conversation list
	screenChat               // One open conversation
)

// =============================================================================
// APP MODEL
// =============================================================================

// App is the root Bubble Tea model.
type App struct {
	theme   *styles.Theme
	session *session.Session
	client  *api.Client
	cache   *storage.Cache
	typing  *appchat.TypingMonitor

	screen screen
	list   conversations.Model
	chat   chat.Model

	width  int
	height int

	backKey key.Binding
	quitKey key.Binding
}

// NewApp assembles the root model. The cache and typing monitor may be nil;
// every screen degrades gracefully without them.
func NewApp(theme *styles.Theme, sess *session.Session, client *api.Client,
	cache *storage.Cache, typing *appchat.TypingMonitor) App {

	return App{
		theme:   theme,
		session: sess,
		client:  client,
		cache:   cache,
		typing:  typing,
		screen:  screenList,
		list:    conversations.New(theme, sess.User(), sess.Store()),
		backKey: key.NewBinding(key.WithKeys("esc")),
		quitKey: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

// Init starts the conversations listing load.
func (a App) Init() tea.Cmd {
	return conversations.LoadCmd(a.client)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update routes messages. Realtime traffic reaches the store regardless of
// which screen is on top, so unread counts stay correct while the user is
// browsing the list.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.list.SetSize(msg.Width, msg.Height)
		if a.screen == screenChat {
			a.chat.SetSize(msg.Width, msg.Height)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case conversations.OpenMsg:
		return a.openConversation(msg.Peer)

	case conversations.LoadedMsg, conversations.LoadFailedMsg:
		var cmd tea.Cmd
		a.list, cmd = a.list.Update(msg)
		return a, cmd

	case chat.MessageReceivedMsg:
		return a.handleIncoming(msg)

	case chat.ConnectionChangedMsg:
		return a.handleConnection(msg)

	case chat.HistoryLoadedMsg, chat.HistoryFailedMsg, chat.SendCompletedMsg,
		chat.SendFailedMsg, chat.SeenReceivedMsg, chat.TypingReceivedMsg:
		if a.screen == screenChat {
			var cmd tea.Cmd
			a.chat, cmd = a.chat.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Spinner ticks and other component messages go to the active screen.
	return a.forward(msg)
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.quitKey) {
		if a.typing != nil {
			a.typing.Stop()
		}
		return a, tea.Quit
	}

	if a.screen == screenChat && key.Matches(msg, a.backKey) {
		// Leaving the conversation flushes any pending stop-typing signal
		// so the peer's indicator never sticks.
		if a.typing != nil {
			a.typing.Stop()
		}
		a.screen = screenList
		// Unread counts may have moved while the list was hidden.
		return a, conversations.LoadCmd(a.client)
	}

	return a.forward(msg)
}

// openConversation pushes the conversation view for the selected peer.
func (a App) openConversation(peer model.UserRef) (tea.Model, tea.Cmd) {
	a.chat = chat.New(a.theme, a.session.User(), peer, a.session.Store(),
		a.client, a.cache, a.typing)
	a.chat.SetSize(a.width, a.height)
	a.screen = screenChat
	return a, a.chat.Init()
}

// handleIncoming applies a pushed message. The open conversation view does
// its own bookkeeping; on the list screen the store is updated here so the
// unread badge moves in real time.
func (a App) handleIncoming(msg chat.MessageReceivedMsg) (tea.Model, tea.Cmd) {
	if a.screen == screenChat {
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(msg)
		return a, cmd
	}

	st := a.session.Store()
	peer := msg.Message.PeerOf(a.session.SelfID())
	if msg.Message.IsFrom(a.session.SelfID()) {
		// Echo of our own send, possibly from another device: reconcile so
		// any pending placeholder is consumed rather than duplicated.
		st.ReconcileEcho(peer, msg.Message)
	} else if st.AddMessage(peer, msg.Message) {
		// Duplicates never bump the unread counter.
		st.IncrementUnread(peer)
	}
	return a, nil
}

func (a App) handleConnection(msg chat.ConnectionChangedMsg) (tea.Model, tea.Cmd) {
	if a.screen == screenChat {
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(msg)
		return a, cmd
	}
	if msg.Connected {
		// Reconnected while browsing: refresh the listing to close the gap.
		return a, conversations.LoadCmd(a.client)
	}
	return a, nil
}

// forward delivers a message to the active screen.
func (a App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.screen {
	case screenChat:
		a.chat, cmd = a.chat.Update(msg)
	default:
		a.list, cmd = a.list.Update(msg)
		if rk := a.refreshIfRequested(msg); rk != nil {
			cmd = tea.Batch(cmd, rk)
		}
	}
	return a, cmd
}

// refreshIfRequested issues a listing reload when the list's refresh key is
// pressed. The list model itself has no API client, so the reload command
// is built here.
func (a App) refreshIfRequested(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if key.Matches(keyMsg, conversations.DefaultKeyMap().Refresh) {
		return conversations.LoadCmd(a.client)
	}
	return nil
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the active screen.
func (a App) View() string {
	if a.screen == screenChat {
		return a.chat.View()
	}
	return a.list.View()
}
