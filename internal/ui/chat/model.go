// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bazarle/bazarle-tui/internal/api"
	appchat "github.com/bazarle/bazarle-tui/internal/chat"
	"github.com/bazarle/bazarle-tui/internal/model"
	"github.com/bazarle/bazarle-tui/internal/storage"
	"github.com/bazarle/bazarle-tui/internal/store"
	"github.com/bazarle/bazarle-tui/internal/ui/styles"
)

// =============================================================================
// VIEW STATE
// =============================================================================

// State represents the current state of the conversation view.
type State int

const (
	StateLoading State = iota // History load in flight
	StateReady                // Ready for input
	StateError                // History load failed, nothing to show
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for one open conversation. It renders from
// the store and never keeps its own copy of messages; every mutation goes
// through the store so realtime traffic and the view can never disagree.
type Model struct {
	// State
	state State

	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int
	ready  bool

	// Participants
	self model.UserRef
	peer model.UserRef

	// Wiring
	store  *store.ConversationStore
	client *api.Client
	cache  *storage.Cache
	typing *appchat.TypingMonitor

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keyMap   KeyMap

	// Realtime state
	peerTyping bool
	connected  bool

	// Error state
	errText string
}

// New creates a conversation view for the given peer. The typing monitor
// may be nil when the persistent channel is unavailable.
func New(theme *styles.Theme, self, peer model.UserRef, st *store.ConversationStore,
	client *api.Client, cache *storage.Cache, typing *appchat.TypingMonitor) Model {

	input := textinput.New()
	input.Placeholder = "Message " + peer.DisplayName() + "..."
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	if typing != nil {
		typing.SetPeer(peer.ID)
	}

	return Model{
		state:     StateLoading,
		theme:     theme,
		self:      self,
		peer:      peer,
		store:     st,
		client:    client,
		cache:     cache,
		typing:    typing,
		input:     input,
		spinner:   sp,
		keyMap:    DefaultKeyMap(),
		connected: true,
	}
}

// Init starts the history load, painting cached history first when a cache
// is available.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		LoadHistoryCmd(m.client, m.peer.ID),
	}
	if cached := LoadCachedHistoryCmd(m.cache, m.peer.ID, model.MaxMessages); cached != nil {
		cmds = append(cmds, cached)
	}
	return tea.Batch(cmds...)
}

// Peer returns the conversation's peer.
func (m Model) Peer() model.UserRef {
	return m.peer
}

// SetSize resizes the view.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 1
	inputHeight := 3
	footerHeight := 2

	vpHeight := height - headerHeight - inputHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.input.Width = width - 6

	m.refreshViewport(false)
}

// refreshViewport re-renders the transcript from the store. When follow is
// true, or the user was already at the bottom, the view snaps to the
// newest message.
func (m *Model) refreshViewport(follow bool) {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if follow || atBottom {
		m.viewport.GotoBottom()
	}
}
