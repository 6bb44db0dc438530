// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversations

import (
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/bazarle/bazarle-tui/internal/model"
	"github.com/bazarle/bazarle-tui/internal/store"
	"github.com/bazarle/bazarle-tui/internal/ui/styles"
)

// =============================================================================
// KEY MAP
// =============================================================================

// KeyMap defines the keyboard bindings for the conversation list.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Open        key.Binding
	Filter      key.Binding
	UnreadOnly  key.Binding
	Refresh     key.Binding
	ClearOrQuit key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings for the conversation list.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "open conversation"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter by name"),
		),
		UnreadOnly: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unread only"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "reload list"),
		),
		ClearOrQuit: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "clear filter"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// =============================================================================
// LIST ITEMS
// =============================================================================

// Item is one renderable row of the conversation list.
type Item struct {
	Peer    model.UserRef
	Preview string
	LastAt  time.Time
	Unread  int
}

// buildItems merges live store state with the bootstrap listing fetched
// from the server. The store wins for any conversation it holds messages
// for; the bootstrap fills in conversations that were never opened.
func buildItems(st *store.ConversationStore, bootstrap map[string]model.ConversationSummary) []Item {
	items := make(map[string]Item)

	for peerID, summary := range bootstrap {
		items[peerID] = Item{
			Peer:    summary.User,
			Preview: summary.LastMessage.Body,
			LastAt:  summary.LastMessage.CreatedAt,
			Unread:  st.Unread(peerID),
		}
	}

	for _, peerID := range st.Peers() {
		snap, ok := st.Snapshot(peerID)
		if !ok {
			continue
		}
		item := Item{
			Peer:   snap.Peer,
			Unread: snap.Unread,
		}
		if last := snap.LastMessage(); last != nil {
			item.Preview = last.Preview(80)
			item.LastAt = last.CreatedAt
		} else if existing, ok := items[peerID]; ok {
			item.Preview = existing.Preview
			item.LastAt = existing.LastAt
		}
		if item.Peer.ID == "" {
			item.Peer.ID = peerID
		}
		if item.Peer.Name == "" {
			if existing, ok := items[peerID]; ok {
				item.Peer.Name = existing.Peer.Name
			}
		}
		items[peerID] = item
	}

	out := make([]Item, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	sortItems(out)
	return out
}

// sortItems orders items by last activity, newest first. Peer id breaks
// ties so the order is stable.
func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].LastAt.Equal(items[j].LastAt) {
			return items[i].LastAt.After(items[j].LastAt)
		}
		return items[i].Peer.ID < items[j].Peer.ID
	})
}

// filterItems applies the name filter and unread-only toggle. The name
// match is a case-insensitive substring test.
func filterItems(items []Item, query string, unreadOnly bool) []Item {
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]Item, 0, len(items))
	for _, item := range items {
		if unreadOnly && item.Unread == 0 {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(item.Peer.DisplayName()), query) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// =============================================================================
// LIST MODEL
// =============================================================================

// Model is the Bubble Tea model for the conversation list.
type Model struct {
	theme *styles.Theme
	self  model.UserRef
	store *store.ConversationStore

	// Bootstrap listing from GET /messages/conversations, keyed by peer id.
	bootstrap map[string]model.ConversationSummary

	// UI state
	filter     textinput.Model
	filtering  bool
	unreadOnly bool
	cursor     int
	width      int
	height     int

	loading bool
	errText string

	keyMap KeyMap
}

// New creates a conversation list view.
func New(theme *styles.Theme, self model.UserRef, st *store.ConversationStore) Model {
	filter := textinput.New()
	filter.Placeholder = "filter by name"
	filter.CharLimit = 64

	return Model{
		theme:     theme,
		self:      self,
		store:     st,
		bootstrap: make(map[string]model.ConversationSummary),
		filter:    filter,
		loading:   true,
		keyMap:    DefaultKeyMap(),
	}
}

// SetSize resizes the view.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.filter.Width = width - 10
}

// visibleItems returns the rows to render, filter and toggle applied.
func (m Model) visibleItems() []Item {
	return filterItems(buildItems(m.store, m.bootstrap), m.filter.Value(), m.unreadOnly)
}

// clampCursor keeps the cursor inside the visible rows.
func (m *Model) clampCursor(visible int) {
	if m.cursor >= visible {
		m.cursor = visible - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
