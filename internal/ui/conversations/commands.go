// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversations

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bazarle/bazarle-tui/internal/api"
	"github.com/bazarle/bazarle-tui/internal/model"
)

const commandTimeout = 30 * time.Second

// =============================================================================
// MESSAGES
// =============================================================================

// LoadedMsg carries the conversations listing from the server.
type LoadedMsg struct {
	Entries []api.ConversationEntry
}

// LoadFailedMsg reports a failed listing load; existing rows stay on
// screen.
type LoadFailedMsg struct {
	Err error
}

// OpenMsg asks the app to open a conversation. Emitted when the user
// selects a row.
type OpenMsg struct {
	Peer model.UserRef
}

// =============================================================================
// COMMANDS
// =============================================================================

// LoadCmd fetches the conversations listing.
func LoadCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		entries, err := client.Conversations(ctx)
		if err != nil {
			return LoadFailedMsg{Err: err}
		}
		return LoadedMsg{Entries: entries}
	}
}
