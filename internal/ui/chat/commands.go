// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bazarle/bazarle-tui/internal/api"
	"github.com/bazarle/bazarle-tui/internal/storage"
)

// commandTimeout bounds REST calls issued from the view.
const commandTimeout = 30 * time.Second

// =============================================================================
// COMMANDS
// =============================================================================

// LoadHistoryCmd fetches the authoritative history for a conversation.
func LoadHistoryCmd(client *api.Client, peerID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		resp, err := client.History(ctx, peerID)
		if err != nil {
			return HistoryFailedMsg{PeerID: peerID, Err: err}
		}
		return HistoryLoadedMsg{
			PeerID:   peerID,
			Messages: resp.Messages,
			Unread:   resp.UnreadCount,
		}
	}
}

// LoadCachedHistoryCmd paints the last known history from the local cache
// while the server load is in flight. A cache miss or error produces no
// message at all; the server response will arrive either way.
func LoadCachedHistoryCmd(cache *storage.Cache, peerID string, limit int) tea.Cmd {
	if cache == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		messages, err := cache.LoadMessages(ctx, peerID, limit)
		if err != nil || len(messages) == 0 {
			return nil
		}
		return HistoryLoadedMsg{PeerID: peerID, Messages: messages, FromCache: true}
	}
}

// SendMessageCmd posts a message over the durable channel. localID is the
// optimistic placeholder's id, forwarded as the correlation token.
func SendMessageCmd(client *api.Client, peerID, body, localID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		resp, err := client.Send(ctx, peerID, body, localID)
		if err != nil {
			return SendFailedMsg{PeerID: peerID, LocalID: localID, Err: err}
		}
		return SendCompletedMsg{PeerID: peerID, LocalID: localID, Message: &resp.Message}
	}
}

// CacheMessagesCmd persists a loaded history to the local cache in the
// background. Failures are swallowed; the cache is best-effort.
func CacheMessagesCmd(cache *storage.Cache, peerID string, msg HistoryLoadedMsg) tea.Cmd {
	if cache == nil || msg.FromCache {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		cache.SaveMessages(ctx, peerID, msg.Messages)
		return nil
	}
}
