// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/bazarle/bazarle-tui/internal/model"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// HistoryLoadedMsg carries the authoritative history for a conversation.
type HistoryLoadedMsg struct {
	PeerID   string
	Messages []*model.Message
	Unread   int
	// FromCache marks a history painted from the local cache while the
	// server load is still in flight.
	FromCache bool
}

// HistoryFailedMsg reports a failed history load. Existing conversation
// state is left untouched.
type HistoryFailedMsg struct {
	PeerID string
	Err    error
}

// SendCompletedMsg carries the server echo for an optimistic send.
type SendCompletedMsg struct {
	PeerID  string
	LocalID string
	Message *model.Message
}

// SendFailedMsg reports a failed send; the placeholder is kept and marked
// failed so the user can retry.
type SendFailedMsg struct {
	PeerID  string
	LocalID string
	Err     error
}

// MessageReceivedMsg is a realtime message pushed by the server. It may
// belong to any conversation, not just the open one.
type MessageReceivedMsg struct {
	Message *model.Message
}

// SeenReceivedMsg reports that a participant has seen our messages.
type SeenReceivedMsg struct {
	By string
}

// TypingReceivedMsg toggles a participant's typing indicator.
type TypingReceivedMsg struct {
	From   string
	Active bool
}

// ConnectionChangedMsg reports persistent channel state transitions.
type ConnectionChangedMsg struct {
	Connected bool
	Err       error
}
