// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"github.com/bazarle/bazarle-tui/internal/model"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// SendRequest is the body of POST /messages.
type SendRequest struct {
	ToUserID string `json:"toUserId"`
	Message  string `json:"message"`
	// ClientID is the optimistic placeholder's client-local id, echoed back
	// by newer backends as a correlation token.
	ClientID string `json:"clientId,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// HistoryResponse is the body of GET /messages/conversation/{participantId}.
type HistoryResponse struct {
	Messages    []*model.Message `json:"messages"`
	UnreadCount int              `json:"unreadCount"`
}

// SendResponse is the authoritative message returned by POST /messages.
type SendResponse struct {
	model.Message
}

// ConversationEntry is one element of the conversations listing.
type ConversationEntry struct {
	User        model.UserRef            `json:"user"`
	LastMessage model.LastMessageSummary `json:"lastMessage"`
	Unread      int                      `json:"unreadCount"`
}

// ConversationsResponse is the body of GET /messages/conversations.
type ConversationsResponse struct {
	Conversations []ConversationEntry `json:"conversations"`
}

// APIError is the structured error body some endpoints return.
type APIError struct {
	Error string `json:"error"`
}
