// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"
)

// MaxMessages is the maximum number of messages kept per conversation.
// When exceeded, the oldest messages are pruned to prevent unbounded memory
// growth; the backend remains the source of truth for the full history.
const MaxMessages = 1000

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the ordered message history and unread counter between
// the current user and one other participant. The participant's user id is
// the conversation's identity.
type Conversation struct {
	// Identity
	PeerID string `json:"peer_id"`
	Peer   UserRef `json:"peer"`

	// Messages, chronological, append-only from the client's perspective.
	Messages []*Message `json:"messages"`

	// Unread counts messages received from the peer that have not yet been
	// marked seen. Never negative.
	Unread int `json:"unread"`
}

// NewConversation creates an empty conversation with the given participant.
func NewConversation(peer UserRef) *Conversation {
	return &Conversation{
		PeerID:   peer.ID,
		Peer:     peer,
		Messages: make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message to the conversation. If a message with the same final
// identity is already present the call is a no-op, which makes appends
// idempotent under server redelivery.
func (c *Conversation) Append(msg *Message) bool {
	if msg == nil {
		return false
	}
	if c.ContainsID(msg.Identity()) {
		return false
	}
	c.Messages = append(c.Messages, msg)
	c.prune()
	return true
}

// ContainsID reports whether a message with the given identity exists.
func (c *Conversation) ContainsID(id string) bool {
	if id == "" {
		return false
	}
	for _, m := range c.Messages {
		if m.Identity() == id {
			return true
		}
	}
	return false
}

// GetByID returns the message with the given identity, or nil.
func (c *Conversation) GetByID(id string) *Message {
	for _, m := range c.Messages {
		if m.Identity() == id {
			return m
		}
	}
	return nil
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// LastActivity returns the timestamp of the most recent message, or the zero
// time for an empty conversation.
func (c *Conversation) LastActivity() time.Time {
	last := c.LastMessage()
	if last == nil {
		return time.Time{}
	}
	return last.CreatedAt
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// RECONCILIATION
// =============================================================================

// ReconcileEcho merges a server-authoritative message into the conversation,
// removing the optimistic placeholder it confirms.
//
// Matching prefers the correlation token: if the echo carries the client id
// the optimistic entry was created with, that entry is removed. When the
// server does not propagate the token, the first optimistic entry with an
// exactly matching body is removed instead (best-effort; two identical
// unconfirmed sends may be merged against the wrong placeholder).
//
// Exactly one placeholder is removed per echo. The authoritative message is
// then appended, deduplicated on its server id. An echo whose server id is
// already present (both channels delivered it) still consumes its placeholder
// by correlation token, but never by body: a body match against a redelivery
// could swallow an unrelated pending send.
//
// Returns true when the conversation changed.
func (c *Conversation) ReconcileEcho(echo *Message) bool {
	if echo == nil {
		return false
	}
	duplicate := echo.ID != "" && c.ContainsID(echo.ID)

	idx := -1
	if echo.LocalID != "" {
		for i, m := range c.Messages {
			if m.IsOptimistic() && m.LocalID == echo.LocalID {
				idx = i
				break
			}
		}
	}
	if idx < 0 && !duplicate {
		for i, m := range c.Messages {
			if m.IsOptimistic() && m.Body == echo.Body {
				idx = i
				break
			}
		}
	}
	if idx >= 0 {
		c.Messages = append(c.Messages[:idx], c.Messages[idx+1:]...)
	}

	if duplicate {
		return idx >= 0
	}
	return c.Append(echo)
}

// MarkOutgoingSeen flips every message the given user sent in this
// conversation to status "seen". Returns the number of messages updated.
func (c *Conversation) MarkOutgoingSeen(userID string) int {
	updated := 0
	for _, m := range c.Messages {
		if m.IsFrom(userID) && m.Status != StatusFailed && !m.Status.AtLeast(StatusSeen) {
			m.Status = StatusSeen
			updated++
		}
	}
	return updated
}

// MarkFailed flips the optimistic message with the given client-local id to
// status "failed" so the view can offer a retry. Returns the message, or nil
// if it is no longer present (e.g. the echo already superseded it).
func (c *Conversation) MarkFailed(localID string) *Message {
	for _, m := range c.Messages {
		if m.IsOptimistic() && m.LocalID == localID {
			m.Status = StatusFailed
			return m
		}
	}
	return nil
}

// prune drops the oldest messages once the cap is exceeded.
func (c *Conversation) prune() {
	if len(c.Messages) <= MaxMessages {
		return
	}
	c.Messages = c.Messages[len(c.Messages)-MaxMessages:]
}

// =============================================================================
// SUMMARY TYPES
// =============================================================================

// LastMessageSummary is the preview of a conversation's most recent message
// as returned by the conversations listing endpoint.
type LastMessageSummary struct {
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// ConversationSummary is one entry of the conversations listing.
type ConversationSummary struct {
	User        UserRef            `json:"user"`
	LastMessage LastMessageSummary `json:"lastMessage"`
}
