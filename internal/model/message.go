// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// STATUS TYPE
// =============================================================================

// Status represents the delivery state of a message.
//
// The server only ever reports "sent", "delivered" and "seen". "failed" is a
// client-side state for an optimistic message whose durable write errored; it
// is never put on the wire.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusSeen      Status = "seen"
	StatusFailed    Status = "failed"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// rank orders the server statuses so that updates never regress a message
// (e.g. a late "delivered" event must not downgrade a "seen" message).
func (s Status) rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusSeen:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether s is at or beyond other in the delivery order.
func (s Status) AtLeast(other Status) bool {
	return s.rank() >= other.rank()
}

// =============================================================================
// USER REFERENCE
// =============================================================================

// UserRef identifies a chat participant as carried on the wire.
type UserRef struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// DisplayName returns the user's name, falling back to the id when the
// server did not include one.
func (u UserRef) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.ID
}

// PeerOf returns the other participant of a message relative to the given
// user: the recipient for outgoing messages, the sender for incoming ones.
func (m *Message) PeerOf(selfID string) UserRef {
	if m.From.ID == selfID {
		return m.To
	}
	return m.From
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single chat message between two participants.
//
// Two identity spaces exist: LocalID is generated at optimistic-send time and
// never leaves the client (except as a correlation token); ID is assigned by
// the server on durable persistence and is the message's final identity.
type Message struct {
	// Identity
	ID      string `json:"_id,omitempty"`
	LocalID string `json:"clientId,omitempty"`

	// Participants
	From UserRef `json:"from"`
	To   UserRef `json:"to"`

	// Content
	Body    string   `json:"message"`
	ReplyTo *Message `json:"replyTo,omitempty"`

	// Moderation flags, set by backend business rules.
	Warning     bool `json:"warning"`
	IsImportant bool `json:"isImportant"`

	// Delivery state
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewOptimistic creates the local placeholder for a message the user just
// sent. It carries a client-local identity and status "sent" until the server
// echo (or a seen event) upgrades it.
func NewOptimistic(from, to UserRef, body string) *Message {
	return &Message{
		LocalID:   "local-" + uuid.New().String(),
		From:      from,
		To:        to,
		Body:      body,
		Status:    StatusSent,
		CreatedAt: time.Now(),
	}
}

// Identity returns the message's final identity when known, falling back to
// the client-local id for optimistic entries.
func (m *Message) Identity() string {
	if m.ID != "" {
		return m.ID
	}
	return m.LocalID
}

// IsOptimistic reports whether the message has not yet been confirmed by the
// server.
func (m *Message) IsOptimistic() bool {
	return m.ID == ""
}

// IsFrom reports whether the message was sent by the given user.
func (m *Message) IsFrom(userID string) bool {
	return m.From.ID == userID
}

// Preview returns a single-line truncated preview of the message body.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	body := m.Body
	runes := []rune(body)
	if len(runes) <= maxLen {
		return body
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
