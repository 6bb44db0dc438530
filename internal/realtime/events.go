// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"encoding/json"

	"github.com/bazarle/bazarle-tui/internal/model"
)

// Event types - server to client.
const (
	EventMessageReceived = "message:received"
	EventMessageSeen     = "message:seen"
	EventUserTyping      = "user:typing"
	EventUserStopTyping  = "user:stopTyping"
)

// Event types - client to server.
const (
	EventTyping     = "typing"
	EventStopTyping = "stopTyping"
)

// Event is the envelope for all messages on the persistent channel.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// --- Server to client payloads ---

// MessagePayload carries a full authoritative message.
type MessagePayload struct {
	model.Message
}

// SeenPayload reports that a participant has seen the current user's
// messages.
type SeenPayload struct {
	By string `json:"by"`
}

// TypingPayload reports a typing start/stop from a participant.
type TypingPayload struct {
	From string `json:"from"`
}

// --- Client to server payloads ---

// TypingSignal is the outgoing typing / stopTyping payload.
type TypingSignal struct {
	To   string `json:"to"`
	From string `json:"from"`
}

// NewEvent wraps a payload into an envelope.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{Type: eventType, Payload: data}, nil
}
