// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the Bazarle messaging REST API -
// the durable channel of the chat transport.
//
// Three operations exist:
//   - History: GET /messages/conversation/{participantId}
//   - Send: POST /messages
//   - Conversations: GET /messages/conversations
//
// All requests carry the session's bearer token in the Authorization header.
// Errors are returned as *ClientError with a category that the view layer
// maps to "no state change" outcomes: a failed history load or send never
// clears previously loaded conversation state.
//
// The realtime (persistent) channel lives in the realtime package.
package api
