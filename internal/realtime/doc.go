// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package realtime provides the websocket client for the Bazarle messaging
// server's persistent channel.
//
// The channel is event based: every frame is an Event envelope with a type
// string and a JSON payload. Incoming events (message:received,
// message:seen, user:typing, user:stopTyping) are normalized into Handlers
// callbacks; outgoing traffic is limited to typing and stopTyping signals.
// Message sending itself goes over the durable REST channel (api package) so
// a dropped socket never loses a message.
//
// The client redials automatically with capped exponential backoff. Every
// successful (re)connection fires OnConnect, which the view layer uses to
// reload history and close any gap the outage created.
package realtime
