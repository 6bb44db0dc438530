// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view for the TUI: the transcript
// viewport, the composer, and the controller logic that keeps both in sync
// with the conversation store.
//
// Sending is optimistic. Submit inserts a local placeholder into the store
// and fires the REST send in the background; the server echo reconciles the
// placeholder away, and a failure marks it for manual retry (Ctrl+R).
// Realtime events arrive as Bubble Tea messages routed in by the app model:
// traffic for the open conversation lands in the transcript, traffic for
// other conversations only bumps their unread counters.
package chat
