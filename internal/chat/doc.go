// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat holds conversation-side behaviors that are independent of
// the terminal UI: the typing-signal debouncer and the monitor that drives
// typing / stopTyping traffic for the active conversation.
package chat
