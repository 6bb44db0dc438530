// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the bazarle TUI:
// adaptive colors and the Theme of prebuilt lipgloss styles used by the
// chat and conversation list views.
package styles
