// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversations provides the conversation list view: every known
// conversation sorted by latest activity, with unread badges, a
// case-insensitive name filter, and an unread-only toggle. Rows merge live
// store state with the bootstrap listing fetched at startup.
package conversations
