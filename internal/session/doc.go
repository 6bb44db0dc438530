// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session ties the authenticated user, their bearer token, and the
// conversation store into one lifecycle. Conversation state never outlives
// the login that produced it.
package session
