// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// A Message carries two identity spaces: a client-local id assigned at
// optimistic-send time and the server id assigned on durable persistence.
// Reconciliation between the two happens in Conversation.ReconcileEcho.
//
// A Conversation is the ordered message history and unread counter between
// the current user and exactly one other marketplace participant; its
// identity is the participant's user id.
//
// Types in this package perform no I/O and hold no locks; concurrent access
// is coordinated by the store package.
package model
