// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local sqlite history cache. Cached messages
// are a convenience copy of server history, never the source of truth: the
// in-memory store (store package) holds live state and the server remains
// authoritative.
package storage
