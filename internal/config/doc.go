// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for
// bazarle-tui.
//
// Configuration lives in TOML at ~/.bazarle/config.toml with built-in
// defaults and environment variable overrides (BAZARLE_API_URL,
// BAZARLE_SOCKET_URL, BAZARLE_TOKEN, BAZARLE_THEME, BAZARLE_NO_CACHE).
// The file is written atomically with 0600 permissions because it carries
// the session token. A Watcher reloads the file on change so endpoint or
// theme edits apply without a restart.
package config
