// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"

	"github.com/bazarle/bazarle-tui/internal/model"
	"github.com/bazarle/bazarle-tui/internal/store"
)

// =============================================================================
// SESSION
// =============================================================================

// Session binds the authenticated user, their token, and the conversation
// store for one login. The store lives and dies with the session: ending it
// drops all conversation state, and the next login starts empty.
type Session struct {
	mu sync.Mutex

	id        string
	startTime time.Time

	user  model.UserRef
	token string

	store *store.ConversationStore
}

// New creates a session for the given user.
func New(user model.UserRef, token string) *Session {
	now := time.Now()
	return &Session{
		id:        "sess_" + now.Format("20060102_150405"),
		startTime: now,
		user:      user,
		token:     token,
		store:     store.New(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// User returns the authenticated user.
func (s *Session) User() model.UserRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// SelfID returns the authenticated user's id.
func (s *Session) SelfID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.ID
}

// Token returns the current bearer token.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken replaces the bearer token, e.g. after a refresh.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Store returns the session's conversation store.
func (s *Session) Store() *store.ConversationStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

// Duration returns how long the session has been active.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.startTime)
}

// End discards all conversation state. The session object stays usable for
// a re-login via Restart.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store = store.New()
	s.token = ""
}

// Restart begins a fresh session for a (possibly different) user. The old
// store is dropped, never reused, so conversation state cannot leak across
// logins.
func (s *Session) Restart(user model.UserRef, token string) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = "sess_" + now.Format("20060102_150405")
	s.startTime = now
	s.user = user
	s.token = token
	s.store = store.New()
}
