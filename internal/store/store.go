// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides the single source of truth for conversation state.
package store

import (
	"sort"
	"sync"

	"github.com/bazarle/bazarle-tui/internal/model"
)

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ConversationStore maps a conversation partner's user id to that
// conversation's message history and unread counter. It is shared by every
// chat-related view and owned by the session: constructed once on login,
// discarded on logout.
//
// All operations are total functions over the in-memory map - they perform
// no I/O and cannot fail. A mutex serializes access because the realtime
// read loop mutates the store from its own goroutine while the Bubble Tea
// loop reads it.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*model.Conversation

	// onChange, when set, is invoked (outside the lock) with the peer id of
	// every conversation that was mutated. The program uses it to wake the
	// UI from realtime events.
	onChange func(peerID string)
}

// New creates an empty conversation store.
func New() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[string]*model.Conversation),
	}
}

// SetOnChange registers the change-notification callback. Pass nil to
// disable. Set once during program wiring, before any events flow.
func (s *ConversationStore) SetOnChange(fn func(peerID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// getOrCreateLocked returns the conversation for a peer, creating it lazily.
// Caller must hold the write lock.
func (s *ConversationStore) getOrCreateLocked(peer model.UserRef) *model.Conversation {
	conv, ok := s.conversations[peer.ID]
	if !ok {
		conv = model.NewConversation(peer)
		s.conversations[peer.ID] = conv
	} else if conv.Peer.Name == "" && peer.Name != "" {
		// A lazily created conversation may predate knowing the display name.
		conv.Peer = peer
	}
	return conv
}

func (s *ConversationStore) notify(peerID string) {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn(peerID)
	}
}

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// SetMessages replaces the message sequence for one conversation.
func (s *ConversationStore) SetMessages(peer model.UserRef, msgs []*model.Message) {
	if peer.ID == "" {
		return
	}
	s.mu.Lock()
	conv := s.getOrCreateLocked(peer)
	conv.Messages = append(make([]*model.Message, 0, len(msgs)), msgs...)
	s.mu.Unlock()
	s.notify(peer.ID)
}

// UpdateMessages applies a pure function to the message sequence for one
// conversation. The updater receives the current sequence and returns the
// new one; it must not retain or mutate its argument.
func (s *ConversationStore) UpdateMessages(peer model.UserRef, update func([]*model.Message) []*model.Message) {
	if peer.ID == "" || update == nil {
		return
	}
	s.mu.Lock()
	conv := s.getOrCreateLocked(peer)
	conv.Messages = update(conv.Messages)
	s.mu.Unlock()
	s.notify(peer.ID)
}

// AddMessage appends one message to a conversation. If a message with the
// same final identity already exists the call is a no-op, so redelivered
// events cannot duplicate entries. Returns whether the message was added.
func (s *ConversationStore) AddMessage(peer model.UserRef, msg *model.Message) bool {
	if peer.ID == "" || msg == nil {
		return false
	}
	s.mu.Lock()
	conv := s.getOrCreateLocked(peer)
	added := conv.Append(msg)
	s.mu.Unlock()
	if added {
		s.notify(peer.ID)
	}
	return added
}

// ReconcileEcho merges a server-authoritative message into a conversation,
// removing the optimistic placeholder it confirms (see model.Conversation).
func (s *ConversationStore) ReconcileEcho(peer model.UserRef, echo *model.Message) bool {
	if peer.ID == "" || echo == nil {
		return false
	}
	s.mu.Lock()
	conv := s.getOrCreateLocked(peer)
	changed := conv.ReconcileEcho(echo)
	s.mu.Unlock()
	if changed {
		s.notify(peer.ID)
	}
	return changed
}

// MarkFailed flips an optimistic message to failed status.
func (s *ConversationStore) MarkFailed(peerID, localID string) {
	s.mu.Lock()
	conv, ok := s.conversations[peerID]
	var changed bool
	if ok {
		changed = conv.MarkFailed(localID) != nil
	}
	s.mu.Unlock()
	if changed {
		s.notify(peerID)
	}
}

// MarkSeen zeroes a conversation's unread counter and flips every message the
// given user sent to the peer to status "seen".
func (s *ConversationStore) MarkSeen(peerID, currentUserID string) {
	s.mu.Lock()
	conv, ok := s.conversations[peerID]
	var changed bool
	if ok {
		updated := conv.MarkOutgoingSeen(currentUserID)
		changed = updated > 0 || conv.Unread != 0
		conv.Unread = 0
	}
	s.mu.Unlock()
	if changed {
		s.notify(peerID)
	}
}

// =============================================================================
// UNREAD OPERATIONS
// =============================================================================

// SetUnread sets a conversation's unread counter, clamped at zero.
func (s *ConversationStore) SetUnread(peer model.UserRef, count int) {
	if peer.ID == "" {
		return
	}
	if count < 0 {
		count = 0
	}
	s.mu.Lock()
	conv := s.getOrCreateLocked(peer)
	conv.Unread = count
	s.mu.Unlock()
	s.notify(peer.ID)
}

// UpdateUnread applies a pure function to a conversation's unread counter.
// The result is clamped at zero: the counter can never go negative.
func (s *ConversationStore) UpdateUnread(peer model.UserRef, update func(int) int) {
	if peer.ID == "" || update == nil {
		return
	}
	s.mu.Lock()
	conv := s.getOrCreateLocked(peer)
	next := update(conv.Unread)
	if next < 0 {
		next = 0
	}
	conv.Unread = next
	s.mu.Unlock()
	s.notify(peer.ID)
}

// IncrementUnread bumps a conversation's unread counter by one.
func (s *ConversationStore) IncrementUnread(peer model.UserRef) {
	s.UpdateUnread(peer, func(n int) int { return n + 1 })
}

// =============================================================================
// READ ACCESSORS
// =============================================================================

// Messages returns a copy of the message sequence for a peer, or an empty
// slice when the conversation does not exist. The slice is fresh on every
// call; the messages it points at are shared and must be treated as
// read-only by callers.
func (s *ConversationStore) Messages(peerID string) []*model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[peerID]
	if !ok {
		return []*model.Message{}
	}
	return append(make([]*model.Message, 0, len(conv.Messages)), conv.Messages...)
}

// Unread returns the unread counter for a peer, zero when absent.
func (s *ConversationStore) Unread(peerID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[peerID]
	if !ok {
		return 0
	}
	return conv.Unread
}

// TotalUnread returns the sum of all unread counters.
func (s *ConversationStore) TotalUnread() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, conv := range s.conversations {
		total += conv.Unread
	}
	return total
}

// Peers returns the ids of all conversations currently held, most recent
// activity first.
func (s *ConversationStore) Peers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.conversations))
	for id := range s.conversations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.conversations[ids[i]].LastActivity().After(s.conversations[ids[j]].LastActivity())
	})
	return ids
}

// Snapshot returns a point-in-time copy of one conversation's state for
// rendering: peer, messages and unread count. The bool reports existence.
func (s *ConversationStore) Snapshot(peerID string) (model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[peerID]
	if !ok {
		return model.Conversation{}, false
	}
	return model.Conversation{
		PeerID:   conv.PeerID,
		Peer:     conv.Peer,
		Messages: append(make([]*model.Message, 0, len(conv.Messages)), conv.Messages...),
		Unread:   conv.Unread,
	}, true
}
