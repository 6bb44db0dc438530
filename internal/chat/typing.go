// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
	"time"
)

// stopTypingDelay is how long after the last keystroke the peer's typing
// indicator is cleared.
const stopTypingDelay = 3 * time.Second

// =============================================================================
// SIGNAL SENDER
// =============================================================================

// SignalSender emits typing signals to a peer. Implemented by
// realtime.Client; both calls are best-effort.
type SignalSender interface {
	SendTyping(ctx context.Context, to, from string) error
	SendStopTyping(ctx context.Context, to, from string) error
}

// =============================================================================
// TYPING MONITOR
// =============================================================================

// TypingMonitor translates composer keystrokes into typing / stopTyping
// signals for the active conversation.
//
// Keystroke emits a typing signal (the sender rate-limits repeats) and arms
// the stop-typing countdown. If the user goes quiet for stopTypingDelay the
// stop signal fires on its own. Sending or clearing the composer stops the
// indicator immediately via Stop; switching conversations uses Reset so the
// old peer gets a stop and the countdown does not leak into the new one.
type TypingMonitor struct {
	sender SignalSender
	selfID string

	mu       sync.Mutex
	peerID   string
	debounce *Debouncer
}

// NewTypingMonitor creates a monitor for the given local user.
func NewTypingMonitor(sender SignalSender, selfID string) *TypingMonitor {
	m := &TypingMonitor{
		sender: sender,
		selfID: selfID,
	}
	m.debounce = NewDebouncer(stopTypingDelay, m.sendStop)
	return m
}

// SetPeer switches the monitor to a new conversation. A pending stop for
// the previous peer is flushed so their indicator never sticks.
func (m *TypingMonitor) SetPeer(peerID string) {
	m.mu.Lock()
	same := m.peerID == peerID
	m.mu.Unlock()
	if same {
		return
	}

	m.debounce.Flush()

	m.mu.Lock()
	m.peerID = peerID
	m.mu.Unlock()
}

// Keystroke reports composer activity: signals typing and (re)arms the
// stop-typing countdown.
func (m *TypingMonitor) Keystroke(ctx context.Context) {
	peer := m.currentPeer()
	if peer == "" {
		return
	}

	m.sender.SendTyping(ctx, peer, m.selfID)
	m.debounce.Touch()
}

// Stop clears the peer's indicator immediately. Called when the composer
// empties out or a message is sent.
func (m *TypingMonitor) Stop() {
	m.debounce.Flush()
}

// Reset discards any pending countdown without signalling. Used on
// disconnect, where the server clears indicator state itself.
func (m *TypingMonitor) Reset() {
	m.debounce.Cancel()
}

func (m *TypingMonitor) currentPeer() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peerID
}

// sendStop runs from the debouncer when the countdown expires or is
// flushed.
func (m *TypingMonitor) sendStop() {
	peer := m.currentPeer()
	if peer == "" {
		return
	}
	m.sender.SendStopTyping(context.Background(), peer, m.selfID)
}
