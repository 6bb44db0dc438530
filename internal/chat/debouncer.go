// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"
)

// =============================================================================
// DEBOUNCER
// =============================================================================

// Debouncer runs a callback once a quiet period has elapsed since the last
// Touch. Each Touch resets the timer. The pending callback can be forced
// early with Flush or discarded with Cancel, so the owner always knows
// whether a fire is still outstanding.
type Debouncer struct {
	delay time.Duration
	fire  func()

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
}

// NewDebouncer creates a debouncer that calls fire after delay of
// inactivity.
func NewDebouncer(delay time.Duration, fire func()) *Debouncer {
	return &Debouncer{
		delay: delay,
		fire:  fire,
	}
}

// Touch starts the countdown, or restarts it if one is already running.
func (d *Debouncer) Touch() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = true
	d.timer = time.AfterFunc(d.delay, d.expire)
}

// expire runs on the timer goroutine.
func (d *Debouncer) expire() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fire()
}

// Flush fires the pending callback immediately. No-op when nothing is
// pending, so callers can Flush unconditionally.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
	d.mu.Unlock()

	d.fire()
}

// Cancel discards the pending callback without firing it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = false
}

// Pending reports whether a fire is still outstanding.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
