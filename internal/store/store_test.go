// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazarle/bazarle-tui/internal/model"
)

var (
	me   = model.UserRef{ID: "u1", Name: "Ana", Role: "buyer"}
	peer = model.UserRef{ID: "u2", Name: "Boris", Role: "seller"}
)

func incoming(id, body string) *model.Message {
	return &model.Message{
		ID:        id,
		From:      peer,
		To:        me,
		Body:      body,
		Status:    model.StatusSent,
		CreatedAt: time.Now(),
	}
}

func TestStore_AddMessage_Idempotent(t *testing.T) {
	s := New()

	require.True(t, s.AddMessage(peer, incoming("m1", "hi")))
	assert.False(t, s.AddMessage(peer, incoming("m1", "hi")), "same final identity must be a no-op")
	assert.Len(t, s.Messages(peer.ID), 1)
}

func TestStore_AddMessage_Validation(t *testing.T) {
	s := New()
	assert.False(t, s.AddMessage(model.UserRef{}, incoming("m1", "hi")), "empty peer id rejected")
	assert.False(t, s.AddMessage(peer, nil), "nil message rejected")
}

func TestStore_SetMessages_DoesNotTouchOtherConversations(t *testing.T) {
	s := New()
	other := model.UserRef{ID: "u3", Name: "Cleo"}
	s.AddMessage(other, &model.Message{ID: "x1", From: other, To: me, Body: "yo", Status: model.StatusSent})

	s.SetMessages(peer, []*model.Message{incoming("m1", "one"), incoming("m2", "two")})

	assert.Len(t, s.Messages(peer.ID), 2)
	assert.Len(t, s.Messages(other.ID), 1, "unrelated conversation must be untouched")
}

func TestStore_SetMessages_ReturnsFreshSlice(t *testing.T) {
	s := New()
	s.SetMessages(peer, []*model.Message{incoming("m1", "one")})

	a := s.Messages(peer.ID)
	b := s.Messages(peer.ID)
	require.Len(t, a, 1)
	a[0] = nil
	assert.NotNil(t, b[0], "mutating a returned slice must not affect the store")
	assert.NotNil(t, s.Messages(peer.ID)[0])
}

func TestStore_UpdateMessages_FunctionalUpdate(t *testing.T) {
	s := New()
	s.SetMessages(peer, []*model.Message{incoming("m1", "one"), incoming("m2", "two")})

	s.UpdateMessages(peer, func(msgs []*model.Message) []*model.Message {
		out := make([]*model.Message, 0, len(msgs))
		for _, m := range msgs {
			if m.ID != "m1" {
				out = append(out, m)
			}
		}
		return out
	})

	msgs := s.Messages(peer.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m2", msgs[0].ID)
}

func TestStore_Unread_NeverNegative(t *testing.T) {
	s := New()

	s.SetUnread(peer, -5)
	assert.Equal(t, 0, s.Unread(peer.ID))

	s.SetUnread(peer, 3)
	s.UpdateUnread(peer, func(n int) int { return n - 10 })
	assert.Equal(t, 0, s.Unread(peer.ID), "updater results are clamped at zero")

	s.IncrementUnread(peer)
	s.IncrementUnread(peer)
	assert.Equal(t, 2, s.Unread(peer.ID))
	assert.Equal(t, 0, s.Unread("nobody"), "absent conversation defaults to zero")
}

func TestStore_MarkSeen_ZeroesUnreadAndFlipsOutgoing(t *testing.T) {
	s := New()
	out := &model.Message{ID: "m1", From: me, To: peer, Body: "hi", Status: model.StatusDelivered}
	s.AddMessage(peer, out)
	s.AddMessage(peer, incoming("m2", "hello"))
	s.SetUnread(peer, 4)

	s.MarkSeen(peer.ID, me.ID)

	assert.Equal(t, 0, s.Unread(peer.ID))
	msgs := s.Messages(peer.ID)
	for _, m := range msgs {
		if m.IsFrom(me.ID) {
			assert.Equal(t, model.StatusSeen, m.Status)
		} else {
			assert.NotEqual(t, model.StatusSeen, m.Status, "peer's messages stay untouched")
		}
	}
}

func TestStore_OptimisticThenEchoConvergence(t *testing.T) {
	s := New()

	opt := model.NewOptimistic(me, peer, "hello")
	s.AddMessage(peer, opt)
	require.Len(t, s.Messages(peer.ID), 1)

	echo := &model.Message{
		ID:        "m100",
		LocalID:   opt.LocalID,
		From:      me,
		To:        peer,
		Body:      "hello",
		Status:    model.StatusSent,
		CreatedAt: time.Now(),
	}
	s.ReconcileEcho(peer, echo)

	msgs := s.Messages(peer.ID)
	require.Len(t, msgs, 1, "optimistic entry and echo must converge to one message")
	assert.Equal(t, "m100", msgs[0].ID)
}

func TestStore_MarkFailed(t *testing.T) {
	s := New()
	opt := model.NewOptimistic(me, peer, "hello")
	s.AddMessage(peer, opt)

	s.MarkFailed(peer.ID, opt.LocalID)

	msgs := s.Messages(peer.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.StatusFailed, msgs[0].Status)
}

func TestStore_Peers_SortedByActivity(t *testing.T) {
	s := New()
	older := model.UserRef{ID: "u3", Name: "Cleo"}

	s.AddMessage(older, &model.Message{ID: "a", From: older, To: me, Body: "old", Status: model.StatusSent, CreatedAt: time.Now().Add(-time.Hour)})
	s.AddMessage(peer, &model.Message{ID: "b", From: peer, To: me, Body: "new", Status: model.StatusSent, CreatedAt: time.Now()})

	peers := s.Peers()
	require.Len(t, peers, 2)
	assert.Equal(t, peer.ID, peers[0], "most recent activity first")
}

func TestStore_OnChange(t *testing.T) {
	s := New()
	var mu sync.Mutex
	var changed []string
	s.SetOnChange(func(peerID string) {
		mu.Lock()
		changed = append(changed, peerID)
		mu.Unlock()
	})

	s.AddMessage(peer, incoming("m1", "hi"))
	s.AddMessage(peer, incoming("m1", "hi")) // duplicate, no notification
	s.SetUnread(peer, 1)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{peer.ID, peer.ID}, changed)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.AddMessage(peer, &model.Message{
					ID:     "m-" + uuid.New().String(),
					From:   peer,
					To:     me,
					Body:   "spam",
					Status: model.StatusSent,
				})
				s.IncrementUnread(peer)
				_ = s.Messages(peer.ID)
				_ = s.TotalUnread()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, s.Unread(peer.ID))
}
