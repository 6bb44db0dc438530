// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazarle/bazarle-tui/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func serverMessage(id, body string, at time.Time) *model.Message {
	return &model.Message{
		ID:        id,
		From:      model.UserRef{ID: "u2", Name: "Boris"},
		To:        model.UserRef{ID: "u1"},
		Body:      body,
		Status:    model.StatusSent,
		CreatedAt: at,
	}
}

func TestCache_SaveAndLoad(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	msgs := []*model.Message{
		serverMessage("m1", "first", base),
		serverMessage("m2", "second", base.Add(time.Minute)),
	}

	require.NoError(t, c.SaveMessages(ctx, "u2", msgs))

	loaded, err := c.LoadMessages(ctx, "u2", 0)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "m1", loaded[0].ID, "chronological order")
	assert.Equal(t, "second", loaded[1].Body)
	assert.Equal(t, "Boris", loaded[0].From.Name)
}

func TestCache_SaveIsIdempotent(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	msg := serverMessage("m1", "hello", time.Now().UTC())
	require.NoError(t, c.SaveMessages(ctx, "u2", []*model.Message{msg}))
	require.NoError(t, c.SaveMessages(ctx, "u2", []*model.Message{msg}))

	loaded, err := c.LoadMessages(ctx, "u2", 0)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestCache_OptimisticMessagesNeverCached(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	from := model.UserRef{ID: "u1"}
	to := model.UserRef{ID: "u2"}
	placeholder := model.NewOptimistic(from, to, "pending")

	require.NoError(t, c.SaveMessages(ctx, "u2", []*model.Message{placeholder}))

	loaded, err := c.LoadMessages(ctx, "u2", 0)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestCache_LoadLimitKeepsNewest(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var msgs []*model.Message
	for i := 0; i < 10; i++ {
		msgs = append(msgs, serverMessage(
			fmt.Sprintf("m%d", i), fmt.Sprintf("body %d", i), base.Add(time.Duration(i)*time.Minute)))
	}
	require.NoError(t, c.SaveMessages(ctx, "u2", msgs))

	loaded, err := c.LoadMessages(ctx, "u2", 3)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	// The newest three, still in chronological order.
	assert.Equal(t, "m7", loaded[0].ID)
	assert.Equal(t, "m9", loaded[2].ID)
}

func TestCache_ConversationsAreIsolated(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, c.SaveMessages(ctx, "u2", []*model.Message{serverMessage("m1", "for u2", now)}))
	require.NoError(t, c.SaveMessages(ctx, "u3", []*model.Message{serverMessage("m2", "for u3", now)}))

	loaded, err := c.LoadMessages(ctx, "u2", 0)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "for u2", loaded[0].Body)
}

func TestCache_Prune(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	var msgs []*model.Message
	for i := 0; i < 5; i++ {
		msgs = append(msgs, serverMessage(
			fmt.Sprintf("m%d", i), "body", base.Add(time.Duration(i)*time.Minute)))
	}
	require.NoError(t, c.SaveMessages(ctx, "u2", msgs))

	require.NoError(t, c.Prune(ctx, 2))

	loaded, err := c.LoadMessages(ctx, "u2", 0)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "m3", loaded[0].ID)
	assert.Equal(t, "m4", loaded[1].ID)
}

func TestCache_ClearAndDeletePeer(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, c.SaveMessages(ctx, "u2", []*model.Message{serverMessage("m1", "a", now)}))
	require.NoError(t, c.SaveMessages(ctx, "u3", []*model.Message{serverMessage("m2", "b", now)}))

	require.NoError(t, c.DeletePeer(ctx, "u2"))
	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"u3": 1}, stats)

	require.NoError(t, c.Clear(ctx))
	stats, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestCache_ClosedErrors(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = c.LoadMessages(context.Background(), "u2", 0)
	assert.ErrorIs(t, err, ErrClosed)
}
