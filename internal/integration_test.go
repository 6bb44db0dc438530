// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

// End-to-end tests wiring the REST client, the conversation store, the
// local cache and the conversation view together against a fake server.
package internal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazarle/bazarle-tui/internal/api"
	"github.com/bazarle/bazarle-tui/internal/model"
	"github.com/bazarle/bazarle-tui/internal/storage"
	"github.com/bazarle/bazarle-tui/internal/store"
	"github.com/bazarle/bazarle-tui/internal/ui/chat"
	"github.com/bazarle/bazarle-tui/internal/ui/styles"
)

var (
	self  = model.UserRef{ID: "u1", Name: "Ana"}
	boris = model.UserRef{ID: "u2", Name: "Boris", Role: "seller"}
)

func clientFor(srv *httptest.Server) *api.Client {
	return api.NewClientWithConfig(&api.ClientConfig{
		BaseURL: srv.URL,
		Token:   "test-token",
		Timeout: 2 * time.Second,
	})
}

func readyChatModel(t *testing.T, client *api.Client, st *store.ConversationStore, cache *storage.Cache) chat.Model {
	t.Helper()
	m := chat.New(styles.NewTheme(), self, boris, st, client, cache, nil)
	m.SetSize(80, 24)
	m, _ = m.Update(chat.HistoryLoadedMsg{PeerID: boris.ID})
	return m
}

func typeAndSubmit(m chat.Model, text string) (chat.Model, tea.Cmd) {
	for _, r := range text {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

// =============================================================================
// SEND ROUND TRIP
// =============================================================================

func TestSendRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/messages", r.URL.Path)

		var req api.SendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		// The server echoes the correlation token so the client can
		// reconcile its placeholder.
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"_id":       "m100",
			"clientId":  req.ClientID,
			"from":      map[string]string{"_id": "u1", "name": "Ana"},
			"to":        map[string]string{"_id": "u2", "name": "Boris"},
			"message":   req.Message,
			"status":    "sent",
			"createdAt": time.Now().UTC().Format(time.RFC3339),
		})
	}))
	defer srv.Close()

	st := store.New()
	m := readyChatModel(t, clientFor(srv), st, nil)

	m, cmd := typeAndSubmit(m, "is it still available?")
	require.NotNil(t, cmd)

	// The placeholder is on screen before the network round trip finishes.
	msgs := st.Messages(boris.ID)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsOptimistic())

	// Run the send command and feed the completion back.
	completed, ok := cmd().(chat.SendCompletedMsg)
	require.True(t, ok, "send should succeed")
	m, _ = m.Update(completed)

	msgs = st.Messages(boris.ID)
	require.Len(t, msgs, 1, "echo replaces the placeholder")
	assert.Equal(t, "m100", msgs[0].ID)
	assert.False(t, msgs[0].IsOptimistic())
	assert.Equal(t, model.StatusSent, msgs[0].Status)
}

func TestSendFailureThenRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var req api.SendRequest
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"_id":       "m101",
			"clientId":  req.ClientID,
			"from":      map[string]string{"_id": "u1"},
			"to":        map[string]string{"_id": "u2"},
			"message":   req.Message,
			"status":    "sent",
			"createdAt": time.Now().UTC().Format(time.RFC3339),
		})
	}))
	defer srv.Close()

	st := store.New()
	m := readyChatModel(t, clientFor(srv), st, nil)

	m, cmd := typeAndSubmit(m, "hello")
	failed, ok := cmd().(chat.SendFailedMsg)
	require.True(t, ok, "first attempt should fail")
	m, _ = m.Update(failed)

	msgs := st.Messages(boris.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.StatusFailed, msgs[0].Status)
	localID := msgs[0].LocalID

	// Manual retry re-sends the same body under the same correlation token.
	m, retryCmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, retryCmd)
	completed, ok := retryCmd().(chat.SendCompletedMsg)
	require.True(t, ok, "retry should succeed")
	assert.Equal(t, localID, completed.LocalID)
	m, _ = m.Update(completed)

	msgs = st.Messages(boris.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m101", msgs[0].ID)
	assert.Equal(t, model.StatusSent, msgs[0].Status)
}

// =============================================================================
// HISTORY AND CACHE
// =============================================================================

func TestHistoryLoadPopulatesCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"messages": [
				{"_id": "m1", "from": {"_id": "u2", "name": "Boris"}, "to": {"_id": "u1"},
				 "message": "still available", "status": "sent",
				 "createdAt": "2026-08-01T12:00:00Z"}
			],
			"unreadCount": 1
		}`))
	}))
	defer srv.Close()

	cache, err := storage.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer cache.Close()

	client := clientFor(srv)
	st := store.New()
	m := chat.New(styles.NewTheme(), self, boris, st, client, cache, nil)
	m.SetSize(80, 24)

	loaded, ok := chat.LoadHistoryCmd(client, boris.ID)().(chat.HistoryLoadedMsg)
	require.True(t, ok)
	m, cacheCmd := m.Update(loaded)
	require.NotNil(t, cacheCmd, "a server load schedules a cache write")
	cacheCmd()

	// A fresh session paints the cached history before the server answers.
	cachedCmd := chat.LoadCachedHistoryCmd(cache, boris.ID, model.MaxMessages)
	require.NotNil(t, cachedCmd)
	cached, ok := cachedCmd().(chat.HistoryLoadedMsg)
	require.True(t, ok, "cache should hit after the save")
	assert.True(t, cached.FromCache)
	require.Len(t, cached.Messages, 1)
	assert.Equal(t, "m1", cached.Messages[0].ID)
}
