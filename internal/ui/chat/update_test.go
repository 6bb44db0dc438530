// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bazarle/bazarle-tui/internal/api"
	"github.com/bazarle/bazarle-tui/internal/model"
	"github.com/bazarle/bazarle-tui/internal/store"
	"github.com/bazarle/bazarle-tui/internal/ui/styles"
)

var (
	self = model.UserRef{ID: "u1", Name: "Ana", Role: "buyer"}
	peer = model.UserRef{ID: "u2", Name: "Boris", Role: "seller"}
	liam = model.UserRef{ID: "u3", Name: "Liam", Role: "seller"}
)

func newTestModel(t *testing.T) (Model, *store.ConversationStore) {
	t.Helper()
	st := store.New()
	m := New(styles.NewTheme(), self, peer, st, api.NewClient(), nil, nil)
	m.SetSize(80, 24)
	m.state = StateReady
	return m, st
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func serverMsg(id, fromID, toID, body string) *model.Message {
	from := self
	if fromID == peer.ID {
		from = peer
	} else if fromID == liam.ID {
		from = liam
	}
	to := peer
	if toID == self.ID {
		to = self
	}
	return &model.Message{
		ID:        id,
		From:      from,
		To:        to,
		Body:      body,
		Status:    model.StatusSent,
		CreatedAt: time.Now().UTC(),
	}
}

// =============================================================================
// SEND FLOW
// =============================================================================

func TestSubmit_InsertsOptimisticPlaceholder(t *testing.T) {
	m, st := newTestModel(t)

	m = typeText(m, "is this still available?")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd, "submit must fire a send command")
	msgs := st.Messages(peer.ID)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsOptimistic())
	assert.Equal(t, "is this still available?", msgs[0].Body)
	assert.Empty(t, m.input.Value(), "composer clears on submit")
}

func TestSubmit_EmptyComposerIsNoop(t *testing.T) {
	m, st := newTestModel(t)

	m = typeText(m, "   ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Empty(t, st.Messages(peer.ID))
}

func TestSendCompleted_ReconcilesPlaceholder(t *testing.T) {
	m, st := newTestModel(t)

	m = typeText(m, "hello")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	localID := st.Messages(peer.ID)[0].LocalID

	echo := serverMsg("m100", self.ID, peer.ID, "hello")
	echo.LocalID = localID
	m, _ = m.Update(SendCompletedMsg{PeerID: peer.ID, LocalID: localID, Message: echo})

	msgs := st.Messages(peer.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m100", msgs[0].ID)
	assert.False(t, msgs[0].IsOptimistic())
}

func TestIncomingEcho_ConsumesPlaceholder(t *testing.T) {
	m, st := newTestModel(t)

	m = typeText(m, "hello")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	localID := st.Messages(peer.ID)[0].LocalID

	// The persistent channel delivers the echo before the REST response.
	echo := serverMsg("m100", self.ID, peer.ID, "hello")
	echo.LocalID = localID
	m, _ = m.Update(MessageReceivedMsg{Message: echo})

	msgs := st.Messages(peer.ID)
	require.Len(t, msgs, 1, "echo must replace the placeholder, not sit beside it")
	assert.Equal(t, "m100", msgs[0].ID)
	assert.False(t, msgs[0].IsOptimistic())

	// The late REST response changes nothing.
	m, _ = m.Update(SendCompletedMsg{PeerID: peer.ID, LocalID: localID, Message: echo})
	msgs = st.Messages(peer.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m100", msgs[0].ID)
}

func TestIncomingEcho_WithoutTokenFallsBackToBody(t *testing.T) {
	m, st := newTestModel(t)

	m = typeText(m, "hello")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	// Older backends push the echo without the correlation token.
	m, _ = m.Update(MessageReceivedMsg{Message: serverMsg("m100", self.ID, peer.ID, "hello")})

	msgs := st.Messages(peer.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m100", msgs[0].ID)
}

func TestIncomingEcho_OtherConversation_ConsumesPlaceholder(t *testing.T) {
	m, st := newTestModel(t)

	placeholder := model.NewOptimistic(self, liam, "offer sent")
	require.True(t, st.AddMessage(liam, placeholder))

	echo := serverMsg("m200", self.ID, liam.ID, "offer sent")
	echo.To = liam
	echo.LocalID = placeholder.LocalID
	m, _ = m.Update(MessageReceivedMsg{Message: echo})

	msgs := st.Messages(liam.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m200", msgs[0].ID)
	assert.Equal(t, 0, st.Unread(liam.ID), "own echo never bumps unread")
}

func TestSendFailed_MarksPlaceholderAndRetries(t *testing.T) {
	m, st := newTestModel(t)

	m = typeText(m, "hello")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	localID := st.Messages(peer.ID)[0].LocalID

	m, _ = m.Update(SendFailedMsg{PeerID: peer.ID, LocalID: localID, Err: errors.New("boom")})

	msgs := st.Messages(peer.ID)
	require.Len(t, msgs, 1, "failed placeholder is kept, not dropped")
	assert.Equal(t, model.StatusFailed, msgs[0].Status)
	assert.NotEmpty(t, m.errText)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.NotNil(t, cmd, "retry re-issues the send")
}

func TestRetry_NoFailedMessageIsNoop(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.Nil(t, cmd)
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistoryLoaded_SetsMessagesAndConsumesUnread(t *testing.T) {
	m, st := newTestModel(t)
	st.SetUnread(peer, 4)

	history := []*model.Message{
		serverMsg("m1", peer.ID, self.ID, "hi"),
		serverMsg("m2", self.ID, peer.ID, "hello"),
	}
	m, _ = m.Update(HistoryLoadedMsg{PeerID: peer.ID, Messages: history, Unread: 4})

	assert.Equal(t, StateReady, m.state)
	assert.Len(t, st.Messages(peer.ID), 2)
	assert.Zero(t, st.Unread(peer.ID), "opening a conversation consumes unread")
}

func TestHistoryLoaded_KeepsPendingPlaceholder(t *testing.T) {
	m, st := newTestModel(t)

	m = typeText(m, "pending")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	history := []*model.Message{serverMsg("m1", peer.ID, self.ID, "hi")}
	m, _ = m.Update(HistoryLoadedMsg{PeerID: peer.ID, Messages: history})

	msgs := st.Messages(peer.ID)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].IsOptimistic(), "in-flight send survives a reload")
}

func TestHistoryLoaded_DropsPlaceholderConfirmedByHistory(t *testing.T) {
	m, st := newTestModel(t)

	m = typeText(m, "hello")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	localID := st.Messages(peer.ID)[0].LocalID

	confirmed := serverMsg("m9", self.ID, peer.ID, "hello")
	confirmed.LocalID = localID
	m, _ = m.Update(HistoryLoadedMsg{PeerID: peer.ID, Messages: []*model.Message{confirmed}})

	msgs := st.Messages(peer.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m9", msgs[0].ID)
}

func TestHistoryFailed_KeepsExistingState(t *testing.T) {
	m, st := newTestModel(t)
	st.SetMessages(peer, []*model.Message{serverMsg("m1", peer.ID, self.ID, "hi")})

	m, _ = m.Update(HistoryFailedMsg{PeerID: peer.ID, Err: errors.New("offline")})

	assert.Equal(t, StateReady, m.state)
	assert.Len(t, st.Messages(peer.ID), 1, "failed reload never clears loaded state")
	assert.NotEmpty(t, m.errText)
}

func TestHistoryFailed_EmptyConversationShowsError(t *testing.T) {
	m, _ := newTestModel(t)
	m.state = StateLoading

	m, _ = m.Update(HistoryFailedMsg{PeerID: peer.ID, Err: errors.New("offline")})
	assert.Equal(t, StateError, m.state)
}

func TestHistoryLoaded_FromCacheNeverOverwritesServerState(t *testing.T) {
	m, st := newTestModel(t)
	st.SetMessages(peer, []*model.Message{serverMsg("m1", peer.ID, self.ID, "server copy")})

	cached := []*model.Message{serverMsg("old", peer.ID, self.ID, "stale")}
	m, _ = m.Update(HistoryLoadedMsg{PeerID: peer.ID, Messages: cached, FromCache: true})

	msgs := st.Messages(peer.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].ID)
}

// =============================================================================
// REALTIME EVENTS
// =============================================================================

func TestIncoming_CurrentConversationAppendsAndSees(t *testing.T) {
	m, st := newTestModel(t)
	m.peerTyping = true

	m, _ = m.Update(MessageReceivedMsg{Message: serverMsg("m1", peer.ID, self.ID, "hey")})

	assert.Len(t, st.Messages(peer.ID), 1)
	assert.Zero(t, st.Unread(peer.ID), "open conversation is seen immediately")
	assert.False(t, m.peerTyping, "a delivered message clears the typing indicator")
}

func TestIncoming_OtherConversationBumpsUnreadOnly(t *testing.T) {
	m, st := newTestModel(t)

	m, _ = m.Update(MessageReceivedMsg{Message: serverMsg("m1", liam.ID, self.ID, "other chat")})

	assert.Empty(t, st.Messages(peer.ID))
	assert.Len(t, st.Messages(liam.ID), 1)
	assert.Equal(t, 1, st.Unread(liam.ID))
}

func TestIncoming_DuplicateDoesNotDoubleCount(t *testing.T) {
	m, st := newTestModel(t)

	msg := serverMsg("m1", liam.ID, self.ID, "other chat")
	m, _ = m.Update(MessageReceivedMsg{Message: msg})
	m, _ = m.Update(MessageReceivedMsg{Message: msg})

	assert.Len(t, st.Messages(liam.ID), 1)
	assert.Equal(t, 1, st.Unread(liam.ID))
}

func TestSeenReceived_FlipsOutgoingMessages(t *testing.T) {
	m, st := newTestModel(t)
	st.SetMessages(peer, []*model.Message{serverMsg("m1", self.ID, peer.ID, "hello")})

	m, _ = m.Update(SeenReceivedMsg{By: peer.ID})

	assert.Equal(t, model.StatusSeen, st.Messages(peer.ID)[0].Status)
}

func TestSeenReceived_OtherParticipantIgnored(t *testing.T) {
	m, st := newTestModel(t)
	st.SetMessages(peer, []*model.Message{serverMsg("m1", self.ID, peer.ID, "hello")})

	m, _ = m.Update(SeenReceivedMsg{By: liam.ID})

	assert.Equal(t, model.StatusSent, st.Messages(peer.ID)[0].Status)
}

func TestTypingReceived_FiltersByPeer(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = m.Update(TypingReceivedMsg{From: liam.ID, Active: true})
	assert.False(t, m.peerTyping)

	m, _ = m.Update(TypingReceivedMsg{From: peer.ID, Active: true})
	assert.True(t, m.peerTyping)

	m, _ = m.Update(TypingReceivedMsg{From: peer.ID, Active: false})
	assert.False(t, m.peerTyping)
}

func TestConnectionChanged_ReconnectReloadsHistory(t *testing.T) {
	m, _ := newTestModel(t)
	m.peerTyping = true

	m, cmd := m.Update(ConnectionChangedMsg{Connected: true})
	assert.NotNil(t, cmd, "reconnect triggers a history reload")
	assert.False(t, m.peerTyping)

	m, _ = m.Update(ConnectionChangedMsg{Connected: false})
	assert.False(t, m.connected)
}

// =============================================================================
// VIEW SMOKE TESTS
// =============================================================================

func TestView_RendersTranscript(t *testing.T) {
	m, st := newTestModel(t)
	st.SetMessages(peer, []*model.Message{
		serverMsg("m1", peer.ID, self.ID, "is it available?"),
		serverMsg("m2", self.ID, peer.ID, "yes it is"),
	})
	m.refreshViewport(true)

	out := m.View()
	assert.Contains(t, out, "is it available?")
	assert.Contains(t, out, "yes it is")
	assert.Contains(t, out, "Boris")
}

func TestView_ShowsTypingIndicator(t *testing.T) {
	m, _ := newTestModel(t)
	m.peerTyping = true

	assert.Contains(t, m.View(), "Boris is typing")
}
