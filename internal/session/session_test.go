package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-client/internal/chattest"
	"chat-client/internal/models"
	"chat-client/internal/protocol"
)

func connectedSession(t *testing.T, server *chattest.Server) *Session {
	t.Helper()
	s := New(Config{SocketURL: server.WSURL(), Token: "test-token", UserID: "u1"})
	require.NoError(t, s.Connect(context.Background()))
	require.True(t, s.Connected())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConnectRequiresCredential(t *testing.T) {
	s := New(Config{SocketURL: "ws://localhost:1/ws"})

	err := s.Connect(context.Background())
	require.ErrorIs(t, err, ErrNoCredential)
	assert.False(t, s.Connected())
}

func TestInitialDialFailureIsSilent(t *testing.T) {
	s := New(Config{SocketURL: "ws://127.0.0.1:1/ws", Token: "test-token"})

	// A dead endpoint is not an error; the session keeps retrying in the
	// background and reads as disconnected meanwhile.
	require.NoError(t, s.Connect(context.Background()))
	assert.False(t, s.Connected())
	require.NoError(t, s.Close())
}

func TestJoinLeaveAndTypingHints(t *testing.T) {
	server := chattest.NewServer()
	defer server.Close()
	s := connectedSession(t, server)

	s.JoinChannel("c1")
	s.TypingStart("c1")
	s.TypingStop("c1")
	s.MarkRead("c1", "m1")
	s.LeaveChannel("c1")

	require.Eventually(t, func() bool {
		return len(server.ReceivedTypes()) >= 5
	}, 3*time.Second, 20*time.Millisecond)

	assert.Equal(t, []string{
		protocol.TypeChannelJoin,
		protocol.TypeTypingStart,
		protocol.TypeTypingStop,
		protocol.TypeChannelMarkRead,
		protocol.TypeChannelLeave,
	}, server.ReceivedTypes())
}

func TestSendWithAckSuccess(t *testing.T) {
	server := chattest.NewServer()
	defer server.Close()
	s := connectedSession(t, server)

	ack, err := s.SendWithAck(context.Background(), protocol.SendPayload{ChannelID: "c1", Content: "hi"})
	require.NoError(t, err)
	assert.True(t, ack.Success)
	require.NotNil(t, ack.Message)
	assert.Equal(t, "hi", ack.Message.Content)
	assert.Equal(t, "c1", ack.Message.ChannelID)
}

func TestSendWithAckRejected(t *testing.T) {
	server := chattest.NewServer()
	defer server.Close()
	server.RejectSends = "slow mode active"
	s := connectedSession(t, server)

	_, err := s.SendWithAck(context.Background(), protocol.SendPayload{ChannelID: "c1", Content: "hi"})
	require.ErrorIs(t, err, ErrSendRejected)
	assert.Contains(t, err.Error(), "slow mode active")
}

func TestInboundEventsFanOut(t *testing.T) {
	server := chattest.NewServer()
	defer server.Close()
	s := connectedSession(t, server)

	var mu sync.Mutex
	var got []protocol.Event
	cancel := s.Handle(func(event protocol.Event) {
		mu.Lock()
		got = append(got, event)
		mu.Unlock()
	})
	defer cancel()

	server.Broadcast(protocol.TypeMessageNew, models.ChatMessage{ID: "m1", ChannelID: "c1", Content: "hey"})
	server.Broadcast(protocol.TypeTypingUpdate, protocol.TypingUpdatePayload{UserID: "u2", ChannelID: "c1", IsTyping: true})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 3*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	msg, ok := got[0].(protocol.NewMessage)
	require.True(t, ok)
	assert.Equal(t, "m1", msg.Message.ID)
	_, ok = got[1].(protocol.TypingChanged)
	require.True(t, ok)
}

func TestUnknownInboundEventDropped(t *testing.T) {
	server := chattest.NewServer()
	defer server.Close()
	s := connectedSession(t, server)

	received := make(chan protocol.Event, 2)
	cancel := s.Handle(func(event protocol.Event) { received <- event })
	defer cancel()

	server.Broadcast("poll:created", map[string]string{"id": "p1"})
	server.Broadcast(protocol.TypeMessageNew, models.ChatMessage{ID: "m1", ChannelID: "c1"})

	select {
	case event := <-received:
		msg, ok := event.(protocol.NewMessage)
		require.True(t, ok, "unknown event must be skipped, not delivered")
		assert.Equal(t, "m1", msg.Message.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestHandlerCancelStopsDelivery(t *testing.T) {
	server := chattest.NewServer()
	defer server.Close()
	s := connectedSession(t, server)

	received := make(chan protocol.Event, 2)
	cancel := s.Handle(func(event protocol.Event) { received <- event })
	cancel()

	server.Broadcast(protocol.TypeMessageNew, models.ChatMessage{ID: "m1", ChannelID: "c1"})
	select {
	case <-received:
		t.Fatal("cancelled handler still received an event")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestEmitWhileDisconnected(t *testing.T) {
	s := New(Config{SocketURL: "ws://127.0.0.1:1/ws", Token: "test-token"})

	err := s.Emit(protocol.TypeTypingStart, protocol.TypingPayload{ChannelID: "c1"})
	require.ErrorIs(t, err, ErrNotConnected)

	// Hints swallow the disconnect silently.
	s.TypingStart("c1")
	s.JoinChannel("c1")
	require.NoError(t, s.Close())
}

func TestReconnectAfterDrop(t *testing.T) {
	server := chattest.NewServer()
	defer server.Close()
	s := connectedSession(t, server)

	server.DropConnections()

	require.Eventually(t, func() bool { return !s.Connected() }, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return s.Connected() }, 5*time.Second, 50*time.Millisecond,
		"session should re-dial on its own")
	require.Eventually(t, func() bool { return server.ConnCount() == 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestReconnectRejoinsChannels(t *testing.T) {
	server := chattest.NewServer()
	defer server.Close()
	s := connectedSession(t, server)

	s.JoinChannel("c1")
	s.MarkRead("c1", "m7")
	require.Eventually(t, func() bool {
		return len(server.ReceivedTypes()) == 2
	}, 3*time.Second, 20*time.Millisecond)

	server.DropConnections()
	require.Eventually(t, func() bool { return s.Connected() }, 5*time.Second, 50*time.Millisecond)

	// The fresh connection re-announces the room and restores its read cursor.
	require.Eventually(t, func() bool {
		return countType(server.ReceivedTypes(), protocol.TypeChannelJoin) == 2
	}, 3*time.Second, 50*time.Millisecond)
	require.Eventually(t, func() bool {
		return countType(server.ReceivedTypes(), protocol.TypeChannelMarkRead) == 2
	}, 3*time.Second, 50*time.Millisecond)
}

func TestLeftChannelNotRejoined(t *testing.T) {
	server := chattest.NewServer()
	defer server.Close()
	s := connectedSession(t, server)

	s.JoinChannel("c1")
	s.LeaveChannel("c1")
	require.Eventually(t, func() bool {
		return len(server.ReceivedTypes()) == 2
	}, 3*time.Second, 20*time.Millisecond)

	server.DropConnections()
	require.Eventually(t, func() bool { return s.Connected() }, 5*time.Second, 50*time.Millisecond)
	require.Eventually(t, func() bool { return server.ConnCount() == 1 }, 3*time.Second, 50*time.Millisecond)

	assert.Equal(t, 1, countType(server.ReceivedTypes(), protocol.TypeChannelJoin))
}

func countType(types []string, want string) int {
	count := 0
	for _, eventType := range types {
		if eventType == want {
			count++
		}
	}
	return count
}

func TestCloseIsIdempotentAndStopsSends(t *testing.T) {
	server := chattest.NewServer()
	defer server.Close()
	s := connectedSession(t, server)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.SendWithAck(context.Background(), protocol.SendPayload{ChannelID: "c1", Content: "hi"})
	require.ErrorIs(t, err, ErrSessionClosed)
}
