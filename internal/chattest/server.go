// Package chattest provides an in-memory chat backend for integration tests:
// a gin REST surface plus a websocket endpoint speaking the client protocol.
package chattest

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chat-client/internal/models"
	"chat-client/internal/protocol"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server is one fake backend instance. Seed state before connecting clients;
// inspect Received afterwards.
type Server struct {
	httpServer *httptest.Server

	mu       sync.Mutex
	channels map[string]models.Channel
	messages map[string][]models.ChatMessage
	members  map[string][]models.Member
	users    []models.User
	isPro    bool
	pageSize int

	conns    map[*websocket.Conn]bool
	received []protocol.Envelope

	// RejectSends makes message:send acks fail with this error text.
	RejectSends string

	// EchoSends broadcasts a message:new event after each successful ack.
	EchoSends bool

	nextID int
}

// NewServer starts a fake backend on an ephemeral port.
func NewServer() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		channels: map[string]models.Channel{},
		messages: map[string][]models.ChatMessage{},
		members:  map[string][]models.Member{},
		conns:    map[*websocket.Conn]bool{},
		pageSize: 50,
	}

	router := gin.New()
	router.GET("/ws", s.handleWS)
	router.GET("/channels/:id", s.getChannel)
	router.PATCH("/channels/:id", s.updateChannel)
	router.POST("/channels/:id/archive", s.archiveChannel)
	router.POST("/channels/:id/leave", s.leaveChannel)
	router.GET("/channels/:id/pins", s.listPins)
	router.GET("/channels/:id/members", s.listMembers)
	router.DELETE("/channels/:id/members/:user_id", s.removeMember)
	router.POST("/channels/:id/invites", s.createInvite)
	router.GET("/channels/:id/messages", s.getMessages)
	router.POST("/channels/:id/messages", s.postMessage)
	router.PATCH("/messages/:id", s.editMessage)
	router.DELETE("/messages/:id", s.deleteMessage)
	router.POST("/messages/:id/reactions", s.toggleReaction)
	router.POST("/messages/:id/pin", s.togglePin)
	router.POST("/messages/:id/bookmark", s.toggleBookmark)
	router.GET("/messages/:id/thread", s.getThread)
	router.GET("/users/search", s.searchUsers)

	s.httpServer = httptest.NewServer(router)
	return s
}

// URL returns the REST base URL.
func (s *Server) URL() string {
	return s.httpServer.URL
}

// WSURL returns the websocket endpoint URL.
func (s *Server) WSURL() string {
	return "ws" + strings.TrimPrefix(s.httpServer.URL, "http") + "/ws"
}

// Close shuts the backend down.
func (s *Server) Close() {
	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = map[*websocket.Conn]bool{}
	s.mu.Unlock()
	s.httpServer.Close()
}

// SeedChannel installs a channel.
func (s *Server) SeedChannel(channel models.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[channel.ID] = channel
}

// SeedMessages installs history for a channel, oldest first.
func (s *Server) SeedMessages(channelID string, msgs []models.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[channelID] = append([]models.ChatMessage{}, msgs...)
}

// SeedMembers installs the member list for a channel.
func (s *Server) SeedMembers(channelID string, members []models.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[channelID] = append([]models.Member{}, members...)
}

// SeedUsers installs the search corpus.
func (s *Server) SeedUsers(users []models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append([]models.User{}, users...)
}

// SetPro flags history responses as unlimited-plan.
func (s *Server) SetPro(pro bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isPro = pro
}

// Received returns every envelope clients have sent, in arrival order.
func (s *Server) Received() []protocol.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.Envelope, len(s.received))
	copy(out, s.received)
	return out
}

// ReceivedTypes returns just the event types received, in order.
func (s *Server) ReceivedTypes() []string {
	envelopes := s.Received()
	types := make([]string, len(envelopes))
	for i, env := range envelopes {
		types[i] = env.Type
	}
	return types
}

// Broadcast pushes one event to every connected client.
func (s *Server) Broadcast(eventType string, payload any) {
	envelope, err := protocol.NewEnvelope(eventType, payload)
	if err != nil {
		log.Printf("chattest: broadcast marshal: %v", err)
		return
	}
	data, _ := json.Marshal(envelope)

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("chattest: broadcast write: %v", err)
			_ = conn.Close()
			delete(s.conns, conn)
		}
	}
}

// ConnCount reports the number of live websocket connections.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// DropConnections closes every websocket without a close frame, simulating a
// network failure.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, conn)
	}
}

func (s *Server) handleWS(c *gin.Context) {
	if auth := c.GetHeader("Authorization"); !strings.HasPrefix(auth, "Bearer ") {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.conns[conn] = true
	s.mu.Unlock()

	go s.readLoop(conn)
}

func (s *Server) readLoop(conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var envelope protocol.Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			log.Printf("chattest: bad envelope: %v", err)
			continue
		}

		s.mu.Lock()
		s.received = append(s.received, envelope)
		s.mu.Unlock()

		if envelope.Type == protocol.TypeMessageSend {
			s.ackSend(conn, envelope)
		}
	}
}

// ackSend answers a message:send with an ack, then optionally echoes the
// created message as message:new the way a real backend fans out to the room.
func (s *Server) ackSend(conn *websocket.Conn, envelope protocol.Envelope) {
	var payload protocol.SendPayload
	if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
		log.Printf("chattest: bad send payload: %v", err)
		return
	}

	s.mu.Lock()
	reject := s.RejectSends
	echo := s.EchoSends
	var msg models.ChatMessage
	if reject == "" {
		msg = s.storeMessageLocked(payload.ChannelID, models.ChatMessage{
			Content:        payload.Content,
			ThreadParentID: optional(payload.ThreadParentID),
			GifURL:         payload.GifURL,
			CodeSnippet:    payload.CodeSnippet,
			CodeLanguage:   payload.CodeLanguage,
		})
	}
	s.mu.Unlock()

	ack := protocol.AckPayload{Nonce: payload.Nonce, Success: reject == ""}
	if reject != "" {
		ack.Error = reject
	} else {
		ack.Message = &msg
	}
	ackEnvelope, _ := protocol.NewEnvelope(protocol.TypeMessageAck, ack)
	data, _ := json.Marshal(ackEnvelope)
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("chattest: ack write: %v", err)
		return
	}

	if reject == "" && echo {
		s.Broadcast(protocol.TypeMessageNew, msg)
	}
}

// storeMessageLocked assigns an id and timestamps and appends to history.
func (s *Server) storeMessageLocked(channelID string, msg models.ChatMessage) models.ChatMessage {
	s.nextID++
	msg.ID = fmt.Sprintf("m%d", s.nextID)
	msg.ChannelID = channelID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.Kind == "" {
		msg.Kind = "text"
	}
	s.messages[channelID] = append(s.messages[channelID], msg)
	return msg
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
