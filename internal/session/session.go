package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chat-client/internal/observability"
	"chat-client/internal/protocol"
)

const (
	// writeWait bounds a single frame write; a slower link counts as dropped.
	writeWait = 10 * time.Second

	// heartbeatInterval keeps our presence fresh server-side for the lifetime
	// of the connection.
	heartbeatInterval = 30 * time.Second

	maxMessageSize = 1 << 20

	reconnectBaseDelay = time.Second
	reconnectMaxDelay  = 30 * time.Second
)

var (
	// ErrNoCredential is returned when no bearer token is available. No
	// connection is attempted; consumers fall back to REST-only behaviour.
	ErrNoCredential = errors.New("no session credential available")

	// ErrNotConnected marks emits attempted while the socket is down.
	ErrNotConnected = errors.New("session not connected")

	// ErrSessionClosed marks operations against a torn-down session.
	ErrSessionClosed = errors.New("session closed")
)

// Config carries the session's connection parameters.
type Config struct {
	SocketURL string
	Token     string
	UserID    string

	// Debug logs every inbound event type. Loud; off outside development.
	Debug bool
}

// Handler consumes decoded inbound events.
type Handler func(protocol.Event)

// Session owns the single authenticated websocket connection for a user
// session. Consumers register handlers and emit through it; only the session
// manages the connection lifecycle.
type Session struct {
	cfg       Config
	sessionID string
	dialer    *websocket.Dialer

	mu        sync.Mutex // guards conn and frame writes
	conn      *websocket.Conn
	connected atomic.Bool

	handlersMu  sync.RWMutex
	handlers    map[int]Handler
	nextHandler int

	acksMu sync.Mutex
	acks   map[string]chan protocol.SendAck

	// roomsMu guards rooms, channel id to last read message id. Joined rooms
	// are re-announced after every successful dial so a transparent reconnect
	// does not lose the server-side subscription.
	roomsMu sync.Mutex
	rooms   map[string]string

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New builds a Session. Connect must be called before it is useful.
func New(cfg Config) *Session {
	return &Session{
		cfg:       cfg,
		sessionID: uuid.NewString(),
		dialer:    websocket.DefaultDialer,
		handlers:  map[int]Handler{},
		acks:      map[string]chan protocol.SendAck{},
		rooms:     map[string]string{},
		closed:    make(chan struct{}),
	}
}

// ID returns the client-generated session id used for event correlation.
func (s *Session) ID() string {
	return s.sessionID
}

// Connected reports whether the socket is currently usable. Consumers branch
// on this to choose the socket or REST path; a reconnecting session simply
// reads as not connected.
func (s *Session) Connected() bool {
	return s.connected.Load()
}

// Connect reads the credential once and establishes the connection. A dial
// failure is not surfaced: the session logs it, keeps reconnecting in the
// background and operates disconnected until a dial succeeds.
func (s *Session) Connect(ctx context.Context) error {
	if s.cfg.Token == "" {
		return ErrNoCredential
	}

	if err := s.dial(ctx); err != nil {
		log.Printf("session: initial connect failed, entering reconnect: %v", err)
		s.wg.Add(1)
		go s.reconnectLoop()
		return nil
	}
	return nil
}

// Handle registers an inbound event handler and returns its cancel func.
func (s *Session) Handle(fn Handler) func() {
	s.handlersMu.Lock()
	id := s.nextHandler
	s.nextHandler++
	s.handlers[id] = fn
	s.handlersMu.Unlock()

	return func() {
		s.handlersMu.Lock()
		delete(s.handlers, id)
		s.handlersMu.Unlock()
	}
}

// JoinChannel signals interest in a channel's events. Fire-and-forget: the
// server sends no acknowledgment and failures are dropped. The room is
// remembered and rejoined after a reconnect.
func (s *Session) JoinChannel(channelID string) {
	s.roomsMu.Lock()
	if _, ok := s.rooms[channelID]; !ok {
		s.rooms[channelID] = ""
	}
	s.roomsMu.Unlock()
	s.emitHint(protocol.TypeChannelJoin, protocol.ChannelPayload{ChannelID: channelID})
}

// LeaveChannel signals that channel events are no longer wanted.
func (s *Session) LeaveChannel(channelID string) {
	s.roomsMu.Lock()
	delete(s.rooms, channelID)
	s.roomsMu.Unlock()
	s.emitHint(protocol.TypeChannelLeave, protocol.ChannelPayload{ChannelID: channelID})
}

// MarkRead advances the server-side read cursor. Duplicate signals for the
// same message are tolerated; the server treats them idempotently.
func (s *Session) MarkRead(channelID, messageID string) {
	s.roomsMu.Lock()
	if _, ok := s.rooms[channelID]; ok {
		s.rooms[channelID] = messageID
	}
	s.roomsMu.Unlock()
	s.emitHint(protocol.TypeChannelMarkRead, protocol.MarkReadPayload{
		ChannelID: channelID,
		MessageID: messageID,
	})
}

// rejoinRooms re-announces every joined room on a fresh connection and
// restores each room's read cursor.
func (s *Session) rejoinRooms() {
	s.roomsMu.Lock()
	rooms := make(map[string]string, len(s.rooms))
	for channelID, lastRead := range s.rooms {
		rooms[channelID] = lastRead
	}
	s.roomsMu.Unlock()

	for channelID, lastRead := range rooms {
		s.emitHint(protocol.TypeChannelJoin, protocol.ChannelPayload{ChannelID: channelID})
		if lastRead != "" {
			s.emitHint(protocol.TypeChannelMarkRead, protocol.MarkReadPayload{
				ChannelID: channelID,
				MessageID: lastRead,
			})
		}
	}
}

// TypingStart signals that the user began typing in a channel.
func (s *Session) TypingStart(channelID string) {
	s.emitHint(protocol.TypeTypingStart, protocol.TypingPayload{ChannelID: channelID})
}

// TypingStop signals that the user stopped typing in a channel.
func (s *Session) TypingStop(channelID string) {
	s.emitHint(protocol.TypeTypingStop, protocol.TypingPayload{ChannelID: channelID})
}

// Emit sends one fire-and-forget event over the live connection.
func (s *Session) Emit(eventType string, payload any) error {
	select {
	case <-s.closed:
		return ErrSessionClosed
	default:
	}
	if !s.connected.Load() {
		return ErrNotConnected
	}

	envelope, err := protocol.NewEnvelope(eventType, payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return s.writeMessage(raw)
}

// emitHint swallows emit errors: room scoping and read cursors are hints, and
// a disconnected session simply skips them.
func (s *Session) emitHint(eventType string, payload any) {
	if err := s.Emit(eventType, payload); err != nil && !errors.Is(err, ErrNotConnected) {
		log.Printf("session: emit %s failed: %v", eventType, err)
	}
}

// Close tears the session down: the heartbeat stops, the connection closes
// and pending acknowledgments fail. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)

		s.mu.Lock()
		if s.conn != nil {
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			_ = s.conn.Close()
			s.conn = nil
		}
		s.mu.Unlock()

		s.connected.Store(false)
		observability.SetSessionActive(false)
		s.failPendingAcks(ErrSessionClosed)
	})
	s.wg.Wait()
	return nil
}

// dial performs one handshake and, on success, starts the connection's read
// and heartbeat loops.
func (s *Session) dial(ctx context.Context) error {
	_, span := otel.Tracer("chat-client/session").Start(ctx, "ws.handshake")
	defer span.End()

	headers := map[string][]string{
		"Authorization": {"Bearer " + s.cfg.Token},
	}
	conn, resp, err := s.dialer.DialContext(ctx, s.cfg.SocketURL, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		observability.IncSessionConnect("error")
		return err
	}
	conn.SetReadLimit(maxMessageSize)

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.connected.Store(true)

	observability.IncSessionConnect("ok")
	observability.SetSessionActive(true)
	s.publishLifecycle("session_connect", span.SpanContext().TraceID().String())
	s.rejoinRooms()

	connDone := make(chan struct{})
	s.wg.Add(2)
	go s.readLoop(conn, connDone)
	go s.heartbeatLoop(connDone)
	return nil
}

// readLoop consumes inbound frames until the connection drops, then hands
// off to the reconnect loop unless the session was closed.
func (s *Session) readLoop(conn *websocket.Conn, connDone chan struct{}) {
	defer s.wg.Done()
	defer close(connDone)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("session: read error: %v", err)
			}
			break
		}
		s.dispatch(raw)
	}

	s.connected.Store(false)
	observability.SetSessionActive(false)
	s.publishLifecycle("session_disconnect", "")

	select {
	case <-s.closed:
		return
	default:
	}

	s.wg.Add(1)
	go s.reconnectLoop()
}

// reconnectLoop re-dials with capped backoff until a dial succeeds or the
// session closes. Consumers never observe a distinct reconnecting state.
func (s *Session) reconnectLoop() {
	defer s.wg.Done()

	delay := reconnectBaseDelay
	for {
		select {
		case <-s.closed:
			return
		case <-time.After(delay):
		}

		observability.IncSessionReconnect()
		if err := s.dial(context.Background()); err != nil {
			log.Printf("session: reconnect failed: %v", err)
			delay *= 2
			if delay > reconnectMaxDelay {
				delay = reconnectMaxDelay
			}
			continue
		}
		return
	}
}

// heartbeatLoop emits a presence refresh on a fixed interval for the lifetime
// of one connection. It stops when the connection drops or the session closes.
func (s *Session) heartbeatLoop(connDone chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.closed:
			return
		case <-connDone:
			return
		case <-ticker.C:
			if err := s.Emit(protocol.TypeHeartbeat, nil); err != nil && !errors.Is(err, ErrNotConnected) {
				log.Printf("session: heartbeat failed: %v", err)
			}
		}
	}
}

// dispatch decodes one inbound frame and routes it. Acks go to their waiter;
// everything else fans out to the registered handlers in delivery order.
func (s *Session) dispatch(raw []byte) {
	event, err := protocol.Decode(raw)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownEvent) {
			log.Printf("session: %v", err)
		} else {
			log.Printf("session: dropping bad frame: %v", err)
		}
		return
	}
	observability.IncInboundEvent(event.EventType())
	if s.cfg.Debug {
		log.Printf("session: inbound %s", event.EventType())
	}

	if ack, ok := event.(protocol.SendAck); ok {
		s.resolveAck(ack)
		return
	}

	s.handlersMu.RLock()
	handlers := make([]Handler, 0, len(s.handlers))
	for _, fn := range s.handlers {
		handlers = append(handlers, fn)
	}
	s.handlersMu.RUnlock()

	for _, fn := range handlers {
		fn(event)
	}
}

// writeMessage serializes frame writes; gorilla conns allow one writer at a time.
func (s *Session) writeMessage(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrNotConnected
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Session) publishLifecycle(name, traceID string) {
	payload := map[string]interface{}{
		"session": map[string]interface{}{
			"session_id": s.sessionID,
			"user_id":    s.cfg.UserID,
			"event":      name,
		},
	}
	headers := observability.CorrelationHeaders(s.sessionID, traceID)
	if err := observability.PublishEvent(context.Background(), "session_events", observability.EventEnvelope{
		EventType: "session_events",
		EventName: name,
		Payload:   payload,
	}, headers); err != nil {
		log.Printf("session: publish %s failed: %v", name, err)
	}
}
