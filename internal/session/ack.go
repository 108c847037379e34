package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"chat-client/internal/protocol"
)

// ErrSendRejected is returned when the server acknowledges a send with an
// error. The composer keeps its state so the user can retry.
var ErrSendRejected = errors.New("send rejected")

// SendWithAck emits a message:send and waits for the matching acknowledgment.
// The nonce is generated here; the wait ends when the ack arrives, the ctx is
// cancelled or the session closes. The protocol defines no server-side ack
// timeout, so bounding the wait is the caller's choice via ctx.
func (s *Session) SendWithAck(ctx context.Context, payload protocol.SendPayload) (protocol.SendAck, error) {
	if payload.Nonce == "" {
		payload.Nonce = uuid.NewString()
	}

	ch := make(chan protocol.SendAck, 1)
	s.acksMu.Lock()
	s.acks[payload.Nonce] = ch
	s.acksMu.Unlock()

	defer func() {
		s.acksMu.Lock()
		delete(s.acks, payload.Nonce)
		s.acksMu.Unlock()
	}()

	if err := s.Emit(protocol.TypeMessageSend, payload); err != nil {
		return protocol.SendAck{}, err
	}

	select {
	case ack := <-ch:
		if !ack.Success {
			return ack, fmt.Errorf("%w: %s", ErrSendRejected, ack.Error)
		}
		return ack, nil
	case <-ctx.Done():
		return protocol.SendAck{}, ctx.Err()
	case <-s.closed:
		return protocol.SendAck{}, ErrSessionClosed
	}
}

func (s *Session) resolveAck(ack protocol.SendAck) {
	s.acksMu.Lock()
	ch, ok := s.acks[ack.Nonce]
	if ok {
		delete(s.acks, ack.Nonce)
	}
	s.acksMu.Unlock()

	if !ok {
		// Ack for a send we no longer wait on; the id-keyed store merge
		// handles the message event itself, so this is safe to drop.
		return
	}
	ch <- ack
}

func (s *Session) failPendingAcks(err error) {
	s.acksMu.Lock()
	defer s.acksMu.Unlock()
	for nonce, ch := range s.acks {
		delete(s.acks, nonce)
		ch <- protocol.SendAck{Nonce: nonce, Success: false, Error: err.Error()}
	}
}
