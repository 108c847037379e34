package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"chat-client/internal/models"
)

// ErrUnknownEvent marks inbound frames the client does not understand.
// Callers log and drop them; an unknown type is not a protocol failure.
var ErrUnknownEvent = errors.New("unknown event type")

// Event is one decoded inbound event. Exactly one concrete variant implements
// it per wire type, so consumers can switch on the variant instead of
// re-parsing raw frames.
type Event interface {
	EventType() string
}

type NewMessage struct {
	Message models.ChatMessage
}

type UpdatedMessage struct {
	Message models.ChatMessage
}

type DeletedMessage struct {
	MessageID string
	ChannelID string
}

type ReactionChanged struct {
	MessageID string
	ChannelID string
	Reactions []models.Reaction
}

type ThreadReply struct {
	ThreadParentID string
	Message        models.ChatMessage
}

type TypingChanged struct {
	UserID    string
	ChannelID string
	IsTyping  bool
}

type PresenceChanged struct {
	Presence models.Presence
}

type SendAck struct {
	Nonce   string
	Success bool
	Error   string
	Message *models.ChatMessage
}

func (NewMessage) EventType() string      { return TypeMessageNew }
func (UpdatedMessage) EventType() string  { return TypeMessageUpdated }
func (DeletedMessage) EventType() string  { return TypeMessageDeleted }
func (ReactionChanged) EventType() string { return TypeReactionUpdated }
func (ThreadReply) EventType() string     { return TypeThreadNew }
func (TypingChanged) EventType() string   { return TypeTypingUpdate }
func (PresenceChanged) EventType() string { return TypePresenceChanged }
func (SendAck) EventType() string         { return TypeMessageAck }

// Decode parses a raw inbound frame into its tagged variant.
func Decode(raw []byte) (Event, error) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return DecodeEnvelope(envelope)
}

// DecodeEnvelope converts an already-parsed envelope into its tagged variant.
func DecodeEnvelope(envelope Envelope) (Event, error) {
	switch envelope.Type {
	case TypeMessageNew:
		var msg models.ChatMessage
		if err := json.Unmarshal(envelope.Payload, &msg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		return NewMessage{Message: msg}, nil

	case TypeMessageUpdated:
		var msg models.ChatMessage
		if err := json.Unmarshal(envelope.Payload, &msg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		return UpdatedMessage{Message: msg}, nil

	case TypeMessageDeleted:
		var payload MessageDeletedPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		return DeletedMessage{MessageID: payload.MessageID, ChannelID: payload.ChannelID}, nil

	case TypeReactionUpdated:
		var payload ReactionUpdatedPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		return ReactionChanged{
			MessageID: payload.MessageID,
			ChannelID: payload.ChannelID,
			Reactions: payload.Reactions,
		}, nil

	case TypeThreadNew:
		var payload ThreadNewPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		return ThreadReply{ThreadParentID: payload.ThreadParentID, Message: payload.Message}, nil

	case TypeTypingUpdate:
		var payload TypingUpdatePayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		return TypingChanged{
			UserID:    payload.UserID,
			ChannelID: payload.ChannelID,
			IsTyping:  payload.IsTyping,
		}, nil

	case TypePresenceChanged:
		var payload PresenceChangedPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		return PresenceChanged{Presence: models.Presence{
			UserID:     payload.UserID,
			Status:     payload.Status,
			LastSeenAt: payload.LastSeenAt,
			CustomText: payload.CustomText,
		}}, nil

	case TypeMessageAck:
		var payload AckPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
		}
		return SendAck{
			Nonce:   payload.Nonce,
			Success: payload.Success,
			Error:   payload.Error,
			Message: payload.Message,
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, envelope.Type)
}
