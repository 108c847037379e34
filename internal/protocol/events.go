package protocol

import (
	"encoding/json"
	"time"

	"chat-client/internal/models"
)

// Event types - client → server
const (
	TypeChannelJoin     = "channel:join"
	TypeChannelLeave    = "channel:leave"
	TypeChannelMarkRead = "channel:mark-read"
	TypeTypingStart     = "typing:start"
	TypeTypingStop      = "typing:stop"
	TypeMessageSend     = "message:send"
	TypeMessageEdit     = "message:edit"
	TypeMessageDelete   = "message:delete"
	TypeMessageReact    = "message:react"
	TypeHeartbeat       = "presence:heartbeat"
)

// Event types - server → client
const (
	TypeMessageNew      = "message:new"
	TypeMessageUpdated  = "message:updated"
	TypeMessageDeleted  = "message:deleted"
	TypeReactionUpdated = "reaction:updated"
	TypeThreadNew       = "thread:new"
	TypeTypingUpdate    = "typing:update"
	TypePresenceChanged = "presence:changed"
	TypeMessageAck      = "message:ack"
)

// Envelope is the wire frame for all websocket traffic.
type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// NewEnvelope wraps a payload with the current timestamp.
func NewEnvelope(eventType string, payload any) (*Envelope, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return &Envelope{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}

// --- Client → server payloads ---

type ChannelPayload struct {
	ChannelID string `json:"channel_id"`
}

type MarkReadPayload struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

type TypingPayload struct {
	ChannelID string `json:"channel_id"`
}

// SendPayload carries a new message. Nonce correlates the server's ack with
// this send; it never appears in stored messages.
type SendPayload struct {
	Nonce          string `json:"nonce"`
	ChannelID      string `json:"channel_id"`
	Content        string `json:"content"`
	ThreadParentID string `json:"thread_parent_id,omitempty"`
	GifURL         string `json:"gif_url,omitempty"`
	CodeSnippet    string `json:"code_snippet,omitempty"`
	CodeLanguage   string `json:"code_language,omitempty"`
}

type EditPayload struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

type DeletePayload struct {
	MessageID string `json:"message_id"`
}

type ReactPayload struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// --- Server → client payloads ---

type MessageDeletedPayload struct {
	MessageID string `json:"message_id"`
	ChannelID string `json:"channel_id"`
}

type ReactionUpdatedPayload struct {
	MessageID string            `json:"message_id"`
	ChannelID string            `json:"channel_id"`
	Reactions []models.Reaction `json:"reactions"`
}

type ThreadNewPayload struct {
	ThreadParentID string             `json:"thread_parent_id"`
	Message        models.ChatMessage `json:"message"`
}

type TypingUpdatePayload struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	IsTyping  bool   `json:"is_typing"`
}

type PresenceChangedPayload struct {
	UserID     string     `json:"user_id"`
	Status     string     `json:"status"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	CustomText string     `json:"custom_text,omitempty"`
}

// AckPayload answers a message:send identified by its nonce.
type AckPayload struct {
	Nonce   string              `json:"nonce"`
	Success bool                `json:"success"`
	Error   string              `json:"error,omitempty"`
	Message *models.ChatMessage `json:"message,omitempty"`
}
