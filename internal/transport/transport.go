package transport

import (
	"context"

	"chat-client/internal/models"
	"chat-client/internal/observability"
	"chat-client/internal/protocol"
	"chat-client/internal/rest"
)

// Request describes one outbound message send, independent of path.
type Request struct {
	ChannelID      string
	Content        string
	ThreadParentID string
	GifURL         string
	CodeSnippet    string
	CodeLanguage   string
}

// Transport sends mutating actions to the server. The socket implementation
// relies on inbound events to update local state; the REST implementation
// returns response payloads for the caller to apply, since no echo will come.
type Transport interface {
	// Name identifies the path for logs and metrics ("socket" or "rest").
	Name() string

	// SendMessage delivers a new message. A non-nil result is the created
	// message and must be applied to local state by the caller.
	SendMessage(ctx context.Context, req Request) (*models.ChatMessage, error)

	// EditMessage updates content. A non-nil result must be applied locally.
	EditMessage(ctx context.Context, messageID, content string) (*models.ChatMessage, error)

	// DeleteMessage tombstones a message. applied reports whether the caller
	// must tombstone the local entry itself.
	DeleteMessage(ctx context.Context, messageID string) (applied bool, err error)

	// React toggles a reaction. A non-nil list replaces the message's
	// reactions locally.
	React(ctx context.Context, messageID, emoji string) ([]models.Reaction, error)
}

// Emitter is the slice of the session a SocketTransport needs.
type Emitter interface {
	Connected() bool
	Emit(eventType string, payload any) error
	SendWithAck(ctx context.Context, payload protocol.SendPayload) (protocol.SendAck, error)
}

// API is the slice of the REST client a RestTransport needs.
type API interface {
	PostMessage(ctx context.Context, channelID string, req rest.SendRequest) (models.ChatMessage, error)
	EditMessage(ctx context.Context, messageID, content string) (models.ChatMessage, error)
	DeleteMessage(ctx context.Context, messageID string) error
	ToggleReaction(ctx context.Context, messageID, emoji string) ([]models.Reaction, error)
}

// Select picks the live path when the session is connected, REST otherwise.
// Selection happens once per call, not per branch inside each action.
func Select(emitter Emitter, api API) Transport {
	if emitter != nil && emitter.Connected() {
		return &SocketTransport{emitter: emitter}
	}
	return &RestTransport{client: api}
}

// SocketTransport emits over the live connection.
type SocketTransport struct {
	emitter Emitter
}

func (t *SocketTransport) Name() string { return "socket" }

// SendMessage emits and waits for the server's acknowledgment. The ack may
// carry the created message; applying it is safe because the store's id-keyed
// merge deduplicates against the echo event.
func (t *SocketTransport) SendMessage(ctx context.Context, req Request) (*models.ChatMessage, error) {
	ack, err := t.emitter.SendWithAck(ctx, protocol.SendPayload{
		ChannelID:      req.ChannelID,
		Content:        req.Content,
		ThreadParentID: req.ThreadParentID,
		GifURL:         req.GifURL,
		CodeSnippet:    req.CodeSnippet,
		CodeLanguage:   req.CodeLanguage,
	})
	if err != nil {
		observability.IncSend(t.Name(), "error")
		return nil, err
	}
	observability.IncSend(t.Name(), "ok")
	return ack.Message, nil
}

func (t *SocketTransport) EditMessage(ctx context.Context, messageID, content string) (*models.ChatMessage, error) {
	err := t.emitter.Emit(protocol.TypeMessageEdit, protocol.EditPayload{
		MessageID: messageID,
		Content:   content,
	})
	if err != nil {
		observability.IncSend(t.Name(), "error")
		return nil, err
	}
	observability.IncSend(t.Name(), "ok")
	return nil, nil
}

func (t *SocketTransport) DeleteMessage(ctx context.Context, messageID string) (bool, error) {
	err := t.emitter.Emit(protocol.TypeMessageDelete, protocol.DeletePayload{MessageID: messageID})
	if err != nil {
		observability.IncSend(t.Name(), "error")
		return false, err
	}
	observability.IncSend(t.Name(), "ok")
	return false, nil
}

func (t *SocketTransport) React(ctx context.Context, messageID, emoji string) ([]models.Reaction, error) {
	err := t.emitter.Emit(protocol.TypeMessageReact, protocol.ReactPayload{
		MessageID: messageID,
		Emoji:     emoji,
	})
	if err != nil {
		observability.IncSend(t.Name(), "error")
		return nil, err
	}
	observability.IncSend(t.Name(), "ok")
	return nil, nil
}

// RestTransport performs the equivalent REST call for every action.
type RestTransport struct {
	client API
}

func (t *RestTransport) Name() string { return "rest" }

func (t *RestTransport) SendMessage(ctx context.Context, req Request) (*models.ChatMessage, error) {
	msg, err := t.client.PostMessage(ctx, req.ChannelID, rest.SendRequest{
		Content:        req.Content,
		ThreadParentID: req.ThreadParentID,
		GifURL:         req.GifURL,
		CodeSnippet:    req.CodeSnippet,
		CodeLanguage:   req.CodeLanguage,
	})
	if err != nil {
		observability.IncSend(t.Name(), "error")
		return nil, err
	}
	observability.IncSend(t.Name(), "ok")
	return &msg, nil
}

func (t *RestTransport) EditMessage(ctx context.Context, messageID, content string) (*models.ChatMessage, error) {
	msg, err := t.client.EditMessage(ctx, messageID, content)
	if err != nil {
		observability.IncSend(t.Name(), "error")
		return nil, err
	}
	observability.IncSend(t.Name(), "ok")
	return &msg, nil
}

func (t *RestTransport) DeleteMessage(ctx context.Context, messageID string) (bool, error) {
	if err := t.client.DeleteMessage(ctx, messageID); err != nil {
		observability.IncSend(t.Name(), "error")
		return false, err
	}
	observability.IncSend(t.Name(), "ok")
	return true, nil
}

func (t *RestTransport) React(ctx context.Context, messageID, emoji string) ([]models.Reaction, error) {
	reactions, err := t.client.ToggleReaction(ctx, messageID, emoji)
	if err != nil {
		observability.IncSend(t.Name(), "error")
		return nil, err
	}
	observability.IncSend(t.Name(), "ok")
	return reactions, nil
}
