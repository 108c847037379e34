package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeNewMessage(t *testing.T) {
	raw := []byte(`{"type":"message:new","payload":{"id":"m1","channel_id":"c1","content":"hi"},"ts":1700000000}`)

	event, err := Decode(raw)
	require.NoError(t, err)

	msg, ok := event.(NewMessage)
	require.True(t, ok)
	assert.Equal(t, "m1", msg.Message.ID)
	assert.Equal(t, "c1", msg.Message.ChannelID)
	assert.Equal(t, "hi", msg.Message.Content)
}

func TestDecodeDeletedMessage(t *testing.T) {
	raw := []byte(`{"type":"message:deleted","payload":{"message_id":"m2","channel_id":"c1"}}`)

	event, err := Decode(raw)
	require.NoError(t, err)

	deleted, ok := event.(DeletedMessage)
	require.True(t, ok)
	assert.Equal(t, "m2", deleted.MessageID)
	assert.Equal(t, "c1", deleted.ChannelID)
}

func TestDecodeReactionUpdated(t *testing.T) {
	raw := []byte(`{"type":"reaction:updated","payload":{"message_id":"m3","channel_id":"c1","reactions":[{"emoji":"👍","user_id":"u1"},{"emoji":"👍","user_id":"u2"}]}}`)

	event, err := Decode(raw)
	require.NoError(t, err)

	changed, ok := event.(ReactionChanged)
	require.True(t, ok)
	require.Len(t, changed.Reactions, 2)
	assert.Equal(t, "u2", changed.Reactions[1].UserID)
}

func TestDecodeThreadReply(t *testing.T) {
	raw := []byte(`{"type":"thread:new","payload":{"thread_parent_id":"m1","message":{"id":"m9","content":"reply"}}}`)

	event, err := Decode(raw)
	require.NoError(t, err)

	reply, ok := event.(ThreadReply)
	require.True(t, ok)
	assert.Equal(t, "m1", reply.ThreadParentID)
	assert.Equal(t, "m9", reply.Message.ID)
}

func TestDecodeTypingUpdate(t *testing.T) {
	raw := []byte(`{"type":"typing:update","payload":{"user_id":"u1","channel_id":"c1","is_typing":true}}`)

	event, err := Decode(raw)
	require.NoError(t, err)

	typing, ok := event.(TypingChanged)
	require.True(t, ok)
	assert.True(t, typing.IsTyping)
	assert.Equal(t, "u1", typing.UserID)
}

func TestDecodePresenceChanged(t *testing.T) {
	raw := []byte(`{"type":"presence:changed","payload":{"user_id":"u1","status":"AWAY"}}`)

	event, err := Decode(raw)
	require.NoError(t, err)

	presence, ok := event.(PresenceChanged)
	require.True(t, ok)
	assert.Equal(t, "AWAY", presence.Presence.Status)
}

func TestDecodeAckFailure(t *testing.T) {
	raw := []byte(`{"type":"message:ack","payload":{"nonce":"n1","success":false,"error":"rate limited"}}`)

	event, err := Decode(raw)
	require.NoError(t, err)

	ack, ok := event.(SendAck)
	require.True(t, ok)
	assert.False(t, ack.Success)
	assert.Equal(t, "rate limited", ack.Error)
	assert.Nil(t, ack.Message)
}

func TestDecodeUnknownType(t *testing.T) {
	raw := []byte(`{"type":"poll:created","payload":{}}`)

	_, err := Decode(raw)
	require.ErrorIs(t, err, ErrUnknownEvent)
}

func TestDecodeMalformedFrame(t *testing.T) {
	_, err := Decode([]byte(`{"type":`))
	require.Error(t, err)
}

func TestNewEnvelopeRoundTrip(t *testing.T) {
	envelope, err := NewEnvelope(TypeMessageSend, SendPayload{Nonce: "n1", ChannelID: "c1", Content: "hi"})
	require.NoError(t, err)
	assert.NotZero(t, envelope.Timestamp)

	data, err := json.Marshal(envelope)
	require.NoError(t, err)

	var parsed Envelope
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, TypeMessageSend, parsed.Type)

	var payload SendPayload
	require.NoError(t, json.Unmarshal(parsed.Payload, &payload))
	assert.Equal(t, "n1", payload.Nonce)
}
