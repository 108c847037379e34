package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-client/internal/mocks"
	"chat-client/internal/models"
	"chat-client/internal/protocol"
)

var (
	_ Emitter = (*mocks.EmitterMock)(nil)
	_ API     = (*mocks.APIMock)(nil)
)

func TestSelectPrefersLiveSocket(t *testing.T) {
	emitter := new(mocks.EmitterMock)
	emitter.On("Connected").Return(true).Once()

	chosen := Select(emitter, new(mocks.APIMock))
	assert.Equal(t, "socket", chosen.Name())
}

func TestSelectFallsBackToRest(t *testing.T) {
	emitter := new(mocks.EmitterMock)
	emitter.On("Connected").Return(false).Once()

	chosen := Select(emitter, new(mocks.APIMock))
	assert.Equal(t, "rest", chosen.Name())
}

func TestSelectNilEmitterIsRest(t *testing.T) {
	chosen := Select(nil, new(mocks.APIMock))
	assert.Equal(t, "rest", chosen.Name())
}

func TestSocketSendReturnsAckMessage(t *testing.T) {
	emitter := new(mocks.EmitterMock)
	emitter.On("Connected").Return(true).Once()
	created := models.ChatMessage{ID: "m1", ChannelID: "c1", Content: "hi"}
	emitter.On("SendWithAck", mock.Anything, mock.MatchedBy(func(p protocol.SendPayload) bool {
		return p.ChannelID == "c1" && p.Content == "hi"
	})).Return(protocol.SendAck{Nonce: "n1", Success: true, Message: &created}, nil).Once()

	chosen := Select(emitter, nil)
	msg, err := chosen.SendMessage(context.Background(), Request{ChannelID: "c1", Content: "hi"})
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "m1", msg.ID)
	emitter.AssertExpectations(t)
}

func TestSocketSendPropagatesRejection(t *testing.T) {
	emitter := new(mocks.EmitterMock)
	emitter.On("Connected").Return(true).Once()
	emitter.On("SendWithAck", mock.Anything, mock.Anything).
		Return(protocol.SendAck{}, assert.AnError).Once()

	chosen := Select(emitter, nil)
	_, err := chosen.SendMessage(context.Background(), Request{ChannelID: "c1", Content: "hi"})
	require.Error(t, err)
}

func TestSocketMutationsWaitForEcho(t *testing.T) {
	emitter := new(mocks.EmitterMock)
	emitter.On("Connected").Return(true).Times(3)
	emitter.On("Emit", protocol.TypeMessageEdit, mock.Anything).Return(nil).Once()
	emitter.On("Emit", protocol.TypeMessageDelete, mock.Anything).Return(nil).Once()
	emitter.On("Emit", protocol.TypeMessageReact, mock.Anything).Return(nil).Once()

	api := new(mocks.APIMock)

	updated, err := Select(emitter, api).EditMessage(context.Background(), "m1", "new")
	require.NoError(t, err)
	assert.Nil(t, updated, "socket edit applies via the echo event, not the return value")

	applied, err := Select(emitter, api).DeleteMessage(context.Background(), "m1")
	require.NoError(t, err)
	assert.False(t, applied)

	reactions, err := Select(emitter, api).React(context.Background(), "m1", "👍")
	require.NoError(t, err)
	assert.Nil(t, reactions)

	emitter.AssertExpectations(t)
}

func TestRestMutationsReturnPayloads(t *testing.T) {
	api := new(mocks.APIMock)
	api.On("PostMessage", mock.Anything, "c1", mock.Anything).
		Return(models.ChatMessage{ID: "m1", ChannelID: "c1"}, nil).Once()
	api.On("EditMessage", mock.Anything, "m1", "new").
		Return(models.ChatMessage{ID: "m1", Content: "new"}, nil).Once()
	api.On("DeleteMessage", mock.Anything, "m1").Return(nil).Once()
	api.On("ToggleReaction", mock.Anything, "m1", "👍").
		Return([]models.Reaction{{Emoji: "👍", UserID: "u1"}}, nil).Once()

	rest := Select(nil, api)

	msg, err := rest.SendMessage(context.Background(), Request{ChannelID: "c1", Content: "hi"})
	require.NoError(t, err)
	require.NotNil(t, msg)

	updated, err := rest.EditMessage(context.Background(), "m1", "new")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "new", updated.Content)

	applied, err := rest.DeleteMessage(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, applied, "rest delete must be applied locally by the caller")

	reactions, err := rest.React(context.Background(), "m1", "👍")
	require.NoError(t, err)
	require.Len(t, reactions, 1)

	api.AssertExpectations(t)
}

func TestRestSendError(t *testing.T) {
	api := new(mocks.APIMock)
	api.On("PostMessage", mock.Anything, "c1", mock.Anything).
		Return(models.ChatMessage{}, assert.AnError).Once()

	_, err := Select(nil, api).SendMessage(context.Background(), Request{ChannelID: "c1", Content: "hi"})
	require.Error(t, err)
}
