package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"chat-client/internal/models"
	"chat-client/internal/protocol"
	"chat-client/internal/rest"
)

type FetcherMock struct {
	mock.Mock
}

func (m *FetcherMock) GetChannel(ctx context.Context, channelID string) (models.Channel, error) {
	args := m.Called(ctx, channelID)
	var channel models.Channel
	if val := args.Get(0); val != nil {
		channel = val.(models.Channel)
	}
	return channel, args.Error(1)
}

func (m *FetcherMock) GetMessages(ctx context.Context, channelID string, before time.Time, limit int) (models.MessagePage, error) {
	args := m.Called(ctx, channelID, before, limit)
	var page models.MessagePage
	if val := args.Get(0); val != nil {
		page = val.(models.MessagePage)
	}
	return page, args.Error(1)
}

type PinnerMock struct {
	mock.Mock
}

func (m *PinnerMock) TogglePin(ctx context.Context, messageID string) (models.ChatMessage, error) {
	args := m.Called(ctx, messageID)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

func (m *PinnerMock) ToggleBookmark(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

type ReadMarkerMock struct {
	mock.Mock
}

func (m *ReadMarkerMock) MarkRead(channelID, messageID string) {
	m.Called(channelID, messageID)
}

type EmitterMock struct {
	mock.Mock
}

func (m *EmitterMock) Connected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *EmitterMock) Emit(eventType string, payload any) error {
	args := m.Called(eventType, payload)
	return args.Error(0)
}

func (m *EmitterMock) SendWithAck(ctx context.Context, payload protocol.SendPayload) (protocol.SendAck, error) {
	args := m.Called(ctx, payload)
	var ack protocol.SendAck
	if val := args.Get(0); val != nil {
		ack = val.(protocol.SendAck)
	}
	return ack, args.Error(1)
}

type APIMock struct {
	mock.Mock
}

func (m *APIMock) PostMessage(ctx context.Context, channelID string, req rest.SendRequest) (models.ChatMessage, error) {
	args := m.Called(ctx, channelID, req)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

func (m *APIMock) EditMessage(ctx context.Context, messageID, content string) (models.ChatMessage, error) {
	args := m.Called(ctx, messageID, content)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

func (m *APIMock) DeleteMessage(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *APIMock) ToggleReaction(ctx context.Context, messageID, emoji string) ([]models.Reaction, error) {
	args := m.Called(ctx, messageID, emoji)
	var reactions []models.Reaction
	if val := args.Get(0); val != nil {
		reactions = val.([]models.Reaction)
	}
	return reactions, args.Error(1)
}

type ThreadFetcherMock struct {
	mock.Mock
}

func (m *ThreadFetcherMock) GetThread(ctx context.Context, messageID string) (rest.ThreadResponse, error) {
	args := m.Called(ctx, messageID)
	var resp rest.ThreadResponse
	if val := args.Get(0); val != nil {
		resp = val.(rest.ThreadResponse)
	}
	return resp, args.Error(1)
}

type UserSearcherMock struct {
	mock.Mock
}

func (m *UserSearcherMock) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	args := m.Called(ctx, query, limit)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type TypingSignalerMock struct {
	mock.Mock
}

func (m *TypingSignalerMock) TypingStart(channelID string) {
	m.Called(channelID)
}

func (m *TypingSignalerMock) TypingStop(channelID string) {
	m.Called(channelID)
}

type AdminAPIMock struct {
	mock.Mock
}

func (m *AdminAPIMock) GetChannel(ctx context.Context, channelID string) (models.Channel, error) {
	args := m.Called(ctx, channelID)
	var channel models.Channel
	if val := args.Get(0); val != nil {
		channel = val.(models.Channel)
	}
	return channel, args.Error(1)
}

func (m *AdminAPIMock) UpdateChannel(ctx context.Context, channelID string, settings models.ChannelSettings) (models.Channel, error) {
	args := m.Called(ctx, channelID, settings)
	var channel models.Channel
	if val := args.Get(0); val != nil {
		channel = val.(models.Channel)
	}
	return channel, args.Error(1)
}

func (m *AdminAPIMock) ArchiveChannel(ctx context.Context, channelID string) error {
	args := m.Called(ctx, channelID)
	return args.Error(0)
}

func (m *AdminAPIMock) ListMembers(ctx context.Context, channelID string) ([]models.Member, error) {
	args := m.Called(ctx, channelID)
	var members []models.Member
	if val := args.Get(0); val != nil {
		members = val.([]models.Member)
	}
	return members, args.Error(1)
}

func (m *AdminAPIMock) RemoveMember(ctx context.Context, channelID, userID string) error {
	args := m.Called(ctx, channelID, userID)
	return args.Error(0)
}

func (m *AdminAPIMock) CreateInvite(ctx context.Context, channelID, userID string) (models.Invite, error) {
	args := m.Called(ctx, channelID, userID)
	var invite models.Invite
	if val := args.Get(0); val != nil {
		invite = val.(models.Invite)
	}
	return invite, args.Error(1)
}
