package thread

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-client/internal/mocks"
	"chat-client/internal/models"
	"chat-client/internal/protocol"
	"chat-client/internal/rest"
)

var _ Fetcher = (*mocks.ThreadFetcherMock)(nil)

func reply(id, parentID string) models.ChatMessage {
	return models.ChatMessage{ID: id, ChannelID: "c1", SenderID: "u2", Content: "reply " + id, ThreadParentID: &parentID}
}

func loadedView(t *testing.T, replies ...models.ChatMessage) *View {
	t.Helper()
	fetcher := new(mocks.ThreadFetcherMock)
	fetcher.On("GetThread", mock.Anything, "m1").Return(rest.ThreadResponse{
		Parent:  models.ChatMessage{ID: "m1", ChannelID: "c1", Content: "parent"},
		Replies: replies,
	}, nil).Once()

	view := NewView(fetcher, "m1")
	require.NoError(t, view.Load(context.Background()))
	return view
}

func TestStateMachine(t *testing.T) {
	state := &State{}

	_, _, open := state.Current()
	assert.False(t, open)

	state.Open("m1", "c1")
	messageID, channelID, open := state.Current()
	assert.True(t, open)
	assert.Equal(t, "m1", messageID)
	assert.Equal(t, "c1", channelID)

	// Opening another thread replaces the first.
	state.Open("m2", "c1")
	messageID, _, _ = state.Current()
	assert.Equal(t, "m2", messageID)

	state.Close()
	_, _, open = state.Current()
	assert.False(t, open)
}

func TestLoadPopulatesParentAndReplies(t *testing.T) {
	view := loadedView(t, reply("r1", "m1"), reply("r2", "m1"))

	assert.Equal(t, "parent", view.Parent().Content)
	require.Len(t, view.Replies(), 2)
}

func TestDedicatedAndGenericReplyEventsDeduplicate(t *testing.T) {
	view := loadedView(t)

	view.Apply(protocol.ThreadReply{ThreadParentID: "m1", Message: reply("r1", "m1")})
	view.Apply(protocol.NewMessage{Message: reply("r1", "m1")})

	assert.Len(t, view.Replies(), 1)
}

func TestLocalReplyNotDuplicatedByDelayedEcho(t *testing.T) {
	view := loadedView(t)

	// A REST-sent reply is appended directly; its socket echo may still
	// arrive later and must be dropped.
	view.AppendLocal(reply("r1", "m1"))
	view.Apply(protocol.ThreadReply{ThreadParentID: "m1", Message: reply("r1", "m1")})
	view.Apply(protocol.NewMessage{Message: reply("r1", "m1")})

	assert.Len(t, view.Replies(), 1)
}

func TestReplyForOtherThreadIgnored(t *testing.T) {
	view := loadedView(t)

	view.Apply(protocol.ThreadReply{ThreadParentID: "m9", Message: reply("r1", "m9")})
	view.Apply(protocol.NewMessage{Message: reply("r2", "m9")})

	assert.Empty(t, view.Replies())
}

func TestLoadedReplyNotDuplicatedByEvent(t *testing.T) {
	view := loadedView(t, reply("r1", "m1"))

	view.Apply(protocol.ThreadReply{ThreadParentID: "m1", Message: reply("r1", "m1")})

	assert.Len(t, view.Replies(), 1)
}

func TestDeleteTombstonesParentInPlace(t *testing.T) {
	view := loadedView(t, reply("r1", "m1"))

	view.Apply(protocol.DeletedMessage{MessageID: "m1", ChannelID: "c1"})

	parent := view.Parent()
	assert.True(t, parent.IsDeleted)
	assert.Equal(t, models.Tombstone, parent.Content)
	// The panel stays open; replies remain.
	assert.Len(t, view.Replies(), 1)
}

func TestDeleteTombstonesReply(t *testing.T) {
	view := loadedView(t, reply("r1", "m1"))

	view.Apply(protocol.DeletedMessage{MessageID: "r1", ChannelID: "c1"})

	got := view.Replies()[0]
	assert.True(t, got.IsDeleted)
	assert.Equal(t, models.Tombstone, got.Content)
}

func TestReactionReplaceOnReply(t *testing.T) {
	view := loadedView(t, reply("r1", "m1"))

	view.Apply(protocol.ReactionChanged{
		MessageID: "r1",
		ChannelID: "c1",
		Reactions: []models.Reaction{{Emoji: "👍", UserID: "u3"}},
	})

	require.Len(t, view.Replies()[0].Reactions, 1)
}

func TestLoadErrorPropagates(t *testing.T) {
	fetcher := new(mocks.ThreadFetcherMock)
	fetcher.On("GetThread", mock.Anything, "m1").Return(rest.ThreadResponse{}, assert.AnError).Once()

	view := NewView(fetcher, "m1")
	require.Error(t, view.Load(context.Background()))
}
