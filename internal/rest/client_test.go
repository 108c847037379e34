package rest_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-client/internal/chattest"
	"chat-client/internal/models"
	"chat-client/internal/rest"
)

func newBackend(t *testing.T) (*chattest.Server, *rest.Client) {
	t.Helper()
	server := chattest.NewServer()
	t.Cleanup(server.Close)
	return server, rest.NewClient(server.URL(), "test-token")
}

func TestGetChannel(t *testing.T) {
	server, client := newBackend(t)
	server.SeedChannel(models.Channel{ID: "c1", Name: "general", Type: models.ChannelPublic})

	channel, err := client.GetChannel(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "general", channel.Name)
}

func TestGetChannelNotFound(t *testing.T) {
	_, client := newBackend(t)

	_, err := client.GetChannel(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *rest.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestGetMessagesPaging(t *testing.T) {
	server, client := newBackend(t)
	base := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)

	var history []models.ChatMessage
	for i := 0; i < 5; i++ {
		history = append(history, models.ChatMessage{
			ID:        string(rune('a' + i)),
			ChannelID: "c1",
			Content:   "msg",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	server.SeedMessages("c1", history)

	page, err := client.GetMessages(context.Background(), "c1", time.Time{}, 2)
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "d", page.Messages[0].ID)
	assert.Equal(t, "e", page.Messages[1].ID)

	older, err := client.GetMessages(context.Background(), "c1", page.Messages[0].CreatedAt, 2)
	require.NoError(t, err)
	require.Len(t, older.Messages, 2)
	assert.Equal(t, "b", older.Messages[0].ID)
	assert.Equal(t, "c", older.Messages[1].ID)
}

func TestPostAndEditMessage(t *testing.T) {
	_, client := newBackend(t)

	msg, err := client.PostMessage(context.Background(), "c1", rest.SendRequest{Content: "hello"})
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)
	assert.Equal(t, "c1", msg.ChannelID)

	edited, err := client.EditMessage(context.Background(), msg.ID, "hello again")
	require.NoError(t, err)
	assert.Equal(t, "hello again", edited.Content)
	require.NotNil(t, edited.EditedAt)
}

func TestPostMessageValidation(t *testing.T) {
	_, client := newBackend(t)

	_, err := client.PostMessage(context.Background(), "c1", rest.SendRequest{Content: "   "})
	var apiErr *rest.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.Status)
}

func TestDeleteMessage(t *testing.T) {
	_, client := newBackend(t)

	msg, err := client.PostMessage(context.Background(), "c1", rest.SendRequest{Content: "doomed"})
	require.NoError(t, err)
	require.NoError(t, client.DeleteMessage(context.Background(), msg.ID))
}

func TestToggleReactionRoundTrip(t *testing.T) {
	_, client := newBackend(t)

	msg, err := client.PostMessage(context.Background(), "c1", rest.SendRequest{Content: "react to me"})
	require.NoError(t, err)

	reactions, err := client.ToggleReaction(context.Background(), msg.ID, "👍")
	require.NoError(t, err)
	require.Len(t, reactions, 1)

	// Second toggle removes it.
	reactions, err = client.ToggleReaction(context.Background(), msg.ID, "👍")
	require.NoError(t, err)
	assert.Empty(t, reactions)
}

func TestTogglePin(t *testing.T) {
	_, client := newBackend(t)

	msg, err := client.PostMessage(context.Background(), "c1", rest.SendRequest{Content: "pin me"})
	require.NoError(t, err)

	pinned, err := client.TogglePin(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.True(t, pinned.IsPinned)
}

func TestPinnedMessages(t *testing.T) {
	_, client := newBackend(t)

	first, err := client.PostMessage(context.Background(), "c1", rest.SendRequest{Content: "keeper"})
	require.NoError(t, err)
	_, err = client.PostMessage(context.Background(), "c1", rest.SendRequest{Content: "ephemeral"})
	require.NoError(t, err)
	_, err = client.TogglePin(context.Background(), first.ID)
	require.NoError(t, err)

	pins, err := client.PinnedMessages(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, pins, 1)
	assert.Equal(t, first.ID, pins[0].ID)
}

func TestLeaveChannel(t *testing.T) {
	server, client := newBackend(t)
	server.SeedChannel(models.Channel{ID: "c1", Name: "general"})

	require.NoError(t, client.LeaveChannel(context.Background(), "c1"))

	err := client.LeaveChannel(context.Background(), "missing")
	var apiErr *rest.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestGetThread(t *testing.T) {
	server, client := newBackend(t)

	parent, err := client.PostMessage(context.Background(), "c1", rest.SendRequest{Content: "parent"})
	require.NoError(t, err)
	_, err = client.PostMessage(context.Background(), "c1", rest.SendRequest{Content: "reply", ThreadParentID: parent.ID})
	require.NoError(t, err)

	resp, err := client.GetThread(context.Background(), parent.ID)
	require.NoError(t, err)
	assert.Equal(t, parent.ID, resp.Parent.ID)
	require.Len(t, resp.Replies, 1)

	_ = server
}

func TestSearchUsersLimit(t *testing.T) {
	server, client := newBackend(t)
	server.SeedUsers([]models.User{
		{ID: "u1", Username: "ada"},
		{ID: "u2", Username: "adam"},
		{ID: "u3", Username: "adrian"},
	})

	users, err := client.SearchUsers(context.Background(), "ad", 2)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestChannelAdminEndpoints(t *testing.T) {
	server, client := newBackend(t)
	server.SeedChannel(models.Channel{ID: "c1", Name: "general", Type: models.ChannelPrivate})
	server.SeedMembers("c1", []models.Member{
		{User: models.User{ID: "u1", Username: "ada"}, Role: models.RoleOwner},
		{User: models.User{ID: "u2", Username: "bob"}, Role: models.RoleMember},
	})

	updated, err := client.UpdateChannel(context.Background(), "c1", models.ChannelSettings{Name: "renamed", Topic: "t"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)

	members, err := client.ListMembers(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, members, 2)

	require.NoError(t, client.RemoveMember(context.Background(), "c1", "u2"))
	members, err = client.ListMembers(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, members, 1)

	invite, err := client.CreateInvite(context.Background(), "c1", "u9")
	require.NoError(t, err)
	assert.Equal(t, "u9", invite.UserID)

	require.NoError(t, client.ArchiveChannel(context.Background(), "c1"))
	archived, err := client.GetChannel(context.Background(), "c1")
	require.NoError(t, err)
	require.NotNil(t, archived.ArchivedAt)
}
