package rest

import (
	"context"
	"net/http"
	"net/url"

	"chat-client/internal/models"
)

// GetChannel fetches channel metadata including the requester's membership.
func (c *Client) GetChannel(ctx context.Context, channelID string) (models.Channel, error) {
	var channel models.Channel
	err := c.do(ctx, "get_channel", http.MethodGet, "/channels/"+url.PathEscape(channelID), nil, &channel)
	return channel, err
}

// UpdateChannel saves channel settings. Server-side role enforcement applies;
// the client's gate is advisory only.
func (c *Client) UpdateChannel(ctx context.Context, channelID string, settings models.ChannelSettings) (models.Channel, error) {
	var channel models.Channel
	err := c.do(ctx, "update_channel", http.MethodPatch, "/channels/"+url.PathEscape(channelID), settings, &channel)
	return channel, err
}

// ArchiveChannel soft-removes a channel (owner action).
func (c *Client) ArchiveChannel(ctx context.Context, channelID string) error {
	return c.do(ctx, "archive_channel", http.MethodPost, "/channels/"+url.PathEscape(channelID)+"/archive", nil, nil)
}

// ListMembers returns the channel member list.
func (c *Client) ListMembers(ctx context.Context, channelID string) ([]models.Member, error) {
	var resp struct {
		Members []models.Member `json:"members"`
	}
	err := c.do(ctx, "list_members", http.MethodGet, "/channels/"+url.PathEscape(channelID)+"/members", nil, &resp)
	return resp.Members, err
}

// RemoveMember removes a member from the channel.
func (c *Client) RemoveMember(ctx context.Context, channelID, userID string) error {
	return c.do(ctx, "remove_member", http.MethodDelete,
		"/channels/"+url.PathEscape(channelID)+"/members/"+url.PathEscape(userID), nil, nil)
}

// CreateInvite invites a user into a private channel.
func (c *Client) CreateInvite(ctx context.Context, channelID, userID string) (models.Invite, error) {
	var invite models.Invite
	err := c.do(ctx, "create_invite", http.MethodPost, "/channels/"+url.PathEscape(channelID)+"/invites",
		map[string]string{"user_id": userID}, &invite)
	return invite, err
}

// LeaveChannel removes the requester's own membership.
func (c *Client) LeaveChannel(ctx context.Context, channelID string) error {
	return c.do(ctx, "leave_channel", http.MethodPost, "/channels/"+url.PathEscape(channelID)+"/leave", nil, nil)
}

// PinnedMessages lists the channel's pinned messages.
func (c *Client) PinnedMessages(ctx context.Context, channelID string) ([]models.ChatMessage, error) {
	var resp struct {
		Messages []models.ChatMessage `json:"messages"`
	}
	err := c.do(ctx, "pinned_messages", http.MethodGet, "/channels/"+url.PathEscape(channelID)+"/pins", nil, &resp)
	return resp.Messages, err
}
