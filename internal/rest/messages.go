package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"chat-client/internal/models"
)

// SendRequest is the body of a REST message send.
type SendRequest struct {
	Content        string `json:"content"`
	ThreadParentID string `json:"thread_parent_id,omitempty"`
	GifURL         string `json:"gif_url,omitempty"`
	CodeSnippet    string `json:"code_snippet,omitempty"`
	CodeLanguage   string `json:"code_language,omitempty"`
}

// ThreadResponse is the parent message with its current flat reply list.
type ThreadResponse struct {
	Parent  models.ChatMessage   `json:"parent"`
	Replies []models.ChatMessage `json:"replies"`
}

// GetMessages fetches one history page. A zero before returns the newest
// page; otherwise the page holds messages strictly older than before.
func (c *Client) GetMessages(ctx context.Context, channelID string, before time.Time, limit int) (models.MessagePage, error) {
	query := url.Values{}
	if !before.IsZero() {
		query.Set("before", before.UTC().Format(time.RFC3339Nano))
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	path := "/channels/" + url.PathEscape(channelID) + "/messages"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page models.MessagePage
	err := c.do(ctx, "get_messages", http.MethodGet, path, nil, &page)
	return page, err
}

// PostMessage creates a message over REST. The response body is the created
// message; the caller appends it to local state directly because no socket
// echo will arrive in disconnected mode.
func (c *Client) PostMessage(ctx context.Context, channelID string, req SendRequest) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := c.do(ctx, "post_message", http.MethodPost, "/channels/"+url.PathEscape(channelID)+"/messages", req, &msg)
	return msg, err
}

// EditMessage updates a message's content and returns the updated entry.
func (c *Client) EditMessage(ctx context.Context, messageID, content string) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := c.do(ctx, "edit_message", http.MethodPatch, "/messages/"+url.PathEscape(messageID),
		map[string]string{"content": content}, &msg)
	return msg, err
}

// DeleteMessage soft-deletes a message. The caller tombstones its local entry.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	return c.do(ctx, "delete_message", http.MethodDelete, "/messages/"+url.PathEscape(messageID), nil, nil)
}

// ToggleReaction toggles the caller's (emoji) reaction and returns the
// message's full reaction list afterwards.
func (c *Client) ToggleReaction(ctx context.Context, messageID, emoji string) ([]models.Reaction, error) {
	var resp struct {
		Reactions []models.Reaction `json:"reactions"`
	}
	err := c.do(ctx, "toggle_reaction", http.MethodPost, "/messages/"+url.PathEscape(messageID)+"/reactions",
		map[string]string{"emoji": emoji}, &resp)
	return resp.Reactions, err
}

// TogglePin flips a message's pinned flag and returns the updated message.
func (c *Client) TogglePin(ctx context.Context, messageID string) (models.ChatMessage, error) {
	var msg models.ChatMessage
	err := c.do(ctx, "toggle_pin", http.MethodPost, "/messages/"+url.PathEscape(messageID)+"/pin", nil, &msg)
	return msg, err
}

// ToggleBookmark flips the caller's private bookmark on a message.
func (c *Client) ToggleBookmark(ctx context.Context, messageID string) error {
	return c.do(ctx, "toggle_bookmark", http.MethodPost, "/messages/"+url.PathEscape(messageID)+"/bookmark", nil, nil)
}

// GetThread fetches a parent message and its replies in one request.
func (c *Client) GetThread(ctx context.Context, messageID string) (ThreadResponse, error) {
	var resp ThreadResponse
	err := c.do(ctx, "get_thread", http.MethodGet, "/messages/"+url.PathEscape(messageID)+"/thread", nil, &resp)
	return resp, err
}
