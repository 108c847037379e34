package rest

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"chat-client/internal/models"
)

// SearchUsers queries the user-search collaborator for mention resolution.
func (c *Client) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	values := url.Values{}
	values.Set("q", query)
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}

	var resp struct {
		Users []models.User `json:"users"`
	}
	err := c.do(ctx, "search_users", http.MethodGet, "/users/search?"+values.Encode(), nil, &resp)
	return resp.Users, err
}
