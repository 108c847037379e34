package models

import "time"

// Tombstone replaces the content of a deleted message. The entry keeps its id
// and position in the timeline; only the content is scrubbed.
const Tombstone = "This message has been deleted"

// ChatMessage represents a single message in a channel timeline or thread.
type ChatMessage struct {
	ID             string     `json:"id"`
	ChannelID      string     `json:"channel_id"`
	SenderID       string     `json:"sender_id"`
	Content        string     `json:"content"`
	Kind           string     `json:"kind,omitempty"`
	ThreadParentID *string    `json:"thread_parent_id,omitempty"`
	GifURL         string     `json:"gif_url,omitempty"`
	ImageURL       string     `json:"image_url,omitempty"`
	CodeSnippet    string     `json:"code_snippet,omitempty"`
	CodeLanguage   string     `json:"code_language,omitempty"`
	IsPinned       bool       `json:"is_pinned"`
	IsDeleted      bool       `json:"is_deleted"`
	Reactions      []Reaction `json:"reactions,omitempty"`
	Poll           *Poll      `json:"poll,omitempty"`
	ReplyCount     int        `json:"reply_count,omitempty"`
	EditedAt       *time.Time `json:"edited_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`

	// Joined fields
	SenderUsername    string `json:"sender_username,omitempty"`
	SenderDisplayName string `json:"sender_display_name,omitempty"`
}

// IsThreadReply reports whether the message belongs to a thread rather than
// the main channel timeline.
func (m ChatMessage) IsThreadReply() bool {
	return m.ThreadParentID != nil && *m.ThreadParentID != ""
}

// MessagePage is one page of timeline history returned by the server.
type MessagePage struct {
	Messages []ChatMessage `json:"messages"`
	HasMore  bool          `json:"has_more"`
	// IsPro reports whether the requester's tier permits paging past the
	// historical boundary. The limit itself is enforced server-side; clients
	// only render the notice.
	IsPro bool `json:"is_pro"`
}
