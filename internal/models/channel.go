package models

import "time"

// Channel types. The type is immutable after creation and determines which
// operations a channel supports.
const (
	ChannelPublic      = "public"
	ChannelPrivate     = "private"
	ChannelDirect      = "direct"
	ChannelGroupDirect = "group_direct"
)

// Channel represents a named message scope with a membership list.
type Channel struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	Topic           string     `json:"topic,omitempty"`
	Description     string     `json:"description,omitempty"`
	SlowModeSeconds int        `json:"slow_mode_seconds,omitempty"`
	MemberCount     int        `json:"member_count"`
	MessageCount    int        `json:"message_count"`
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	// Membership is the requester's own membership, when the server includes it.
	Membership *Membership `json:"membership,omitempty"`
}

// IsDirect reports whether the channel is a 1:1 or group direct conversation.
// Direct channels have no member browsing and no invite flow.
func (c Channel) IsDirect() bool {
	return c.Type == ChannelDirect || c.Type == ChannelGroupDirect
}

// ChannelSettings is the mutable subset of channel attributes.
type ChannelSettings struct {
	Name            string `json:"name"`
	Topic           string `json:"topic"`
	Description     string `json:"description"`
	SlowModeSeconds int    `json:"slow_mode_seconds"`
}
