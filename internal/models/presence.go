package models

import "time"

// Presence statuses as reported by the server. A client never decides another
// user's presence; it reflects the last received event.
const (
	StatusOnline  = "ONLINE"
	StatusAway    = "AWAY"
	StatusDND     = "DND"
	StatusOffline = "OFFLINE"
)

// Presence is a user's live availability.
type Presence struct {
	UserID     string     `json:"user_id"`
	Status     string     `json:"status"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	CustomText string     `json:"custom_text,omitempty"`
}
