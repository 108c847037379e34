package models

// Poll is an optional embedded poll on a message.
type Poll struct {
	ID       string       `json:"id"`
	Question string       `json:"question"`
	Options  []PollOption `json:"options"`
}

// PollOption is one votable answer.
type PollOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	VoteCount int    `json:"vote_count"`
}

// Invite is a pending invitation into a private channel.
type Invite struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id"`
	InviterID string `json:"inviter_id"`
}
