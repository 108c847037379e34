package models

// Membership roles in ascending trust order.
const (
	RoleMember    = "member"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
	RoleOwner     = "owner"
)

var roleLevels = map[string]int{
	RoleMember:    0,
	RoleModerator: 1,
	RoleAdmin:     2,
	RoleOwner:     3,
}

// RoleLevel returns the numeric trust level of a role. Unknown roles rank
// below member so permission gates fail closed.
func RoleLevel(role string) int {
	if level, ok := roleLevels[role]; ok {
		return level
	}
	return -1
}

// RoleAtLeast reports whether role has at least the trust of min.
func RoleAtLeast(role, min string) bool {
	return RoleLevel(role) >= RoleLevel(min)
}

// Membership describes the requester's relation to a channel.
type Membership struct {
	UserID            string `json:"user_id"`
	Role              string `json:"role"`
	NotificationPref  string `json:"notification_pref,omitempty"`
	LastReadMessageID string `json:"last_read_message_id,omitempty"`
}

// Member is a channel member entry as returned by the member list endpoint.
type Member struct {
	User User   `json:"user"`
	Role string `json:"role"`
}
