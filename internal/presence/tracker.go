package presence

import (
	"fmt"
	"sync"

	"chat-client/internal/models"
	"chat-client/internal/protocol"
)

// Tracker holds the live presence map and per-channel typing sets for
// read-only consumption by sidebars and message views. It only ever reflects
// inbound events; no local code decides another user's presence.
type Tracker struct {
	mu       sync.RWMutex
	presence map[string]models.Presence
	typing   map[string]map[string]struct{} // channelID -> set of userIDs
}

// NewTracker builds an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		presence: map[string]models.Presence{},
		typing:   map[string]map[string]struct{}{},
	}
}

// Apply routes presence and typing events into the tracker.
func (t *Tracker) Apply(event protocol.Event) {
	switch e := event.(type) {
	case protocol.PresenceChanged:
		t.setPresence(e.Presence)
	case protocol.TypingChanged:
		if e.IsTyping {
			t.startTyping(e.UserID, e.ChannelID)
		} else {
			t.stopTyping(e.UserID, e.ChannelID)
		}
	case protocol.NewMessage:
		// A send implies the sender stopped typing in that channel.
		t.stopTyping(e.Message.SenderID, e.Message.ChannelID)
	}
}

// setPresence is last-write-wins per user id.
func (t *Tracker) setPresence(p models.Presence) {
	t.mu.Lock()
	t.presence[p.UserID] = p
	t.mu.Unlock()
}

// Status returns the last reported presence for a user. Users never seen
// report OFFLINE.
func (t *Tracker) Status(userID string) models.Presence {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if p, ok := t.presence[userID]; ok {
		return p
	}
	return models.Presence{UserID: userID, Status: models.StatusOffline}
}

// startTyping adds the pair only if absent; duplicate starts are collapsed.
func (t *Tracker) startTyping(userID, channelID string) {
	if userID == "" || channelID == "" {
		return
	}
	t.mu.Lock()
	set, ok := t.typing[channelID]
	if !ok {
		set = map[string]struct{}{}
		t.typing[channelID] = set
	}
	set[userID] = struct{}{}
	t.mu.Unlock()
}

// stopTyping removes unconditionally; removing an absent pair is a no-op.
func (t *Tracker) stopTyping(userID, channelID string) {
	t.mu.Lock()
	if set, ok := t.typing[channelID]; ok {
		delete(set, userID)
		if len(set) == 0 {
			delete(t.typing, channelID)
		}
	}
	t.mu.Unlock()
}

// TypingIn returns the ids of users currently typing in a channel. Typing
// state is scoped per channel and never leaks across channels.
func (t *Tracker) TypingIn(channelID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set := t.typing[channelID]
	users := make([]string, 0, len(set))
	for userID := range set {
		users = append(users, userID)
	}
	return users
}

// FormatTyping renders the typing indicator copy for a list of display names.
func FormatTyping(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%s is typing", names[0])
	case 2:
		return fmt.Sprintf("%s and %s are typing", names[0], names[1])
	default:
		return fmt.Sprintf("%s and %d others are typing", names[0], len(names)-1)
	}
}
