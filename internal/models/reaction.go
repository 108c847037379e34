package models

// Reaction is one user's emoji reaction on a message.
type Reaction struct {
	Emoji  string `json:"emoji"`
	UserID string `json:"user_id"`
}

// ReactionGroup groups reactions by emoji for rendering as a pill.
type ReactionGroup struct {
	Emoji   string   `json:"emoji"`
	Count   int      `json:"count"`
	UserIDs []string `json:"user_ids"`
}

// GroupReactions collapses a flat reaction list into per-emoji groups,
// preserving first-seen emoji order.
func GroupReactions(reactions []Reaction) []ReactionGroup {
	byEmoji := map[string]int{}
	groups := make([]ReactionGroup, 0)
	for _, r := range reactions {
		idx, ok := byEmoji[r.Emoji]
		if !ok {
			idx = len(groups)
			byEmoji[r.Emoji] = idx
			groups = append(groups, ReactionGroup{Emoji: r.Emoji})
		}
		groups[idx].Count++
		groups[idx].UserIDs = append(groups[idx].UserIDs, r.UserID)
	}
	return groups
}

// HasReaction reports whether the user already reacted with the emoji.
func HasReaction(reactions []Reaction, userID, emoji string) bool {
	for _, r := range reactions {
		if r.UserID == userID && r.Emoji == emoji {
			return true
		}
	}
	return false
}
