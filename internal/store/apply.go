package store

import (
	"sort"

	"chat-client/internal/models"
	"chat-client/internal/protocol"
)

// Apply routes one inbound event into the store. Events for other channels
// are ignored; all applications are keyed by message id and idempotent, so
// replays and REST/socket double-delivery are harmless.
func (s *ChannelStore) Apply(event protocol.Event) {
	switch e := event.(type) {
	case protocol.NewMessage:
		s.applyNew(e.Message)
	case protocol.UpdatedMessage:
		s.applyUpdate(e.Message)
	case protocol.DeletedMessage:
		if e.ChannelID == s.ChannelID() {
			s.applyDelete(e.MessageID)
		}
	case protocol.ReactionChanged:
		if e.ChannelID == s.ChannelID() {
			s.applyReactions(e.MessageID, e.Reactions)
		}
	}
}

// AppendLocal inserts a message produced by this client's own send (a REST
// response or an ack payload). It shares the id-keyed path with inbound
// events, so a delayed socket echo for the same id never duplicates it.
func (s *ChannelStore) AppendLocal(msg models.ChatMessage) {
	s.applyNew(msg)
}

func (s *ChannelStore) applyNew(msg models.ChatMessage) {
	if msg.IsThreadReply() {
		// Thread replies belong to the thread panel, never the main timeline.
		return
	}

	s.mu.Lock()
	if msg.ChannelID != s.channelID {
		s.mu.Unlock()
		return
	}
	if _, exists := s.index[msg.ID]; exists {
		s.mu.Unlock()
		return
	}

	s.messages = append(s.messages, msg)
	// New messages normally arrive in order; re-sort only when this one
	// landed out of place.
	if n := len(s.messages); n > 1 && msg.CreatedAt.Before(s.messages[n-2].CreatedAt) {
		sort.SliceStable(s.messages, func(i, j int) bool {
			return s.messages[i].CreatedAt.Before(s.messages[j].CreatedAt)
		})
	}
	s.reindexLocked()
	s.mu.Unlock()

	s.notify()
	s.markReadTail()
}

// ApplyLocalUpdate merges a message returned by a REST mutation into the
// timeline, exactly like an inbound update event.
func (s *ChannelStore) ApplyLocalUpdate(msg models.ChatMessage) {
	s.applyUpdate(msg)
}

func (s *ChannelStore) applyUpdate(msg models.ChatMessage) {
	s.mu.Lock()
	pos, exists := s.index[msg.ID]
	if !exists {
		// Unknown id: updates never insert.
		s.mu.Unlock()
		return
	}

	current := &s.messages[pos]
	if current.IsDeleted {
		// Tombstones are terminal; no update may restore content.
		s.mu.Unlock()
		return
	}

	current.Content = msg.Content
	current.EditedAt = msg.EditedAt
	current.IsPinned = msg.IsPinned
	current.Kind = msg.Kind
	current.GifURL = msg.GifURL
	current.ImageURL = msg.ImageURL
	current.CodeSnippet = msg.CodeSnippet
	current.CodeLanguage = msg.CodeLanguage
	current.Poll = msg.Poll
	// Reactions change only through reaction events; id, sender and
	// created-at never change at all.
	s.mu.Unlock()

	s.notify()
}

// ApplyLocalDelete tombstones a message after a REST delete succeeded.
func (s *ChannelStore) ApplyLocalDelete(messageID string) {
	s.applyDelete(messageID)
}

func (s *ChannelStore) applyDelete(messageID string) {
	s.mu.Lock()
	pos, exists := s.index[messageID]
	if !exists {
		s.mu.Unlock()
		return
	}

	current := &s.messages[pos]
	current.IsDeleted = true
	current.Content = models.Tombstone
	current.GifURL = ""
	current.ImageURL = ""
	current.CodeSnippet = ""
	current.CodeLanguage = ""
	current.Poll = nil
	s.mu.Unlock()

	s.notify()
}

func (s *ChannelStore) applyReactions(messageID string, reactions []models.Reaction) {
	s.mu.Lock()
	pos, exists := s.index[messageID]
	if !exists {
		s.mu.Unlock()
		return
	}

	// The event payload is the source of truth for the whole list: replace,
	// never merge.
	s.messages[pos].Reactions = reactions
	s.mu.Unlock()

	s.notify()
}
