package chattest

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"chat-client/internal/models"
	"chat-client/internal/rest"
)

func (s *Server) getChannel(c *gin.Context) {
	s.mu.Lock()
	channel, ok := s.channels[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}
	c.JSON(http.StatusOK, channel)
}

func (s *Server) updateChannel(c *gin.Context) {
	var settings models.ChannelSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	s.mu.Lock()
	channel, ok := s.channels[c.Param("id")]
	if ok {
		channel.Name = settings.Name
		channel.Topic = settings.Topic
		channel.Description = settings.Description
		channel.SlowModeSeconds = settings.SlowModeSeconds
		s.channels[channel.ID] = channel
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}
	c.JSON(http.StatusOK, channel)
}

func (s *Server) archiveChannel(c *gin.Context) {
	now := time.Now().UTC()

	s.mu.Lock()
	channel, ok := s.channels[c.Param("id")]
	if ok {
		channel.ArchivedAt = &now
		s.channels[channel.ID] = channel
	}
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) leaveChannel(c *gin.Context) {
	s.mu.Lock()
	_, ok := s.channels[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listPins(c *gin.Context) {
	s.mu.Lock()
	var pinned []models.ChatMessage
	for _, msg := range s.messages[c.Param("id")] {
		if msg.IsPinned {
			pinned = append(pinned, msg)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(pinned, func(i, j int) bool { return pinned[i].CreatedAt.Before(pinned[j].CreatedAt) })
	c.JSON(http.StatusOK, gin.H{"messages": pinned})
}

func (s *Server) listMembers(c *gin.Context) {
	s.mu.Lock()
	members := append([]models.Member{}, s.members[c.Param("id")]...)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (s *Server) removeMember(c *gin.Context) {
	channelID := c.Param("id")
	userID := c.Param("user_id")

	s.mu.Lock()
	members := s.members[channelID]
	kept := members[:0]
	for _, member := range members {
		if member.User.ID != userID {
			kept = append(kept, member)
		}
	}
	s.members[channelID] = kept
	s.mu.Unlock()

	c.Status(http.StatusNoContent)
}

func (s *Server) createInvite(c *gin.Context) {
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	s.mu.Lock()
	channel, ok := s.channels[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}
	if channel.IsDirect() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "direct channels do not take invites"})
		return
	}

	c.JSON(http.StatusCreated, models.Invite{
		ID:        "inv-" + body.UserID,
		ChannelID: channel.ID,
		UserID:    body.UserID,
	})
}

func (s *Server) getMessages(c *gin.Context) {
	channelID := c.Param("id")
	limit := s.pageSize
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	var before time.Time
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid before"})
			return
		}
		before = parsed
	}

	s.mu.Lock()
	all := append([]models.ChatMessage{}, s.messages[channelID]...)
	isPro := s.isPro
	s.mu.Unlock()

	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	eligible := all
	if !before.IsZero() {
		eligible = nil
		for _, msg := range all {
			if msg.CreatedAt.Before(before) {
				eligible = append(eligible, msg)
			}
		}
	}

	hasMore := len(eligible) > limit
	if hasMore {
		eligible = eligible[len(eligible)-limit:]
	}

	c.JSON(http.StatusOK, models.MessagePage{
		Messages: eligible,
		HasMore:  hasMore,
		IsPro:    isPro,
	})
}

func (s *Server) postMessage(c *gin.Context) {
	var req rest.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "content required"})
		return
	}

	s.mu.Lock()
	msg := s.storeMessageLocked(c.Param("id"), models.ChatMessage{
		Content:        req.Content,
		ThreadParentID: optional(req.ThreadParentID),
		GifURL:         req.GifURL,
		CodeSnippet:    req.CodeSnippet,
		CodeLanguage:   req.CodeLanguage,
	})
	s.mu.Unlock()

	c.JSON(http.StatusCreated, msg)
}

func (s *Server) editMessage(c *gin.Context) {
	var body struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	now := time.Now().UTC()
	msg, ok := s.mutateMessage(c.Param("id"), func(m *models.ChatMessage) {
		m.Content = body.Content
		m.EditedAt = &now
	})
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (s *Server) deleteMessage(c *gin.Context) {
	_, ok := s.mutateMessage(c.Param("id"), func(m *models.ChatMessage) {
		m.IsDeleted = true
		m.Content = models.Tombstone
	})
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) toggleReaction(c *gin.Context) {
	var body struct {
		Emoji string `json:"emoji"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	const callerID = "caller"
	msg, ok := s.mutateMessage(c.Param("id"), func(m *models.ChatMessage) {
		if models.HasReaction(m.Reactions, callerID, body.Emoji) {
			kept := m.Reactions[:0]
			for _, r := range m.Reactions {
				if !(r.UserID == callerID && r.Emoji == body.Emoji) {
					kept = append(kept, r)
				}
			}
			m.Reactions = kept
			return
		}
		m.Reactions = append(m.Reactions, models.Reaction{Emoji: body.Emoji, UserID: callerID})
	})
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactions": msg.Reactions})
}

func (s *Server) togglePin(c *gin.Context) {
	msg, ok := s.mutateMessage(c.Param("id"), func(m *models.ChatMessage) {
		m.IsPinned = !m.IsPinned
	})
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (s *Server) toggleBookmark(c *gin.Context) {
	if _, ok := s.findMessage(c.Param("id")); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getThread(c *gin.Context) {
	parentID := c.Param("id")
	parent, ok := s.findMessage(parentID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}

	s.mu.Lock()
	var replies []models.ChatMessage
	for _, msgs := range s.messages {
		for _, msg := range msgs {
			if msg.ThreadParentID != nil && *msg.ThreadParentID == parentID {
				replies = append(replies, msg)
			}
		}
	}
	s.mu.Unlock()

	sort.SliceStable(replies, func(i, j int) bool { return replies[i].CreatedAt.Before(replies[j].CreatedAt) })
	c.JSON(http.StatusOK, rest.ThreadResponse{Parent: parent, Replies: replies})
}

func (s *Server) searchUsers(c *gin.Context) {
	query := strings.ToLower(c.Query("q"))
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []models.User
	for _, user := range s.users {
		if len(matches) == limit {
			break
		}
		if strings.Contains(strings.ToLower(user.Username), query) ||
			strings.Contains(strings.ToLower(user.DisplayName), query) {
			matches = append(matches, user)
		}
	}
	c.JSON(http.StatusOK, gin.H{"users": matches})
}

func (s *Server) findMessage(messageID string) (models.ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, msgs := range s.messages {
		for _, msg := range msgs {
			if msg.ID == messageID {
				return msg, true
			}
		}
	}
	return models.ChatMessage{}, false
}

func (s *Server) mutateMessage(messageID string, fn func(*models.ChatMessage)) (models.ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for channelID, msgs := range s.messages {
		for i := range msgs {
			if msgs[i].ID == messageID {
				fn(&msgs[i])
				s.messages[channelID] = msgs
				return msgs[i], true
			}
		}
	}
	return models.ChatMessage{}, false
}
