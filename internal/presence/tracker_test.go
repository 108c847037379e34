package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chat-client/internal/models"
	"chat-client/internal/protocol"
)

func TestStatusDefaultsToOffline(t *testing.T) {
	tracker := NewTracker()
	assert.Equal(t, models.StatusOffline, tracker.Status("unseen").Status)
}

func TestPresenceLastWriteWins(t *testing.T) {
	tracker := NewTracker()

	tracker.Apply(protocol.PresenceChanged{Presence: models.Presence{UserID: "u1", Status: models.StatusOnline}})
	tracker.Apply(protocol.PresenceChanged{Presence: models.Presence{UserID: "u1", Status: models.StatusDND, CustomText: "heads down"}})

	got := tracker.Status("u1")
	assert.Equal(t, models.StatusDND, got.Status)
	assert.Equal(t, "heads down", got.CustomText)
}

func TestTypingStartIsIdempotent(t *testing.T) {
	tracker := NewTracker()

	tracker.Apply(protocol.TypingChanged{UserID: "u1", ChannelID: "c1", IsTyping: true})
	tracker.Apply(protocol.TypingChanged{UserID: "u1", ChannelID: "c1", IsTyping: true})

	assert.Len(t, tracker.TypingIn("c1"), 1)
}

func TestTypingStopWithoutStartIsNoop(t *testing.T) {
	tracker := NewTracker()

	tracker.Apply(protocol.TypingChanged{UserID: "u1", ChannelID: "c1", IsTyping: false})

	assert.Empty(t, tracker.TypingIn("c1"))
}

func TestTypingScopedPerChannel(t *testing.T) {
	tracker := NewTracker()

	tracker.Apply(protocol.TypingChanged{UserID: "u1", ChannelID: "c1", IsTyping: true})
	tracker.Apply(protocol.TypingChanged{UserID: "u1", ChannelID: "c2", IsTyping: true})
	tracker.Apply(protocol.TypingChanged{UserID: "u1", ChannelID: "c1", IsTyping: false})

	assert.Empty(t, tracker.TypingIn("c1"))
	assert.Len(t, tracker.TypingIn("c2"), 1)
}

func TestNewMessageClearsSenderTyping(t *testing.T) {
	tracker := NewTracker()

	tracker.Apply(protocol.TypingChanged{UserID: "u1", ChannelID: "c1", IsTyping: true})
	tracker.Apply(protocol.NewMessage{Message: models.ChatMessage{ID: "m1", ChannelID: "c1", SenderID: "u1"}})

	assert.Empty(t, tracker.TypingIn("c1"))
}

func TestFormatTyping(t *testing.T) {
	assert.Equal(t, "", FormatTyping(nil))
	assert.Equal(t, "Ada is typing", FormatTyping([]string{"Ada"}))
	assert.Equal(t, "Ada and Grace are typing", FormatTyping([]string{"Ada", "Grace"}))
	assert.Equal(t, "Ada and 2 others are typing", FormatTyping([]string{"Ada", "Grace", "Edsger"}))
}
