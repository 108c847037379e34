package thread

import (
	"context"
	"log"
	"sync"

	"chat-client/internal/models"
	"chat-client/internal/protocol"
	"chat-client/internal/rest"
)

// Fetcher loads a parent message and its replies in one request.
type Fetcher interface {
	GetThread(ctx context.Context, messageID string) (rest.ThreadResponse, error)
}

// State is the explicit open-thread state machine: either no thread is open
// or exactly one is, identified by its parent message and channel.
type State struct {
	mu        sync.Mutex
	open      bool
	messageID string
	channelID string
}

// Open transitions to ThreadOpen for the given parent. Opening a different
// thread replaces the previous one.
func (s *State) Open(messageID, channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	s.messageID = messageID
	s.channelID = channelID
}

// Close transitions back to NoThreadOpen.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	s.messageID = ""
	s.channelID = ""
}

// Current reports whether a thread is open and which one.
func (s *State) Current() (messageID, channelID string, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messageID, s.channelID, s.open
}

// View is the isolated reply stream for one parent message. Both the dedicated
// thread event and the generic new-message event can announce the same reply,
// so appends de-duplicate by id.
type View struct {
	fetcher Fetcher

	mu       sync.Mutex
	parentID string
	parent   models.ChatMessage
	replies  []models.ChatMessage
	seen     map[string]struct{}
	loaded   bool

	onChange func()
}

// NewView builds a View for the given parent message.
func NewView(fetcher Fetcher, parentID string) *View {
	return &View{
		fetcher:  fetcher,
		parentID: parentID,
		seen:     map[string]struct{}{},
	}
}

// OnChange registers a renderer callback fired after every state change.
func (v *View) OnChange(fn func()) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// Load fetches the parent and its current replies.
func (v *View) Load(ctx context.Context) error {
	data, err := v.fetcher.GetThread(ctx, v.parentID)
	if err != nil {
		log.Printf("thread: load %s: %v", v.parentID, err)
		return err
	}

	v.mu.Lock()
	v.parent = data.Parent
	v.replies = make([]models.ChatMessage, 0, len(data.Replies))
	v.seen = make(map[string]struct{}, len(data.Replies))
	for _, reply := range data.Replies {
		if _, dup := v.seen[reply.ID]; dup {
			continue
		}
		v.seen[reply.ID] = struct{}{}
		v.replies = append(v.replies, reply)
	}
	v.loaded = true
	fn := v.onChange
	v.mu.Unlock()

	if fn != nil {
		fn()
	}
	return nil
}

// Apply routes inbound events into the reply stream. Events for other
// threads are ignored.
func (v *View) Apply(event protocol.Event) {
	switch e := event.(type) {
	case protocol.ThreadReply:
		if e.ThreadParentID == v.parentID {
			v.append(e.Message)
		}
	case protocol.NewMessage:
		if e.Message.ThreadParentID != nil && *e.Message.ThreadParentID == v.parentID {
			v.append(e.Message)
		}
	case protocol.DeletedMessage:
		v.tombstone(e.MessageID)
	case protocol.ReactionChanged:
		v.applyReactions(e.MessageID, e.Reactions)
	}
}

// AppendLocal adds a reply created on a path with no socket echo (REST
// fallback). A later delayed echo for the same id is dropped.
func (v *View) AppendLocal(msg models.ChatMessage) {
	v.append(msg)
}

func (v *View) append(msg models.ChatMessage) {
	v.mu.Lock()
	if _, dup := v.seen[msg.ID]; dup {
		v.mu.Unlock()
		return
	}
	v.seen[msg.ID] = struct{}{}
	v.replies = append(v.replies, msg)
	fn := v.onChange
	v.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (v *View) tombstone(messageID string) {
	v.mu.Lock()
	changed := false
	if v.parent.ID == messageID && !v.parent.IsDeleted {
		v.parent.IsDeleted = true
		v.parent.Content = models.Tombstone
		changed = true
	}
	for i := range v.replies {
		if v.replies[i].ID == messageID && !v.replies[i].IsDeleted {
			v.replies[i].IsDeleted = true
			v.replies[i].Content = models.Tombstone
			changed = true
		}
	}
	fn := v.onChange
	v.mu.Unlock()

	if changed && fn != nil {
		fn()
	}
}

func (v *View) applyReactions(messageID string, reactions []models.Reaction) {
	v.mu.Lock()
	changed := false
	if v.parent.ID == messageID {
		v.parent.Reactions = reactions
		changed = true
	}
	for i := range v.replies {
		if v.replies[i].ID == messageID {
			v.replies[i].Reactions = reactions
			changed = true
		}
	}
	fn := v.onChange
	v.mu.Unlock()

	if changed && fn != nil {
		fn()
	}
}

// Parent returns the loaded parent message.
func (v *View) Parent() models.ChatMessage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.parent
}

// Replies returns a copy of the current reply list in arrival order.
func (v *View) Replies() []models.ChatMessage {
	v.mu.Lock()
	defer v.mu.Unlock()
	replies := make([]models.ChatMessage, len(v.replies))
	copy(replies, v.replies)
	return replies
}
