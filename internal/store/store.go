package store

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"chat-client/internal/models"
	"chat-client/internal/transport"
)

const defaultPageSize = 50

// ErrPageInFlight is returned when LoadOlder is called while a previous page
// request is still outstanding. Paging requests must be serialized; racing
// two cursor fetches could corrupt timeline order.
var ErrPageInFlight = errors.New("page request already in flight")

// Fetcher is the read-side REST surface the store depends on.
type Fetcher interface {
	GetChannel(ctx context.Context, channelID string) (models.Channel, error)
	GetMessages(ctx context.Context, channelID string, before time.Time, limit int) (models.MessagePage, error)
}

// Pinner is the REST surface for pin and bookmark toggles. The protocol has
// no socket operation for these.
type Pinner interface {
	TogglePin(ctx context.Context, messageID string) (models.ChatMessage, error)
	ToggleBookmark(ctx context.Context, messageID string) error
}

// ReadMarker advances the server-side read cursor. Fire-and-forget.
type ReadMarker interface {
	MarkRead(channelID, messageID string)
}

// Selector returns the transport for one outbound action, chosen at call time.
type Selector func() transport.Transport

// Snapshot is an immutable view of the store for rendering. Messages are
// sorted ascending by creation time.
type Snapshot struct {
	Channel  models.Channel
	Messages []models.ChatMessage
	Loading  bool
	HasMore  bool
	IsPro    bool
	// HistoryNotice reports that the viewer hit the tier's historical
	// boundary. It flips to true at most once per loaded channel.
	HistoryNotice bool
}

// ChannelStore holds this client's view of one channel: the message timeline,
// metadata and paging state. Inbound events are applied id-keyed and
// idempotently; thread replies never enter the main timeline.
type ChannelStore struct {
	fetcher  Fetcher
	pinner   Pinner
	marker   ReadMarker
	selector Selector
	userID   string

	mu            sync.Mutex
	channelID     string
	channel       models.Channel
	messages      []models.ChatMessage
	index         map[string]int // message id -> position in messages
	loading       bool
	hasMore       bool
	isPro         bool
	historyNotice bool
	pageInFlight  bool
	lastReadID    string

	onChange func(Snapshot)
}

// New builds a ChannelStore. userID identifies the viewer so read signals and
// ownership checks refer to the right user.
func New(fetcher Fetcher, pinner Pinner, marker ReadMarker, selector Selector, userID string) *ChannelStore {
	return &ChannelStore{
		fetcher:  fetcher,
		pinner:   pinner,
		marker:   marker,
		selector: selector,
		userID:   userID,
		index:    map[string]int{},
	}
}

// OnChange registers the renderer callback. It runs outside the store lock
// with a fresh snapshot after every state change.
func (s *ChannelStore) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *ChannelStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *ChannelStore) snapshotLocked() Snapshot {
	messages := make([]models.ChatMessage, len(s.messages))
	copy(messages, s.messages)
	return Snapshot{
		Channel:       s.channel,
		Messages:      messages,
		Loading:       s.loading,
		HasMore:       s.hasMore,
		IsPro:         s.isPro,
		HistoryNotice: s.historyNotice,
	}
}

// notify must be called without the lock held.
func (s *ChannelStore) notify() {
	s.mu.Lock()
	fn := s.onChange
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}

// CanModify reports whether the viewer may edit or delete the message: the
// sender matches the viewer and the entry is not a tombstone. Advisory only;
// the server enforces the real rule.
func (s *ChannelStore) CanModify(msg models.ChatMessage) bool {
	return !msg.IsDeleted && msg.SenderID == s.userID
}

// ChannelID returns the currently loaded channel id, empty before Load.
func (s *ChannelStore) ChannelID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelID
}

// Load replaces the store's state with the given channel's metadata and its
// newest history page. Previous channel data is dropped up front so a stale
// timeline is never rendered while the fetch is outstanding.
func (s *ChannelStore) Load(ctx context.Context, channelID string) error {
	s.mu.Lock()
	s.channelID = channelID
	s.channel = models.Channel{}
	s.messages = nil
	s.index = map[string]int{}
	s.loading = true
	s.hasMore = false
	s.isPro = false
	s.historyNotice = false
	s.pageInFlight = false
	s.lastReadID = ""
	s.mu.Unlock()
	s.notify()

	channel, err := s.fetcher.GetChannel(ctx, channelID)
	if err != nil {
		// Read-path failure: log, keep the loading state for the renderer.
		log.Printf("store: load channel %s: %v", channelID, err)
		return err
	}

	page, err := s.fetcher.GetMessages(ctx, channelID, time.Time{}, defaultPageSize)
	if err != nil {
		log.Printf("store: load messages %s: %v", channelID, err)
		return err
	}

	timeline := make([]models.ChatMessage, 0, len(page.Messages))
	for _, msg := range page.Messages {
		if msg.IsThreadReply() {
			continue
		}
		timeline = append(timeline, msg)
	}
	sort.SliceStable(timeline, func(i, j int) bool {
		return timeline[i].CreatedAt.Before(timeline[j].CreatedAt)
	})

	s.mu.Lock()
	if s.channelID != channelID {
		// A newer Load superseded this one.
		s.mu.Unlock()
		return nil
	}
	s.channel = channel
	s.messages = timeline
	s.reindexLocked()
	s.loading = false
	s.hasMore = page.HasMore
	s.isPro = page.IsPro
	s.mu.Unlock()

	s.notify()
	s.markReadTail()
	return nil
}

// LoadOlder fetches the page strictly older than the earliest loaded message
// and prepends it. When no further history is available to this tier, the
// history notice is raised once and no request is issued.
func (s *ChannelStore) LoadOlder(ctx context.Context) error {
	s.mu.Lock()
	if s.pageInFlight {
		s.mu.Unlock()
		return ErrPageInFlight
	}
	if !s.hasMore {
		raise := !s.isPro && !s.historyNotice
		if raise {
			s.historyNotice = true
		}
		s.mu.Unlock()
		if raise {
			s.notify()
		}
		return nil
	}
	if len(s.messages) == 0 {
		s.mu.Unlock()
		return nil
	}
	cursor := s.messages[0].CreatedAt
	channelID := s.channelID
	s.pageInFlight = true
	s.mu.Unlock()

	page, err := s.fetcher.GetMessages(ctx, channelID, cursor, defaultPageSize)

	s.mu.Lock()
	s.pageInFlight = false
	if err != nil {
		s.mu.Unlock()
		log.Printf("store: load older %s: %v", channelID, err)
		return err
	}
	if s.channelID != channelID {
		s.mu.Unlock()
		return nil
	}

	older := make([]models.ChatMessage, 0, len(page.Messages))
	for _, msg := range page.Messages {
		if msg.IsThreadReply() {
			continue
		}
		if _, exists := s.index[msg.ID]; exists {
			continue
		}
		if !msg.CreatedAt.Before(cursor) {
			continue
		}
		older = append(older, msg)
	}
	sort.SliceStable(older, func(i, j int) bool {
		return older[i].CreatedAt.Before(older[j].CreatedAt)
	})

	s.messages = append(older, s.messages...)
	s.reindexLocked()
	s.hasMore = page.HasMore
	s.isPro = page.IsPro
	s.mu.Unlock()

	s.notify()
	return nil
}

// reindexLocked rebuilds the id index after any slice reshape.
func (s *ChannelStore) reindexLocked() {
	s.index = make(map[string]int, len(s.messages))
	for i, msg := range s.messages {
		s.index[msg.ID] = i
	}
}

// markReadTail sends a mark-read signal whenever the tail message changes.
// Duplicates for the same id are suppressed locally but the server treats the
// signal as idempotent regardless.
func (s *ChannelStore) markReadTail() {
	s.mu.Lock()
	if len(s.messages) == 0 {
		s.mu.Unlock()
		return
	}
	tail := s.messages[len(s.messages)-1]
	if tail.ID == s.lastReadID {
		s.mu.Unlock()
		return
	}
	s.lastReadID = tail.ID
	channelID := s.channelID
	s.mu.Unlock()

	if s.marker != nil {
		s.marker.MarkRead(channelID, tail.ID)
	}
}
