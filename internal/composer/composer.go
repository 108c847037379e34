package composer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode"

	"chat-client/internal/models"
	"chat-client/internal/transport"
)

const (
	// mentionDebounce delays the user-search lookup while the user is still
	// narrowing the query.
	mentionDebounce = 150 * time.Millisecond

	// typingIdle is how long after the last edit the stop signal fires.
	typingIdle = 3 * time.Second

	maxSuggestions = 6

	// attachmentPlaceholder substitutes for empty text on attachment-only
	// sends so a message is never empty.
	attachmentPlaceholder = "(attachment)"
)

// ErrEmptyMessage rejects sends with neither text nor an attachment.
var ErrEmptyMessage = errors.New("nothing to send")

// UserSearcher resolves mention queries against the user-search collaborator.
type UserSearcher interface {
	SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error)
}

// TypingSignaler emits typing start/stop hints. A disconnected session drops
// them silently.
type TypingSignaler interface {
	TypingStart(channelID string)
	TypingStop(channelID string)
}

// Selector returns the transport for one send, chosen at call time.
type Selector func() transport.Transport

// Composer turns keystrokes into a validated send action and @-queries into
// inline mention tokens. All state survives a failed send so nothing the
// user typed is ever lost.
type Composer struct {
	channelID string
	searcher  UserSearcher
	signaler  TypingSignaler
	selector  Selector

	// onAppend receives messages created on paths with no socket echo (REST
	// sends and ack payloads) for direct application to local state.
	onAppend func(models.ChatMessage)

	mu     sync.Mutex
	text   string
	cursor int

	gifURL       string
	codeSnippet  string
	codeLanguage string

	threadParentID string

	mentionActive bool
	mentionStart  int // byte offset of the trigger '@'
	suggestions   []models.User
	selected      int
	searchGen     int

	debounce    *time.Timer
	typingTimer *time.Timer
	typingLive  bool

	onChange func()
}

// New builds a Composer for one channel.
func New(channelID string, searcher UserSearcher, signaler TypingSignaler, selector Selector, onAppend func(models.ChatMessage)) *Composer {
	return &Composer{
		channelID: channelID,
		searcher:  searcher,
		signaler:  signaler,
		selector:  selector,
		onAppend:  onAppend,
	}
}

// SetThreadParent makes subsequent sends reply into a thread instead of the
// main timeline.
func (c *Composer) SetThreadParent(messageID string) {
	c.mu.Lock()
	c.threadParentID = messageID
	c.mu.Unlock()
}

// OnChange registers a renderer callback fired after every state change.
func (c *Composer) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Composer) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// SetText applies one input edit: new content plus the cursor position after
// the edit. Every edit emits a typing-start signal, re-arms the idle timer
// and re-scans for a mention trigger.
func (c *Composer) SetText(text string, cursor int) {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(text) {
		cursor = len(text)
	}

	c.mu.Lock()
	c.text = text
	c.cursor = cursor
	c.armTypingLocked()
	c.scanMentionLocked()
	c.mu.Unlock()
	c.notify()
}

// armTypingLocked emits typing:start and (re)schedules the 3s stop signal.
func (c *Composer) armTypingLocked() {
	if c.signaler == nil {
		return
	}
	c.signaler.TypingStart(c.channelID)
	c.typingLive = true

	if c.typingTimer != nil {
		c.typingTimer.Stop()
	}
	c.typingTimer = time.AfterFunc(typingIdle, func() {
		c.mu.Lock()
		live := c.typingLive
		c.typingLive = false
		c.mu.Unlock()
		if live {
			c.signaler.TypingStop(c.channelID)
		}
	})
}

// stopTypingLocked emits typing:stop immediately and cancels the idle timer.
func (c *Composer) stopTypingLocked() {
	if c.typingTimer != nil {
		c.typingTimer.Stop()
		c.typingTimer = nil
	}
	if c.typingLive && c.signaler != nil {
		c.typingLive = false
		c.signaler.TypingStop(c.channelID)
	}
}

// scanMentionLocked looks backward from the cursor for an active @-trigger:
// an '@' at the start of a word with no whitespace between it and the cursor.
func (c *Composer) scanMentionLocked() {
	at := -1
	for i := c.cursor - 1; i >= 0; i-- {
		ch := c.text[i]
		if ch == '@' {
			at = i
			break
		}
		if unicode.IsSpace(rune(ch)) {
			break
		}
	}

	if at < 0 || (at > 0 && !unicode.IsSpace(rune(c.text[at-1]))) {
		c.clearMentionLocked()
		return
	}

	query := c.text[at+1 : c.cursor]
	if strings.ContainsFunc(query, unicode.IsSpace) {
		c.clearMentionLocked()
		return
	}

	c.mentionActive = true
	c.mentionStart = at
	c.scheduleSearchLocked(query)
}

func (c *Composer) clearMentionLocked() {
	c.mentionActive = false
	c.mentionStart = 0
	c.suggestions = nil
	c.selected = 0
	c.searchGen++
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
}

// scheduleSearchLocked debounces the user-search lookup. Stale results are
// dropped by generation, so a slow response never clobbers a newer query.
func (c *Composer) scheduleSearchLocked(query string) {
	c.searchGen++
	gen := c.searchGen

	if c.debounce != nil {
		c.debounce.Stop()
	}
	c.debounce = time.AfterFunc(mentionDebounce, func() {
		users, err := c.searcher.SearchUsers(context.Background(), query, maxSuggestions)
		if err != nil {
			log.Printf("composer: user search %q: %v", query, err)
			return
		}
		if len(users) > maxSuggestions {
			users = users[:maxSuggestions]
		}

		c.mu.Lock()
		if gen != c.searchGen || !c.mentionActive {
			c.mu.Unlock()
			return
		}
		c.suggestions = users
		c.selected = 0
		c.mu.Unlock()
		c.notify()
	})
}

// MoveSelection cycles the highlighted suggestion with wraparound.
func (c *Composer) MoveSelection(delta int) {
	c.mu.Lock()
	if n := len(c.suggestions); n > 0 {
		c.selected = ((c.selected+delta)%n + n) % n
	}
	c.mu.Unlock()
	c.notify()
}

// CommitSelection replaces the trigger span with a mention token for the
// highlighted suggestion, appends one space and puts the cursor right after
// the inserted span.
func (c *Composer) CommitSelection() {
	c.mu.Lock()
	if !c.mentionActive || len(c.suggestions) == 0 {
		c.mu.Unlock()
		return
	}
	user := c.suggestions[c.selected]
	token := fmt.Sprintf("@[%s](%s) ", user.Name(), user.ID)

	c.text = c.text[:c.mentionStart] + token + c.text[c.cursor:]
	c.cursor = c.mentionStart + len(token)
	c.clearMentionLocked()
	c.mu.Unlock()
	c.notify()
}

// DismissSuggestions closes the suggestion list without committing.
func (c *Composer) DismissSuggestions() {
	c.mu.Lock()
	c.clearMentionLocked()
	c.mu.Unlock()
	c.notify()
}

// SuggestionsOpen reports whether the mention list is showing.
func (c *Composer) SuggestionsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mentionActive && len(c.suggestions) > 0
}

// Suggestions returns the current capped suggestion list and the highlighted
// index.
func (c *Composer) Suggestions() ([]models.User, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	users := make([]models.User, len(c.suggestions))
	copy(users, c.suggestions)
	return users, c.selected
}

// Text returns the current content and cursor position.
func (c *Composer) Text() (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, c.cursor
}

// AttachGif stages a gif attachment, replacing any staged code snippet:
// a message carries at most one attachment.
func (c *Composer) AttachGif(url string) {
	c.mu.Lock()
	c.gifURL = url
	c.codeSnippet = ""
	c.codeLanguage = ""
	c.mu.Unlock()
	c.notify()
}

// AttachCode stages a code snippet, replacing any staged gif.
func (c *Composer) AttachCode(snippet, language string) {
	c.mu.Lock()
	c.codeSnippet = snippet
	c.codeLanguage = language
	c.gifURL = ""
	c.mu.Unlock()
	c.notify()
}

// ClearAttachment drops whichever attachment is staged.
func (c *Composer) ClearAttachment() {
	c.mu.Lock()
	c.gifURL = ""
	c.codeSnippet = ""
	c.codeLanguage = ""
	c.mu.Unlock()
	c.notify()
}

// Close cancels outstanding timers on unmount. A live typing indicator is
// stopped so it does not linger server-side.
func (c *Composer) Close() {
	c.mu.Lock()
	if c.debounce != nil {
		c.debounce.Stop()
		c.debounce = nil
	}
	c.stopTypingLocked()
	c.mu.Unlock()
}
