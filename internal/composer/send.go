package composer

import (
	"context"
	"strings"

	"chat-client/internal/transport"
)

// KeyEnter handles the Enter key. An open suggestion list takes priority over
// sending; Shift+Enter inserts a newline at the cursor instead.
func (c *Composer) KeyEnter(ctx context.Context, shift bool) error {
	if c.SuggestionsOpen() {
		c.CommitSelection()
		return nil
	}
	if shift {
		c.mu.Lock()
		c.text = c.text[:c.cursor] + "\n" + c.text[c.cursor:]
		c.cursor++
		c.armTypingLocked()
		c.mu.Unlock()
		c.notify()
		return nil
	}
	return c.Send(ctx)
}

// KeyTab commits the highlighted suggestion when the list is open.
func (c *Composer) KeyTab() {
	if c.SuggestionsOpen() {
		c.CommitSelection()
	}
}

// KeyEscape dismisses the suggestion list.
func (c *Composer) KeyEscape() {
	c.DismissSuggestions()
}

// Send validates the draft and dispatches it over whichever transport is
// available right now. On success the entire draft clears in one step; on
// failure every field is preserved for retry.
func (c *Composer) Send(ctx context.Context) error {
	c.mu.Lock()
	content := c.text
	hasAttachment := c.gifURL != "" || c.codeSnippet != ""
	if strings.TrimSpace(content) == "" {
		if !hasAttachment {
			c.mu.Unlock()
			return ErrEmptyMessage
		}
		content = attachmentPlaceholder
	}

	req := transport.Request{
		ChannelID:      c.channelID,
		Content:        content,
		ThreadParentID: c.threadParentID,
		GifURL:         c.gifURL,
		CodeSnippet:    c.codeSnippet,
		CodeLanguage:   c.codeLanguage,
	}
	c.stopTypingLocked()
	c.mu.Unlock()

	msg, err := c.selector().SendMessage(ctx, req)
	if err != nil {
		return err
	}
	if msg != nil && c.onAppend != nil {
		c.onAppend(*msg)
	}

	c.mu.Lock()
	c.text = ""
	c.cursor = 0
	c.gifURL = ""
	c.codeSnippet = ""
	c.codeLanguage = ""
	c.clearMentionLocked()
	c.mu.Unlock()
	c.notify()
	return nil
}
