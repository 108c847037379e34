package store

import (
	"context"
)

// React toggles the viewer's emoji reaction. On the socket path the state
// change arrives as a reaction event; on the REST path the returned list is
// applied directly. Nothing is applied optimistically.
func (s *ChannelStore) React(ctx context.Context, messageID, emoji string) error {
	t := s.selector()
	reactions, err := t.React(ctx, messageID, emoji)
	if err != nil {
		return err
	}
	if reactions != nil {
		s.applyReactions(messageID, reactions)
	}
	return nil
}

// Edit rewrites a message's content. sender, id and created-at never change.
func (s *ChannelStore) Edit(ctx context.Context, messageID, content string) error {
	t := s.selector()
	updated, err := t.EditMessage(ctx, messageID, content)
	if err != nil {
		return err
	}
	if updated != nil {
		s.applyUpdate(*updated)
	}
	return nil
}

// Delete soft-deletes a message. The entry stays in place as a tombstone.
func (s *ChannelStore) Delete(ctx context.Context, messageID string) error {
	t := s.selector()
	applied, err := t.DeleteMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if applied {
		s.applyDelete(messageID)
	}
	return nil
}

// Pin toggles a message's pinned flag. The protocol defines no socket
// operation for pins, so this always goes over REST and applies the response.
func (s *ChannelStore) Pin(ctx context.Context, messageID string) error {
	updated, err := s.pinner.TogglePin(ctx, messageID)
	if err != nil {
		return err
	}
	s.applyUpdate(updated)
	return nil
}

// Bookmark toggles the viewer's private bookmark. Bookmarks are invisible to
// other members, so no local timeline state changes.
func (s *ChannelStore) Bookmark(ctx context.Context, messageID string) error {
	return s.pinner.ToggleBookmark(ctx, messageID)
}
