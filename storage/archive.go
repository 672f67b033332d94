package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sahilm/fuzzy"

	"hejchat/model"
)

// maxArchivedChats bounds the archive; the oldest entry is dropped on overflow.
const maxArchivedChats = 50

// previewRunes is how much of the first user message the chat list shows.
const previewRunes = 50

// SavedChat is one archived conversation. IDs are creation timestamps in
// milliseconds, which keeps them unique per process and sortable.
type SavedChat struct {
	ID       int64           `json:"id"`
	Preview  string          `json:"preview"`
	Date     string          `json:"date"`
	Messages []model.Message `json:"messages"`
}

// ArchiveChat prepends a snapshot of the given messages to the archive and
// returns the new entry's ID. Empty conversations are not archived; the
// returned ok is false and nothing is written.
func (s *Store) ArchiveChat(messages []model.Message) (int64, bool, error) {
	if len(messages) == 0 {
		return 0, false, nil
	}

	chats, err := s.ListArchived()
	if err != nil {
		return 0, false, err
	}

	saved := SavedChat{
		ID:       time.Now().UnixMilli(),
		Preview:  chatPreview(messages),
		Date:     time.Now().Format("2. 1. 2006 15:04:05"),
		Messages: append([]model.Message(nil), messages...),
	}

	chats = append([]SavedChat{saved}, chats...)
	if len(chats) > maxArchivedChats {
		chats = chats[:maxArchivedChats]
	}

	if err := s.writeArchive(chats); err != nil {
		return 0, false, err
	}

	return saved.ID, true, nil
}

// ListArchived returns all archived chats, most recently archived first.
func (s *Store) ListArchived() ([]SavedChat, error) {
	raw, err := s.Get(keyChatArchive)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return []SavedChat{}, nil
	}

	var chats []SavedChat
	if err := json.Unmarshal([]byte(raw), &chats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat archive: %w", err)
	}

	return chats, nil
}

// LoadArchived returns the archived chat with the given ID, or ok=false when
// no such entry exists.
func (s *Store) LoadArchived(id int64) (SavedChat, bool, error) {
	chats, err := s.ListArchived()
	if err != nil {
		return SavedChat{}, false, err
	}

	for _, chat := range chats {
		if chat.ID == id {
			return chat, true, nil
		}
	}

	return SavedChat{}, false, nil
}

// DeleteArchived removes one archived chat. Deleting an unknown ID is a no-op.
func (s *Store) DeleteArchived(id int64) error {
	chats, err := s.ListArchived()
	if err != nil {
		return err
	}

	kept := chats[:0]
	for _, chat := range chats {
		if chat.ID != id {
			kept = append(kept, chat)
		}
	}

	return s.writeArchive(kept)
}

// ClearArchive removes every archived chat.
func (s *Store) ClearArchive() error {
	return s.writeArchive([]SavedChat{})
}

// SearchArchived fuzzy-matches the query against chat previews, best match
// first. An empty query returns the full archive in its stored order.
func (s *Store) SearchArchived(query string) ([]SavedChat, error) {
	chats, err := s.ListArchived()
	if err != nil {
		return nil, err
	}
	if query == "" {
		return chats, nil
	}

	previews := make([]string, len(chats))
	for i, chat := range chats {
		previews[i] = chat.Preview
	}

	matches := fuzzy.Find(query, previews)

	results := make([]SavedChat, 0, len(matches))
	for _, match := range matches {
		results = append(results, chats[match.Index])
	}

	return results, nil
}

func (s *Store) writeArchive(chats []SavedChat) error {
	data, err := json.Marshal(chats)
	if err != nil {
		return fmt.Errorf("failed to marshal chat archive: %w", err)
	}
	return s.Set(keyChatArchive, string(data))
}

// chatPreview derives the list label from the first user message.
func chatPreview(messages []model.Message) string {
	for _, msg := range messages {
		if msg.Role != model.RoleUser {
			continue
		}
		text := []rune(msg.Content.PlainText())
		if len(text) > previewRunes {
			text = text[:previewRunes]
		}
		return string(text)
	}
	return "New Chat"
}
