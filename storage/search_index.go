package storage

import (
	"strings"

	"hejchat/model"
)

// ArchivedMessageMatch is one message inside an archived chat that matched a
// content search.
type ArchivedMessageMatch struct {
	ChatID       int64  `json:"chat_id"`
	ChatPreview  string `json:"chat_preview"`
	MessageIndex int    `json:"message_index"`
	Role         string `json:"role"`
	Content      string `json:"content"`
	Preview      string `json:"preview"`
}

// SearchIndex scans message bodies across the archive, complementing the
// preview search in SearchArchived.
type SearchIndex struct {
	store *Store
}

func NewSearchIndex(store *Store) *SearchIndex {
	return &SearchIndex{store: store}
}

// SearchMessages returns every non-system archived message containing the
// query, case-insensitive, in archive order.
func (si *SearchIndex) SearchMessages(query string) ([]ArchivedMessageMatch, error) {
	if query == "" {
		return []ArchivedMessageMatch{}, nil
	}

	chats, err := si.store.ListArchived()
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	matches := []ArchivedMessageMatch{}

	for _, chat := range chats {
		for i, msg := range chat.Messages {
			if msg.Role == model.RoleSystem {
				continue
			}

			content := msg.Content.PlainText()
			if !strings.Contains(strings.ToLower(content), queryLower) {
				continue
			}

			preview := content
			if r := []rune(preview); len(r) > 100 {
				preview = string(r[:100]) + "..."
			}

			matches = append(matches, ArchivedMessageMatch{
				ChatID:       chat.ID,
				ChatPreview:  chat.Preview,
				MessageIndex: i,
				Role:         msg.Role,
				Content:      content,
				Preview:      preview,
			})
		}
	}

	return matches, nil
}
