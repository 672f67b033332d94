package ui

import (
	"hejchat/markdown"
	"hejchat/model"
	"hejchat/storage"
)

// RenderedMessage is one history entry projected for display. Assistant
// content carries its Markdown rendering; user content is escaped verbatim.
type RenderedMessage struct {
	Role string `json:"role"`
	Raw  string `json:"raw"`
	HTML string `json:"html"`
}

// ArchiveEntry is the list form of a saved chat, without message bodies.
type ArchiveEntry struct {
	ID           int64  `json:"id"`
	Preview      string `json:"preview"`
	Date         string `json:"date"`
	MessageCount int    `json:"message_count"`
}

func renderHistory(messages []model.Message) []RenderedMessage {
	rendered := make([]RenderedMessage, 0, len(messages))
	for _, msg := range messages {
		raw := msg.Content.PlainText()
		entry := RenderedMessage{Role: msg.Role, Raw: raw}
		if msg.Role == model.RoleAssistant {
			entry.HTML = markdown.Render(raw)
		} else {
			entry.HTML = "<p>" + markdown.EscapeHTML(raw) + "</p>"
		}
		rendered = append(rendered, entry)
	}
	return rendered
}

func renderArchive(chats []storage.SavedChat) []ArchiveEntry {
	entries := make([]ArchiveEntry, 0, len(chats))
	for _, chat := range chats {
		entries = append(entries, ArchiveEntry{
			ID:           chat.ID,
			Preview:      chat.Preview,
			Date:         chat.Date,
			MessageCount: len(chat.Messages),
		})
	}
	return entries
}
