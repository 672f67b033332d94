package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Message roles used throughout the conversation engine.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents one turn in a conversation. Content is either plain
// text or an ordered list of parts (text mixed with image references).
type Message struct {
	Role      string    `json:"role"`
	Content   Content   `json:"content"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// ContentPart is one element of a multi-part message body.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL wraps a data URI (or remote URL) for vision-capable models.
type ImageURL struct {
	URL string `json:"url"`
}

// TextPart builds a plain text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart builds an image part from a data URI.
func ImagePart(dataURI string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: dataURI}}
}

// Content holds a message body. A body with exactly one text part collapses
// to plain text at construction, so the wire format stays a bare string for
// the common case.
type Content struct {
	text  string
	parts []ContentPart
}

// TextContent builds a plain-text body.
func TextContent(text string) Content {
	return Content{text: text}
}

// PartsContent builds a multi-part body. A single text part collapses to
// plain text.
func PartsContent(parts []ContentPart) Content {
	if len(parts) == 1 && parts[0].Type == "text" {
		return Content{text: parts[0].Text}
	}
	cp := make([]ContentPart, len(parts))
	copy(cp, parts)
	return Content{parts: cp}
}

// IsPlainText reports whether the body is a bare string.
func (c Content) IsPlainText() bool {
	return c.parts == nil
}

// Parts returns the part list, or nil for a plain-text body.
func (c Content) Parts() []ContentPart {
	if c.parts == nil {
		return nil
	}
	cp := make([]ContentPart, len(c.parts))
	copy(cp, c.parts)
	return cp
}

// PlainText flattens the body to text: the bare string itself, or all text
// parts joined by newlines (image parts are skipped).
func (c Content) PlainText() string {
	if c.parts == nil {
		return c.text
	}
	var texts []string
	for _, p := range c.parts {
		if p.Type == "text" && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// IsEmpty reports whether the body carries no content at all. Whitespace-only
// text counts as empty, matching the history store's append rule.
func (c Content) IsEmpty() bool {
	if c.parts == nil {
		return strings.TrimSpace(c.text) == ""
	}
	return len(c.parts) == 0
}

// MarshalJSON emits either a bare JSON string or a part array, matching the
// chat-completions wire format.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.parts == nil {
		return json.Marshal(c.text)
	}
	return json.Marshal(c.parts)
}

// UnmarshalJSON accepts both forms.
func (c *Content) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*c = Content{text: text}
		return nil
	}
	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	*c = PartsContent(parts)
	return nil
}
