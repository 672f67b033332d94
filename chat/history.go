package chat

import (
	"sync"

	"hejchat/model"
)

// History is the ordered message log of the active conversation. Reads hand
// out snapshots so panels rendering mid-stream never observe a partial
// mutation.
type History struct {
	mu       sync.Mutex
	messages []model.Message
}

func NewHistory() *History {
	return &History{}
}

// Append adds a message. Empty or whitespace-only content is a no-op.
func (h *History) Append(msg model.Message) {
	if msg.Content.IsEmpty() {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

// Snapshot returns a copy of the current messages.
func (h *History) Snapshot() []model.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]model.Message(nil), h.messages...)
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
}

// Replace swaps the active conversation for the given messages, used when
// loading an archived chat.
func (h *History) Replace(messages []model.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append([]model.Message(nil), messages...)
}

// Truncate keeps the first keep messages and drops the rest.
func (h *History) Truncate(keep int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if keep < 0 {
		keep = 0
	}
	if keep < len(h.messages) {
		h.messages = h.messages[:keep]
	}
}

// PairStarts returns the index of the first message of each user/assistant
// pair. A user message always opens a new pair. An assistant message closes
// the open pair when one exists, so a user message left unpaired by a failed
// turn still counts as a pair of its own. System messages never appear in
// history, so every message belongs to some pair.
func (h *History) PairStarts() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return pairStarts(h.messages)
}

func pairStarts(messages []model.Message) []int {
	var starts []int
	open := false
	for i, msg := range messages {
		switch {
		case msg.Role == model.RoleUser:
			starts = append(starts, i)
			open = true
		case open:
			open = false
		default:
			starts = append(starts, i)
		}
	}
	return starts
}

// TruncateForRerun drops the conversation from the rerun point onward. For a
// 0-based pair index p it keeps floor((p+1)/2) whole pairs, which for a
// strictly alternating history retains 2*floor((p+1)/2) messages. The rerun's
// own turn is rebuilt fresh, never retained.
func (h *History) TruncateForRerun(pair int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	starts := pairStarts(h.messages)
	keepPairs := (pair + 1) / 2
	if keepPairs < 0 {
		keepPairs = 0
	}
	if keepPairs >= len(starts) {
		return
	}
	h.messages = h.messages[:starts[keepPairs]]
}

// UserTextAt returns the user message text opening the given pair, or
// ok=false when the pair does not exist or does not start with a user turn.
func (h *History) UserTextAt(pair int) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	starts := pairStarts(h.messages)
	if pair < 0 || pair >= len(starts) {
		return "", false
	}
	msg := h.messages[starts[pair]]
	if msg.Role != model.RoleUser {
		return "", false
	}
	return msg.Content.PlainText(), true
}
