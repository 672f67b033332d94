// Package chat drives the conversation lifecycle: building outgoing
// messages, consuming the response stream, and committing results to
// history and the archive.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"hejchat/markdown"
	"hejchat/model"
	"hejchat/provider"
	"hejchat/storage"
)

var (
	// ErrBusy is returned when a submission is started while another
	// stream is active. Only one submission runs per conversation.
	ErrBusy = errors.New("a submission is already streaming")

	// ErrEmptySubmission is returned when both the message text and the
	// attachment list are empty. The caller treats it as a silent no-op.
	ErrEmptySubmission = errors.New("nothing to submit")

	// ErrNoSuchPair is returned by Rerun for a pair index that does not
	// name a user turn.
	ErrNoSuchPair = errors.New("no user message at that position")
)

// SubmissionEvent is one step of a submission's lifecycle. The first event
// carries StateStreaming with no content (the pending placeholder); chunk
// events carry the accumulated text and its rendering; the final event
// carries a terminal state.
type SubmissionEvent struct {
	State         model.SubmissionState `json:"state"`
	Delta         string                `json:"delta,omitempty"`
	Raw           string                `json:"raw,omitempty"`
	HTML          string                `json:"html,omitempty"`
	Thinking      string                `json:"thinking,omitempty"`
	HasThinking   bool                  `json:"has_thinking,omitempty"`
	Notice        string                `json:"notice,omitempty"`
	EmptyResponse bool                  `json:"empty_response,omitempty"`
}

// Engine owns the active conversation. It is the only writer of history
// while a stream is active; everything else reads snapshots.
type Engine struct {
	client              *provider.Client
	store               *storage.Store
	history             *History
	logger              *zap.Logger
	defaultSystemPrompt string

	mu     sync.Mutex
	state  model.SubmissionState
	cancel context.CancelFunc
}

func NewEngine(client *provider.Client, store *storage.Store, defaultSystemPrompt string, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		client:              client,
		store:               store,
		history:             NewHistory(),
		logger:              logger,
		defaultSystemPrompt: defaultSystemPrompt,
		state:               model.StateIdle,
	}
}

// History returns a snapshot of the active conversation.
func (e *Engine) History() []model.Message {
	return e.history.Snapshot()
}

// State reports the current submission state.
func (e *Engine) State() model.SubmissionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Submit starts a new submission and returns its event sequence. The user
// message is committed to history before the stream starts, so it survives
// a later abort. The channel closes after the terminal event.
func (e *Engine) Submit(ctx context.Context, text string, files []Attachment) (<-chan SubmissionEvent, error) {
	if strings.TrimSpace(text) == "" && len(files) == 0 {
		return nil, ErrEmptySubmission
	}

	streamCtx, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}

	return e.start(streamCtx, text, files)
}

// start builds and launches the submission. The engine is already in the
// streaming state; any failure here must release it.
func (e *Engine) start(streamCtx context.Context, text string, files []Attachment) (<-chan SubmissionEvent, error) {
	settings, err := e.store.LoadSettings()
	if err != nil {
		e.finish()
		return nil, err
	}

	supportsVision := model.SupportsVision(settings.SelectedModel)

	var parts []model.ContentPart
	if strings.TrimSpace(text) != "" {
		parts = append(parts, model.TextPart(text))
	}
	parts = append(parts, EncodeAttachments(files, supportsVision)...)

	// History stores the flattened text form so archived chats and reruns
	// never carry base64 image payloads.
	past := e.history.Snapshot()
	e.history.Append(model.Message{
		Role:      model.RoleUser,
		Content:   model.TextContent(flattenSubmission(text, files)),
		Timestamp: time.Now(),
	})

	systemPrompt := settings.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = e.defaultSystemPrompt
	}

	// Timestamps are local bookkeeping; the chat-completions body carries
	// only role and content.
	messages := make([]model.Message, 0, len(past)+2)
	messages = append(messages, model.Message{Role: model.RoleSystem, Content: model.TextContent(systemPrompt)})
	for _, msg := range past {
		messages = append(messages, model.Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, model.Message{Role: model.RoleUser, Content: model.PartsContent(parts)})

	req := provider.ChatRequest{
		APIKey:   settings.APIKey,
		Model:    model.ResolveRequestModel(settings.SelectedModel),
		Messages: messages,
	}

	events := make(chan SubmissionEvent, 16)
	go e.run(streamCtx, req, events)
	return events, nil
}

// Cancel aborts the active submission, if any. The stream finalizes with
// whatever text had accumulated.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// Rerun re-issues the user turn at the given 0-based pair index, discarding
// all later conversation state first. Attachments from the original turn are
// kept only in their flattened text form.
func (e *Engine) Rerun(ctx context.Context, pair int) (<-chan SubmissionEvent, error) {
	originalText, streamCtx, err := e.beginRerun(ctx, pair)
	if err != nil {
		return nil, err
	}
	return e.start(streamCtx, originalText, nil)
}

// beginRerun validates the pair, truncates history, and claims the streaming
// state in one lock hold, so a concurrent Submit can never slip in between
// the busy check and the truncation.
func (e *Engine) beginRerun(ctx context.Context, pair int) (string, context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == model.StateStreaming {
		return "", nil, ErrBusy
	}

	originalText, ok := e.history.UserTextAt(pair)
	if !ok {
		return "", nil, ErrNoSuchPair
	}
	e.history.TruncateForRerun(pair)

	streamCtx, cancel := context.WithCancel(ctx)
	e.state = model.StateStreaming
	e.cancel = cancel
	return originalText, streamCtx, nil
}

// NewConversation archives the active conversation and starts an empty one.
// An empty conversation is not archived; ok is false in that case.
func (e *Engine) NewConversation() (int64, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == model.StateStreaming {
		return 0, false, ErrBusy
	}

	id, ok, err := e.store.ArchiveChat(e.history.Snapshot())
	if err != nil {
		return 0, false, err
	}
	e.history.Clear()
	return id, ok, nil
}

// LoadArchived replaces the active conversation with an archived one.
func (e *Engine) LoadArchived(id int64) (storage.SavedChat, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == model.StateStreaming {
		return storage.SavedChat{}, false, ErrBusy
	}

	saved, ok, err := e.store.LoadArchived(id)
	if err != nil || !ok {
		return storage.SavedChat{}, ok, err
	}
	e.history.Replace(saved.Messages)
	return saved, true, nil
}

func (e *Engine) begin(ctx context.Context) (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == model.StateStreaming {
		return nil, ErrBusy
	}
	streamCtx, cancel := context.WithCancel(ctx)
	e.state = model.StateStreaming
	e.cancel = cancel
	return streamCtx, nil
}

func (e *Engine) finish() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.state = model.StateIdle
}

func (e *Engine) run(ctx context.Context, req provider.ChatRequest, events chan<- SubmissionEvent) {
	defer close(events)
	defer e.finish()

	events <- SubmissionEvent{State: model.StateStreaming}

	stream, err := e.client.Stream(ctx, req)
	if err != nil {
		e.fail(events, err)
		return
	}

	for ev := range stream.Events() {
		events <- SubmissionEvent{
			State:       model.StateStreaming,
			Delta:       ev.Delta,
			Raw:         ev.Text,
			HTML:        markdown.Render(ev.Text),
			Thinking:    ev.Thinking,
			HasThinking: ev.HasThinking,
		}
	}

	text := stream.Text()
	thinking, hasThinking := stream.Thinking()

	switch streamErr := stream.Err(); {
	case streamErr == nil:
		e.complete(events, text, thinking, hasThinking)
	case errors.Is(streamErr, provider.ErrCancelled):
		e.abort(events, text, thinking, hasThinking)
	default:
		e.fail(events, streamErr)
	}
}

// complete finalizes a normally ended stream. An empty final response is a
// distinct state rendered as a fixed notice, never a blank bubble.
func (e *Engine) complete(events chan<- SubmissionEvent, text, thinking string, hasThinking bool) {
	if strings.TrimSpace(text) == "" {
		e.logger.Info("stream completed with empty response")
		events <- SubmissionEvent{
			State:         model.StateCompleted,
			HTML:          "<p>" + EmptyResponseNotice + "</p>",
			Notice:        EmptyResponseNotice,
			EmptyResponse: true,
		}
		return
	}

	e.commitAssistant(text)
	events <- SubmissionEvent{
		State:       model.StateCompleted,
		Raw:         text,
		HTML:        markdown.Render(text),
		Thinking:    thinking,
		HasThinking: hasThinking,
	}
}

// abort finalizes a cancelled stream with the partial text. Cancellation is
// an expected outcome, not an error.
func (e *Engine) abort(events chan<- SubmissionEvent, text, thinking string, hasThinking bool) {
	e.logger.Info("stream cancelled", zap.Int("partial_len", len(text)))
	e.commitAssistant(text)
	events <- SubmissionEvent{
		State:       model.StateAborted,
		Raw:         text,
		HTML:        markdown.Render(text),
		Thinking:    thinking,
		HasThinking: hasThinking,
	}
}

func (e *Engine) fail(events chan<- SubmissionEvent, err error) {
	e.logger.Warn("submission failed", zap.Error(err))
	notice := userFacingError(err)
	events <- SubmissionEvent{
		State:  model.StateFailed,
		HTML:   "<p>" + markdown.EscapeHTML(notice) + "</p>",
		Notice: notice,
	}
}

// commitAssistant appends the assistant turn; empty text is a no-op.
func (e *Engine) commitAssistant(text string) {
	e.history.Append(model.Message{
		Role:      model.RoleAssistant,
		Content:   model.TextContent(text),
		Timestamp: time.Now(),
	})
}

// flattenSubmission joins the typed text and attachment summaries into the
// single text form history keeps.
func flattenSubmission(text string, files []Attachment) string {
	text = strings.TrimSpace(text)
	if len(files) == 0 {
		return text
	}
	flat := FlattenAttachments(files)
	if text == "" {
		return flat
	}
	return text + "\n\n" + flat
}
