package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"hejchat/chat"
	"hejchat/markdown"
	"hejchat/model"
	"hejchat/storage"
)

// maxUploadBytes bounds one submission's multipart payload.
const maxUploadBytes = 32 << 20

type settingsPayload struct {
	APIKey        string `json:"api_key"`
	SelectedModel string `json:"selected_model"`
	SystemPrompt  string `json:"system_prompt"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.LoadSettings()
	if err != nil {
		s.internalError(w, "failed to load settings", err)
		return
	}
	writeJSON(w, settingsPayload{
		APIKey:        settings.APIKey,
		SelectedModel: settings.SelectedModel,
		SystemPrompt:  settings.SystemPrompt,
	})
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var payload settingsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	err := s.store.SaveSettings(storage.Settings{
		APIKey:        payload.APIKey,
		SelectedModel: payload.SelectedModel,
		SystemPrompt:  payload.SystemPrompt,
	})
	if err != nil {
		s.internalError(w, "failed to save settings", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, model.Catalog())
}

// handleChat accepts a multipart submission (message text plus optional
// files) and streams the submission's events back as SSE.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}

	message := r.FormValue("message")
	var files []chat.Attachment
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			files = append(files, readUpload(header))
		}
	}

	events, err := s.engine.Submit(r.Context(), message, files)
	if err != nil {
		s.submissionError(w, err)
		return
	}
	s.streamEvents(w, r, events)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.engine.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRerun(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Pair int `json:"pair"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	events, err := s.engine.Rerun(r.Context(), payload.Pair)
	if err != nil {
		if errors.Is(err, chat.ErrNoSuchPair) {
			http.Error(w, "No such message", http.StatusBadRequest)
			return
		}
		s.submissionError(w, err)
		return
	}
	s.streamEvents(w, r, events)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]string{"html": markdown.Render(payload.Text)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, renderHistory(s.engine.History()))
}

func (s *Server) handleNewConversation(w http.ResponseWriter, r *http.Request) {
	id, archived, err := s.engine.NewConversation()
	if err != nil {
		s.submissionError(w, err)
		return
	}
	writeJSON(w, map[string]any{"archived": archived, "archived_id": id})
}

func (s *Server) handleListArchive(w http.ResponseWriter, r *http.Request) {
	chats, err := s.store.SearchArchived(r.URL.Query().Get("q"))
	if err != nil {
		s.internalError(w, "failed to list archive", err)
		return
	}
	writeJSON(w, renderArchive(chats))
}

func (s *Server) handleSearchArchive(w http.ResponseWriter, r *http.Request) {
	matches, err := s.index.SearchMessages(r.URL.Query().Get("q"))
	if err != nil {
		s.internalError(w, "failed to search archive", err)
		return
	}
	writeJSON(w, matches)
}

func (s *Server) handleLoadArchived(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}

	_, ok, err := s.engine.LoadArchived(id)
	if err != nil {
		s.submissionError(w, err)
		return
	}
	if !ok {
		http.Error(w, "No such chat", http.StatusNotFound)
		return
	}
	writeJSON(w, renderHistory(s.engine.History()))
}

func (s *Server) handleDeleteArchived(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid chat ID", http.StatusBadRequest)
		return
	}
	if err := s.store.DeleteArchived(id); err != nil {
		s.internalError(w, "failed to delete archived chat", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearArchive(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearArchive(); err != nil {
		s.internalError(w, "failed to clear archive", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// streamEvents forwards submission events as SSE. A broken connection
// cancels the submission but keeps draining so the engine can finalize.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request, events <-chan chat.SubmissionEvent) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	writable := true
	for ev := range events {
		if !writable {
			continue
		}
		data, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("failed to marshal submission event", zap.Error(err))
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			s.logger.Info("client disconnected mid-stream", zap.Error(err))
			s.engine.Cancel()
			writable = false
			continue
		}
		flusher.Flush()
	}
}

func (s *Server) submissionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptySubmission):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, chat.ErrBusy):
		http.Error(w, "A response is already streaming", http.StatusConflict)
	default:
		s.internalError(w, "submission failed", err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, zap.Error(err))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// readUpload copies one multipart file into an attachment. Read failures are
// carried on the attachment so the encoder can degrade per file.
func readUpload(header *multipart.FileHeader) chat.Attachment {
	att := chat.Attachment{
		Name: filepath.Base(header.Filename),
		MIME: header.Header.Get("Content-Type"),
		Size: header.Size,
	}
	if att.MIME == "" || att.MIME == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(att.Name)); byExt != "" {
			att.MIME = byExt
		}
	}

	f, err := header.Open()
	if err != nil {
		att.ReadErr = err
		return att
	}
	defer f.Close()

	att.Data, att.ReadErr = io.ReadAll(f)
	return att
}
