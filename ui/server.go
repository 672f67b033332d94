// Package ui serves the browser interface: static assets plus a JSON/SSE
// API over the conversation engine.
package ui

import (
	"embed"
	"io/fs"
	"net/http"

	"go.uber.org/zap"

	"hejchat/chat"
	"hejchat/storage"
)

//go:embed static
var staticFS embed.FS

type Server struct {
	engine *chat.Engine
	store  *storage.Store
	index  *storage.SearchIndex
	logger *zap.Logger
	addr   string
}

func NewServer(addr string, engine *chat.Engine, store *storage.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine: engine,
		store:  store,
		index:  storage.NewSearchIndex(store),
		logger: logger,
		addr:   addr,
	}
}

// Routes builds the request mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)
	mux.HandleFunc("GET /api/models", s.handleModels)

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/chat/cancel", s.handleCancel)
	mux.HandleFunc("POST /api/rerun", s.handleRerun)
	mux.HandleFunc("POST /api/render", s.handleRender)

	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("POST /api/history/new", s.handleNewConversation)

	mux.HandleFunc("GET /api/archive", s.handleListArchive)
	mux.HandleFunc("GET /api/archive/search", s.handleSearchArchive)
	mux.HandleFunc("POST /api/archive/{id}/load", s.handleLoadArchived)
	mux.HandleFunc("DELETE /api/archive/{id}", s.handleDeleteArchived)
	mux.HandleFunc("DELETE /api/archive", s.handleClearArchive)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		// embed guarantees the subdirectory exists
		panic(err)
	}
	mux.Handle("/", http.FileServer(http.FS(static)))

	return mux
}

// ListenAndServe blocks serving the interface.
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting server", zap.String("addr", s.addr))
	return http.ListenAndServe(s.addr, s.Routes())
}
