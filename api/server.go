// Package api exposes merge workspaces over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/lvillar/pdfmerge/session"
)

// Server holds the dependencies for the API.
type Server struct {
	sessions  *session.Manager
	maxUpload int64
	log       *slog.Logger
	upgrader  websocket.Upgrader
	runCtx    context.Context
}

// NewServer creates a Server. maxUpload limits the size of one upload
// request in bytes.
func NewServer(sessions *session.Manager, maxUpload int64, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		sessions:  sessions,
		maxUpload: maxUpload,
		log:       log,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		runCtx: context.Background(),
	}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)

			r.Get("/files", s.withWorkspace(s.handleListFiles))
			r.Post("/files", s.withWorkspace(s.handleUploadFiles))
			r.Delete("/files/{index}", s.withWorkspace(s.handleRemoveFile))
			r.Put("/files/{fileID}/pages", s.withWorkspace(s.handleSetPages))
			r.Post("/files/{fileID}/toggle", s.withWorkspace(s.handleTogglePage))
			r.Post("/order", s.withWorkspace(s.handleReorder))

			r.Get("/previews", s.withWorkspace(s.handlePreviews))

			r.Post("/merge", s.withWorkspace(s.handleMerge))
			r.Get("/progress", s.withWorkspace(s.handleProgress))
			r.Get("/ws", s.withWorkspace(s.handleProgressStream))
			r.Get("/download", s.withWorkspace(s.handleDownload))
		})
	})

	return r
}

type workspaceHandler func(w http.ResponseWriter, r *http.Request, ws *session.Workspace)

// withWorkspace resolves the {id} URL parameter to a workspace.
func (s *Server) withWorkspace(h workspaceHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		ws, ok := s.sessions.Get(id)
		if !ok {
			RespondWithError(w, NewNotFoundError("session", id))
			return
		}
		h(w, r, ws)
	}
}
