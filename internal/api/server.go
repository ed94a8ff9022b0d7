// Package api exposes the document upload, chat, and analysis endpoints over
// HTTP. Route paths mirror what the web frontend calls.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cyberstrike/backend/internal/analysis"
	"github.com/cyberstrike/backend/internal/db"
	"github.com/cyberstrike/backend/internal/document"
)

const defaultMaxUploadBytes = 50 << 20 // 50MB

type Server struct {
	store          *document.Store
	analyst        *analysis.Analyst
	database       *db.DB
	maxUploadBytes int64
	jwtSecret      string
}

// NewServer creates a server over the given document store and analyst.
func NewServer(store *document.Store, analyst *analysis.Analyst) *Server {
	return &Server{
		store:          store,
		analyst:        analyst,
		maxUploadBytes: defaultMaxUploadBytes,
	}
}

// SetDatabase enables the durable document index and chat transcripts.
func (s *Server) SetDatabase(database *db.DB) {
	s.database = database
}

// SetMaxUploadBytes overrides the multipart upload cap.
func (s *Server) SetMaxUploadBytes(n int64) {
	if n > 0 {
		s.maxUploadBytes = n
	}
}

// SetAuthSecret enables JWT bearer authentication on all API routes.
// An empty secret leaves the API open.
func (s *Server) SetAuthSecret(secret string) {
	s.jwtSecret = secret
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.Get("/", s.root)
	r.Get("/healthz", s.health)

	r.Group(func(r chi.Router) {
		if s.jwtSecret != "" {
			r.Use(requireAuth(s.jwtSecret))
		}
		r.Post("/upload", s.uploadFile)
		r.Get("/files", s.listFiles)
		r.Post("/fileinfo/{id}", s.fileInfo)
		r.Post("/chat", s.chat)
		r.Post("/summarize", s.summarize)
		r.Post("/keyfindings", s.keyFindings)
		r.Post("/vulnerabilities", s.vulnerabilities)
		r.Post("/categories", s.categories)
		r.Post("/graph", s.graph)
	})

	return r
}

const rootHTML = `<html>
    <head><title>CyberStrike Backend</title></head>
    <body style="background-color:#010101;color:white;font-family:Arial,sans-serif;text-align:center;padding-top:20vh;">
        <h1>Cyber Strike</h1>
        <p>Welcome to the CyberStrike backend!</p>
    </body>
</html>`

func (s *Server) root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(rootHTML))
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
