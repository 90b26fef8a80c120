// Package server exposes the admin HTTP panel: knowledge base management,
// question answering and status.
package server

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/superteamvn/stvbot/internal/config"
	"github.com/superteamvn/stvbot/internal/ingest"
	"github.com/superteamvn/stvbot/internal/keyword"
	"github.com/superteamvn/stvbot/internal/rag"
	"github.com/superteamvn/stvbot/internal/storage"
	"github.com/superteamvn/stvbot/internal/vector"
)

// Server is the admin HTTP API.
type Server struct {
	engine   *rag.Engine
	ingestor *ingest.Ingestor
	storage  storage.Storage
	vectors  vector.Index
	keywords keyword.Index
	cfg      *config.ServerConfig
	username string
	password string
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates the admin server. password empty disables authentication,
// which is only sensible in tests.
func NewServer(engine *rag.Engine, ingestor *ingest.Ingestor, store storage.Storage, vectors vector.Index, keywords keyword.Index, cfg *config.ServerConfig, password string, logger *zap.Logger) *Server {
	return &Server{
		engine:   engine,
		ingestor: ingestor,
		storage:  store,
		vectors:  vectors,
		keywords: keywords,
		cfg:      cfg,
		username: cfg.AdminUser,
		password: password,
		logger:   logger,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(s.basicAuth)
		api.Post("/ask", s.handleAsk)
		api.Post("/search", s.handleSearch)
		api.Post("/documents", s.handleCreateDocument)
		api.Post("/documents/upload", s.handleUpload)
		api.Get("/documents", s.handleListDocuments)
		api.Get("/documents/{id}", s.handleGetDocument)
		api.Delete("/documents/{id}", s.handleDeleteDocument)
		api.Get("/status", s.handleStatus)
	})
	return r
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{Addr: addr, Handler: s.Router()}
	s.logger.Info("admin server listening", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.password == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || !timingSafeEqual(user, s.username) || !timingSafeEqual(pass, s.password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="stvbot admin"`)
			s.respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func timingSafeEqual(a, b string) bool {
	ha := sha256.Sum256([]byte(a))
	hb := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
