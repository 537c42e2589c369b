package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/velasqa/manualsearch/internal/api/handlers"
	appMiddleware "github.com/velasqa/manualsearch/internal/api/middlewares"
	"github.com/velasqa/manualsearch/internal/config"
	"github.com/velasqa/manualsearch/internal/core"
	"github.com/velasqa/manualsearch/internal/core/ingestion_engine"
	"github.com/velasqa/manualsearch/internal/core/search"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds and wires all routes.
func NewServer(
	cfg *config.Config,
	db core.DbClient,
	obj core.ObjectClient,
	idx core.IndexClient,
	processor *ingestion_engine.DocumentProcessor,
	searchSvc *search.Service,
	logger *slog.Logger,
) *Server {
	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	docHandler := handlers.NewDocumentHandler(db, obj, idx, processor, cfg, logger)
	searchHandler := handlers.NewSearchHandler(searchSvc)
	feedbackHandler := handlers.NewFeedbackHandler(db, searchSvc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		// protected endpoints
		api.Route("/v1", func(v1 chi.Router) {
			v1.Use(appMiddleware.JWT(cfg.JWTSecret))

			v1.Post("/documents/upload", docHandler.UploadDocument)
			v1.Get("/documents", docHandler.GetDocuments)
			v1.Get("/documents/{id}", docHandler.GetDocument)
			v1.Get("/documents/{id}/download", docHandler.DownloadDocument)
			v1.Delete("/documents/{id}", docHandler.DeleteDocument)
			v1.Post("/documents/{id}/resummarize", docHandler.ResummarizeDocument)

			v1.Post("/search", searchHandler.Search)

			v1.Post("/feedback", feedbackHandler.SubmitFeedback)
			v1.Get("/feedback/stats/{id}/{page}", feedbackHandler.FeedbackStats)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, logger: logger}
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}
