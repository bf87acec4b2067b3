package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/voxnote/apiserver/config"
	"github.com/voxnote/apiserver/internal/db"
	"github.com/voxnote/apiserver/internal/handlers"
	"github.com/voxnote/apiserver/internal/media"
	"github.com/voxnote/apiserver/internal/recognize"
	"github.com/voxnote/apiserver/internal/services"
	"github.com/voxnote/apiserver/internal/storage"
	"github.com/voxnote/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		_ = dbConn.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	userRepo := store.NewUserRepository(dbConn)
	transcriptionRepo := store.NewTranscriptionRepository(dbConn)

	userService := services.NewUserService(userRepo)

	converter := media.NewFFmpeg(cfg.Upload.FFmpegBin)
	if !converter.Available() {
		slog.Warn("ffmpeg not found on PATH, uploads will fail until it is installed",
			"bin", cfg.Upload.FFmpegBin)
	}

	recognizer, err := newRecognizer(cfg.Recognizer)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	archive, err := newArchive(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	transcriptionService := services.NewTranscriptionService(
		transcriptionRepo,
		converter,
		recognizer,
		archive,
		cfg.Upload.Dir,
	)

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(10*time.Minute),
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{cfg.AllowedOrigin},
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: cfg.AllowedOrigin != "*",
		}),
	)
	router.Get("/", handlers.Root)
	router.Get("/healthz", handlers.Healthz)
	handlers.AuthRouter(router, userService, jwtSecret)
	handlers.HistoryRouter(router, transcriptionService, authMiddleware)
	handlers.UploadRouter(router, transcriptionService, authMiddleware)

	port := cfg.ServerPort
	if port == 0 {
		port = 8000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
	}, nil
}

func newRecognizer(cfg config.RecognizerConfig) (*recognize.Recognizer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "openai":
		backend, err := recognize.NewOpenAIClient(cfg)
		if err != nil {
			return nil, err
		}
		return recognize.New(backend), nil
	case "cloudflare":
		backend, err := recognize.NewCloudflareClient(cfg)
		if err != nil {
			return nil, err
		}
		return recognize.New(backend), nil
	default:
		return nil, fmt.Errorf("unknown recognizer backend %q", cfg.Backend)
	}
}

func newArchive(ctx context.Context, cfg config.StorageConfig) (*storage.Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		return nil, nil
	case "minio":
		backend, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		archive := storage.NewStorage(backend)
		if err := archive.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return archive, nil
	case "gcs":
		backend, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		archive := storage.NewStorage(backend)
		if err := archive.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return archive, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
