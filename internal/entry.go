// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/mayri/cookbook/internal/api"
	"github.com/mayri/cookbook/internal/auth"
	"github.com/mayri/cookbook/internal/media"
	"github.com/mayri/cookbook/internal/recipeservice"
	"github.com/mayri/cookbook/internal/storage"
)

// services holds the wired application components shared by the HTTP and
// MCP entrypoints.
type services struct {
	recipes *recipeservice.Service
	gate    *auth.Gate
	// uploadsDir is non-empty only for the local backend, where images
	// must be served by this process.
	uploadsDir string
}

// buildServices constructs the storage backend selected by configuration
// and the services on top of it.
func buildServices(cfg *Config) (*services, error) {
	var (
		store      storage.Provider
		blobs      storage.BlobStore
		uploadsDir string
	)

	switch cfg.Content.Backend {
	case BackendGitHub:
		gh := storage.NewGitHub(cfg.GitHub.Token, cfg.GitHub.Repo, cfg.GitHub.Branch)
		store = storage.NewGitHubContent(gh, cfg.GitHub.ContentDir)
		blobs = storage.NewGitHubBlobs(gh, cfg.GitHub.UploadsDir, cfg.GitHub.PublicBase)
	default:
		fsStore, err := storage.NewFS(cfg.Content.Path)
		if err != nil {
			return nil, fmt.Errorf("init content storage: %w", err)
		}
		fsBlobs, err := storage.NewFSBlobs(cfg.Uploads.Path, cfg.Uploads.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("init uploads storage: %w", err)
		}
		store = fsStore
		blobs = fsBlobs
		uploadsDir = fsBlobs.Dir()
	}

	svc := recipeservice.NewService(store, media.NewStore(blobs))
	gate := auth.NewGate(auth.NewSharedSecret(cfg.Auth.AdminSecret), cfg.Auth.SecureCookies)
	return &services{recipes: svc, gate: gate, uploadsDir: uploadsDir}, nil
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_backend", cfg.Content.Backend),
		slog.String("content_path", cfg.Content.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svcs, err := buildServices(cfg)
	if err != nil {
		return err
	}

	apiRouter := api.NewRouter(svcs.recipes, svcs.gate)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Locally stored images (filesystem backend only).
	if svcs.uploadsDir != "" {
		uploads := api.NewUploadsHandler(svcs.uploadsDir)
		r.Get("/uploads/recipes/{filename}", uploads.ServeFile)
	}

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
