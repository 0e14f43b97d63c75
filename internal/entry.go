// Package internal provides the main application initialization and
// runtime wiring.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/api"
	"github.com/starford/ansuz/internal/graph"
	"github.com/starford/ansuz/internal/model"
	"github.com/starford/ansuz/internal/noteservice"
	"github.com/starford/ansuz/internal/snapshot"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/vault"
)

// Run starts the server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("workspace_path", cfg.Workspace.Path),
		slog.String("snapshot_path", cfg.Snapshot.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, syncer, ws, cleanup, err := buildWorkspace(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	// SSE broker, fed from workspace notifications.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	brokerSubs := []graph.Subscription{
		ws.OnDidAdd(func(n *model.Note) { broker.PublishResourceEvent("added", n.ID.String()) }),
		ws.OnDidUpdate(func(u graph.Update) { broker.PublishResourceEvent("updated", u.New.ID.String()) }),
		ws.OnDidDelete(func(n *model.Note) { broker.PublishResourceEvent("deleted", n.ID.String()) }),
	}
	defer func() {
		for _, s := range brokerSubs {
			s.Dispose()
		}
	}()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Workspace.Watch {
		g.Go(func() error {
			if err := syncer.Watch(gCtx, cfg.Workspace.Path); err != nil {
				logger.Warn("watcher stopped with error", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

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

// BuildService constructs the full service stack without the HTTP server;
// used by the MCP command.
func BuildService(cfg *Config, logger *slog.Logger) (*noteservice.Service, func(), error) {
	svc, _, _, cleanup, err := buildWorkspace(cfg, logger)
	return svc, cleanup, err
}

// buildWorkspace wires storage, the graph workspace, the snapshot, and
// the note service, and runs the initial scan. Ordering matters: the
// incremental synchronizer is enabled before the snapshot attaches, so
// snapshot refreshes observe the post-update graph.
func buildWorkspace(cfg *Config, logger *slog.Logger) (*noteservice.Service, *vault.Syncer, *graph.Workspace, func(), error) {
	if err := os.MkdirAll(cfg.Workspace.Path, 0o755); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("create workspace dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Workspace.Path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}

	snap, err := snapshot.Open(cfg.Snapshot.Path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init snapshot: %w", err)
	}

	ws := graph.NewWorkspace()
	var mu sync.RWMutex
	syncer := vault.NewSyncer(ws, store, &mu, logger)

	// Initial scan under full-rebuild resolution, then switch to
	// incremental maintenance and attach the snapshot mirror.
	if err := syncer.Sync(); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	ws.ResolveAll()
	ws.EnableSync()
	snapSubs := snapshot.Attach(snap, ws, store, logger)

	svc := noteservice.New(store, ws, syncer, snap, &mu)

	cleanup := func() {
		for _, s := range snapSubs {
			s.Dispose()
		}
		ws.Dispose()
		if err := snap.Close(); err != nil {
			logger.Warn("snapshot close failed", slog.String("error", err.Error()))
		}
	}
	return svc, syncer, ws, cleanup, nil
}
