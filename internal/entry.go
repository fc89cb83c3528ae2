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
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/stemgraph/stemgraph/internal/api"
	"github.com/stemgraph/stemgraph/internal/cache"
	"github.com/stemgraph/stemgraph/internal/graphstore"
	"github.com/stemgraph/stemgraph/internal/mcpserver"
	"github.com/stemgraph/stemgraph/internal/models"
	"github.com/stemgraph/stemgraph/internal/moduleservice"
	"github.com/stemgraph/stemgraph/internal/secrets"
	"github.com/stemgraph/stemgraph/internal/sse"
)

// Run starts the HTTP service with the given options.
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
		slog.String("neo4j_uri", cfg.Neo4j.URI),
		slog.String("neo4j_database", cfg.Neo4j.Database),
		slog.Duration("cache_refresh", cfg.Cache.RefreshInterval()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := openStore(ctx, app, cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	// SSE broker announces cache refreshes to connected viewers.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	graphCache := cache.New(store, logger, func(snap *models.Snapshot) {
		broker.PublishGraphRefresh(len(snap.Nodes), len(snap.Edges))
	})
	if err := graphCache.Initialize(ctx); err != nil {
		return err
	}

	// Write token lives behind an atomic so the secrets watcher can rotate
	// it without restarting.
	var writeToken atomic.Value
	writeToken.Store(cfg.Auth.WriteToken)
	tokenFn := func() string {
		v, _ := writeToken.Load().(string)
		return v
	}

	svc := moduleservice.NewService(store, graphCache)
	apiRouter := api.NewRouter(svc, tokenFn, http.HandlerFunc(broker.ServeHTTP))

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoint (unauthenticated, probes the store).
	r.Get("/health", api.Health(svc))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Periodic cache refresh.
	g.Go(func() error {
		graphCache.Run(gCtx, cfg.Cache.RefreshInterval())
		return nil
	})

	// Watch Docker secrets for write token rotation.
	if dir := cfg.Auth.SecretsDir; dir != "" {
		if _, statErr := os.Stat(dir); statErr == nil {
			g.Go(func() error {
				watchErr := secrets.Watch(gCtx, dir, []string{secrets.WriteTokenSecret}, logger, func(name, value string) {
					if name == secrets.WriteTokenSecret {
						writeToken.Store(value)
					}
				})
				if watchErr != nil {
					logger.Warn("secrets watcher unavailable", slog.String("error", watchErr.Error()))
				}
				return nil
			})
		} else {
			logger.Info("secrets dir not present, skipping watcher", slog.String("dir", dir))
		}
	}

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

// RunMCP starts the MCP stdio server with the given options. Logs go to
// stderr because the stdio transport owns stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store, err := openStore(ctx, app, cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	graphCache := cache.New(store, logger, nil)
	if err := graphCache.Initialize(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go graphCache.Run(runCtx, cfg.Cache.RefreshInterval())

	svc := moduleservice.NewService(store, graphCache)

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc).ServeStdio()
}

// openStore returns the configured graph store, dialing Neo4j unless a
// store override was supplied, and verifies connectivity.
func openStore(ctx context.Context, app *application, cfg *Config) (graphstore.Store, error) {
	store := app.store
	if store == nil {
		var err error
		store, err = graphstore.NewNeo4j(cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password,
			cfg.Neo4j.Database, cfg.Neo4j.Timeout())
		if err != nil {
			return nil, fmt.Errorf("init graph store: %w", err)
		}
	}

	if err := store.Verify(ctx); err != nil {
		store.Close(context.Background())
		return nil, fmt.Errorf("graph store unreachable: %w", err)
	}

	return store, nil
}
