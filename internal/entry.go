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

	"github.com/starford/lifedash/internal/activity"
	"github.com/starford/lifedash/internal/analysis"
	"github.com/starford/lifedash/internal/api"
	"github.com/starford/lifedash/internal/dashboard"
	"github.com/starford/lifedash/internal/github"
	"github.com/starford/lifedash/internal/importer"
	"github.com/starford/lifedash/internal/pipeline"
	"github.com/starford/lifedash/internal/search"
	"github.com/starford/lifedash/internal/sse"
	"github.com/starford/lifedash/internal/store"
	"github.com/starford/lifedash/internal/vault"
	"github.com/starford/lifedash/internal/watcher"
)

func newApplication(opts []Option) (*application, *slog.Logger, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

// components are the wired services shared by every command.
type components struct {
	db        *store.DB
	index     *search.Index
	broker    *sse.Broker
	dashboard *dashboard.Service
	sync      *pipeline.Synchronizer
	importer  *importer.Importer
	vaultFS   *vault.FS
}

func (c *components) Close() {
	c.broker.Close()
	if err := c.index.Close(); err != nil {
		slog.Warn("search: close failed", slog.String("error", err.Error()))
	}
	if err := c.db.Close(); err != nil {
		slog.Warn("store: close failed", slog.String("error", err.Error()))
	}
}

func (a *application) open(ctx context.Context, logger *slog.Logger) (*components, error) {
	cfg := a.config

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	if err := db.EnsureQuadrants(ctx, cfg.QuadrantDefs()); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap quadrants: %w", err)
	}

	idx, err := search.Open(cfg.Search.Path)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init search: %w", err)
	}
	if n, err := idx.Rebuild(ctx, db); err != nil {
		logger.Warn("search: rebuild failed", slog.String("error", err.Error()))
	} else {
		logger.Info("search: index rebuilt", slog.Int("documents", n))
	}

	broker := sse.NewBroker(2 * time.Second)
	c := &components{db: db, index: idx, broker: broker}

	gh := github.NewClient(cfg.GitHub.APIURL, cfg.GitHub.Token)

	var notes vault.Source
	switch cfg.Vault.Source {
	case VaultSourceGitHub:
		notes = vault.NewGitHub(gh, cfg.Vault.Repo, cfg.Vault.Branch, cfg.Vault.MaxFiles)
	default:
		if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
			c.Close()
			return nil, fmt.Errorf("create vault dir: %w", err)
		}
		fs, err := vault.NewFS(cfg.Vault.Path)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("init vault: %w", err)
		}
		c.vaultFS = fs
		notes = fs
	}

	lookback := cfg.Pipeline.Lookback()
	analyzer := analysis.NewClient(analysis.Config{
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		APIURL:    cfg.LLM.APIURL,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	})

	c.dashboard = dashboard.NewService(db, idx, broker, logger)
	c.importer = importer.New(db, idx, logger)
	c.sync = pipeline.New(db, analyzer,
		pipeline.WithNotes(vault.NewReader(notes, lookback)),
		pipeline.WithActivity(activity.NewSummarizer(gh, cfg.GitHub.Username, lookback)),
		pipeline.WithIndex(idx),
		pipeline.WithNotifier(broker),
		pipeline.WithLogger(logger),
		pipeline.WithConfig(pipeline.Config{
			Lookback:   lookback,
			RunTimeout: cfg.Pipeline.RunTimeout,
			LeaseTTL:   cfg.Pipeline.LeaseTTL,
		}),
	)

	if !analyzer.IsConfigured() {
		logger.Warn("llm: api key not set, refresh is disabled")
	}
	return c, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_source", cfg.Vault.Source),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("auth_enabled", cfg.Auth.AuthEnabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := app.open(ctx, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	apiRouter := api.NewRouter(c.dashboard, c.sync, c.importer, api.Auth{
		Enabled:    cfg.Auth.AuthEnabled(),
		Token:      cfg.Auth.Token,
		CronSecret: cfg.Auth.CronSecret,
	}, c.broker)

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
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := c.db.Metadata(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the local vault for note changes.
	if c.vaultFS != nil && cfg.Vault.Watch {
		w := watcher.New(c.vaultFS, c.db, c.broker, logger)
		g.Go(func() error {
			if err := w.Run(gCtx); err != nil {
				logger.Warn("watcher: stopped", slog.String("error", err.Error()))
			}
			return nil
		})
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
		defer signal.Stop(quit)

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

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")
