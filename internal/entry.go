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
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/muninn/internal/api"
	"github.com/starford/muninn/internal/inbox"
	"github.com/starford/muninn/internal/index"
	"github.com/starford/muninn/internal/mcpserver"
	"github.com/starford/muninn/internal/moc"
	"github.com/starford/muninn/internal/service"
	"github.com/starford/muninn/internal/sse"
	"github.com/starford/muninn/internal/storage"
	"github.com/starford/muninn/internal/tags"
	"github.com/starford/muninn/internal/vault"
	"github.com/starford/muninn/internal/vector"
	pkgconfig "github.com/starford/muninn/pkg/config"
)

// Version is reported by the root and health endpoints and the MCP server.
const Version = "1.0.0"

// components holds the wired subsystems shared by every entry point.
type components struct {
	cfg      *Config
	logger   *slog.Logger
	files    storage.Provider
	store    *vault.Store
	analyzer *tags.Analyzer
	gen      *moc.Generator
	searcher *vector.Searcher
	syncer   *index.Syncer
	svc      *service.Service
	db       *index.DB
}

func (c *components) close() {
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Warn("closing index database", slog.String("error", err.Error()))
		}
	}
}

func configFromOptions(opts []Option) (*Config, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.vaultPath != "" {
		app.config.Vault.Path = app.vaultPath
	}
	return app.config, nil
}

func newLogger(cfg *Config, out *os.File) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// buildComponents wires the vault subsystems according to the configuration.
// The broker may be nil; it is only used in serve mode.
func buildComponents(ctx context.Context, cfg *Config, logger *slog.Logger, broker *sse.Broker) (*components, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	files, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	store := vault.NewStore(files, logger)
	analyzer := tags.NewAnalyzer(files, logger)
	if _, err := analyzer.Refresh(ctx); err != nil {
		logger.Warn("initial vocabulary scan failed", slog.String("error", err.Error()))
	}
	processor := inbox.NewProcessor(store, analyzer, logger)
	generator := moc.NewGenerator(store, files, logger, moc.WithThreshold(cfg.Vault.MOCThreshold))

	c := &components{
		cfg:      cfg,
		logger:   logger,
		files:    files,
		store:    store,
		analyzer: analyzer,
		gen:      generator,
	}

	if cfg.Vector.Enabled() {
		db, err := index.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init index: %w", err)
		}
		c.db = db

		embedder, err := vector.NewOpenAIEmbedder(vector.OpenAIConfig{
			APIKey:            cfg.Vector.OpenAI.APIKey,
			Model:             cfg.Vector.OpenAI.Model,
			Dimension:         cfg.Vector.OpenAI.Dimension,
			BaseURL:           cfg.Vector.OpenAI.BaseURL,
			RequestsPerSecond: cfg.Vector.OpenAI.RequestsPerSecond,
		}, logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("init embedder: %w", err)
		}

		var idx vector.Index = db
		if cfg.Vector.Backend == VectorBackendQdrant {
			idx, err = vector.NewQdrantIndex(ctx, vector.QdrantConfig{
				URL:        cfg.Vector.Qdrant.URL,
				Collection: cfg.Vector.Qdrant.Collection,
				Dimension:  cfg.Vector.OpenAI.Dimension,
			}, logger)
			if err != nil {
				db.Close()
				return nil, fmt.Errorf("init qdrant: %w", err)
			}
		}

		c.searcher = vector.NewSearcher(embedder, idx, logger)
		c.syncer = index.NewSyncer(db, files, c.searcher, logger)
	}

	c.svc = service.New(service.Deps{
		Store:     store,
		Analyzer:  analyzer,
		Processor: processor,
		Generator: generator,
		Searcher:  c.searcher,
		Syncer:    c.syncer,
		Broker:    broker,
		Logger:    logger,
	})
	return c, nil
}

// Run starts the HTTP server and, when a vector backend is configured, the
// file watcher that keeps the index in step with the vault.
func Run(ctx context.Context, opts ...Option) error {
	cfg, err := configFromOptions(opts)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, os.Stdout)
	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("vector_backend", cfg.Vector.Backend),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker()
	defer broker.Close()

	c, err := buildComponents(ctx, cfg, logger, broker)
	if err != nil {
		return err
	}
	defer c.close()

	// Run initial sync so the index catches writes made while we were down.
	if c.syncer != nil {
		if _, err := c.syncer.Sync(ctx); err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
	}

	h := api.NewHandler(c.svc, api.Info{
		Version:      Version,
		VaultPath:    cfg.Vault.Path,
		MOCThreshold: cfg.Vault.MOCThreshold,
		VectorSearch: cfg.Vector.Enabled(),
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Service banner and health check (unauthenticated).
	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	// Mount tool routes under /api.
	r.Mount("/api", api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher when the index is on; creates, edits, and deletes
	// flow into the vector index and out to SSE subscribers.
	if c.syncer != nil {
		g.Go(func() error {
			return index.Watch(gCtx, c.syncer, cfg.Vault.Path, logger, func(kind, path string) {
				broker.PublishNoteEvent(kind, path)
			})
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

// RunMCP serves the vault tools over MCP stdio. Logs go to stderr because
// the transport owns stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	cfg, err := configFromOptions(opts)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, os.Stderr)

	c, err := buildComponents(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.close()

	logger.Info("Starting MCP server on stdio",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("vector_backend", cfg.Vector.Backend))
	return mcpserver.New(c.svc, Version).ServeStdio()
}

// RunSync reconciles the vector index with the vault once and exits.
func RunSync(ctx context.Context, opts ...Option) error {
	cfg, err := configFromOptions(opts)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, os.Stdout)

	c, err := buildComponents(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.close()

	if c.syncer == nil {
		return fmt.Errorf("sync: vector backend is disabled")
	}
	res, err := c.syncer.Sync(ctx)
	if err != nil {
		return err
	}
	logger.Info("Sync finished",
		slog.Int("indexed", res.Indexed),
		slog.Int("skipped", res.Skipped),
		slog.Int("removed", res.Removed))
	return nil
}

// RunMOC scans the vault for tag clusters over the threshold and creates
// the missing Maps of Content.
func RunMOC(ctx context.Context, dryRun bool, opts ...Option) error {
	cfg, err := configFromOptions(opts)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, os.Stdout)

	c, err := buildComponents(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer c.close()

	notes, err := c.gen.CreateAllNeeded(ctx, dryRun)
	if err != nil {
		return err
	}
	logger.Info("MOC run finished",
		slog.Int("created", len(notes)),
		slog.Bool("dry_run", dryRun))
	return nil
}

// RunInit scaffolds the vault folder taxonomy and writes the default
// configuration file when it does not exist yet.
func RunInit(configPath string, opts ...Option) error {
	cfg, err := configFromOptions(opts)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, os.Stdout)

	for _, folder := range vault.FolderNames() {
		if err := os.MkdirAll(filepath.Join(cfg.Vault.Path, folder), 0o755); err != nil {
			return fmt.Errorf("create folder %s: %w", folder, err)
		}
	}
	logger.Info("Vault folders created",
		slog.String("path", cfg.Vault.Path),
		slog.Int("folders", len(vault.FolderNames())))

	if configPath == "" {
		return nil
	}
	written, err := pkgconfig.WriteDefault(configPath, []byte(DefaultConfigYAML))
	if err != nil {
		return err
	}
	if written {
		logger.Info("Config file written", slog.String("path", configPath))
	} else {
		logger.Info("Config file already exists, leaving it alone", slog.String("path", configPath))
	}
	return nil
}
