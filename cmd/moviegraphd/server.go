package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/vmunix/moviegraph/internal/ai"
	v1 "github.com/vmunix/moviegraph/internal/api/v1"
	"github.com/vmunix/moviegraph/internal/config"
	"github.com/vmunix/moviegraph/internal/enhance"
	"github.com/vmunix/moviegraph/internal/movie"
	"github.com/vmunix/moviegraph/internal/moviecache"
	"github.com/vmunix/moviegraph/internal/server"
	"github.com/vmunix/moviegraph/internal/store"
	"github.com/vmunix/moviegraph/internal/tmdb"
	"github.com/vmunix/moviegraph/internal/trakt"
	"github.com/vmunix/moviegraph/internal/ttlcache"
)

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 200 { // Only capture first WriteHeader call
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func runServer(configPath string) error {
	// Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// Create logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	// Open database
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer func() { _ = db.Close() }()

	movies, err := store.New(db,
		store.WithLRUSize(cfg.Cache.LRUSize),
		store.WithLogger(logger.With("component", "store")),
	)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() {
		if err := movies.Flush(context.Background()); err != nil {
			logger.Warn("failed to flush access times", "error", err)
		}
	}()

	// === Cache namespaces ===
	originCache := ttlcache.New[[]byte](moviecache.NamespaceOrigin, cfg.Cache.OriginTTL)
	enrichedCache := ttlcache.New[*movie.Record](moviecache.NamespaceEnriched, cfg.Cache.EnrichedTTL)
	aiCache := ttlcache.New[string](moviecache.NamespaceAI, cfg.Cache.AITTL)

	// === Upstream clients ===
	traktClient := trakt.New(cfg.Trakt.APIKey,
		trakt.WithBaseURL(cfg.Trakt.URL),
		trakt.WithHTTPClient(&http.Client{Timeout: cfg.Trakt.Timeout}),
		trakt.WithCache(originCache),
		trakt.WithLogger(logger),
	)

	// The pipeline runs without posters when TMDB is not configured.
	var posters enhance.PosterSource
	if cfg.TMDB.APIKey != "" {
		posters = tmdb.NewClient(cfg.TMDB.APIKey,
			tmdb.WithBaseURL(cfg.TMDB.URL),
			tmdb.WithCache(originCache),
		)
	}

	pipeline := enhance.New(traktClient, posters, movies, enrichedCache, enhance.Config{
		CallTimeout:   cfg.Enhance.CallTimeout,
		MaxConcurrent: cfg.Enhance.MaxConcurrent,
	}, logger.With("component", "enhance"))

	// === Metrics ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	coordinator, err := moviecache.New(moviecache.Deps{
		Store:       movies,
		Pipeline:    pipeline,
		Enriched:    enrichedCache,
		Origin:      traktClient,
		OriginCache: originCache,
		AICache:     aiCache,
		Registerer:  reg,
		Logger:      logger.With("component", "moviecache"),
	}, moviecache.DefaultConfig())
	if err != nil {
		return fmt.Errorf("movie cache: %w", err)
	}

	// === AI (optional) ===
	var chat ai.Provider
	if cfg.AI.Enabled && cfg.AI.Ollama != nil {
		chat = ai.NewCachedProvider(
			ai.NewOllamaProvider(cfg.AI.Ollama.URL, cfg.AI.Ollama.Model),
			cfg.AI.Ollama.Model,
			aiCache,
		)
	}

	// === HTTP Setup ===
	mux := http.NewServeMux()
	apiV1, err := v1.New(v1.ServerDeps{
		Movies:   coordinator,
		Chat:     chat,
		Gatherer: reg,
	}, v1.Config{
		Version:          version,
		MaxAge:           cfg.Cache.MaxAge,
		OriginConfigured: cfg.Trakt.APIKey != "",
		PosterConfigured: posters != nil,
	})
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}
	apiV1.RegisterRoutes(mux)

	addr := cfg.Server.Addr()
	logger.Info("server starting",
		"addr", addr,
		"database", cfg.Database.Path,
		"tmdb", posters != nil,
		"ai", chat != nil,
		"log_level", cfg.Server.LogLevel,
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           logRequests(mux, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	runner := server.NewRunner(server.Config{
		SweepInterval:   cfg.Cache.SweepInterval,
		CleanupInterval: cfg.Cache.CleanupInterval,
		MaxAge:          cfg.Cache.MaxAge,
	}, logger,
		server.WithHTTPServer(srv),
		server.WithSweepers(originCache, enrichedCache, aiCache),
		server.WithCleaner(coordinator),
	)

	// Stop on interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
