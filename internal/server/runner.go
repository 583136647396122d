// Package server runs the daemon's long-lived components.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 30 * time.Second

// Sweeper is a cache with a background expiry loop.
type Sweeper interface {
	Start(interval time.Duration)
	Close()
}

// Cleaner evicts stale persisted data.
type Cleaner interface {
	Cleanup(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Config for the runner. A zero interval disables the matching task.
type Config struct {
	SweepInterval   time.Duration
	CleanupInterval time.Duration
	MaxAge          time.Duration
	ShutdownTimeout time.Duration
}

// Runner owns the HTTP server, the cache sweepers and periodic cleanup.
type Runner struct {
	srv      *http.Server
	listener net.Listener
	sweepers []Sweeper
	cleaner  Cleaner
	config   Config
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithHTTPServer serves srv until the runner stops.
func WithHTTPServer(srv *http.Server) Option {
	return func(r *Runner) { r.srv = srv }
}

// WithListener serves on ln instead of listening on the server's Addr.
func WithListener(ln net.Listener) Option {
	return func(r *Runner) { r.listener = ln }
}

// WithSweepers starts the sweepers on Run and closes them on return.
func WithSweepers(s ...Sweeper) Option {
	return func(r *Runner) { r.sweepers = append(r.sweepers, s...) }
}

// WithCleaner runs c every CleanupInterval.
func WithCleaner(c Cleaner) Option {
	return func(r *Runner) { r.cleaner = c }
}

// NewRunner creates a new runner.
func NewRunner(cfg Config, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	r := &Runner{config: cfg, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts all components.
// It blocks until the context is canceled or a component fails, and returns
// nil on a clean shutdown.
func (r *Runner) Run(ctx context.Context) error {
	if r.config.SweepInterval > 0 {
		for _, s := range r.sweepers {
			s.Start(r.config.SweepInterval)
		}
	}
	defer func() {
		for _, s := range r.sweepers {
			s.Close()
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	if r.srv != nil {
		g.Go(func() error { return r.serve() })
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), r.config.ShutdownTimeout)
			defer cancel()
			if err := r.srv.Shutdown(shutdownCtx); err != nil {
				r.logger.Error("http shutdown failed", "error", err)
				return err
			}
			r.logger.Info("http server stopped")
			return nil
		})
	}

	if r.cleaner != nil && r.config.CleanupInterval > 0 {
		g.Go(func() error {
			r.runCleanup(ctx)
			return nil
		})
	}

	return g.Wait()
}

func (r *Runner) serve() error {
	var err error
	if r.listener != nil {
		r.logger.Info("http server listening", "addr", r.listener.Addr().String())
		err = r.srv.Serve(r.listener)
	} else {
		r.logger.Info("http server listening", "addr", r.srv.Addr)
		err = r.srv.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (r *Runner) runCleanup(ctx context.Context) {
	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	log := r.logger.With("component", "cleanup")
	log.Info("cleanup started", "interval", r.config.CleanupInterval, "max_age", r.config.MaxAge)

	for {
		select {
		case <-ctx.Done():
			log.Info("cleanup stopped")
			return
		case <-ticker.C:
			deleted, err := r.cleaner.Cleanup(ctx, r.config.MaxAge)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Error("cleanup failed", "error", err)
				continue
			}
			log.Debug("cleanup pass", "deleted", deleted)
		}
	}
}
