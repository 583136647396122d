package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSweeper struct {
	mu       sync.Mutex
	interval time.Duration
	started  bool
	closed   bool
}

func (f *fakeSweeper) Start(interval time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	f.interval = interval
}

func (f *fakeSweeper) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

type fakeCleaner struct {
	calls  atomic.Int32
	maxAge atomic.Int64
	err    error
}

func (f *fakeCleaner) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	f.calls.Add(1)
	f.maxAge.Store(int64(maxAge))
	return 0, f.err
}

func runAsync(ctx context.Context, r *Runner) <-chan error {
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for runner to stop")
		return nil
	}
}

func TestNewRunner_DefaultLogger(t *testing.T) {
	// Should not panic with nil logger
	runner := NewRunner(Config{}, nil)
	require.NotNil(t, runner)
	require.NotNil(t, runner.logger)
	assert.Equal(t, defaultShutdownTimeout, runner.config.ShutdownTimeout)
}

func TestRunner_StartsAndStops(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	sweeper := &fakeSweeper{}

	runner := NewRunner(Config{SweepInterval: time.Minute}, testLogger(),
		WithHTTPServer(&http.Server{Handler: mux, ReadHeaderTimeout: time.Second}),
		WithListener(ln),
		WithSweepers(sweeper),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, runner)

	var body []byte
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
		if err != nil {
			return false
		}
		defer func() { _ = resp.Body.Close() }()
		body, _ = io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "pong", string(body))

	// Cancel and wait for clean shutdown
	cancel()
	require.NoError(t, waitDone(t, done))

	sweeper.mu.Lock()
	defer sweeper.mu.Unlock()
	assert.True(t, sweeper.started)
	assert.Equal(t, time.Minute, sweeper.interval)
	assert.True(t, sweeper.closed)
}

func TestRunner_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())
	sweeper := &fakeSweeper{}

	runner := NewRunner(Config{}, testLogger(),
		WithHTTPServer(&http.Server{Handler: http.NewServeMux(), ReadHeaderTimeout: time.Second}),
		WithListener(ln),
		WithSweepers(sweeper),
	)

	err = waitDone(t, runAsync(context.Background(), runner))
	require.Error(t, err)

	sweeper.mu.Lock()
	defer sweeper.mu.Unlock()
	assert.False(t, sweeper.started, "zero sweep interval should not start sweepers")
	assert.True(t, sweeper.closed)
}

func TestRunner_PeriodicCleanup(t *testing.T) {
	cleaner := &fakeCleaner{}
	runner := NewRunner(Config{
		CleanupInterval: 10 * time.Millisecond,
		MaxAge:          72 * time.Hour,
	}, testLogger(), WithCleaner(cleaner))

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, runner)

	require.Eventually(t, func() bool { return cleaner.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, waitDone(t, done))
	assert.Equal(t, int64(72*time.Hour), cleaner.maxAge.Load())
}

func TestRunner_CleanupErrorsDoNotStop(t *testing.T) {
	cleaner := &fakeCleaner{err: errors.New("database is locked")}
	runner := NewRunner(Config{CleanupInterval: 5 * time.Millisecond, MaxAge: time.Hour}, testLogger(), WithCleaner(cleaner))

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(ctx, runner)

	require.Eventually(t, func() bool { return cleaner.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, waitDone(t, done))
}

func TestRunner_NothingConfigured(t *testing.T) {
	runner := NewRunner(Config{}, testLogger())
	require.NoError(t, runner.Run(context.Background()))
}
