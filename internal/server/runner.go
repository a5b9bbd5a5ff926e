// Package server runs the HTTP server alongside the background workers.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Config for the runner.
type Config struct {
	Addr              string
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
}

// Worker is a background component that runs until its context is canceled.
type Worker interface {
	Run(ctx context.Context) error
}

// Runner manages the HTTP server and background workers.
type Runner struct {
	handler http.Handler
	workers []Worker
	config  Config
	logger  *slog.Logger

	ready    chan struct{}
	addrOnce sync.Once
	addr     net.Addr
}

// NewRunner creates a new runner.
func NewRunner(handler http.Handler, cfg Config, logger *slog.Logger, workers ...Worker) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	return &Runner{
		handler: handler,
		workers: workers,
		config:  cfg,
		logger:  logger,
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the server is accepting connections.
func (r *Runner) Ready() <-chan struct{} {
	return r.ready
}

// Addr returns the listening address. It is nil until Ready is closed.
func (r *Runner) Addr() net.Addr {
	select {
	case <-r.ready:
		return r.addr
	default:
		return nil
	}
}

// Run serves HTTP and runs the workers. It blocks until ctx is canceled or a
// component fails. On shutdown, in-flight requests finish before the workers
// are stopped so their last visits are still recorded.
func (r *Runner) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.config.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	r.addrOnce.Do(func() {
		r.addr = ln.Addr()
		close(r.ready)
	})

	srv := &http.Server{
		Handler:           r.handler,
		ReadHeaderTimeout: r.config.ReadHeaderTimeout,
	}

	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorkers()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.logger.Info("http server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		defer stopWorkers()
		r.logger.Info("shutting down http server", "timeout", r.config.ShutdownTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), r.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	for _, w := range r.workers {
		g.Go(func() error {
			return w.Run(workerCtx)
		})
	}

	err = g.Wait()
	r.logger.Info("server stopped")
	return err
}
