package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubWorker struct {
	started atomic.Bool
	stopped atomic.Bool
	err     error
}

func (w *stubWorker) Run(ctx context.Context) error {
	w.started.Store(true)
	if w.err != nil {
		return w.err
	}
	<-ctx.Done()
	w.stopped.Store(true)
	return nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
}

func startRunner(t *testing.T, runner *Runner) (cancel context.CancelFunc, done <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()

	select {
	case <-runner.Ready():
	case err := <-errCh:
		cancel()
		t.Fatalf("runner exited early: %v", err)
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("timeout waiting for runner to listen")
	}
	return cancel, errCh
}

func TestRunner_StartsAndStops(t *testing.T) {
	worker := &stubWorker{}
	runner := NewRunner(okHandler(), Config{Addr: "127.0.0.1:0"}, testLogger(), worker)

	cancel, done := startRunner(t, runner)

	resp, err := http.Get("http://" + runner.Addr().String() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok", string(body))
	assert.True(t, worker.started.Load())

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for runner to stop")
	}
	assert.True(t, worker.stopped.Load(), "workers stop after the http server")
}

func TestRunner_WorkerFailureStopsServer(t *testing.T) {
	boom := errors.New("worker failed")
	runner := NewRunner(okHandler(), Config{Addr: "127.0.0.1:0"}, testLogger(), &stubWorker{err: boom})

	err := runner.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRunner_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	runner := NewRunner(okHandler(), Config{Addr: ln.Addr().String()}, testLogger())
	err = runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
	assert.Nil(t, runner.Addr())
}

func TestRunner_InFlightRequestCompletes(t *testing.T) {
	started := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		time.Sleep(200 * time.Millisecond)
		_, _ = io.WriteString(w, "slow")
	})
	runner := NewRunner(handler, Config{Addr: "127.0.0.1:0"}, testLogger())
	cancel, done := startRunner(t, runner)

	respCh := make(chan string, 1)
	go func() {
		resp, err := http.Get("http://" + runner.Addr().String() + "/")
		if err != nil {
			respCh <- "error: " + err.Error()
			return
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		respCh <- string(body)
	}()

	<-started
	cancel()

	assert.Equal(t, "slow", <-respCh)
	require.NoError(t, <-done)
}

func TestNewRunner_Defaults(t *testing.T) {
	runner := NewRunner(okHandler(), Config{}, nil)
	require.NotNil(t, runner.logger)
	assert.Equal(t, 30*time.Second, runner.config.ShutdownTimeout)
	assert.Equal(t, 10*time.Second, runner.config.ReadHeaderTimeout)
	assert.Nil(t, runner.Addr())
}
