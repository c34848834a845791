package routes

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"accessible-env-backend/pkg/logger"
)

// Worker is a background loop that returns once its context is cancelled
type Worker func(ctx context.Context) error

// Serve runs srv on ln together with the workers until ctx is cancelled or
// one of them fails. The server drains its in-flight requests before the
// workers are stopped, so work those requests queue is still handled.
// onShutdown, when set, runs as soon as shutdown begins.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, onShutdown func(), workers ...Worker) error {
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		w := w
		g.Go(func() error {
			return w(workerCtx)
		})
	}
	g.Go(func() error {
		logger.Info("server listening on http://%s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		if onShutdown != nil {
			onShutdown()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		stopWorkers()
		return err
	})
	return g.Wait()
}
