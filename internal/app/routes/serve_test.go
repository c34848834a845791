package routes

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeStopsWorkersAfterInFlightRequests(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	queue := make(chan string, 1)
	srv := NewServer(ln.Addr().String(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		queue <- "late"
		w.WriteHeader(http.StatusNoContent)
	}))

	var handled []string
	worker := func(ctx context.Context) error {
		<-ctx.Done()
		for {
			select {
			case msg := <-queue:
				handled = append(handled, msg)
			default:
				return nil
			}
		}
	}

	started := false
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, srv, ln, 5*time.Second, func() { started = true }, worker)
	}()

	status := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			status <- 0
			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()

	<-entered
	cancel()
	// give an early worker stop the chance to happen before the request ends
	time.Sleep(100 * time.Millisecond)
	close(release)

	assert.Equal(t, http.StatusNoContent, <-status)
	require.NoError(t, <-done)
	assert.True(t, started)
	assert.Equal(t, []string{"late"}, handled, "work queued by an in-flight request is drained")
}

func TestServeStopsWhenAWorkerFails(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := NewServer(ln.Addr().String(), http.NotFoundHandler())

	boom := errors.New("boom")
	stopped := make(chan struct{})
	err = Serve(context.Background(), srv, ln, time.Second, nil,
		func(ctx context.Context) error { return boom },
		func(ctx context.Context) error {
			<-ctx.Done()
			close(stopped)
			return nil
		})
	assert.ErrorIs(t, err, boom)
	select {
	case <-stopped:
	default:
		t.Fatal("other workers keep running after a failure")
	}
}
