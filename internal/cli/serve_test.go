package cli

import (
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServeUntilReturnsListenError(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	server := &http.Server{Addr: l.Addr().String(), Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- serveUntil(server, make(chan os.Signal)) }()

	select {
	case err := <-done:
		assert.Error(t, err, "port already in use")
	case <-time.After(5 * time.Second):
		t.Fatal("serveUntil did not return after the listen failure")
	}
}

func TestServeUntilWaitsForInFlightRequests(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(200 * time.Millisecond)
		finished.Store(true)
		w.WriteHeader(http.StatusOK)
	})
	server := &http.Server{Addr: freeAddr(t), Handler: mux}

	quit := make(chan os.Signal, 1)
	done := make(chan error, 1)
	go func() { done <- serveUntil(server, quit) }()

	go func() {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			resp, err := http.Get("http://" + server.Addr + "/slow")
			if err == nil {
				resp.Body.Close()
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the handler")
	}
	quit <- syscall.SIGTERM

	select {
	case err := <-done:
		require.NoError(t, err)
		assert.True(t, finished.Load(), "handler should finish before serveUntil returns")
	case <-time.After(5 * time.Second):
		t.Fatal("serveUntil did not return after the signal")
	}
}
