package http_server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/jaennil/guide_helper/backend/world/pkg/config"
	"github.com/jaennil/guide_helper/backend/world/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_Config(t *testing.T) {
	srv := NewServer(context.Background(), config.Server{
		Port:         "8080",
		ReadTimeout:  time.Second,
		WriteTimeout: 2 * time.Second,
		IdleTimeout:  3 * time.Second,
	}, http.NotFoundHandler())

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, time.Second, srv.ReadTimeout)
	assert.Equal(t, 2*time.Second, srv.WriteTimeout)
	assert.Equal(t, 3*time.Second, srv.IdleTimeout)
}

func TestNewServer_ShutdownDrainsAfterSignal(t *testing.T) {
	l := logger.NewNoOp()
	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), l))

	entered := make(chan struct{})
	release := make(chan struct{})
	type result struct {
		ctxErr    error
		hasLogger bool
	}
	results := make(chan result, 1)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		results <- result{
			ctxErr:    r.Context().Err(),
			hasLogger: logger.FromContext(r.Context()) == l,
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := NewServer(ctx, config.Server{Port: "0"}, handler)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ln)

	respErr := make(chan error, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err == nil {
			resp.Body.Close()
		}
		respErr <- err
	}()

	<-entered
	cancel()

	shutdownDone := make(chan error, 1)
	go func() { shutdownDone <- srv.Shutdown(context.Background()) }()

	close(release)

	res := <-results
	assert.NoError(t, res.ctxErr, "request context must outlive the shutdown signal")
	assert.True(t, res.hasLogger)
	require.NoError(t, <-respErr)
	require.NoError(t, <-shutdownDone)
}
