package httpapi

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/facultyreview/internal/logging"
	"github.com/dmitrijs2005/facultyreview/internal/server/config"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *HTTPServer {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = testSecret
	return NewHTTPServer(cfg, logging.NewJSON(io.Discard, "error"), &fakeAuth{}, &fakeFaculties{}, &fakeImages{})
}

func TestServe_ListenerFailureReturns(t *testing.T) {
	srv := newServer(t)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, lis.Close())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(context.Background(), lis) }()

	select {
	case err := <-errCh:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after the listener failed")
	}
}

func TestServe_StopsOnCancel(t *testing.T) {
	srv := newServer(t)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, lis) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
