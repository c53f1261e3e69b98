package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/phrazzld/answers-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPServer_Timeouts(t *testing.T) {
	srv := newHTTPServer(config.ServerConfig{Port: 8080, RequestTimeoutSeconds: 30}, http.NotFoundHandler())

	assert.Equal(t, 30*time.Second, srv.ReadTimeout)
	assert.Greater(t, srv.WriteTimeout, 30*time.Second)
	assert.NotZero(t, srv.ReadHeaderTimeout)
}

func TestServe_ShutsDownWhenContextCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := newHTTPServer(config.ServerConfig{RequestTimeoutSeconds: 5}, handler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, ln, srv, logger) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestMigrateCmd_RejectsUnknownCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing command", []string{"migrate"}},
		{"unknown command", []string{"migrate", "sideways"}},
		{"too many arguments", []string{"migrate", "up", "down"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := newRootCmd()
			root.SetArgs(tc.args)
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)

			assert.Error(t, root.Execute())
		})
	}
}
