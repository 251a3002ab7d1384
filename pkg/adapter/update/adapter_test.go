package update

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/marmos91/dwserve/internal/httpserver"
	"github.com/marmos91/dwserve/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freePort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, 80, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Minute, cfg.WriteTimeout)
	assert.Equal(t, 2*time.Minute, cfg.IdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)

	cfg = Config{Config: httpserver.Config{Port: 8080, WriteTimeout: time.Minute}}
	cfg.ApplyDefaults()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, time.Minute, cfg.WriteTimeout)
}

func TestNew_PanicsWithoutRoots(t *testing.T) {
	assert.Panics(t, func() {
		New(Config{}, nil, nil, nil, logger.Discard())
	})
}

func TestAdapter_ServeOverTCP(t *testing.T) {
	_, roots := newTestRoots(t)

	port := freePort(t)
	a := New(Config{Config: httpserver.Config{
		Host:            "127.0.0.1",
		Port:            port,
		ShutdownTimeout: time.Second,
	}}, roots, nil, nil, logger.Discard())

	assert.Equal(t, "UPDATE", a.Protocol())
	assert.Equal(t, port, a.Port())

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", fmt.Sprint(port)))
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(base + "/bootstrap/config.xml")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, configXML, string(body))

	// The raw path must reach the handler uncleaned: no redirect, a 403.
	conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", fmt.Sprint(port)))
	require.NoError(t, err)
	_, err = io.WriteString(conn, "GET /../secret.txt HTTP/1.1\r\nHost: localhost\r\nConnection: close\r\n\r\n")
	require.NoError(t, err)
	raw, err := io.ReadAll(conn)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	assert.Contains(t, string(raw), "HTTP/1.1 403 Forbidden")
	assert.NotContains(t, string(raw), "do not serve")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("adapter did not stop")
	}
}
