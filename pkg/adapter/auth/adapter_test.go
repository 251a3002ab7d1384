package auth

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/marmos91/dwserve/internal/httpserver"
	"github.com/marmos91/dwserve/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	assert.Equal(t, 1337, cfg.Port)
	assert.Equal(t, "/remauth.php", cfg.Endpoint)
	assert.EqualValues(t, 4096, cfg.MaxBodyBytes)
	assert.Equal(t, 5*time.Minute, cfg.IdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, BackendAcceptAll, cfg.Backend.Type)
}

func TestAdapter_KeepAliveRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	a := New(Config{Config: httpserver.Config{
		Host:            "127.0.0.1",
		Port:            port,
		ShutdownTimeout: time.Second,
	}}, nil, nil, logger.Discard())
	assert.Equal(t, "AUTH", a.Protocol())

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/remauth.php", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, 2*time.Second, 10*time.Millisecond)

	for _, user := range []string{"alice", "bob"} {
		resp, err := http.Post(url, "application/x-www-form-urlencoded", strings.NewReader(user+"&&pw"))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, strings.HasPrefix(string(body), "ok#Success.#12345#"+user+"#"+user+"@example.com#"), string(body))
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("adapter did not stop")
	}
}
