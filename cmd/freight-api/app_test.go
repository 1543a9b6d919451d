package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/BearBump/FreightDesk/config"
	"github.com/BearBump/FreightDesk/internal/logger"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Auth:        config.AuthConfig{JWTSecret: "s"},
		FreightDesk: config.FreightDeskConfig{HTTPAddr: "127.0.0.1:0", Storage: "memory"},
	}
}

func TestRunFreightAPI_ServesAndStops(t *testing.T) {
	dir := t.TempDir()
	sw := filepath.Join(dir, "swagger.json")
	require.NoError(t, os.WriteFile(sw, []byte(`{"swagger":"2.0","info":{"title":"custom"}}`), 0o600))

	app, err := buildFreightAPI(context.Background(), memoryConfig(), sw, logger.Nop())
	require.NoError(t, err)
	defer app.Close()

	addrCh := make(chan string, 1)
	app.opts.onListen = func(addr string) { addrCh <- addr }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(ctx) }()

	addr := <-addrCh
	resp, err := http.Get("http://" + addr + "/swagger.json")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "custom")

	resp, err = http.Get("http://" + addr + "/api/v1/loads")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for server to stop")
	}
}

func TestBuildFreightAPI_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.Redis = config.RedisConfig{Host: mr.Host(), Port: mustPort(t, mr.Port())}
	cfg.FreightDesk.RateLimitPerMinute = 10

	app, err := buildFreightAPI(context.Background(), cfg, "", logger.Nop())
	require.NoError(t, err)
	require.Len(t, app.closers, 3)
	app.Close()
	require.Empty(t, app.closers)
}

func TestBuildFreightAPI_RequiresSecret(t *testing.T) {
	cfg := memoryConfig()
	cfg.Auth.JWTSecret = ""
	_, err := buildFreightAPI(context.Background(), cfg, "", logger.Nop())
	require.ErrorContains(t, err, "jwt_secret")
}

func mustPort(t *testing.T, s string) int {
	t.Helper()
	p, err := strconv.Atoi(s)
	require.NoError(t, err)
	return p
}
