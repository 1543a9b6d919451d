package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BearBump/FreightDesk/config"
	"github.com/BearBump/FreightDesk/internal/broker/kafka"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/services/notifier"
	"github.com/BearBump/FreightDesk/internal/storage"
	"github.com/BearBump/FreightDesk/internal/storage/memstore"
)

type idleConsumer struct{ closed bool }

func (c *idleConsumer) Consume(ctx context.Context, _ func(ctx context.Context, key, value []byte) error) error {
	<-ctx.Done()
	return ctx.Err()
}

func (c *idleConsumer) Close() error {
	c.closed = true
	return nil
}

type closeTracker struct {
	*memstore.Store
	closed bool
}

func (s *closeTracker) Close() { s.closed = true }

func TestDefaultWorkerFactories(t *testing.T) {
	f := defaultWorkerFactories()
	cfg := &config.Config{
		Kafka:       config.KafkaConfig{Host: "localhost", Port: 9092},
		FreightDesk: config.FreightDeskConfig{Storage: "memory"},
	}
	c := f.newConsumer(cfg)
	_, ok := c.(*kafka.Consumer)
	require.True(t, ok)
	require.NoError(t, c.Close())

	st, err := f.newStorage(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	require.IsType(t, &memstore.Store{}, st)
}

func TestRunFreightWorker_ContextCanceled(t *testing.T) {
	st := &closeTracker{Store: memstore.New()}
	cons := &idleConsumer{}
	f := workerFactories{
		newStorage: func(context.Context, *config.Config, logger.Logger) (storage.Store, error) {
			return st, nil
		},
		newConsumer: func(*config.Config) eventConsumer { return cons },
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ready *notifier.Notifier
	err := RunFreightWorker(ctx, &config.Config{}, f, logger.Nop(), func(n *notifier.Notifier) { ready = n })
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, ready)
	require.True(t, st.closed)
	require.True(t, cons.closed)
}

func TestWorkerRoutes(t *testing.T) {
	var current atomic.Pointer[notifier.Notifier]
	cfg := &config.Config{FreightDesk: config.FreightDeskConfig{WorkerRetryAttempts: 6}}
	srv := httptest.NewServer(workerRoutes(workerHTTPOpts{notifier: &current, cfg: cfg}))
	defer srv.Close()

	get := func(path string) (int, map[string]any) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		out := map[string]any{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		return resp.StatusCode, out
	}

	code, _ := get("/healthz")
	require.Equal(t, http.StatusOK, code)
	code, _ = get("/readyz")
	require.Equal(t, http.StatusServiceUnavailable, code)
	code, _ = get("/stats")
	require.Equal(t, http.StatusServiceUnavailable, code)

	current.Store(notifier.New(&idleConsumer{}, nil, logger.Nop()))
	code, body := get("/readyz")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ready", body["status"])
	code, body = get("/stats")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "startedAt")
	require.EqualValues(t, 0, body["received"])

	code, body = get("/config")
	require.Equal(t, http.StatusOK, code)
	require.EqualValues(t, 6, body["retryAttempts"])
}
