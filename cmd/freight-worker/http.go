package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BearBump/FreightDesk/config"
	"github.com/BearBump/FreightDesk/internal/services/notifier"
)

type workerHTTPOpts struct {
	httpAddr string
	onListen func(httpAddr string)

	notifier *atomic.Pointer[notifier.Notifier]
	cfg      *config.Config
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func workerRoutes(opts workerHTTPOpts) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.notifier == nil || opts.notifier.Load() == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		if opts.notifier == nil || opts.notifier.Load() == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "notifier not wired"})
			return
		}
		writeJSON(w, http.StatusOK, opts.notifier.Load().Stats())
	})
	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		if opts.cfg == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "config not wired"})
			return
		}
		// operational settings only, no credentials
		b := notifier.NewBackoff(backoffConfig(opts.cfg))
		writeJSON(w, http.StatusOK, map[string]any{
			"topic":          opts.cfg.Kafka.DomainEventsTopic,
			"groupId":        opts.cfg.Kafka.NotifierGroupID,
			"storage":        opts.cfg.FreightDesk.Storage,
			"retryAttempts":  b.Attempts(),
			"retryFirstMs":   b.Delay(1).Milliseconds(),
			"restartSeconds": b.Restart().Seconds(),
		})
	})
	return r
}

func runWorkerHTTPServer(ctx context.Context, opts workerHTTPOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8082"
	}
	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: workerRoutes(opts), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		_ = lis.Close()
	}()

	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}
