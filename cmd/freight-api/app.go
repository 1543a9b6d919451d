package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/BearBump/FreightDesk/internal/logger"
)

type freightAPIOpts struct {
	httpAddr string

	onListen func(httpAddr string)
}

func runFreightAPI(ctx context.Context, opts freightAPIOpts, handler http.Handler, log logger.Logger) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8080"
	}
	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}
	return serve(ctx, lis, handler, log)
}

func serve(ctx context.Context, lis net.Listener, handler http.Handler, log logger.Logger) error {
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("HTTP API listening", logger.String("addr", lis.Addr().String()))
	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}
