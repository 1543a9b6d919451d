package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/BearBump/FreightDesk/config"
	"github.com/BearBump/FreightDesk/internal/api/freightapi"
	"github.com/BearBump/FreightDesk/internal/bootstrap"
	"github.com/BearBump/FreightDesk/internal/cache"
	"github.com/BearBump/FreightDesk/internal/cache/rediscache"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/services/billing"
	"github.com/BearBump/FreightDesk/internal/services/drivers"
	"github.com/BearBump/FreightDesk/internal/services/inbox"
	"github.com/BearBump/FreightDesk/internal/services/loads"
	"github.com/BearBump/FreightDesk/internal/services/users"
)

type freightAPIApp struct {
	opts    freightAPIOpts
	handler http.Handler
	log     logger.Logger
	closers []func()
}

// buildFreightAPI wires storage, cache, rate limiter and event sink from cfg.
// Redis and kafka are optional: without them the driver cache and the rate
// limiter are off and events are dropped.
func buildFreightAPI(ctx context.Context, cfg *config.Config, swaggerPath string, log logger.Logger) (*freightAPIApp, error) {
	app := &freightAPIApp{log: log, opts: freightAPIOpts{httpAddr: cfg.FreightDesk.HTTPAddr}}

	st, err := bootstrap.OpenStore(ctx, cfg, 60*time.Second, log)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, st.Close)

	var (
		c       cache.Bytes
		limiter freightapi.RateLimiter
	)
	if cfg.Redis.Host != "" {
		rc := rediscache.New(cfg.Redis.Addr())
		app.closers = append(app.closers, func() { _ = rc.Close() })
		c = rc
		if n := cfg.FreightDesk.RateLimitPerMinute; n > 0 {
			limiter = rediscache.NewRateLimiter(rc.Client(), int64(n), time.Minute)
		}
	}
	ttl := time.Duration(cfg.FreightDesk.DriverCacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	sink, closeSink := bootstrap.EventSink(cfg, log)
	app.closers = append(app.closers, closeSink)

	timeout := time.Duration(cfg.FreightDesk.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if cfg.Auth.JWTSecret == "" {
		app.Close()
		return nil, fmt.Errorf("auth.jwt_secret is required")
	}

	api := freightapi.New(freightapi.Services{
		Drivers: drivers.New(st, c, ttl, sink, log),
		Loads:   loads.New(st, sink, log),
		Billing: billing.New(st, sink, log),
		Users:   users.New(st, log),
		Inbox:   inbox.New(st, log),
	}, freightapi.Options{
		JWTSecret:      cfg.Auth.JWTSecret,
		Issuer:         cfg.Auth.Issuer,
		RequestTimeout: timeout,
		SwaggerPath:    swaggerPath,
	}, limiter, log)
	app.handler = api.Routes()
	return app, nil
}

func (a *freightAPIApp) Run(ctx context.Context) error {
	return runFreightAPI(ctx, a.opts, a.handler, a.log)
}

// Close releases resources in reverse order of acquisition.
func (a *freightAPIApp) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
