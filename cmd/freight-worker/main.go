package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/BearBump/FreightDesk/config"
	"github.com/BearBump/FreightDesk/internal/bootstrap"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/services/notifier"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	log := bootstrap.Logger(cfg, "freight-worker")

	if err := run(cfg, log); err != nil {
		log.Error("freight-worker stopped", logger.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	_ = log.Sync()
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var current atomic.Pointer[notifier.Notifier]
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runWorkerHTTPServer(ctx, workerHTTPOpts{
			httpAddr: cfg.FreightDesk.WorkerHTTPAddr,
			notifier: &current,
			cfg:      cfg,
		})
	}()

	err := RunFreightWorker(ctx, cfg, defaultWorkerFactories(), log, current.Store)
	cancel()
	if herr := <-httpErr; herr != nil && !errors.Is(herr, context.Canceled) && err == nil {
		err = herr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
