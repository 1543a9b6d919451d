package main

import (
	"context"
	"time"

	"github.com/BearBump/FreightDesk/config"
	"github.com/BearBump/FreightDesk/internal/bootstrap"
	"github.com/BearBump/FreightDesk/internal/broker/kafka"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/services/inbox"
	"github.com/BearBump/FreightDesk/internal/services/notifier"
	"github.com/BearBump/FreightDesk/internal/storage"
)

type eventConsumer interface {
	notifier.Consumer
	Close() error
}

type workerFactories struct {
	newStorage  func(ctx context.Context, cfg *config.Config, log logger.Logger) (storage.Store, error)
	newConsumer func(cfg *config.Config) eventConsumer
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(ctx context.Context, cfg *config.Config, log logger.Logger) (storage.Store, error) {
			return bootstrap.OpenStore(ctx, cfg, 60*time.Second, log)
		},
		newConsumer: func(cfg *config.Config) eventConsumer {
			group := cfg.Kafka.NotifierGroupID
			if group == "" {
				group = "freight-notifier"
			}
			return kafka.NewConsumer(cfg.Kafka.Brokers(), bootstrap.EventsTopic(cfg), group)
		},
	}
}

func backoffConfig(cfg *config.Config) notifier.BackoffConfig {
	fd := cfg.FreightDesk
	return notifier.BackoffConfig{
		Attempts: fd.WorkerRetryAttempts,
		Initial:  time.Duration(fd.WorkerRetryInitialMs) * time.Millisecond,
		Max:      time.Duration(fd.WorkerRetryMaxMs) * time.Millisecond,
		Restart:  time.Duration(fd.WorkerRestartSeconds) * time.Second,
	}
}

// RunFreightWorker consumes domain events into notifications until ctx ends.
// onReady receives the notifier once storage and consumer are wired.
func RunFreightWorker(ctx context.Context, cfg *config.Config, f workerFactories, log logger.Logger, onReady func(*notifier.Notifier)) error {
	st, err := f.newStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	consumer := f.newConsumer(cfg)
	defer func() { _ = consumer.Close() }()

	n := notifier.New(consumer, inbox.New(st, log), log).WithBackoff(backoffConfig(cfg))
	if onReady != nil {
		onReady(n)
	}
	log.Info("notifier started", logger.String("topic", bootstrap.EventsTopic(cfg)))
	return n.Run(ctx)
}
