// Package bootstrap builds the infrastructure both binaries share from config.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/BearBump/FreightDesk/config"
	"github.com/BearBump/FreightDesk/internal/broker/events"
	"github.com/BearBump/FreightDesk/internal/broker/kafka"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/storage"
	"github.com/BearBump/FreightDesk/internal/storage/memstore"
	"github.com/BearBump/FreightDesk/internal/storage/pgstore"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	DefaultEventsTopic = "freightdesk.events"
)

func Logger(cfg *config.Config, namespace string) logger.Logger {
	return logger.New(logger.Options{
		Namespace:  namespace,
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
}

// OpenStore returns the configured store and its close func. Postgres is
// retried until wait elapses so the binaries can start alongside the database.
func OpenStore(ctx context.Context, cfg *config.Config, wait time.Duration, log logger.Logger) (storage.Store, error) {
	switch cfg.FreightDesk.Storage {
	case StorageMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		return memstore.New(), nil
	case "", StoragePostgres:
		return openPostgresWithRetry(ctx, cfg.Database.ConnString(), wait, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.FreightDesk.Storage)
	}
}

func openPostgresWithRetry(ctx context.Context, connString string, wait time.Duration, log logger.Logger) (*pgstore.Store, error) {
	deadline := time.Now().Add(wait)
	var lastErr error
	for {
		st, err := pgstore.New(ctx, connString, log)
		if err == nil {
			return st, nil
		}
		lastErr = err
		if !time.Now().Before(deadline) {
			break
		}
		log.Warn("postgres not ready, retrying", logger.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return nil, fmt.Errorf("postgres is not ready after %s: %w", wait, lastErr)
}

func EventsTopic(cfg *config.Config) string {
	if cfg.Kafka.DomainEventsTopic != "" {
		return cfg.Kafka.DomainEventsTopic
	}
	return DefaultEventsTopic
}

// EventSink publishes to kafka when a broker is configured and discards
// otherwise. The close func is never nil.
func EventSink(cfg *config.Config, log logger.Logger) (events.Sink, func()) {
	if cfg.Kafka.Host == "" {
		log.Warn("kafka not configured, domain events are discarded")
		return events.Discard, func() {}
	}
	p := kafka.NewProducer(cfg.Kafka.Brokers())
	return events.NewEmitter(p, EventsTopic(cfg), log), func() { _ = p.Close() }
}
