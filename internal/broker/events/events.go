// Package events publishes domain events after a unit of work commits.
// Delivery is best effort: a broker outage is logged and never undoes or
// fails the business operation that produced the event.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/BearBump/FreightDesk/internal/broker/messages"
	"github.com/BearBump/FreightDesk/internal/logger"
)

type Sink interface {
	Emit(ctx context.Context, evs ...messages.DomainEvent)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

const publishTimeout = 5 * time.Second

type Emitter struct {
	pub   Publisher
	topic string
	log   logger.Logger
}

func NewEmitter(pub Publisher, topic string, log logger.Logger) *Emitter {
	if log == nil {
		log = logger.Nop()
	}
	return &Emitter{pub: pub, topic: topic, log: log}
}

func (e *Emitter) Emit(ctx context.Context, evs ...messages.DomainEvent) {
	// The request may already be finishing; the event still has to go out.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	for _, ev := range evs {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if ev.OccurredAt.IsZero() {
			ev.OccurredAt = time.Now().UTC()
		}
		b, err := json.Marshal(ev)
		if err != nil {
			e.log.Error("marshal domain event", logger.String("type", string(ev.Type)), logger.Error(err))
			continue
		}
		if err := e.pub.Publish(ctx, e.topic, []byte(ev.EntityID), b); err != nil {
			e.log.Error("publish domain event",
				logger.String("type", string(ev.Type)),
				logger.String("company_id", ev.CompanyID),
				logger.String("entity_id", ev.EntityID),
				logger.Error(err),
			)
		}
	}
}

type discard struct{}

func (discard) Emit(context.Context, ...messages.DomainEvent) {}

// Discard drops every event; used when no broker is configured.
var Discard Sink = discard{}
