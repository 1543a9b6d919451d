// Package notifier turns committed domain events into in-app notifications.
// Delivery is best effort: malformed events are skipped and a notification
// that still fails after retries is logged and dropped.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/BearBump/FreightDesk/internal/broker/messages"
	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/services/inbox"
)

type Consumer interface {
	Consume(ctx context.Context, handler func(ctx context.Context, key, value []byte) error) error
}

type Deliverer interface {
	Deliver(ctx context.Context, companyID string, in inbox.NotificationInput) (*models.Notification, error)
}

type Notifier struct {
	consumer Consumer
	inbox    Deliverer
	log      logger.Logger
	backoff  *Backoff
	sleep    func(ctx context.Context, d time.Duration) error

	startedAtUnixNano int64
	lastEventUnixNano atomic.Int64
	received          atomic.Int64
	delivered         atomic.Int64
	skipped           atomic.Int64
	failed            atomic.Int64
	lastErrorMu       sync.Mutex
	lastError         string
}

func New(consumer Consumer, inbox Deliverer, log logger.Logger) *Notifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{
		consumer:          consumer,
		inbox:             inbox,
		log:               log.With(logger.String("component", "notifier")),
		backoff:           NewBackoff(DefaultBackoffConfig()),
		sleep:             sleepCtx,
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (n *Notifier) WithBackoff(cfg BackoffConfig) *Notifier {
	n.backoff = NewBackoff(cfg)
	return n
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type Stats struct {
	StartedAt   time.Time  `json:"startedAt"`
	LastEventAt *time.Time `json:"lastEventAt,omitempty"`
	Received    int64      `json:"received"`
	Delivered   int64      `json:"delivered"`
	Skipped     int64      `json:"skipped"`
	Failed      int64      `json:"failed"`
	LastError   string     `json:"lastError,omitempty"`
}

func (n *Notifier) Stats() Stats {
	st := Stats{
		StartedAt: time.Unix(0, n.startedAtUnixNano).UTC(),
		Received:  n.received.Load(),
		Delivered: n.delivered.Load(),
		Skipped:   n.skipped.Load(),
		Failed:    n.failed.Load(),
	}
	if v := n.lastEventUnixNano.Load(); v > 0 {
		t := time.Unix(0, v).UTC()
		st.LastEventAt = &t
	}
	n.lastErrorMu.Lock()
	st.LastError = n.lastError
	n.lastErrorMu.Unlock()
	return st
}

func (n *Notifier) recordError(err error) {
	n.lastErrorMu.Lock()
	n.lastError = err.Error()
	n.lastErrorMu.Unlock()
}

// Run consumes until ctx ends. A failing consumer is restarted after a pause.
func (n *Notifier) Run(ctx context.Context) error {
	for {
		err := n.consumer.Consume(ctx, n.Handle)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			n.recordError(err)
			n.log.Error("event consumer stopped", logger.Error(err))
		}
		if err := n.sleep(ctx, n.backoff.Restart()); err != nil {
			return err
		}
	}
}

// Handle processes one raw event. It only returns an error when ctx ended,
// so that the message is not committed.
func (n *Notifier) Handle(ctx context.Context, key, value []byte) error {
	n.received.Add(1)
	n.lastEventUnixNano.Store(time.Now().UTC().UnixNano())

	var ev messages.DomainEvent
	if err := json.Unmarshal(value, &ev); err != nil || ev.CompanyID == "" || ev.Type == "" {
		n.skipped.Add(1)
		n.log.Warn("skip malformed event", logger.String("key", string(key)), logger.Int("size", len(value)))
		return nil
	}
	if ev.NotifyUserID == "" {
		n.skipped.Add(1)
		return nil
	}
	in, err := Render(ev)
	if err != nil {
		n.skipped.Add(1)
		n.log.Warn("skip unrenderable event",
			logger.String("type", string(ev.Type)),
			logger.String("event_id", ev.ID),
			logger.Error(err),
		)
		return nil
	}

	err = n.deliver(ctx, ev.CompanyID, in)
	switch {
	case err == nil:
		n.delivered.Add(1)
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		n.failed.Add(1)
		n.recordError(err)
		n.log.Error("notification dropped",
			logger.String("type", string(ev.Type)),
			logger.String("event_id", ev.ID),
			logger.String("company_id", ev.CompanyID),
			logger.String("user_id", ev.NotifyUserID),
			logger.Error(err),
		)
		return nil
	}
}

// deliver retries infrastructure failures. Business rejections (the user left
// the company, say) are final.
func (n *Notifier) deliver(ctx context.Context, companyID string, in inbox.NotificationInput) error {
	var err error
	for attempt := 1; attempt <= n.backoff.Attempts(); attempt++ {
		if _, err = n.inbox.Deliver(ctx, companyID, in); err == nil || errs.IsBusiness(err) {
			return err
		}
		if attempt == n.backoff.Attempts() {
			break
		}
		if serr := n.sleep(ctx, n.backoff.Delay(attempt)); serr != nil {
			return serr
		}
	}
	return errors.Wrapf(err, "deliver after %d attempts", n.backoff.Attempts())
}

// Render builds the notification an event produces for its NotifyUserID.
func Render(ev messages.DomainEvent) (inbox.NotificationInput, error) {
	in := inbox.NotificationInput{UserID: ev.NotifyUserID, Data: ev.Payload}
	switch ev.Type {
	case messages.LoadAssigned:
		var p messages.LoadAssignedPayload
		if err := ev.Decode(&p); err != nil {
			return in, err
		}
		in.Type = models.NotificationAssignment
		in.Title = "New load assignment"
		in.Message = fmt.Sprintf("You have been assigned load %s.", p.ReferenceNumber)
		in.Link = link("/loads/" + p.LoadID)
	case messages.LoadStatusChanged:
		var p messages.LoadStatusChangedPayload
		if err := ev.Decode(&p); err != nil {
			return in, err
		}
		in.Type = models.NotificationSystem
		in.Title = fmt.Sprintf("Load %s is %s", p.ReferenceNumber, p.To)
		in.Message = fmt.Sprintf("Load %s moved from %s to %s.", p.ReferenceNumber, p.From, p.To)
		in.Link = link("/loads/" + p.LoadID)
	case messages.PaymentCompleted:
		var p messages.PaymentCompletedPayload
		if err := ev.Decode(&p); err != nil {
			return in, err
		}
		in.Type = models.NotificationPayment
		in.Title = "Payment received"
		in.Message = fmt.Sprintf("Payment of %s %s on invoice %s completed, %s %s remaining.",
			p.Amount, p.Currency, p.InvoiceNumber, p.Remaining, p.Currency)
		in.Link = link("/invoices/" + p.InvoiceID)
	case messages.DriverRatingUpdated:
		var p messages.DriverRatingUpdatedPayload
		if err := ev.Decode(&p); err != nil {
			return in, err
		}
		in.Type = models.NotificationSystem
		in.Title = "Your rating was updated"
		in.Message = fmt.Sprintf("Your rating is now %.2f from %d ratings.", p.Rating, p.Count)
	default:
		return in, errors.Errorf("unknown event type %q", ev.Type)
	}
	return in, nil
}

func link(s string) *string { return &s }
