package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/BearBump/FreightDesk/internal/broker/messages"
	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/services/inbox"
	"github.com/BearBump/FreightDesk/internal/storage"
	"github.com/BearBump/FreightDesk/internal/storage/memstore"
	"github.com/BearBump/FreightDesk/internal/tenant"
)

type fakeDeliverer struct {
	mu      sync.Mutex
	calls   int
	errs    []error
	company string
	got     []inbox.NotificationInput
}

func (d *fakeDeliverer) Deliver(ctx context.Context, companyID string, in inbox.NotificationInput) (*models.Notification, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if len(d.errs) > 0 {
		err := d.errs[0]
		d.errs = d.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	d.company = companyID
	d.got = append(d.got, in)
	return &models.Notification{UserID: in.UserID}, nil
}

// sliceConsumer feeds its messages to the handler once, then blocks until ctx ends.
type sliceConsumer struct {
	msgs      [][]byte
	committed int
	runs      int
	err       error
}

func (c *sliceConsumer) Consume(ctx context.Context, handler func(ctx context.Context, key, value []byte) error) error {
	c.runs++
	if c.err != nil {
		return c.err
	}
	for _, m := range c.msgs {
		if err := handler(ctx, nil, m); err != nil {
			return err
		}
		c.committed++
	}
	c.msgs = nil
	<-ctx.Done()
	return ctx.Err()
}

func event(t *testing.T, typ messages.EventType, notify string, payload any) []byte {
	t.Helper()
	ev, err := messages.DomainEvent{
		ID: "ev-1", Type: typ, CompanyID: "A", EntityID: "x",
		OccurredAt: time.Now().UTC(), NotifyUserID: notify,
	}.WithPayload(payload)
	require.NoError(t, err)
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return b
}

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newTestNotifier(c Consumer, d Deliverer) *Notifier {
	n := New(c, d, logger.Nop())
	n.sleep = noSleep
	return n
}

func TestHandle_DeliversAssignment(t *testing.T) {
	d := &fakeDeliverer{}
	n := newTestNotifier(nil, d)

	msg := event(t, messages.LoadAssigned, "u-1", messages.LoadAssignedPayload{
		LoadID: "l-1", ReferenceNumber: "REF-7", AssignmentID: "as-1", DriverID: "d-1",
	})
	require.NoError(t, n.Handle(context.Background(), []byte("l-1"), msg))

	require.Equal(t, "A", d.company)
	require.Len(t, d.got, 1)
	got := d.got[0]
	require.Equal(t, "u-1", got.UserID)
	require.Equal(t, models.NotificationAssignment, got.Type)
	require.Contains(t, got.Message, "REF-7")
	require.Equal(t, "/loads/l-1", *got.Link)
	require.JSONEq(t, `{"load_id":"l-1","reference_number":"REF-7","assignment_id":"as-1","driver_id":"d-1"}`, string(got.Data))

	st := n.Stats()
	require.EqualValues(t, 1, st.Received)
	require.EqualValues(t, 1, st.Delivered)
	require.NotNil(t, st.LastEventAt)
}

func TestHandle_SkipsWithoutRecipientOrMalformed(t *testing.T) {
	d := &fakeDeliverer{}
	n := newTestNotifier(nil, d)
	ctx := context.Background()

	require.NoError(t, n.Handle(ctx, nil, []byte("{not json")))
	require.NoError(t, n.Handle(ctx, nil, []byte(`{"type":"load.assigned"}`)))
	require.NoError(t, n.Handle(ctx, nil, event(t, messages.LoadStatusChanged, "", messages.LoadStatusChangedPayload{})))
	require.NoError(t, n.Handle(ctx, nil, event(t, "load.teleported", "u-1", struct{}{})))

	require.Zero(t, d.calls)
	require.EqualValues(t, 4, n.Stats().Skipped)
}

func TestHandle_RetriesInfrastructureFailures(t *testing.T) {
	d := &fakeDeliverer{errs: []error{errors.New("conn reset"), errors.New("conn reset")}}
	n := newTestNotifier(nil, d)

	msg := event(t, messages.PaymentCompleted, "u-1", messages.PaymentCompletedPayload{
		InvoiceID: "i-1", InvoiceNumber: "INV-1", Amount: "700.00", Remaining: "300.00", Currency: "USD",
	})
	require.NoError(t, n.Handle(context.Background(), nil, msg))
	require.Equal(t, 3, d.calls)
	require.Len(t, d.got, 1)
	require.Equal(t, models.NotificationPayment, d.got[0].Type)
	require.Contains(t, d.got[0].Message, "700.00 USD")
	require.Contains(t, d.got[0].Message, "300.00 USD remaining")
}

func TestHandle_DropsAfterRetriesAndOnBusinessErrors(t *testing.T) {
	boom := errors.New("db down")
	d := &fakeDeliverer{errs: []error{boom, boom, boom, boom}}
	n := newTestNotifier(nil, d).WithBackoff(BackoffConfig{Attempts: 4})

	msg := event(t, messages.DriverRatingUpdated, "u-1", messages.DriverRatingUpdatedPayload{DriverID: "d-1", Rating: 4.5, Count: 2})
	require.NoError(t, n.Handle(context.Background(), nil, msg))
	require.Equal(t, 4, d.calls)
	require.EqualValues(t, 1, n.Stats().Failed)
	require.Contains(t, n.Stats().LastError, "db down")

	d2 := &fakeDeliverer{errs: []error{errs.NotFound("user")}}
	n2 := newTestNotifier(nil, d2)
	require.NoError(t, n2.Handle(context.Background(), nil, msg))
	require.Equal(t, 1, d2.calls)
	require.EqualValues(t, 1, n2.Stats().Failed)
}

func TestHandle_CanceledContextLeavesMessageUncommitted(t *testing.T) {
	d := &fakeDeliverer{errs: []error{errors.New("timeout")}}
	n := New(nil, d, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msg := event(t, messages.DriverRatingUpdated, "u-1", messages.DriverRatingUpdatedPayload{Rating: 5, Count: 1})
	require.ErrorIs(t, n.Handle(ctx, nil, msg), context.Canceled)
}

func TestRun_StopsOnCtxCancel(t *testing.T) {
	c := &sliceConsumer{}
	n := newTestNotifier(c, &fakeDeliverer{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRun_RestartsFailedConsumer(t *testing.T) {
	c := &sliceConsumer{err: errors.New("broker unavailable")}
	n := New(c, &fakeDeliverer{}, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	restarts := 0
	n.sleep = func(context.Context, time.Duration) error {
		restarts++
		if restarts == 3 {
			cancel()
			return context.Canceled
		}
		return nil
	}

	require.ErrorIs(t, n.Run(ctx), context.Canceled)
	require.Equal(t, 3, c.runs)
	require.Equal(t, "broker unavailable", n.Stats().LastError)
}

func TestBackoff(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: 100 * time.Millisecond, Max: time.Second})
	require.Equal(t, 4, b.Attempts())
	require.Equal(t, 100*time.Millisecond, b.Delay(1))
	require.Equal(t, 200*time.Millisecond, b.Delay(2))
	require.Equal(t, 800*time.Millisecond, b.Delay(4))
	require.Equal(t, time.Second, b.Delay(5))
	require.Equal(t, time.Second, b.Delay(50))
	require.Equal(t, 2*time.Second, b.Restart())
}

// EndToEndSuite runs events through the real inbox on a memory store.
type EndToEndSuite struct {
	suite.Suite

	store *memstore.Store
	inbox *inbox.Service
	user  *models.User
}

func (s *EndToEndSuite) SetupTest() {
	s.store = memstore.New()
	s.inbox = inbox.New(s.store, logger.Nop())
	s.user = &models.User{Email: "driver@a.test"}
	s.Require().NoError(s.store.Update(context.Background(), tenant.System("A"), func(tx storage.Tx) error {
		return tx.CreateUser(context.Background(), s.user, "driver")
	}))
}

func (s *EndToEndSuite) TestAssignmentLandsInDriversInbox() {
	c := &sliceConsumer{msgs: [][]byte{
		event(s.T(), messages.LoadAssigned, s.user.ID, messages.LoadAssignedPayload{LoadID: "l-1", ReferenceNumber: "REF-1"}),
		event(s.T(), messages.LoadAssigned, "someone-else", messages.LoadAssignedPayload{LoadID: "l-2", ReferenceNumber: "REF-2"}),
	}}
	n := newTestNotifier(c, s.inbox)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	s.Eventually(func() bool { return n.Stats().Received == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	st := n.Stats()
	s.EqualValues(1, st.Delivered)
	s.EqualValues(1, st.Failed)
	s.Equal(2, c.committed)

	uctx := tenant.WithPrincipal(context.Background(), tenant.Principal{CompanyID: "A", UserID: s.user.ID})
	unread, err := s.inbox.UnreadNotifications(uctx)
	s.Require().NoError(err)
	s.Equal(1, unread)
}

func TestEndToEndSuite(t *testing.T) {
	suite.Run(t, new(EndToEndSuite))
}
