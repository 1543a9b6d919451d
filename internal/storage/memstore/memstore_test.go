package memstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/money"
	"github.com/BearBump/FreightDesk/internal/query"
	"github.com/BearBump/FreightDesk/internal/storage"
	"github.com/BearBump/FreightDesk/internal/tenant"
)

var (
	scopeA = tenant.Scope{CompanyID: "A", UserID: "u-a"}
	scopeB = tenant.Scope{CompanyID: "B", UserID: "u-b"}
)

// tickingClock hands out strictly increasing timestamps.
func tickingClock() func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newStore() *Store { return New().WithClock(tickingClock()) }

func seedUser(t *testing.T, st *Store, sc tenant.Scope, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, FirstName: "F", LastName: "L"}
	require.NoError(t, st.Update(context.Background(), sc, func(tx storage.Tx) error {
		return tx.CreateUser(context.Background(), u, "role-driver")
	}))
	return u
}

func seedDriver(t *testing.T, st *Store, sc tenant.Scope, userID string) *models.Driver {
	t.Helper()
	d := &models.Driver{UserID: userID, LicenseNumber: "LIC-" + userID, Status: models.DriverStatusActive, Rating: models.DefaultDriverRating}
	require.NoError(t, st.Update(context.Background(), sc, func(tx storage.Tx) error {
		return tx.CreateDriver(context.Background(), d)
	}))
	return d
}

func TestStore_RejectsMissingScope(t *testing.T) {
	st := newStore()
	err := st.View(context.Background(), tenant.Scope{}, func(storage.Tx) error { return nil })
	require.ErrorIs(t, err, errs.ErrNoPrincipal)
	err = st.Update(context.Background(), tenant.Scope{CompanyID: "  "}, func(storage.Tx) error { return nil })
	require.ErrorIs(t, err, errs.ErrNoPrincipal)
}

func TestStore_TenantIsolation(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	u := seedUser(t, st, scopeB, "b@example.com")
	d := seedDriver(t, st, scopeB, u.ID)

	err := st.View(ctx, scopeA, func(tx storage.Tx) error {
		_, err := tx.GetDriver(ctx, d.ID)
		return err
	})
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.Equal(t, "not found: driver not found", err.Error())

	err = st.View(ctx, scopeA, func(tx storage.Tx) error {
		_, err := tx.GetUser(ctx, u.ID)
		return err
	})
	require.ErrorIs(t, err, errs.ErrNotFound)

	err = st.View(ctx, scopeA, func(tx storage.Tx) error {
		items, total, err := tx.ListDrivers(ctx, query.Params{Page: 1, Limit: 10})
		require.Empty(t, items)
		require.Zero(t, total)
		return err
	})
	require.NoError(t, err)
}

func TestStore_UpdateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newStore()

	boom := fmt.Errorf("boom")
	err := st.Update(ctx, scopeA, func(tx storage.Tx) error {
		require.NoError(t, tx.CreateLoad(ctx, &models.Load{ReferenceNumber: "REF-1", Status: models.LoadStatusPending}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, st.View(ctx, scopeA, func(tx storage.Tx) error {
		_, total, err := tx.ListLoads(ctx, query.Params{Page: 1, Limit: 10})
		require.Zero(t, total)
		return err
	}))
}

func TestStore_ViewIsReadOnly(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	err := st.View(ctx, scopeA, func(tx storage.Tx) error {
		return tx.CreateLoad(ctx, &models.Load{ReferenceNumber: "REF-1"})
	})
	require.ErrorIs(t, err, errReadOnly)
}

func TestStore_ExpiredContextIsTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := newStore().Update(ctx, scopeA, func(storage.Tx) error { return nil })
	require.ErrorIs(t, err, errs.ErrTimeout)
}

func TestStore_Uniqueness(t *testing.T) {
	ctx := context.Background()
	st := newStore()

	u := seedUser(t, st, scopeA, "dup@example.com")
	err := st.Update(ctx, scopeB, func(tx storage.Tx) error {
		return tx.CreateUser(ctx, &models.User{Email: "DUP@example.com"}, "r")
	})
	require.ErrorIs(t, err, errs.ErrConflict)

	seedDriver(t, st, scopeA, u.ID)
	err = st.Update(ctx, scopeA, func(tx storage.Tx) error {
		return tx.CreateDriver(ctx, &models.Driver{UserID: u.ID, LicenseNumber: "X"})
	})
	require.ErrorIs(t, err, errs.ErrConflict)

	// Reference numbers are unique per tenant only.
	for _, sc := range []tenant.Scope{scopeA, scopeB} {
		require.NoError(t, st.Update(ctx, sc, func(tx storage.Tx) error {
			return tx.CreateLoad(ctx, &models.Load{ReferenceNumber: "REF-1"})
		}))
	}
	err = st.Update(ctx, scopeA, func(tx storage.Tx) error {
		return tx.CreateLoad(ctx, &models.Load{ReferenceNumber: "REF-1"})
	})
	require.ErrorIs(t, err, errs.ErrConflict)
}

func TestStore_ListLoadsPagingAndFilters(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, st.Update(ctx, scopeA, func(tx storage.Tx) error {
		for i := 0; i < 25; i++ {
			status := models.LoadStatusPending
			if i%5 == 0 {
				status = models.LoadStatusDelivered
			}
			city := "Denver"
			if i == 7 {
				city = "Chicago"
			}
			l := &models.Load{
				ReferenceNumber: fmt.Sprintf("REF-%02d", i),
				Pickup:          models.Address{City: city},
				PickupDate:      base.AddDate(0, 0, i),
				Status:          status,
			}
			if err := tx.CreateLoad(ctx, l); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, st.View(ctx, scopeA, func(tx storage.Tx) error {
		items, total, err := tx.ListLoads(ctx, query.Params{Page: 3, Limit: 10})
		require.NoError(t, err)
		require.Equal(t, 25, total)
		require.Len(t, items, 5)
		// newest first
		require.Equal(t, "REF-04", items[0].ReferenceNumber)

		items, total, err = tx.ListLoads(ctx, query.Params{Page: 1, Limit: 10, Search: "chic"})
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Equal(t, "REF-07", items[0].ReferenceNumber)

		_, total, err = tx.ListLoads(ctx, query.Params{Page: 1, Limit: 10, Status: "delivered"})
		require.NoError(t, err)
		require.Equal(t, 5, total)

		from, to := base.AddDate(0, 0, 10), base.AddDate(0, 0, 12)
		_, total, err = tx.ListLoads(ctx, query.Params{Page: 1, Limit: 10, From: &from, To: &to})
		require.NoError(t, err)
		require.Equal(t, 3, total)
		return nil
	}))
}

func TestStore_DeleteUserRemovesRoles(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	u := seedUser(t, st, scopeA, "x@example.com")

	require.NoError(t, st.Update(ctx, scopeA, func(tx storage.Tx) error {
		n, err := tx.DeleteUser(ctx, u.ID)
		require.Equal(t, 1, n)
		return err
	}))
	require.Empty(t, st.data.roles)
	require.Empty(t, st.data.users)
}

func TestStore_CompletedTotalCountsOnlyCompleted(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	inv := &models.Invoice{InvoiceNumber: "INV-1", Amount: money.FromMajor(1000), Status: models.InvoiceStatusPending}

	require.NoError(t, st.Update(ctx, scopeA, func(tx storage.Tx) error {
		if err := tx.CreateInvoice(ctx, inv); err != nil {
			return err
		}
		for _, s := range []models.PaymentStatus{models.PaymentStatusCompleted, models.PaymentStatusPending, models.PaymentStatusFailed, models.PaymentStatusCompleted} {
			if err := tx.CreatePayment(ctx, &models.Payment{InvoiceID: inv.ID, Amount: money.FromMajor(100), Status: s}); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, st.View(ctx, scopeA, func(tx storage.Tx) error {
		total, err := tx.CompletedTotal(ctx, inv.ID)
		require.NoError(t, err)
		require.Equal(t, money.FromMajor(200), total)

		n, err := tx.CountPayments(ctx, inv.ID, models.PaymentStatusPending, models.PaymentStatusFailed)
		require.Equal(t, 2, n)
		return err
	}))
	require.NoError(t, st.View(ctx, scopeB, func(tx storage.Tx) error {
		n, err := tx.CountPayments(ctx, inv.ID, models.PaymentStatusCompleted)
		require.Zero(t, n)
		return err
	}))
}

func TestStore_MessagesReadTracking(t *testing.T) {
	ctx := context.Background()
	st := newStore()
	alice := seedUser(t, st, scopeA, "alice@example.com")
	bob := seedUser(t, st, scopeA, "bob@example.com")

	conv := &models.Conversation{CreatedBy: alice.ID, ParticipantIDs: []string{alice.ID, bob.ID}}
	require.NoError(t, st.Update(ctx, scopeA, func(tx storage.Tx) error {
		if err := tx.CreateConversation(ctx, conv); err != nil {
			return err
		}
		for _, c := range []string{"one", "two"} {
			if err := tx.AppendMessage(ctx, &models.Message{ConversationID: conv.ID, SenderID: alice.ID, Content: c, Type: models.MessageText}); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, st.View(ctx, scopeA, func(tx storage.Tx) error {
		n, err := tx.CountUnreadMessages(ctx, bob.ID)
		require.Equal(t, 2, n)
		n, _ = tx.CountUnreadMessages(ctx, alice.ID)
		require.Zero(t, n)

		msgs, _, _ := tx.ListMessages(ctx, conv.ID, query.Params{Page: 1, Limit: 10})
		require.Equal(t, "one", msgs[0].Content)
		return err
	}))

	require.NoError(t, st.Update(ctx, scopeA, func(tx storage.Tx) error {
		n, err := tx.MarkConversationRead(ctx, conv.ID, bob.ID)
		require.Equal(t, 2, n)
		return err
	}))
	require.NoError(t, st.View(ctx, scopeA, func(tx storage.Tx) error {
		n, err := tx.CountUnreadMessages(ctx, bob.ID)
		require.Zero(t, n)
		return err
	}))
}
