package billing

import (
	"context"
	"strings"

	"github.com/BearBump/FreightDesk/internal/broker/messages"
	"github.com/BearBump/FreightDesk/internal/lifecycle"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/money"
	"github.com/BearBump/FreightDesk/internal/query"
	"github.com/BearBump/FreightDesk/internal/reconcile"
	"github.com/BearBump/FreightDesk/internal/services/svc"
	"github.com/BearBump/FreightDesk/internal/storage"
	"github.com/BearBump/FreightDesk/internal/tenant"
	"github.com/BearBump/FreightDesk/internal/validate"
)

type PaymentInput struct {
	InvoiceID     string               `json:"invoiceId" validate:"required"`
	Amount        money.Amount         `json:"amount"`
	Currency      string               `json:"currency" validate:"omitempty,len=3,alpha"`
	Status        models.PaymentStatus `json:"status"`
	Method        models.PaymentMethod `json:"method" validate:"required,oneof=card ach wire check cash"`
	TransactionID string               `json:"transactionId" validate:"max=128"`
}

// PaymentUpdateInput is a partial update; nil fields are left unchanged.
type PaymentUpdateInput struct {
	Amount        *money.Amount         `json:"amount"`
	Status        *models.PaymentStatus `json:"status"`
	Method        *models.PaymentMethod `json:"method" validate:"omitnil,oneof=card ach wire check cash"`
	TransactionID *string               `json:"transactionId" validate:"omitnil,max=128"`
}

type completion struct {
	inv       *models.Invoice
	remaining money.Amount
	notify    string
}

// complete runs the overpayment check for pay under the invoice row lock. The
// completed sum read here excludes pay itself.
func complete(ctx context.Context, tx storage.Tx, pay *models.Payment) (*completion, error) {
	inv, err := tx.LockInvoice(ctx, pay.InvoiceID)
	if err != nil {
		return nil, err
	}
	completed, err := tx.CompletedTotal(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	if err := reconcile.CheckPayment(inv, completed, pay.Amount); err != nil {
		return nil, err
	}
	c := &completion{inv: inv, remaining: reconcile.RemainingBalance(inv.Amount, completed+pay.Amount)}
	if inv.DriverID != nil {
		// The driver may have been removed; the payment still goes through.
		if d, err := tx.GetDriver(ctx, *inv.DriverID); err == nil {
			c.notify = d.UserID
		}
	}
	return c, nil
}

// RecordPayment creates a payment. A payment created as completed must fit in
// the invoice's remaining balance.
func (s *Service) RecordPayment(ctx context.Context, in PaymentInput) (*models.Payment, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "record payment", sc, err)
	}
	if err := money.Check("amount", in.Amount); err != nil {
		return nil, svc.Report(s.log, "record payment", sc, err)
	}
	status := svc.Or(&in.Status, models.PaymentStatusPending)
	if err := lifecycle.Payment.Check(status); err != nil {
		return nil, svc.Report(s.log, "record payment", sc, err)
	}

	pay := &models.Payment{
		InvoiceID:     in.InvoiceID,
		Amount:        in.Amount,
		Currency:      strings.ToUpper(svc.Or(&in.Currency, money.DefaultCurrency)),
		Status:        status,
		Method:        in.Method,
		TransactionID: in.TransactionID,
	}
	var done *completion
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		if pay.Status == models.PaymentStatusCompleted {
			if done, err = complete(ctx, tx, pay); err != nil {
				return err
			}
		}
		return tx.CreatePayment(ctx, pay)
	})
	if err != nil {
		return nil, svc.Report(s.log, "record payment", sc, err, logger.String("invoice_id", in.InvoiceID))
	}
	if done != nil {
		s.emitCompleted(ctx, sc, pay, done)
	}
	return pay, nil
}

func (s *Service) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	var pay *models.Payment
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		pay, err = tx.GetPayment(ctx, id)
		return err
	})
	if err != nil {
		return nil, svc.Report(s.log, "get payment", sc, err, logger.String("payment_id", id))
	}
	return pay, nil
}

// ListPayments searches transaction ids; the date range applies to creation.
func (s *Service) ListPayments(ctx context.Context, p query.Params) (query.Page[*models.Payment], error) {
	var page query.Page[*models.Payment]
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return page, err
	}
	if p, err = p.Normalize(); err != nil {
		return page, err
	}
	if p.Status != "" {
		if err := lifecycle.Payment.Check(models.PaymentStatus(p.Status)); err != nil {
			return page, err
		}
	}
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		items, total, err := tx.ListPayments(ctx, p)
		page = query.NewPage(items, total, p)
		return err
	})
	return page, svc.Report(s.log, "list payments", sc, err)
}

// UpdatePayment edits a payment that is still pending or failed. Moving it to
// completed runs the same overpayment check as recording a completed payment.
func (s *Service) UpdatePayment(ctx context.Context, id string, in PaymentUpdateInput) (*models.Payment, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "update payment", sc, err)
	}
	if in.Amount != nil {
		if err := money.Check("amount", *in.Amount); err != nil {
			return nil, svc.Report(s.log, "update payment", sc, err)
		}
	}

	var (
		pay  *models.Payment
		done *completion
	)
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		if pay, err = tx.GetPayment(ctx, id); err != nil {
			return err
		}
		if err := lifecycle.CheckPaymentMutable(pay); err != nil {
			return err
		}
		from := pay.Status
		if in.Status != nil {
			if err := lifecycle.Payment.Transition(pay.Status, *in.Status); err != nil {
				return err
			}
			pay.Status = *in.Status
		}
		if in.Amount != nil {
			pay.Amount = *in.Amount
		}
		if in.Method != nil {
			pay.Method = *in.Method
		}
		if in.TransactionID != nil {
			pay.TransactionID = *in.TransactionID
		}
		if from != models.PaymentStatusCompleted && pay.Status == models.PaymentStatusCompleted {
			if done, err = complete(ctx, tx, pay); err != nil {
				return err
			}
		}
		return tx.UpdatePayment(ctx, pay)
	})
	if err != nil {
		return nil, svc.Report(s.log, "update payment", sc, err, logger.String("payment_id", id))
	}
	if done != nil {
		s.emitCompleted(ctx, sc, pay, done)
	}
	return pay, nil
}

func (s *Service) DeletePayment(ctx context.Context, id string) error {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return err
	}
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		pay, err := tx.GetPayment(ctx, id)
		if err != nil {
			return err
		}
		if err := lifecycle.CheckPaymentMutable(pay); err != nil {
			return err
		}
		return tx.DeletePayment(ctx, id)
	})
	return svc.Report(s.log, "delete payment", sc, err, logger.String("payment_id", id))
}

func (s *Service) emitCompleted(ctx context.Context, sc tenant.Scope, pay *models.Payment, c *completion) {
	ev, err := messages.DomainEvent{
		Type:         messages.PaymentCompleted,
		CompanyID:    sc.CompanyID,
		ActorID:      sc.UserID,
		EntityID:     pay.ID,
		NotifyUserID: c.notify,
	}.WithPayload(messages.PaymentCompletedPayload{
		PaymentID:     pay.ID,
		InvoiceID:     c.inv.ID,
		InvoiceNumber: c.inv.InvoiceNumber,
		Amount:        pay.Amount.String(),
		Remaining:     c.remaining.String(),
		Currency:      pay.Currency,
	})
	if err != nil {
		s.log.Error("build payment event", logger.Error(err))
		return
	}
	s.events.Emit(ctx, ev)
	s.log.Info("payment completed",
		logger.String("company_id", sc.CompanyID),
		logger.String("payment_id", pay.ID),
		logger.String("invoice_id", c.inv.ID),
		logger.String("amount", pay.Amount.String()),
		logger.String("remaining", c.remaining.String()),
	)
}
