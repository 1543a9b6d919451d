// Package billing keeps invoices and their payments reconciled: the sum of
// completed payments never exceeds the invoice amount, and completed or
// refunded payments are frozen.
package billing

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/FreightDesk/internal/broker/events"
	"github.com/BearBump/FreightDesk/internal/errs"
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

type Service struct {
	store  storage.Store
	events events.Sink
	log    logger.Logger
}

func New(store storage.Store, sink events.Sink, log logger.Logger) *Service {
	if sink == nil {
		sink = events.Discard
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, events: sink, log: log.With(logger.String("service", "billing"))}
}

type InvoiceInput struct {
	InvoiceNumber string               `json:"invoiceNumber" validate:"required,max=64"`
	DriverID      *string              `json:"driverId"`
	LoadID        *string              `json:"loadId"`
	Amount        money.Amount         `json:"amount"`
	Status        models.InvoiceStatus `json:"status"`
	DueDate       time.Time            `json:"dueDate" validate:"required"`
	Description   string               `json:"description" validate:"max=2000"`
}

// InvoiceUpdateInput is a partial update; nil fields are left unchanged.
type InvoiceUpdateInput struct {
	InvoiceNumber *string               `json:"invoiceNumber" validate:"omitnil,min=1,max=64"`
	DriverID      *string               `json:"driverId"`
	LoadID        *string               `json:"loadId"`
	Amount        *money.Amount         `json:"amount"`
	Status        *models.InvoiceStatus `json:"status"`
	DueDate       *time.Time            `json:"dueDate"`
	Description   *string               `json:"description" validate:"omitnil,max=2000"`
}

// checkRefs verifies optional driver and load references resolve in scope.
func checkRefs(ctx context.Context, tx storage.Tx, driverID, loadID *string) error {
	if driverID != nil {
		if _, err := tx.GetDriver(ctx, *driverID); err != nil {
			return err
		}
	}
	if loadID != nil {
		if _, err := tx.GetLoad(ctx, *loadID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) CreateInvoice(ctx context.Context, in InvoiceInput) (*models.Invoice, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "create invoice", sc, err)
	}
	if err := money.Check("amount", in.Amount); err != nil {
		return nil, svc.Report(s.log, "create invoice", sc, err)
	}
	status := svc.Or(&in.Status, models.InvoiceStatusPending)
	if err := lifecycle.Invoice.Check(status); err != nil {
		return nil, svc.Report(s.log, "create invoice", sc, err)
	}

	inv := &models.Invoice{
		InvoiceNumber: strings.TrimSpace(in.InvoiceNumber),
		DriverID:      in.DriverID,
		LoadID:        in.LoadID,
		Amount:        in.Amount,
		Status:        status,
		DueDate:       in.DueDate.UTC(),
		Description:   in.Description,
	}
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		if err := checkRefs(ctx, tx, in.DriverID, in.LoadID); err != nil {
			return err
		}
		return tx.CreateInvoice(ctx, inv)
	})
	if err != nil {
		return nil, svc.Report(s.log, "create invoice", sc, err)
	}
	s.log.Info("invoice created",
		logger.String("company_id", sc.CompanyID),
		logger.String("invoice_id", inv.ID),
		logger.String("amount", inv.Amount.String()),
	)
	return inv, nil
}

// GetInvoice returns the invoice with its paid and remaining figures.
func (s *Service) GetInvoice(ctx context.Context, id string) (*models.InvoiceBalance, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	var bal models.InvoiceBalance
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		inv, err := tx.GetInvoice(ctx, id)
		if err != nil {
			return err
		}
		completed, err := tx.CompletedTotal(ctx, id)
		if err != nil {
			return err
		}
		bal = reconcile.Balance(inv, completed)
		return nil
	})
	if err != nil {
		return nil, svc.Report(s.log, "get invoice", sc, err, logger.String("invoice_id", id))
	}
	return &bal, nil
}

// RemainingBalance is amount minus completed payments, never negative.
func (s *Service) RemainingBalance(ctx context.Context, invoiceID string) (money.Amount, error) {
	bal, err := s.GetInvoice(ctx, invoiceID)
	if err != nil {
		return 0, err
	}
	return bal.Remaining, nil
}

// ListInvoices searches invoice numbers; the date range applies to the due date.
func (s *Service) ListInvoices(ctx context.Context, p query.Params) (query.Page[*models.Invoice], error) {
	var page query.Page[*models.Invoice]
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return page, err
	}
	if p, err = p.Normalize(); err != nil {
		return page, err
	}
	if p.Status != "" {
		if err := lifecycle.Invoice.Check(models.InvoiceStatus(p.Status)); err != nil {
			return page, err
		}
	}
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		items, total, err := tx.ListInvoices(ctx, p)
		page = query.NewPage(items, total, p)
		return err
	})
	return page, svc.Report(s.log, "list invoices", sc, err)
}

func (s *Service) UpdateInvoice(ctx context.Context, id string, in InvoiceUpdateInput) (*models.Invoice, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "update invoice", sc, err)
	}

	var inv *models.Invoice
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		if inv, err = tx.LockInvoice(ctx, id); err != nil {
			return err
		}
		if in.Status != nil {
			if err := lifecycle.Invoice.Transition(inv.Status, *in.Status); err != nil {
				return err
			}
			inv.Status = *in.Status
		}
		if in.Amount != nil {
			completed, err := tx.CompletedTotal(ctx, id)
			if err != nil {
				return err
			}
			if err := reconcile.CheckInvoiceAmount(*in.Amount, completed); err != nil {
				return err
			}
			inv.Amount = *in.Amount
		}
		if err := checkRefs(ctx, tx, in.DriverID, in.LoadID); err != nil {
			return err
		}
		applyInvoiceUpdate(inv, in)
		return tx.UpdateInvoice(ctx, inv)
	})
	if err != nil {
		return nil, svc.Report(s.log, "update invoice", sc, err, logger.String("invoice_id", id))
	}
	return inv, nil
}

func applyInvoiceUpdate(inv *models.Invoice, in InvoiceUpdateInput) {
	if in.InvoiceNumber != nil {
		inv.InvoiceNumber = strings.TrimSpace(*in.InvoiceNumber)
	}
	if in.DriverID != nil {
		inv.DriverID = in.DriverID
	}
	if in.LoadID != nil {
		inv.LoadID = in.LoadID
	}
	if in.DueDate != nil {
		inv.DueDate = in.DueDate.UTC()
	}
	if in.Description != nil {
		inv.Description = *in.Description
	}
}

// DeleteInvoice removes the invoice and its open payments. Invoices carrying
// completed or refunded payments are kept as the record of them.
func (s *Service) DeleteInvoice(ctx context.Context, id string) error {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return err
	}
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		inv, err := tx.LockInvoice(ctx, id)
		if err != nil {
			return err
		}
		completed, err := tx.CompletedTotal(ctx, id)
		if err != nil {
			return err
		}
		if completed > 0 {
			return errs.Immutable("invoice %s has %s in completed payments and cannot be deleted", inv.InvoiceNumber, completed)
		}
		locked, err := tx.CountPayments(ctx, id, lifecycle.LockedPaymentStatuses...)
		if err != nil {
			return err
		}
		if locked > 0 {
			return errs.Immutable("invoice %s has %d refunded payments and cannot be deleted", inv.InvoiceNumber, locked)
		}
		return tx.DeleteInvoice(ctx, id)
	})
	if err != nil {
		return svc.Report(s.log, "delete invoice", sc, err, logger.String("invoice_id", id))
	}
	s.log.Info("invoice deleted", logger.String("company_id", sc.CompanyID), logger.String("invoice_id", id))
	return nil
}
