package memstore

import (
	"context"
	"slices"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/money"
	"github.com/BearBump/FreightDesk/internal/query"
)

func (t *tx) invoiceNumberTaken(number, exceptID string) bool {
	for _, inv := range t.d.invoices {
		if inv.ID != exceptID && inv.CompanyID == t.sc.CompanyID && inv.InvoiceNumber == number {
			return true
		}
	}
	return false
}

func (t *tx) CreateInvoice(_ context.Context, inv *models.Invoice) error {
	if err := t.write(); err != nil {
		return err
	}
	if t.invoiceNumberTaken(inv.InvoiceNumber, "") {
		return errs.Conflict("invoiceNumber", "invoice %s already exists", inv.InvoiceNumber)
	}
	now := t.now()
	inv.ID = newID()
	inv.CompanyID = t.sc.CompanyID
	inv.CreatedAt, inv.UpdatedAt = now, now
	t.d.invoices[inv.ID] = *inv
	return nil
}

func (t *tx) GetInvoice(_ context.Context, id string) (*models.Invoice, error) {
	inv, ok := t.d.invoices[id]
	if !ok || !t.owns(inv.CompanyID) {
		return nil, errs.NotFound("invoice")
	}
	return &inv, nil
}

// LockInvoice is a plain read here: Update already holds the writer lock for
// the whole unit of work.
func (t *tx) LockInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	if err := t.write(); err != nil {
		return nil, err
	}
	return t.GetInvoice(ctx, id)
}

func (t *tx) ListInvoices(_ context.Context, p query.Params) ([]*models.Invoice, int, error) {
	items, total := list(t.d.invoices, p,
		func(inv models.Invoice) bool {
			return t.owns(inv.CompanyID) &&
				p.MatchStatus(string(inv.Status)) &&
				p.InRange(inv.DueDate) &&
				query.MatchText(p.Search, inv.InvoiceNumber)
		},
		func(a, b models.Invoice) bool { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	)
	return items, total, nil
}

func (t *tx) UpdateInvoice(_ context.Context, inv *models.Invoice) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.d.invoices[inv.ID]
	if !ok || !t.owns(cur.CompanyID) {
		return errs.NotFound("invoice")
	}
	if t.invoiceNumberTaken(inv.InvoiceNumber, inv.ID) {
		return errs.Conflict("invoiceNumber", "invoice %s already exists", inv.InvoiceNumber)
	}
	inv.CompanyID = cur.CompanyID
	inv.CreatedAt = cur.CreatedAt
	inv.UpdatedAt = t.now()
	t.d.invoices[inv.ID] = *inv
	return nil
}

func (t *tx) DeleteInvoice(_ context.Context, id string) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.d.invoices[id]
	if !ok || !t.owns(cur.CompanyID) {
		return errs.NotFound("invoice")
	}
	delete(t.d.invoices, id)
	for k, v := range t.d.payments {
		if v.InvoiceID == id {
			delete(t.d.payments, k)
		}
	}
	return nil
}

func (t *tx) CreatePayment(_ context.Context, pay *models.Payment) error {
	if err := t.write(); err != nil {
		return err
	}
	inv, ok := t.d.invoices[pay.InvoiceID]
	if !ok || !t.owns(inv.CompanyID) {
		return errs.NotFound("invoice")
	}
	now := t.now()
	pay.ID = newID()
	pay.CompanyID = t.sc.CompanyID
	pay.CreatedAt, pay.UpdatedAt = now, now
	t.d.payments[pay.ID] = *pay
	return nil
}

func (t *tx) GetPayment(_ context.Context, id string) (*models.Payment, error) {
	pay, ok := t.d.payments[id]
	if !ok || !t.owns(pay.CompanyID) {
		return nil, errs.NotFound("payment")
	}
	return &pay, nil
}

func (t *tx) ListPayments(_ context.Context, p query.Params) ([]*models.Payment, int, error) {
	items, total := list(t.d.payments, p,
		func(pay models.Payment) bool {
			return t.owns(pay.CompanyID) &&
				p.MatchStatus(string(pay.Status)) &&
				p.InRange(pay.CreatedAt) &&
				query.MatchText(p.Search, pay.TransactionID)
		},
		func(a, b models.Payment) bool { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	)
	return items, total, nil
}

func (t *tx) UpdatePayment(_ context.Context, pay *models.Payment) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.d.payments[pay.ID]
	if !ok || !t.owns(cur.CompanyID) {
		return errs.NotFound("payment")
	}
	pay.CompanyID = cur.CompanyID
	pay.InvoiceID = cur.InvoiceID
	pay.CreatedAt = cur.CreatedAt
	pay.UpdatedAt = t.now()
	t.d.payments[pay.ID] = *pay
	return nil
}

func (t *tx) DeletePayment(_ context.Context, id string) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.d.payments[id]
	if !ok || !t.owns(cur.CompanyID) {
		return errs.NotFound("payment")
	}
	delete(t.d.payments, id)
	return nil
}

func (t *tx) CompletedTotal(_ context.Context, invoiceID string) (money.Amount, error) {
	var total money.Amount
	for _, pay := range t.d.payments {
		if pay.InvoiceID == invoiceID && t.owns(pay.CompanyID) && pay.Status == models.PaymentStatusCompleted {
			total += pay.Amount
		}
	}
	return total, nil
}

func (t *tx) CountPayments(_ context.Context, invoiceID string, statuses ...models.PaymentStatus) (int, error) {
	n := 0
	for _, pay := range t.d.payments {
		if pay.InvoiceID == invoiceID && t.owns(pay.CompanyID) && slices.Contains(statuses, pay.Status) {
			n++
		}
	}
	return n, nil
}
