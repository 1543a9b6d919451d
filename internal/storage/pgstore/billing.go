package pgstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/money"
	"github.com/BearBump/FreightDesk/internal/query"
)

const invoiceCols = `
  id, company_id, invoice_number, driver_id, load_id, amount_cents,
  status, due_date, description, created_at, updated_at`

func scanInvoice(row pgx.Row) (*models.Invoice, error) {
	var inv models.Invoice
	var amount int64
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.InvoiceNumber, &inv.DriverID, &inv.LoadID, &amount,
		&inv.Status, &inv.DueDate, &inv.Description, &inv.CreatedAt, &inv.UpdatedAt,
	)
	inv.Amount = money.Amount(amount)
	return &inv, err
}

func (t *tx) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	now := t.now()
	inv.ID = uuid.NewString()
	inv.CompanyID = t.company()
	inv.CreatedAt, inv.UpdatedAt = now, now
	_, err := t.q.Exec(ctx, `
INSERT INTO invoices (`+invoiceCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
`, inv.ID, inv.CompanyID, inv.InvoiceNumber, inv.DriverID, inv.LoadID, int64(inv.Amount),
		inv.Status, inv.DueDate, inv.Description, now)
	return errors.Wrap(err, "insert invoice")
}

func (t *tx) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := scanInvoice(t.q.QueryRow(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE company_id = $1 AND id = $2`, t.company(), id))
	if err := one(err, "invoice", "select invoice"); err != nil {
		return nil, err
	}
	return inv, nil
}

// LockInvoice takes the row lock that orders concurrent payment completions
// on one invoice.
func (t *tx) LockInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	inv, err := scanInvoice(t.q.QueryRow(ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE company_id = $1 AND id = $2 FOR UPDATE`, t.company(), id))
	if err := one(err, "invoice", "lock invoice"); err != nil {
		return nil, err
	}
	return inv, nil
}

func (t *tx) ListInvoices(ctx context.Context, p query.Params) ([]*models.Invoice, int, error) {
	w := query.Scoped("company_id", t.company()).Apply(p, "status", "due_date", "invoice_number")
	total, err := t.count(ctx, "FROM invoices", w)
	if err != nil {
		return nil, 0, err
	}
	page, args := w.Paged(p)
	rows, err := t.q.Query(ctx,
		`SELECT `+invoiceCols+` FROM invoices `+w.SQL()+` ORDER BY created_at DESC, id DESC `+page, args...)
	items, err := collect(rows, err, "invoices", scanInvoice)
	return items, total, err
}

func (t *tx) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	inv.UpdatedAt = t.now()
	tag, err := t.q.Exec(ctx, `
UPDATE invoices SET
  invoice_number = $3, driver_id = $4, load_id = $5, amount_cents = $6,
  status = $7, due_date = $8, description = $9, updated_at = $10
WHERE company_id = $1 AND id = $2
`, t.company(), inv.ID, inv.InvoiceNumber, inv.DriverID, inv.LoadID, int64(inv.Amount),
		inv.Status, inv.DueDate, inv.Description, inv.UpdatedAt)
	return affected(tag, err, "invoice", "update invoice")
}

func (t *tx) DeleteInvoice(ctx context.Context, id string) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM invoices WHERE company_id = $1 AND id = $2`, t.company(), id)
	return affected(tag, err, "invoice", "delete invoice")
}

const paymentCols = `
  id, company_id, invoice_id, amount_cents, currency, status, method,
  transaction_id, created_at, updated_at`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var p models.Payment
	var amount int64
	err := row.Scan(
		&p.ID, &p.CompanyID, &p.InvoiceID, &amount, &p.Currency, &p.Status, &p.Method,
		&p.TransactionID, &p.CreatedAt, &p.UpdatedAt,
	)
	p.Amount = money.Amount(amount)
	return &p, err
}

func (t *tx) CreatePayment(ctx context.Context, pay *models.Payment) error {
	if _, err := t.GetInvoice(ctx, pay.InvoiceID); err != nil {
		return err
	}
	now := t.now()
	pay.ID = uuid.NewString()
	pay.CompanyID = t.company()
	pay.CreatedAt, pay.UpdatedAt = now, now
	_, err := t.q.Exec(ctx, `
INSERT INTO payments (`+paymentCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
`, pay.ID, pay.CompanyID, pay.InvoiceID, int64(pay.Amount), pay.Currency, pay.Status, pay.Method,
		pay.TransactionID, now)
	return errors.Wrap(err, "insert payment")
}

func (t *tx) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	p, err := scanPayment(t.q.QueryRow(ctx,
		`SELECT `+paymentCols+` FROM payments WHERE company_id = $1 AND id = $2`, t.company(), id))
	if err := one(err, "payment", "select payment"); err != nil {
		return nil, err
	}
	return p, nil
}

func (t *tx) ListPayments(ctx context.Context, p query.Params) ([]*models.Payment, int, error) {
	w := query.Scoped("company_id", t.company()).Apply(p, "status", "created_at", "transaction_id")
	total, err := t.count(ctx, "FROM payments", w)
	if err != nil {
		return nil, 0, err
	}
	page, args := w.Paged(p)
	rows, err := t.q.Query(ctx,
		`SELECT `+paymentCols+` FROM payments `+w.SQL()+` ORDER BY created_at DESC, id DESC `+page, args...)
	items, err := collect(rows, err, "payments", scanPayment)
	return items, total, err
}

func (t *tx) UpdatePayment(ctx context.Context, pay *models.Payment) error {
	pay.UpdatedAt = t.now()
	tag, err := t.q.Exec(ctx, `
UPDATE payments SET
  amount_cents = $3, currency = $4, status = $5, method = $6,
  transaction_id = $7, updated_at = $8
WHERE company_id = $1 AND id = $2
`, t.company(), pay.ID, int64(pay.Amount), pay.Currency, pay.Status, pay.Method,
		pay.TransactionID, pay.UpdatedAt)
	return affected(tag, err, "payment", "update payment")
}

func (t *tx) DeletePayment(ctx context.Context, id string) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM payments WHERE company_id = $1 AND id = $2`, t.company(), id)
	return affected(tag, err, "payment", "delete payment")
}

func (t *tx) CompletedTotal(ctx context.Context, invoiceID string) (money.Amount, error) {
	var total int64
	err := t.q.QueryRow(ctx, `
SELECT COALESCE(sum(amount_cents), 0)::bigint
FROM payments
WHERE company_id = $1 AND invoice_id = $2 AND status = $3
`, t.company(), invoiceID, models.PaymentStatusCompleted).Scan(&total)
	return money.Amount(total), errors.Wrap(err, "completed total")
}

func (t *tx) CountPayments(ctx context.Context, invoiceID string, statuses ...models.PaymentStatus) (int, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	var n int
	err := t.q.QueryRow(ctx, `
SELECT count(*)
FROM payments
WHERE company_id = $1 AND invoice_id = $2 AND status = ANY($3)
`, t.company(), invoiceID, names).Scan(&n)
	return n, errors.Wrap(err, "count payments")
}
