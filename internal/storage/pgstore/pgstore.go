// Package pgstore implements storage.Store on PostgreSQL.
package pgstore

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/query"
	"github.com/BearBump/FreightDesk/internal/storage"
	"github.com/BearBump/FreightDesk/internal/tenant"
)

const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"

	maxAttempts = 3
)

type Store struct {
	db  *pgxpool.Pool
	log logger.Logger
	now func() time.Time
}

// New connects, applies pending migrations and returns the store.
func New(ctx context.Context, connString string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "parse pg config")
	}

	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "connect pg")
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping pg")
	}

	if err := Migrate(connString, log); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return errors.Wrap(s.db.Ping(ctx), "ping pg")
}

func (s *Store) View(ctx context.Context, sc tenant.Scope, fn func(tx storage.Tx) error) error {
	if !sc.Valid() {
		return errs.ErrNoPrincipal
	}
	pgtx, err := s.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return mapErr(errors.Wrap(err, "begin tx"))
	}
	defer func() { _ = pgtx.Rollback(ctx) }()

	if err := fn(&tx{sc: sc, q: pgtx, now: s.now}); err != nil {
		return mapErr(err)
	}
	return mapErr(errors.Wrap(pgtx.Commit(ctx), "commit tx"))
}

// Update runs fn in a serializable transaction, retrying serialization
// failures. fn must therefore be safe to run more than once.
func (s *Store) Update(ctx context.Context, sc tenant.Scope, fn func(tx storage.Tx) error) error {
	if !sc.Valid() {
		return errs.ErrNoPrincipal
	}
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.update(ctx, sc, fn)
		if !retryable(err) {
			break
		}
		s.log.Warn("retrying serializable transaction",
			logger.String("company_id", sc.CompanyID),
			logger.Int("attempt", attempt),
			logger.Error(err),
		)
	}
	return mapErr(err)
}

func (s *Store) update(ctx context.Context, sc tenant.Scope, fn func(tx storage.Tx) error) error {
	pgtx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = pgtx.Rollback(ctx) }()

	if err := fn(&tx{sc: sc, q: pgtx, now: s.now}); err != nil {
		return err
	}
	return errors.Wrap(pgtx.Commit(ctx), "commit tx")
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !stderrors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
}

// conflictFields maps unique constraints to the input field and message
// reported in the ConflictError.
var conflictFields = map[string][2]string{
	"uq_users_email":             {"email", "user with this email already exists"},
	"uq_drivers_user":            {"userId", "user already has a driver profile"},
	"uq_loads_reference":         {"referenceNumber", "load with this reference number already exists"},
	"uq_invoices_number":         {"invoiceNumber", "invoice with this number already exists"},
	"uq_load_assignments_active": {"loadId", "load already has an active assignment"},
	"uq_user_company_roles":      {"roleId", "user already has this role"},
}

// mapErr converts driver errors into the business taxonomy. Business errors
// returned by fn pass through untouched.
func mapErr(err error) error {
	if err == nil || errs.IsBusiness(err) {
		return err
	}
	if pgconn.Timeout(err) {
		return errs.FromContext(context.DeadlineExceeded)
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if f, ok := conflictFields[pgErr.ConstraintName]; ok {
				return errs.Conflict(f[0], "%s", f[1])
			}
			return errs.Conflict("", "%s", pgErr.Detail)
		case pgForeignKeyViolation:
			return errs.Conflict("", "record is still referenced by %s", pgErr.TableName)
		}
	}
	return errs.FromContext(err)
}

// querier is satisfied by pgx.Tx; kept narrow so helpers read like the pool
// based repos.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type tx struct {
	sc  tenant.Scope
	q   querier
	now func() time.Time
}

var _ storage.Tx = (*tx)(nil)

func (t *tx) Scope() tenant.Scope { return t.sc }

func (t *tx) company() string { return t.sc.CompanyID }

// one turns pgx.ErrNoRows into the entity's NotFoundError.
func one(err error, entity, op string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, pgx.ErrNoRows) {
		return errs.NotFound(entity)
	}
	return errors.Wrap(err, op)
}

// affected returns NotFound when an UPDATE/DELETE matched nothing in scope.
func affected(tag pgconn.CommandTag, err error, entity, op string) error {
	if err != nil {
		return errors.Wrap(err, op)
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFound(entity)
	}
	return nil
}

func (t *tx) count(ctx context.Context, from string, w *query.Where) (int, error) {
	var n int
	err := t.q.QueryRow(ctx, "SELECT count(*) "+from+" "+w.SQL(), w.Args()...).Scan(&n)
	return n, errors.Wrap(err, "count")
}

// collect scans every row with fn.
func collect[T any](rows pgx.Rows, err error, op string, fn func(pgx.Row) (*T, error)) ([]*T, error) {
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	defer rows.Close()

	out := make([]*T, 0)
	for rows.Next() {
		v, err := fn(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan "+op)
		}
		out = append(out, v)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}
