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

const loadCols = `
  id, company_id, reference_number,
  pickup_address, pickup_city, pickup_state, pickup_zip,
  delivery_address, delivery_city, delivery_state, delivery_zip,
  pickup_date, delivery_date, commodity, weight_lbs, hazmat, special_handling,
  rate_cents, status, created_at, updated_at`

func scanLoad(row pgx.Row) (*models.Load, error) {
	var l models.Load
	var rate int64
	err := row.Scan(
		&l.ID, &l.CompanyID, &l.ReferenceNumber,
		&l.Pickup.Address, &l.Pickup.City, &l.Pickup.State, &l.Pickup.Zip,
		&l.Delivery.Address, &l.Delivery.City, &l.Delivery.State, &l.Delivery.Zip,
		&l.PickupDate, &l.DeliveryDate, &l.Commodity, &l.WeightLbs, &l.Hazmat, &l.SpecialHandling,
		&rate, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	l.Rate = money.Amount(rate)
	return &l, err
}

func (t *tx) CreateLoad(ctx context.Context, l *models.Load) error {
	now := t.now()
	l.ID = uuid.NewString()
	l.CompanyID = t.company()
	l.CreatedAt, l.UpdatedAt = now, now
	_, err := t.q.Exec(ctx, `
INSERT INTO loads (`+loadCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$20)
`, l.ID, l.CompanyID, l.ReferenceNumber,
		l.Pickup.Address, l.Pickup.City, l.Pickup.State, l.Pickup.Zip,
		l.Delivery.Address, l.Delivery.City, l.Delivery.State, l.Delivery.Zip,
		l.PickupDate, l.DeliveryDate, l.Commodity, l.WeightLbs, l.Hazmat, l.SpecialHandling,
		int64(l.Rate), l.Status, now)
	return errors.Wrap(err, "insert load")
}

func (t *tx) GetLoad(ctx context.Context, id string) (*models.Load, error) {
	l, err := scanLoad(t.q.QueryRow(ctx,
		`SELECT `+loadCols+` FROM loads WHERE company_id = $1 AND id = $2`, t.company(), id))
	if err := one(err, "load", "select load"); err != nil {
		return nil, err
	}
	return l, nil
}

func (t *tx) ListLoads(ctx context.Context, p query.Params) ([]*models.Load, int, error) {
	w := query.Scoped("company_id", t.company()).
		Apply(p, "status", "pickup_date", "reference_number", "pickup_city", "delivery_city")
	total, err := t.count(ctx, "FROM loads", w)
	if err != nil {
		return nil, 0, err
	}
	page, args := w.Paged(p)
	rows, err := t.q.Query(ctx,
		`SELECT `+loadCols+` FROM loads `+w.SQL()+` ORDER BY created_at DESC, id DESC `+page, args...)
	items, err := collect(rows, err, "loads", scanLoad)
	return items, total, err
}

func (t *tx) UpdateLoad(ctx context.Context, l *models.Load) error {
	l.UpdatedAt = t.now()
	tag, err := t.q.Exec(ctx, `
UPDATE loads SET
  reference_number = $3,
  pickup_address = $4, pickup_city = $5, pickup_state = $6, pickup_zip = $7,
  delivery_address = $8, delivery_city = $9, delivery_state = $10, delivery_zip = $11,
  pickup_date = $12, delivery_date = $13, commodity = $14, weight_lbs = $15,
  hazmat = $16, special_handling = $17, rate_cents = $18, status = $19, updated_at = $20
WHERE company_id = $1 AND id = $2
`, t.company(), l.ID, l.ReferenceNumber,
		l.Pickup.Address, l.Pickup.City, l.Pickup.State, l.Pickup.Zip,
		l.Delivery.Address, l.Delivery.City, l.Delivery.State, l.Delivery.Zip,
		l.PickupDate, l.DeliveryDate, l.Commodity, l.WeightLbs,
		l.Hazmat, l.SpecialHandling, int64(l.Rate), l.Status, l.UpdatedAt)
	return affected(tag, err, "load", "update load")
}

func (t *tx) DeleteLoad(ctx context.Context, id string) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM loads WHERE company_id = $1 AND id = $2`, t.company(), id)
	return affected(tag, err, "load", "delete load")
}

// lockLoad checks scope and serializes writers touching the same load.
func (t *tx) lockLoad(ctx context.Context, loadID string) error {
	var id string
	err := t.q.QueryRow(ctx,
		`SELECT id FROM loads WHERE company_id = $1 AND id = $2 FOR UPDATE`, t.company(), loadID).Scan(&id)
	return one(err, "load", "lock load")
}

func (t *tx) loadExists(ctx context.Context, loadID string) error {
	var id string
	err := t.q.QueryRow(ctx,
		`SELECT id FROM loads WHERE company_id = $1 AND id = $2`, t.company(), loadID).Scan(&id)
	return one(err, "load", "select load")
}

const assignmentCols = `id, company_id, load_id, driver_id, status, assigned_at, created_at, updated_at`

func scanAssignment(row pgx.Row) (*models.LoadAssignment, error) {
	var a models.LoadAssignment
	err := row.Scan(&a.ID, &a.CompanyID, &a.LoadID, &a.DriverID, &a.Status, &a.AssignedAt, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (t *tx) CreateAssignment(ctx context.Context, a *models.LoadAssignment) error {
	if err := t.lockLoad(ctx, a.LoadID); err != nil {
		return err
	}
	if err := t.driverExists(ctx, a.DriverID); err != nil {
		return err
	}
	now := t.now()
	a.ID = uuid.NewString()
	a.CompanyID = t.company()
	if a.AssignedAt.IsZero() {
		a.AssignedAt = now
	}
	a.CreatedAt, a.UpdatedAt = now, now
	_, err := t.q.Exec(ctx, `
INSERT INTO load_assignments (`+assignmentCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
`, a.ID, a.CompanyID, a.LoadID, a.DriverID, a.Status, a.AssignedAt, now)
	return errors.Wrap(err, "insert assignment")
}

func (t *tx) GetAssignment(ctx context.Context, loadID, id string) (*models.LoadAssignment, error) {
	a, err := scanAssignment(t.q.QueryRow(ctx,
		`SELECT `+assignmentCols+` FROM load_assignments WHERE company_id = $1 AND load_id = $2 AND id = $3`,
		t.company(), loadID, id))
	if err := one(err, "assignment", "select assignment"); err != nil {
		return nil, err
	}
	return a, nil
}

func (t *tx) ListAssignments(ctx context.Context, loadID string, p query.Params) ([]*models.LoadAssignment, int, error) {
	if err := t.loadExists(ctx, loadID); err != nil {
		return nil, 0, err
	}
	w := query.Scoped("company_id", t.company()).Eq("load_id", loadID).
		Apply(p, "status", "assigned_at")
	total, err := t.count(ctx, "FROM load_assignments", w)
	if err != nil {
		return nil, 0, err
	}
	page, args := w.Paged(p)
	rows, err := t.q.Query(ctx,
		`SELECT `+assignmentCols+` FROM load_assignments `+w.SQL()+` ORDER BY assigned_at DESC, id DESC `+page, args...)
	items, err := collect(rows, err, "assignments", scanAssignment)
	return items, total, err
}

func (t *tx) ActiveAssignment(ctx context.Context, loadID string) (*models.LoadAssignment, error) {
	if err := t.loadExists(ctx, loadID); err != nil {
		return nil, err
	}
	a, err := scanAssignment(t.q.QueryRow(ctx, `
SELECT `+assignmentCols+`
FROM load_assignments
WHERE company_id = $1 AND load_id = $2 AND status IN ('pending', 'accepted')
`, t.company(), loadID))
	if err := one(err, "assignment", "select active assignment"); err != nil {
		return nil, err
	}
	return a, nil
}

func (t *tx) UpdateAssignment(ctx context.Context, a *models.LoadAssignment) error {
	got, err := scanAssignment(t.q.QueryRow(ctx, `
UPDATE load_assignments SET status = $3, updated_at = $4
WHERE company_id = $1 AND id = $2
RETURNING `+assignmentCols,
		t.company(), a.ID, a.Status, t.now()))
	if err := one(err, "assignment", "update assignment"); err != nil {
		return err
	}
	*a = *got
	return nil
}

const trackingCols = `id, company_id, load_id, status, latitude, longitude, notes, recorded_at, created_at, updated_at`

func scanTracking(row pgx.Row) (*models.LoadTracking, error) {
	var tr models.LoadTracking
	err := row.Scan(&tr.ID, &tr.CompanyID, &tr.LoadID, &tr.Status, &tr.Latitude, &tr.Longitude, &tr.Notes, &tr.Timestamp, &tr.CreatedAt, &tr.UpdatedAt)
	return &tr, err
}

func (t *tx) AppendTracking(ctx context.Context, tr *models.LoadTracking) error {
	if err := t.lockLoad(ctx, tr.LoadID); err != nil {
		return err
	}
	now := t.now()
	tr.ID = uuid.NewString()
	tr.CompanyID = t.company()
	if tr.Timestamp.IsZero() {
		tr.Timestamp = now
	}
	tr.CreatedAt, tr.UpdatedAt = now, now
	_, err := t.q.Exec(ctx, `
INSERT INTO load_tracking (`+trackingCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
`, tr.ID, tr.CompanyID, tr.LoadID, tr.Status, tr.Latitude, tr.Longitude, tr.Notes, tr.Timestamp, now)
	return errors.Wrap(err, "insert tracking")
}

func (t *tx) ListTracking(ctx context.Context, loadID string, p query.Params) ([]*models.LoadTracking, int, error) {
	if err := t.loadExists(ctx, loadID); err != nil {
		return nil, 0, err
	}
	w := query.Scoped("company_id", t.company()).Eq("load_id", loadID).
		Apply(p, "status", "recorded_at", "notes")
	total, err := t.count(ctx, "FROM load_tracking", w)
	if err != nil {
		return nil, 0, err
	}
	page, args := w.Paged(p)
	rows, err := t.q.Query(ctx,
		`SELECT `+trackingCols+` FROM load_tracking `+w.SQL()+` ORDER BY recorded_at DESC, id DESC `+page, args...)
	items, err := collect(rows, err, "tracking", scanTracking)
	return items, total, err
}

const loadDocCols = `id, company_id, load_id, type, url, uploaded_at, created_at, updated_at`

func scanLoadDoc(row pgx.Row) (*models.LoadDocument, error) {
	var d models.LoadDocument
	err := row.Scan(&d.ID, &d.CompanyID, &d.LoadID, &d.Type, &d.URL, &d.UploadedAt, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (t *tx) CreateLoadDocument(ctx context.Context, doc *models.LoadDocument) error {
	if err := t.loadExists(ctx, doc.LoadID); err != nil {
		return err
	}
	now := t.now()
	doc.ID = uuid.NewString()
	doc.CompanyID = t.company()
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = now
	}
	doc.CreatedAt, doc.UpdatedAt = now, now
	_, err := t.q.Exec(ctx, `
INSERT INTO load_documents (`+loadDocCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
`, doc.ID, doc.CompanyID, doc.LoadID, doc.Type, doc.URL, doc.UploadedAt, now)
	return errors.Wrap(err, "insert load document")
}

func (t *tx) ListLoadDocuments(ctx context.Context, loadID string, p query.Params) ([]*models.LoadDocument, int, error) {
	if err := t.loadExists(ctx, loadID); err != nil {
		return nil, 0, err
	}
	w := query.Scoped("company_id", t.company()).Eq("load_id", loadID).
		Apply(p, "type", "uploaded_at", "type", "url")
	total, err := t.count(ctx, "FROM load_documents", w)
	if err != nil {
		return nil, 0, err
	}
	page, args := w.Paged(p)
	rows, err := t.q.Query(ctx,
		`SELECT `+loadDocCols+` FROM load_documents `+w.SQL()+` ORDER BY uploaded_at DESC, id DESC `+page, args...)
	items, err := collect(rows, err, "load documents", scanLoadDoc)
	return items, total, err
}
