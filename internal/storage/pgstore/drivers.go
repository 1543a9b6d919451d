package pgstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/query"
)

const driverCols = `
  id, company_id, user_id, license_number, license_class, license_expiry,
  vehicle_type, vehicle_vin, vehicle_plate, status, rating,
  created_at, updated_at`

func scanDriver(row pgx.Row) (*models.Driver, error) {
	var d models.Driver
	err := row.Scan(
		&d.ID, &d.CompanyID, &d.UserID, &d.LicenseNumber, &d.LicenseClass, &d.LicenseExpiry,
		&d.VehicleType, &d.VehicleVIN, &d.VehiclePlate, &d.Status, &d.Rating,
		&d.CreatedAt, &d.UpdatedAt,
	)
	return &d, err
}

func (t *tx) CreateDriver(ctx context.Context, d *models.Driver) error {
	now := t.now()
	d.ID = uuid.NewString()
	d.CompanyID = t.company()
	d.CreatedAt, d.UpdatedAt = now, now
	_, err := t.q.Exec(ctx, `
INSERT INTO drivers (`+driverCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$12)
`, d.ID, d.CompanyID, d.UserID, d.LicenseNumber, d.LicenseClass, d.LicenseExpiry,
		d.VehicleType, d.VehicleVIN, d.VehiclePlate, d.Status, d.Rating, now)
	return errors.Wrap(err, "insert driver")
}

func (t *tx) GetDriver(ctx context.Context, id string) (*models.Driver, error) {
	d, err := scanDriver(t.q.QueryRow(ctx,
		`SELECT `+driverCols+` FROM drivers WHERE company_id = $1 AND id = $2`, t.company(), id))
	if err := one(err, "driver", "select driver"); err != nil {
		return nil, err
	}
	return d, nil
}

func (t *tx) ListDrivers(ctx context.Context, p query.Params) ([]*models.Driver, int, error) {
	w := query.Scoped("company_id", t.company()).
		Apply(p, "status", "created_at", "license_number", "vehicle_plate", "vehicle_vin")
	total, err := t.count(ctx, "FROM drivers", w)
	if err != nil {
		return nil, 0, err
	}
	page, args := w.Paged(p)
	rows, err := t.q.Query(ctx,
		`SELECT `+driverCols+` FROM drivers `+w.SQL()+` ORDER BY created_at DESC, id DESC `+page, args...)
	items, err := collect(rows, err, "drivers", scanDriver)
	return items, total, err
}

// UpdateDriver writes the editable columns; owner, user and rating stay.
func (t *tx) UpdateDriver(ctx context.Context, d *models.Driver) error {
	d.UpdatedAt = t.now()
	tag, err := t.q.Exec(ctx, `
UPDATE drivers SET
  license_number = $3, license_class = $4, license_expiry = $5,
  vehicle_type = $6, vehicle_vin = $7, vehicle_plate = $8,
  status = $9, updated_at = $10
WHERE company_id = $1 AND id = $2
`, t.company(), d.ID, d.LicenseNumber, d.LicenseClass, d.LicenseExpiry,
		d.VehicleType, d.VehicleVIN, d.VehiclePlate, d.Status, d.UpdatedAt)
	return affected(tag, err, "driver", "update driver")
}

func (t *tx) SetDriverRating(ctx context.Context, driverID string, rating float64) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE drivers SET rating = $3, updated_at = $4 WHERE company_id = $1 AND id = $2`,
		t.company(), driverID, rating, t.now())
	return affected(tag, err, "driver", "update driver rating")
}

func (t *tx) DeleteDriver(ctx context.Context, id string) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM drivers WHERE company_id = $1 AND id = $2`, t.company(), id)
	return affected(tag, err, "driver", "delete driver")
}

// lockDriver checks the driver is in scope and holds its row for the rest of
// the transaction, so concurrent rating writes queue up behind it.
func (t *tx) lockDriver(ctx context.Context, driverID string) error {
	var id string
	err := t.q.QueryRow(ctx,
		`SELECT id FROM drivers WHERE company_id = $1 AND id = $2 FOR UPDATE`, t.company(), driverID).Scan(&id)
	return one(err, "driver", "lock driver")
}

func (t *tx) driverExists(ctx context.Context, driverID string) error {
	var id string
	err := t.q.QueryRow(ctx,
		`SELECT id FROM drivers WHERE company_id = $1 AND id = $2`, t.company(), driverID).Scan(&id)
	return one(err, "driver", "select driver")
}

const driverDocCols = `id, company_id, driver_id, type, document_url, expiry_date, created_at, updated_at`

func scanDriverDoc(row pgx.Row) (*models.DriverDocument, error) {
	var d models.DriverDocument
	err := row.Scan(&d.ID, &d.CompanyID, &d.DriverID, &d.Type, &d.DocumentURL, &d.ExpiryDate, &d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (t *tx) CreateDriverDocument(ctx context.Context, doc *models.DriverDocument) error {
	if err := t.driverExists(ctx, doc.DriverID); err != nil {
		return err
	}
	now := t.now()
	doc.ID = uuid.NewString()
	doc.CompanyID = t.company()
	doc.CreatedAt, doc.UpdatedAt = now, now
	_, err := t.q.Exec(ctx, `
INSERT INTO driver_documents (`+driverDocCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
`, doc.ID, doc.CompanyID, doc.DriverID, doc.Type, doc.DocumentURL, doc.ExpiryDate, now)
	return errors.Wrap(err, "insert driver document")
}

func (t *tx) GetDriverDocument(ctx context.Context, driverID, id string) (*models.DriverDocument, error) {
	d, err := scanDriverDoc(t.q.QueryRow(ctx,
		`SELECT `+driverDocCols+` FROM driver_documents WHERE company_id = $1 AND driver_id = $2 AND id = $3`,
		t.company(), driverID, id))
	if err := one(err, "driver document", "select driver document"); err != nil {
		return nil, err
	}
	return d, nil
}

func (t *tx) ListDriverDocuments(ctx context.Context, driverID string, p query.Params) ([]*models.DriverDocument, int, error) {
	if err := t.driverExists(ctx, driverID); err != nil {
		return nil, 0, err
	}
	w := query.Scoped("company_id", t.company()).Eq("driver_id", driverID).
		Apply(p, "type", "created_at", "type", "document_url")
	total, err := t.count(ctx, "FROM driver_documents", w)
	if err != nil {
		return nil, 0, err
	}
	page, args := w.Paged(p)
	rows, err := t.q.Query(ctx,
		`SELECT `+driverDocCols+` FROM driver_documents `+w.SQL()+` ORDER BY created_at DESC, id DESC `+page, args...)
	items, err := collect(rows, err, "driver documents", scanDriverDoc)
	return items, total, err
}

func (t *tx) DeleteDriverDocument(ctx context.Context, driverID, id string) error {
	tag, err := t.q.Exec(ctx,
		`DELETE FROM driver_documents WHERE company_id = $1 AND driver_id = $2 AND id = $3`, t.company(), driverID, id)
	return affected(tag, err, "driver document", "delete driver document")
}

const locationCols = `id, company_id, driver_id, latitude, longitude, accuracy, recorded_at, created_at, updated_at`

func scanLocation(row pgx.Row) (*models.DriverLocation, error) {
	var l models.DriverLocation
	err := row.Scan(&l.ID, &l.CompanyID, &l.DriverID, &l.Latitude, &l.Longitude, &l.Accuracy, &l.Timestamp, &l.CreatedAt, &l.UpdatedAt)
	return &l, err
}

func (t *tx) AppendDriverLocation(ctx context.Context, loc *models.DriverLocation) error {
	if err := t.driverExists(ctx, loc.DriverID); err != nil {
		return err
	}
	now := t.now()
	loc.ID = uuid.NewString()
	loc.CompanyID = t.company()
	if loc.Timestamp.IsZero() {
		loc.Timestamp = now
	}
	loc.CreatedAt, loc.UpdatedAt = now, now
	_, err := t.q.Exec(ctx, `
INSERT INTO driver_locations (`+locationCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
`, loc.ID, loc.CompanyID, loc.DriverID, loc.Latitude, loc.Longitude, loc.Accuracy, loc.Timestamp, now)
	return errors.Wrap(err, "insert driver location")
}

func (t *tx) ListDriverLocations(ctx context.Context, driverID string, p query.Params) ([]*models.DriverLocation, int, error) {
	if err := t.driverExists(ctx, driverID); err != nil {
		return nil, 0, err
	}
	w := query.Scoped("company_id", t.company()).Eq("driver_id", driverID).DateRange("recorded_at", p)
	total, err := t.count(ctx, "FROM driver_locations", w)
	if err != nil {
		return nil, 0, err
	}
	page, args := w.Paged(p)
	rows, err := t.q.Query(ctx,
		`SELECT `+locationCols+` FROM driver_locations `+w.SQL()+` ORDER BY recorded_at DESC, id DESC `+page, args...)
	items, err := collect(rows, err, "driver locations", scanLocation)
	return items, total, err
}

const ratingCols = `id, company_id, driver_id, load_id, rating, comment, created_at, updated_at`

func scanRating(row pgx.Row) (*models.DriverRating, error) {
	var r models.DriverRating
	err := row.Scan(&r.ID, &r.CompanyID, &r.DriverID, &r.LoadID, &r.Rating, &r.Comment, &r.CreatedAt, &r.UpdatedAt)
	return &r, err
}

func (t *tx) CreateDriverRating(ctx context.Context, r *models.DriverRating) error {
	if err := t.lockDriver(ctx, r.DriverID); err != nil {
		return err
	}
	now := t.now()
	r.ID = uuid.NewString()
	r.CompanyID = t.company()
	r.CreatedAt, r.UpdatedAt = now, now
	_, err := t.q.Exec(ctx, `
INSERT INTO driver_ratings (`+ratingCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
`, r.ID, r.CompanyID, r.DriverID, r.LoadID, r.Rating, r.Comment, now)
	return errors.Wrap(err, "insert driver rating")
}

func (t *tx) ListDriverRatings(ctx context.Context, driverID string, p query.Params) ([]*models.DriverRating, int, error) {
	if err := t.driverExists(ctx, driverID); err != nil {
		return nil, 0, err
	}
	w := query.Scoped("company_id", t.company()).Eq("driver_id", driverID).
		Apply(p, "", "created_at", "comment")
	total, err := t.count(ctx, "FROM driver_ratings", w)
	if err != nil {
		return nil, 0, err
	}
	page, args := w.Paged(p)
	rows, err := t.q.Query(ctx,
		`SELECT `+ratingCols+` FROM driver_ratings `+w.SQL()+` ORDER BY created_at DESC, id DESC `+page, args...)
	items, err := collect(rows, err, "driver ratings", scanRating)
	return items, total, err
}

func (t *tx) DriverRatingStats(ctx context.Context, driverID string) (models.RatingStats, error) {
	if err := t.driverExists(ctx, driverID); err != nil {
		return models.RatingStats{}, err
	}
	var st models.RatingStats
	err := t.q.QueryRow(ctx, `
SELECT count(*), COALESCE(sum(rating), 0)
FROM driver_ratings
WHERE company_id = $1 AND driver_id = $2
`, t.company(), driverID).Scan(&st.Count, &st.Sum)
	return st, errors.Wrap(err, "rating stats")
}
