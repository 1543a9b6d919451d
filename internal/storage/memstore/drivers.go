package memstore

import (
	"context"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/query"
)

func (t *tx) CreateDriver(_ context.Context, d *models.Driver) error {
	if err := t.write(); err != nil {
		return err
	}
	for _, other := range t.d.drivers {
		if other.UserID == d.UserID {
			return errs.Conflict("userId", "user already has a driver profile")
		}
	}
	now := t.now()
	d.ID = newID()
	d.CompanyID = t.sc.CompanyID
	d.CreatedAt, d.UpdatedAt = now, now
	t.d.drivers[d.ID] = *d
	return nil
}

func (t *tx) GetDriver(_ context.Context, id string) (*models.Driver, error) {
	d, ok := t.d.drivers[id]
	if !ok || !t.owns(d.CompanyID) {
		return nil, errs.NotFound("driver")
	}
	return &d, nil
}

func (t *tx) ListDrivers(_ context.Context, p query.Params) ([]*models.Driver, int, error) {
	items, total := list(t.d.drivers, p,
		func(d models.Driver) bool {
			return t.owns(d.CompanyID) &&
				p.MatchStatus(string(d.Status)) &&
				p.InRange(d.CreatedAt) &&
				query.MatchText(p.Search, d.LicenseNumber, d.VehiclePlate, d.VehicleVIN)
		},
		func(a, b models.Driver) bool { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	)
	return items, total, nil
}

func (t *tx) UpdateDriver(_ context.Context, d *models.Driver) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.d.drivers[d.ID]
	if !ok || !t.owns(cur.CompanyID) {
		return errs.NotFound("driver")
	}
	d.CompanyID = cur.CompanyID
	d.UserID = cur.UserID
	d.Rating = cur.Rating
	d.CreatedAt = cur.CreatedAt
	d.UpdatedAt = t.now()
	t.d.drivers[d.ID] = *d
	return nil
}

func (t *tx) SetDriverRating(_ context.Context, driverID string, rating float64) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.d.drivers[driverID]
	if !ok || !t.owns(cur.CompanyID) {
		return errs.NotFound("driver")
	}
	cur.Rating = rating
	cur.UpdatedAt = t.now()
	t.d.drivers[driverID] = cur
	return nil
}

func (t *tx) DeleteDriver(_ context.Context, id string) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.d.drivers[id]
	if !ok || !t.owns(cur.CompanyID) {
		return errs.NotFound("driver")
	}
	delete(t.d.drivers, id)
	for k, v := range t.d.driverDocs {
		if v.DriverID == id {
			delete(t.d.driverDocs, k)
		}
	}
	for k, v := range t.d.locations {
		if v.DriverID == id {
			delete(t.d.locations, k)
		}
	}
	for k, v := range t.d.ratings {
		if v.DriverID == id {
			delete(t.d.ratings, k)
		}
	}
	for k, v := range t.d.assignments {
		if v.DriverID == id {
			delete(t.d.assignments, k)
		}
	}
	for k, v := range t.d.invoices {
		if v.DriverID != nil && *v.DriverID == id {
			v.DriverID = nil
			t.d.invoices[k] = v
		}
	}
	return nil
}

func (t *tx) driverInScope(driverID string) error {
	d, ok := t.d.drivers[driverID]
	if !ok || !t.owns(d.CompanyID) {
		return errs.NotFound("driver")
	}
	return nil
}

func (t *tx) CreateDriverDocument(_ context.Context, doc *models.DriverDocument) error {
	if err := t.write(); err != nil {
		return err
	}
	if err := t.driverInScope(doc.DriverID); err != nil {
		return err
	}
	now := t.now()
	doc.ID = newID()
	doc.CompanyID = t.sc.CompanyID
	doc.CreatedAt, doc.UpdatedAt = now, now
	t.d.driverDocs[doc.ID] = *doc
	return nil
}

func (t *tx) GetDriverDocument(_ context.Context, driverID, id string) (*models.DriverDocument, error) {
	doc, ok := t.d.driverDocs[id]
	if !ok || doc.DriverID != driverID || !t.owns(doc.CompanyID) {
		return nil, errs.NotFound("driver document")
	}
	return &doc, nil
}

func (t *tx) ListDriverDocuments(_ context.Context, driverID string, p query.Params) ([]*models.DriverDocument, int, error) {
	if err := t.driverInScope(driverID); err != nil {
		return nil, 0, err
	}
	items, total := list(t.d.driverDocs, p,
		func(d models.DriverDocument) bool {
			return d.DriverID == driverID && t.owns(d.CompanyID) &&
				p.MatchStatus(string(d.Type)) &&
				p.InRange(d.CreatedAt) &&
				query.MatchText(p.Search, string(d.Type), d.DocumentURL)
		},
		func(a, b models.DriverDocument) bool { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	)
	return items, total, nil
}

func (t *tx) DeleteDriverDocument(ctx context.Context, driverID, id string) error {
	if err := t.write(); err != nil {
		return err
	}
	if _, err := t.GetDriverDocument(ctx, driverID, id); err != nil {
		return err
	}
	delete(t.d.driverDocs, id)
	return nil
}

func (t *tx) AppendDriverLocation(_ context.Context, loc *models.DriverLocation) error {
	if err := t.write(); err != nil {
		return err
	}
	if err := t.driverInScope(loc.DriverID); err != nil {
		return err
	}
	now := t.now()
	loc.ID = newID()
	loc.CompanyID = t.sc.CompanyID
	if loc.Timestamp.IsZero() {
		loc.Timestamp = now
	}
	loc.CreatedAt, loc.UpdatedAt = now, now
	t.d.locations[loc.ID] = *loc
	return nil
}

func (t *tx) ListDriverLocations(_ context.Context, driverID string, p query.Params) ([]*models.DriverLocation, int, error) {
	if err := t.driverInScope(driverID); err != nil {
		return nil, 0, err
	}
	items, total := list(t.d.locations, p,
		func(l models.DriverLocation) bool {
			return l.DriverID == driverID && t.owns(l.CompanyID) && p.InRange(l.Timestamp)
		},
		func(a, b models.DriverLocation) bool { return newestFirst(a.Timestamp, b.Timestamp, a.ID, b.ID) },
	)
	return items, total, nil
}

func (t *tx) CreateDriverRating(_ context.Context, r *models.DriverRating) error {
	if err := t.write(); err != nil {
		return err
	}
	if err := t.driverInScope(r.DriverID); err != nil {
		return err
	}
	now := t.now()
	r.ID = newID()
	r.CompanyID = t.sc.CompanyID
	r.CreatedAt, r.UpdatedAt = now, now
	t.d.ratings[r.ID] = *r
	return nil
}

func (t *tx) ListDriverRatings(_ context.Context, driverID string, p query.Params) ([]*models.DriverRating, int, error) {
	if err := t.driverInScope(driverID); err != nil {
		return nil, 0, err
	}
	items, total := list(t.d.ratings, p,
		func(r models.DriverRating) bool {
			return r.DriverID == driverID && t.owns(r.CompanyID) &&
				p.InRange(r.CreatedAt) &&
				query.MatchText(p.Search, strOrEmpty(r.Comment))
		},
		func(a, b models.DriverRating) bool { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	)
	return items, total, nil
}

func (t *tx) DriverRatingStats(_ context.Context, driverID string) (models.RatingStats, error) {
	if err := t.driverInScope(driverID); err != nil {
		return models.RatingStats{}, err
	}
	var st models.RatingStats
	for _, r := range t.d.ratings {
		if r.DriverID == driverID && t.owns(r.CompanyID) {
			st.Count++
			st.Sum += int64(r.Rating)
		}
	}
	return st, nil
}
