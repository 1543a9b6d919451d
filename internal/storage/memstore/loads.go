package memstore

import (
	"context"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/query"
)

func (t *tx) referenceTaken(ref, exceptID string) bool {
	for _, l := range t.d.loads {
		if l.ID != exceptID && l.CompanyID == t.sc.CompanyID && l.ReferenceNumber == ref {
			return true
		}
	}
	return false
}

func (t *tx) CreateLoad(_ context.Context, l *models.Load) error {
	if err := t.write(); err != nil {
		return err
	}
	if t.referenceTaken(l.ReferenceNumber, "") {
		return errs.Conflict("referenceNumber", "load with reference number %s already exists", l.ReferenceNumber)
	}
	now := t.now()
	l.ID = newID()
	l.CompanyID = t.sc.CompanyID
	l.CreatedAt, l.UpdatedAt = now, now
	t.d.loads[l.ID] = *l
	return nil
}

func (t *tx) GetLoad(_ context.Context, id string) (*models.Load, error) {
	l, ok := t.d.loads[id]
	if !ok || !t.owns(l.CompanyID) {
		return nil, errs.NotFound("load")
	}
	return &l, nil
}

func (t *tx) ListLoads(_ context.Context, p query.Params) ([]*models.Load, int, error) {
	items, total := list(t.d.loads, p,
		func(l models.Load) bool {
			return t.owns(l.CompanyID) &&
				p.MatchStatus(string(l.Status)) &&
				p.InRange(l.PickupDate) &&
				query.MatchText(p.Search, l.ReferenceNumber, l.Pickup.City, l.Delivery.City)
		},
		func(a, b models.Load) bool { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	)
	return items, total, nil
}

func (t *tx) UpdateLoad(_ context.Context, l *models.Load) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.d.loads[l.ID]
	if !ok || !t.owns(cur.CompanyID) {
		return errs.NotFound("load")
	}
	if t.referenceTaken(l.ReferenceNumber, l.ID) {
		return errs.Conflict("referenceNumber", "load with reference number %s already exists", l.ReferenceNumber)
	}
	l.CompanyID = cur.CompanyID
	l.CreatedAt = cur.CreatedAt
	l.UpdatedAt = t.now()
	t.d.loads[l.ID] = *l
	return nil
}

func (t *tx) DeleteLoad(_ context.Context, id string) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.d.loads[id]
	if !ok || !t.owns(cur.CompanyID) {
		return errs.NotFound("load")
	}
	delete(t.d.loads, id)
	for k, v := range t.d.assignments {
		if v.LoadID == id {
			delete(t.d.assignments, k)
		}
	}
	for k, v := range t.d.tracking {
		if v.LoadID == id {
			delete(t.d.tracking, k)
		}
	}
	for k, v := range t.d.loadDocs {
		if v.LoadID == id {
			delete(t.d.loadDocs, k)
		}
	}
	for k, v := range t.d.invoices {
		if v.LoadID != nil && *v.LoadID == id {
			v.LoadID = nil
			t.d.invoices[k] = v
		}
	}
	for k, v := range t.d.ratings {
		if v.LoadID != nil && *v.LoadID == id {
			v.LoadID = nil
			t.d.ratings[k] = v
		}
	}
	return nil
}

func (t *tx) loadInScope(loadID string) error {
	l, ok := t.d.loads[loadID]
	if !ok || !t.owns(l.CompanyID) {
		return errs.NotFound("load")
	}
	return nil
}

func (t *tx) CreateAssignment(_ context.Context, a *models.LoadAssignment) error {
	if err := t.write(); err != nil {
		return err
	}
	if err := t.loadInScope(a.LoadID); err != nil {
		return err
	}
	if err := t.driverInScope(a.DriverID); err != nil {
		return err
	}
	if a.Active() {
		for _, other := range t.d.assignments {
			if other.LoadID == a.LoadID && other.Active() {
				return errs.Conflict("loadId", "load already has an active assignment")
			}
		}
	}
	now := t.now()
	a.ID = newID()
	a.CompanyID = t.sc.CompanyID
	if a.AssignedAt.IsZero() {
		a.AssignedAt = now
	}
	a.CreatedAt, a.UpdatedAt = now, now
	t.d.assignments[a.ID] = *a
	return nil
}

func (t *tx) GetAssignment(_ context.Context, loadID, id string) (*models.LoadAssignment, error) {
	a, ok := t.d.assignments[id]
	if !ok || a.LoadID != loadID || !t.owns(a.CompanyID) {
		return nil, errs.NotFound("assignment")
	}
	return &a, nil
}

func (t *tx) ListAssignments(_ context.Context, loadID string, p query.Params) ([]*models.LoadAssignment, int, error) {
	if err := t.loadInScope(loadID); err != nil {
		return nil, 0, err
	}
	items, total := list(t.d.assignments, p,
		func(a models.LoadAssignment) bool {
			return a.LoadID == loadID && t.owns(a.CompanyID) &&
				p.MatchStatus(string(a.Status)) &&
				p.InRange(a.AssignedAt)
		},
		func(a, b models.LoadAssignment) bool { return newestFirst(a.AssignedAt, b.AssignedAt, a.ID, b.ID) },
	)
	return items, total, nil
}

func (t *tx) ActiveAssignment(_ context.Context, loadID string) (*models.LoadAssignment, error) {
	if err := t.loadInScope(loadID); err != nil {
		return nil, err
	}
	for _, a := range t.d.assignments {
		if a.LoadID == loadID && a.Active() {
			return &a, nil
		}
	}
	return nil, errs.NotFound("assignment")
}

func (t *tx) UpdateAssignment(_ context.Context, a *models.LoadAssignment) error {
	if err := t.write(); err != nil {
		return err
	}
	cur, ok := t.d.assignments[a.ID]
	if !ok || !t.owns(cur.CompanyID) {
		return errs.NotFound("assignment")
	}
	cur.Status = a.Status
	cur.UpdatedAt = t.now()
	t.d.assignments[a.ID] = cur
	*a = cur
	return nil
}

func (t *tx) AppendTracking(_ context.Context, tr *models.LoadTracking) error {
	if err := t.write(); err != nil {
		return err
	}
	if err := t.loadInScope(tr.LoadID); err != nil {
		return err
	}
	now := t.now()
	tr.ID = newID()
	tr.CompanyID = t.sc.CompanyID
	if tr.Timestamp.IsZero() {
		tr.Timestamp = now
	}
	tr.CreatedAt, tr.UpdatedAt = now, now
	t.d.tracking[tr.ID] = *tr
	return nil
}

func (t *tx) ListTracking(_ context.Context, loadID string, p query.Params) ([]*models.LoadTracking, int, error) {
	if err := t.loadInScope(loadID); err != nil {
		return nil, 0, err
	}
	items, total := list(t.d.tracking, p,
		func(tr models.LoadTracking) bool {
			return tr.LoadID == loadID && t.owns(tr.CompanyID) &&
				p.MatchStatus(string(tr.Status)) &&
				p.InRange(tr.Timestamp) &&
				query.MatchText(p.Search, tr.Notes)
		},
		func(a, b models.LoadTracking) bool { return newestFirst(a.Timestamp, b.Timestamp, a.ID, b.ID) },
	)
	return items, total, nil
}

func (t *tx) CreateLoadDocument(_ context.Context, doc *models.LoadDocument) error {
	if err := t.write(); err != nil {
		return err
	}
	if err := t.loadInScope(doc.LoadID); err != nil {
		return err
	}
	now := t.now()
	doc.ID = newID()
	doc.CompanyID = t.sc.CompanyID
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = now
	}
	doc.CreatedAt, doc.UpdatedAt = now, now
	t.d.loadDocs[doc.ID] = *doc
	return nil
}

func (t *tx) ListLoadDocuments(_ context.Context, loadID string, p query.Params) ([]*models.LoadDocument, int, error) {
	if err := t.loadInScope(loadID); err != nil {
		return nil, 0, err
	}
	items, total := list(t.d.loadDocs, p,
		func(d models.LoadDocument) bool {
			return d.LoadID == loadID && t.owns(d.CompanyID) &&
				p.MatchStatus(d.Type) &&
				p.InRange(d.UploadedAt) &&
				query.MatchText(p.Search, d.Type, d.URL)
		},
		func(a, b models.LoadDocument) bool { return newestFirst(a.UploadedAt, b.UploadedAt, a.ID, b.ID) },
	)
	return items, total, nil
}
