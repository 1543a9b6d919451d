package loads

import (
	"context"
	"time"

	"github.com/BearBump/FreightDesk/internal/lifecycle"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/query"
	"github.com/BearBump/FreightDesk/internal/services/svc"
	"github.com/BearBump/FreightDesk/internal/storage"
	"github.com/BearBump/FreightDesk/internal/tenant"
	"github.com/BearBump/FreightDesk/internal/validate"
)

type TrackingInput struct {
	Status    models.TrackingStatus `json:"status" validate:"required"`
	Latitude  *float64              `json:"latitude" validate:"omitnil,gte=-90,lte=90"`
	Longitude *float64              `json:"longitude" validate:"omitnil,gte=-180,lte=180"`
	Notes     string                `json:"notes" validate:"max=2000"`
	Timestamp *time.Time            `json:"timestamp"`
}

// RecordTracking appends a tracking event. Events are stored whatever the
// load's current status; only delivered and failed move the load.
func (s *Service) RecordTracking(ctx context.Context, loadID string, in TrackingInput) (*models.LoadTracking, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "record tracking", sc, err)
	}
	if err := lifecycle.Tracking.Check(in.Status); err != nil {
		return nil, svc.Report(s.log, "record tracking", sc, err)
	}

	tr := &models.LoadTracking{
		LoadID:    loadID,
		Status:    in.Status,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Notes:     in.Notes,
	}
	if in.Timestamp != nil {
		tr.Timestamp = in.Timestamp.UTC()
	}
	var (
		l       *models.Load
		from    models.LoadStatus
		changed bool
	)
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		if l, err = tx.GetLoad(ctx, loadID); err != nil {
			return err
		}
		if err := tx.AppendTracking(ctx, tr); err != nil {
			return err
		}
		next, ok := lifecycle.LoadCascadeFromTracking(tr.Status)
		if !ok {
			return nil
		}
		from, changed, err = cascade(ctx, tx, l, next)
		return err
	})
	if err != nil {
		return nil, svc.Report(s.log, "record tracking", sc, err, logger.String("load_id", loadID))
	}
	if changed {
		s.emitStatus(ctx, sc, l, from, causeTracking)
	}
	return tr, nil
}

func (s *Service) ListTracking(ctx context.Context, loadID string, p query.Params) (query.Page[*models.LoadTracking], error) {
	var page query.Page[*models.LoadTracking]
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return page, err
	}
	if p, err = p.Normalize(); err != nil {
		return page, err
	}
	if p.Status != "" {
		if err := lifecycle.Tracking.Check(models.TrackingStatus(p.Status)); err != nil {
			return page, err
		}
	}
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		items, total, err := tx.ListTracking(ctx, loadID, p)
		page = query.NewPage(items, total, p)
		return err
	})
	return page, svc.Report(s.log, "list tracking", sc, err)
}

type DocumentInput struct {
	Type string `json:"type" validate:"required,max=64"`
	URL  string `json:"url" validate:"required,url"`
}

func (s *Service) AddDocument(ctx context.Context, loadID string, in DocumentInput) (*models.LoadDocument, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "add load document", sc, err)
	}
	doc := &models.LoadDocument{LoadID: loadID, Type: in.Type, URL: in.URL}
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		return tx.CreateLoadDocument(ctx, doc)
	})
	if err != nil {
		return nil, svc.Report(s.log, "add load document", sc, err, logger.String("load_id", loadID))
	}
	return doc, nil
}

func (s *Service) ListDocuments(ctx context.Context, loadID string, p query.Params) (query.Page[*models.LoadDocument], error) {
	var page query.Page[*models.LoadDocument]
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return page, err
	}
	if p, err = p.Normalize(); err != nil {
		return page, err
	}
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		items, total, err := tx.ListLoadDocuments(ctx, loadID, p)
		page = query.NewPage(items, total, p)
		return err
	})
	return page, svc.Report(s.log, "list load documents", sc, err)
}
