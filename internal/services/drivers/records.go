package drivers

import (
	"context"
	"time"

	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/query"
	"github.com/BearBump/FreightDesk/internal/reconcile"
	"github.com/BearBump/FreightDesk/internal/services/svc"
	"github.com/BearBump/FreightDesk/internal/storage"
	"github.com/BearBump/FreightDesk/internal/tenant"
	"github.com/BearBump/FreightDesk/internal/validate"
)

type DocumentInput struct {
	Type        models.DriverDocumentType `json:"type" validate:"required,oneof=license insurance medical_cert background_check"`
	DocumentURL string                    `json:"documentUrl" validate:"required,url"`
	ExpiryDate  *time.Time                `json:"expiryDate"`
}

func (s *Service) AddDocument(ctx context.Context, driverID string, in DocumentInput) (*models.DriverDocument, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "add driver document", sc, err)
	}
	doc := &models.DriverDocument{
		DriverID:    driverID,
		Type:        in.Type,
		DocumentURL: in.DocumentURL,
		ExpiryDate:  in.ExpiryDate,
	}
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		return tx.CreateDriverDocument(ctx, doc)
	})
	if err != nil {
		return nil, svc.Report(s.log, "add driver document", sc, err, logger.String("driver_id", driverID))
	}
	return doc, nil
}

// ListDocuments filters by document type through p.Status.
func (s *Service) ListDocuments(ctx context.Context, driverID string, p query.Params) (query.Page[*models.DriverDocument], error) {
	var page query.Page[*models.DriverDocument]
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return page, err
	}
	if p, err = p.Normalize(); err != nil {
		return page, err
	}
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		items, total, err := tx.ListDriverDocuments(ctx, driverID, p)
		page = query.NewPage(items, total, p)
		return err
	})
	return page, svc.Report(s.log, "list driver documents", sc, err)
}

func (s *Service) DeleteDocument(ctx context.Context, driverID, id string) error {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return err
	}
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		return tx.DeleteDriverDocument(ctx, driverID, id)
	})
	return svc.Report(s.log, "delete driver document", sc, err, logger.String("driver_id", driverID))
}

type LocationInput struct {
	Latitude  float64    `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64    `json:"longitude" validate:"gte=-180,lte=180"`
	Accuracy  *float64   `json:"accuracy" validate:"omitnil,gte=0"`
	Timestamp *time.Time `json:"timestamp"`
}

// RecordLocation appends to the driver's location history. A missing
// timestamp means "now".
func (s *Service) RecordLocation(ctx context.Context, driverID string, in LocationInput) (*models.DriverLocation, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "record driver location", sc, err)
	}
	loc := &models.DriverLocation{
		DriverID:  driverID,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Accuracy:  in.Accuracy,
	}
	if in.Timestamp != nil {
		loc.Timestamp = in.Timestamp.UTC()
	}
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		return tx.AppendDriverLocation(ctx, loc)
	})
	if err != nil {
		return nil, svc.Report(s.log, "record driver location", sc, err, logger.String("driver_id", driverID))
	}
	return loc, nil
}

func (s *Service) ListLocations(ctx context.Context, driverID string, p query.Params) (query.Page[*models.DriverLocation], error) {
	var page query.Page[*models.DriverLocation]
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return page, err
	}
	if p, err = p.Normalize(); err != nil {
		return page, err
	}
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		items, total, err := tx.ListDriverLocations(ctx, driverID, p)
		page = query.NewPage(items, total, p)
		return err
	})
	return page, svc.Report(s.log, "list driver locations", sc, err)
}

// LatestLocation returns the most recent fix or NotFound when the driver has
// never reported one.
func (s *Service) LatestLocation(ctx context.Context, driverID string) (*models.DriverLocation, error) {
	page, err := s.ListLocations(ctx, driverID, query.Params{Page: 1, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, errNoLocation
	}
	return page.Items[0], nil
}

type RatingInput struct {
	Rating  int     `json:"rating"`
	LoadID  *string `json:"loadId"`
	Comment *string `json:"comment" validate:"omitnil,max=2000"`
}

// RecordRating stores a rating and recomputes the driver's average in the
// same unit of work.
func (s *Service) RecordRating(ctx context.Context, driverID string, in RatingInput) (*models.DriverRating, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := reconcile.CheckRating(in.Rating); err != nil {
		return nil, svc.Report(s.log, "record driver rating", sc, err)
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "record driver rating", sc, err)
	}

	r := &models.DriverRating{DriverID: driverID, LoadID: in.LoadID, Rating: in.Rating, Comment: in.Comment}
	var (
		d  *models.Driver
		st models.RatingStats
	)
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		if d, err = tx.GetDriver(ctx, driverID); err != nil {
			return err
		}
		if in.LoadID != nil {
			if _, err := tx.GetLoad(ctx, *in.LoadID); err != nil {
				return err
			}
		}
		if err := tx.CreateDriverRating(ctx, r); err != nil {
			return err
		}
		if st, err = tx.DriverRatingStats(ctx, driverID); err != nil {
			return err
		}
		d.Rating = reconcile.AverageRating(st)
		return tx.SetDriverRating(ctx, driverID, d.Rating)
	})
	if err != nil {
		return nil, svc.Report(s.log, "record driver rating", sc, err, logger.String("driver_id", driverID))
	}

	s.invalidate(ctx, sc, driverID)
	s.emitRating(ctx, sc, d, st)
	s.log.Info("driver rating recorded",
		logger.String("company_id", sc.CompanyID),
		logger.String("driver_id", driverID),
		logger.Any("rating", d.Rating),
		logger.Int("count", st.Count),
	)
	return r, nil
}

// RatingsPage is a page of ratings plus the aggregate over all of them.
type RatingsPage struct {
	query.Page[*models.DriverRating]
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

func (s *Service) ListRatings(ctx context.Context, driverID string, p query.Params) (RatingsPage, error) {
	var out RatingsPage
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return out, err
	}
	if p, err = p.Normalize(); err != nil {
		return out, err
	}
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		items, total, err := tx.ListDriverRatings(ctx, driverID, p)
		if err != nil {
			return err
		}
		st, err := tx.DriverRatingStats(ctx, driverID)
		if err != nil {
			return err
		}
		out = RatingsPage{Page: query.NewPage(items, total, p), Average: reconcile.AverageRating(st), Count: st.Count}
		return nil
	})
	return out, svc.Report(s.log, "list driver ratings", sc, err)
}
