// Package drivers manages driver profiles together with their documents,
// location history and ratings. The driver's rating is derived from the
// rating rows and recomputed in the same unit of work that inserts one.
package drivers

import (
	"context"
	"time"

	"github.com/BearBump/FreightDesk/internal/broker/events"
	"github.com/BearBump/FreightDesk/internal/broker/messages"
	"github.com/BearBump/FreightDesk/internal/cache"
	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/lifecycle"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/query"
	"github.com/BearBump/FreightDesk/internal/services/svc"
	"github.com/BearBump/FreightDesk/internal/storage"
	"github.com/BearBump/FreightDesk/internal/tenant"
	"github.com/BearBump/FreightDesk/internal/validate"
)

type Service struct {
	store  storage.Store
	cache  cache.Bytes
	ttl    time.Duration
	events events.Sink
	log    logger.Logger
}

// New wires the service. A nil cache or a zero ttl disables the profile
// cache; a nil sink drops events.
func New(store storage.Store, c cache.Bytes, ttl time.Duration, sink events.Sink, log logger.Logger) *Service {
	if sink == nil {
		sink = events.Discard
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, cache: c, ttl: ttl, events: sink, log: log.With(logger.String("service", "drivers"))}
}

type CreateInput struct {
	UserID        string              `json:"userId" validate:"required"`
	LicenseNumber string              `json:"licenseNumber" validate:"required,max=64"`
	LicenseClass  string              `json:"licenseClass" validate:"max=16"`
	LicenseExpiry *time.Time          `json:"licenseExpiry"`
	VehicleType   string              `json:"vehicleType" validate:"max=64"`
	VehicleVIN    string              `json:"vehicleVin" validate:"max=32"`
	VehiclePlate  string              `json:"vehiclePlate" validate:"max=32"`
	Status        models.DriverStatus `json:"status"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	LicenseNumber *string              `json:"licenseNumber" validate:"omitnil,min=1,max=64"`
	LicenseClass  *string              `json:"licenseClass" validate:"omitnil,max=16"`
	LicenseExpiry *time.Time           `json:"licenseExpiry"`
	VehicleType   *string              `json:"vehicleType" validate:"omitnil,max=64"`
	VehicleVIN    *string              `json:"vehicleVin" validate:"omitnil,max=32"`
	VehiclePlate  *string              `json:"vehiclePlate" validate:"omitnil,max=32"`
	Status        *models.DriverStatus `json:"status"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Driver, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "create driver", sc, err)
	}
	status := svc.Or(&in.Status, models.DriverStatusActive)
	if err := lifecycle.Driver.Check(status); err != nil {
		return nil, svc.Report(s.log, "create driver", sc, err)
	}

	d := &models.Driver{
		UserID:        in.UserID,
		LicenseNumber: in.LicenseNumber,
		LicenseClass:  in.LicenseClass,
		LicenseExpiry: in.LicenseExpiry,
		VehicleType:   in.VehicleType,
		VehicleVIN:    in.VehicleVIN,
		VehiclePlate:  in.VehiclePlate,
		Status:        status,
		Rating:        models.DefaultDriverRating,
	}
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		if _, err := tx.GetUser(ctx, in.UserID); err != nil {
			return err
		}
		return tx.CreateDriver(ctx, d)
	})
	if err != nil {
		return nil, svc.Report(s.log, "create driver", sc, err)
	}
	s.log.Info("driver created", logger.String("company_id", sc.CompanyID), logger.String("driver_id", d.ID))
	return d, nil
}

// Get reads through the profile cache.
func (s *Service) Get(ctx context.Context, id string) (*models.Driver, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	key := cache.Key(sc.CompanyID, "driver", id)
	if s.cached() {
		d, ok, err := cache.GetJSON[models.Driver](ctx, s.cache, key)
		if err != nil {
			s.log.Warn("driver cache read failed", logger.String("key", key), logger.Error(err))
		}
		if ok && d.CompanyID == sc.CompanyID {
			return d, nil
		}
	}

	var d *models.Driver
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		d, err = tx.GetDriver(ctx, id)
		return err
	})
	if err != nil {
		return nil, svc.Report(s.log, "get driver", sc, err, logger.String("driver_id", id))
	}
	if s.cached() {
		if err := cache.SetJSON(ctx, s.cache, key, d, s.ttl); err != nil {
			s.log.Warn("driver cache write failed", logger.String("key", key), logger.Error(err))
		}
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, p query.Params) (query.Page[*models.Driver], error) {
	var page query.Page[*models.Driver]
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return page, err
	}
	if p, err = p.Normalize(); err != nil {
		return page, err
	}
	if p.Status != "" {
		if err := lifecycle.Driver.Check(models.DriverStatus(p.Status)); err != nil {
			return page, err
		}
	}
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		items, total, err := tx.ListDrivers(ctx, p)
		page = query.NewPage(items, total, p)
		return err
	})
	return page, svc.Report(s.log, "list drivers", sc, err)
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.Driver, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "update driver", sc, err)
	}

	var d *models.Driver
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		if d, err = tx.GetDriver(ctx, id); err != nil {
			return err
		}
		if in.Status != nil {
			if err := lifecycle.Driver.Transition(d.Status, *in.Status); err != nil {
				return err
			}
			d.Status = *in.Status
		}
		applyUpdate(d, in)
		return tx.UpdateDriver(ctx, d)
	})
	if err != nil {
		return nil, svc.Report(s.log, "update driver", sc, err, logger.String("driver_id", id))
	}
	s.invalidate(ctx, sc, id)
	return d, nil
}

func applyUpdate(d *models.Driver, in UpdateInput) {
	if in.LicenseNumber != nil {
		d.LicenseNumber = *in.LicenseNumber
	}
	if in.LicenseClass != nil {
		d.LicenseClass = *in.LicenseClass
	}
	if in.LicenseExpiry != nil {
		d.LicenseExpiry = in.LicenseExpiry
	}
	if in.VehicleType != nil {
		d.VehicleType = *in.VehicleType
	}
	if in.VehicleVIN != nil {
		d.VehicleVIN = *in.VehicleVIN
	}
	if in.VehiclePlate != nil {
		d.VehiclePlate = *in.VehiclePlate
	}
}

// Delete removes the driver with its documents, locations, ratings and
// assignments. Invoices that pointed at the driver keep existing unlinked.
func (s *Service) Delete(ctx context.Context, id string) error {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return err
	}
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		return tx.DeleteDriver(ctx, id)
	})
	if err != nil {
		return svc.Report(s.log, "delete driver", sc, err, logger.String("driver_id", id))
	}
	s.invalidate(ctx, sc, id)
	s.log.Info("driver deleted", logger.String("company_id", sc.CompanyID), logger.String("driver_id", id))
	return nil
}

func (s *Service) cached() bool { return s.cache != nil && s.ttl > 0 }

func (s *Service) invalidate(ctx context.Context, sc tenant.Scope, id string) {
	if !s.cached() {
		return
	}
	key := cache.Key(sc.CompanyID, "driver", id)
	if err := s.cache.Del(ctx, key); err != nil {
		s.log.Warn("driver cache invalidation failed", logger.String("key", key), logger.Error(err))
	}
}

func (s *Service) emitRating(ctx context.Context, sc tenant.Scope, d *models.Driver, st models.RatingStats) {
	ev, err := messages.DomainEvent{
		Type:         messages.DriverRatingUpdated,
		CompanyID:    sc.CompanyID,
		ActorID:      sc.UserID,
		EntityID:     d.ID,
		NotifyUserID: d.UserID,
	}.WithPayload(messages.DriverRatingUpdatedPayload{DriverID: d.ID, Rating: d.Rating, Count: st.Count})
	if err != nil {
		s.log.Error("build rating event", logger.Error(err))
		return
	}
	s.events.Emit(ctx, ev)
}

var errNoLocation = errs.NotFound("driver location")
