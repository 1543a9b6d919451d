// Package loads owns the load lifecycle: load records, driver assignments,
// the append-only tracking trail and load documents. Status changes from any
// of these paths go through the lifecycle tables and are published as
// load.status_changed once committed.
package loads

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/FreightDesk/internal/broker/events"
	"github.com/BearBump/FreightDesk/internal/broker/messages"
	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/lifecycle"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/money"
	"github.com/BearBump/FreightDesk/internal/query"
	"github.com/BearBump/FreightDesk/internal/services/svc"
	"github.com/BearBump/FreightDesk/internal/storage"
	"github.com/BearBump/FreightDesk/internal/tenant"
	"github.com/BearBump/FreightDesk/internal/validate"
)

const (
	causeUpdate     = "update"
	causeTracking   = "tracking"
	causeAssignment = "assignment"
)

type Service struct {
	store  storage.Store
	events events.Sink
	log    logger.Logger
}

func New(store storage.Store, sink events.Sink, log logger.Logger) *Service {
	if sink == nil {
		sink = events.Discard
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, events: sink, log: log.With(logger.String("service", "loads"))}
}

type AddressInput struct {
	Address string `json:"address" validate:"required,max=255"`
	City    string `json:"city" validate:"required,max=100"`
	State   string `json:"state" validate:"required,max=100"`
	Zip     string `json:"zip" validate:"required,max=20"`
}

func (a AddressInput) model() models.Address {
	return models.Address{Address: a.Address, City: a.City, State: a.State, Zip: a.Zip}
}

type CreateInput struct {
	ReferenceNumber string            `json:"referenceNumber" validate:"required,max=64"`
	Pickup          AddressInput      `json:"pickup"`
	Delivery        AddressInput      `json:"delivery"`
	PickupDate      time.Time         `json:"pickupDate" validate:"required"`
	DeliveryDate    time.Time         `json:"deliveryDate" validate:"required"`
	Commodity       string            `json:"commodity" validate:"max=255"`
	WeightLbs       *float64          `json:"weightLbs" validate:"omitnil,gt=0"`
	Hazmat          bool              `json:"hazmat"`
	SpecialHandling string            `json:"specialHandling" validate:"max=1000"`
	Rate            money.Amount      `json:"rate"`
	Status          models.LoadStatus `json:"status"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	ReferenceNumber *string            `json:"referenceNumber" validate:"omitnil,min=1,max=64"`
	Pickup          *AddressInput      `json:"pickup"`
	Delivery        *AddressInput      `json:"delivery"`
	PickupDate      *time.Time         `json:"pickupDate"`
	DeliveryDate    *time.Time         `json:"deliveryDate"`
	Commodity       *string            `json:"commodity" validate:"omitnil,max=255"`
	WeightLbs       *float64           `json:"weightLbs" validate:"omitnil,gt=0"`
	Hazmat          *bool              `json:"hazmat"`
	SpecialHandling *string            `json:"specialHandling" validate:"omitnil,max=1000"`
	Rate            *money.Amount      `json:"rate"`
	Status          *models.LoadStatus `json:"status"`
}

func checkLoad(l *models.Load) error {
	if err := money.Check("rate", l.Rate); err != nil {
		return err
	}
	if l.DeliveryDate.Before(l.PickupDate) {
		return errs.Validation("deliveryDate", "delivery date must not be before pickup date")
	}
	return nil
}

// Create stores a new load. Loads always enter the lifecycle as pending.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Load, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "create load", sc, err)
	}
	if in.Status != "" {
		if err := lifecycle.Load.Check(in.Status); err != nil {
			return nil, svc.Report(s.log, "create load", sc, err)
		}
		if in.Status != models.LoadStatusPending {
			return nil, svc.Report(s.log, "create load", sc,
				errs.InvalidStatus("status", "new loads start as %q, got %q", models.LoadStatusPending, in.Status))
		}
	}

	l := &models.Load{
		ReferenceNumber: strings.TrimSpace(in.ReferenceNumber),
		Pickup:          in.Pickup.model(),
		Delivery:        in.Delivery.model(),
		PickupDate:      in.PickupDate.UTC(),
		DeliveryDate:    in.DeliveryDate.UTC(),
		Commodity:       in.Commodity,
		WeightLbs:       in.WeightLbs,
		Hazmat:          in.Hazmat,
		SpecialHandling: in.SpecialHandling,
		Rate:            in.Rate,
		Status:          models.LoadStatusPending,
	}
	if err := checkLoad(l); err != nil {
		return nil, svc.Report(s.log, "create load", sc, err)
	}
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		return tx.CreateLoad(ctx, l)
	})
	if err != nil {
		return nil, svc.Report(s.log, "create load", sc, err)
	}
	s.log.Info("load created",
		logger.String("company_id", sc.CompanyID),
		logger.String("load_id", l.ID),
		logger.String("reference", l.ReferenceNumber),
	)
	return l, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Load, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	var l *models.Load
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		l, err = tx.GetLoad(ctx, id)
		return err
	})
	if err != nil {
		return nil, svc.Report(s.log, "get load", sc, err, logger.String("load_id", id))
	}
	return l, nil
}

// List searches reference number and pickup/delivery city; the date range
// applies to the pickup date.
func (s *Service) List(ctx context.Context, p query.Params) (query.Page[*models.Load], error) {
	var page query.Page[*models.Load]
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return page, err
	}
	if p, err = p.Normalize(); err != nil {
		return page, err
	}
	if p.Status != "" {
		if err := lifecycle.Load.Check(models.LoadStatus(p.Status)); err != nil {
			return page, err
		}
	}
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		items, total, err := tx.ListLoads(ctx, p)
		page = query.NewPage(items, total, p)
		return err
	})
	return page, svc.Report(s.log, "list loads", sc, err)
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.Load, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "update load", sc, err)
	}

	var (
		l    *models.Load
		from models.LoadStatus
	)
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		if l, err = tx.GetLoad(ctx, id); err != nil {
			return err
		}
		from = l.Status
		if in.Status != nil {
			if err := lifecycle.Load.Transition(l.Status, *in.Status); err != nil {
				return err
			}
			l.Status = *in.Status
		}
		applyUpdate(l, in)
		if err := checkLoad(l); err != nil {
			return err
		}
		return tx.UpdateLoad(ctx, l)
	})
	if err != nil {
		return nil, svc.Report(s.log, "update load", sc, err, logger.String("load_id", id))
	}
	if l.Status != from {
		s.emitStatus(ctx, sc, l, from, causeUpdate)
	}
	return l, nil
}

func applyUpdate(l *models.Load, in UpdateInput) {
	if in.ReferenceNumber != nil {
		l.ReferenceNumber = strings.TrimSpace(*in.ReferenceNumber)
	}
	if in.Pickup != nil {
		l.Pickup = in.Pickup.model()
	}
	if in.Delivery != nil {
		l.Delivery = in.Delivery.model()
	}
	if in.PickupDate != nil {
		l.PickupDate = in.PickupDate.UTC()
	}
	if in.DeliveryDate != nil {
		l.DeliveryDate = in.DeliveryDate.UTC()
	}
	if in.Commodity != nil {
		l.Commodity = *in.Commodity
	}
	if in.WeightLbs != nil {
		l.WeightLbs = in.WeightLbs
	}
	if in.Hazmat != nil {
		l.Hazmat = *in.Hazmat
	}
	if in.SpecialHandling != nil {
		l.SpecialHandling = *in.SpecialHandling
	}
	if in.Rate != nil {
		l.Rate = *in.Rate
	}
}

// Delete removes the load with its assignments, tracking and documents.
// Invoices and ratings that referenced it are kept and unlinked.
func (s *Service) Delete(ctx context.Context, id string) error {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return err
	}
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		return tx.DeleteLoad(ctx, id)
	})
	if err != nil {
		return svc.Report(s.log, "delete load", sc, err, logger.String("load_id", id))
	}
	s.log.Info("load deleted", logger.String("company_id", sc.CompanyID), logger.String("load_id", id))
	return nil
}

// cascade moves the load to status inside tx and reports whether it changed.
func cascade(ctx context.Context, tx storage.Tx, l *models.Load, status models.LoadStatus) (models.LoadStatus, bool, error) {
	from := l.Status
	if from == status {
		return from, false, nil
	}
	l.Status = status
	if err := tx.UpdateLoad(ctx, l); err != nil {
		return from, false, err
	}
	return from, true, nil
}

func (s *Service) emitStatus(ctx context.Context, sc tenant.Scope, l *models.Load, from models.LoadStatus, cause string) {
	ev, err := messages.DomainEvent{
		Type:      messages.LoadStatusChanged,
		CompanyID: sc.CompanyID,
		ActorID:   sc.UserID,
		EntityID:  l.ID,
	}.WithPayload(messages.LoadStatusChangedPayload{
		LoadID:          l.ID,
		ReferenceNumber: l.ReferenceNumber,
		From:            string(from),
		To:              string(l.Status),
		Cause:           cause,
	})
	if err != nil {
		s.log.Error("build load status event", logger.Error(err))
		return
	}
	s.events.Emit(ctx, ev)
	s.log.Info("load status changed",
		logger.String("company_id", sc.CompanyID),
		logger.String("load_id", l.ID),
		logger.String("from", string(from)),
		logger.String("to", string(l.Status)),
		logger.String("cause", cause),
	)
}
