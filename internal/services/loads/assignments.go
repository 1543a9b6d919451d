package loads

import (
	"context"

	"github.com/BearBump/FreightDesk/internal/broker/messages"
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

type AssignInput struct {
	DriverID string `json:"driverId" validate:"required"`
}

type AssignmentUpdateInput struct {
	Status models.AssignmentStatus `json:"status" validate:"required"`
}

// Assign creates a pending assignment of a same-tenant driver to the load.
// A load holds at most one pending or accepted assignment.
func (s *Service) Assign(ctx context.Context, loadID string, in AssignInput) (*models.LoadAssignment, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "assign load", sc, err)
	}

	a := &models.LoadAssignment{LoadID: loadID, DriverID: in.DriverID, Status: models.AssignmentStatusPending}
	var (
		l *models.Load
		d *models.Driver
	)
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		if l, err = tx.GetLoad(ctx, loadID); err != nil {
			return err
		}
		if lifecycle.Load.Terminal(l.Status) {
			return errs.InvalidStatus("status", "load %s is %s and cannot be assigned", l.ReferenceNumber, l.Status)
		}
		if d, err = tx.GetDriver(ctx, in.DriverID); err != nil {
			return err
		}
		return tx.CreateAssignment(ctx, a)
	})
	if err != nil {
		return nil, svc.Report(s.log, "assign load", sc, err,
			logger.String("load_id", loadID), logger.String("driver_id", in.DriverID))
	}

	ev, err := messages.DomainEvent{
		Type:         messages.LoadAssigned,
		CompanyID:    sc.CompanyID,
		ActorID:      sc.UserID,
		EntityID:     l.ID,
		NotifyUserID: d.UserID,
	}.WithPayload(messages.LoadAssignedPayload{
		LoadID:          l.ID,
		ReferenceNumber: l.ReferenceNumber,
		AssignmentID:    a.ID,
		DriverID:        d.ID,
	})
	if err != nil {
		s.log.Error("build load assigned event", logger.Error(err))
	} else {
		s.events.Emit(ctx, ev)
	}
	s.log.Info("load assigned",
		logger.String("company_id", sc.CompanyID),
		logger.String("load_id", l.ID),
		logger.String("driver_id", d.ID),
	)
	return a, nil
}

func (s *Service) GetAssignment(ctx context.Context, loadID, id string) (*models.LoadAssignment, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	var a *models.LoadAssignment
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		a, err = tx.GetAssignment(ctx, loadID, id)
		return err
	})
	if err != nil {
		return nil, svc.Report(s.log, "get assignment", sc, err)
	}
	return a, nil
}

// ActiveAssignment returns the pending or accepted assignment, NotFound when
// the load is unassigned.
func (s *Service) ActiveAssignment(ctx context.Context, loadID string) (*models.LoadAssignment, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	var a *models.LoadAssignment
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		a, err = tx.ActiveAssignment(ctx, loadID)
		return err
	})
	if err != nil {
		return nil, svc.Report(s.log, "active assignment", sc, err)
	}
	return a, nil
}

func (s *Service) ListAssignments(ctx context.Context, loadID string, p query.Params) (query.Page[*models.LoadAssignment], error) {
	var page query.Page[*models.LoadAssignment]
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return page, err
	}
	if p, err = p.Normalize(); err != nil {
		return page, err
	}
	if p.Status != "" {
		if err := lifecycle.Assignment.Check(models.AssignmentStatus(p.Status)); err != nil {
			return page, err
		}
	}
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		items, total, err := tx.ListAssignments(ctx, loadID, p)
		page = query.NewPage(items, total, p)
		return err
	})
	return page, svc.Report(s.log, "list assignments", sc, err)
}

// UpdateAssignment moves the assignment along its lifecycle. Accepting it
// also accepts a still-pending load.
func (s *Service) UpdateAssignment(ctx context.Context, loadID, id string, in AssignmentUpdateInput) (*models.LoadAssignment, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "update assignment", sc, err)
	}

	var (
		a       *models.LoadAssignment
		l       *models.Load
		from    models.LoadStatus
		changed bool
	)
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		if a, err = tx.GetAssignment(ctx, loadID, id); err != nil {
			return err
		}
		if err := lifecycle.Assignment.Transition(a.Status, in.Status); err != nil {
			return err
		}
		a.Status = in.Status
		if err := tx.UpdateAssignment(ctx, a); err != nil {
			return err
		}
		if l, err = tx.GetLoad(ctx, loadID); err != nil {
			return err
		}
		next, ok := lifecycle.LoadCascadeFromAssignment(a.Status, l.Status)
		if !ok {
			return nil
		}
		from, changed, err = cascade(ctx, tx, l, next)
		return err
	})
	if err != nil {
		return nil, svc.Report(s.log, "update assignment", sc, err, logger.String("assignment_id", id))
	}
	if changed {
		s.emitStatus(ctx, sc, l, from, causeAssignment)
	}
	return a, nil
}
