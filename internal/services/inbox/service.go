// Package inbox serves a user's notifications and conversations. Every
// operation acts on behalf of the principal's user inside its company.
package inbox

import (
	"context"
	"encoding/json"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/query"
	"github.com/BearBump/FreightDesk/internal/services/svc"
	"github.com/BearBump/FreightDesk/internal/storage"
	"github.com/BearBump/FreightDesk/internal/tenant"
	"github.com/BearBump/FreightDesk/internal/validate"
)

type Service struct {
	store storage.Store
	log   logger.Logger
}

func New(store storage.Store, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, log: log.With(logger.String("service", "inbox"))}
}

// userScope is the tenant scope plus the requirement that a user is known.
func userScope(ctx context.Context) (tenant.Scope, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return sc, err
	}
	if sc.UserID == "" {
		return sc, errs.ErrNoPrincipal
	}
	return sc, nil
}

type NotificationInput struct {
	UserID  string                  `json:"userId" validate:"required"`
	Type    models.NotificationType `json:"type" validate:"required,oneof=assignment payment document system message"`
	Title   string                  `json:"title" validate:"required,notblank,max=255"`
	Message string                  `json:"message" validate:"required,notblank,max=5000"`
	Link    *string                 `json:"link" validate:"omitnil,max=1024"`
	Data    json.RawMessage         `json:"data"`
}

// CreateNotification addresses a notification to a user of the caller's
// company.
func (s *Service) CreateNotification(ctx context.Context, in NotificationInput) (*models.Notification, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	return s.notify(ctx, sc, in)
}

// Deliver is CreateNotification for trusted background callers that learned
// the company from an event rather than from a request principal.
func (s *Service) Deliver(ctx context.Context, companyID string, in NotificationInput) (*models.Notification, error) {
	return s.notify(ctx, tenant.System(companyID), in)
}

func (s *Service) notify(ctx context.Context, sc tenant.Scope, in NotificationInput) (*models.Notification, error) {
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "create notification", sc, err)
	}
	if len(in.Data) > 0 && !json.Valid(in.Data) {
		return nil, svc.Report(s.log, "create notification", sc, errs.Validation("data", "data must be valid JSON"))
	}
	n := &models.Notification{
		UserID:  in.UserID,
		Type:    in.Type,
		Title:   in.Title,
		Message: in.Message,
		Link:    in.Link,
		Data:    in.Data,
	}
	err := s.store.Update(ctx, sc, func(tx storage.Tx) error {
		return tx.CreateNotification(ctx, n)
	})
	if err != nil {
		return nil, svc.Report(s.log, "create notification", sc, err, logger.String("user_id", in.UserID))
	}
	return n, nil
}

// ListNotifications lists the caller's notifications, newest first. The
// status filter matches the notification type.
func (s *Service) ListNotifications(ctx context.Context, unreadOnly bool, p query.Params) (query.Page[*models.Notification], error) {
	var page query.Page[*models.Notification]
	sc, err := userScope(ctx)
	if err != nil {
		return page, err
	}
	if p, err = p.Normalize(); err != nil {
		return page, err
	}
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		items, total, err := tx.ListNotifications(ctx, sc.UserID, unreadOnly, p)
		page = query.NewPage(items, total, p)
		return err
	})
	return page, svc.Report(s.log, "list notifications", sc, err)
}

func (s *Service) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	sc, err := userScope(ctx)
	if err != nil {
		return nil, err
	}
	var n *models.Notification
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		n, err = tx.GetNotification(ctx, sc.UserID, id)
		return err
	})
	if err != nil {
		return nil, svc.Report(s.log, "get notification", sc, err)
	}
	return n, nil
}

func (s *Service) MarkNotificationRead(ctx context.Context, id string, read bool) error {
	sc, err := userScope(ctx)
	if err != nil {
		return err
	}
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		return tx.MarkNotificationRead(ctx, sc.UserID, id, read)
	})
	return svc.Report(s.log, "mark notification read", sc, err)
}

// MarkAllNotificationsRead returns how many notifications changed.
func (s *Service) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	sc, err := userScope(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		n, err = tx.MarkAllNotificationsRead(ctx, sc.UserID)
		return err
	})
	return n, svc.Report(s.log, "mark all notifications read", sc, err)
}

func (s *Service) DeleteNotification(ctx context.Context, id string) error {
	sc, err := userScope(ctx)
	if err != nil {
		return err
	}
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		return tx.DeleteNotification(ctx, sc.UserID, id)
	})
	return svc.Report(s.log, "delete notification", sc, err)
}

func (s *Service) UnreadNotifications(ctx context.Context) (int, error) {
	sc, err := userScope(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		n, err = tx.CountUnreadNotifications(ctx, sc.UserID)
		return err
	})
	return n, svc.Report(s.log, "count unread notifications", sc, err)
}
