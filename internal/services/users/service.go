// Package users manages user accounts as seen from one tenant. A user is
// visible to a company only through a role row in that company.
package users

import (
	"context"
	"strings"

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
	return &Service{store: store, log: log.With(logger.String("service", "users"))}
}

type CreateInput struct {
	Email     string  `json:"email" validate:"required,email,max=255"`
	FirstName string  `json:"firstName" validate:"required,max=100"`
	LastName  string  `json:"lastName" validate:"required,max=100"`
	Phone     *string `json:"phone" validate:"omitnil,max=32"`
	AvatarURL *string `json:"avatarUrl" validate:"omitnil,url"`
	RoleID    string  `json:"roleId" validate:"required"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Email     *string `json:"email" validate:"omitnil,email,max=255"`
	FirstName *string `json:"firstName" validate:"omitnil,min=1,max=100"`
	LastName  *string `json:"lastName" validate:"omitnil,min=1,max=100"`
	Phone     *string `json:"phone" validate:"omitnil,max=32"`
	AvatarURL *string `json:"avatarUrl" validate:"omitnil,url"`
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

// Create adds the user and its role in the caller's company atomically.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.User, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	in.Email = normalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "create user", sc, err)
	}
	u := &models.User{
		Email:     in.Email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     in.Phone,
		AvatarURL: in.AvatarURL,
	}
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		return tx.CreateUser(ctx, u, in.RoleID)
	})
	if err != nil {
		return nil, svc.Report(s.log, "create user", sc, err)
	}
	s.log.Info("user created",
		logger.String("company_id", sc.CompanyID),
		logger.String("user_id", u.ID),
		logger.String("role_id", in.RoleID),
	)
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	var u *models.User
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		u, err = tx.GetUser(ctx, id)
		return err
	})
	if err != nil {
		return nil, svc.Report(s.log, "get user", sc, err, logger.String("user_id", id))
	}
	return u, nil
}

// List searches email and names. Users have no status, so p.Status is ignored.
func (s *Service) List(ctx context.Context, p query.Params) (query.Page[*models.User], error) {
	var page query.Page[*models.User]
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return page, err
	}
	if p, err = p.Normalize(); err != nil {
		return page, err
	}
	p.Status = ""
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		items, total, err := tx.ListUsers(ctx, p)
		page = query.NewPage(items, total, p)
		return err
	})
	return page, svc.Report(s.log, "list users", sc, err)
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.User, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		e := normalizeEmail(*in.Email)
		in.Email = &e
	}
	if err := validate.Struct(in); err != nil {
		return nil, svc.Report(s.log, "update user", sc, err)
	}

	var u *models.User
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		if u, err = tx.GetUser(ctx, id); err != nil {
			return err
		}
		if in.Email != nil {
			u.Email = *in.Email
		}
		if in.FirstName != nil {
			u.FirstName = strings.TrimSpace(*in.FirstName)
		}
		if in.LastName != nil {
			u.LastName = strings.TrimSpace(*in.LastName)
		}
		if in.Phone != nil {
			u.Phone = in.Phone
		}
		if in.AvatarURL != nil {
			u.AvatarURL = in.AvatarURL
		}
		return tx.UpdateUser(ctx, u)
	})
	if err != nil {
		return nil, svc.Report(s.log, "update user", sc, err, logger.String("user_id", id))
	}
	return u, nil
}

// Delete removes the user's role rows and then the user in one unit of work
// and returns how many role rows went with it.
func (s *Service) Delete(ctx context.Context, id string) (int, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return 0, err
	}
	var removed int
	err = s.store.Update(ctx, sc, func(tx storage.Tx) error {
		removed, err = tx.DeleteUser(ctx, id)
		return err
	})
	if err != nil {
		return 0, svc.Report(s.log, "delete user", sc, err, logger.String("user_id", id))
	}
	s.log.Info("user deleted",
		logger.String("company_id", sc.CompanyID),
		logger.String("user_id", id),
		logger.Int("roles_removed", removed),
	)
	return removed, nil
}

// Roles lists the user's role rows in the caller's company.
func (s *Service) Roles(ctx context.Context, id string) ([]*models.UserCompanyRole, error) {
	sc, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, err
	}
	var roles []*models.UserCompanyRole
	err = s.store.View(ctx, sc, func(tx storage.Tx) error {
		roles, err = tx.ListUserRoles(ctx, id)
		return err
	})
	if err != nil {
		return nil, svc.Report(s.log, "list user roles", sc, err, logger.String("user_id", id))
	}
	return roles, nil
}
