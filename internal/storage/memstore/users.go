package memstore

import (
	"context"
	"strings"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/query"
)

func (t *tx) emailTaken(email, exceptID string) bool {
	for _, u := range t.d.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

// userInScope is the tenant rule for users: at least one role row in the
// scope's company.
func (t *tx) userInScope(userID string) bool {
	if _, ok := t.d.users[userID]; !ok {
		return false
	}
	for _, r := range t.d.roles {
		if r.UserID == userID && t.owns(r.CompanyID) {
			return true
		}
	}
	return false
}

func (t *tx) CreateUser(_ context.Context, u *models.User, roleID string) error {
	if err := t.write(); err != nil {
		return err
	}
	if t.emailTaken(u.Email, "") {
		return errs.Conflict("email", "user with email %s already exists", u.Email)
	}
	now := t.now()
	u.ID = newID()
	u.CreatedAt, u.UpdatedAt = now, now
	t.d.users[u.ID] = *u

	role := models.UserCompanyRole{
		ID:        newID(),
		UserID:    u.ID,
		CompanyID: t.sc.CompanyID,
		RoleID:    roleID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.d.roles[role.ID] = role
	return nil
}

func (t *tx) GetUser(_ context.Context, id string) (*models.User, error) {
	if !t.userInScope(id) {
		return nil, errs.NotFound("user")
	}
	u := t.d.users[id]
	return &u, nil
}

func (t *tx) ListUsers(_ context.Context, p query.Params) ([]*models.User, int, error) {
	items, total := list(t.d.users, p,
		func(u models.User) bool {
			return t.userInScope(u.ID) &&
				p.InRange(u.CreatedAt) &&
				query.MatchText(p.Search, u.Email, u.FirstName, u.LastName)
		},
		func(a, b models.User) bool { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) },
	)
	return items, total, nil
}

func (t *tx) UpdateUser(_ context.Context, u *models.User) error {
	if err := t.write(); err != nil {
		return err
	}
	if !t.userInScope(u.ID) {
		return errs.NotFound("user")
	}
	if t.emailTaken(u.Email, u.ID) {
		return errs.Conflict("email", "user with email %s already exists", u.Email)
	}
	cur := t.d.users[u.ID]
	u.CreatedAt = cur.CreatedAt
	u.UpdatedAt = t.now()
	t.d.users[u.ID] = *u
	return nil
}

func (t *tx) DeleteUser(_ context.Context, id string) (int, error) {
	if err := t.write(); err != nil {
		return 0, err
	}
	if !t.userInScope(id) {
		return 0, errs.NotFound("user")
	}
	for _, d := range t.d.drivers {
		if d.UserID == id {
			return 0, errs.Conflict("id", "user still has a driver profile")
		}
	}
	removed := 0
	for k, r := range t.d.roles {
		if r.UserID == id {
			delete(t.d.roles, k)
			removed++
		}
	}
	delete(t.d.users, id)
	return removed, nil
}

func (t *tx) ListUserRoles(_ context.Context, userID string) ([]*models.UserCompanyRole, error) {
	if !t.userInScope(userID) {
		return nil, errs.NotFound("user")
	}
	out := make([]*models.UserCompanyRole, 0, 1)
	for _, r := range t.d.roles {
		r := r // per-iteration copy; go.mod targets go1.21 loop semantics
		if r.UserID == userID && t.owns(r.CompanyID) {
			out = append(out, &r)
		}
	}
	return out, nil
}
