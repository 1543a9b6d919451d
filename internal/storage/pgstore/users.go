package pgstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/query"
)

const userCols = `u.id, u.email, u.first_name, u.last_name, u.phone, u.avatar_url, u.created_at, u.updated_at`

// inCompany is the tenant predicate for users, who carry no company column.
const inCompany = `EXISTS (SELECT 1 FROM user_company_roles r WHERE r.user_id = u.id AND r.company_id = %s)`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	return &u, err
}

func (t *tx) CreateUser(ctx context.Context, u *models.User, roleID string) error {
	now := t.now()
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now
	if _, err := t.q.Exec(ctx, `
INSERT INTO users (id, email, first_name, last_name, phone, avatar_url, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
`, u.ID, u.Email, u.FirstName, u.LastName, u.Phone, u.AvatarURL, now); err != nil {
		return errors.Wrap(err, "insert user")
	}
	_, err := t.q.Exec(ctx, `
INSERT INTO user_company_roles (id, user_id, company_id, role_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$5)
`, uuid.NewString(), u.ID, t.company(), roleID, now)
	return errors.Wrap(err, "insert user role")
}

func (t *tx) GetUser(ctx context.Context, id string) (*models.User, error) {
	w := new(query.Where).Eq("u.id", id).Raw(inCompany, t.company())
	u, err := scanUser(t.q.QueryRow(ctx, `SELECT `+userCols+` FROM users u `+w.SQL(), w.Args()...))
	if err := one(err, "user", "select user"); err != nil {
		return nil, err
	}
	return u, nil
}

func (t *tx) ListUsers(ctx context.Context, p query.Params) ([]*models.User, int, error) {
	w := new(query.Where).Raw(inCompany, t.company()).
		Apply(p, "", "u.created_at", "u.email", "u.first_name", "u.last_name")
	total, err := t.count(ctx, "FROM users u", w)
	if err != nil {
		return nil, 0, err
	}
	page, args := w.Paged(p)
	rows, err := t.q.Query(ctx,
		`SELECT `+userCols+` FROM users u `+w.SQL()+` ORDER BY u.created_at DESC, u.id DESC `+page, args...)
	items, err := collect(rows, err, "users", scanUser)
	return items, total, err
}

func (t *tx) UpdateUser(ctx context.Context, u *models.User) error {
	if _, err := t.GetUser(ctx, u.ID); err != nil {
		return err
	}
	u.UpdatedAt = t.now()
	tag, err := t.q.Exec(ctx, `
UPDATE users SET
  email = $2, first_name = $3, last_name = $4, phone = $5, avatar_url = $6, updated_at = $7
WHERE id = $1
`, u.ID, u.Email, u.FirstName, u.LastName, u.Phone, u.AvatarURL, u.UpdatedAt)
	return affected(tag, err, "user", "update user")
}

func (t *tx) DeleteUser(ctx context.Context, id string) (int, error) {
	if _, err := t.GetUser(ctx, id); err != nil {
		return 0, err
	}
	var hasDriver bool
	if err := t.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM drivers WHERE user_id = $1)`, id).Scan(&hasDriver); err != nil {
		return 0, errors.Wrap(err, "check driver profile")
	}
	if hasDriver {
		return 0, errs.Conflict("id", "user still has a driver profile")
	}
	tag, err := t.q.Exec(ctx, `DELETE FROM user_company_roles WHERE user_id = $1`, id)
	if err != nil {
		return 0, errors.Wrap(err, "delete user roles")
	}
	if _, err := t.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return 0, errors.Wrap(err, "delete user")
	}
	return int(tag.RowsAffected()), nil
}

func (t *tx) ListUserRoles(ctx context.Context, userID string) ([]*models.UserCompanyRole, error) {
	if _, err := t.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	rows, err := t.q.Query(ctx, `
SELECT id, user_id, company_id, role_id, created_at, updated_at
FROM user_company_roles
WHERE company_id = $1 AND user_id = $2
ORDER BY created_at
`, t.company(), userID)
	return collect(rows, err, "user roles", func(row pgx.Row) (*models.UserCompanyRole, error) {
		var r models.UserCompanyRole
		err := row.Scan(&r.ID, &r.UserID, &r.CompanyID, &r.RoleID, &r.CreatedAt, &r.UpdatedAt)
		return &r, err
	})
}
