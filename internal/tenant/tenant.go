// Package tenant carries the resolved request principal and turns it into the
// mandatory company scope every storage call runs under.
package tenant

import (
	"context"
	"strings"

	"github.com/BearBump/FreightDesk/internal/errs"
)

// Principal is resolved by the auth collaborator and trusted as-is.
type Principal struct {
	CompanyID string
	UserID    string
}

// Scope is the tenant filter injected into every query and write.
type Scope struct {
	CompanyID string
	UserID    string
}

func (s Scope) Valid() bool { return strings.TrimSpace(s.CompanyID) != "" }

// Owns reports whether a row stamped with companyID is visible in this scope.
func (s Scope) Owns(companyID string) bool {
	return s.Valid() && s.CompanyID == companyID
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// ScopeFrom builds the scope for the request. A missing principal is a
// precondition failure, never silently widened to "all tenants".
func ScopeFrom(ctx context.Context) (Scope, error) {
	p, ok := PrincipalFrom(ctx)
	if !ok || strings.TrimSpace(p.CompanyID) == "" {
		return Scope{}, errs.ErrNoPrincipal
	}
	return Scope{CompanyID: p.CompanyID, UserID: p.UserID}, nil
}

// System builds a scope for trusted background callers (the notifier worker)
// that learned the tenant from an event rather than a request.
func System(companyID string) Scope {
	return Scope{CompanyID: companyID}
}
