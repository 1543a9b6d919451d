package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/query"
	"github.com/BearBump/FreightDesk/internal/storage"
	"github.com/BearBump/FreightDesk/internal/storage/memstore"
	"github.com/BearBump/FreightDesk/internal/tenant"
)

type ServiceSuite struct {
	suite.Suite

	store *memstore.Store
	svc   *Service
	ctxA  context.Context
	ctxB  context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.store = memstore.New()
	s.svc = New(s.store, logger.Nop())
	s.ctxA = tenant.WithPrincipal(context.Background(), tenant.Principal{CompanyID: "A", UserID: "admin"})
	s.ctxB = tenant.WithPrincipal(context.Background(), tenant.Principal{CompanyID: "B", UserID: "admin"})
}

func (s *ServiceSuite) create(email string) *models.User {
	u, err := s.svc.Create(s.ctxA, CreateInput{Email: email, FirstName: "Sam", LastName: "Okafor", RoleID: "dispatcher"})
	s.Require().NoError(err)
	return u
}

func (s *ServiceSuite) TestCreate() {
	u := s.create("  Sam@Example.com ")
	s.Require().Equal("sam@example.com", u.Email)

	roles, err := s.svc.Roles(s.ctxA, u.ID)
	s.Require().NoError(err)
	s.Require().Len(roles, 1)
	s.Require().Equal("dispatcher", roles[0].RoleID)
	s.Require().Equal("A", roles[0].CompanyID)
}

func (s *ServiceSuite) TestCreate_Validation() {
	_, err := s.svc.Create(s.ctxA, CreateInput{Email: "not-an-email", FirstName: "a", LastName: "b", RoleID: "r"})
	s.Require().ErrorIs(err, errs.ErrValidation)

	_, err = s.svc.Create(s.ctxA, CreateInput{Email: "x@y.test", FirstName: "a", LastName: "b"})
	s.Require().ErrorIs(err, errs.ErrValidation)
	s.Require().Contains(err.Error(), "roleId")
}

func (s *ServiceSuite) TestEmailUniqueAcrossTenants() {
	s.create("sam@example.com")
	_, err := s.svc.Create(s.ctxB, CreateInput{Email: "SAM@example.com", FirstName: "S", LastName: "O", RoleID: "r"})
	s.Require().ErrorIs(err, errs.ErrConflict)
}

func (s *ServiceSuite) TestTenantIsolation() {
	u := s.create("sam@example.com")
	_, err := s.svc.Get(s.ctxB, u.ID)
	s.Require().ErrorIs(err, errs.ErrNotFound)

	page, err := s.svc.List(s.ctxB, query.Params{})
	s.Require().NoError(err)
	s.Require().Zero(page.Total)

	_, err = s.svc.Delete(s.ctxB, u.ID)
	s.Require().ErrorIs(err, errs.ErrNotFound)
}

func (s *ServiceSuite) TestUpdate() {
	u := s.create("sam@example.com")
	other := s.create("kim@example.com")

	name := "Samuel"
	got, err := s.svc.Update(s.ctxA, u.ID, UpdateInput{FirstName: &name})
	s.Require().NoError(err)
	s.Require().Equal("Samuel", got.FirstName)
	s.Require().Equal("sam@example.com", got.Email)

	taken := "KIM@example.com"
	_, err = s.svc.Update(s.ctxA, u.ID, UpdateInput{Email: &taken})
	s.Require().ErrorIs(err, errs.ErrConflict)

	bad := "nope"
	_, err = s.svc.Update(s.ctxA, other.ID, UpdateInput{Email: &bad})
	s.Require().ErrorIs(err, errs.ErrValidation)
}

func (s *ServiceSuite) TestList_Search() {
	s.create("sam@example.com")
	s.create("kim@example.com")
	page, err := s.svc.List(s.ctxA, query.Params{Search: "KIM"})
	s.Require().NoError(err)
	s.Require().Equal(1, page.Total)

	page, err = s.svc.List(s.ctxA, query.Params{Search: "okafor"})
	s.Require().NoError(err)
	s.Require().Equal(2, page.Total)
}

func (s *ServiceSuite) TestDelete_RemovesAllRoles() {
	u := s.create("sam@example.com")

	removed, err := s.svc.Delete(s.ctxA, u.ID)
	s.Require().NoError(err)
	s.Require().Equal(1, removed)

	_, err = s.svc.Get(s.ctxA, u.ID)
	s.Require().ErrorIs(err, errs.ErrNotFound)
	_, err = s.svc.Roles(s.ctxA, u.ID)
	s.Require().ErrorIs(err, errs.ErrNotFound)
}

func (s *ServiceSuite) TestDelete_BlockedByDriverProfile() {
	u := s.create("sam@example.com")
	s.Require().NoError(s.store.Update(context.Background(), tenant.System("A"), func(tx storage.Tx) error {
		return tx.CreateDriver(context.Background(), &models.Driver{UserID: u.ID, LicenseNumber: "L", Status: models.DriverStatusActive})
	}))
	_, err := s.svc.Delete(s.ctxA, u.ID)
	s.Require().ErrorIs(err, errs.ErrConflict)

	_, err = s.svc.Get(s.ctxA, u.ID)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestMissingPrincipal() {
	_, err := s.svc.List(context.Background(), query.Params{})
	s.Require().ErrorIs(err, errs.ErrNoPrincipal)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}
