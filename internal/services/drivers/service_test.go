package drivers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/BearBump/FreightDesk/internal/broker/events/eventstest"
	"github.com/BearBump/FreightDesk/internal/broker/messages"
	cachemocks "github.com/BearBump/FreightDesk/internal/cache/mocks"
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

	store  *memstore.Store
	events *eventstest.Recorder
	svc    *Service

	ctxA context.Context
	ctxB context.Context
	user *models.User
}

func (s *ServiceSuite) SetupTest() {
	s.store = memstore.New()
	s.events = &eventstest.Recorder{}
	s.svc = New(s.store, nil, 0, s.events, logger.Nop())
	s.ctxA = tenant.WithPrincipal(context.Background(), tenant.Principal{CompanyID: "A", UserID: "admin-a"})
	s.ctxB = tenant.WithPrincipal(context.Background(), tenant.Principal{CompanyID: "B", UserID: "admin-b"})
	s.user = s.seedUser("A", "driver@a.test")
}

func (s *ServiceSuite) seedUser(company, email string) *models.User {
	u := &models.User{Email: email, FirstName: "Dana", LastName: "Reyes"}
	s.Require().NoError(s.store.Update(context.Background(), tenant.System(company), func(tx storage.Tx) error {
		return tx.CreateUser(context.Background(), u, "driver")
	}))
	return u
}

func (s *ServiceSuite) createDriver() *models.Driver {
	d, err := s.svc.Create(s.ctxA, CreateInput{UserID: s.user.ID, LicenseNumber: "CDL-100", VehiclePlate: "7ABC123"})
	s.Require().NoError(err)
	return d
}

func (s *ServiceSuite) TestCreate_Defaults() {
	d := s.createDriver()
	s.Require().NotEmpty(d.ID)
	s.Require().Equal("A", d.CompanyID)
	s.Require().Equal(models.DriverStatusActive, d.Status)
	s.Require().Equal(models.DefaultDriverRating, d.Rating)
}

func (s *ServiceSuite) TestCreate_Validation() {
	_, err := s.svc.Create(s.ctxA, CreateInput{UserID: s.user.ID})
	s.Require().ErrorIs(err, errs.ErrValidation)

	_, err = s.svc.Create(s.ctxA, CreateInput{UserID: s.user.ID, LicenseNumber: "X", Status: "retired"})
	s.Require().ErrorIs(err, errs.ErrInvalidStatus)

	_, err = s.svc.Create(context.Background(), CreateInput{UserID: s.user.ID, LicenseNumber: "X"})
	s.Require().ErrorIs(err, errs.ErrNoPrincipal)
}

func (s *ServiceSuite) TestCreate_UserMustBelongToTenant() {
	other := s.seedUser("B", "other@b.test")
	_, err := s.svc.Create(s.ctxA, CreateInput{UserID: other.ID, LicenseNumber: "X"})
	s.Require().ErrorIs(err, errs.ErrNotFound)
}

func (s *ServiceSuite) TestCreate_OneProfilePerUser() {
	s.createDriver()
	_, err := s.svc.Create(s.ctxA, CreateInput{UserID: s.user.ID, LicenseNumber: "CDL-200"})
	s.Require().ErrorIs(err, errs.ErrConflict)
}

func (s *ServiceSuite) TestTenantIsolation() {
	d := s.createDriver()

	_, err := s.svc.Get(s.ctxB, d.ID)
	s.Require().ErrorIs(err, errs.ErrNotFound)

	page, err := s.svc.List(s.ctxB, query.Params{})
	s.Require().NoError(err)
	s.Require().Zero(page.Total)
	s.Require().Empty(page.Items)

	s.Require().ErrorIs(s.svc.Delete(s.ctxB, d.ID), errs.ErrNotFound)
	_, err = s.svc.Get(s.ctxA, d.ID)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestUpdate_PartialAndStatus() {
	d := s.createDriver()
	plate := "9XYZ999"
	status := models.DriverStatusOnLeave
	got, err := s.svc.Update(s.ctxA, d.ID, UpdateInput{VehiclePlate: &plate, Status: &status})
	s.Require().NoError(err)
	s.Require().Equal(plate, got.VehiclePlate)
	s.Require().Equal("CDL-100", got.LicenseNumber)
	s.Require().Equal(models.DriverStatusOnLeave, got.Status)

	bad := models.DriverStatus("fired")
	_, err = s.svc.Update(s.ctxA, d.ID, UpdateInput{Status: &bad})
	s.Require().ErrorIs(err, errs.ErrInvalidStatus)
}

func (s *ServiceSuite) TestList_SearchAndStatus() {
	s.createDriver()
	page, err := s.svc.List(s.ctxA, query.Params{Search: "7abc"})
	s.Require().NoError(err)
	s.Require().Equal(1, page.Total)

	page, err = s.svc.List(s.ctxA, query.Params{Status: "all"})
	s.Require().NoError(err)
	s.Require().Equal(1, page.Total)

	_, err = s.svc.List(s.ctxA, query.Params{Status: "nope"})
	s.Require().ErrorIs(err, errs.ErrInvalidStatus)

	_, err = s.svc.List(s.ctxA, query.Params{Page: -1})
	s.Require().ErrorIs(err, errs.ErrValidation)
}

func (s *ServiceSuite) TestRecordRating_RecomputesAverage() {
	d := s.createDriver()
	for _, r := range []int{5, 4} {
		_, err := s.svc.RecordRating(s.ctxA, d.ID, RatingInput{Rating: r})
		s.Require().NoError(err)
	}
	got, err := s.svc.Get(s.ctxA, d.ID)
	s.Require().NoError(err)
	s.Require().Equal(4.5, got.Rating)

	_, err = s.svc.RecordRating(s.ctxA, d.ID, RatingInput{Rating: 5})
	s.Require().NoError(err)
	got, err = s.svc.Get(s.ctxA, d.ID)
	s.Require().NoError(err)
	s.Require().Equal(4.67, got.Rating)

	page, err := s.svc.ListRatings(s.ctxA, d.ID, query.Params{})
	s.Require().NoError(err)
	s.Require().Equal(3, page.Count)
	s.Require().Equal(4.67, page.Average)
	s.Require().Len(page.Items, 3)

	evs := s.events.OfType(messages.DriverRatingUpdated)
	s.Require().Len(evs, 3)
	s.Require().Equal(s.user.ID, evs[2].NotifyUserID)
	var p messages.DriverRatingUpdatedPayload
	s.Require().NoError(evs[2].Decode(&p))
	s.Require().Equal(4.67, p.Rating)
	s.Require().Equal(3, p.Count)
}

func (s *ServiceSuite) TestRecordRating_OutOfRange() {
	d := s.createDriver()
	_, err := s.svc.RecordRating(s.ctxA, d.ID, RatingInput{Rating: 6})
	s.Require().ErrorIs(err, errs.ErrValidation)
	s.Require().Contains(err.Error(), "rating must be between 1 and 5")

	_, err = s.svc.RecordRating(s.ctxA, d.ID, RatingInput{Rating: 0})
	s.Require().ErrorIs(err, errs.ErrValidation)

	got, err := s.svc.Get(s.ctxA, d.ID)
	s.Require().NoError(err)
	s.Require().Equal(models.DefaultDriverRating, got.Rating)
	s.Require().Empty(s.events.Events())
}

func (s *ServiceSuite) TestRecordRating_UnknownLoadRollsBack() {
	d := s.createDriver()
	missing := "no-such-load"
	_, err := s.svc.RecordRating(s.ctxA, d.ID, RatingInput{Rating: 1, LoadID: &missing})
	s.Require().ErrorIs(err, errs.ErrNotFound)

	page, err := s.svc.ListRatings(s.ctxA, d.ID, query.Params{})
	s.Require().NoError(err)
	s.Require().Zero(page.Count)
	s.Require().Equal(models.DefaultDriverRating, page.Average)
}

func (s *ServiceSuite) TestDocuments() {
	d := s.createDriver()
	_, err := s.svc.AddDocument(s.ctxA, d.ID, DocumentInput{Type: "passport", DocumentURL: "https://files.test/a.pdf"})
	s.Require().ErrorIs(err, errs.ErrValidation)

	doc, err := s.svc.AddDocument(s.ctxA, d.ID, DocumentInput{Type: models.DriverDocInsurance, DocumentURL: "https://files.test/ins.pdf"})
	s.Require().NoError(err)

	page, err := s.svc.ListDocuments(s.ctxA, d.ID, query.Params{Status: "insurance"})
	s.Require().NoError(err)
	s.Require().Equal(1, page.Total)

	_, err = s.svc.ListDocuments(s.ctxB, d.ID, query.Params{})
	s.Require().ErrorIs(err, errs.ErrNotFound)

	s.Require().NoError(s.svc.DeleteDocument(s.ctxA, d.ID, doc.ID))
	s.Require().ErrorIs(s.svc.DeleteDocument(s.ctxA, d.ID, doc.ID), errs.ErrNotFound)
}

func (s *ServiceSuite) TestLocations() {
	d := s.createDriver()
	_, err := s.svc.LatestLocation(s.ctxA, d.ID)
	s.Require().ErrorIs(err, errs.ErrNotFound)

	_, err = s.svc.RecordLocation(s.ctxA, d.ID, LocationInput{Latitude: 91})
	s.Require().ErrorIs(err, errs.ErrValidation)

	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, lat := range []float64{40.1, 40.2, 40.3} {
		ts := t0.Add(time.Duration(i) * time.Minute)
		_, err := s.svc.RecordLocation(s.ctxA, d.ID, LocationInput{Latitude: lat, Longitude: -74, Timestamp: &ts})
		s.Require().NoError(err)
	}
	latest, err := s.svc.LatestLocation(s.ctxA, d.ID)
	s.Require().NoError(err)
	s.Require().Equal(40.3, latest.Latitude)

	page, err := s.svc.ListLocations(s.ctxA, d.ID, query.Params{Limit: 2})
	s.Require().NoError(err)
	s.Require().Equal(3, page.Total)
	s.Require().Len(page.Items, 2)
}

func (s *ServiceSuite) TestDelete_Cascades() {
	d := s.createDriver()
	_, err := s.svc.RecordRating(s.ctxA, d.ID, RatingInput{Rating: 3})
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Delete(s.ctxA, d.ID))

	_, err = s.svc.Get(s.ctxA, d.ID)
	s.Require().ErrorIs(err, errs.ErrNotFound)
	_, err = s.svc.ListRatings(s.ctxA, d.ID, query.Params{})
	s.Require().ErrorIs(err, errs.ErrNotFound)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

type CacheSuite struct {
	suite.Suite

	store *memstore.Store
	cache *cachemocks.MockBytes
	svc   *Service
	ctx   context.Context
	d     *models.Driver
}

func (s *CacheSuite) SetupTest() {
	s.store = memstore.New()
	s.cache = &cachemocks.MockBytes{}
	s.svc = New(s.store, s.cache, 10*time.Minute, nil, nil)
	s.ctx = tenant.WithPrincipal(context.Background(), tenant.Principal{CompanyID: "A"})

	u := &models.User{Email: "c@a.test"}
	s.d = &models.Driver{LicenseNumber: "L", Status: models.DriverStatusActive, Rating: 5}
	s.Require().NoError(s.store.Update(context.Background(), tenant.System("A"), func(tx storage.Tx) error {
		if err := tx.CreateUser(context.Background(), u, "driver"); err != nil {
			return err
		}
		s.d.UserID = u.ID
		return tx.CreateDriver(context.Background(), s.d)
	}))
}

func (s *CacheSuite) key() string { return "freightdesk:A:driver:" + s.d.ID }

func (s *CacheSuite) TestGet_HitSkipsStore() {
	cached := *s.d
	cached.LicenseNumber = "FROM-CACHE"
	b, _ := json.Marshal(cached)
	s.cache.On("Get", mock.Anything, s.key()).Return(b, true, nil).Once()

	got, err := s.svc.Get(s.ctx, s.d.ID)
	s.Require().NoError(err)
	s.Require().Equal("FROM-CACHE", got.LicenseNumber)
	s.cache.AssertNotCalled(s.T(), "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *CacheSuite) TestGet_MissAndCacheErrorsFallBackToStore() {
	s.cache.On("Get", mock.Anything, s.key()).Return([]byte(nil), false, errors.New("redis down")).Once()
	s.cache.On("Set", mock.Anything, s.key(), mock.Anything, 10*time.Minute).Return(errors.New("redis down")).Once()

	got, err := s.svc.Get(s.ctx, s.d.ID)
	s.Require().NoError(err)
	s.Require().Equal("L", got.LicenseNumber)
	s.cache.AssertExpectations(s.T())
}

func (s *CacheSuite) TestRating_InvalidatesProfile() {
	s.cache.On("Del", mock.Anything, []string{s.key()}).Return(nil).Once()
	_, err := s.svc.RecordRating(s.ctx, s.d.ID, RatingInput{Rating: 4})
	s.Require().NoError(err)
	s.cache.AssertExpectations(s.T())
}

func (s *CacheSuite) TestZeroTTLDisablesCache() {
	svc := New(s.store, s.cache, 0, nil, nil)
	_, err := svc.Get(s.ctx, s.d.ID)
	s.Require().NoError(err)
	s.cache.AssertNotCalled(s.T(), "Get", mock.Anything, mock.Anything)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}
