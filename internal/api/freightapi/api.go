// Package freightapi is the REST adapter over the business services. It
// resolves the tenant principal from a bearer token and maps the error
// taxonomy onto status codes; all rules live in the services.
package freightapi

import (
	"context"
	_ "embed"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/services/billing"
	"github.com/BearBump/FreightDesk/internal/services/drivers"
	"github.com/BearBump/FreightDesk/internal/services/inbox"
	"github.com/BearBump/FreightDesk/internal/services/loads"
	"github.com/BearBump/FreightDesk/internal/services/users"
)

//go:embed swagger.json
var swaggerDoc []byte

type RateLimiter interface {
	Allow(ctx context.Context, companyID string) (bool, int64, error)
	Limit() int64
}

type Services struct {
	Drivers *drivers.Service
	Loads   *loads.Service
	Billing *billing.Service
	Users   *users.Service
	Inbox   *inbox.Service
}

type Options struct {
	JWTSecret      string
	Issuer         string
	RequestTimeout time.Duration
	// SwaggerPath overrides the bundled API description.
	SwaggerPath string
}

type API struct {
	svc     Services
	opts    Options
	limiter RateLimiter
	log     logger.Logger
}

func New(svc Services, opts Options, limiter RateLimiter, log logger.Logger) *API {
	if log == nil {
		log = logger.Nop()
	}
	return &API{svc: svc, opts: opts, limiter: limiter, log: log.With(logger.String("component", "http"))}
}

func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/swagger.json", a.swagger)
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/swagger.json")))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(a.Timeout, a.Authenticate, a.RateLimit)

		r.Route("/drivers", a.driverRoutes)
		r.Route("/loads", a.loadRoutes)
		r.Route("/invoices", a.invoiceRoutes)
		r.Route("/payments", a.paymentRoutes)
		r.Route("/users", a.userRoutes)
		r.Route("/notifications", a.notificationRoutes)
		r.Route("/conversations", a.conversationRoutes)
	})
	return r
}

func (a *API) swagger(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	if a.opts.SwaggerPath != "" {
		if _, err := os.Stat(a.opts.SwaggerPath); err == nil {
			http.ServeFile(w, r, a.opts.SwaggerPath)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(swaggerDoc)
}

func (a *API) driverRoutes(r chi.Router) {
	r.Post("/", a.createDriver)
	r.Get("/", a.listDrivers)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", a.getDriver)
		r.Patch("/", a.updateDriver)
		r.Delete("/", a.deleteDriver)
		r.Post("/documents", a.addDriverDocument)
		r.Get("/documents", a.listDriverDocuments)
		r.Delete("/documents/{docID}", a.deleteDriverDocument)
		r.Post("/locations", a.recordLocation)
		r.Get("/locations", a.listLocations)
		r.Get("/locations/latest", a.latestLocation)
		r.Post("/ratings", a.recordRating)
		r.Get("/ratings", a.listRatings)
	})
}

func (a *API) loadRoutes(r chi.Router) {
	r.Post("/", a.createLoad)
	r.Get("/", a.listLoads)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", a.getLoad)
		r.Patch("/", a.updateLoad)
		r.Delete("/", a.deleteLoad)
		r.Post("/tracking", a.recordTracking)
		r.Get("/tracking", a.listTracking)
		r.Post("/documents", a.addLoadDocument)
		r.Get("/documents", a.listLoadDocuments)
		r.Post("/assignments", a.assignLoad)
		r.Get("/assignments", a.listAssignments)
		r.Get("/assignments/active", a.activeAssignment)
		r.Get("/assignments/{assignmentID}", a.getAssignment)
		r.Patch("/assignments/{assignmentID}", a.updateAssignment)
	})
}

func (a *API) invoiceRoutes(r chi.Router) {
	r.Post("/", a.createInvoice)
	r.Get("/", a.listInvoices)
	r.Get("/{id}", a.getInvoice)
	r.Patch("/{id}", a.updateInvoice)
	r.Delete("/{id}", a.deleteInvoice)
	r.Get("/{id}/balance", a.invoiceBalance)
}

func (a *API) paymentRoutes(r chi.Router) {
	r.Post("/", a.recordPayment)
	r.Get("/", a.listPayments)
	r.Get("/{id}", a.getPayment)
	r.Patch("/{id}", a.updatePayment)
	r.Delete("/{id}", a.deletePayment)
}

func (a *API) userRoutes(r chi.Router) {
	r.Post("/", a.createUser)
	r.Get("/", a.listUsers)
	r.Get("/{id}", a.getUser)
	r.Patch("/{id}", a.updateUser)
	r.Delete("/{id}", a.deleteUser)
	r.Get("/{id}/roles", a.userRoles)
}

func (a *API) notificationRoutes(r chi.Router) {
	r.Post("/", a.createNotification)
	r.Get("/", a.listNotifications)
	r.Get("/unread-count", a.unreadNotifications)
	r.Post("/read-all", a.markAllNotificationsRead)
	r.Get("/{id}", a.getNotification)
	r.Patch("/{id}", a.markNotificationRead)
	r.Delete("/{id}", a.deleteNotification)
}

func (a *API) conversationRoutes(r chi.Router) {
	r.Post("/", a.createConversation)
	r.Get("/", a.listConversations)
	r.Get("/unread-count", a.unreadMessages)
	r.Get("/{id}", a.getConversation)
	r.Post("/{id}/messages", a.sendMessage)
	r.Get("/{id}/messages", a.listMessages)
	r.Post("/{id}/read", a.markConversationRead)
}
