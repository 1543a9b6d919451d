// Package storage declares the tenant-scoped entity store. A Tx is always
// bound to one tenant.Scope: implementations inject the company id into every
// read and write, so no caller can forget it.
package storage

import (
	"context"

	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/money"
	"github.com/BearBump/FreightDesk/internal/query"
	"github.com/BearBump/FreightDesk/internal/tenant"
)

// Store opens scoped units of work. View runs read-only work; Update runs fn
// in a single serializable transaction that commits only if fn returns nil.
type Store interface {
	View(ctx context.Context, sc tenant.Scope, fn func(tx Tx) error) error
	Update(ctx context.Context, sc tenant.Scope, fn func(tx Tx) error) error
	Close()
}

// Tx is the entity store inside one unit of work. Lookups of ids outside the
// scope return errs.ErrNotFound; creates stamp the scope's company id.
type Tx interface {
	Scope() tenant.Scope

	DriverTx
	LoadTx
	BillingTx
	UserTx
	InboxTx
}

type DriverTx interface {
	CreateDriver(ctx context.Context, d *models.Driver) error
	GetDriver(ctx context.Context, id string) (*models.Driver, error)
	ListDrivers(ctx context.Context, p query.Params) ([]*models.Driver, int, error)
	UpdateDriver(ctx context.Context, d *models.Driver) error
	DeleteDriver(ctx context.Context, id string) error

	CreateDriverDocument(ctx context.Context, doc *models.DriverDocument) error
	GetDriverDocument(ctx context.Context, driverID, id string) (*models.DriverDocument, error)
	ListDriverDocuments(ctx context.Context, driverID string, p query.Params) ([]*models.DriverDocument, int, error)
	DeleteDriverDocument(ctx context.Context, driverID, id string) error

	AppendDriverLocation(ctx context.Context, loc *models.DriverLocation) error
	ListDriverLocations(ctx context.Context, driverID string, p query.Params) ([]*models.DriverLocation, int, error)

	CreateDriverRating(ctx context.Context, r *models.DriverRating) error
	ListDriverRatings(ctx context.Context, driverID string, p query.Params) ([]*models.DriverRating, int, error)
	DriverRatingStats(ctx context.Context, driverID string) (models.RatingStats, error)
	// SetDriverRating is the only writer of Driver.Rating.
	SetDriverRating(ctx context.Context, driverID string, rating float64) error
}

type LoadTx interface {
	CreateLoad(ctx context.Context, l *models.Load) error
	GetLoad(ctx context.Context, id string) (*models.Load, error)
	ListLoads(ctx context.Context, p query.Params) ([]*models.Load, int, error)
	UpdateLoad(ctx context.Context, l *models.Load) error
	DeleteLoad(ctx context.Context, id string) error

	CreateAssignment(ctx context.Context, a *models.LoadAssignment) error
	GetAssignment(ctx context.Context, loadID, id string) (*models.LoadAssignment, error)
	ListAssignments(ctx context.Context, loadID string, p query.Params) ([]*models.LoadAssignment, int, error)
	ActiveAssignment(ctx context.Context, loadID string) (*models.LoadAssignment, error)
	UpdateAssignment(ctx context.Context, a *models.LoadAssignment) error

	AppendTracking(ctx context.Context, t *models.LoadTracking) error
	ListTracking(ctx context.Context, loadID string, p query.Params) ([]*models.LoadTracking, int, error)

	CreateLoadDocument(ctx context.Context, doc *models.LoadDocument) error
	ListLoadDocuments(ctx context.Context, loadID string, p query.Params) ([]*models.LoadDocument, int, error)
}

type BillingTx interface {
	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	// LockInvoice reads the invoice and holds it until the unit of work ends,
	// serializing concurrent payment completions against it.
	LockInvoice(ctx context.Context, id string) (*models.Invoice, error)
	ListInvoices(ctx context.Context, p query.Params) ([]*models.Invoice, int, error)
	UpdateInvoice(ctx context.Context, inv *models.Invoice) error
	DeleteInvoice(ctx context.Context, id string) error

	CreatePayment(ctx context.Context, pay *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	ListPayments(ctx context.Context, p query.Params) ([]*models.Payment, int, error)
	UpdatePayment(ctx context.Context, pay *models.Payment) error
	DeletePayment(ctx context.Context, id string) error
	CompletedTotal(ctx context.Context, invoiceID string) (money.Amount, error)
	// CountPayments counts the invoice's payments in any of the statuses.
	CountPayments(ctx context.Context, invoiceID string, statuses ...models.PaymentStatus) (int, error)
}

type UserTx interface {
	// CreateUser inserts the user together with its role row in the scope's
	// company.
	CreateUser(ctx context.Context, u *models.User, roleID string) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, p query.Params) ([]*models.User, int, error)
	UpdateUser(ctx context.Context, u *models.User) error
	// DeleteUser removes every role row of the user and then the user.
	DeleteUser(ctx context.Context, id string) (rolesDeleted int, err error)
	ListUserRoles(ctx context.Context, userID string) ([]*models.UserCompanyRole, error)
}

type InboxTx interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, userID, id string) (*models.Notification, error)
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, p query.Params) ([]*models.Notification, int, error)
	MarkNotificationRead(ctx context.Context, userID, id string, read bool) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
	DeleteNotification(ctx context.Context, userID, id string) error
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)

	CreateConversation(ctx context.Context, c *models.Conversation) error
	GetConversation(ctx context.Context, userID, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string, p query.Params) ([]*models.Conversation, int, error)
	AppendMessage(ctx context.Context, m *models.Message) error
	ListMessages(ctx context.Context, conversationID string, p query.Params) ([]*models.Message, int, error)
	MarkConversationRead(ctx context.Context, conversationID, userID string) (int, error)
	CountUnreadMessages(ctx context.Context, userID string) (int, error)
}
