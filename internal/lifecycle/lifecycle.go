// Package lifecycle is the status transition engine: closed status enums,
// allowed edges per entity and the cross-entity cascades. Everything here is
// a pure function over status values so it can be tested without storage.
package lifecycle

import (
	"slices"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/models"
)

// Machine is a transition table for one status enum. Self-transitions are
// always allowed so that partial updates repeating the current status are
// no-ops rather than errors.
type Machine[S ~string] struct {
	field string
	edges map[S][]S
}

func newMachine[S ~string](field string, edges map[S][]S) Machine[S] {
	return Machine[S]{field: field, edges: edges}
}

// Valid reports enum membership.
func (m Machine[S]) Valid(s S) bool {
	_, ok := m.edges[s]
	return ok
}

// Check fails with InvalidStatusError when s is outside the enum.
func (m Machine[S]) Check(s S) error {
	if !m.Valid(s) {
		return errs.InvalidStatus(m.field, "%q is not a valid %s", string(s), m.field)
	}
	return nil
}

// Terminal reports whether no edge leaves s.
func (m Machine[S]) Terminal(s S) bool {
	return m.Valid(s) && len(m.edges[s]) == 0
}

// Transition validates from → to.
func (m Machine[S]) Transition(from, to S) error {
	if err := m.Check(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	for _, next := range m.edges[from] {
		if next == to {
			return nil
		}
	}
	return errs.InvalidStatus(m.field, "cannot change %s from %q to %q", m.field, string(from), string(to))
}

// Values lists the enum, used for validation messages and filters.
func (m Machine[S]) Values() []S {
	out := make([]S, 0, len(m.edges))
	for s := range m.edges {
		out = append(out, s)
	}
	return out
}

var Load = newMachine("load status", map[models.LoadStatus][]models.LoadStatus{
	models.LoadStatusPending:   {models.LoadStatusAccepted, models.LoadStatusCancelled},
	models.LoadStatusAccepted:  {models.LoadStatusInTransit, models.LoadStatusCancelled},
	models.LoadStatusInTransit: {models.LoadStatusDelivered, models.LoadStatusCancelled},
	models.LoadStatusDelivered: nil,
	models.LoadStatusCancelled: nil,
})

var Assignment = newMachine("assignment status", map[models.AssignmentStatus][]models.AssignmentStatus{
	models.AssignmentStatusPending:   {models.AssignmentStatusAccepted, models.AssignmentStatusRejected},
	models.AssignmentStatusAccepted:  {models.AssignmentStatusCompleted, models.AssignmentStatusRejected},
	models.AssignmentStatusRejected:  nil,
	models.AssignmentStatusCompleted: nil,
})

// Tracking events are an append-only audit trail, so every enum value may
// follow any other.
var Tracking = newMachine("tracking status", map[models.TrackingStatus][]models.TrackingStatus{
	models.TrackingPickupArrived:   allTracking,
	models.TrackingPickupCompleted: allTracking,
	models.TrackingInTransit:       allTracking,
	models.TrackingDeliveryArrived: allTracking,
	models.TrackingDelivered:       allTracking,
	models.TrackingFailed:          allTracking,
})

var allTracking = []models.TrackingStatus{
	models.TrackingPickupArrived, models.TrackingPickupCompleted, models.TrackingInTransit,
	models.TrackingDeliveryArrived, models.TrackingDelivered, models.TrackingFailed,
}

var Payment = newMachine("payment status", map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentStatusPending:   {models.PaymentStatusCompleted, models.PaymentStatusFailed, models.PaymentStatusRefunded},
	models.PaymentStatusFailed:    {models.PaymentStatusPending},
	models.PaymentStatusCompleted: nil,
	models.PaymentStatusRefunded:  nil,
})

// Invoice status is a manual/reporting field: any enum value may follow any
// other.
var Invoice = newMachine("invoice status", map[models.InvoiceStatus][]models.InvoiceStatus{
	models.InvoiceStatusDraft:     allInvoice,
	models.InvoiceStatusPending:   allInvoice,
	models.InvoiceStatusSent:      allInvoice,
	models.InvoiceStatusPartial:   allInvoice,
	models.InvoiceStatusPaid:      allInvoice,
	models.InvoiceStatusOverdue:   allInvoice,
	models.InvoiceStatusCancelled: allInvoice,
})

var allInvoice = []models.InvoiceStatus{
	models.InvoiceStatusDraft, models.InvoiceStatusPending, models.InvoiceStatusSent, models.InvoiceStatusPartial,
	models.InvoiceStatusPaid, models.InvoiceStatusOverdue, models.InvoiceStatusCancelled,
}

var Driver = newMachine("driver status", map[models.DriverStatus][]models.DriverStatus{
	models.DriverStatusActive:    allDriver,
	models.DriverStatusInactive:  allDriver,
	models.DriverStatusOnLeave:   allDriver,
	models.DriverStatusSuspended: allDriver,
})

var allDriver = []models.DriverStatus{
	models.DriverStatusActive, models.DriverStatusInactive, models.DriverStatusOnLeave, models.DriverStatusSuspended,
}

// LoadCascadeFromTracking returns the load status a tracking event forces, if
// any. Only terminal tracking outcomes cascade; the rest are informational.
func LoadCascadeFromTracking(s models.TrackingStatus) (models.LoadStatus, bool) {
	switch s {
	case models.TrackingDelivered:
		return models.LoadStatusDelivered, true
	case models.TrackingFailed:
		return models.LoadStatusCancelled, true
	default:
		return "", false
	}
}

// LoadCascadeFromAssignment moves a pending load to accepted when its
// assignment is accepted. Loads past pending are left alone.
func LoadCascadeFromAssignment(a models.AssignmentStatus, load models.LoadStatus) (models.LoadStatus, bool) {
	if a == models.AssignmentStatusAccepted && load == models.LoadStatusPending {
		return models.LoadStatusAccepted, true
	}
	return "", false
}

// LockedPaymentStatuses are the payment statuses that can no longer be
// updated or deleted, directly or through their invoice.
var LockedPaymentStatuses = []models.PaymentStatus{models.PaymentStatusCompleted, models.PaymentStatusRefunded}

// PaymentLocked reports whether the payment can no longer be updated or
// deleted.
func PaymentLocked(s models.PaymentStatus) bool {
	return slices.Contains(LockedPaymentStatuses, s)
}

// CheckPaymentMutable returns ImmutableStateError for locked payments.
func CheckPaymentMutable(p *models.Payment) error {
	if PaymentLocked(p.Status) {
		return errs.Immutable("payment %s is %s and can no longer be changed", p.ID, p.Status)
	}
	return nil
}
