package models

import (
	"time"

	"github.com/BearBump/FreightDesk/internal/money"
)

type Money = money.Amount

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

type Invoice struct {
	ID            string        `json:"id"`
	CompanyID     string        `json:"companyId"`
	InvoiceNumber string        `json:"invoiceNumber"`
	DriverID      *string       `json:"driverId,omitempty"`
	LoadID        *string       `json:"loadId,omitempty"`
	Amount        Money         `json:"amount"`
	Status        InvoiceStatus `json:"status"`
	DueDate       time.Time     `json:"dueDate"`
	Description   string        `json:"description,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// InvoiceBalance is the invoice as callers see it: the stored amount plus the
// figures derived from completed payments.
type InvoiceBalance struct {
	Invoice   *Invoice `json:"invoice"`
	Paid      Money    `json:"paid"`
	Remaining Money    `json:"remaining"`
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodCard  PaymentMethod = "card"
	PaymentMethodACH   PaymentMethod = "ach"
	PaymentMethodWire  PaymentMethod = "wire"
	PaymentMethodCheck PaymentMethod = "check"
	PaymentMethodCash  PaymentMethod = "cash"
)

type Payment struct {
	ID            string        `json:"id"`
	CompanyID     string        `json:"companyId"`
	InvoiceID     string        `json:"invoiceId"`
	Amount        Money         `json:"amount"`
	Currency      string        `json:"currency"`
	Status        PaymentStatus `json:"status"`
	Method        PaymentMethod `json:"method"`
	TransactionID string        `json:"transactionId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
