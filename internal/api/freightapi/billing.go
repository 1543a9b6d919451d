package freightapi

import (
	"net/http"

	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/services/billing"
)

func (a *API) createInvoice(w http.ResponseWriter, r *http.Request) {
	in, ok := body[billing.InvoiceInput](a, w, r)
	if !ok {
		return
	}
	inv, err := a.svc.Billing.CreateInvoice(r.Context(), in)
	a.reply(w, r, http.StatusCreated, inv, err)
}

func (a *API) listInvoices(w http.ResponseWriter, r *http.Request) {
	p, ok := a.params(w, r)
	if !ok {
		return
	}
	page, err := a.svc.Billing.ListInvoices(r.Context(), p)
	a.reply(w, r, http.StatusOK, page, err)
}

func (a *API) getInvoice(w http.ResponseWriter, r *http.Request) {
	b, err := a.svc.Billing.GetInvoice(r.Context(), id(r))
	a.reply(w, r, http.StatusOK, b, err)
}

func (a *API) invoiceBalance(w http.ResponseWriter, r *http.Request) {
	rem, err := a.svc.Billing.RemainingBalance(r.Context(), id(r))
	a.reply(w, r, http.StatusOK, map[string]models.Money{"remaining": rem}, err)
}

func (a *API) updateInvoice(w http.ResponseWriter, r *http.Request) {
	in, ok := body[billing.InvoiceUpdateInput](a, w, r)
	if !ok {
		return
	}
	inv, err := a.svc.Billing.UpdateInvoice(r.Context(), id(r), in)
	a.reply(w, r, http.StatusOK, inv, err)
}

func (a *API) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	a.reply(w, r, http.StatusNoContent, nil, a.svc.Billing.DeleteInvoice(r.Context(), id(r)))
}

func (a *API) recordPayment(w http.ResponseWriter, r *http.Request) {
	in, ok := body[billing.PaymentInput](a, w, r)
	if !ok {
		return
	}
	pay, err := a.svc.Billing.RecordPayment(r.Context(), in)
	a.reply(w, r, http.StatusCreated, pay, err)
}

func (a *API) listPayments(w http.ResponseWriter, r *http.Request) {
	p, ok := a.params(w, r)
	if !ok {
		return
	}
	page, err := a.svc.Billing.ListPayments(r.Context(), p)
	a.reply(w, r, http.StatusOK, page, err)
}

func (a *API) getPayment(w http.ResponseWriter, r *http.Request) {
	pay, err := a.svc.Billing.GetPayment(r.Context(), id(r))
	a.reply(w, r, http.StatusOK, pay, err)
}

func (a *API) updatePayment(w http.ResponseWriter, r *http.Request) {
	in, ok := body[billing.PaymentUpdateInput](a, w, r)
	if !ok {
		return
	}
	pay, err := a.svc.Billing.UpdatePayment(r.Context(), id(r), in)
	a.reply(w, r, http.StatusOK, pay, err)
}

func (a *API) deletePayment(w http.ResponseWriter, r *http.Request) {
	a.reply(w, r, http.StatusNoContent, nil, a.svc.Billing.DeletePayment(r.Context(), id(r)))
}
