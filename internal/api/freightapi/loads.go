package freightapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BearBump/FreightDesk/internal/services/loads"
)

func (a *API) createLoad(w http.ResponseWriter, r *http.Request) {
	in, ok := body[loads.CreateInput](a, w, r)
	if !ok {
		return
	}
	l, err := a.svc.Loads.Create(r.Context(), in)
	a.reply(w, r, http.StatusCreated, l, err)
}

func (a *API) listLoads(w http.ResponseWriter, r *http.Request) {
	p, ok := a.params(w, r)
	if !ok {
		return
	}
	page, err := a.svc.Loads.List(r.Context(), p)
	a.reply(w, r, http.StatusOK, page, err)
}

func (a *API) getLoad(w http.ResponseWriter, r *http.Request) {
	l, err := a.svc.Loads.Get(r.Context(), id(r))
	a.reply(w, r, http.StatusOK, l, err)
}

func (a *API) updateLoad(w http.ResponseWriter, r *http.Request) {
	in, ok := body[loads.UpdateInput](a, w, r)
	if !ok {
		return
	}
	l, err := a.svc.Loads.Update(r.Context(), id(r), in)
	a.reply(w, r, http.StatusOK, l, err)
}

func (a *API) deleteLoad(w http.ResponseWriter, r *http.Request) {
	a.reply(w, r, http.StatusNoContent, nil, a.svc.Loads.Delete(r.Context(), id(r)))
}

func (a *API) recordTracking(w http.ResponseWriter, r *http.Request) {
	in, ok := body[loads.TrackingInput](a, w, r)
	if !ok {
		return
	}
	tr, err := a.svc.Loads.RecordTracking(r.Context(), id(r), in)
	a.reply(w, r, http.StatusCreated, tr, err)
}

func (a *API) listTracking(w http.ResponseWriter, r *http.Request) {
	p, ok := a.params(w, r)
	if !ok {
		return
	}
	page, err := a.svc.Loads.ListTracking(r.Context(), id(r), p)
	a.reply(w, r, http.StatusOK, page, err)
}

func (a *API) addLoadDocument(w http.ResponseWriter, r *http.Request) {
	in, ok := body[loads.DocumentInput](a, w, r)
	if !ok {
		return
	}
	doc, err := a.svc.Loads.AddDocument(r.Context(), id(r), in)
	a.reply(w, r, http.StatusCreated, doc, err)
}

func (a *API) listLoadDocuments(w http.ResponseWriter, r *http.Request) {
	p, ok := a.params(w, r)
	if !ok {
		return
	}
	page, err := a.svc.Loads.ListDocuments(r.Context(), id(r), p)
	a.reply(w, r, http.StatusOK, page, err)
}

func (a *API) assignLoad(w http.ResponseWriter, r *http.Request) {
	in, ok := body[loads.AssignInput](a, w, r)
	if !ok {
		return
	}
	as, err := a.svc.Loads.Assign(r.Context(), id(r), in)
	a.reply(w, r, http.StatusCreated, as, err)
}

func (a *API) listAssignments(w http.ResponseWriter, r *http.Request) {
	p, ok := a.params(w, r)
	if !ok {
		return
	}
	page, err := a.svc.Loads.ListAssignments(r.Context(), id(r), p)
	a.reply(w, r, http.StatusOK, page, err)
}

func (a *API) activeAssignment(w http.ResponseWriter, r *http.Request) {
	as, err := a.svc.Loads.ActiveAssignment(r.Context(), id(r))
	a.reply(w, r, http.StatusOK, as, err)
}

func (a *API) getAssignment(w http.ResponseWriter, r *http.Request) {
	as, err := a.svc.Loads.GetAssignment(r.Context(), id(r), chi.URLParam(r, "assignmentID"))
	a.reply(w, r, http.StatusOK, as, err)
}

func (a *API) updateAssignment(w http.ResponseWriter, r *http.Request) {
	in, ok := body[loads.AssignmentUpdateInput](a, w, r)
	if !ok {
		return
	}
	as, err := a.svc.Loads.UpdateAssignment(r.Context(), id(r), chi.URLParam(r, "assignmentID"), in)
	a.reply(w, r, http.StatusOK, as, err)
}
