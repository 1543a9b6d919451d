package freightapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BearBump/FreightDesk/internal/services/drivers"
)

func (a *API) createDriver(w http.ResponseWriter, r *http.Request) {
	in, ok := body[drivers.CreateInput](a, w, r)
	if !ok {
		return
	}
	d, err := a.svc.Drivers.Create(r.Context(), in)
	a.reply(w, r, http.StatusCreated, d, err)
}

func (a *API) listDrivers(w http.ResponseWriter, r *http.Request) {
	p, ok := a.params(w, r)
	if !ok {
		return
	}
	page, err := a.svc.Drivers.List(r.Context(), p)
	a.reply(w, r, http.StatusOK, page, err)
}

func (a *API) getDriver(w http.ResponseWriter, r *http.Request) {
	d, err := a.svc.Drivers.Get(r.Context(), id(r))
	a.reply(w, r, http.StatusOK, d, err)
}

func (a *API) updateDriver(w http.ResponseWriter, r *http.Request) {
	in, ok := body[drivers.UpdateInput](a, w, r)
	if !ok {
		return
	}
	d, err := a.svc.Drivers.Update(r.Context(), id(r), in)
	a.reply(w, r, http.StatusOK, d, err)
}

func (a *API) deleteDriver(w http.ResponseWriter, r *http.Request) {
	a.reply(w, r, http.StatusNoContent, nil, a.svc.Drivers.Delete(r.Context(), id(r)))
}

func (a *API) addDriverDocument(w http.ResponseWriter, r *http.Request) {
	in, ok := body[drivers.DocumentInput](a, w, r)
	if !ok {
		return
	}
	doc, err := a.svc.Drivers.AddDocument(r.Context(), id(r), in)
	a.reply(w, r, http.StatusCreated, doc, err)
}

func (a *API) listDriverDocuments(w http.ResponseWriter, r *http.Request) {
	p, ok := a.params(w, r)
	if !ok {
		return
	}
	page, err := a.svc.Drivers.ListDocuments(r.Context(), id(r), p)
	a.reply(w, r, http.StatusOK, page, err)
}

func (a *API) deleteDriverDocument(w http.ResponseWriter, r *http.Request) {
	err := a.svc.Drivers.DeleteDocument(r.Context(), id(r), chi.URLParam(r, "docID"))
	a.reply(w, r, http.StatusNoContent, nil, err)
}

func (a *API) recordLocation(w http.ResponseWriter, r *http.Request) {
	in, ok := body[drivers.LocationInput](a, w, r)
	if !ok {
		return
	}
	loc, err := a.svc.Drivers.RecordLocation(r.Context(), id(r), in)
	a.reply(w, r, http.StatusCreated, loc, err)
}

func (a *API) listLocations(w http.ResponseWriter, r *http.Request) {
	p, ok := a.params(w, r)
	if !ok {
		return
	}
	page, err := a.svc.Drivers.ListLocations(r.Context(), id(r), p)
	a.reply(w, r, http.StatusOK, page, err)
}

func (a *API) latestLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := a.svc.Drivers.LatestLocation(r.Context(), id(r))
	a.reply(w, r, http.StatusOK, loc, err)
}

func (a *API) recordRating(w http.ResponseWriter, r *http.Request) {
	in, ok := body[drivers.RatingInput](a, w, r)
	if !ok {
		return
	}
	rt, err := a.svc.Drivers.RecordRating(r.Context(), id(r), in)
	a.reply(w, r, http.StatusCreated, rt, err)
}

func (a *API) listRatings(w http.ResponseWriter, r *http.Request) {
	p, ok := a.params(w, r)
	if !ok {
		return
	}
	page, err := a.svc.Drivers.ListRatings(r.Context(), id(r), p)
	a.reply(w, r, http.StatusOK, page, err)
}
