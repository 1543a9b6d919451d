package freightapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BearBump/FreightDesk/internal/query"
)

func (a *API) reply(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, v)
}

func body[T any](a *API, w http.ResponseWriter, r *http.Request) (T, bool) {
	var in T
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return in, false
	}
	return in, true
}

func (a *API) params(w http.ResponseWriter, r *http.Request) (query.Params, bool) {
	p, err := listParams(r)
	if err != nil {
		a.fail(w, r, err)
		return p, false
	}
	return p, true
}

func id(r *http.Request) string { return chi.URLParam(r, "id") }

type countBody struct {
	Count int `json:"count"`
}
