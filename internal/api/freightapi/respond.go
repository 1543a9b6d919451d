package freightapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/query"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// statusOf maps the error taxonomy onto HTTP.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, errs.ErrImmutableState):
		return http.StatusConflict, "immutable_state"
	case errors.Is(err, errs.ErrOverpayment):
		return http.StatusUnprocessableEntity, "overpayment"
	case errors.Is(err, errs.ErrInvalidStatus):
		return http.StatusUnprocessableEntity, "invalid_status"
	case errors.Is(err, errs.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, errs.ErrNoPrincipal):
		return http.StatusUnauthorized, "unauthorized"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	err = errs.FromContext(err)
	status, code := statusOf(err)
	body := errorBody{Error: code, Message: err.Error()}
	var e *errs.Error
	if errors.As(err, &e) {
		body.Field = e.Field
		body.Message = e.Message
	}
	if status == http.StatusInternalServerError {
		// services already logged the cause
		body.Message = "internal error"
		a.log.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeJSON(w, status, body)
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errs.IsBusiness(err) {
			return err
		}
		return errs.Validation("body", "malformed JSON body: %v", err)
	}
	return nil
}

// listParams reads page, limit, search, status, from and to. Dates accept
// RFC 3339 or YYYY-MM-DD.
func listParams(r *http.Request) (query.Params, error) {
	q := r.URL.Query()
	var p query.Params
	var err error
	if p.Page, err = intParam(q.Get("page"), "page"); err != nil {
		return p, err
	}
	if p.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		return p, err
	}
	p.Search = q.Get("search")
	p.Status = q.Get("status")
	if p.From, err = timeParam(q.Get("from"), "from"); err != nil {
		return p, err
	}
	if p.To, err = timeParam(q.Get("to"), "to"); err != nil {
		return p, err
	}
	return p, nil
}

func intParam(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errs.Validation(name, "%s must be an integer", name)
	}
	return n, nil
}

func timeParam(v, name string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, errs.Validation(name, "%s must be a date (YYYY-MM-DD or RFC 3339)", name)
}

func boolParam(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
