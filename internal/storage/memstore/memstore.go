// Package memstore is the in-process implementation of storage.Store.
//
// Writers are serialized by a single lock and work on a copy of the data that
// replaces the live copy only when the unit of work succeeds, so a failed
// Update leaves nothing behind.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/query"
	"github.com/BearBump/FreightDesk/internal/storage"
	"github.com/BearBump/FreightDesk/internal/tenant"
)

var errReadOnly = errors.New("memstore: write inside View")

type data struct {
	drivers       map[string]models.Driver
	driverDocs    map[string]models.DriverDocument
	locations     map[string]models.DriverLocation
	ratings       map[string]models.DriverRating
	loads         map[string]models.Load
	assignments   map[string]models.LoadAssignment
	tracking      map[string]models.LoadTracking
	loadDocs      map[string]models.LoadDocument
	invoices      map[string]models.Invoice
	payments      map[string]models.Payment
	users         map[string]models.User
	roles         map[string]models.UserCompanyRole
	notifications map[string]models.Notification
	conversations map[string]models.Conversation
	messages      map[string]models.Message
}

func newData() *data {
	return &data{
		drivers:       map[string]models.Driver{},
		driverDocs:    map[string]models.DriverDocument{},
		locations:     map[string]models.DriverLocation{},
		ratings:       map[string]models.DriverRating{},
		loads:         map[string]models.Load{},
		assignments:   map[string]models.LoadAssignment{},
		tracking:      map[string]models.LoadTracking{},
		loadDocs:      map[string]models.LoadDocument{},
		invoices:      map[string]models.Invoice{},
		payments:      map[string]models.Payment{},
		users:         map[string]models.User{},
		roles:         map[string]models.UserCompanyRole{},
		notifications: map[string]models.Notification{},
		conversations: map[string]models.Conversation{},
		messages:      map[string]models.Message{},
	}
}

func (d *data) clone() *data {
	return &data{
		drivers:       cloneMap(d.drivers),
		driverDocs:    cloneMap(d.driverDocs),
		locations:     cloneMap(d.locations),
		ratings:       cloneMap(d.ratings),
		loads:         cloneMap(d.loads),
		assignments:   cloneMap(d.assignments),
		tracking:      cloneMap(d.tracking),
		loadDocs:      cloneMap(d.loadDocs),
		invoices:      cloneMap(d.invoices),
		payments:      cloneMap(d.payments),
		users:         cloneMap(d.users),
		roles:         cloneMap(d.roles),
		notifications: cloneMap(d.notifications),
		conversations: cloneMap(d.conversations),
		messages:      cloneMap(d.messages),
	}
}

// Slice fields (participants, readBy) are never mutated in place, only
// replaced, so a shallow copy of the map values is enough.
func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type Store struct {
	mu   sync.RWMutex
	data *data
	now  func() time.Time
}

func New() *Store {
	return &Store{data: newData(), now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the timestamp source; tests use it for stable ordering.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Close() {}

func (s *Store) View(ctx context.Context, sc tenant.Scope, fn func(tx storage.Tx) error) error {
	if !sc.Valid() {
		return errs.ErrNoPrincipal
	}
	if err := ctx.Err(); err != nil {
		return errs.FromContext(err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return errs.FromContext(fn(&tx{sc: sc, d: s.data, now: s.now}))
}

func (s *Store) Update(ctx context.Context, sc tenant.Scope, fn func(tx storage.Tx) error) error {
	if !sc.Valid() {
		return errs.ErrNoPrincipal
	}
	if err := ctx.Err(); err != nil {
		return errs.FromContext(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&tx{sc: sc, d: work, now: s.now, writable: true}); err != nil {
		return errs.FromContext(err)
	}
	// A deadline that expired while fn ran still aborts the commit.
	if err := ctx.Err(); err != nil {
		return errs.FromContext(err)
	}
	s.data = work
	return nil
}

type tx struct {
	sc       tenant.Scope
	d        *data
	now      func() time.Time
	writable bool
}

var _ storage.Tx = (*tx)(nil)

func (t *tx) Scope() tenant.Scope { return t.sc }

func (t *tx) write() error {
	if !t.writable {
		return errReadOnly
	}
	return nil
}

func (t *tx) owns(companyID string) bool { return t.sc.Owns(companyID) }

func newID() string { return uuid.NewString() }

// list filters rows, orders them and cuts the requested page. The total is
// counted before pagination.
func list[T any](rows map[string]T, p query.Params, keep func(T) bool, less func(a, b T) bool) ([]*T, int) {
	matched := make([]T, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return less(matched[i], matched[j]) })

	start, end := p.Window(len(matched))
	out := make([]*T, 0, end-start)
	for i := start; i < end; i++ {
		v := matched[i]
		out = append(out, &v)
	}
	return out, len(matched)
}

// newestFirst orders by creation time, id breaking ties so pages are stable.
func newestFirst(a, b time.Time, aID, bID string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return aID > bID
}

func oldestFirst(a, b time.Time, aID, bID string) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return aID < bID
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
