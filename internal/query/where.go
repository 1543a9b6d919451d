package query

import (
	"fmt"
	"strings"
)

// Where accumulates AND-ed SQL predicates with positional pgx arguments.
type Where struct {
	clauses []string
	args    []any
}

// Scoped starts every WHERE with the tenant predicate so no list query can be
// built without it.
func Scoped(column, companyID string) *Where {
	w := &Where{}
	return w.Eq(column, companyID)
}

func (w *Where) next(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *Where) Eq(column string, v any) *Where {
	w.clauses = append(w.clauses, column+" = "+w.next(v))
	return w
}

// Raw adds a predicate that references a new argument through the %s verb.
func (w *Where) Raw(expr string, v any) *Where {
	w.clauses = append(w.clauses, fmt.Sprintf(expr, w.next(v)))
	return w
}

func (w *Where) Search(term string, columns ...string) *Where {
	if term == "" || len(columns) == 0 {
		return w
	}
	ph := w.next("%" + escapeLike(term) + "%")
	ors := make([]string, 0, len(columns))
	for _, c := range columns {
		ors = append(ors, c+" ILIKE "+ph)
	}
	w.clauses = append(w.clauses, "("+strings.Join(ors, " OR ")+")")
	return w
}

func (w *Where) Status(column string, p Params) *Where {
	if p.Status == "" {
		return w
	}
	return w.Eq(column, p.Status)
}

func (w *Where) DateRange(column string, p Params) *Where {
	if p.From != nil {
		w.clauses = append(w.clauses, column+" >= "+w.next(p.From.UTC()))
	}
	if p.To != nil {
		w.clauses = append(w.clauses, column+" <= "+w.next(p.To.UTC()))
	}
	return w
}

// Apply composes the common list filters.
func (w *Where) Apply(p Params, statusColumn, dateColumn string, searchColumns ...string) *Where {
	w.Search(p.Search, searchColumns...)
	if statusColumn != "" {
		w.Status(statusColumn, p)
	}
	if dateColumn != "" {
		w.DateRange(dateColumn, p)
	}
	return w
}

func (w *Where) SQL() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *Where) Args() []any { return w.args }

// Paged appends LIMIT/OFFSET placeholders and returns the extended args.
func (w *Where) Paged(p Params) (string, []any) {
	args := append(append([]any{}, w.args...), p.Limit, p.Skip())
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
