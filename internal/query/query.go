// Package query is the shared list contract: page/limit, free-text search,
// status filter and date range, composed by the stores with the tenant scope.
package query

import (
	"math"
	"strings"
	"time"

	"github.com/BearBump/FreightDesk/internal/errs"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	// StatusAll is accepted from callers as "no status filter".
	StatusAll = "all"
)

type Params struct {
	Page   int
	Limit  int
	Search string
	Status string
	From   *time.Time
	To     *time.Time
}

type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func NewPage[T any](items []T, total int, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit}
}

// Normalize applies defaults to zero values and rejects out-of-range input.
// Limits above MaxLimit are clamped rather than refused.
func (p Params) Normalize() (Params, error) {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Page < 1 {
		return p, errs.Validation("page", "page must be at least 1")
	}
	if p.Limit < 1 {
		return p, errs.Validation("limit", "limit must be greater than 0")
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return p, errs.Validation("page", "page %d is out of range", p.Page)
	}
	p.Search = strings.TrimSpace(p.Search)
	p.Status = strings.TrimSpace(p.Status)
	if strings.EqualFold(p.Status, StatusAll) {
		p.Status = ""
	}
	if p.From != nil && p.To != nil && p.To.Before(*p.From) {
		return p, errs.Validation("dateRange", "end date must not be before start date")
	}
	return p, nil
}

func (p Params) Skip() int { return (p.Page - 1) * p.Limit }

// Window returns the [start, end) slice bounds for a result set of n rows.
func (p Params) Window(n int) (int, int) {
	start := p.Skip()
	if start > n {
		start = n
	}
	end := start + p.Limit
	if end > n {
		end = n
	}
	return start, end
}

// MatchText is the in-memory twin of the ILIKE search: case-insensitive
// substring match against any of the fields.
func MatchText(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// InRange applies the inclusive gte/lte date filter.
func (p Params) InRange(t time.Time) bool {
	if p.From != nil && t.Before(*p.From) {
		return false
	}
	if p.To != nil && t.After(*p.To) {
		return false
	}
	return true
}

// MatchStatus is the exact-equality status filter.
func (p Params) MatchStatus(s string) bool {
	return p.Status == "" || p.Status == s
}
