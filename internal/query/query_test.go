package query

import (
	"math"
	"testing"
	"time"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestParams_Normalize(t *testing.T) {
	p, err := Params{}.Normalize()
	require.NoError(t, err)
	require.Equal(t, 1, p.Page)
	require.Equal(t, DefaultLimit, p.Limit)
	require.Equal(t, 0, p.Skip())

	p, err = Params{Page: 3, Limit: 500, Status: "ALL", Search: "  ref "}.Normalize()
	require.NoError(t, err)
	require.Equal(t, MaxLimit, p.Limit)
	require.Equal(t, 200, p.Skip())
	require.Equal(t, "", p.Status)
	require.Equal(t, "ref", p.Search)

	_, err = Params{Page: -1}.Normalize()
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = Params{Limit: -5}.Normalize()
	require.ErrorIs(t, err, errs.ErrValidation)

	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = Params{From: &from, To: &to}.Normalize()
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestParams_NormalizeRejectsOverflowingPage(t *testing.T) {
	_, err := Params{Page: 1<<62 + 1, Limit: 2}.Normalize()
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = Params{Page: math.MaxInt, Limit: 500}.Normalize()
	require.ErrorIs(t, err, errs.ErrValidation)

	last := math.MaxInt/MaxLimit + 1
	p, err := Params{Page: last, Limit: MaxLimit}.Normalize()
	require.NoError(t, err)
	require.GreaterOrEqual(t, p.Skip(), 0)
	start, end := p.Window(5)
	require.Equal(t, 5, start)
	require.Equal(t, 5, end)
}

func TestParams_Window(t *testing.T) {
	p := Params{Page: 2, Limit: 10}
	start, end := p.Window(15)
	require.Equal(t, 10, start)
	require.Equal(t, 15, end)

	start, end = Params{Page: 5, Limit: 10}.Window(15)
	require.Equal(t, 15, start)
	require.Equal(t, 15, end)
}

func TestMatchers(t *testing.T) {
	require.True(t, MatchText("", "x"))
	require.True(t, MatchText("smi", "john", "SMITH"))
	require.False(t, MatchText("doe", "john", "smith"))

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	p := Params{From: &from, To: &to}
	require.True(t, p.InRange(from))
	require.True(t, p.InRange(to))
	require.False(t, p.InRange(to.Add(time.Second)))

	require.True(t, Params{}.MatchStatus("active"))
	require.False(t, Params{Status: "inactive"}.MatchStatus("active"))
}

func TestWhere(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p := Params{Page: 2, Limit: 20, Search: "50%", Status: "pending", From: &from}

	w := Scoped("company_id", "A").Apply(p, "status", "pickup_date", "reference_number", "pickup_city")
	require.Equal(t,
		`WHERE company_id = $1 AND (reference_number ILIKE $2 OR pickup_city ILIKE $2) AND status = $3 AND pickup_date >= $4`,
		w.SQL())
	require.Equal(t, []any{"A", `%50\%%`, "pending", from}, w.Args())

	limit, args := w.Paged(p)
	require.Equal(t, "LIMIT $5 OFFSET $6", limit)
	require.Equal(t, 20, args[4])
	require.Equal(t, 20, args[5])
	require.Len(t, w.Args(), 4)
}

func TestWhere_RawAndEmpty(t *testing.T) {
	require.Equal(t, "", (&Where{}).SQL())

	w := Scoped("u.company_id", "A").Raw("EXISTS (SELECT 1 FROM roles r WHERE r.user_id = u.id AND r.company_id = %s)", "A")
	require.Equal(t, "WHERE u.company_id = $1 AND EXISTS (SELECT 1 FROM roles r WHERE r.user_id = u.id AND r.company_id = $2)", w.SQL())
}

func TestNewPage_NilItems(t *testing.T) {
	pg := NewPage[int](nil, 0, Params{Page: 1, Limit: 10})
	require.NotNil(t, pg.Items)
	require.Equal(t, 0, pg.Total)
}
