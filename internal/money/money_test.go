package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BearBump/FreightDesk/internal/errs"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Amount
		err  bool
	}{
		{in: "1500", want: 150000},
		{in: "1500.5", want: 150050},
		{in: "0.01", want: 1},
		{in: "-100", want: -10000},
		{in: "1.005", err: true},
		{in: "abc", err: true},
		{in: "999999999999.99", want: MaxAmount},
		{in: "-999999999999.99", want: -MaxAmount},
		{in: "1000000000000", err: true},
		{in: "100000000000000000000", err: true},
		{in: "92233720368547758.07", err: true},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if c.err {
			require.Error(t, err, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		require.Equal(t, c.want, got, c.in)
	}
}

func TestAmount_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Amount `json:"amount"`
	}{Amount: FromMajor(1000) + 25})
	require.NoError(t, err)
	require.JSONEq(t, `{"amount":1000.25}`, string(b))

	var in struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":600,"b":"12.30"}`), &in))
	require.Equal(t, FromMajor(600), in.A)
	require.Equal(t, Amount(1230), in.B)

	require.Error(t, json.Unmarshal([]byte(`{"a":1.234}`), &in))
}

func TestSum(t *testing.T) {
	require.Equal(t, FromMajor(900), Sum(FromMajor(500), FromMajor(400)))
	require.Equal(t, Amount(0), Sum())
}

func TestParse_OutOfRangeIsValidationError(t *testing.T) {
	_, err := Parse("100000000000000000000")
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Contains(t, err.Error(), "exceeds the maximum of 999999999999.99")
}

func TestCheck(t *testing.T) {
	require.NoError(t, Check("amount", 1))
	require.NoError(t, Check("amount", MaxAmount))
	require.ErrorIs(t, Check("amount", 0), errs.ErrValidation)
	require.ErrorIs(t, Check("rate", -1), errs.ErrValidation)
	require.ErrorIs(t, Check("amount", MaxAmount+1), errs.ErrValidation)
}
