package svc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/logger"
	"github.com/BearBump/FreightDesk/internal/tenant"
)

func TestReport_ReturnsErrorUnchanged(t *testing.T) {
	sc := tenant.Scope{CompanyID: "A"}
	require.NoError(t, Report(logger.Nop(), "op", sc, nil))

	want := errs.Overpayment("too much")
	require.Same(t, want, Report(logger.Nop(), "op", sc, want))

	infra := errors.New("db down")
	require.Same(t, infra, Report(logger.Nop(), "op", sc, infra))
}

func TestOr(t *testing.T) {
	s := "x"
	empty := ""
	require.Equal(t, "x", Or(&s, "d"))
	require.Equal(t, "d", Or(&empty, "d"))
	require.Equal(t, "d", Or[string](nil, "d"))
}
