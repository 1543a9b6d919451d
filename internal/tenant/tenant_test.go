package tenant

import (
	"context"
	"testing"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestScopeFrom(t *testing.T) {
	_, err := ScopeFrom(context.Background())
	require.ErrorIs(t, err, errs.ErrNoPrincipal)

	_, err = ScopeFrom(WithPrincipal(context.Background(), Principal{UserID: "u1"}))
	require.ErrorIs(t, err, errs.ErrNoPrincipal)

	sc, err := ScopeFrom(WithPrincipal(context.Background(), Principal{CompanyID: "A", UserID: "u1"}))
	require.NoError(t, err)
	require.Equal(t, "A", sc.CompanyID)
	require.Equal(t, "u1", sc.UserID)
}

func TestScope_Owns(t *testing.T) {
	sc := System("A")
	require.True(t, sc.Owns("A"))
	require.False(t, sc.Owns("B"))
	require.False(t, Scope{}.Owns(""))
}
