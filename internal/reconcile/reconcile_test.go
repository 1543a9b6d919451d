package reconcile

import (
	"math"
	"testing"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/money"
	"github.com/stretchr/testify/require"
)

func TestCheckPayment(t *testing.T) {
	inv := &models.Invoice{InvoiceNumber: "INV-001", Amount: money.FromMajor(1000)}

	// 500 already paid + 600 > 1000.
	err := CheckPayment(inv, money.FromMajor(500), money.FromMajor(600))
	require.ErrorIs(t, err, errs.ErrOverpayment)
	require.Contains(t, err.Error(), "remaining balance 500.00")

	require.NoError(t, CheckPayment(inv, money.FromMajor(500), money.FromMajor(400)))
	require.NoError(t, CheckPayment(inv, money.FromMajor(500), money.FromMajor(500)))

	require.ErrorIs(t, CheckPayment(inv, 0, 0), errs.ErrValidation)
	require.ErrorIs(t, CheckPayment(inv, 0, -1), errs.ErrValidation)
}

func TestCheckPayment_NoOverflowAtTheCeiling(t *testing.T) {
	inv := &models.Invoice{InvoiceNumber: "INV-MAX", Amount: money.MaxAmount}

	require.NoError(t, CheckPayment(inv, 0, money.MaxAmount))
	require.ErrorIs(t, CheckPayment(inv, money.MaxAmount, money.MaxAmount), errs.ErrOverpayment)
	require.ErrorIs(t, CheckPayment(inv, money.MaxAmount, 1), errs.ErrOverpayment)
	require.ErrorIs(t, CheckPayment(inv, 0, money.MaxAmount+1), errs.ErrValidation)

	// Amounts that would wrap int64 when summed never get past the range check.
	wide := &models.Invoice{InvoiceNumber: "INV-WIDE", Amount: money.Amount(math.MaxInt64)}
	require.Error(t, CheckPayment(wide, money.Amount(math.MaxInt64), money.Amount(math.MaxInt64)))
}

func TestRemainingBalance(t *testing.T) {
	require.Equal(t, money.FromMajor(100), RemainingBalance(money.FromMajor(1000), money.FromMajor(900)))
	require.Equal(t, money.Amount(0), RemainingBalance(money.FromMajor(1000), money.FromMajor(1200)))

	b := Balance(&models.Invoice{Amount: money.FromMajor(1500)}, money.FromMajor(750))
	require.Equal(t, money.FromMajor(750), b.Paid)
	require.Equal(t, money.FromMajor(750), b.Remaining)
}

func TestCheckInvoiceAmount(t *testing.T) {
	require.NoError(t, CheckInvoiceAmount(money.FromMajor(1600), money.FromMajor(1500)))
	require.ErrorIs(t, CheckInvoiceAmount(money.FromMajor(400), money.FromMajor(500)), errs.ErrOverpayment)
	require.ErrorIs(t, CheckInvoiceAmount(0, 0), errs.ErrValidation)
}

func TestAverageRating(t *testing.T) {
	require.Equal(t, 5.0, AverageRating(models.RatingStats{}))
	require.Equal(t, 4.5, AverageRating(models.RatingStats{Count: 2, Sum: 9}))
	require.Equal(t, 4.67, AverageRating(models.RatingStats{Count: 3, Sum: 14}))
	require.Equal(t, 3.33, AverageRating(models.RatingStats{Count: 3, Sum: 10}))
	require.Equal(t, 1.0, AverageRating(models.RatingStats{Count: 1, Sum: 1}))
}

func TestCheckRating(t *testing.T) {
	require.NoError(t, CheckRating(1))
	require.NoError(t, CheckRating(5))
	err := CheckRating(6)
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Contains(t, err.Error(), "rating must be between 1 and 5")
	require.Error(t, CheckRating(0))
}
