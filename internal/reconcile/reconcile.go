// Package reconcile holds the money and rating arithmetic that keeps derived
// aggregates consistent: invoice balances from completed payments and driver
// ratings from the rating table.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/BearBump/FreightDesk/internal/errs"
	"github.com/BearBump/FreightDesk/internal/models"
	"github.com/BearBump/FreightDesk/internal/money"
)

const (
	MinRating = 1
	MaxRating = 5

	// Averages are rounded half-up to this many decimals before they are
	// materialized on the driver.
	RatingPrecision = 2
)

// RemainingBalance is amount minus the completed sum, floored at zero.
func RemainingBalance(invoice money.Amount, completed money.Amount) money.Amount {
	if rem := invoice - completed; rem > 0 {
		return rem
	}
	return 0
}

// CheckPayment rejects a payment that would push the completed sum above the
// invoice amount.
func CheckPayment(inv *models.Invoice, completed, amount money.Amount) error {
	if err := money.Check("amount", amount); err != nil {
		return err
	}
	if amount > inv.Amount-completed {
		return errs.Overpayment(
			"payment of %s exceeds remaining balance %s on invoice %s",
			amount, RemainingBalance(inv.Amount, completed), inv.InvoiceNumber,
		)
	}
	return nil
}

// CheckInvoiceAmount keeps an edited invoice amount at or above what has
// already been collected.
func CheckInvoiceAmount(newAmount, completed money.Amount) error {
	if err := money.Check("amount", newAmount); err != nil {
		return err
	}
	if newAmount < completed {
		return errs.Overpayment("invoice amount %s is below the %s already paid", newAmount, completed)
	}
	return nil
}

func Balance(inv *models.Invoice, completed money.Amount) models.InvoiceBalance {
	return models.InvoiceBalance{
		Invoice:   inv,
		Paid:      completed,
		Remaining: RemainingBalance(inv.Amount, completed),
	}
}

func CheckRating(r int) error {
	if r < MinRating || r > MaxRating {
		return errs.Validation("rating", "rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}

// AverageRating returns the rounded mean, or the default when there are no
// ratings yet.
func AverageRating(st models.RatingStats) float64 {
	if st.Count == 0 {
		return models.DefaultDriverRating
	}
	avg := decimal.NewFromInt(st.Sum).
		DivRound(decimal.NewFromInt(int64(st.Count)), RatingPrecision+2).
		Round(RatingPrecision)
	f, _ := avg.Float64()
	return f
}
