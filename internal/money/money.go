package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fulfillment/internal/models"
)

// Format renders an amount with its currency code and two decimal places,
// e.g. "AED 105.00".
func Format(amount decimal.Decimal, currency string) string {
	if currency == "" {
		return amount.StringFixed(2)
	}
	return fmt.Sprintf("%s %s", currency, amount.StringFixed(2))
}

// TotalQuantity sums item quantities, the package count reported to the
// carrier on pickup scheduling.
func TotalQuantity(items []models.OrderItem) int {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return total
}

// TotalWeight sums weight × quantity over the items. Items without a recorded
// weight count as 1 kg per unit.
func TotalWeight(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		weight := item.Weight
		if weight.IsZero() {
			weight = decimal.NewFromInt(1)
		}
		total = total.Add(weight.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// LineTotal is quantity × unit price for one item at the given price.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}
