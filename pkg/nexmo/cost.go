package nexmo

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Price field names on a per-message element, after key normalization.
var priceFields = []string{"messageprice", "price"}

// AggregateCost sums the price of every message part. A part without a
// price (rejected parts carry none) adds nothing; a price that is present
// but not numeric is an error.
func AggregateCost(parts []*Node) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, part := range parts {
		price, err := partPrice(part)
		if err != nil {
			return decimal.Zero, fmt.Errorf("message %d: %w", i, err)
		}
		total = total.Add(price)
	}
	return total, nil
}

func partPrice(part *Node) (decimal.Decimal, error) {
	for _, name := range priceFields {
		field, ok := part.Field(name)
		if !ok || field.IsNull() {
			continue
		}
		price, err := field.Decimal()
		if err != nil {
			return decimal.Zero, fmt.Errorf("price: %w", err)
		}
		return price, nil
	}
	return decimal.Zero, nil
}
