package tax

import "context"

// PercentageCalculator applies a flat rate, expressed in basis points to
// avoid float drift on money (1600 = 16% VAT).
type PercentageCalculator struct {
	rateBasisPoints int64
}

// NewPercentageCalculator creates a percentage-based tax calculator.
func NewPercentageCalculator(rateBasisPoints int64) Calculator {
	return &PercentageCalculator{rateBasisPoints: rateBasisPoints}
}

// CalculateTax computes tax on the sum of line totals, rounding down.
func (c *PercentageCalculator) CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error) {
	var subtotal int64
	for _, item := range params.LineItems {
		subtotal += item.TotalCents
	}

	return &TaxResult{
		TotalTaxCents:   subtotal * c.rateBasisPoints / 10000,
		RateBasisPoints: c.rateBasisPoints,
	}, nil
}
