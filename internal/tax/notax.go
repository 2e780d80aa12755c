package tax

import "context"

// NoTaxCalculator returns zero tax for all calculations. This is the default:
// invoice totals equal their subtotals until a VAT mode is configured.
type NoTaxCalculator struct{}

// NewNoTaxCalculator creates a new no-tax calculator.
func NewNoTaxCalculator() Calculator {
	return &NoTaxCalculator{}
}

// CalculateTax always returns zero tax.
func (c *NoTaxCalculator) CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error) {
	return &TaxResult{TotalTaxCents: 0, RateBasisPoints: 0}, nil
}
