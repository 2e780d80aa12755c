// Package tax computes tax for invoice generation.
// Implementations: NoTaxCalculator (default), PercentageCalculator (VAT).
package tax

import "context"

// Calculator defines the interface for tax calculation.
type Calculator interface {
	// CalculateTax computes tax for the given line items.
	// Returns tax amount in the smallest currency unit.
	CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error)
}

// TaxParams contains the information needed for tax calculation.
type TaxParams struct {
	Currency  string
	LineItems []LineItem
}

// LineItem represents a single item being taxed.
type LineItem struct {
	Description    string
	Quantity       int32
	UnitPriceCents int64
	TotalCents     int64
}

// TaxResult contains the calculated tax amount.
type TaxResult struct {
	TotalTaxCents int64

	// RateBasisPoints is the applied rate in basis points (1600 = 16%);
	// zero for exempt calculations.
	RateBasisPoints int64
}
