package billing

import (
	"github.com/shopspring/decimal"
)

// PricingConfig holds the per-page tariff for one device or client. Values
// are configuration, not constants; DefaultPricingConfig carries the observed
// production defaults.
type PricingConfig struct {
	// BlackWhiteThreshold is the monthly page count above which black/white
	// printing becomes billable.
	BlackWhiteThreshold int64
	// BlackWhitePrice is the per-page price for black/white.
	BlackWhitePrice decimal.Decimal
	// ColorPrice is the per-page price for color, billed from the first page.
	ColorPrice decimal.Decimal
	// Currency is an informational label carried into invoices.
	Currency string
}

// DefaultPricingConfig returns the standard tariff.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		BlackWhiteThreshold: 1000,
		BlackWhitePrice:     decimal.NewFromFloat(0.05),
		ColorPrice:          decimal.NewFromFloat(0.09),
		Currency:            "EUR",
	}
}

// Validate reports whether the config can price a consumption.
func (p PricingConfig) Validate() error {
	if p.BlackWhiteThreshold < 0 || p.BlackWhitePrice.IsNegative() || p.ColorPrice.IsNegative() {
		return ErrInvalidPricing
	}
	return nil
}

// DebtResult is the monetary figure derived from one consumption result.
type DebtResult struct {
	BlackWhiteAmount decimal.Decimal
	ColorAmount      decimal.Decimal
	TotalDebt        decimal.Decimal
	Pricing          PricingConfig
}

// ComputeDebt prices a consumption result. Black/white pages are billable
// only above the threshold, and once over it the FULL delta is priced, not
// just the excess — that is the contractual rule this system bills by, so it
// is reproduced literally. Color pages are billed from the first page. The
// total is rounded to 2 decimal places.
func ComputeDebt(consumption ConsumptionResult, pricing PricingConfig) (DebtResult, error) {
	if err := pricing.Validate(); err != nil {
		return DebtResult{}, err
	}

	result := DebtResult{
		BlackWhiteAmount: decimal.Zero,
		ColorAmount:      decimal.Zero,
		Pricing:          pricing,
	}
	if consumption.BlackWhiteDelta > pricing.BlackWhiteThreshold {
		result.BlackWhiteAmount = decimal.NewFromInt(consumption.BlackWhiteDelta).Mul(pricing.BlackWhitePrice).Round(2)
	}
	if consumption.ColorDelta > 0 {
		result.ColorAmount = decimal.NewFromInt(consumption.ColorDelta).Mul(pricing.ColorPrice).Round(2)
	}
	result.TotalDebt = result.BlackWhiteAmount.Add(result.ColorAmount).Round(2)
	return result, nil
}
