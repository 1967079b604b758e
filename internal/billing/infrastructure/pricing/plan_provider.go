package pricing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	billing "printfleet-cloud/internal/billing/domain"
	reading "printfleet-cloud/internal/reading/domain"
)

const defaultPricePlansTable = "price_plans"

// PlanProvider resolves per-device tariffs from the price plans table,
// falling back to a configured default when a device has no plan.
type PlanProvider struct {
	db       *sql.DB
	table    string
	fallback billing.PricingConfig
}

// PlanOption configures the provider.
type PlanOption func(*PlanProvider)

// WithPlansTable overrides the price plans table name.
func WithPlansTable(table string) PlanOption {
	return func(p *PlanProvider) {
		if p != nil && table != "" {
			p.table = table
		}
	}
}

// NewPlanProvider constructs a provider.
func NewPlanProvider(db *sql.DB, fallback billing.PricingConfig, opts ...PlanOption) (*PlanProvider, error) {
	if db == nil {
		return nil, errors.New("plan provider: nil db")
	}
	if err := fallback.Validate(); err != nil {
		return nil, err
	}
	p := &PlanProvider{db: db, table: defaultPricePlansTable, fallback: fallback}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// PricingFor loads the device's price plan. No plan row is not an error; the
// fallback tariff applies.
func (p *PlanProvider) PricingFor(ctx context.Context, deviceKey string) (billing.PricingConfig, error) {
	if p == nil || p.db == nil {
		return billing.PricingConfig{}, errors.New("plan provider: nil db")
	}
	key, err := reading.NormalizeDeviceKey(deviceKey)
	if err != nil {
		return billing.PricingConfig{}, err
	}

	query := fmt.Sprintf(`
SELECT bw_threshold, bw_price::text, color_price::text, currency
FROM %s
WHERE device_key = $1
LIMIT 1`, p.table)

	var threshold int64
	var bwPrice, colorPrice, currency string
	err = p.db.QueryRowContext(ctx, query, key).Scan(&threshold, &bwPrice, &colorPrice, &currency)
	if errors.Is(err, sql.ErrNoRows) {
		return p.fallback, nil
	}
	if err != nil {
		return billing.PricingConfig{}, err
	}

	cfg := billing.PricingConfig{BlackWhiteThreshold: threshold, Currency: currency}
	if cfg.BlackWhitePrice, err = decimal.NewFromString(bwPrice); err != nil {
		return billing.PricingConfig{}, fmt.Errorf("plan provider: bad bw price for %s: %w", key, err)
	}
	if cfg.ColorPrice, err = decimal.NewFromString(colorPrice); err != nil {
		return billing.PricingConfig{}, fmt.Errorf("plan provider: bad color price for %s: %w", key, err)
	}
	if cfg.Currency == "" {
		cfg.Currency = p.fallback.Currency
	}
	if err := cfg.Validate(); err != nil {
		return billing.PricingConfig{}, err
	}
	return cfg, nil
}
