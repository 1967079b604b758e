package pricing

import (
	"context"
	"errors"

	billing "printfleet-cloud/internal/billing/domain"
	reading "printfleet-cloud/internal/reading/domain"
)

// StaticProvider serves pricing from loaded configuration: a default tariff
// plus optional per-device overrides.
type StaticProvider struct {
	defaults  billing.PricingConfig
	perDevice map[string]billing.PricingConfig
}

// NewStaticProvider constructs the provider. perDevice keys must already be
// normalized; nil is accepted.
func NewStaticProvider(defaults billing.PricingConfig, perDevice map[string]billing.PricingConfig) (*StaticProvider, error) {
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return &StaticProvider{defaults: defaults, perDevice: perDevice}, nil
}

// PricingFor returns the device override when present, the defaults otherwise.
func (p *StaticProvider) PricingFor(ctx context.Context, deviceKey string) (billing.PricingConfig, error) {
	_ = ctx
	if p == nil {
		return billing.PricingConfig{}, errors.New("static pricing: nil provider")
	}
	key, err := reading.NormalizeDeviceKey(deviceKey)
	if err != nil {
		return billing.PricingConfig{}, err
	}
	if cfg, ok := p.perDevice[key]; ok {
		return cfg, nil
	}
	return p.defaults, nil
}
