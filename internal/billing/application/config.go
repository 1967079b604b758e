package application

import (
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	billing "printfleet-cloud/internal/billing/domain"
	reading "printfleet-cloud/internal/reading/domain"
)

// DevicePricing is a per-device tariff override in the pricing file.
type DevicePricing struct {
	BWThreshold *int64   `yaml:"bw_threshold"`
	BWPrice     *float64 `yaml:"bw_price"`
	ColorPrice  *float64 `yaml:"color_price"`
}

// PricingFile is the on-disk pricing configuration.
type PricingFile struct {
	BWThreshold int64                    `yaml:"bw_threshold"`
	BWPrice     float64                  `yaml:"bw_price"`
	ColorPrice  float64                  `yaml:"color_price"`
	Currency    string                   `yaml:"currency"`
	Devices     map[string]DevicePricing `yaml:"devices"`
}

// PricingSettings is the loaded tariff set: one default config plus
// per-device overrides keyed by normalized device key.
type PricingSettings struct {
	Default billing.PricingConfig
	Devices map[string]billing.PricingConfig
}

// LoadPricingSettings loads pricing from yaml (PRICING_CONFIG path) and env.
// Precedence: built-in defaults, then file values, then env overrides
// (BW_THRESHOLD, BW_PRICE, COLOR_PRICE, CURRENCY).
func LoadPricingSettings() (PricingSettings, error) {
	settings := PricingSettings{
		Default: billing.DefaultPricingConfig(),
		Devices: make(map[string]billing.PricingConfig),
	}

	if path := os.Getenv("PRICING_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return settings, err
		}
		var file PricingFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return settings, err
		}
		applyPricingFile(&settings, file)
	}

	applyEnvOverrides(&settings.Default)

	if err := settings.Default.Validate(); err != nil {
		return settings, err
	}
	for _, cfg := range settings.Devices {
		if err := cfg.Validate(); err != nil {
			return settings, err
		}
	}
	return settings, nil
}

func applyPricingFile(settings *PricingSettings, file PricingFile) {
	if file.BWThreshold > 0 {
		settings.Default.BlackWhiteThreshold = file.BWThreshold
	}
	if file.BWPrice > 0 {
		settings.Default.BlackWhitePrice = decimal.NewFromFloat(file.BWPrice)
	}
	if file.ColorPrice > 0 {
		settings.Default.ColorPrice = decimal.NewFromFloat(file.ColorPrice)
	}
	if file.Currency != "" {
		settings.Default.Currency = file.Currency
	}

	for rawKey, override := range file.Devices {
		key, err := reading.NormalizeDeviceKey(rawKey)
		if err != nil {
			continue
		}
		cfg := settings.Default
		if override.BWThreshold != nil {
			cfg.BlackWhiteThreshold = *override.BWThreshold
		}
		if override.BWPrice != nil {
			cfg.BlackWhitePrice = decimal.NewFromFloat(*override.BWPrice)
		}
		if override.ColorPrice != nil {
			cfg.ColorPrice = decimal.NewFromFloat(*override.ColorPrice)
		}
		settings.Devices[key] = cfg
	}
}

func applyEnvOverrides(cfg *billing.PricingConfig) {
	if value := os.Getenv("BW_THRESHOLD"); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			cfg.BlackWhiteThreshold = parsed
		}
	}
	if value := os.Getenv("BW_PRICE"); value != "" {
		if parsed, err := decimal.NewFromString(value); err == nil {
			cfg.BlackWhitePrice = parsed
		}
	}
	if value := os.Getenv("COLOR_PRICE"); value != "" {
		if parsed, err := decimal.NewFromString(value); err == nil {
			cfg.ColorPrice = parsed
		}
	}
	if value := os.Getenv("CURRENCY"); value != "" {
		cfg.Currency = value
	}
}
