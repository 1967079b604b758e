package application_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"printfleet-cloud/internal/billing/application"
)

func TestLoadPricingSettings_Defaults(t *testing.T) {
	t.Setenv("PRICING_CONFIG", "")
	t.Setenv("BW_THRESHOLD", "")
	t.Setenv("BW_PRICE", "")
	t.Setenv("COLOR_PRICE", "")
	t.Setenv("CURRENCY", "")

	settings, err := application.LoadPricingSettings()
	if err != nil {
		t.Fatalf("load pricing: %v", err)
	}
	if settings.Default.BlackWhiteThreshold != 1000 {
		t.Fatalf("default threshold mismatch: %d", settings.Default.BlackWhiteThreshold)
	}
	if !settings.Default.BlackWhitePrice.Equal(decimal.RequireFromString("0.05")) {
		t.Fatalf("default bw price mismatch: %s", settings.Default.BlackWhitePrice)
	}
	if !settings.Default.ColorPrice.Equal(decimal.RequireFromString("0.09")) {
		t.Fatalf("default color price mismatch: %s", settings.Default.ColorPrice)
	}
}

func TestLoadPricingSettings_FileAndDeviceOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	content := `
bw_threshold: 2000
bw_price: 0.04
currency: PLN
devices:
  "aa:bb:cc:dd:ee:ff":
    bw_threshold: 500
    color_price: 0.12
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write pricing file: %v", err)
	}
	t.Setenv("PRICING_CONFIG", path)
	t.Setenv("BW_THRESHOLD", "")
	t.Setenv("BW_PRICE", "")
	t.Setenv("COLOR_PRICE", "")
	t.Setenv("CURRENCY", "")

	settings, err := application.LoadPricingSettings()
	if err != nil {
		t.Fatalf("load pricing: %v", err)
	}
	if settings.Default.BlackWhiteThreshold != 2000 || settings.Default.Currency != "PLN" {
		t.Fatalf("file overrides not applied: %+v", settings.Default)
	}
	if !settings.Default.ColorPrice.Equal(decimal.RequireFromString("0.09")) {
		t.Fatalf("unset file field must keep default: %s", settings.Default.ColorPrice)
	}

	override, ok := settings.Devices["AABBCCDDEEFF"]
	if !ok {
		t.Fatalf("device override missing, got %+v", settings.Devices)
	}
	if override.BlackWhiteThreshold != 500 {
		t.Fatalf("device threshold mismatch: %d", override.BlackWhiteThreshold)
	}
	if !override.ColorPrice.Equal(decimal.RequireFromString("0.12")) {
		t.Fatalf("device color price mismatch: %s", override.ColorPrice)
	}
	if !override.BlackWhitePrice.Equal(decimal.RequireFromString("0.04")) {
		t.Fatalf("device override must inherit file defaults: %s", override.BlackWhitePrice)
	}
}

func TestLoadPricingSettings_EnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	if err := os.WriteFile(path, []byte("bw_price: 0.04\n"), 0o600); err != nil {
		t.Fatalf("write pricing file: %v", err)
	}
	t.Setenv("PRICING_CONFIG", path)
	t.Setenv("BW_PRICE", "0.07")

	settings, err := application.LoadPricingSettings()
	if err != nil {
		t.Fatalf("load pricing: %v", err)
	}
	if !settings.Default.BlackWhitePrice.Equal(decimal.RequireFromString("0.07")) {
		t.Fatalf("env override must win: %s", settings.Default.BlackWhitePrice)
	}
}
