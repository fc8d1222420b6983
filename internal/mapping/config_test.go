package mapping_test

import (
	"testing"

	"github.com/rsanzante/facturae-pipeline/internal/mapping"
)

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := mapping.Config{
		TaxNumber:     "B87654321",
		CorporateName: "Gestoria Digital SL",
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.TradeName != "Gestoria Digital SL" {
		t.Errorf("trade name default: got %q", cfg.TradeName)
	}
	if cfg.Address.CountryCode != "ESP" {
		t.Errorf("country code default: got %q", cfg.Address.CountryCode)
	}
}

func TestConfigFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_ISSUER_TAX_NUMBER", "B00000000")
	t.Setenv("TEST_ISSUER_CORPORATE_NAME", "Override SL")

	cfg := mapping.Config{TaxNumber: "B87654321", CorporateName: "Gestoria Digital SL"}
	env := &mapping.Env{
		TaxNumber:     "TEST_ISSUER_TAX_NUMBER",
		CorporateName: "TEST_ISSUER_CORPORATE_NAME",
	}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.TaxNumber != "B00000000" {
		t.Errorf("tax number: got %q", cfg.TaxNumber)
	}
	if cfg.CorporateName != "Override SL" {
		t.Errorf("corporate name: got %q", cfg.CorporateName)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  mapping.Config
	}{
		{"missing tax number", mapping.Config{CorporateName: "Gestoria Digital SL"}},
		{"missing corporate name", mapping.Config{TaxNumber: "B87654321"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	cfg := mapping.Config{
		TaxNumber:     "B87654321",
		CorporateName: "Gestoria Digital SL",
		Address:       mapping.AddressConfig{Town: "Madrid"},
	}
	cfg.Merge(&mapping.Config{
		TradeName: "Gestoria",
		Address:   mapping.AddressConfig{Town: "Sevilla"},
	})

	if cfg.TaxNumber != "B87654321" {
		t.Errorf("tax number overwritten: got %q", cfg.TaxNumber)
	}
	if cfg.TradeName != "Gestoria" {
		t.Errorf("trade name: got %q", cfg.TradeName)
	}
	if cfg.Address.Town != "Sevilla" {
		t.Errorf("town: got %q", cfg.Address.Town)
	}
}
