package sectorconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := "../../config/sectors.yaml"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Meta.ConfigID != "global_sectors_v1" {
		t.Errorf("expected config_id=global_sectors_v1, got %s", cfg.Meta.ConfigID)
	}
	if cfg.DCF.HorizonYears != 7 {
		t.Errorf("expected horizon_years=7, got %d", cfg.DCF.HorizonYears)
	}

	hash, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(hash) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(hash))
	}

	hash2, _ := Hash(cfg)
	if hash != hash2 {
		t.Error("hash not deterministic")
	}

	t.Logf("config hash: %s", hash)
	t.Logf("yaml size: %d bytes", len(yamlData))
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	yaml := `
meta:
  config_id: test
  version: "1"
  typo_field: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := Load(path); err == nil {
		t.Error("expected unknown field to fail decoding")
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Default() config must validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing config id", func(c *Config) { c.Meta.ConfigID = "" }},
		{"cagr blend not 1", func(c *Config) { c.Resolution.Growth.CAGRBlend3Y = 0.7 }},
		{"yoy floor above cap", func(c *Config) { c.Resolution.Growth.YoYFloor = 0.5 }},
		{"horizon too short", func(c *Config) { c.DCF.HorizonYears = 3 }},
		{"terminal band inverted", func(c *Config) { c.DCF.TerminalGrowthMin = 0.06 }},
		{"bear scale above 1", func(c *Config) { c.DCF.Bear.GrowthScale = 1.1 }},
		{"level weights not 1", func(c *Config) { c.Drivers.LevelWeights.Macro = 0.5 }},
		{"blend weights not 1", func(c *Config) { c.Blend.Weights.DCF = 0.9 }},
		{"observation weights not 1", func(c *Config) { c.Relative.ObservationWeights.Current = 0.9 }},
		{"no default sector", func(c *Config) { delete(c.Sectors, "default") }},
		{"steady state above ceiling", func(c *Config) {
			s := c.Sectors["default"]
			s.SteadyStateCapex = s.CapexCeiling + 0.01
			c.Sectors["default"] = s
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSectorProfileFallback(t *testing.T) {
	cfg := Default()

	known := cfg.SectorProfile("technology")
	if known.CapexCeiling != 0.10 {
		t.Errorf("expected technology ceiling 0.10, got %v", known.CapexCeiling)
	}

	unknown := cfg.SectorProfile("shipping")
	if unknown != cfg.Sectors["default"] {
		t.Error("unknown sector must fall back to default profile")
	}
}
