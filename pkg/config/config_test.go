package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}
	if cfg.Analysis.Days != 90 {
		t.Errorf("Analysis.Days = %d, want 90", cfg.Analysis.Days)
	}
	if cfg.Size.Small != 50 || cfg.Size.Huge != 1000 {
		t.Errorf("Size = %+v, want 50/200/500/1000", cfg.Size)
	}
	if cfg.Churn.High != 1000 || cfg.Churn.Medium != 100 {
		t.Errorf("Churn = %+v, want 1000/100", cfg.Churn)
	}
	if cfg.Cochange.MinCochanges != 2 {
		t.Errorf("Cochange.MinCochanges = %d, want 2", cfg.Cochange.MinCochanges)
	}
	if cfg.LeadTime.LongMessageLength != 100 {
		t.Errorf("LeadTime.LongMessageLength = %d, want 100", cfg.LeadTime.LongMessageLength)
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Output.Format = %s, want text", cfg.Output.Format)
	}
	if !cfg.Output.Color {
		t.Error("Output.Color should be true by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "gitpulse.toml")
	writeFile(t, configPath, `
[analysis]
days = 30
branches = ["origin/main", "origin/release"]

[churn]
high = 500
medium = 50

[deployment]
main_branches = ["trunk"]
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Analysis.Days != 30 {
		t.Errorf("Analysis.Days = %d, want 30", cfg.Analysis.Days)
	}
	if len(cfg.Analysis.Branches) != 2 {
		t.Errorf("Analysis.Branches = %v, want 2 entries", cfg.Analysis.Branches)
	}
	if cfg.Churn.High != 500 || cfg.Churn.Medium != 50 {
		t.Errorf("Churn = %+v, want 500/50", cfg.Churn)
	}
	if len(cfg.Deployment.MainBranches) != 1 || cfg.Deployment.MainBranches[0] != "trunk" {
		t.Errorf("Deployment.MainBranches = %v, want [trunk]", cfg.Deployment.MainBranches)
	}
	// Untouched sections keep their defaults.
	if cfg.Cochange.MinCochanges != 2 {
		t.Errorf("Cochange.MinCochanges = %d, want default 2", cfg.Cochange.MinCochanges)
	}
}

func TestLoadYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "gitpulse.yaml")
	writeFile(t, configPath, `
cochange:
  min_cochanges: 3
  hotspot_strength: 0.5
output:
  format: json
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cochange.MinCochanges != 3 {
		t.Errorf("Cochange.MinCochanges = %d, want 3", cfg.Cochange.MinCochanges)
	}
	if cfg.Cochange.HotspotStrength != 0.5 {
		t.Errorf("Cochange.HotspotStrength = %v, want 0.5", cfg.Cochange.HotspotStrength)
	}
	if cfg.Output.Format != "json" {
		t.Errorf("Output.Format = %s, want json", cfg.Output.Format)
	}
}

func TestLoadJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "gitpulse.json")
	writeFile(t, configPath, `{"leadtime": {"long_message_length": 72}, "log": {"level": "debug", "format": "json"}}`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LeadTime.LongMessageLength != 72 {
		t.Errorf("LeadTime.LongMessageLength = %d, want 72", cfg.LeadTime.LongMessageLength)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want debug/json", cfg.Log)
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/gitpulse.toml")
	if err == nil {
		t.Error("Load() should return error for non-existent file")
	}
}

func TestLoadInvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "gitpulse.toml")
	writeFile(t, configPath, "this is not [valid toml")

	if _, err := Load(configPath); err == nil {
		t.Error("Load() should return error for invalid TOML")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "gitpulse.toml")
	writeFile(t, configPath, `
[analysis]
days = 0

[cochange]
hotspot_strength = 1.5
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() should reject invalid values")
	}
	if !errors.Is(err, ErrInvalidDays) {
		t.Errorf("error %v should wrap ErrInvalidDays", err)
	}
	if !errors.Is(err, ErrInvalidStrength) {
		t.Errorf("error %v should wrap ErrInvalidStrength", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"negative days", func(c *Config) { c.Analysis.Days = -1 }, ErrInvalidDays},
		{"inverted size", func(c *Config) { c.Size.Medium = 10 }, ErrInvalidThresholds},
		{"inverted churn", func(c *Config) { c.Churn.Medium = 2000 }, ErrInvalidThresholds},
		{"strength above one", func(c *Config) { c.Cochange.HotspotStrength = 1.1 }, ErrInvalidStrength},
		{"strength below zero", func(c *Config) { c.Cochange.HotspotStrength = -0.1 }, ErrInvalidStrength},
		{"zero min cochanges", func(c *Config) { c.Cochange.MinCochanges = 0 }, ErrInvalidValue},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }, ErrInvalidValue},
		{"unknown log level", func(c *Config) { c.Log.Level = "trace" }, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadConfig_Search(t *testing.T) {
	dir := t.TempDir()

	result, err := LoadConfig(WithDir(dir))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if result.Source != "" {
		t.Errorf("Source = %q, want empty for defaults", result.Source)
	}

	nested := filepath.Join(dir, ".gitpulse", "gitpulse.yml")
	writeFile(t, nested, "analysis:\n  days: 14\n")

	result, err = LoadConfig(WithDir(dir))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if result.Source != nested {
		t.Errorf("Source = %q, want %q", result.Source, nested)
	}
	if result.Config.Analysis.Days != 14 {
		t.Errorf("Analysis.Days = %d, want 14", result.Config.Analysis.Days)
	}

	// The working directory wins over .gitpulse/.
	top := filepath.Join(dir, ".gitpulse.toml")
	writeFile(t, top, "[analysis]\ndays = 7\n")

	result, err = LoadConfig(WithDir(dir))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if result.Source != top {
		t.Errorf("Source = %q, want %q", result.Source, top)
	}
}

func TestLoadConfig_ExplicitPathErrors(t *testing.T) {
	if _, err := LoadConfig(WithPath("/nonexistent/gitpulse.toml")); err == nil {
		t.Error("LoadConfig() should fail for a missing explicit path")
	}
}

func TestShouldExclude(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		path string
		want bool
	}{
		{"main.go", false},
		{"pkg/service/handler.go", false},
		{"vendor/github.com/x/y.go", true},
		{"web/node_modules/react/index.js", true},
		{"go.sum", true},
		{"yarn.lock", true},
		{"static/app.min.js", true},
		{"static/app.js", false},
		{"vendored/file.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := cfg.ShouldExclude(tt.path); got != tt.want {
				t.Errorf("ShouldExclude(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
