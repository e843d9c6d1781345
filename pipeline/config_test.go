package pipeline_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ezoic/tsgo/forecast"
	"github.com/ezoic/tsgo/pipeline"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := pipeline.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Bench.City != "Amsterdam" {
		t.Errorf("City = %q, want Amsterdam", cfg.Bench.City)
	}
	if cfg.Bench.Neighbors != 30 {
		t.Errorf("Neighbors = %d, want 30", cfg.Bench.Neighbors)
	}
	if cfg.Bench.Lag != 1 {
		t.Errorf("Lag = %d, want 1", cfg.Bench.Lag)
	}
	if cfg.Bench.TestSize != 0.2 {
		t.Errorf("TestSize = %v, want 0.2", cfg.Bench.TestSize)
	}
	if cfg.Bench.StepsPerYear != 365 {
		t.Errorf("StepsPerYear = %v, want 365", cfg.Bench.StepsPerYear)
	}
	if cfg.Forecast.Test != forecast.TestADF {
		t.Errorf("Forecast.Test = %q, want adf", cfg.Forecast.Test)
	}
	if cfg.Forecast.D != 0 {
		t.Errorf("Forecast.D = %d, want 0", cfg.Forecast.D)
	}
	if cfg.Forecast.MaxP != 6 || cfg.Forecast.MaxQ != 4 {
		t.Errorf("Forecast bounds = (%d, %d), want (6, 4)", cfg.Forecast.MaxP, cfg.Forecast.MaxQ)
	}
	if cfg.Forecast.Scoring != forecast.ScoringMAE {
		t.Errorf("Forecast.Scoring = %q, want mae", cfg.Forecast.Scoring)
	}
	if !cfg.Forecast.Stepwise {
		t.Error("Forecast.Stepwise = false, want true")
	}
	if !cfg.Forecast.Trace {
		t.Error("Forecast.Trace = false, want true")
	}
	if !cfg.Forecast.SuppressWarnings {
		t.Error("Forecast.SuppressWarnings = false, want true")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadConfigFile(t *testing.T) {
	yaml := `data:
  csv: /data/city_temperature.csv
benchmark:
  city: Eindhoven
  neighbors: 5
forecast:
  max_p: 3
  trace: false
logging:
  level: debug
`
	path := filepath.Join(t.TempDir(), "bench.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := pipeline.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig(%q) error = %v", path, err)
	}

	if cfg.Data.CSV != "/data/city_temperature.csv" {
		t.Errorf("Data.CSV = %q", cfg.Data.CSV)
	}
	if cfg.Bench.City != "Eindhoven" {
		t.Errorf("City = %q, want Eindhoven", cfg.Bench.City)
	}
	if cfg.Bench.Neighbors != 5 {
		t.Errorf("Neighbors = %d, want 5", cfg.Bench.Neighbors)
	}
	if cfg.Forecast.MaxP != 3 {
		t.Errorf("Forecast.MaxP = %d, want 3", cfg.Forecast.MaxP)
	}
	if cfg.Forecast.Trace {
		t.Error("Forecast.Trace = true, want false")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}

	// Untouched keys keep their defaults
	if cfg.Bench.Lag != 1 {
		t.Errorf("Lag = %d, want default 1", cfg.Bench.Lag)
	}
	if cfg.Forecast.MaxQ != 4 {
		t.Errorf("Forecast.MaxQ = %d, want default 4", cfg.Forecast.MaxQ)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"test size too large", "benchmark:\n  test_size: 1.5\n"},
		{"unknown stationarity test", "forecast:\n  test: dickey\n"},
		{"parallel with stepwise", "forecast:\n  n_jobs: 4\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bench.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := pipeline.LoadConfig(path); err == nil {
				t.Error("LoadConfig() = nil error, want validation failure")
			}
		})
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	if _, err := pipeline.LoadConfig(path); err == nil {
		t.Error("LoadConfig() = nil error for a named missing file")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := pipeline.DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*pipeline.Config)
	}{
		{"empty city", func(c *pipeline.Config) { c.Bench.City = "" }},
		{"zero neighbors", func(c *pipeline.Config) { c.Bench.Neighbors = 0 }},
		{"zero lag", func(c *pipeline.Config) { c.Bench.Lag = 0 }},
		{"zero test size", func(c *pipeline.Config) { c.Bench.TestSize = 0 }},
		{"test size one", func(c *pipeline.Config) { c.Bench.TestSize = 1 }},
		{"negative steps per year", func(c *pipeline.Config) { c.Bench.StepsPerYear = -1 }},
		{"bad criterion", func(c *pipeline.Config) { c.Forecast.Criterion = "hqic" }},
		{"bad error action", func(c *pipeline.Config) { c.Forecast.ErrorAction = "panic" }},
		{"parallel with stepwise", func(c *pipeline.Config) { c.Forecast.NJobs = 2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := pipeline.DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
