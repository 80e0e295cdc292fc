package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	data := `solver:
  algorithm: "tabu"
  cost_model: "quadratic"
  alpha: 0.2
  beta: 0.4
  time_limit_seconds: 30
  seed: 7
  workers: 2
logging:
  dev: true
  level: "debug"
metrics:
  enabled: true
  listen: ":9100"
influx:
  enabled: true
  url: "http://localhost:8086"
  token: "tok"
  org: "lab"
  bucket: "runs"
`
	cfg, err := Load(writeConfig(t, data))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"algorithm", cfg.Solver.Algorithm, "tabu"},
		{"cost_model", cfg.Solver.CostModel, "quadratic"},
		{"alpha", cfg.Solver.Alpha, 0.2},
		{"beta", cfg.Solver.Beta, 0.4},
		{"time_limit_seconds", cfg.Solver.TimeLimitSeconds, 30},
		{"seed", cfg.Solver.Seed, int64(7)},
		{"workers", cfg.Solver.Workers, 2},
		{"max_profit_default", cfg.Solver.MaxProfit, 200},
		{"logging.dev", cfg.Logging.Dev, true},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"metrics.enabled", cfg.Metrics.Enabled, true},
		{"metrics.listen", cfg.Metrics.Listen, ":9100"},
		{"influx.url", cfg.Influx.URL, "http://localhost:8086"},
		{"influx.bucket", cfg.Influx.Bucket, "runs"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "solver:\n  algorithm: \"nn\"\n"))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Solver.CostModel != "distance" || cfg.Solver.TimeLimitSeconds != 60 || cfg.Solver.Seed != 42 {
		t.Errorf("solver defaults not applied: %+v", cfg.Solver)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("logging default not applied: %+v", cfg.Logging)
	}
	if cfg.Metrics.Listen != ":2112" {
		t.Errorf("metrics default not applied: %+v", cfg.Metrics)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PDTSP_SOLVER__ALGORITHM", "sa")
	cfg, err := Load(writeConfig(t, "solver:\n  algorithm: \"nn\"\n"))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Solver.Algorithm != "sa" {
		t.Errorf("env override ignored: %q", cfg.Solver.Algorithm)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"algorithm", "solver:\n  algorithm: \"warp\"\n", "warp"},
		{"cost model", "solver:\n  cost_model: \"cubic\"\n", "cubic"},
		{"level", "logging:\n  level: \"shout\"\n", "shout"},
		{"influx", "influx:\n  enabled: true\n", "influx"},
		{"time limit", "solver:\n  time_limit_seconds: -1\n", "time_limit_seconds"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.data))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("got %v, want error mentioning %q", err, tc.want)
			}
		})
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	for name, v := range map[string]interface{ Validate() error }{
		"solver":  cfg.Solver,
		"logging": cfg.Logging,
		"metrics": cfg.Metrics,
		"influx":  cfg.Influx,
	} {
		if err := v.Validate(); err != nil {
			t.Errorf("%s default invalid: %v", name, err)
		}
	}
}
