package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"goethos/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("expected 10m cache ttl, got %s", cfg.Cache.TTL)
	}
	if cfg.Analysis.Chains != 4 || cfg.Analysis.Samples != 1000 {
		t.Errorf("unexpected sampler defaults: %+v", cfg.Analysis)
	}
	if cfg.Analysis.RHatThreshold != 1.1 {
		t.Errorf("expected R-hat threshold 1.1, got %f", cfg.Analysis.RHatThreshold)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GOETHOS_SERVER_PORT", "9090")
	t.Setenv("GOETHOS_ANALYSIS_BOOTSTRAP_ITERATIONS", "5000")
	t.Setenv("GOETHOS_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Analysis.BootstrapIterations != 5000 {
		t.Errorf("expected 5000 iterations, got %d", cfg.Analysis.BootstrapIterations)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug, got %s", cfg.Logging.Level)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "goethos.yaml")
	content := `
cache:
  backend: sqlite
  sqlite_path: /tmp/goethos-cache.db
  ttl: 1h
analysis:
  folds: 10
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Cache.Backend != "sqlite" || cfg.Cache.TTL != time.Hour {
		t.Errorf("unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Analysis.Folds != 10 {
		t.Errorf("expected 10 folds, got %d", cfg.Analysis.Folds)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"GOETHOS_ANALYSIS_FOLDS":            "1",
		"GOETHOS_ANALYSIS_PRIOR":            "1.5",
		"GOETHOS_CACHE_BACKEND":             "redis",
		"GOETHOS_LOGGING_FORMAT":            "xml",
		"GOETHOS_ANALYSIS_RHAT_THRESHOLD":   "0.9",
		"GOETHOS_ANALYSIS_CONFIDENCE_LEVEL": "1",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("")
			if err == nil {
				t.Fatalf("expected validation error for %s=%s", key, value)
			}
			if errors.GetCode(err) != errors.CodeConfigInvalid {
				t.Errorf("expected CONFIG_INVALID, got %s", errors.GetCode(err))
			}
		})
	}
}

func TestLoad_SQLiteNeedsPath(t *testing.T) {
	t.Setenv("GOETHOS_CACHE_BACKEND", "sqlite")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error when sqlite backend has no path")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
