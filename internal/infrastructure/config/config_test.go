package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "knxproj.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" || cfg.Logging.Output != "stderr" {
		t.Errorf("unexpected defaults: %+v", cfg.Logging)
	}
	if cfg.Language != "" {
		t.Errorf("language = %q, want empty", cfg.Language)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
language: de-DE
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	// Unset keys keep their defaults.
	if cfg.Logging.Output != "stderr" {
		t.Errorf("output = %q, want stderr", cfg.Logging.Output)
	}
	if cfg.Language != "de-DE" {
		t.Errorf("language = %q, want de-DE", cfg.Language)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("KNXPROJ_LOG_LEVEL", "warn")
	t.Setenv("KNXPROJ_LANGUAGE", "fr-FR")

	path := writeConfig(t, "logging:\n  level: debug\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q, want env override warn", cfg.Logging.Level)
	}
	if cfg.Language != "fr-FR" {
		t.Errorf("language = %q, want fr-FR", cfg.Language)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad level", "logging:\n  level: loud\n"},
		{"bad format", "logging:\n  format: xml\n"},
		{"bad yaml", "logging: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Load() expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}
