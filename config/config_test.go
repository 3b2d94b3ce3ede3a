package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strata.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_EmptyPathYieldsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HistoryLimit != 100 {
		t.Errorf("expected default history limit 100, got %d", cfg.HistoryLimit)
	}
	if cfg.Maintenance.Schedule != "1h" {
		t.Errorf("expected default schedule 1h, got %s", cfg.Maintenance.Schedule)
	}
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HistoryLimit != 100 {
		t.Errorf("expected defaults for missing file, got %+v", cfg)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
global_dir: /srv/strata
history_limit: 25
maintenance:
  schedule: "0 3 * * *"
log:
  file: /var/log/strata.log
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GlobalDir != "/srv/strata" {
		t.Errorf("expected global_dir override, got %s", cfg.GlobalDir)
	}
	if cfg.HistoryLimit != 25 {
		t.Errorf("expected history_limit 25, got %d", cfg.HistoryLimit)
	}
	if cfg.Maintenance.Schedule != "0 3 * * *" {
		t.Errorf("expected schedule override, got %s", cfg.Maintenance.Schedule)
	}
	if cfg.Log.File != "/var/log/strata.log" {
		t.Errorf("expected log file override, got %s", cfg.Log.File)
	}
}

func TestLoad_PartialFileKeepsRemainingDefaults(t *testing.T) {
	path := writeConfig(t, "global_only: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.GlobalOnly {
		t.Error("expected global_only from file")
	}
	if cfg.HistoryLimit != 100 || cfg.Maintenance.Schedule != "1h" {
		t.Errorf("expected untouched defaults, got %+v", cfg)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "history_limit: [not a number\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
