package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeTempFile(t, "config.yaml", `
addr: ":9090"
scene: /etc/sizewatch/scene.yaml
refresh_interval_ms: 50
log_level: debug
cors_enabled: true
cors_origins:
  - https://example.com
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.ScenePath != "/etc/sizewatch/scene.yaml" {
		t.Fatalf("scene = %q", cfg.ScenePath)
	}
	if cfg.RefreshIntervalMS != 50 {
		t.Fatalf("refresh_interval_ms = %d", cfg.RefreshIntervalMS)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log_level = %q", cfg.LogLevel)
	}
	if !cfg.CORSEnabled || len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://example.com" {
		t.Fatalf("cors = %v %v", cfg.CORSEnabled, cfg.CORSOrigins)
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeTempFile(t, "config.json",
		`{"addr":":7070","refresh_interval_ms":10,"log_level":"warn"}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.RefreshIntervalMS != 10 || cfg.LogLevel != "warn" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeTempFile(t, "config.toml", `
addr = ":6060"
scene = "scene.yaml"
refresh_interval_ms = 25
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":6060" || cfg.ScenePath != "scene.yaml" || cfg.RefreshIntervalMS != 25 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	path := writeTempFile(t, "config.ini", "addr=:8080")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
	bad := writeTempFile(t, "bad.json", "{not json")
	if _, err := Load(bad); err == nil {
		t.Fatalf("expected error for malformed json")
	}
}
