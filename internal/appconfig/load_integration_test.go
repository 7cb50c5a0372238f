// internal/appconfig/load_integration_test.go
package appconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldCwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldCwd) })
}

func TestLoadDefaultPath(t *testing.T) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte(`{"endTime": 3600, "closure": {"begin": 100, "end": 200}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, tempDir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.EndTime != 3600 || cfg.ConfigPath != DefaultConfigPath {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadLegacyFallback(t *testing.T) {
	tempDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tempDir, "simlab.json"), []byte(`{"debug": true}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, tempDir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !cfg.Debug || cfg.ConfigPath != "simlab.json" {
		t.Fatalf("expected legacy config, got %+v", cfg)
	}
}

func TestLoadNoFiles(t *testing.T) {
	chdir(t, t.TempDir())
	if _, err := Load(""); err == nil {
		t.Fatal("expected error when no config exists")
	}
}
