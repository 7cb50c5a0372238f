// internal/appconfig/appconfig_test.go
package appconfig

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoad checks that a partial file is merged over the defaults and that
// schema and semantic problems surface as ConfigError.
func TestLoad(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{
  "engine": { "home": "/opt/sumo", "gui": false, "stepLength": 0.5 },
  "endTime": 30000,
  "windows": { "travelTime": { "start": 100, "end": 200 } }
}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() with valid config failed: %v", err)
	}
	if cfg.ConfigPath != path {
		t.Fatalf("expected config path %s, got %s", path, cfg.ConfigPath)
	}
	if cfg.Engine.Home != "/opt/sumo" || cfg.Engine.GUI || cfg.Engine.StepLength != 0.5 {
		t.Fatalf("file values not applied: %+v", cfg.Engine)
	}
	if cfg.Engine.ConfigFile != "M50_simulation.sumocfg" || cfg.Plugin.ConfigFile != "simpla.cfg.xml" {
		t.Fatalf("defaults not kept: %+v", cfg)
	}
	if cfg.Windows.TravelTime.Start != 100 || cfg.Windows.Conflicts.End != 27000 {
		t.Fatalf("unexpected windows: %+v", cfg.Windows)
	}
	if len(cfg.Closure.Lanes) != 4 || len(cfg.Closure.Disallowed) != len(DisallowedClasses) {
		t.Fatalf("closure defaults missing: %+v", cfg.Closure)
	}
	if cfg.StartupTimeoutDuration() != 30*time.Second {
		t.Fatalf("expected default startup timeout, got %v", cfg.StartupTimeoutDuration())
	}

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"invalid json", `{"engine":`, ""},
		{"unknown key", `{"hosts": []}`, "hosts"},
		{"wrong type", `{"endTime": "late"}`, "endTime"},
		{"bad bridge url", `{"engine": {"bridgeURL": "http://x"}}`, "bridgeURL"},
		{"reversed closure", `{"closure": {"begin": 500, "end": 100}}`, "closure.begin"},
		{"closure after end", `{"endTime": 1000, "closure": {"begin": 10, "end": 2000}}`, "after endTime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want == "" {
				return
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %v", tt.want, err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil || !strings.Contains(err.Error(), "no configuration file found") {
		t.Fatalf("expected missing file error, got %v", err)
	}
}

func TestDefaultsPassValidation(t *testing.T) {
	if err := ValidateConfig(Defaults()); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	cfg := Defaults()
	cfg.Engine.StepLength = 0
	if err := ValidateConfig(cfg); err == nil {
		t.Fatal("expected zero step length to be rejected")
	}
}

func TestDefaultValuesMatchDefaults(t *testing.T) {
	vals := DefaultValues()
	d := Defaults()
	if vals["endTime"] != d.EndTime || vals["closure.begin"] != d.Closure.Begin || vals["plugin.configFile"] != d.Plugin.ConfigFile {
		t.Fatalf("flattened defaults out of sync: %v", vals)
	}
	if vals["engine.gui"] != true {
		t.Fatal("gui must default to on")
	}
}

func TestOutputPath(t *testing.T) {
	cfg := Config{}
	if got := cfg.OutputPath("a.csv"); got != "a.csv" {
		t.Fatalf("expected bare name, got %s", got)
	}
	cfg.Output.Dir = "analysis_output"
	if got := cfg.OutputPath("a.csv"); got != filepath.Join("analysis_output", "a.csv") {
		t.Fatalf("unexpected path %s", got)
	}
}

func TestShowAndDumpConfig(t *testing.T) {
	var buf bytes.Buffer
	ShowConfig(&buf, "", Defaults())
	out := buf.String()
	for _, want := range []string{"No config file loaded", "Engine Home:      (unset)", "Closure:          27000-27900 s on 4 lanes", "Travel Window:    25200-28800 s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := DumpConfig(&buf, Defaults(), false); err != nil {
		t.Fatalf("DumpConfig error: %v", err)
	}
	if !strings.Contains(buf.String(), "simpla.cfg.xml") {
		t.Fatalf("expected plugin config in dump:\n%s", buf.String())
	}
}
