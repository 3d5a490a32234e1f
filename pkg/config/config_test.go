package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TimelineLimit != DefaultTimelineLimit {
		t.Errorf("TimelineLimit = %d, want %d", cfg.TimelineLimit, DefaultTimelineLimit)
	}
	if cfg.ExportTimeoutSeconds != 40 {
		t.Errorf("ExportTimeoutSeconds = %d, want 40", cfg.ExportTimeoutSeconds)
	}
	if cfg.KicadCLI != "" {
		t.Errorf("KicadCLI = %q, want empty", cfg.KicadCLI)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
kicad_cli = "/opt/kicad/bin/kicad-cli"
timeline_limit = 100
export_timeout_seconds = 60
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KicadCLI != "/opt/kicad/bin/kicad-cli" {
		t.Errorf("KicadCLI = %q", cfg.KicadCLI)
	}
	if cfg.TimelineLimit != 100 {
		t.Errorf("TimelineLimit = %d, want 100", cfg.TimelineLimit)
	}
	if cfg.ExportTimeoutSeconds != 60 {
		t.Errorf("ExportTimeoutSeconds = %d, want 60", cfg.ExportTimeoutSeconds)
	}
	// Unset field falls back to default.
	if cfg.ProbeTimeoutSeconds != 10 {
		t.Errorf("ProbeTimeoutSeconds = %d, want 10", cfg.ProbeTimeoutSeconds)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("timeline_limit = {"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should fail on malformed TOML")
	}
}

func TestClampTimelineLimit(t *testing.T) {
	cfg := Default()
	tests := []struct {
		in, want int
	}{
		{0, DefaultTimelineLimit},  // zero picks configured default
		{-5, DefaultTimelineLimit}, // negative picks configured default
		{1, 1},
		{250, 250},
		{500, 500},
		{501, 500},
		{100000, 500},
	}
	for _, tt := range tests {
		if got := cfg.ClampTimelineLimit(tt.in); got != tt.want {
			t.Errorf("ClampTimelineLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
