package kicad

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ecadlab/boardsnap/pkg/cache"
)

// memStore is a map-backed Cache for probe-cache tests.
type memStore struct {
	entries map[string][]byte
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok := m.entries[key]
	return data, ok, nil
}

func (m *memStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = data
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

func (m *memStore) Close() error { return nil }

func TestSheetExportPlan(t *testing.T) {
	plan := sheetExportPlan("/p/main.kicad_sch", "/out")
	if len(plan) != 1 {
		t.Fatalf("plan has %d steps, want 1", len(plan))
	}
	want := "sch export svg /p/main.kicad_sch -o /out"
	if got := strings.Join(plan[0].args, " "); got != want {
		t.Errorf("args = %q, want %q", got, want)
	}
}

func TestBoardExportPlanWholeBoard(t *testing.T) {
	plan := boardExportPlan("/p/main.kicad_pcb", "/out", "")
	if len(plan) != 3 {
		t.Fatalf("plan has %d steps, want 3", len(plan))
	}

	// Broadest layer set first, progressively narrower.
	wantLayers := []string{
		"F.Cu,B.Cu,F.SilkS,B.SilkS,Edge.Cuts",
		"F.Cu,B.Cu",
		"F.Cu",
	}
	for i, step := range plan {
		if step.args[0] != "pcb" || step.args[1] != "export" || step.args[2] != "svg" {
			t.Errorf("step %d is not a pcb svg export: %v", i, step.args)
		}
		if step.args[4] != wantLayers[i] {
			t.Errorf("step %d layers = %q, want %q", i, step.args[4], wantLayers[i])
		}
	}
}

func TestBoardExportPlanSpecificLayer(t *testing.T) {
	plan := boardExportPlan("/p/main.kicad_pcb", "/out", "B.SilkS")
	if len(plan) != 1 {
		t.Fatalf("plan has %d steps, want 1", len(plan))
	}
	args := strings.Join(plan[0].args, " ")
	if !strings.Contains(args, "--layers B.SilkS") {
		t.Errorf("layer not scoped: %q", args)
	}
	// Layer-scoped exports write to a file, not a directory.
	if !strings.HasSuffix(plan[0].args[len(plan[0].args)-1], "layer.svg") {
		t.Errorf("expected file output, got %q", plan[0].args[len(plan[0].args)-1])
	}
}

func TestParseLayerListing(t *testing.T) {
	out := `
F.Cu    signal
In1.Cu  signal
B.Cu    signal
Edge.Cuts user
total 4 layers
F.Cu    signal
`
	layers := parseLayerListing(out)
	want := []string{"F.Cu", "In1.Cu", "B.Cu", "Edge.Cuts"}
	if len(layers) != len(want) {
		t.Fatalf("layers = %v, want %v", layers, want)
	}
	for i := range want {
		if layers[i] != want[i] {
			t.Errorf("layers[%d] = %q, want %q", i, layers[i], want[i])
		}
	}
}

func TestParseLayerListingEmpty(t *testing.T) {
	if layers := parseLayerListing("no layer tokens here\n"); layers != nil {
		t.Errorf("expected nil, got %v", layers)
	}
}

func TestParseBoardLayers(t *testing.T) {
	board := []byte(`(kicad_pcb
  (layers
    (0 "F.Cu" signal)
    (31 "B.Cu" signal)
    (36 "B.SilkS" user "B.Silkscreen")
    (0 "F.Cu" signal)
  )
)`)
	layers := ParseBoardLayers(board)
	want := []string{"F.Cu", "B.Cu", "B.SilkS"}
	if len(layers) != len(want) {
		t.Fatalf("layers = %v, want %v", layers, want)
	}
	for i := range want {
		if layers[i] != want[i] {
			t.Errorf("layers[%d] = %q, want %q", i, layers[i], want[i])
		}
	}
}

// A cached probe for a still-present executable must answer discovery without
// invoking the tool: the file here is not runnable, so success can only come
// from the store.
func TestDiscoverUsesCachedProbe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kicad-cli")
	if err := os.WriteFile(path, []byte("not runnable"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := &memStore{}
	if err := store.Set(context.Background(), probeKey(path), []byte("9.0.0"), cache.TTLProbe); err != nil {
		t.Fatal(err)
	}

	c, err := Discover(context.Background(), path, store)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if c.Path != path || c.Version != "9.0.0" {
		t.Errorf("client = %+v, want cached probe for %s", c, path)
	}
}

func TestDiscoverIgnoresCachedProbeForRemovedBinary(t *testing.T) {
	gone := filepath.Join(t.TempDir(), "kicad-cli")
	store := &memStore{}
	if err := store.Set(context.Background(), probeKey(gone), []byte("9.0.0"), cache.TTLProbe); err != nil {
		t.Fatal(err)
	}
	if c, ok := probeFromCache(context.Background(), store, gone); ok {
		t.Errorf("cached probe %+v accepted for a missing executable", c)
	}
}

func TestDiscoverStoresSuccessfulProbe(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("probe stand-in is a shell script")
	}
	path := filepath.Join(t.TempDir(), "kicad-cli")
	if err := os.WriteFile(path, []byte("#!/bin/sh\necho 9.0.1\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	store := &memStore{}

	c, err := Discover(context.Background(), path, store)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if c.Version != "9.0.1" {
		t.Errorf("version = %q, want 9.0.1", c.Version)
	}
	data, hit, _ := store.Get(context.Background(), probeKey(path))
	if !hit || string(data) != "9.0.1" {
		t.Errorf("probe not stored: hit=%v data=%q", hit, data)
	}
}

func TestVersionPattern(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"9.0.0", "9.0.0"},
		{"kicad-cli 8.0.4-rc1", "8.0.4"},
		{"7.0", "7.0"},
	}
	for _, tt := range tests {
		if got := versionPattern.FindString(tt.raw); got != tt.want {
			t.Errorf("versionPattern(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
