package render

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ecadlab/boardsnap/pkg/fileset"
)

const boardWithLayers = `(kicad_pcb
  (layers
    (0 "F.Cu" signal)
    (31 "B.Cu" signal)
    (44 "Edge.Cuts" user)
  )
)`

func TestTargetKeyAndLabel(t *testing.T) {
	tests := []struct {
		target Target
		key    string
		label  string
	}{
		{Target{Kind: KindSheet, Path: "main.kicad_sch"}, "sheet|main.kicad_sch|", "SCH / main.kicad_sch"},
		{Target{Kind: KindBoard, Path: "main.kicad_pcb"}, "board|main.kicad_pcb|", "PCB / main.kicad_pcb / board"},
		{Target{Kind: KindBoard, Path: "main.kicad_pcb", Layer: "F.Cu"}, "board|main.kicad_pcb|F.Cu", "PCB / main.kicad_pcb / F.Cu"},
	}
	for _, tt := range tests {
		if got := tt.target.Key(); got != tt.key {
			t.Errorf("Key() = %q, want %q", got, tt.key)
		}
		if got := tt.target.Label(); got != tt.label {
			t.Errorf("Label() = %q, want %q", got, tt.label)
		}
	}
}

func TestTargetSafeKey(t *testing.T) {
	target := Target{Kind: KindBoard, Path: "boards/main rev2.kicad_pcb", Layer: "F.Cu"}
	safe := target.SafeKey()
	for _, r := range safe {
		ok := r == '.' || r == '_' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			t.Fatalf("SafeKey() = %q contains unsafe rune %q", safe, r)
		}
	}
}

// A sheet changed on both sides plus a board added on one side must yield the
// sheet target, the whole-board target, and one target per discovered layer.
func TestResolveSheetAndBoard(t *testing.T) {
	before := fileset.FileSet{"x.kicad_sch": []byte("v1")}
	after := fileset.FileSet{
		"x.kicad_sch": []byte("v2"),
		"y.kicad_pcb": []byte(boardWithLayers),
	}

	targets := Resolve(context.Background(), before, after, t.TempDir(), t.TempDir(), ResolveOptions{})

	want := []Target{
		{Kind: KindSheet, Path: "x.kicad_sch"},
		{Kind: KindBoard, Path: "y.kicad_pcb"},
		{Kind: KindBoard, Path: "y.kicad_pcb", Layer: "F.Cu"},
		{Kind: KindBoard, Path: "y.kicad_pcb", Layer: "B.Cu"},
		{Kind: KindBoard, Path: "y.kicad_pcb", Layer: "Edge.Cuts"},
	}
	if len(targets) != len(want) {
		t.Fatalf("Resolve returned %d targets, want %d: %+v", len(targets), len(want), targets)
	}
	for i := range want {
		if targets[i] != want[i] {
			t.Errorf("targets[%d] = %+v, want %+v", i, targets[i], want[i])
		}
	}
}

func TestResolveSheetsSortedFirst(t *testing.T) {
	before := fileset.FileSet{
		"b.kicad_sch": []byte("x"),
		"a.kicad_pcb": []byte(boardWithLayers),
	}
	after := fileset.FileSet{"a.kicad_sch": []byte("x")}

	targets := Resolve(context.Background(), before, after, t.TempDir(), t.TempDir(), ResolveOptions{})
	if len(targets) < 3 {
		t.Fatalf("too few targets: %+v", targets)
	}
	if targets[0].Path != "a.kicad_sch" || targets[0].Kind != KindSheet {
		t.Errorf("targets[0] = %+v, want sheet a.kicad_sch", targets[0])
	}
	if targets[1].Path != "b.kicad_sch" || targets[1].Kind != KindSheet {
		t.Errorf("targets[1] = %+v, want sheet b.kicad_sch", targets[1])
	}
	if targets[2].Kind != KindBoard || targets[2].Layer != "" {
		t.Errorf("targets[2] = %+v, want whole-board target", targets[2])
	}
}

// fakeLister records invocations and returns a fixed layer list.
type fakeLister struct {
	calls  int
	layers []string
}

func (f *fakeLister) ListLayers(ctx context.Context, boardPath string) ([]string, error) {
	f.calls++
	return f.layers, nil
}

func TestResolvePrefersToolListing(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "y.kicad_pcb"), []byte(boardWithLayers), 0o644); err != nil {
		t.Fatal(err)
	}
	before := fileset.FileSet{"y.kicad_pcb": []byte(boardWithLayers)}
	lister := &fakeLister{layers: []string{"F.Cu", "In1.Cu", "B.Cu"}}

	targets := Resolve(context.Background(), before, fileset.FileSet{}, root, t.TempDir(), ResolveOptions{Lister: lister})

	if lister.calls != 1 {
		t.Fatalf("lister called %d times, want 1", lister.calls)
	}
	var layers []string
	for _, target := range targets {
		if target.Layer != "" {
			layers = append(layers, target.Layer)
		}
	}
	if len(layers) != 3 || layers[1] != "In1.Cu" {
		t.Errorf("layers = %v, want tool listing", layers)
	}
}

// memCache is a map-backed Cache for tests.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (m *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.entries[key]
	return data, ok, nil
}

func (m *memCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = data
	return nil
}

func (m *memCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memCache) Close() error { return nil }

func TestResolveCachesLayerListing(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "y.kicad_pcb"), []byte(boardWithLayers), 0o644); err != nil {
		t.Fatal(err)
	}
	before := fileset.FileSet{"y.kicad_pcb": []byte(boardWithLayers)}
	lister := &fakeLister{layers: []string{"F.Cu"}}
	store := &memCache{}
	opts := ResolveOptions{Lister: lister, LayerCache: store}

	Resolve(context.Background(), before, fileset.FileSet{}, root, t.TempDir(), opts)
	Resolve(context.Background(), before, fileset.FileSet{}, root, t.TempDir(), opts)

	if lister.calls != 1 {
		t.Errorf("lister called %d times, want 1 (second resolve should hit cache)", lister.calls)
	}
}
