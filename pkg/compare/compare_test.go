package compare

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ecadlab/boardsnap/pkg/errors"
	"github.com/ecadlab/boardsnap/pkg/fileset"
	"github.com/ecadlab/boardsnap/pkg/render"
)

// fakeExporter writes a deterministic SVG derived from the source document's
// content, so different documents rasterize to different bitmaps.
type fakeExporter struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	delay   time.Duration
}

func (f *fakeExporter) export(source, outDir string) ([]string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "read %s", source)
	}
	// Bar width tracks content length, so distinct content draws distinctly.
	w := len(data)%30 + 1
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="40" height="30">
  <rect x="0" y="0" width="%d" height="10" fill="#000000"/>
</svg>`, w)
	out := filepath.Join(outDir, "out.svg")
	if err := os.WriteFile(out, []byte(svg), 0o644); err != nil {
		return nil, err
	}
	return []string{out}, nil
}

func (f *fakeExporter) ExportSheetSVG(ctx context.Context, source, outDir string) ([]string, error) {
	return f.export(source, outDir)
}

func (f *fakeExporter) ExportBoardSVG(ctx context.Context, source, outDir, layer string) ([]string, error) {
	return f.export(source, outDir)
}

func newTestSession(t *testing.T, before, after fileset.FileSet, exporter Exporter) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), before, after, exporter, SessionOptions{})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEnsureCachesRender(t *testing.T) {
	exporter := &fakeExporter{}
	s := newTestSession(t,
		fileset.FileSet{"x.kicad_sch": []byte("v1")},
		fileset.FileSet{"x.kicad_sch": []byte("version two")},
		exporter,
	)
	if len(s.Targets) != 1 {
		t.Fatalf("targets = %+v, want one sheet", s.Targets)
	}
	key := s.Targets[0].Key()

	first, err := s.Ensure(context.Background(), key)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if first.Verdict != StatusDiff {
		t.Errorf("verdict = %v, want diff", first.Verdict)
	}
	for _, p := range []string{first.BeforePath, first.AfterPath, first.DiffPath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing persisted bitmap %s: %v", p, err)
		}
	}

	second, err := s.Ensure(context.Background(), key)
	if err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	if second.Verdict != StatusDiff {
		t.Errorf("cached verdict = %v, want diff", second.Verdict)
	}
	if got := s.Cache.Renders(); got != 1 {
		t.Errorf("renders = %d, want 1 (second call must be a cache hit)", got)
	}
	if got := s.Status.Get(key); got != StatusDiff {
		t.Errorf("status = %v, want diff", got)
	}
}

func TestEnsureIdenticalContentIsSame(t *testing.T) {
	content := fileset.FileSet{"x.kicad_sch": []byte("unchanged")}
	s := newTestSession(t, content, fileset.FileSet{"x.kicad_sch": []byte("unchanged")}, &fakeExporter{})

	res, err := s.Ensure(context.Background(), s.Targets[0].Key())
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if res.Verdict != StatusSame {
		t.Errorf("verdict = %v, want same", res.Verdict)
	}
}

func TestEnsureMissingSideUsesBlank(t *testing.T) {
	s := newTestSession(t,
		fileset.FileSet{},
		fileset.FileSet{"x.kicad_sch": []byte("new sheet")},
		&fakeExporter{},
	)

	res, err := s.Ensure(context.Background(), s.Targets[0].Key())
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if !res.MissingBefore || res.MissingAfter {
		t.Errorf("missing flags = (%v, %v), want (true, false)", res.MissingBefore, res.MissingAfter)
	}
	// Blank canvas vs a drawn document always differs.
	if res.Verdict != StatusDiff {
		t.Errorf("verdict = %v, want diff", res.Verdict)
	}
}

func TestRenderCacheTargetUnavailable(t *testing.T) {
	rc := NewRenderCache(t.TempDir(), &fakeExporter{}, fileset.FileSet{}, fileset.FileSet{}, t.TempDir(), t.TempDir(), nil)
	target := render.Target{Kind: render.KindSheet, Path: "ghost.kicad_sch"}
	if _, err := rc.Ensure(context.Background(), target); !errors.Is(err, errors.ErrCodeTargetUnavailable) {
		t.Errorf("error code = %v, want TARGET_UNAVAILABLE", errors.GetCode(err))
	}
}

func TestEnsureUnknownTarget(t *testing.T) {
	s := newTestSession(t, fileset.FileSet{"x.kicad_sch": []byte("v")}, fileset.FileSet{}, &fakeExporter{})
	if _, err := s.Ensure(context.Background(), "board|nope|"); !errors.Is(err, errors.ErrCodeTargetNotFound) {
		t.Errorf("error code = %v, want TARGET_NOT_FOUND", errors.GetCode(err))
	}
}

func TestStatusMapNoRegression(t *testing.T) {
	m := NewStatusMap([]string{"k"})
	if got := m.Get("k"); got != StatusPending {
		t.Fatalf("initial status = %v, want pending", got)
	}
	if !m.BeginIfPending("k") {
		t.Fatal("BeginIfPending refused on pending target")
	}
	if m.BeginIfPending("k") {
		t.Error("BeginIfPending advanced a rendering target")
	}
	if !m.Advance("k", StatusDiff) {
		t.Error("Advance to terminal refused")
	}
	for _, s := range []Status{StatusPending, StatusRendering, StatusSame, StatusError} {
		if m.Advance("k", s) {
			t.Errorf("terminal status regressed to %v", s)
		}
	}
	if got := m.Get("k"); got != StatusDiff {
		t.Errorf("status = %v, want diff", got)
	}
}

func TestPrecacheWorkerCancellation(t *testing.T) {
	before := fileset.FileSet{}
	after := fileset.FileSet{}
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("s%02d.kicad_sch", i)
		before[name] = []byte("v1")
		after[name] = []byte("version two")
	}
	// Each target renders two sides, so one target is two exporter calls.
	exporter := &fakeExporter{started: make(chan struct{}, 100), delay: 20 * time.Millisecond}
	s := newTestSession(t, before, after, exporter)
	if len(s.Targets) != 10 {
		t.Fatalf("targets = %d, want 10", len(s.Targets))
	}

	s.Precache(context.Background())
	for i := 0; i < 6; i++ { // three targets' worth of export calls
		<-exporter.started
	}
	root := s.root
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	advanced := 0
	for _, status := range s.Status.All() {
		if status != StatusPending {
			advanced++
		}
	}
	// Three finished plus at most the one in flight at cancellation.
	if advanced > 4 {
		t.Errorf("%d targets advanced past pending after cancellation, want at most 4", advanced)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Errorf("session dir %s still present after Close", root)
	}
}
