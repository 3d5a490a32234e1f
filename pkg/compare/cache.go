package compare

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/ecadlab/boardsnap/pkg/cache"
	"github.com/ecadlab/boardsnap/pkg/errors"
	"github.com/ecadlab/boardsnap/pkg/fileset"
	"github.com/ecadlab/boardsnap/pkg/imagediff"
	"github.com/ecadlab/boardsnap/pkg/render"
)

// Exporter is the external-tool capability the render cache depends on.
// *kicad.Client implements it; tests substitute a fake.
type Exporter interface {
	ExportSheetSVG(ctx context.Context, source, outDir string) ([]string, error)
	ExportBoardSVG(ctx context.Context, source, outDir, layer string) ([]string, error)
}

// Result is one target's cached comparison: the three persisted bitmaps and
// the verdict. MissingBefore/MissingAfter report that a side had no document
// and was rendered as a blank canvas, which is not a failure.
type Result struct {
	BeforePath string `json:"before_path"`
	AfterPath  string `json:"after_path"`
	DiffPath   string `json:"diff_path"`
	Verdict    Status `json:"verdict"`

	MissingBefore bool `json:"missing_before,omitempty"`
	MissingAfter  bool `json:"missing_after,omitempty"`
}

// RenderCache is the session-scoped on-disk store of rendered comparisons,
// keyed by a stable hash of the target identity. At most one external render
// runs at a time across the whole cache; cache-hit reads never take the
// render lock.
type RenderCache struct {
	dir      string
	exporter Exporter

	before     fileset.FileSet
	after      fileset.FileSet
	beforeRoot string
	afterRoot  string

	logger *log.Logger

	renderMu sync.Mutex
	renders  atomic.Int64
}

// NewRenderCache builds a cache rooted at dir for one before/after pair.
// beforeRoot and afterRoot are the directories the FileSets were materialized
// to; the external tool reads documents from there.
func NewRenderCache(dir string, exporter Exporter, before, after fileset.FileSet, beforeRoot, afterRoot string, logger *log.Logger) *RenderCache {
	if logger == nil {
		logger = log.Default()
	}
	return &RenderCache{
		dir:        dir,
		exporter:   exporter,
		before:     before,
		after:      after,
		beforeRoot: beforeRoot,
		afterRoot:  afterRoot,
		logger:     logger,
	}
}

// Renders returns how many times the cache performed a full render, as
// opposed to answering from disk.
func (rc *RenderCache) Renders() int64 {
	return rc.renders.Load()
}

// entryDir is the on-disk home of one target's bitmaps.
func (rc *RenderCache) entryDir(target render.Target) string {
	return filepath.Join(rc.dir, cache.Hash([]byte(target.Key())))
}

// Ensure returns the cached comparison for target, rendering it first if
// needed. Concurrent callers for the same target collapse to a single render:
// the render lock is re-checked after acquisition so the loser of the race
// finds the winner's files on disk.
func (rc *RenderCache) Ensure(ctx context.Context, target render.Target) (*Result, error) {
	if res, ok := rc.hit(target); ok {
		return res, nil
	}

	rc.renderMu.Lock()
	defer rc.renderMu.Unlock()
	if res, ok := rc.hit(target); ok {
		return res, nil
	}
	return rc.render(ctx, target)
}

// hit answers from disk when all three bitmaps exist. The verdict is not
// persisted; it is recomputed from the two source bitmaps, which cannot
// desync from the images the way a stored verdict could.
func (rc *RenderCache) hit(target render.Target) (*Result, bool) {
	res := rc.result(target)
	for _, p := range []string{res.BeforePath, res.AfterPath, res.DiffPath} {
		if _, err := os.Stat(p); err != nil {
			return nil, false
		}
	}
	beforeImg, err := loadNRGBA(res.BeforePath)
	if err != nil {
		return nil, false
	}
	afterImg, err := loadNRGBA(res.AfterPath)
	if err != nil {
		return nil, false
	}
	res.Verdict = verdictOf(beforeImg, afterImg)
	return res, true
}

// render exports and rasterizes both sides, computes the diff, and persists
// all three bitmaps. Caller holds the render lock.
func (rc *RenderCache) render(ctx context.Context, target render.Target) (*Result, error) {
	rc.renders.Add(1)
	res := rc.result(target)
	rc.logger.Debug("rendering target", "target", target.Key())

	var beforeImg, afterImg *image.NRGBA
	if !res.MissingBefore {
		img, err := rc.renderSide(ctx, target, rc.beforeRoot, "before")
		if err != nil {
			return nil, err
		}
		beforeImg = img
	}
	if !res.MissingAfter {
		img, err := rc.renderSide(ctx, target, rc.afterRoot, "after")
		if err != nil {
			return nil, err
		}
		afterImg = img
	}

	// A side with no document is rendered as a blank canvas matching the
	// other side, so the diff highlights everything the document adds.
	switch {
	case beforeImg == nil && afterImg == nil:
		return nil, errors.New(errors.ErrCodeTargetUnavailable, "no side holds %s", target.Path)
	case beforeImg == nil:
		beforeImg = imagediff.BlankLike(afterImg)
	case afterImg == nil:
		afterImg = imagediff.BlankLike(beforeImg)
	}

	beforeImg, afterImg = imagediff.Normalize(beforeImg, afterImg)
	diffImg := imagediff.Diff(beforeImg, afterImg)
	res.Verdict = verdictOf(beforeImg, afterImg)

	if err := os.MkdirAll(rc.entryDir(target), 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create cache entry dir")
	}
	for _, out := range []struct {
		path string
		img  *image.NRGBA
	}{
		{res.BeforePath, beforeImg},
		{res.AfterPath, afterImg},
		{res.DiffPath, diffImg},
	} {
		if err := imaging.Save(out.img, out.path); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "persist %s", filepath.Base(out.path))
		}
	}
	return res, nil
}

// renderSide exports one side's document to SVG and rasterizes the first
// exported file.
func (rc *RenderCache) renderSide(ctx context.Context, target render.Target, root, side string) (*image.NRGBA, error) {
	scratch := filepath.Join(rc.dir, "export", side, target.SafeKey())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create export dir")
	}
	source := filepath.Join(root, filepath.FromSlash(target.Path))

	var svgs []string
	var err error
	switch target.Kind {
	case render.KindSheet:
		svgs, err = rc.exporter.ExportSheetSVG(ctx, source, scratch)
	case render.KindBoard:
		svgs, err = rc.exporter.ExportBoardSVG(ctx, source, scratch, target.Layer)
	default:
		return nil, errors.New(errors.ErrCodeInternal, "unknown target kind %q", target.Kind)
	}
	if err != nil {
		return nil, err
	}
	if len(svgs) == 0 {
		return nil, errors.New(errors.ErrCodeRenderFailed, "no SVG exported for %s", target.Key())
	}

	img, err := render.RasterizeSVGFile(svgs[0])
	if err != nil {
		return nil, err
	}
	return imaging.Clone(img), nil
}

// result builds the Result skeleton: entry paths plus missing-side flags.
func (rc *RenderCache) result(target render.Target) *Result {
	dir := rc.entryDir(target)
	_, hasBefore := rc.before[target.Path]
	_, hasAfter := rc.after[target.Path]
	return &Result{
		BeforePath:    filepath.Join(dir, "before.png"),
		AfterPath:     filepath.Join(dir, "after.png"),
		DiffPath:      filepath.Join(dir, "diff.png"),
		MissingBefore: !hasBefore,
		MissingAfter:  !hasAfter,
	}
}

func verdictOf(before, after *image.NRGBA) Status {
	if imagediff.Differs(before, after) {
		return StatusDiff
	}
	return StatusSame
}

func loadNRGBA(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "load %s", filepath.Base(path))
	}
	return imaging.Clone(img), nil
}
