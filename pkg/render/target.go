// Package render turns a pair of FileSets into renderable targets and
// rasterizes exported SVG documents into fixed-format bitmaps.
//
// Target discovery produces one target per sheet document and, for each board
// document, one "whole board" target plus one target per discovered layer.
// Layer discovery prefers the external tool's listing and falls back to a
// textual scan of the board document; listings are cached by board content
// hash so repeated comparisons of unchanged boards never re-invoke the tool.
package render

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/ecadlab/boardsnap/pkg/cache"
	"github.com/ecadlab/boardsnap/pkg/fileset"
	"github.com/ecadlab/boardsnap/pkg/kicad"
)

// Kind is the closed set of renderable document kinds.
type Kind string

const (
	// KindSheet is a schematic sheet document.
	KindSheet Kind = "sheet"

	// KindBoard is a layered board document.
	KindBoard Kind = "board"
)

// Target is one renderable unit: a whole sheet, a whole board, or one board
// layer. Identity is the (Kind, Path, Layer) tuple; an empty Layer on a board
// target means "whole board".
type Target struct {
	Kind  Kind   `json:"kind"`
	Path  string `json:"path"`
	Layer string `json:"layer,omitempty"`
}

// Key returns the stable identity string used for cache keys and status
// tracking.
func (t Target) Key() string {
	return string(t.Kind) + "|" + t.Path + "|" + t.Layer
}

// Label returns the human-readable list label.
func (t Target) Label() string {
	switch {
	case t.Kind == KindSheet:
		return "SCH / " + t.Path
	case t.Layer == "":
		return "PCB / " + t.Path + " / board"
	default:
		return "PCB / " + t.Path + " / " + t.Layer
	}
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeKey returns the identity key reduced to filesystem-safe characters,
// used for scratch directory names.
func (t Target) SafeKey() string {
	return unsafeKeyChars.ReplaceAllString(t.Key(), "_")
}

// LayerLister is the tool capability target resolution depends on.
// *kicad.Client implements it.
type LayerLister interface {
	ListLayers(ctx context.Context, boardPath string) ([]string, error)
}

// ResolveOptions configures target resolution.
type ResolveOptions struct {
	// Lister queries the external tool for board layers. Nil skips tool
	// listing and goes straight to the textual fallback.
	Lister LayerLister

	// LayerCache persists layer listings across runs, keyed by board content
	// hash. Nil disables caching.
	LayerCache cache.Cache

	// Logger for discovery diagnostics. Nil uses log.Default().
	Logger *log.Logger
}

// Resolve discovers the renderable targets for two FileSets materialized at
// beforeRoot and afterRoot. Sheet targets come first (sorted by path), then
// board targets: whole board before per-layer targets in discovery order.
// The result is deterministic given identical inputs.
func Resolve(ctx context.Context, before, after fileset.FileSet, beforeRoot, afterRoot string, opts ResolveOptions) []Target {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	var targets []Target
	for _, rel := range unionPaths(before, after, fileset.SheetExt) {
		targets = append(targets, Target{Kind: KindSheet, Path: rel})
	}

	for _, rel := range unionPaths(before, after, fileset.BoardExt) {
		targets = append(targets, Target{Kind: KindBoard, Path: rel})

		seen := map[string]bool{}
		for _, side := range []struct {
			fs   fileset.FileSet
			root string
		}{{before, beforeRoot}, {after, afterRoot}} {
			content, ok := side.fs[rel]
			if !ok {
				continue
			}
			boardPath := filepath.Join(side.root, filepath.FromSlash(rel))
			for _, layer := range discoverLayers(ctx, opts, logger, boardPath, content) {
				if seen[layer] {
					continue
				}
				seen[layer] = true
				targets = append(targets, Target{Kind: KindBoard, Path: rel, Layer: layer})
			}
		}
	}
	return targets
}

// discoverLayers finds the layer names of one side's board document:
// cached listing, then tool listing, then textual scan of the document.
func discoverLayers(ctx context.Context, opts ResolveOptions, logger *log.Logger, boardPath string, content []byte) []string {
	cacheKey := "layers:" + cache.Hash(content)
	if opts.LayerCache != nil {
		if data, hit, err := opts.LayerCache.Get(ctx, cacheKey); err == nil && hit {
			var layers []string
			if json.Unmarshal(data, &layers) == nil {
				return layers
			}
		}
	}

	var layers []string
	if opts.Lister != nil {
		if _, err := os.Stat(boardPath); err == nil {
			listed, err := opts.Lister.ListLayers(ctx, boardPath)
			if err != nil {
				logger.Debug("tool layer listing failed, using textual scan", "board", boardPath, "err", err)
			}
			layers = listed
		}
	}
	if len(layers) == 0 {
		layers = kicad.ParseBoardLayers(content)
	}

	if opts.LayerCache != nil && len(layers) > 0 {
		if data, err := json.Marshal(layers); err == nil {
			_ = opts.LayerCache.Set(ctx, cacheKey, data, cache.TTLLayers)
		}
	}
	return layers
}

// unionPaths returns the sorted union of paths with the given extension from
// both FileSets.
func unionPaths(before, after fileset.FileSet, ext string) []string {
	seen := map[string]bool{}
	var paths []string
	for _, p := range before.PathsWithExt(ext) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for _, p := range after.PathsWithExt(ext) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	// Each side's list is sorted; the merged list needs one more pass.
	sort.Strings(paths)
	return paths
}
