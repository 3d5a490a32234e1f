// Package pkg provides the core libraries for boardsnap snapshot comparison.
//
// # Overview
//
// Boardsnap compares the state of a KiCad project across points in time and
// turns the differences into per-sheet and per-layer image diffs. The pkg
// directory is organized leaf-first:
//
//  1. [fileset] - Snapshot normalization: live directory, zip backup, or git
//     revision, each reduced to the same whitelisted path→bytes map, plus the
//     byte-equality diff between two of them.
//  2. [timeline] - Enumeration of available snapshots (backup archives and
//     git history) and backup creation.
//  3. [kicad] - The external tool boundary: kicad-cli discovery, SVG export
//     with fallback layer sets, and board layer listing.
//  4. [render] - Render-target discovery over two FileSets and SVG
//     rasterization.
//  5. [imagediff] - Pixel-exact bitmap comparison with highlight output.
//  6. [compare] - The comparison session tying it together: materialized
//     snapshots, render cache, status tracking, and the precache worker.
//
// # Architecture
//
// The typical data flow through boardsnap:
//
//	timeline (list snapshots)
//	     ↓
//	fileset (read + diff two snapshots)
//	     ↓
//	render (discover sheet/board/layer targets)
//	     ↓
//	kicad (export SVG) → render (rasterize)
//	     ↓
//	imagediff (pad, diff, verdict)
//	     ↓
//	compare (cache images, publish status)
//
// Supporting packages: [cache] for persistent tool-output caching, [config]
// for the TOML config file, [errors] for the structured error taxonomy,
// [git] for read-only version-control queries, and [buildinfo] for version
// stamping.
//
// # Quick Start
//
// Compare the live directory against a git revision and render every target:
//
//	gc := git.NewClient("")
//	before, _ := fileset.ReadRevision(ctx, gc, projectDir, "HEAD~1")
//	after, _ := fileset.ReadDir(projectDir)
//
//	kc, _ := kicad.Discover(ctx, "", nil)
//	sess, _ := compare.NewSession(ctx, before, after, kc, compare.SessionOptions{Lister: kc})
//	defer sess.Close()
//
//	for _, target := range sess.Targets {
//	    res, err := sess.Ensure(ctx, target.Key())
//	    // res.BeforePath, res.AfterPath, res.DiffPath, res.Verdict
//	}
//
// [fileset]: https://pkg.go.dev/github.com/ecadlab/boardsnap/pkg/fileset
// [timeline]: https://pkg.go.dev/github.com/ecadlab/boardsnap/pkg/timeline
// [kicad]: https://pkg.go.dev/github.com/ecadlab/boardsnap/pkg/kicad
// [render]: https://pkg.go.dev/github.com/ecadlab/boardsnap/pkg/render
// [imagediff]: https://pkg.go.dev/github.com/ecadlab/boardsnap/pkg/imagediff
// [compare]: https://pkg.go.dev/github.com/ecadlab/boardsnap/pkg/compare
// [cache]: https://pkg.go.dev/github.com/ecadlab/boardsnap/pkg/cache
// [config]: https://pkg.go.dev/github.com/ecadlab/boardsnap/pkg/config
// [errors]: https://pkg.go.dev/github.com/ecadlab/boardsnap/pkg/errors
// [git]: https://pkg.go.dev/github.com/ecadlab/boardsnap/pkg/git
// [buildinfo]: https://pkg.go.dev/github.com/ecadlab/boardsnap/pkg/buildinfo
package pkg
