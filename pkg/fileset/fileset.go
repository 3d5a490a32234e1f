// Package fileset normalizes heterogeneous snapshot sources into one
// comparable file-set abstraction.
//
// A [FileSet] maps project-relative POSIX paths to file content. Three source
// kinds produce FileSets: the live working directory ([ReadDir]), a zip backup
// archive ([ReadZip]), and a git revision ([ReadRevision]). All three apply
// the same design-file whitelist, so a FileSet only ever contains KiCad design
// documents regardless of where it came from.
//
// FileSets are built once per source and never mutated; a re-comparison builds
// new ones. [Diff] computes the added/removed/changed/unchanged partition of
// two FileSets.
package fileset

import (
	"path"
	"sort"
	"strings"
)

// Renderable document extensions, used by target resolution downstream.
const (
	// SheetExt is the schematic (sheet document) extension.
	SheetExt = ".kicad_sch"

	// BoardExt is the PCB (board document) extension.
	BoardExt = ".kicad_pcb"
)

// wellKnownNames are extensionless design files kept by the whitelist.
var wellKnownNames = map[string]bool{
	"fp-lib-table":           true,
	"sym-lib-table":          true,
	"design-block-lib-table": true,
}

// designExts are the file extensions kept by the whitelist.
var designExts = map[string]bool{
	".kicad_pro": true,
	SheetExt:     true,
	BoardExt:     true,
	".kicad_sym": true,
	".kicad_mod": true,
	".kicad_dru": true,
	".kicad_wks": true,
}

// FileSet is an immutable mapping from project-relative POSIX path to content.
type FileSet map[string][]byte

// Paths returns the sorted list of paths in the set.
func (fs FileSet) Paths() []string {
	paths := make([]string, 0, len(fs))
	for p := range fs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// PathsWithExt returns the sorted paths whose name ends in ext.
func (fs FileSet) PathsWithExt(ext string) []string {
	var paths []string
	for p := range fs {
		if strings.HasSuffix(p, ext) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// NormalizePath converts an archive or repository entry name into the
// canonical relative form: forward slashes, no leading or trailing slash.
// Returns "" for entries that have no usable path (e.g. directory markers).
func NormalizePath(name string) string {
	normalized := strings.ReplaceAll(name, `\`, "/")
	return strings.Trim(normalized, "/")
}

// IsDesignPath reports whether a normalized relative path passes the
// design-file whitelist: a well-known library-table name or a KiCad
// design-document extension.
func IsDesignPath(rel string) bool {
	if rel == "" {
		return false
	}
	base := path.Base(rel)
	if wellKnownNames[base] {
		return true
	}
	return designExts[path.Ext(base)]
}
