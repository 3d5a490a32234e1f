package fileset

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ecadlab/boardsnap/pkg/errors"
)

// ReadDir builds a FileSet from the live project directory.
//
// Individual files that cannot be read are skipped rather than failing the
// whole read; the live directory may legitimately contain files locked by an
// open editor. Only a missing or unreadable root directory is an error.
func ReadDir(projectDir string) (FileSet, error) {
	root, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidProject, err, "resolve project dir %s", projectDir)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidProject, "project directory %s not found", projectDir)
	}

	result := FileSet{}
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: skip it, keep walking.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !IsDesignPath(rel) {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil
		}
		result[rel] = data
		return nil
	})
	if walkErr != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, walkErr, "walk project dir %s", projectDir)
	}
	return result, nil
}

// WriteTo materializes the FileSet under root, creating parent directories as
// needed. The render pipeline uses this to give kicad-cli real files to read.
func (fs FileSet) WriteTo(root string) error {
	for rel, data := range fs {
		outPath := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return err
		}
	}
	return nil
}
