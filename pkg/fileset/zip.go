package fileset

import (
	"archive/zip"
	"io"
	"strings"

	"github.com/ecadlab/boardsnap/pkg/errors"
)

// ReadZip builds a FileSet from a backup zip archive.
//
// Entry names are normalized (backslashes to slashes, surrounding slashes
// stripped) before the whitelist check, and directory entries are skipped.
// An unreadable archive fails with SOURCE_UNAVAILABLE; an unreadable single
// entry is skipped.
func ReadZip(zipPath string) (FileSet, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "open archive %s", zipPath)
	}
	defer zr.Close()

	result := FileSet{}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		rel := NormalizePath(f.Name)
		if rel == "" || !IsDesignPath(rel) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		result[rel] = data
	}
	return result, nil
}
