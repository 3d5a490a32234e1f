package timeline

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode"

	"github.com/ecadlab/boardsnap/pkg/errors"
	"github.com/ecadlab/boardsnap/pkg/fileset"
)

// CreateBackup zips the project's whitelisted design files into
// <project-dir>/<dir>-backups/<project>-<timestamp>[-memo].zip and returns
// the archive path. Name collisions get a numeric suffix rather than
// overwriting.
func CreateBackup(projectDir, projectName, memo string) (string, error) {
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidProject, err, "resolve project dir")
	}

	fs, err := fileset.ReadDir(projectDir)
	if err != nil {
		return "", err
	}

	backupDir := filepath.Join(projectDir, filepath.Base(projectDir)+"-backups")
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeSourceUnavailable, err, "create backup dir")
	}

	baseName := fmt.Sprintf("%s-%s", projectName, time.Now().Format("2006-01-02_150405"))
	if memoPart := SanitizeMemo(memo); memoPart != "" {
		baseName += "-" + memoPart
	}

	zipPath := filepath.Join(backupDir, baseName+".zip")
	for index := 1; ; index++ {
		if _, err := os.Stat(zipPath); os.IsNotExist(err) {
			break
		}
		zipPath = filepath.Join(backupDir, fmt.Sprintf("%s_%d.zip", baseName, index))
	}

	if err := writeZip(zipPath, fs); err != nil {
		return "", errors.Wrap(errors.ErrCodeSourceUnavailable, err, "write backup archive")
	}
	return zipPath, nil
}

// SanitizeMemo turns a free-form memo into a filename-safe fragment:
// spaces become underscores, filesystem-risky and control characters are
// dropped, and surrounding separator characters are trimmed.
func SanitizeMemo(memo string) string {
	forbidden := map[rune]bool{
		'/': true, '\\': true, ':': true, '*': true, '?': true,
		'"': true, '<': true, '>': true, '|': true,
	}

	var cleaned []rune
	for _, ch := range memo {
		switch {
		case ch == ' ':
			cleaned = append(cleaned, '_')
		case forbidden[ch] || ch < 32:
			// dropped
		case ch == '_' || ch == '-' || ch == '.':
			cleaned = append(cleaned, ch)
		case unicode.IsLetter(ch) || unicode.IsDigit(ch):
			cleaned = append(cleaned, ch)
		}
	}

	result := string(cleaned)
	for len(result) > 0 && trimmable(rune(result[0])) {
		result = result[1:]
	}
	for len(result) > 0 && trimmable(rune(result[len(result)-1])) {
		result = result[:len(result)-1]
	}
	return result
}

func trimmable(ch rune) bool {
	return ch == '.' || ch == '_' || ch == '-'
}

func writeZip(zipPath string, fs fileset.FileSet) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, rel := range fs.Paths() {
		w, err := zw.Create(rel)
		if err != nil {
			zw.Close()
			return err
		}
		if _, err := w.Write(fs[rel]); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}
