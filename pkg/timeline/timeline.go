// Package timeline enumerates the snapshots available for a project: zip
// backup archives discovered on disk and git revisions of the enclosing
// repository, merged into one list ordered newest first.
package timeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ecadlab/boardsnap/pkg/config"
	"github.com/ecadlab/boardsnap/pkg/fileset"
	"github.com/ecadlab/boardsnap/pkg/git"
)

// BackupDirName is the dedicated backup subfolder inside the project directory.
const BackupDirName = "snapshot_backups"

// Filter restricts which snapshot sources appear in a timeline listing.
type Filter string

const (
	// FilterAll lists backups and git revisions together.
	FilterAll Filter = "all"

	// FilterBackups lists only zip backup archives.
	FilterBackups Filter = "backups"

	// FilterGit lists only git revisions.
	FilterGit Filter = "git"
)

// Item is one selectable point in time.
// Identity is (Source.Kind, Source.ID); Label is display-only.
type Item struct {
	Source fileset.Source `json:"source"`
	Label  string         `json:"label"`
	Time   time.Time      `json:"time"`
}

// Descriptor returns the item's source descriptor string ("backup:..." / "git:...").
func (i Item) Descriptor() string {
	return i.Source.String()
}

// List enumerates snapshots for the project directory, newest first,
// truncated to limit. The limit is clamped to the allowed range regardless of
// the caller; callers that want the configured default for an unset limit
// apply [config.Config.ClampTimelineLimit] first.
func List(ctx context.Context, gc *git.Client, projectDir string, limit int, filter Filter) ([]Item, error) {
	if limit < config.MinTimelineLimit {
		limit = config.MinTimelineLimit
	}
	if limit > config.MaxTimelineLimit {
		limit = config.MaxTimelineLimit
	}

	var items []Item
	if filter == FilterAll || filter == FilterBackups {
		items = append(items, backupItems(projectDir)...)
	}
	if filter == FilterAll || filter == FilterGit {
		items = append(items, gitItems(ctx, gc, projectDir, limit)...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Time.After(items[j].Time)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// backupItems scans the candidate backup locations for zip archives,
// deduplicating by resolved absolute path. Timestamps come from file
// modification time. Unreadable locations are skipped silently.
func backupItems(projectDir string) []Item {
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil
	}
	dirName := filepath.Base(projectDir)

	candidateDirs := []string{
		filepath.Join(projectDir, BackupDirName),
		filepath.Join(projectDir, "backup"),
		filepath.Join(projectDir, "backups"),
		filepath.Join(projectDir, dirName+"-backups"),
		filepath.Join(filepath.Dir(projectDir), dirName+"-backups"),
	}

	seen := map[string]bool{}
	var zipPaths []string
	for _, dir := range candidateDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".zip") {
				continue
			}
			addUnique(&zipPaths, seen, filepath.Join(dir, entry.Name()))
		}
	}

	// Project-root snapshot archives are a common manual pattern.
	if matches, err := filepath.Glob(filepath.Join(projectDir, "snapshot*.zip")); err == nil {
		for _, m := range matches {
			addUnique(&zipPaths, seen, m)
		}
	}

	var items []Item
	for _, zipPath := range zipPaths {
		info, err := os.Stat(zipPath)
		if err != nil {
			continue
		}
		mod := info.ModTime()
		items = append(items, Item{
			Source: fileset.Source{Kind: fileset.SourceBackup, ID: zipPath},
			Label:  fmt.Sprintf("%s  %s  [Backup]", mod.Format("2006-01-02 15:04:05"), filepath.Base(zipPath)),
			Time:   mod,
		})
	}
	return items
}

// gitItems lists the most recent revisions of the enclosing repository.
// A project outside version control yields no items without error.
func gitItems(ctx context.Context, gc *git.Client, projectDir string, limit int) []Item {
	revisions, err := gc.Log(ctx, projectDir, limit)
	if err != nil {
		return nil
	}

	var items []Item
	for _, rev := range revisions {
		items = append(items, Item{
			Source: fileset.Source{Kind: fileset.SourceRevision, ID: rev.Hash},
			Label: fmt.Sprintf("%s  %s  %s  [Git]",
				rev.Time.Format("2006-01-02 15:04:05"), rev.ShortHash(), rev.Subject),
			Time: rev.Time,
		})
	}
	return items
}

func addUnique(paths *[]string, seen map[string]bool, p string) {
	resolved, err := filepath.EvalSymlinks(p)
	if err != nil {
		resolved = p
	}
	if abs, err := filepath.Abs(resolved); err == nil {
		resolved = abs
	}
	if seen[resolved] {
		return
	}
	seen[resolved] = true
	*paths = append(*paths, p)
}
