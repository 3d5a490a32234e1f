package fileset

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/ecadlab/boardsnap/pkg/git"
)

// ReadRevision builds a FileSet from a git revision.
//
// Files are listed at the revision scoped to the project's subdirectory inside
// the repository, mapped from repository-relative back to project-relative
// paths, whitelist-filtered, and fetched individually. A project directory
// with no enclosing repository yields an empty FileSet rather than failing;
// a revision that cannot be listed fails with SOURCE_UNAVAILABLE.
func ReadRevision(ctx context.Context, gc *git.Client, projectDir, revision string) (FileSet, error) {
	absDir, err := filepath.Abs(projectDir)
	if err != nil {
		return FileSet{}, nil
	}

	root := gc.RepoRoot(ctx, absDir)
	if root == "" {
		return FileSet{}, nil
	}

	prefix := ""
	if rel, err := filepath.Rel(root, absDir); err == nil && rel != "." {
		prefix = filepath.ToSlash(rel)
	}

	repoPaths, err := gc.ListFiles(ctx, root, revision, prefix)
	if err != nil {
		return nil, err
	}

	result := FileSet{}
	for _, repoPath := range repoPaths {
		rel := NormalizePath(repoPath)
		if prefix != "" {
			if !strings.HasPrefix(rel, prefix+"/") {
				continue
			}
			rel = rel[len(prefix)+1:]
		}
		if !IsDesignPath(rel) {
			continue
		}
		data, err := gc.ReadFile(ctx, root, revision, repoPath)
		if err != nil {
			// Single unreadable blob: skip it, keep the rest of the snapshot.
			continue
		}
		result[rel] = data
	}
	return result, nil
}
