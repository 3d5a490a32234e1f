package fileset

import (
	"context"
	"strings"

	"github.com/ecadlab/boardsnap/pkg/errors"
	"github.com/ecadlab/boardsnap/pkg/git"
)

// SourceKind identifies where a snapshot comes from.
type SourceKind string

const (
	// SourceCurrent is the live working directory.
	SourceCurrent SourceKind = "current"

	// SourceBackup is a zip backup archive.
	SourceBackup SourceKind = "backup"

	// SourceRevision is a git revision.
	SourceRevision SourceKind = "git"
)

// Source is a parsed snapshot source descriptor.
//
// The textual form, shared by the CLI flags and the HTTP API, is
// "current", "backup:<zip path>", or "git:<revision>".
type Source struct {
	Kind SourceKind `json:"kind"`
	ID   string     `json:"id,omitempty"` // archive path or revision id; empty for current
}

// ParseSource parses a source descriptor string.
func ParseSource(descriptor string) (Source, error) {
	switch {
	case descriptor == string(SourceCurrent):
		return Source{Kind: SourceCurrent}, nil
	case strings.HasPrefix(descriptor, string(SourceBackup)+":"):
		id := descriptor[len(SourceBackup)+1:]
		if id == "" {
			return Source{}, errors.New(errors.ErrCodeInvalidSource, "backup source needs an archive path")
		}
		return Source{Kind: SourceBackup, ID: id}, nil
	case strings.HasPrefix(descriptor, string(SourceRevision)+":"):
		id := descriptor[len(SourceRevision)+1:]
		if id == "" {
			return Source{}, errors.New(errors.ErrCodeInvalidSource, "git source needs a revision")
		}
		return Source{Kind: SourceRevision, ID: id}, nil
	default:
		return Source{}, errors.New(errors.ErrCodeInvalidSource,
			"unknown source %q (want current, backup:<path>, or git:<revision>)", descriptor)
	}
}

// String returns the canonical descriptor form.
func (s Source) String() string {
	if s.Kind == SourceCurrent {
		return string(SourceCurrent)
	}
	return string(s.Kind) + ":" + s.ID
}

// Read builds the FileSet for this source relative to projectDir.
func (s Source) Read(ctx context.Context, gc *git.Client, projectDir string) (FileSet, error) {
	switch s.Kind {
	case SourceCurrent:
		return ReadDir(projectDir)
	case SourceBackup:
		return ReadZip(s.ID)
	case SourceRevision:
		return ReadRevision(ctx, gc, projectDir, s.ID)
	default:
		return nil, errors.New(errors.ErrCodeInvalidSource, "unknown source kind %q", s.Kind)
	}
}
