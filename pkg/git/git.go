// Package git provides the read-only version-control queries boardsnap needs:
// resolve a repository root, list revisions, list files at a revision, and
// read file content at a revision.
//
// All queries shell out to the git executable with a fixed timeout. A
// directory that is not under version control is not an error condition —
// queries against it simply yield nothing, so the timeline degrades to
// backups-only instead of failing.
package git

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ecadlab/boardsnap/pkg/errors"
)

// commandTimeout bounds every git invocation. Listing and content reads are
// local operations; anything slower than this is treated as failed, not hung.
const commandTimeout = 20 * time.Second

// Revision describes one commit in the project's history.
type Revision struct {
	Hash    string    // full commit hash
	Time    time.Time // committer timestamp
	Subject string    // first line of the commit message
}

// ShortHash returns the abbreviated hash used in display labels.
func (r Revision) ShortHash() string {
	if len(r.Hash) <= 10 {
		return r.Hash
	}
	return r.Hash[:10]
}

// Client runs git queries against a working copy.
type Client struct {
	// Path overrides the git executable. Empty means "git" from PATH.
	Path string
}

// NewClient creates a client using the given executable path, or "git" from
// PATH when path is empty.
func NewClient(path string) *Client {
	return &Client{Path: path}
}

// Available reports whether the git executable can be invoked at all.
func (c *Client) Available(ctx context.Context) bool {
	_, err := c.run(ctx, ".", "--version")
	return err == nil
}

// RepoRoot resolves the repository top-level directory containing dir.
// Returns "" (and no error) when dir is not inside a working copy.
func (c *Client) RepoRoot(ctx context.Context, dir string) string {
	out, err := c.run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// Log lists the most recent limit revisions of the repository containing dir,
// newest first. Lines that fail to parse are skipped. A directory outside
// version control yields an empty list without error.
func (c *Client) Log(ctx context.Context, dir string, limit int) ([]Revision, error) {
	root := c.RepoRoot(ctx, dir)
	if root == "" {
		return nil, nil
	}

	// %x1f separators survive arbitrary commit subjects.
	out, err := c.run(ctx, root, "log", "-n"+strconv.Itoa(limit), "--pretty=format:%H%x1f%ct%x1f%s")
	if err != nil {
		return nil, nil
	}

	var revisions []Revision
	for _, line := range strings.Split(string(out), "\n") {
		parts := strings.SplitN(line, "\x1f", 3)
		if len(parts) != 3 {
			continue
		}
		unix, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		revisions = append(revisions, Revision{
			Hash:    parts[0],
			Time:    time.Unix(unix, 0),
			Subject: parts[2],
		})
	}
	return revisions, nil
}

// ListFiles lists repository-relative file paths at the given revision,
// restricted to prefix when prefix is not empty.
func (c *Client) ListFiles(ctx context.Context, root, revision, prefix string) ([]string, error) {
	args := []string{"ls-tree", "-r", "--name-only", revision}
	if prefix != "" {
		args = append(args, "--", prefix)
	}
	out, err := c.run(ctx, root, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "list files at %s", revision)
	}

	var paths []string
	for _, line := range strings.Split(string(out), "\n") {
		if p := strings.TrimSpace(line); p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// ReadFile returns the content of a repository-relative path at a revision.
func (c *Client) ReadFile(ctx context.Context, root, revision, repoPath string) ([]byte, error) {
	out, err := c.run(ctx, root, "show", revision+":"+repoPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "read %s at %s", repoPath, revision)
	}
	return out, nil
}

// run executes git -C dir args with the command timeout, returning stdout.
// A nonzero exit status is an error carrying the captured stderr text.
func (c *Client) run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	executable := c.Path
	if executable == "" {
		executable = "git"
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, executable, append([]string{"-C", dir}, args...)...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.New(errors.ErrCodeTimeout, "git %s timed out", strings.Join(args, " "))
		}
		msg := strings.TrimSpace(errBuf.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, errors.New(errors.ErrCodeSourceUnavailable, "git %s: %s", args[0], msg)
	}
	return out.Bytes(), nil
}
