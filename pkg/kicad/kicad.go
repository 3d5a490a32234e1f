// Package kicad wraps the kicad-cli executable: discovery and version
// probing, SVG export for schematics and boards, and board layer listing.
//
// Every invocation is a subprocess with a fixed timeout; a run past its bound
// is treated as failed, not hung. Export success requires both a zero exit
// status and at least one SVG file present afterwards — some kicad-cli
// versions exit zero while writing nothing for layer names they don't accept,
// which is why whole-board exports walk a fallback chain of layer sets.
package kicad

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/ecadlab/boardsnap/pkg/cache"
	"github.com/ecadlab/boardsnap/pkg/errors"
)

// Default invocation bounds. Probing and layer listing are quick metadata
// queries; exports can legitimately take tens of seconds on large boards.
const (
	DefaultProbeTimeout  = 10 * time.Second
	DefaultExportTimeout = 40 * time.Second
)

// Client invokes a probed kicad-cli executable.
type Client struct {
	// Path is the kicad-cli executable path.
	Path string

	// Version is the version string reported by the probe.
	Version string

	// ProbeTimeout bounds version probes and layer listing.
	ProbeTimeout time.Duration

	// ExportTimeout bounds a single export invocation.
	ExportTimeout time.Duration
}

var versionPattern = regexp.MustCompile(`\d+(?:\.\d+)+`)

// Discover locates a usable kicad-cli executable. The configured path is
// tried first, then PATH, then well-known install locations. The first
// candidate that answers a version probe wins. A non-nil store remembers
// successful probes across runs, so repeated invocations skip the subprocess
// as long as the executable is still present.
func Discover(ctx context.Context, configured string, store cache.Cache) (*Client, error) {
	var candidates []string
	if configured != "" {
		candidates = append(candidates, configured)
	}
	if p, err := exec.LookPath("kicad-cli"); err == nil {
		candidates = append(candidates, p)
	}
	candidates = append(candidates, wellKnownPaths()...)

	seen := map[string]bool{}
	for _, candidate := range candidates {
		if candidate == "" || seen[candidate] {
			continue
		}
		seen[candidate] = true
		if c, ok := probeFromCache(ctx, store, candidate); ok {
			return c, nil
		}
		c, err := Probe(ctx, candidate)
		if err != nil {
			continue
		}
		if store != nil {
			_ = store.Set(ctx, probeKey(candidate), []byte(c.Version), cache.TTLProbe)
		}
		return c, nil
	}
	return nil, errors.New(errors.ErrCodeToolNotFound, "kicad-cli not found; install KiCad or set kicad_cli in the config")
}

// probeKey is the cache key for one candidate executable's probe result.
func probeKey(path string) string {
	return "probe:" + cache.Hash([]byte(path))
}

// probeFromCache answers a version probe from the store without invoking the
// tool. The executable must still exist; a cached probe for a removed binary
// is ignored so discovery falls through to a live probe of the next candidate.
func probeFromCache(ctx context.Context, store cache.Cache, path string) (*Client, bool) {
	if store == nil {
		return nil, false
	}
	data, hit, err := store.Get(ctx, probeKey(path))
	if err != nil || !hit || len(data) == 0 {
		return nil, false
	}
	if _, err := os.Stat(path); err != nil {
		return nil, false
	}
	return &Client{
		Path:          path,
		Version:       string(data),
		ProbeTimeout:  DefaultProbeTimeout,
		ExportTimeout: DefaultExportTimeout,
	}, true
}

// Probe runs `kicad-cli --version` and returns a ready Client on success.
func Probe(ctx context.Context, path string) (*Client, error) {
	c := &Client{
		Path:          path,
		ProbeTimeout:  DefaultProbeTimeout,
		ExportTimeout: DefaultExportTimeout,
	}
	out, _, err := c.run(ctx, c.ProbeTimeout, "--version")
	if err != nil {
		return nil, err
	}
	raw := strings.TrimSpace(string(out))
	if raw == "" {
		return nil, errors.New(errors.ErrCodeToolNotFound, "%s produced no version output", path)
	}
	if m := versionPattern.FindString(raw); m != "" {
		c.Version = m
	} else {
		c.Version = raw
	}
	return c, nil
}

// wellKnownPaths lists platform-specific install locations checked when the
// executable is neither configured nor on PATH.
func wellKnownPaths() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/KiCad/KiCad.app/Contents/MacOS/kicad-cli",
		}
	case "windows":
		return []string{
			`C:\Program Files\KiCad\9.0\bin\kicad-cli.exe`,
			`C:\Program Files\KiCad\8.0\bin\kicad-cli.exe`,
			`C:\Program Files\KiCad\7.0\bin\kicad-cli.exe`,
		}
	default:
		return []string{
			"/usr/bin/kicad-cli",
			"/usr/local/bin/kicad-cli",
			"/snap/kicad/current/usr/bin/kicad-cli",
		}
	}
}

// run executes kicad-cli with args under the given timeout.
// Returns stdout, the diagnostic text (stderr falling back to stdout), and
// an error for a nonzero exit or timeout.
func (c *Client) run(ctx context.Context, timeout time.Duration, args ...string) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Path, args...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	err := cmd.Run()
	diagnostic := strings.TrimSpace(errBuf.String())
	if diagnostic == "" {
		diagnostic = strings.TrimSpace(out.String())
	}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, diagnostic, errors.New(errors.ErrCodeTimeout, "kicad-cli %s timed out after %s", args[0], timeout)
		}
		if diagnostic == "" {
			diagnostic = err.Error()
		}
		return nil, diagnostic, errors.New(errors.ErrCodeRenderFailed, "kicad-cli %s: %s", strings.Join(args, " "), diagnostic)
	}
	return out.Bytes(), diagnostic, nil
}
